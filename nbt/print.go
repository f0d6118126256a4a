package nbt

import (
	"fmt"
	"strconv"
	"strings"
)

// Sprint renders t as an indented tree, one tag per line:
//
//	TAG_Compound(''): 3 entries
//	{
//	  TAG_String('name'): 'minecraft:stone'
//	  ...
//	}
func Sprint(t Tag) string {
	return SprintIndent(t, "  ")
}

// SprintIndent is Sprint with a custom indentation unit.
func SprintIndent(t Tag, indent string) string {
	var sb strings.Builder
	printTag(&sb, t, indent, 0)
	return sb.String()
}

func printTag(sb *strings.Builder, t Tag, indent string, depth int) {
	pad := strings.Repeat(indent, depth)
	sb.WriteString(pad)
	if IsNil(t) {
		sb.WriteString("<nil>\n")
		return
	}
	fmt.Fprintf(sb, "%s('%s'): ", t.Kind(), t.TagName())

	switch t := t.(type) {
	case *Byte:
		sb.WriteString(strconv.Itoa(int(t.Value)))
	case *Short:
		sb.WriteString(strconv.Itoa(int(t.Value)))
	case *Int:
		sb.WriteString(strconv.Itoa(int(t.Value)))
	case *Long:
		sb.WriteString(strconv.FormatInt(t.Value, 10) + "L")
	case *Float:
		sb.WriteString(strconv.FormatFloat(float64(t.Value), 'g', -1, 32))
	case *Double:
		sb.WriteString(strconv.FormatFloat(t.Value, 'g', -1, 64))
	case *String:
		sb.WriteString("'" + t.Value + "'")
	case *ByteArray:
		printValues(sb, t.Value, pad, indent)
		return
	case *IntArray:
		printValues(sb, t.Value, pad, indent)
		return
	case *LongArray:
		printValues(sb, t.Value, pad, indent)
		return
	case *List:
		fmt.Fprintf(sb, "%d entries, %s\n%s{\n", len(t.Value), t.ContentKind, pad)
		for _, element := range t.Value {
			printTag(sb, element, indent, depth+1)
		}
		sb.WriteString(pad + "}\n")
		return
	case *Compound:
		fmt.Fprintf(sb, "%d entries\n%s{\n", len(t.Value), pad)
		for _, member := range t.Value {
			printTag(sb, member, indent, depth+1)
		}
		sb.WriteString(pad + "}\n")
		return
	}
	sb.WriteByte('\n')
}

func printValues[T int8 | int32 | int64](sb *strings.Builder, values []T, pad, indent string) {
	fmt.Fprintf(sb, "%d entries\n%s{\n", len(values), pad)
	for _, v := range values {
		fmt.Fprintf(sb, "%s%s%d,\n", pad, indent, v)
	}
	sb.WriteString(pad + "}\n")
}

func (t *Byte) String() string      { return Sprint(t) }
func (t *Short) String() string     { return Sprint(t) }
func (t *Int) String() string       { return Sprint(t) }
func (t *Long) String() string      { return Sprint(t) }
func (t *Float) String() string     { return Sprint(t) }
func (t *Double) String() string    { return Sprint(t) }
func (t *ByteArray) String() string { return Sprint(t) }
func (t *String) String() string    { return Sprint(t) }
func (t *IntArray) String() string  { return Sprint(t) }
func (t *LongArray) String() string { return Sprint(t) }
func (t *List) String() string      { return Sprint(t) }
func (t *Compound) String() string  { return Sprint(t) }
