package subchunk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/astei/ldbtools/nbt"
)

// BlockStateVersion is the version every block state written by the game has carried so far.
const BlockStateVersion = 17825808

// BlockState is a typed view over a block state compound. It shares its tags with the compound,
// so changes made through either side are visible through the other. Replacing the name, states
// or version member of the compound with a new tag detaches the view from it.
type BlockState struct {
	root    *nbt.Compound
	name    *nbt.String
	states  *nbt.Compound
	version *nbt.Int
}

// NewBlockState creates a block state with no properties and the current version.
func NewBlockState(name string) *BlockState {
	s := &BlockState{
		name:    &nbt.String{Name: "name", Value: name},
		states:  nbt.NewCompound("states"),
		version: &nbt.Int{Name: "version", Value: BlockStateVersion},
	}
	s.root = nbt.NewCompound("", s.name, s.states, s.version)
	return s
}

// WrapBlockState creates a view over an existing compound, which must contain a string "name",
// a compound "states" and an int "version".
func WrapBlockState(root *nbt.Compound) (*BlockState, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil compound", ErrMalformedBlockState)
	}

	name, ok := nbt.Find[*nbt.String](root, "name")
	if !ok {
		return nil, fmt.Errorf("%w: missing TAG_String('name')", ErrMalformedBlockState)
	}
	states, ok := nbt.Find[*nbt.Compound](root, "states")
	if !ok {
		return nil, fmt.Errorf("%w: missing TAG_Compound('states') in %s", ErrMalformedBlockState, name.Value)
	}
	version, ok := nbt.Find[*nbt.Int](root, "version")
	if !ok {
		return nil, fmt.Errorf("%w: missing TAG_Int('version') in %s", ErrMalformedBlockState, name.Value)
	}

	return &BlockState{root: root, name: name, states: states, version: version}, nil
}

// Name returns the namespaced block id, e.g. "minecraft:stone".
func (s *BlockState) Name() string { return s.name.Value }

func (s *BlockState) SetName(name string) { s.name.Value = name }

func (s *BlockState) Version() int32 { return s.version.Value }

func (s *BlockState) SetVersion(version int32) { s.version.Value = version }

// States returns the property compound itself, not a copy.
func (s *BlockState) States() *nbt.Compound { return s.states }

// Compound returns the root compound backing this view.
func (s *BlockState) Compound() *nbt.Compound { return s.root }

// Property returns the first property named name.
func (s *BlockState) Property(name string) (nbt.Tag, bool) {
	t := s.states.Get(name)
	return t, t != nil
}

// SetProperty replaces the property with the same name as t or adds it.
func (s *BlockState) SetProperty(t nbt.Tag) {
	s.states.Set(t)
}

// Equal reports whether both states have the same name, version and properties, ignoring the
// order in which the properties are stored. Properties match only when their kinds match too, so
// a Byte 1 and a String "1" differ.
func (s *BlockState) Equal(o *BlockState) bool {
	if s.Name() != o.Name() || s.Version() != o.Version() || s.states.Len() != o.states.Len() {
		return false
	}
	a, ok := encodedProperties(s.states)
	if !ok {
		return false
	}
	b, ok := encodedProperties(o.states)
	if !ok {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// encodedProperties returns the sorted named encodings of every property.
func encodedProperties(states *nbt.Compound) ([]string, bool) {
	encoded := make([]string, 0, states.Len())
	for _, t := range states.Value {
		raw, err := nbt.Marshal(t)
		if err != nil {
			return nil, false
		}
		encoded = append(encoded, string(raw))
	}
	sort.Strings(encoded)
	return encoded, true
}

// String renders the state the way commands accept it: minecraft:wool[color=lime].
func (s *BlockState) String() string {
	if props := s.propertyString(); props != "" {
		return s.Name() + "[" + props + "]"
	}
	return s.Name()
}

func (s *BlockState) propertyString() string {
	if s.states.Len() == 0 {
		return ""
	}
	props := make([]string, 0, s.states.Len())
	for _, t := range s.states.Value {
		if nbt.IsNil(t) {
			continue
		}
		props = append(props, t.TagName()+"="+propertyValue(t))
	}
	sort.Strings(props)
	return strings.Join(props, ",")
}

func propertyValue(t nbt.Tag) string {
	switch t := t.(type) {
	case *nbt.String:
		return t.Value
	case *nbt.Byte:
		return fmt.Sprint(t.Value)
	case *nbt.Short:
		return fmt.Sprint(t.Value)
	case *nbt.Int:
		return fmt.Sprint(t.Value)
	case *nbt.Long:
		return fmt.Sprint(t.Value)
	case *nbt.Float:
		return fmt.Sprint(t.Value)
	case *nbt.Double:
		return fmt.Sprint(t.Value)
	default:
		return strings.TrimSuffix(nbt.Sprint(t), "\n")
	}
}
