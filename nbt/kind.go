package nbt

import "fmt"

// Kind identifies the payload shape of a tag on the wire.
type Kind byte

const (
	KindEnd       Kind = 0x00
	KindByte      Kind = 0x01
	KindShort     Kind = 0x02
	KindInt       Kind = 0x03
	KindLong      Kind = 0x04
	KindFloat     Kind = 0x05
	KindDouble    Kind = 0x06
	KindByteArray Kind = 0x07
	KindString    Kind = 0x08
	KindList      Kind = 0x09
	KindCompound  Kind = 0x0A
	KindIntArray  Kind = 0x0B
	KindLongArray Kind = 0x0C
)

var kindNames = [...]string{
	KindEnd:       "End",
	KindByte:      "Byte",
	KindShort:     "Short",
	KindInt:       "Int",
	KindLong:      "Long",
	KindFloat:     "Float",
	KindDouble:    "Double",
	KindByteArray: "Byte_Array",
	KindString:    "String",
	KindList:      "List",
	KindCompound:  "Compound",
	KindIntArray:  "Int_Array",
	KindLongArray: "Long_Array",
}

// Valid reports whether k is one of the thirteen known wire codes.
func (k Kind) Valid() bool {
	return k <= KindLongArray
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("TAG_Unknown(0x%02X)", byte(k))
	}
	return "TAG_" + kindNames[k]
}

// KindOf maps a wire byte to a Kind.
func KindOf(b byte) (Kind, error) {
	k := Kind(b)
	if !k.Valid() {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownTagKind, b)
	}
	return k, nil
}
