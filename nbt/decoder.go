package nbt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Decoder reads little-endian NBT from a byte slice. The slice is borrowed, never modified, and
// must outlive the decoder; decoded tags do not reference it.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Decode reads a single named tag from the start of buf.
func Decode(buf []byte) (Tag, error) {
	return NewDecoder(buf).Decode()
}

// DecodeAll reads named tags back to back until buf is exhausted.
func DecodeAll(buf []byte) (tags []Tag, err error) {
	d := NewDecoder(buf)
	for d.More() {
		t, err := d.Decode()
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// Pos returns the offset of the next unread byte.
func (d *Decoder) Pos() int { return d.pos }

// More reports whether unread bytes remain.
func (d *Decoder) More() bool { return d.pos < len(d.buf) }

// Decode reads a named tag: kind byte, name and payload. TAG_End is not a tag on its own and is
// rejected here; compounds consume their terminator themselves.
func (d *Decoder) Decode() (Tag, error) {
	kind, err := d.readKind()
	if err != nil {
		return nil, err
	}
	if kind == KindEnd {
		return nil, d.errorf(ErrUnexpectedEnd, d.pos-1, "named tag")
	}
	return d.decodeNamed(kind)
}

// DecodeUnnamed reads only the payload of a tag of the given kind, as found in a list.
func (d *Decoder) DecodeUnnamed(kind Kind) (Tag, error) {
	return d.decodePayload(kind, "")
}

func (d *Decoder) decodeNamed(kind Kind) (Tag, error) {
	name, err := d.readString()
	if err != nil {
		return nil, err
	}
	return d.decodePayload(kind, name)
}

func (d *Decoder) decodePayload(kind Kind, name string) (Tag, error) {
	switch kind {
	case KindByte:
		v, err := d.read(1)
		if err != nil {
			return nil, err
		}
		return &Byte{Name: name, Value: int8(v[0])}, nil
	case KindShort:
		v, err := d.read(2)
		if err != nil {
			return nil, err
		}
		return &Short{Name: name, Value: int16(binary.LittleEndian.Uint16(v))}, nil
	case KindInt:
		v, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		return &Int{Name: name, Value: v}, nil
	case KindLong:
		v, err := d.read(8)
		if err != nil {
			return nil, err
		}
		return &Long{Name: name, Value: int64(binary.LittleEndian.Uint64(v))}, nil
	case KindFloat:
		v, err := d.read(4)
		if err != nil {
			return nil, err
		}
		return &Float{Name: name, Value: math.Float32frombits(binary.LittleEndian.Uint32(v))}, nil
	case KindDouble:
		v, err := d.read(8)
		if err != nil {
			return nil, err
		}
		return &Double{Name: name, Value: math.Float64frombits(binary.LittleEndian.Uint64(v))}, nil
	case KindByteArray:
		raw, err := d.readArray(1)
		if err != nil {
			return nil, err
		}
		return &ByteArray{Name: name, Value: decodeValues[int8](raw, 1)}, nil
	case KindString:
		v, err := d.readString()
		if err != nil {
			return nil, err
		}
		return &String{Name: name, Value: v}, nil
	case KindList:
		return d.decodeList(name)
	case KindCompound:
		return d.decodeCompound(name)
	case KindIntArray:
		raw, err := d.readArray(4)
		if err != nil {
			return nil, err
		}
		return &IntArray{Name: name, Value: decodeValues[int32](raw, 4)}, nil
	case KindLongArray:
		raw, err := d.readArray(8)
		if err != nil {
			return nil, err
		}
		return &LongArray{Name: name, Value: decodeValues[int64](raw, 8)}, nil
	case KindEnd:
		return nil, d.errorf(ErrUnexpectedEnd, d.pos, "unnamed tag")
	default:
		return nil, d.errorf(ErrUnknownTagKind, d.pos, fmt.Sprintf("0x%02X", byte(kind)))
	}
}

func (d *Decoder) decodeList(name string) (*List, error) {
	contentKind, err := d.readKind()
	if err != nil {
		return nil, err
	}
	start := d.pos
	count, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, d.errorf(ErrNegativeLength, start, fmt.Sprintf("list of %d", count))
	}

	list := &List{Name: name, ContentKind: contentKind}
	// Every element takes at least one byte, which bounds the preallocation by what is left.
	if count > 0 && int(count) <= len(d.buf)-d.pos {
		list.Value = make([]Tag, 0, count)
	}
	for i := int32(0); i < count; i++ {
		element, err := d.decodePayload(contentKind, "")
		if err != nil {
			return nil, err
		}
		list.Value = append(list.Value, element)
	}
	return list, nil
}

func (d *Decoder) decodeCompound(name string) (*Compound, error) {
	compound := &Compound{Name: name}
	for {
		kind, err := d.readKind()
		if err != nil {
			return nil, err
		}
		if kind == KindEnd {
			return compound, nil
		}

		member, err := d.decodeNamed(kind)
		if err != nil {
			return nil, err
		}
		compound.Value = append(compound.Value, member)
	}
}

// decodeValues converts raw little-endian array elements of the given width. Empty arrays
// decode to nil.
func decodeValues[T int8 | int32 | int64](raw []byte, width int) []T {
	if len(raw) == 0 {
		return nil
	}
	values := make([]T, len(raw)/width)
	for i := range values {
		switch width {
		case 1:
			values[i] = T(int8(raw[i]))
		case 4:
			values[i] = T(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		case 8:
			values[i] = T(int64(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	}
	return values
}

func (d *Decoder) readKind() (Kind, error) {
	v, err := d.read(1)
	if err != nil {
		return 0, err
	}
	kind := Kind(v[0])
	if !kind.Valid() {
		return 0, d.errorf(ErrUnknownTagKind, d.pos-1, fmt.Sprintf("0x%02X", v[0]))
	}
	return kind, nil
}

func (d *Decoder) readInt32() (int32, error) {
	v, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(v)), nil
}

func (d *Decoder) readString() (string, error) {
	v, err := d.read(2)
	if err != nil {
		return "", err
	}
	s, err := d.read(int(binary.LittleEndian.Uint16(v)))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// readArray reads a signed element count followed by count elements of width bytes each and
// returns the raw element bytes.
func (d *Decoder) readArray(width int) ([]byte, error) {
	start := d.pos
	count, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, d.errorf(ErrNegativeLength, start, fmt.Sprintf("array of %d", count))
	}
	return d.read(int(count) * width)
}

func (d *Decoder) read(n int) ([]byte, error) {
	if n > len(d.buf)-d.pos {
		return nil, d.errorf(ErrUnexpectedEOF, d.pos, fmt.Sprintf("need %d bytes, have %d", n, len(d.buf)-d.pos))
	}
	v := d.buf[d.pos : d.pos+n]
	d.pos += n
	return v, nil
}

func (d *Decoder) errorf(sentinel error, offset int, detail string) error {
	return fmt.Errorf("%w at offset %d: %s", sentinel, offset, detail)
}
