package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encoder writes little-endian NBT to an io.Writer. Each call builds the full encoding of one
// tag in a private buffer before handing it to the writer, so a failed call writes nothing.
type Encoder struct {
	w   io.Writer
	buf []byte
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Marshal returns the encoding of t as a named tag.
func Marshal(t Tag) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalValue returns only the payload of t, the way list elements are stored.
func MarshalValue(t Tag) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeValue(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes t as a named tag: kind byte, name and payload.
func (e *Encoder) Encode(t Tag) (err error) {
	e.buf = e.buf[:0]
	if e.buf, err = appendNamed(e.buf, t); err != nil {
		return
	}
	_, err = e.w.Write(e.buf)
	return
}

// EncodeValue writes only the payload of t.
func (e *Encoder) EncodeValue(t Tag) (err error) {
	e.buf = e.buf[:0]
	if e.buf, err = appendPayload(e.buf, t); err != nil {
		return
	}
	_, err = e.w.Write(e.buf)
	return
}

func appendNamed(b []byte, t Tag) ([]byte, error) {
	if IsNil(t) {
		return b, ErrNilTag
	}
	b = append(b, byte(t.Kind()))
	b, err := appendString(b, t.TagName())
	if err != nil {
		return b, fmt.Errorf("name of %s: %w", t.Kind(), err)
	}
	return appendPayload(b, t)
}

func appendPayload(b []byte, t Tag) ([]byte, error) {
	if IsNil(t) {
		return b, ErrNilTag
	}
	var err error
	switch t := t.(type) {
	case *Byte:
		b = append(b, byte(t.Value))
	case *Short:
		b = binary.LittleEndian.AppendUint16(b, uint16(t.Value))
	case *Int:
		b = binary.LittleEndian.AppendUint32(b, uint32(t.Value))
	case *Long:
		b = binary.LittleEndian.AppendUint64(b, uint64(t.Value))
	case *Float:
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(t.Value))
	case *Double:
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(t.Value))
	case *ByteArray:
		b = binary.LittleEndian.AppendUint32(b, uint32(len(t.Value)))
		for _, v := range t.Value {
			b = append(b, byte(v))
		}
	case *String:
		if b, err = appendString(b, t.Value); err != nil {
			return b, fmt.Errorf("%s('%s'): %w", t.Kind(), t.Name, err)
		}
	case *List:
		b = append(b, byte(t.ContentKind))
		b = binary.LittleEndian.AppendUint32(b, uint32(len(t.Value)))
		for i, element := range t.Value {
			if IsNil(element) {
				return b, fmt.Errorf("%s('%s') element %d: %w", t.Kind(), t.Name, i, ErrNilTag)
			}
			if b, err = appendPayload(b, element); err != nil {
				return b, err
			}
		}
	case *Compound:
		for _, member := range t.Value {
			if b, err = appendNamed(b, member); err != nil {
				return b, err
			}
		}
		b = append(b, byte(KindEnd))
	case *IntArray:
		b = binary.LittleEndian.AppendUint32(b, uint32(len(t.Value)))
		for _, v := range t.Value {
			b = binary.LittleEndian.AppendUint32(b, uint32(v))
		}
	case *LongArray:
		b = binary.LittleEndian.AppendUint32(b, uint32(len(t.Value)))
		for _, v := range t.Value {
			b = binary.LittleEndian.AppendUint64(b, uint64(v))
		}
	}
	return b, nil
}

func appendString(b []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return b, ErrStringTooLong
	}
	b = binary.LittleEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...), nil
}
