package subchunk

import "fmt"

// Record versions found in the value of a SubChunkPrefix key.
const (
	// RecordV1 holds exactly one storage directly after the version byte.
	RecordV1 byte = 1
	// RecordV8 prefixes the storages with their count.
	RecordV8 byte = 8
	// RecordV9 adds the subchunk's y index after the count.
	RecordV9 byte = 9
)

// Record is the decoded value of a SubChunkPrefix key. The first storage holds the blocks,
// a second one usually holds water logged into them.
type Record struct {
	Version  byte
	Y        int8
	Storages []*BlockStorage
}

// NewRecord creates a record in the newest layout.
func NewRecord(y int8, storages ...*BlockStorage) *Record {
	return &Record{Version: RecordV9, Y: y, Storages: storages}
}

// DecodeRecord decodes a whole SubChunkPrefix value. Records older than version 9 do not carry
// their y index; Y is left at zero for them.
func DecodeRecord(b []byte) (*Record, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("%w: missing record version", ErrUnexpectedEOF)
	}
	r := &Record{Version: b[0]}
	pos := 1

	count := 1
	switch r.Version {
	case RecordV1:
	case RecordV8, RecordV9:
		header := 1
		if r.Version == RecordV9 {
			header = 2
		}
		if len(b) < pos+header {
			return nil, fmt.Errorf("%w: record header", ErrUnexpectedEOF)
		}
		count = int(b[pos])
		if r.Version == RecordV9 {
			r.Y = int8(b[pos+1])
		}
		pos += header
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRecordVersion, r.Version)
	}

	r.Storages = make([]*BlockStorage, 0, count)
	for i := 0; i < count; i++ {
		s, n, err := Read(b[pos:])
		if err != nil {
			return nil, fmt.Errorf("storage %d: %w", i, err)
		}
		r.Storages = append(r.Storages, s)
		pos += n
	}
	if pos != len(b) {
		return nil, fmt.Errorf("subchunk: %d trailing bytes after record", len(b)-pos)
	}
	return r, nil
}

func (r *Record) Encode() ([]byte, error) {
	var b []byte
	switch r.Version {
	case RecordV1:
		if len(r.Storages) != 1 {
			return nil, fmt.Errorf("%w: version 1 holds one storage, have %d", ErrStorageCount, len(r.Storages))
		}
		b = []byte{RecordV1}
	case RecordV8, RecordV9:
		if len(r.Storages) > 255 {
			return nil, fmt.Errorf("%w: %d", ErrStorageCount, len(r.Storages))
		}
		b = []byte{r.Version, byte(len(r.Storages))}
		if r.Version == RecordV9 {
			b = append(b, byte(r.Y))
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRecordVersion, r.Version)
	}

	for i, s := range r.Storages {
		if s == nil {
			return nil, fmt.Errorf("%w: storage %d", ErrNilStorage, i)
		}
		var err error
		if b, err = s.appendTo(b); err != nil {
			return nil, fmt.Errorf("storage %d: %w", i, err)
		}
	}
	return b, nil
}
