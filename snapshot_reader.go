package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bsm/sntable"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var ErrBadSnapshot = errors.New("snapshot: malformed column")

// Columns larger than this are rejected before decompressing.
const maxSnapshotColumnSize = 64 * 1024 * 1024

type SnapshotSubChunk struct {
	Y      int8
	Record []byte
}

// SnapshotColumn holds the subchunk records of one chunk column, ordered by y.
type SnapshotColumn struct {
	Coord     ChunkCoord
	SubChunks []SnapshotSubChunk
}

// ReadSnapshot reads every column of a snapshot written by WriteSnapshot, in key order.
func ReadSnapshot(r io.ReaderAt, size int64) ([]SnapshotColumn, error) {
	table, err := sntable.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot: %w", err)
	}

	zstdReader, err := newSnapshotDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdReader.Close()

	var columns []SnapshotColumn
	for bpos := 0; bpos < table.NumBlocks(); bpos++ {
		block, err := table.GetBlock(bpos)
		if err != nil {
			return nil, fmt.Errorf("could not read snapshot block %d: %w", bpos, err)
		}
		for spos := 0; spos < block.NumSections(); spos++ {
			section := block.GetSection(spos)
			for section.Next() {
				column, err := readSnapshotColumn(section.Key(), section.Value(), zstdReader)
				if err != nil {
					block.Release()
					return nil, err
				}
				columns = append(columns, column)
			}
		}
		block.Release()
	}
	return columns, nil
}

func newSnapshotDecoder() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSnapshotColumnSize))
}

func readSnapshotColumn(key uint64, value []byte, zstdReader *zstd.Decoder) (SnapshotColumn, error) {
	column := SnapshotColumn{Coord: snapshotCoord(key)}
	data, err := decompressSnapshot(value, zstdReader)
	if err != nil {
		return column, fmt.Errorf("column %s: %w", column.Coord, err)
	}

	for pos := 0; pos < len(data); {
		if len(data)-pos < 5 {
			return column, fmt.Errorf("%w: %s has a truncated subchunk header", ErrBadSnapshot, column.Coord)
		}
		y := int8(data[pos])
		n := int(binary.LittleEndian.Uint32(data[pos+1:]))
		pos += 5
		if n > len(data)-pos {
			return column, fmt.Errorf("%w: %s y=%d needs %d bytes, have %d", ErrBadSnapshot, column.Coord, y, n, len(data)-pos)
		}
		record := make([]byte, n)
		copy(record, data[pos:pos+n])
		column.SubChunks = append(column.SubChunks, SnapshotSubChunk{Y: y, Record: record})
		pos += n
	}
	return column, nil
}

func decompressSnapshot(value []byte, zstdReader *zstd.Decoder) ([]byte, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrBadSnapshot)
	}
	payload := value[1:]
	switch SnapshotCompression(value[0]) {
	case SnapshotNone:
		return payload, nil
	case SnapshotSnappy:
		size, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		if size > maxSnapshotColumnSize {
			return nil, fmt.Errorf("%w: column of %d bytes", ErrBadSnapshot, size)
		}
		return snappy.Decode(nil, payload)
	case SnapshotLZ4:
		return decompressLZ4(payload)
	case SnapshotZstd:
		data, err := zstdReader.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSnapshotCompression, value[0])
	}
}

func decompressLZ4(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: truncated lz4 header", ErrBadSnapshot)
	}
	size := int(binary.LittleEndian.Uint32(data))
	if size > maxSnapshotColumnSize {
		return nil, fmt.Errorf("%w: column of %d bytes", ErrBadSnapshot, size)
	}

	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data[4:], dst)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("%w: lz4 block holds %d bytes, header says %d", ErrBadSnapshot, n, size)
	}
	return dst, nil
}

// RestoreSnapshot writes the records of every column back into the world, one batch per column,
// and returns the number of subchunks written.
func (w *BedrockWorld) RestoreSnapshot(columns []SnapshotColumn) (int, error) {
	var n int
	for _, column := range columns {
		records := make(map[string][]byte, len(column.SubChunks))
		for _, sc := range column.SubChunks {
			records[string(SubChunkKey(column.Coord, sc.Y))] = sc.Record
		}
		if err := w.store.PutBatch(records); err != nil {
			return n, fmt.Errorf("could not restore %s: %w", column.Coord, err)
		}
		for key := range records {
			w.cache.Remove(key)
		}
		n += len(records)
	}
	w.log.Info("restored snapshot", "columns", len(columns), "subchunks", n)
	return n, nil
}
