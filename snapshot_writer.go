package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bsm/sntable"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// SnapshotCompression is the codec of a snapshot column. It is stored as the first byte of
// every column value.
type SnapshotCompression byte

const (
	SnapshotNone SnapshotCompression = iota
	SnapshotSnappy
	SnapshotLZ4
	SnapshotZstd
)

var snapshotCompressionNames = [...]string{"none", "snappy", "lz4", "zstd"}

func (c SnapshotCompression) String() string {
	if int(c) < len(snapshotCompressionNames) {
		return snapshotCompressionNames[c]
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

func ParseSnapshotCompression(s string) (SnapshotCompression, error) {
	for i, name := range snapshotCompressionNames {
		if strings.EqualFold(s, name) {
			return SnapshotCompression(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSnapshotCompression, s)
}

var ErrInvalidSnapshotCompression = errors.New("snapshot: invalid compression")
var ErrCoordOutOfRange = errors.New("snapshot: chunk coordinate out of range")

// Column keys interleave the low 24 bits of x and z into a Morton code, so chunks that are close
// in the world are close in the table, and put the dimension above them.
const snapshotCoordBits = 24

func snapshotKey(c ChunkCoord) (uint64, error) {
	const limit = 1 << (snapshotCoordBits - 1)
	if c.X < -limit || c.X >= limit || c.Z < -limit || c.Z >= limit || c.Dimension < 0 || c.Dimension > 0xFFFF {
		return 0, fmt.Errorf("%w: %s", ErrCoordOutOfRange, c)
	}
	return uint64(c.Dimension)<<48 | mortonEncode(uint32(c.X)&0xFFFFFF, uint32(c.Z)&0xFFFFFF), nil
}

func snapshotCoord(key uint64) ChunkCoord {
	x, z := mortonDecode(key & 0xFFFFFFFFFFFF)
	return ChunkCoord{
		X:         signExtend24(x),
		Z:         signExtend24(z),
		Dimension: Dimension(key >> 48),
	}
}

func signExtend24(v uint32) int32 {
	return int32(v<<8) >> 8
}

func mortonEncode(x, z uint32) uint64 {
	return spreadBits(x) | spreadBits(z)<<1
}

func mortonDecode(code uint64) (x, z uint32) {
	return compactBits(code), compactBits(code >> 1)
}

func spreadBits(v uint32) uint64 {
	u := uint64(v)
	u = (u | u<<16) & 0x0000FFFF0000FFFF
	u = (u | u<<8) & 0x00FF00FF00FF00FF
	u = (u | u<<4) & 0x0F0F0F0F0F0F0F0F
	u = (u | u<<2) & 0x3333333333333333
	u = (u | u<<1) & 0x5555555555555555
	return u
}

func compactBits(u uint64) uint32 {
	u &= 0x5555555555555555
	u = (u | u>>1) & 0x3333333333333333
	u = (u | u>>2) & 0x0F0F0F0F0F0F0F0F
	u = (u | u>>4) & 0x00FF00FF00FF00FF
	u = (u | u>>8) & 0x0000FFFF0000FFFF
	u = (u | u>>16) & 0x00000000FFFFFFFF
	return uint32(u)
}

// WriteSnapshot copies every subchunk record of the world into an sntable written to writer, one
// entry per chunk column. It returns the number of columns written.
func (world *BedrockWorld) WriteSnapshot(writer io.Writer, compression SnapshotCompression) (int, error) {
	if int(compression) >= len(snapshotCompressionNames) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSnapshotCompression, compression)
	}
	zstdWriter, err := zstd.NewWriter(io.Discard)
	if err != nil {
		return 0, err
	}
	defer zstdWriter.Close()

	w := &snapshotWriter{
		table:       sntable.NewWriter(writer, &sntable.WriterOptions{Compression: sntable.NoCompression}),
		world:       world,
		compression: compression,
		zstdWriter:  zstdWriter,
	}
	n, err := w.writeColumns()
	if err != nil {
		return n, err
	}
	return n, w.table.Close()
}

type snapshotWriter struct {
	table       *sntable.Writer
	world       *BedrockWorld
	compression SnapshotCompression
	zstdWriter  *zstd.Encoder
}

type snapshotColumnKey struct {
	key   uint64
	coord ChunkCoord
}

func (w *snapshotWriter) writeColumns() (n int, err error) {
	keys, err := w.world.SubChunkKeys()
	if err != nil {
		return
	}

	columns := make(map[ChunkCoord][]int8)
	for _, k := range keys {
		columns[k.Coord] = append(columns[k.Coord], k.Y)
	}

	sorted := make([]snapshotColumnKey, 0, len(columns))
	for coord := range columns {
		key, err := snapshotKey(coord)
		if err != nil {
			return 0, err
		}
		sorted = append(sorted, snapshotColumnKey{key: key, coord: coord})
	}
	sort.Slice(sorted, func(one, two int) bool {
		return sorted[one].key < sorted[two].key
	})

	var out bytes.Buffer
	for _, column := range sorted {
		out.Reset()
		ys := columns[column.coord]
		sort.Slice(ys, func(one, two int) bool { return ys[one] < ys[two] })
		for _, y := range ys {
			if err = w.writeSubChunk(column.coord, y, &out); err != nil {
				return
			}
		}

		var value []byte
		if value, err = w.compress(out.Bytes()); err != nil {
			return
		}
		if err = w.table.Append(column.key, value); err != nil {
			return
		}
		n++
	}
	w.world.log.Info("wrote snapshot", "columns", n, "subchunks", len(keys), "compression", w.compression.String())
	return
}

func (w *snapshotWriter) writeSubChunk(coord ChunkCoord, y int8, out *bytes.Buffer) (err error) {
	raw, err := w.world.RawSubChunk(coord, y)
	if err != nil {
		return
	}
	out.WriteByte(byte(y))
	if err = binary.Write(out, binary.LittleEndian, uint32(len(raw))); err != nil {
		return
	}
	_, err = out.Write(raw)
	return
}

func (w *snapshotWriter) compress(data []byte) ([]byte, error) {
	switch w.compression {
	case SnapshotSnappy:
		return append([]byte{byte(SnapshotSnappy)}, snappy.Encode(nil, data)...), nil
	case SnapshotLZ4:
		return compressLZ4(data), nil
	case SnapshotZstd:
		return w.compressZstd(data)
	default:
		return append([]byte{byte(SnapshotNone)}, data...), nil
	}
}

// compressLZ4 writes [codec][4 bytes uncompressed size][block]. Data lz4 cannot shrink is stored
// uncompressed instead.
func compressLZ4(data []byte) []byte {
	dst := make([]byte, 5+lz4.CompressBlockBound(len(data)))
	dst[0] = byte(SnapshotLZ4)
	binary.LittleEndian.PutUint32(dst[1:], uint32(len(data)))

	n, err := lz4.CompressBlock(data, dst[5:], nil)
	if err != nil || n == 0 {
		return append([]byte{byte(SnapshotNone)}, data...)
	}
	return dst[:5+n]
}

func (w *snapshotWriter) compressZstd(data []byte) ([]byte, error) {
	compressedOutput := bytes.NewBuffer([]byte{byte(SnapshotZstd)})
	w.zstdWriter.Reset(compressedOutput)
	if _, err := w.zstdWriter.Write(data); err != nil {
		return nil, err
	}
	if err := w.zstdWriter.Close(); err != nil {
		return nil, err
	}
	w.zstdWriter.Reset(io.Discard)
	return compressedOutput.Bytes(), nil
}
