package main

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

type Dimension int32

const (
	Overworld Dimension = 0
	Nether    Dimension = 1
	End       Dimension = 2
)

func (d Dimension) String() string {
	switch d {
	case Overworld:
		return "overworld"
	case Nether:
		return "nether"
	case End:
		return "end"
	default:
		return "dimension(" + strconv.Itoa(int(d)) + ")"
	}
}

// ParseDimension accepts a dimension name or its numeric id.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(s) {
	case "", "overworld":
		return Overworld, nil
	case "nether":
		return Nether, nil
	case "end", "the_end":
		return End, nil
	}
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown dimension %q", s)
	}
	return Dimension(id), nil
}

type ChunkCoord struct {
	X         int32
	Z         int32
	Dimension Dimension
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d,%d/%s", c.X, c.Z, c.Dimension)
}

// RecordTag is the byte following the chunk coordinates in a world key, telling which part of
// the chunk the record holds.
type RecordTag byte

const (
	TagData3D          RecordTag = 0x2B
	TagVersion         RecordTag = 0x2C
	TagData2D          RecordTag = 0x2D
	TagData2DLegacy    RecordTag = 0x2E
	TagSubChunkPrefix  RecordTag = 0x2F
	TagLegacyTerrain   RecordTag = 0x30
	TagBlockEntity     RecordTag = 0x31
	TagEntity          RecordTag = 0x32
	TagPendingTicks    RecordTag = 0x33
	TagBlockExtraData  RecordTag = 0x34
	TagBiomeState      RecordTag = 0x35
	TagFinalizedState  RecordTag = 0x36
	TagBorderBlocks    RecordTag = 0x38
	TagHardcodedSpawns RecordTag = 0x39
	TagRandomTicks     RecordTag = 0x3A
	TagChecksums       RecordTag = 0x3B
	TagLegacyVersion   RecordTag = 0x76
)

func (t RecordTag) known() bool {
	return (t >= TagData3D && t <= TagChecksums && t != 0x37) || t == TagLegacyVersion
}

// ChunkKey is a parsed world key.
type ChunkKey struct {
	Coord ChunkCoord
	Tag   RecordTag
	// Y is only meaningful for TagSubChunkPrefix keys.
	Y int8
}

func (k ChunkKey) Bytes() []byte {
	if k.Tag == TagSubChunkPrefix {
		return SubChunkKey(k.Coord, k.Y)
	}
	return append(chunkPrefix(k.Coord), byte(k.Tag))
}

func chunkPrefix(c ChunkCoord) []byte {
	b := make([]byte, 8, 14)
	binary.LittleEndian.PutUint32(b[0:], uint32(c.X))
	binary.LittleEndian.PutUint32(b[4:], uint32(c.Z))
	if c.Dimension != Overworld {
		b = binary.LittleEndian.AppendUint32(b, uint32(c.Dimension))
	}
	return b
}

// SubChunkKey returns the key of the subchunk record at index y of the chunk. Worlds with
// extended height store subchunks below y=0 under negative indices.
func SubChunkKey(c ChunkCoord, y int8) []byte {
	return append(chunkPrefix(c), byte(TagSubChunkPrefix), byte(y))
}

// BlockEntityKey returns the key holding every block entity of the chunk.
func BlockEntityKey(c ChunkCoord) []byte {
	return append(chunkPrefix(c), byte(TagBlockEntity))
}

// ParseKey recognizes keys built from chunk coordinates. Keys of other records, such as
// player data or the level's village index, report false.
func ParseKey(key []byte) (k ChunkKey, ok bool) {
	var tail []byte
	switch len(key) {
	case 9, 10:
		tail = key[8:]
	case 13, 14:
		k.Coord.Dimension = Dimension(int32(binary.LittleEndian.Uint32(key[8:])))
		if k.Coord.Dimension == Overworld {
			return ChunkKey{}, false
		}
		tail = key[12:]
	default:
		return ChunkKey{}, false
	}

	k.Coord.X = int32(binary.LittleEndian.Uint32(key[0:]))
	k.Coord.Z = int32(binary.LittleEndian.Uint32(key[4:]))
	k.Tag = RecordTag(tail[0])
	if !k.Tag.known() {
		return ChunkKey{}, false
	}

	if len(tail) == 2 {
		if k.Tag != TagSubChunkPrefix {
			return ChunkKey{}, false
		}
		k.Y = int8(tail[1])
	} else if k.Tag == TagSubChunkPrefix {
		return ChunkKey{}, false
	}
	return k, true
}
