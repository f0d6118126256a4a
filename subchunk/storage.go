package subchunk

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/astei/ldbtools/nbt"
)

const (
	// Size is the number of blocks along each side of a subchunk.
	Size = 16
	// Volume is the number of blocks in a subchunk.
	Volume = Size * Size * Size

	// MaxPaletteSize is the largest palette a one-byte cell can address.
	MaxPaletteSize = 256
	// MaxBitsPerBlock is the widest index that fits a one-byte cell.
	MaxBitsPerBlock = 8
)

// BlockStorage is one layer of a subchunk: a palette index for every block plus the palette.
type BlockStorage struct {
	// Blocks is indexed as Blocks[x][y][z].
	Blocks  [Size][Size][Size]uint8
	Palette []*BlockState
}

// New creates a storage where every block refers to the first palette entry.
func New(palette ...*BlockState) *BlockStorage {
	return &BlockStorage{Palette: palette}
}

// Block returns the state of the block at x, y, z, or nil if its index is outside the palette.
func (s *BlockStorage) Block(x, y, z int) *BlockState {
	idx := int(s.Blocks[x][y][z])
	if idx >= len(s.Palette) {
		return nil
	}
	return s.Palette[idx]
}

func (s *BlockStorage) Set(x, y, z int, index uint8) {
	s.Blocks[x][y][z] = index
}

// IndexOf returns the palette index of a state equal to state, appending it if the palette
// has none.
func (s *BlockStorage) IndexOf(state *BlockState) (uint8, error) {
	for i, existing := range s.Palette {
		if existing != nil && existing.Equal(state) {
			return uint8(i), nil
		}
	}
	if len(s.Palette) >= MaxPaletteSize {
		return 0, ErrPaletteTooLarge
	}
	s.Palette = append(s.Palette, state)
	return uint8(len(s.Palette) - 1), nil
}

// BitsPerBlock returns the index width used to encode a palette of n entries. A palette with a
// single entry still uses one bit per block.
func BitsPerBlock(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}

// Position maps a position in the packed index stream to block coordinates. Positions run
// along y first, then z, then x.
func Position(p int) (x, y, z int) {
	return (p >> 8) & 15, p & 15, (p >> 4) & 15
}

// PositionOf is the inverse of Position.
func PositionOf(x, y, z int) int {
	return x<<8 | z<<4 | y
}

func wordCount(bitsPerBlock int) int {
	perWord := 32 / bitsPerBlock
	return (Volume + perWord - 1) / perWord
}

// Decode decodes a storage that fills b entirely.
func Decode(b []byte) (*BlockStorage, error) {
	s, n, err := Read(b)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, fmt.Errorf("subchunk: %d trailing bytes after block storage", len(b)-n)
	}
	return s, nil
}

// Read decodes the storage at the start of b and returns how many bytes it took. Bytes after
// the storage are left alone, which is how several storages in one record are read.
func Read(b []byte) (*BlockStorage, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("%w: missing storage version", ErrUnexpectedEOF)
	}
	bitsPerBlock := int(b[0] >> 1)
	if bitsPerBlock == 0 || bitsPerBlock > MaxBitsPerBlock {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidBitsPerBlock, bitsPerBlock)
	}

	var (
		perWord = 32 / bitsPerBlock
		mask    = uint32(1)<<bitsPerBlock - 1
		words   = wordCount(bitsPerBlock)
		pos     = 1
	)
	if len(b) < pos+words*4+4 {
		return nil, 0, fmt.Errorf("%w: %d-bit storage needs %d bytes of words, have %d",
			ErrUnexpectedEOF, bitsPerBlock, words*4+4, len(b)-pos)
	}

	s := &BlockStorage{}
	for p := 0; p < Volume; p++ {
		word := binary.LittleEndian.Uint32(b[pos+(p/perWord)*4:])
		x, y, z := Position(p)
		s.Blocks[x][y][z] = uint8(word >> ((p % perWord) * bitsPerBlock) & mask)
	}
	pos += words * 4

	count := int32(binary.LittleEndian.Uint32(b[pos:]))
	pos += 4
	if count < 0 {
		return nil, 0, fmt.Errorf("%w: palette size %d", ErrNegativeLength, count)
	}

	d := nbt.NewDecoder(b[pos:])
	for i := int32(0); i < count; i++ {
		tag, err := d.Decode()
		if err != nil {
			return nil, 0, fmt.Errorf("palette entry %d: %w", i, err)
		}
		root, ok := tag.(*nbt.Compound)
		if !ok {
			return nil, 0, fmt.Errorf("%w: palette entry %d is %s", ErrMalformedBlockState, i, tag.Kind())
		}
		state, err := WrapBlockState(root)
		if err != nil {
			return nil, 0, fmt.Errorf("palette entry %d: %w", i, err)
		}
		s.Palette = append(s.Palette, state)
	}

	return s, pos + d.Pos(), nil
}

// Encode packs the storage using the narrowest index width its palette allows.
func (s *BlockStorage) Encode() ([]byte, error) {
	return s.appendTo(nil)
}

func (s *BlockStorage) appendTo(b []byte) ([]byte, error) {
	if len(s.Palette) == 0 {
		return nil, ErrEmptyPalette
	}
	if len(s.Palette) > MaxPaletteSize {
		return nil, fmt.Errorf("%w: %d entries", ErrPaletteTooLarge, len(s.Palette))
	}
	for x := range s.Blocks {
		for y := range s.Blocks[x] {
			for z, idx := range s.Blocks[x][y] {
				if int(idx) >= len(s.Palette) {
					return nil, fmt.Errorf("%w: block %d,%d,%d refers to %d of %d",
						ErrInvalidPaletteIndex, x, y, z, idx, len(s.Palette))
				}
			}
		}
	}

	bitsPerBlock := BitsPerBlock(len(s.Palette))
	perWord := 32 / bitsPerBlock

	b = append(b, byte(bitsPerBlock<<1))
	var word uint32
	for p := 0; p < Volume; p++ {
		x, y, z := Position(p)
		word |= uint32(s.Blocks[x][y][z]) << ((p % perWord) * bitsPerBlock)
		if (p+1)%perWord == 0 || p == Volume-1 {
			b = binary.LittleEndian.AppendUint32(b, word)
			word = 0
		}
	}

	b = binary.LittleEndian.AppendUint32(b, uint32(len(s.Palette)))
	for i, state := range s.Palette {
		if state == nil {
			return nil, fmt.Errorf("%w: palette entry %d is nil", ErrMalformedBlockState, i)
		}
		raw, err := nbt.Marshal(state.Compound())
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		b = append(b, raw...)
	}
	return b, nil
}
