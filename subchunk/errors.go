package subchunk

import (
	"errors"

	"github.com/astei/ldbtools/nbt"
)

// Truncated and negative lengths surface the same sentinels the NBT decoder uses, so a caller
// can test for a short record without caring which layer ran out of bytes.
var (
	ErrUnexpectedEOF  = nbt.ErrUnexpectedEOF
	ErrNegativeLength = nbt.ErrNegativeLength
)

var ErrMalformedBlockState = errors.New("subchunk: malformed block state")

var ErrEmptyPalette = errors.New("subchunk: empty palette")
var ErrInvalidPaletteIndex = errors.New("subchunk: palette index out of range")
var ErrPaletteTooLarge = errors.New("subchunk: palette has more than 256 entries")
var ErrInvalidBitsPerBlock = errors.New("subchunk: unsupported bits per block")

var ErrUnsupportedRecordVersion = errors.New("subchunk: unsupported record version")
var ErrStorageCount = errors.New("subchunk: wrong number of block storages")
var ErrNilStorage = errors.New("subchunk: nil block storage")
