package subchunk_test

import (
	"encoding/binary"

	"github.com/astei/ldbtools/nbt"
	"github.com/astei/ldbtools/subchunk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("BlockStorage", func() {
	It("should pick the narrowest index width", func() {
		for n, expected := range map[int]int{
			1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4, 17: 5, 33: 6, 65: 7, 128: 7, 129: 8, 256: 8,
		} {
			Expect(subchunk.BitsPerBlock(n)).To(Equal(expected), "for %d entries", n)
		}
	})

	It("should map stream positions to coordinates", func() {
		for p, expected := range map[int][3]int{
			0:    {0, 0, 0},
			1:    {0, 1, 0},
			16:   {0, 0, 1},
			256:  {1, 0, 0},
			4095: {15, 15, 15},
		} {
			x, y, z := subchunk.Position(p)
			Expect([3]int{x, y, z}).To(Equal(expected), "for position %d", p)
			Expect(subchunk.PositionOf(x, y, z)).To(Equal(p))
		}
	})

	It("should encode a single stone block at the origin", func() {
		s := subchunk.New(subchunk.NewBlockState("minecraft:air"), subchunk.NewBlockState("minecraft:stone"))
		s.Set(0, 0, 0, 1)

		buf, err := s.Encode()
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[0]).To(Equal(byte(0x02)))
		Expect(binary.LittleEndian.Uint32(buf[1:])).To(Equal(uint32(1)))
		for i := 1; i < 128; i++ {
			Expect(binary.LittleEndian.Uint32(buf[1+i*4:])).To(BeZero(), "word %d", i)
		}
		Expect(binary.LittleEndian.Uint32(buf[513:])).To(Equal(uint32(2)))

		air, err := nbt.Marshal(s.Palette[0].Compound())
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[517 : 517+len(air)]).To(Equal(air))
	})

	It("should encode single-entry palettes with one bit per block", func() {
		buf, err := subchunk.New(subchunk.NewBlockState("minecraft:air")).Encode()
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[0]).To(Equal(byte(0x02)))
		Expect(buf[1:513]).To(Equal(make([]byte, 512)))
		Expect(binary.LittleEndian.Uint32(buf[513:])).To(Equal(uint32(1)))

		again, err := subchunk.New(subchunk.NewBlockState("minecraft:air")).Encode()
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(buf))
	})

	It("should round trip every supported width", func() {
		for _, n := range []int{1, 2, 3, 5, 9, 17, 33, 65, 129, 256} {
			s := seedStorage(n)
			buf, err := s.Encode()
			Expect(err).NotTo(HaveOccurred())
			Expect(int(buf[0] >> 1)).To(Equal(subchunk.BitsPerBlock(n)))

			decoded, err := subchunk.Decode(buf)
			Expect(err).NotTo(HaveOccurred(), "for %d entries", n)
			Expect(decoded.Blocks).To(Equal(s.Blocks), "for %d entries", n)
			Expect(decoded.Palette).To(HaveLen(n))

			again, err := decoded.Encode()
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(buf), "for %d entries", n)
		}
	})

	It("should zero the padding of the last word", func() {
		// 3 bits per block leaves 2 spare bits in every word and 410 words in total.
		s := seedStorage(5)
		for p := 0; p < subchunk.Volume; p++ {
			x, y, z := subchunk.Position(p)
			s.Set(x, y, z, 4)
		}
		buf, err := s.Encode()
		Expect(err).NotTo(HaveOccurred())
		Expect(binary.LittleEndian.Uint32(buf[1:])).To(Equal(uint32(0x24924924)))
		// The last word holds 4096 - 409*10 = 6 blocks.
		Expect(binary.LittleEndian.Uint32(buf[1+409*4:])).To(Equal(uint32(0x24924)))
		Expect(binary.LittleEndian.Uint32(buf[1+410*4:])).To(Equal(uint32(5)))
	})

	It("should ignore the low bit of the version byte", func() {
		buf, err := seedStorage(3).Encode()
		Expect(err).NotTo(HaveOccurred())
		buf[0] |= 1

		s, err := subchunk.Decode(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Blocks).To(Equal(seedStorage(3).Blocks))
	})

	It("should read one storage and leave the rest", func() {
		first, err := seedStorage(2).Encode()
		Expect(err).NotTo(HaveOccurred())
		buf := append(append([]byte{}, first...), 0xAA, 0xBB)

		_, n, err := subchunk.Read(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(len(first)))

		_, err = subchunk.Decode(buf)
		Expect(err).To(MatchError(ContainSubstring("2 trailing bytes")))
	})

	It("should reject unsupported widths", func() {
		buf, err := seedStorage(2).Encode()
		Expect(err).NotTo(HaveOccurred())

		for _, version := range []byte{0x00, 0x01, 0x12, 0x20} {
			buf[0] = version
			_, err := subchunk.Decode(buf)
			Expect(err).To(MatchError(subchunk.ErrInvalidBitsPerBlock), "for version 0x%02X", version)
		}
	})

	It("should reject negative palette sizes", func() {
		buf := make([]byte, 1+512+4)
		buf[0] = 0x02
		binary.LittleEndian.PutUint32(buf[513:], 0xFFFFFFFF)

		_, err := subchunk.Decode(buf)
		Expect(err).To(MatchError(subchunk.ErrNegativeLength))
	})

	It("should reject palette entries that are not block states", func() {
		buf := make([]byte, 1+512)
		buf[0] = 0x02
		buf = binary.LittleEndian.AppendUint32(buf, 1)

		entry, err := nbt.Marshal(&nbt.Int{Name: "version", Value: 1})
		Expect(err).NotTo(HaveOccurred())
		_, err = subchunk.Decode(append(buf, entry...))
		Expect(err).To(MatchError(subchunk.ErrMalformedBlockState))

		entry, err = nbt.Marshal(nbt.NewCompound("", &nbt.String{Name: "name", Value: "minecraft:air"}))
		Expect(err).NotTo(HaveOccurred())
		_, err = subchunk.Decode(append(buf, entry...))
		Expect(err).To(MatchError(subchunk.ErrMalformedBlockState))
	})

	It("should report truncation anywhere as unexpected EOF", func() {
		buf, err := seedStorage(3).Encode()
		Expect(err).NotTo(HaveOccurred())

		for n := 0; n < len(buf); n++ {
			_, _, err := subchunk.Read(buf[:n])
			Expect(err).To(MatchError(subchunk.ErrUnexpectedEOF), "for length %d", n)
			Expect(err).To(MatchError(nbt.ErrUnexpectedEOF))
		}
	})

	It("should refuse to encode an empty palette", func() {
		_, err := subchunk.New().Encode()
		Expect(err).To(MatchError(subchunk.ErrEmptyPalette))
	})

	It("should refuse to encode indices outside the palette", func() {
		s := subchunk.New(palette(2)...)
		s.Set(3, 4, 5, 2)
		_, err := s.Encode()
		Expect(err).To(MatchError(subchunk.ErrInvalidPaletteIndex))
		Expect(err.Error()).To(ContainSubstring("3,4,5"))
		Expect(s.Block(3, 4, 5)).To(BeNil())
	})

	It("should refuse to encode oversized palettes", func() {
		_, err := subchunk.New(palette(257)...).Encode()
		Expect(err).To(MatchError(subchunk.ErrPaletteTooLarge))
	})

	It("should reuse equal palette entries", func() {
		s := subchunk.New(subchunk.NewBlockState("minecraft:air"))

		idx, err := s.IndexOf(subchunk.NewBlockState("minecraft:stone"))
		Expect(err).NotTo(HaveOccurred())
		Expect(idx).To(Equal(uint8(1)))

		idx, err = s.IndexOf(subchunk.NewBlockState("minecraft:air"))
		Expect(err).NotTo(HaveOccurred())
		Expect(idx).To(BeZero())
		Expect(s.Palette).To(HaveLen(2))

		s.Set(1, 2, 3, 1)
		Expect(s.Block(1, 2, 3).Name()).To(Equal("minecraft:stone"))
		Expect(s.Block(0, 0, 0).Name()).To(Equal("minecraft:air"))

		full := subchunk.New(palette(256)...)
		_, err = full.IndexOf(subchunk.NewBlockState("minecraft:glass"))
		Expect(err).To(MatchError(subchunk.ErrPaletteTooLarge))
	})
})

var _ = Describe("Sphere", func() {
	It("should draw a hollow shell", func() {
		s := subchunk.New(subchunk.NewBlockState("minecraft:air"), subchunk.NewBlockState("minecraft:glass"))
		s.Sphere(subchunk.Point{X: 7, Y: 7, Z: 7}, 7, 1)

		Expect(s.Blocks[7][7][7]).To(BeZero())
		Expect(s.Blocks[0][7][7]).To(Equal(uint8(1)))
		Expect(s.Blocks[14][7][7]).To(Equal(uint8(1)))
		Expect(s.Blocks[7][14][7]).To(Equal(uint8(1)))
		Expect(s.Blocks[15][7][7]).To(BeZero())
		Expect(s.Blocks[0][0][0]).To(BeZero())

		_, err := s.Encode()
		Expect(err).NotTo(HaveOccurred())
	})
})
