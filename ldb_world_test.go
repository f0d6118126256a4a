package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/astei/ldbtools/nbt"
	"github.com/astei/ldbtools/subchunk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("BedrockWorld", func() {
	var world *BedrockWorld
	var dir string
	var closeWorld func()

	origin := ChunkCoord{}

	BeforeEach(func() {
		world, dir, closeWorld = openTestWorld()
	})

	AfterEach(func() {
		closeWorld()
	})

	It("should store and load subchunks", func() {
		Expect(world.PutSubChunk(origin, 4, stoneRecord(4, 8, "minecraft:stone"))).To(Succeed())

		raw, err := world.RawSubChunk(origin, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw[:3]).To(Equal([]byte{0x09, 0x01, 0x04}))

		world.cache.Purge()
		r, err := world.SubChunk(origin, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Y).To(Equal(int8(4)))
		Expect(r.Storages).To(HaveLen(1))
		Expect(r.Storages[0].Block(3, 7, 3).Name()).To(Equal("minecraft:stone"))
		Expect(r.Storages[0].Block(3, 8, 3).Name()).To(Equal("minecraft:air"))
	})

	It("should serve repeated reads from the cache", func() {
		Expect(world.PutRawSubChunk(origin, 0, mustEncode(stoneRecord(0, 1, "minecraft:bedrock")))).To(Succeed())

		first, err := world.SubChunk(origin, 0)
		Expect(err).NotTo(HaveOccurred())
		second, err := world.SubChunk(origin, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(BeIdenticalTo(first))

		Expect(world.PutRawSubChunk(origin, 0, mustEncode(stoneRecord(0, 1, "minecraft:dirt")))).To(Succeed())
		third, err := world.SubChunk(origin, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(third).NotTo(BeIdenticalTo(first))
		Expect(third.Storages[0].Palette[1].Name()).To(Equal("minecraft:dirt"))
	})

	It("should take y from the key for older records", func() {
		r := stoneRecord(0, 2, "minecraft:stone")
		r.Version = subchunk.RecordV8
		Expect(world.PutRawSubChunk(origin, 6, mustEncode(r))).To(Succeed())

		loaded, err := world.SubChunk(origin, 6)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Version).To(Equal(subchunk.RecordV8))
		Expect(loaded.Y).To(Equal(int8(6)))
	})

	It("should report missing records", func() {
		_, err := world.SubChunk(ChunkCoord{X: 9, Z: 9}, 0)
		Expect(err).To(MatchError(ErrNoSubChunk))

		_, err = world.RawSubChunk(ChunkCoord{X: 9, Z: 9, Dimension: Nether}, 0)
		Expect(err).To(MatchError(ErrNoSubChunk))

		_, err = world.BlockEntities(origin)
		Expect(err).To(MatchError(ErrNoBlockEntities))
	})

	It("should wrap decode failures", func() {
		Expect(world.PutRawSubChunk(origin, 1, []byte{0x09, 0x01})).To(Succeed())
		_, err := world.SubChunk(origin, 1)
		Expect(err).To(MatchError(subchunk.ErrUnexpectedEOF))
	})

	It("should store block entities back to back", func() {
		entities := []*nbt.Compound{chest(1, 64, 2), chest(3, 70, 4)}
		Expect(world.PutBlockEntities(origin, entities)).To(Succeed())

		raw, err := world.Store().Get(BlockEntityKey(origin))
		Expect(err).NotTo(HaveOccurred())
		first, err := nbt.Marshal(entities[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(raw[:len(first)]).To(Equal(first))

		loaded, err := world.BlockEntities(origin)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(entities))
	})

	It("should list subchunk keys only", func() {
		Expect(world.PutSubChunk(origin, 0, stoneRecord(0, 1, "minecraft:stone"))).To(Succeed())
		Expect(world.PutSubChunk(ChunkCoord{X: -1, Z: 2, Dimension: End}, -2, stoneRecord(-2, 1, "minecraft:end_stone"))).To(Succeed())
		Expect(world.PutBlockEntities(origin, []*nbt.Compound{chest(0, 0, 0)})).To(Succeed())
		Expect(world.Store().Put([]byte("~local_player"), []byte{0x0A, 0x00, 0x00, 0x00})).To(Succeed())

		keys, err := world.SubChunkKeys()
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(ConsistOf(
			ChunkKey{Coord: origin, Tag: TagSubChunkPrefix, Y: 0},
			ChunkKey{Coord: ChunkCoord{X: -1, Z: 2, Dimension: End}, Tag: TagSubChunkPrefix, Y: -2},
		))
	})

	It("should collect unique block names", func() {
		names := []string{"minecraft:stone", "minecraft:dirt", "minecraft:granite", "minecraft:stone"}
		for i, name := range names {
			Expect(world.PutSubChunk(ChunkCoord{X: int32(i)}, 0, stoneRecord(0, 4, name))).To(Succeed())
		}
		Expect(world.PutRawSubChunk(ChunkCoord{X: 99}, 0, []byte{0x07})).To(Succeed())

		for _, workers := range []int{0, 1, 3} {
			found, err := world.UniqueBlocks(workers)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal([]string{
				"minecraft:air",
				"minecraft:dirt",
				"minecraft:granite",
				"minecraft:stone",
			}), "with %d workers", workers)
		}
	})

	It("should persist across reopening", func() {
		Expect(world.PutSubChunk(origin, 2, stoneRecord(2, 3, "minecraft:sand"))).To(Succeed())
		Expect(world.Close()).To(Succeed())

		reopened, err := OpenBedrockWorld(dir, &WorldOptions{ReadOnly: true, Log: testLogger()})
		Expect(err).NotTo(HaveOccurred())
		r, err := reopened.SubChunk(origin, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Storages[0].Palette[1].Name()).To(Equal("minecraft:sand"))
		Expect(reopened.PutSubChunk(origin, 3, stoneRecord(3, 1, "minecraft:sand"))).NotTo(Succeed())

		// AfterEach closes the reopened world instead.
		world = reopened
		closeWorld = func() {
			Expect(reopened.Close()).To(Succeed())
			Expect(os.RemoveAll(dir)).To(Succeed())
		}
	})

	It("should refuse to open a missing world read-only", func() {
		_, err := OpenBedrockWorld(dir+"-missing", &WorldOptions{ReadOnly: true, Log: testLogger()})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LevelDBStore", func() {
	It("should log batches and scans", func() {
		dir, err := os.MkdirTemp("", "ldbtools-store")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		var logs bytes.Buffer
		log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		store, err := OpenLevelDB(filepath.Join(dir, "db"), false, 0, log)
		Expect(err).NotTo(HaveOccurred())
		defer store.Close()

		Expect(store.PutBatch(map[string][]byte{"a": {1}, "b": {2}})).To(Succeed())
		var keys []string
		Expect(store.Scan(nil, func(key []byte) error {
			keys = append(keys, string(key))
			return nil
		})).To(Succeed())
		Expect(keys).To(Equal([]string{"a", "b"}))

		Expect(logs.String()).To(ContainSubstring("msg=\"wrote batch\" records=2"))
		Expect(logs.String()).To(ContainSubstring("msg=\"scanned keys\""))
		Expect(logs.String()).To(ContainSubstring("keys=2"))
	})
})

func mustEncode(r *subchunk.Record) []byte {
	raw, err := r.Encode()
	Expect(err).NotTo(HaveOccurred())
	return raw
}
