package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/astei/ldbtools/nbt"
	"github.com/astei/ldbtools/subchunk"
	lru "github.com/hashicorp/golang-lru/v2"
)

// WorldOptions configure how a world is opened.
type WorldOptions struct {
	// CacheSize is the number of decoded subchunk records kept in memory.
	// Defaults to 1024.
	CacheSize int

	// ReadOnly opens the database without write access. Writes then fail.
	ReadOnly bool

	// BlockSize is the LevelDB table block size for newly written tables.
	// Defaults to 16KiB, the size the game uses.
	BlockSize int

	// Log is the Logger to use for debug messages and errors.
	// If nil, defaults to slog.Default().
	Log *slog.Logger
}

// DefaultWorldOptions returns the options used when OpenBedrockWorld is passed nil.
func DefaultWorldOptions() *WorldOptions {
	return &WorldOptions{
		CacheSize: 1024,
		BlockSize: 16 * 1024,
		Log:       slog.Default(),
	}
}

// BedrockWorld reads and writes the chunk records of a Bedrock world directory.
type BedrockWorld struct {
	dir   string
	store *LevelDBStore
	cache *lru.Cache[string, *subchunk.Record]
	log   *slog.Logger
}

// OpenBedrockWorld opens the world whose LevelDB lives in the db directory under dir.
func OpenBedrockWorld(dir string, o *WorldOptions) (*BedrockWorld, error) {
	if o == nil {
		o = DefaultWorldOptions()
	}
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("world", dir)

	cacheSize := o.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultWorldOptions().CacheSize
	}
	cache, err := lru.New[string, *subchunk.Record](cacheSize)
	if err != nil {
		return nil, err
	}

	store, err := OpenLevelDB(filepath.Join(dir, "db"), o.ReadOnly, o.BlockSize, log)
	if err != nil {
		return nil, err
	}
	return &BedrockWorld{dir: dir, store: store, cache: cache, log: log}, nil
}

// Store exposes the raw record store of the world.
func (w *BedrockWorld) Store() *LevelDBStore { return w.store }

// RawSubChunk returns the undecoded subchunk record at y of the chunk.
func (w *BedrockWorld) RawSubChunk(c ChunkCoord, y int8) ([]byte, error) {
	raw, err := w.store.Get(SubChunkKey(c, y))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s y=%d", ErrNoSubChunk, c, y)
	} else if err != nil {
		return nil, err
	}
	return raw, nil
}

// SubChunk returns the decoded subchunk record at y of the chunk. Records are cached and shared
// between callers; use PutSubChunk to persist changes made to one.
func (w *BedrockWorld) SubChunk(c ChunkCoord, y int8) (*subchunk.Record, error) {
	key := SubChunkKey(c, y)
	if r, ok := w.cache.Get(string(key)); ok {
		return r, nil
	}

	raw, err := w.RawSubChunk(c, y)
	if err != nil {
		return nil, err
	}
	r, err := decodeSubChunk(raw, y)
	if err != nil {
		return nil, fmt.Errorf("could not decode subchunk %s y=%d: %w", c, y, err)
	}
	w.cache.Add(string(key), r)
	return r, nil
}

func decodeSubChunk(raw []byte, y int8) (*subchunk.Record, error) {
	r, err := subchunk.DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	if r.Version != subchunk.RecordV9 {
		r.Y = y
	}
	return r, nil
}

func (w *BedrockWorld) PutSubChunk(c ChunkCoord, y int8, r *subchunk.Record) error {
	raw, err := r.Encode()
	if err != nil {
		return fmt.Errorf("could not encode subchunk %s y=%d: %w", c, y, err)
	}
	if err = w.store.Put(SubChunkKey(c, y), raw); err != nil {
		return err
	}
	w.cache.Add(string(SubChunkKey(c, y)), r)
	return nil
}

// PutRawSubChunk stores an encoded subchunk record as is.
func (w *BedrockWorld) PutRawSubChunk(c ChunkCoord, y int8, raw []byte) error {
	key := SubChunkKey(c, y)
	if err := w.store.Put(key, raw); err != nil {
		return err
	}
	w.cache.Remove(string(key))
	return nil
}

// BlockEntities returns the block entity compounds stored for the chunk, in stored order.
func (w *BedrockWorld) BlockEntities(c ChunkCoord) ([]*nbt.Compound, error) {
	raw, err := w.store.Get(BlockEntityKey(c))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoBlockEntities, c)
	} else if err != nil {
		return nil, err
	}

	tags, err := nbt.DecodeAll(raw)
	if err != nil {
		return nil, fmt.Errorf("could not decode block entities of %s: %w", c, err)
	}
	entities := make([]*nbt.Compound, 0, len(tags))
	for i, tag := range tags {
		compound, ok := tag.(*nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("block entity %d of %s is a %s", i, c, tag.Kind())
		}
		entities = append(entities, compound)
	}
	return entities, nil
}

// PutBlockEntities replaces the block entities of the chunk.
func (w *BedrockWorld) PutBlockEntities(c ChunkCoord, entities []*nbt.Compound) error {
	var raw []byte
	for _, e := range entities {
		b, err := nbt.Marshal(e)
		if err != nil {
			return err
		}
		raw = append(raw, b...)
	}
	return w.store.Put(BlockEntityKey(c), raw)
}

// SubChunkKeys lists the keys of every subchunk record in the world, in database order.
func (w *BedrockWorld) SubChunkKeys() ([]ChunkKey, error) {
	var keys []ChunkKey
	err := w.store.Scan(nil, func(key []byte) error {
		if k, ok := ParseKey(key); ok && k.Tag == TagSubChunkPrefix {
			keys = append(keys, k)
		}
		return nil
	})
	return keys, err
}

// UniqueBlocks returns the sorted names of all blocks found in any subchunk palette. Records are
// decoded on the given number of goroutines; records that fail to decode are logged and skipped.
func (w *BedrockWorld) UniqueBlocks(workers int) ([]string, error) {
	keys, err := w.SubChunkKeys()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	w.log.Info("scanning subchunks", "count", len(keys), "workers", workers)

	jobs := make(chan ChunkKey)
	resultChan := make(chan map[string]struct{}, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(jobs <-chan ChunkKey, res chan<- map[string]struct{}, wg *sync.WaitGroup) {
			defer wg.Done()
			names := make(map[string]struct{})
			for k := range jobs {
				if err := collectBlockNames(w.store, k, names); err != nil {
					w.log.Warn("unable to read subchunk", "chunk", k.Coord.String(), "y", k.Y, "err", err)
				}
			}
			res <- names
		}(jobs, resultChan, &wg)
	}

	for _, k := range keys {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	close(resultChan)

	all := make(map[string]struct{})
	for m := range resultChan {
		for name := range m {
			all[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	w.log.Info("found unique blocks", "count", len(names))
	return names, nil
}

func collectBlockNames(src RecordSource, k ChunkKey, names map[string]struct{}) error {
	raw, err := src.Get(k.Bytes())
	if err != nil {
		return err
	}
	r, err := decodeSubChunk(raw, k.Y)
	if err != nil {
		return err
	}
	for _, s := range r.Storages {
		for _, state := range s.Palette {
			names[state.Name()] = struct{}{}
		}
	}
	return nil
}

func (w *BedrockWorld) Close() error {
	w.cache.Purge()
	return w.store.Close()
}
