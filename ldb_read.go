package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
)

var ErrNotFound = leveldb.ErrNotFound

var ErrNoSubChunk = errors.New("ldb: subchunk not found")
var ErrNoBlockEntities = errors.New("ldb: block entities not found")

// RecordSource reads raw world records by key.
type RecordSource interface {
	Get(key []byte) ([]byte, error)
}

// LevelDBStore gives keyed access to the records of a Bedrock world database. The game
// compresses table blocks with raw deflate, which the df-mc fork of goleveldb understands.
// It is safe for concurrent use.
type LevelDBStore struct {
	db   *leveldb.DB
	Name string
	log  *slog.Logger
}

// OpenLevelDB opens the database directory at path. With readOnly set, a missing database is an
// error; otherwise it is created.
func OpenLevelDB(path string, readOnly bool, blockSize int, log *slog.Logger) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		Compression:    opt.FlateCompression,
		BlockSize:      blockSize,
		ReadOnly:       readOnly,
		ErrorIfMissing: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	log.Debug("opened leveldb", "path", path, "readOnly", readOnly)
	return &LevelDBStore{db: db, Name: path, log: log}, nil
}

// Get returns a copy of the record at key, or ErrNotFound.
func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	return s.db.Get(key, nil)
}

func (s *LevelDBStore) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *LevelDBStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

// PutBatch writes all records atomically.
func (s *LevelDBStore) PutBatch(records map[string][]byte) error {
	batch := new(leveldb.Batch)
	for k, v := range records {
		batch.Put([]byte(k), v)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}
	s.log.Debug("wrote batch", "records", len(records))
	return nil
}

// Scan calls fn with every key starting with prefix, in key order. A nil prefix visits the whole
// database. The key passed to fn is only valid until fn returns.
func (s *LevelDBStore) Scan(prefix []byte, fn func(key []byte) error) error {
	var slice *util.Range
	if prefix != nil {
		slice = util.BytesPrefix(prefix)
	}

	iter := s.db.NewIterator(slice, nil)
	defer iter.Release()
	var n int
	for iter.Next() {
		if err := fn(iter.Key()); err != nil {
			return err
		}
		n++
	}
	s.log.Debug("scanned keys", "prefix", prefix, "keys", n)
	return iter.Error()
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
