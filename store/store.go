// Package store wraps the single embedded LevelDB database shared by the
// route/geometry cache, the geocode cache, the progress/log ring
// buffers' durable half, and the assignment persister.
//
// Namespacing is by key prefix: one leveldb.DB, "<tag>|<rest>" keys,
// except the progress adapter's "optimization_progress_<event>" and
// "optimization_log_<event>" keys. A
// single *leveldb.DB is single-writer per process; callers share one
// *Store instance rather than opening the path twice.
package store

import (
	"encoding/binary"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is a thin, TTL-aware wrapper around a LevelDB handle.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the LevelDB database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes value under key with no expiry.
func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Get reads the value under key. ok is false if the key is absent.
func (s *Store) Get(key []byte) (value []byte, ok bool, err error) {
	v, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// PutTTL writes value under key stamped with an expiry time.Now().Add(ttl).
// GetTTL reports the key as absent once that expiry has passed.
func (s *Store) PutTTL(key, value []byte, ttl time.Duration) error {
	return s.Put(key, encodeTTL(time.Now().Add(ttl), value))
}

// GetTTL reads a PutTTL-written value, treating an expired entry as absent.
// It does not eagerly delete the expired entry; callers that want eager
// eviction should call Delete themselves.
func (s *Store) GetTTL(key []byte) (value []byte, ok bool, err error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	expiresAt, payload, err := decodeTTL(raw)
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(expiresAt) {
		return nil, false, nil
	}
	return payload, true, nil
}

// IteratePrefix calls fn for every key with the given prefix, in key
// order. fn returning a non-nil error stops iteration and is returned.
func (s *Store) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		val := append([]byte(nil), iter.Value()...)
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return iter.Error()
}

// DeletePrefix removes every key with the given prefix.
func (s *Store) DeletePrefix(prefix []byte) error {
	batch := new(leveldb.Batch)
	if err := s.IteratePrefix(prefix, func(key, _ []byte) error {
		batch.Delete(key)
		return nil
	}); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

// NewBatch returns an empty write batch for atomic multi-key commits
// (used by engine/persist to publish a run atomically).
func (s *Store) NewBatch() *leveldb.Batch {
	return new(leveldb.Batch)
}

// WriteBatch commits batch atomically: every Put/Delete in it lands, or
// none do.
func (s *Store) WriteBatch(batch *leveldb.Batch) error {
	return s.db.Write(batch, nil)
}

func encodeTTL(expiresAt time.Time, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(out[:8], uint64(expiresAt.UnixNano()))
	copy(out[8:], payload)
	return out
}

func decodeTTL(raw []byte) (time.Time, []byte, error) {
	if len(raw) < 8 {
		return time.Time{}, nil, leveldb.ErrNotFound
	}
	nanos := int64(binary.BigEndian.Uint64(raw[:8]))
	return time.Unix(0, nanos), raw[8:], nil
}
