// Package cache is a persistent, expiring store for market records keyed by
// ticker and category.
//
// Rows live in a single bbolt bucket. Expiry is evaluated lazily: Get drops
// expired rows it meets, SweepExpired removes them in bulk and Stats only
// counts them. Storage and codec failures never reach the caller; they are
// logged and turned into a miss or a no-op.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/leonardcser/quickscope/internal/codec"
	"github.com/leonardcser/quickscope/internal/logger"
)

const defaultBucket = "cache"

// Store is a bbolt-backed expiring cache. It is safe for concurrent use by
// multiple goroutines. A nil *Store, or one returned degraded by
// OpenDefault, behaves as an always-empty cache.
type Store struct {
	db      *bolt.DB
	bucket  []byte
	ttl     TTLPolicy
	codec   codec.Codec
	log     zerolog.Logger
	metrics Metrics
	now     func() time.Time
}

type Options struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// TTL resolves per-category defaults for Set. Zero fields use
	// DefaultTTLPolicy.
	TTL TTLPolicy
	// Codec encodes records. Defaults to codec.Default().
	Codec codec.Codec
	// Logger defaults to the global logger with component=cache.
	Logger *zerolog.Logger
	// Metrics defaults to NoopMetrics.
	Metrics Metrics
	// Now is the store clock. Defaults to time.Now.
	Now func() time.Time
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	TotalEntries     int   `json:"total_entries"`
	ExpiredEntries   int   `json:"expired_entries"`
	ValidEntries     int   `json:"valid_entries"`
	StorageSizeBytes int64 `json:"storage_size_bytes"`
}

// SizeMB returns StorageSizeBytes in mebibytes.
func (s Stats) SizeMB() float64 {
	return float64(s.StorageSizeBytes) / (1024 * 1024)
}

func newStore(opts Options) *Store {
	s := &Store{
		bucket:  []byte(defaultBucket),
		ttl:     opts.TTL.withDefaults(),
		codec:   opts.Codec,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if opts.Bucket != "" {
		s.bucket = []byte(opts.Bucket)
	}
	if s.codec == nil {
		s.codec = codec.Default()
	}
	if s.metrics == nil {
		s.metrics = NoopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = logger.Component("cache")
	}
	return s
}

// Open initializes or opens a Store at the given path, creating parent
// directories as needed.
func Open(path string, opts Options) (*Store, error) {
	s := newStore(opts)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.db = db
	return s, nil
}

// OpenDefault opens the store at path. If that fails the error is logged
// and a degraded store is returned whose lookups always miss and whose
// writes are dropped.
func OpenDefault(path string, opts Options) *Store {
	s, err := Open(path, opts)
	if err == nil {
		return s
	}
	s = newStore(opts)
	s.log.Error().Err(err).Str("path", path).Msg("cache disabled: failed to open store")
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path, or "" for a degraded store.
func (s *Store) Path() string {
	if !s.available() {
		return ""
	}
	return s.db.Path()
}

// TTLPolicy returns the default TTLs used by Set.
func (s *Store) TTLPolicy() TTLPolicy {
	if s == nil {
		return DefaultTTLPolicy()
	}
	return s.ttl
}

func (s *Store) available() bool { return s != nil && s.db != nil }

func (s *Store) bucketOf(tx *bolt.Tx) (*bolt.Bucket, error) {
	b := tx.Bucket(s.bucket)
	if b == nil {
		return nil, fmt.Errorf("%w: bucket %q missing", ErrUnavailable, s.bucket)
	}
	return b, nil
}

// Get returns the live record stored for ticker and category. Expired rows
// are deleted on the way out; undecodable rows are reported as a miss.
func (s *Store) Get(ticker, category string) (any, bool) {
	if !s.available() {
		if s != nil {
			s.metrics.Miss(category)
		}
		return nil, false
	}
	k := key(ticker, category)
	log := s.log.With().Bytes("key", k).Logger()

	e, err := s.lookup(k)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Debug().Msg("cache miss")
		s.metrics.Miss(category)
		return nil, false
	case errors.Is(err, ErrExpired):
		log.Debug().Msg("cache entry expired")
		s.deleteIfExpired(k)
		s.metrics.Expire(category)
		s.metrics.Miss(category)
		return nil, false
	case err != nil:
		log.Error().Err(err).Msg("cache lookup failed")
		s.metrics.Miss(category)
		return nil, false
	}

	v, err := s.codec.Decode(e.Value)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode cached value")
		s.metrics.Miss(category)
		return nil, false
	}
	log.Debug().Msg("cache hit")
	s.metrics.Hit(category)
	return v, true
}

func (s *Store) lookup(k []byte) (entry, error) {
	var e entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := s.bucketOf(tx)
		if err != nil {
			return err
		}
		v := b.Get(k)
		if v == nil {
			return ErrNotFound
		}
		parsed, err := unmarshalEntry(v)
		if err != nil {
			return err
		}
		if parsed.expired(s.now()) {
			return ErrExpired
		}
		parsed.Value = append([]byte(nil), parsed.Value...)
		e = parsed
		return nil
	})
	return e, err
}

// deleteIfExpired removes k only if the row is still expired, so a fresh
// write that landed after the read survives.
func (s *Store) deleteIfExpired(k []byte) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucketOf(tx)
		if err != nil {
			return err
		}
		v := b.Get(k)
		if v == nil {
			return nil
		}
		e, err := unmarshalEntry(v)
		if err == nil && !e.expired(s.now()) {
			return nil
		}
		return b.Delete(k)
	})
	if err != nil {
		s.log.Error().Err(err).Bytes("key", k).Msg("failed to delete expired entry")
	}
}

// Set stores value with the default TTL for category.
func (s *Store) Set(ticker, category string, value any) {
	s.SetWithTTL(ticker, category, value, s.TTLPolicy().For(category))
}

// SetWithTTL stores value for ticker and category, replacing any prior row.
// The TTL is truncated to whole seconds. If value cannot be encoded the
// prior row is left untouched.
func (s *Store) SetWithTTL(ticker, category string, value any, ttl time.Duration) {
	if !s.available() {
		return
	}
	k := key(ticker, category)
	log := s.log.With().Bytes("key", k).Logger()

	blob, err := s.codec.Encode(value)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode value, write abandoned")
		s.metrics.WriteError(category)
		return
	}
	row, err := entry{
		WrittenAt: s.now(),
		TTL:       int64(ttl / time.Second),
		Category:  category,
		Value:     blob,
	}.marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to build row, write abandoned")
		s.metrics.WriteError(category)
		return
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucketOf(tx)
		if err != nil {
			return err
		}
		return b.Put(k, row)
	}); err != nil {
		log.Error().Err(err).Msg("failed to write cache entry")
		s.metrics.WriteError(category)
		return
	}
	log.Debug().Dur("ttl", ttl).Msg("cache write")
	s.metrics.Write(category)
}

// Delete removes the row for ticker and category if present.
func (s *Store) Delete(ticker, category string) {
	if !s.available() {
		return
	}
	k := key(ticker, category)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucketOf(tx)
		if err != nil {
			return err
		}
		return b.Delete(k)
	}); err != nil {
		s.log.Error().Err(err).Bytes("key", k).Msg("failed to delete cache entry")
	}
}

// ClearTicker removes every row for ticker regardless of category and
// returns how many were removed.
func (s *Store) ClearTicker(ticker string) int {
	if !s.available() {
		return 0
	}
	prefix := tickerPrefix(ticker)
	removed, err := s.deleteWhere(func(k, _ []byte) bool {
		return bytes.HasPrefix(k, prefix)
	}, prefix)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", string(prefix[:len(prefix)-1])).Msg("failed to clear ticker")
		return 0
	}
	s.log.Info().Str("ticker", string(prefix[:len(prefix)-1])).Int("removed", removed).Msg("cleared ticker cache")
	return removed
}

// ClearAll removes every row.
func (s *Store) ClearAll() {
	if !s.available() {
		return
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	}); err != nil {
		s.log.Error().Err(err).Msg("failed to clear cache")
		return
	}
	s.log.Info().Msg("cleared all cache entries")
}

// SweepExpired removes every expired or unreadable row and returns how many
// were removed.
func (s *Store) SweepExpired() int {
	if !s.available() {
		return 0
	}
	now := s.now()
	removed, err := s.deleteWhere(func(_, v []byte) bool {
		e, err := unmarshalEntry(v)
		return err != nil || e.expired(now)
	}, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sweep expired entries")
		return 0
	}
	s.log.Info().Int("removed", removed).Msg("swept expired cache entries")
	s.metrics.Sweep(removed)
	return removed
}

// deleteWhere deletes the rows matching fn in one transaction. With a
// non-nil prefix only keys under it are visited.
func (s *Store) deleteWhere(fn func(k, v []byte) bool, prefix []byte) (int, error) {
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucketOf(tx)
		if err != nil {
			return err
		}
		var doomed [][]byte
		c := b.Cursor()
		var k, v []byte
		if prefix != nil {
			k, v = c.Seek(prefix)
		} else {
			k, v = c.First()
		}
		for ; k != nil; k, v = c.Next() {
			if prefix != nil && !bytes.HasPrefix(k, prefix) {
				break
			}
			if fn(k, v) {
				doomed = append(doomed, append([]byte(nil), k...))
			}
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(doomed)
		return nil
	})
	return removed, err
}

// Stats counts rows without modifying them. Unreadable rows count as
// expired.
func (s *Store) Stats() Stats {
	var st Stats
	if !s.available() {
		return st
	}
	now := s.now()
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := s.bucketOf(tx)
		if err != nil {
			return err
		}
		st.StorageSizeBytes = tx.Size()
		return b.ForEach(func(_, v []byte) error {
			st.TotalEntries++
			e, err := unmarshalEntry(v)
			if err != nil || e.expired(now) {
				st.ExpiredEntries++
			}
			return nil
		})
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to collect cache stats")
		return Stats{}
	}
	st.ValidEntries = st.TotalEntries - st.ExpiredEntries
	return st
}
