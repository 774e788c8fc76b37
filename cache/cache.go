// ABOUTME: Time-bounded read-through cache for directory lookups
// ABOUTME: Entries expire after a fixed TTL and the whole store can be invalidated at once
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long an entry stays live unless configured otherwise.
const DefaultTTL = 600 * time.Second

// Entry is a cached value with the time it was fetched.
type Entry struct {
	Key       string
	Value     any
	FetchedAt time.Time
	TTL       time.Duration
}

// Live reports whether the entry may still be served at now.
func (e Entry) Live(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// Stats summarizes cache activity since creation.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Store holds entries for every operation and argument combination.
//
// Concurrent misses on the same key each call the fetcher unless
// deduplication is enabled.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
	dedup   bool
	group   singleflight.Group
	gen     uint64
	hits    int64
	misses  int64
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the entry lifetime. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithDeduplication collapses concurrent misses on one key into a single fetch.
func WithDeduplication(enabled bool) Option {
	return func(s *Store) {
		s.dedup = enabled
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger.Named("cache")
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key builds a cache key from an operation name and its arguments.
func Key(op string, args ...string) string {
	if len(args) == 0 {
		return op
	}
	return op + "\x00" + strings.Join(args, "\x00")
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Fetch returns the live value for key, or calls fetch, stores its result and
// returns it. Failed fetches are not stored, and neither are fetches that were
// still running when the store was invalidated.
func Fetch[V any](ctx context.Context, s *Store, key string, fetch func(context.Context) (V, error)) (V, error) {
	v, ok, gen := s.lookup(key)
	if ok {
		s.logger.Debug("cache hit", zap.String("key", key))
		typed, ok := v.(V)
		if ok {
			return typed, nil
		}
		var zero V
		return zero, fmt.Errorf("cache entry %q holds %T", key, v)
	}
	s.logger.Debug("cache miss", zap.String("key", key))

	load := func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.store(key, v, gen)
		return v, nil
	}

	var err error
	if s.dedup {
		// Readers after an invalidation never join a flight started before it.
		v, err, _ = s.group.Do(fmt.Sprintf("%d\x00%s", gen, key), load)
	} else {
		v, err = load()
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (s *Store) lookup(key string) (any, bool, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if ok && entry.Live(s.now()) {
		s.hits++
		return entry.Value, true, s.gen
	}
	s.misses++
	return nil, false, s.gen
}

// store keeps v only if no invalidation happened since gen was read.
func (s *Store) store(key string, v any, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.logger.Debug("discarding fetch started before invalidation", zap.String("key", key))
		return
	}
	s.entries[key] = Entry{
		Key:       key,
		Value:     v,
		FetchedAt: s.now(),
		TTL:       s.ttl,
	}
}

// Get returns the entry for key whether or not it is still live.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Invalidate drops every entry regardless of age. Fetches already in flight
// return their result to their own caller but do not repopulate the store.
func (s *Store) Invalidate() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]Entry)
	s.gen++
	s.mu.Unlock()

	s.logger.Debug("cache invalidated", zap.Int("dropped", n))
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Hits:    s.hits,
		Misses:  s.misses,
		Entries: len(s.entries),
	}
}
