package server

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justyntemme/linga-t/pkg/models"
)

// ErrNoProgress is returned for books nobody has opened yet
var ErrNoProgress = errors.New("no progress recorded")

// Record is the stored reading state of one book
type Record struct {
	RelPath     string
	Page        int
	FitMode     string
	RightToLeft bool
	DualPage    bool
	Finished    bool
	LastAccess  time.Time
}

// Update converts the record to its wire form
func (r Record) Update() models.ProgressUpdate {
	return models.ProgressUpdate{
		RelPath:     r.RelPath,
		Page:        r.Page,
		Finished:    r.Finished,
		FitMode:     r.FitMode,
		RightToLeft: r.RightToLeft,
		DualPage:    r.DualPage,
	}
}

// ProgressStore persists reading progress. Put never clears Finished: once
// a book has been finished it stays finished.
type ProgressStore interface {
	Get(ctx context.Context, relpath string) (Record, error)
	Put(ctx context.Context, r Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

const (
	progressKeyPrefix = "linga:progress:"
	recentKey         = "linga:recent"
	redisTimeout      = 3 * time.Second
)

// RedisStore keeps one hash per book and a sorted set of access times
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed progress store
func NewRedisStore(addr, password string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, relpath string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, progressKeyPrefix+relpath).Result()
	if err != nil && err != redis.Nil {
		return Record{}, err
	}
	if len(fields) == 0 {
		return Record{}, ErrNoProgress
	}

	r := Record{
		RelPath:     relpath,
		FitMode:     fields["fit_mode"],
		RightToLeft: fields["rtl"] == "1",
		DualPage:    fields["dual"] == "1",
		Finished:    fields["finished"] == "1",
	}
	r.Page, _ = strconv.Atoi(fields["page"])
	if ts, err := strconv.ParseInt(fields["last_access"], 10, 64); err == nil {
		r.LastAccess = time.Unix(ts, 0)
	}
	return r, nil
}

func (s *RedisStore) Put(ctx context.Context, r Record) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := progressKeyPrefix + r.RelPath
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"page", strconv.Itoa(r.Page),
			"fit_mode", r.FitMode,
			"rtl", flag(r.RightToLeft),
			"dual", flag(r.DualPage),
			"last_access", strconv.FormatInt(r.LastAccess.Unix(), 10),
		)
		if r.Finished {
			pipe.HSet(ctx, key, "finished", "1")
		}
		pipe.ZAdd(ctx, recentKey, redis.Z{Score: float64(r.LastAccess.Unix()), Member: r.RelPath})
		return nil
	})
	return err
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rctx, cancel := context.WithTimeout(ctx, redisTimeout)
	paths, err := s.client.ZRevRange(rctx, recentKey, 0, int64(limit)-1).Result()
	cancel()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	records := make([]Record, 0, len(paths))
	for _, p := range paths {
		r, err := s.Get(ctx, p)
		if errors.Is(err, ErrNoProgress) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// MemoryStore keeps progress in process memory
type MemoryStore struct {
	records map[string]Record
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, relpath string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[relpath]
	if !ok {
		return Record{}, ErrNoProgress
	}
	return r, nil
}

func (s *MemoryStore) Put(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.records[r.RelPath]; ok && old.Finished {
		r.Finished = true
	}
	s.records[r.RelPath] = r
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	records := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].LastAccess.After(records[j].LastAccess)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemoryStore) Close() error { return nil }

var (
	_ ProgressStore = (*RedisStore)(nil)
	_ ProgressStore = (*MemoryStore)(nil)
)
