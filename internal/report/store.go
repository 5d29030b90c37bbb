package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const ManifestTTL = 48 * time.Hour

var ErrManifestNotFound = errors.New("manifest not found")

// Store caches built manifests in Redis, one key per day.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{redis: rdb, ttl: ManifestTTL}
}

func manifestKey(date string) string {
	return "manifest:" + date
}

func (s *Store) Save(ctx context.Context, m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, manifestKey(m.Date), string(data), s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, date string) (*Manifest, error) {
	raw, err := s.redis.Get(ctx, manifestKey(date)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrManifestNotFound
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
