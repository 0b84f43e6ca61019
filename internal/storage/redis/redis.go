package redis

import (
	"context"
	"errors"

	rdb "github.com/redis/go-redis/v9"

	"garden-app/internal/storage"
)

// Store хранит ключи в Redis под общим префиксом.
type Store struct {
	c      *rdb.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New создаёт хранилище поверх Redis.
func New(addr string, db int, prefix string) *Store {
	return NewWithClient(rdb.NewClient(&rdb.Options{Addr: addr, DB: db}), prefix)
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(c *rdb.Client, prefix string) *Store {
	return &Store{c: c, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Set пишет без TTL: значение живёт, пока его явно не удалят.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.c.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.c.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.c.Del(ctx, s.key(key)).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.c.Close()
}
