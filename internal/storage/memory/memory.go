package memory

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"garden-app/internal/storage"
)

// Store — хранилище в памяти процесса. Значения не истекают.
type Store struct {
	c *gocache.Cache
}

var _ storage.Store = (*Store)(nil)

// New создаёт пустое хранилище в памяти.
func New() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 0)}
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", storage.ErrNotFound
	}
	str, _ := v.(string)
	return str, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len возвращает количество ключей.
func (s *Store) Len() int {
	return s.c.ItemCount()
}
