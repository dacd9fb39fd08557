// Package memstore is the default in-process layer cache, an
// expirable LRU sized for the fixed catalog plus cadastral downloads.
package memstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Store struct {
	lru *expirable.LRU[string, []byte]
}

// New builds a store with a single TTL fixed at construction; the
// per-call ttl argument of Set is ignored by this backend.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 128
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

func (s *Store) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.lru.Add(key, val)
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}
