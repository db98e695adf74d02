package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is an in-process cache. Every entry shares the TTL given to NewLRU;
// the per-call ttl passed to Set is ignored.
type LRU struct {
	lru *expirable.LRU[string, []byte]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *LRU) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := l.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (l *LRU) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	l.lru.Add(key, value)
	return nil
}

func (l *LRU) Delete(_ context.Context, key string) error {
	l.lru.Remove(key)
	return nil
}

func (l *LRU) Len() int {
	return l.lru.Len()
}
