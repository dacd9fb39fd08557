// Package cache defines the byte store behind the remote layer cache.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Store holds downloaded layer payloads keyed by request URL. Entries
// are immutable once stored and expire after the configured TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Key derives the cache key for a resource URL. The basename is kept
// readable for debugging; the hash disambiguates query strings.
func Key(rawURL string) string {
	return fmt.Sprintf("capa:%s:%016x", sanitize(Basename(rawURL)), xxhash.Sum64String(rawURL))
}

// Basename returns the last path-ish segment of a URL, the unit the
// one-warning-per-resource policy is keyed on.
func Basename(rawURL string) string {
	s := rawURL
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := r
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			out = '-'
		}
		if out == '-' && prev == '-' {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	const maxLen = 96
	key := b.String()
	if len(key) > maxLen {
		key = key[:maxLen]
	}
	return key
}
