// Package wfs descarga capas WFS del GeoServer regional con cache y reintentos.
package wfs

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/cache"
	"github.com/iberiaforestal/afecciones-carm/internal/logger"
	"github.com/iberiaforestal/afecciones-carm/internal/observability"
)

// NewOutbound creates the HTTP client used to call the GeoServer.
func NewOutbound(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// StatusError is a non-2xx upstream response that exhausted its retries.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wfs: %s respondió %d", e.URL, e.Status)
}

// Warnings deduplicates operator-facing warnings by an arbitrary key,
// typically the basename of the failing resource.
type Warnings struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewWarnings() *Warnings {
	return &Warnings{seen: make(map[string]struct{})}
}

// FirstTime reports whether key has not been seen before and marks it seen.
func (w *Warnings) FirstTime(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[key]; ok {
		return false
	}
	w.seen[key] = struct{}{}
	return true
}

type Option func(*Fetcher)

func WithRetries(n int) Option {
	return func(f *Fetcher) { f.retries = n }
}

func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) { f.backoff = d }
}

func WithClock(sleep func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

// Fetcher resolves layer URLs to response bodies, consulting the cache first
// and retrying transient upstream failures.
type Fetcher struct {
	client  *http.Client
	store   cache.Store
	ttl     time.Duration
	retries int
	backoff time.Duration
	warns   *Warnings
	log     *zerolog.Logger
	sleep   func(context.Context, time.Duration) error
}

func New(client *http.Client, store cache.Store, ttl time.Duration, log *zerolog.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = NewOutbound(30 * time.Second)
	}
	f := &Fetcher{
		client:  client,
		store:   store,
		ttl:     ttl,
		retries: 3,
		backoff: 2 * time.Second,
		warns:   NewWarnings(),
		log:     log,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch returns the response body for rawURL. Cached bodies are served
// without touching the network. On upstream failure it warns once per
// resource basename and returns the error.
func (f *Fetcher) Fetch(ctx context.Context, capaID, rawURL string) ([]byte, error) {
	start := time.Now()
	log := logger.FromContext(ctx, f.log)

	key := cache.Key(rawURL)
	if f.store != nil {
		if body, ok := f.store.Get(ctx, key); ok {
			observability.IncCacheHit()
			observability.ObserveCapaFetch(capaID, "hit", time.Since(start).Seconds())
			log.Debug().Str("capa", capaID).Str("key", key).Msg("cache hit")
			return body, nil
		}
		observability.IncCacheMiss()
	}

	body, err := f.download(ctx, rawURL)
	if err != nil {
		result := "network_error"
		if _, ok := err.(*StatusError); ok {
			result = "http_error"
		}
		observability.ObserveCapaFetch(capaID, result, time.Since(start).Seconds())
		if f.warns.FirstTime(cache.Basename(rawURL)) {
			log.Warn().Str("capa", capaID).Str("url", rawURL).Err(err).
				Msg("servicio no disponible")
		}
		return nil, err
	}

	if f.store != nil {
		if err := f.store.Set(ctx, key, body, f.ttl); err != nil {
			log.Warn().Str("capa", capaID).Err(err).Msg("cache set failed")
		}
	}
	observability.ObserveCapaFetch(capaID, "ok", time.Since(start).Seconds())
	log.Debug().Str("capa", capaID).Int("bytes", len(body)).
		Dur("duration", time.Since(start)).Msg("capa descargada")
	return body, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("wfs: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("wfs: %s: %w", rawURL, err)
		}
		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("wfs: read body: %w", err)
			}
			return body, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		lastErr = &StatusError{URL: rawURL, Status: resp.StatusCode}
		if !retryable(resp.StatusCode) || attempt >= f.retries {
			return nil, lastErr
		}
		if err := f.sleep(ctx, f.backoff<<uint(attempt)); err != nil {
			return nil, lastErr
		}
	}
}
