package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/afeccion"
	"github.com/iberiaforestal/afecciones-carm/internal/cache"
	"github.com/iberiaforestal/afecciones-carm/internal/cache/memstore"
	"github.com/iberiaforestal/afecciones-carm/internal/cache/redisstore"
	"github.com/iberiaforestal/afecciones-carm/internal/capas"
	"github.com/iberiaforestal/afecciones-carm/internal/catastro"
	"github.com/iberiaforestal/afecciones-carm/internal/config"
	"github.com/iberiaforestal/afecciones-carm/internal/geo"
	"github.com/iberiaforestal/afecciones-carm/internal/invalidation/kafkaconsumer"
	"github.com/iberiaforestal/afecciones-carm/internal/wfs"
)

// BuildStore picks the cache backend from the configuration.
func BuildStore(ctx context.Context, cfg config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return memstore.New(cfg.CacheSize, cfg.CacheTTL), nil
	case "redis":
		return redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithDialTimeout(cfg.CacheOpTimeout),
			redisstore.WithReadTimeout(cfg.CacheOpTimeout))
	}
	return nil, errors.New("cache backend must be memory or redis")
}

// Pipeline bundles the wired components the endpoints and the one-shot
// CLI evaluation share.
type Pipeline struct {
	Store    cache.Store
	Tr       *geo.Transformer
	Resolver *catastro.Resolver
	Agg      *afeccion.Aggregator
	Catalogo []capas.Capa
}

// NewPipeline wires store, transformer, resolver and aggregator from the
// configuration.
func NewPipeline(ctx context.Context, cfg config.Config, log *zerolog.Logger) (*Pipeline, error) {
	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tr := geo.NewTransformer(geo.Bounds{
		MinX: cfg.Bounds.MinX, MaxX: cfg.Bounds.MaxX,
		MinY: cfg.Bounds.MinY, MaxY: cfg.Bounds.MaxY,
	})

	loaderOpts := []catastro.LoaderOption{
		catastro.WithHTTPClient(&http.Client{Timeout: cfg.CatastroTimeout}),
	}
	if cfg.PrefilterEnabled {
		loaderOpts = append(loaderOpts, catastro.WithPrefilter(tr, cfg.PrefilterRes))
	}
	resolver := catastro.NewResolver(catastro.NewLoader(cfg.CatastroURL, log, loaderOpts...))

	catalogo := capas.Catalogo()
	capas.ApplyOverrides(catalogo, cfg.EndpointOverrides)

	fetcher := wfs.New(wfs.NewOutbound(cfg.FetchTimeout), store, cfg.CacheTTL, log,
		wfs.WithRetries(cfg.FetchRetries),
		wfs.WithBackoff(cfg.FetchBackoff))
	engine := afeccion.NewEngine(fetcher, cfg.GeoServerURL, log)
	agg := afeccion.NewAggregator(engine, catalogo, cfg.QueryWorkers, log)

	return &Pipeline{Store: store, Tr: tr, Resolver: resolver, Agg: agg, Catalogo: catalogo}, nil
}

// Run wires the pipeline and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, log *zerolog.Logger) error {
	p, err := NewPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}

	if cfg.Invalidation.Enabled {
		consumer := kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: strings.Split(cfg.Invalidation.Brokers, ","),
			Topic:   cfg.Invalidation.Topic,
			GroupID: cfg.Invalidation.GroupID,
		}, p.Store, p.Catalogo, cfg.GeoServerURL, log)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("consumidor de refrescos caído")
			}
		}()
	}

	h := NewHandler(p.Tr, p.Resolver, p.Agg, p.Catalogo, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
