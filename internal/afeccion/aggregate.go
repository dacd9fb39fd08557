package afeccion

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/capas"
	"github.com/iberiaforestal/afecciones-carm/internal/observability"
)

// Aggregator evaluates the whole catalog against one geometry with a
// bounded worker pool.
type Aggregator struct {
	engine   *Engine
	catalogo []capas.Capa
	workers  int
	log      *zerolog.Logger
}

func NewAggregator(engine *Engine, catalogo []capas.Capa, workers int, log *zerolog.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{engine: engine, catalogo: catalogo, workers: workers, log: log}
}

// EvaluateAll queries every catalog layer and returns one Resultado per
// layer in catalog order, regardless of individual failures.
func (a *Aggregator) EvaluateAll(ctx context.Context, geom orb.Geometry) []Resultado {
	start := time.Now()
	results := make([]Resultado, len(a.catalogo))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.engine.Query(ctx, a.catalogo[i], geom)
			}
		}()
	}
	for i := range a.catalogo {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	observability.ObserveConsulta(time.Since(start).Seconds())
	a.log.Debug().Int("capas", len(results)).
		Dur("duration", time.Since(start)).Msg("consulta completa")
	return results
}
