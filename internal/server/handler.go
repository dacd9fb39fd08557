// Package server expone el informe de afecciones por HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/afeccion"
	"github.com/iberiaforestal/afecciones-carm/internal/capas"
	"github.com/iberiaforestal/afecciones-carm/internal/catastro"
	"github.com/iberiaforestal/afecciones-carm/internal/geo"
	"github.com/iberiaforestal/afecciones-carm/internal/informe"
	"github.com/iberiaforestal/afecciones-carm/internal/logger"
	"github.com/iberiaforestal/afecciones-carm/internal/observability"
)

// Handler serves the report endpoint and the service plumbing routes.
type Handler struct {
	tr       *geo.Transformer
	resolver *catastro.Resolver
	agg      *afeccion.Aggregator
	catalogo []capas.Capa
	log      *zerolog.Logger
	now      func() time.Time
}

func NewHandler(tr *geo.Transformer, resolver *catastro.Resolver, agg *afeccion.Aggregator,
	catalogo []capas.Capa, log *zerolog.Logger) *Handler {
	return &Handler{
		tr:       tr,
		resolver: resolver,
		agg:      agg,
		catalogo: catalogo,
		log:      log,
		now:      time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(h.log))
	r.Use(Logging(h.log))
	r.Use(CORS())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", observability.Handler())
	r.Get("/informe", h.handleInforme)
	return r
}

type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Error: msg})
}

// handleInforme evaluates every catalog layer for the requested spot.
// The spot comes either as projected coordinates (x, y) or as a cadastral
// reference (municipio, poligono, parcela).
func (h *Handler) handleInforme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	log := logger.FromContext(ctx, h.log)

	var (
		loc  informe.Localizacion
		geom orb.Geometry
	)

	if q.Get("municipio") != "" {
		hallazgo, err := h.resolver.Lookup(ctx, q.Get("municipio"), q.Get("poligono"), q.Get("parcela"))
		if err != nil {
			if errors.Is(err, catastro.ErrNoEncontrada) {
				writeError(w, http.StatusNotFound, "parcela no encontrada")
				return
			}
			log.Error().Err(err).Msg("catastro no disponible")
			writeError(w, http.StatusBadGateway, "catastro no disponible")
			return
		}
		geom = hallazgo.Geom
		ctr, _ := planar.CentroidArea(geom)
		lon, lat := h.tr.ToLonLat(ctr[0], ctr[1])
		loc = informe.Localizacion{
			Municipio: hallazgo.Municipio,
			Poligono:  hallazgo.Masa,
			Parcela:   hallazgo.Parcela,
			X:         ctr[0], Y: ctr[1],
			Lon: lon, Lat: lat,
		}
	} else {
		x, err := geo.ParseCoord("X", q.Get("x"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		y, err := geo.ParseCoord("Y", q.Get("y"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lon, lat, err := h.tr.Transform(x, y)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		loc = informe.Localizacion{X: x, Y: y, Lon: lon, Lat: lat}

		hallazgo, err := h.resolver.FindContaining(ctx, x, y)
		switch {
		case err == nil:
			geom = hallazgo.Geom
			loc.Municipio = hallazgo.Municipio
			loc.Poligono = hallazgo.Masa
			loc.Parcela = hallazgo.Parcela
		case errors.Is(err, catastro.ErrNoEncontrada):
			// no parcel found, evaluate the bare point
			geom = orb.Point{x, y}
			loc.Municipio, loc.Poligono, loc.Parcela = "N/A", "N/A", "N/A"
		default:
			log.Error().Err(err).Msg("búsqueda de parcela interrumpida")
			writeError(w, http.StatusServiceUnavailable, "consulta interrumpida")
			return
		}
	}

	sol := informe.Solicitante{
		Nombre:    q.Get("nombre"),
		Apellidos: q.Get("apellidos"),
		DNI:       q.Get("dni"),
		Direccion: q.Get("direccion"),
		Telefono:  q.Get("telefono"),
		Email:     q.Get("email"),
		Objeto:    q.Get("objeto"),
	}

	resultados := h.agg.EvaluateAll(ctx, geom)
	inf := informe.Build(h.now(), sol, loc, geom, h.catalogo, resultados)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(inf); err != nil {
		log.Error().Err(err).Msg("encode informe")
	}
}
