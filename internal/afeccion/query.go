package afeccion

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/capas"
	"github.com/iberiaforestal/afecciones-carm/internal/geo"
	"github.com/iberiaforestal/afecciones-carm/internal/logger"
	"github.com/iberiaforestal/afecciones-carm/internal/wfs"
)

// Engine resolves one layer against a query geometry.
type Engine struct {
	fetcher *wfs.Fetcher
	base    string
	log     *zerolog.Logger
}

func NewEngine(fetcher *wfs.Fetcher, base string, log *zerolog.Logger) *Engine {
	return &Engine{fetcher: fetcher, base: base, log: log}
}

// Query downloads the layer, intersects its features with geom and
// classifies the outcome. It never returns an error: upstream or data
// failures degrade to an indeterminate Resultado.
func (e *Engine) Query(ctx context.Context, capa capas.Capa, geom orb.Geometry) Resultado {
	res := Resultado{CapaID: capa.ID, Nombre: capa.Nombre}
	log := logger.FromContext(ctx, e.log)

	body, err := e.fetcher.Fetch(ctx, capa.ID, capa.URL(e.base))
	if err != nil {
		res.Estado = EstadoServicio
		res.Texto = fmt.Sprintf("Indeterminado: %s (servicio no disponible)", capa.Nombre)
		return res
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		log.Warn().Str("capa", capa.ID).Err(err).Msg("respuesta WFS ilegible")
		res.Estado = EstadoDatos
		res.Texto = fmt.Sprintf("Indeterminado: %s (error de datos)", capa.Nombre)
		return res
	}

	var matched []*geojson.Feature
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		if geo.Intersects(f.Geometry, geom) {
			matched = append(matched, f)
		}
	}

	if len(matched) == 0 {
		res.Estado = EstadoNoAfecta
		res.Texto = capa.NoAfecta
		return res
	}

	res.Estado = EstadoAfecta
	if capa.Detalle != nil {
		res.Filas = DedupFilas(projectRows(matched, capa))
		return res
	}
	res.Texto = fmt.Sprintf("Dentro de %s: %s", capa.Nombre, joinNames(matched, capa.CampoNombre))
	return res
}

// projectRows maps matched features onto the layer's detail columns.
// Structured layers default missing fields to "Desconocido", the rest
// to "N/A".
func projectRows(matched []*geojson.Feature, capa capas.Capa) []Fila {
	def := "N/A"
	if capa.Campos != nil {
		def = "Desconocido"
	}
	filas := make([]Fila, 0, len(matched))
	for _, f := range matched {
		fila := make(Fila, 0, len(capa.Detalle))
		for _, col := range capa.Detalle {
			fila = append(fila, propString(f.Properties, col.Fuente, def))
		}
		filas = append(filas, fila)
	}
	return filas
}

// joinNames lists the distinct non-null values of the name field in
// feature order.
func joinNames(matched []*geojson.Feature, campo string) string {
	seen := make(map[string]struct{})
	var names []string
	for _, f := range matched {
		v, ok := f.Properties[campo]
		if !ok || v == nil {
			continue
		}
		s := asString(v)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	return strings.Join(names, ", ")
}

func propString(props geojson.Properties, key, def string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return def
	}
	return asString(v)
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; render integers without decimals
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprint(v)
	}
}
