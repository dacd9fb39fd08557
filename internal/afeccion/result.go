// Package afeccion evalúa las capas del catálogo contra una geometría de
// consulta y clasifica cada una.
package afeccion

import "strings"

// Estado clasifica el resultado de una capa.
type Estado int

const (
	EstadoNoAfecta Estado = iota
	EstadoAfecta
	EstadoServicio // el servicio WFS no respondió
	EstadoDatos    // la respuesta no se pudo interpretar
)

func (e Estado) String() string {
	switch e {
	case EstadoNoAfecta:
		return "no_afecta"
	case EstadoAfecta:
		return "afecta"
	case EstadoServicio:
		return "indeterminado_servicio"
	case EstadoDatos:
		return "indeterminado_datos"
	}
	return "desconocido"
}

// Fila is one detail-table row, one cell per configured column.
type Fila []string

// Resultado is the evaluation of one layer. Texto and Filas are mutually
// exclusive: affected layers with detail columns report rows, everything
// else reports a status phrase.
type Resultado struct {
	CapaID string
	Nombre string
	Estado Estado
	Texto  string
	Filas  []Fila
}

// DedupFilas drops duplicate rows keeping first-occurrence order. It is
// idempotent and compares the full tuple.
func DedupFilas(filas []Fila) []Fila {
	if len(filas) < 2 {
		return filas
	}
	seen := make(map[string]struct{}, len(filas))
	out := filas[:0]
	for _, f := range filas {
		k := strings.Join(f, "\x1f")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}
