package geo

import "fmt"

// RangeError reports a projected coordinate outside the accepted
// sanity box for ETRS89 / UTM zone 30.
type RangeError struct {
	Coord    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("coordenada %s=%.2f fuera del rango esperado [%.0f, %.0f] para ETRS89 UTM Zona 30",
		e.Coord, e.Value, e.Min, e.Max)
}

// FormatError reports non-numeric coordinate input.
type FormatError struct {
	Field string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("coordenada %s=%q no es un valor numérico", e.Field, e.Value)
}
