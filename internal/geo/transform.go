// Package geo implements the coordinate transform and the planar
// intersection predicate used by the affection pipeline.
package geo

import (
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

// Bounds is the accepted projected coordinate box.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// DefaultBounds matches the original sanity guard for the Region of Murcia.
var DefaultBounds = Bounds{MinX: 500000, MaxX: 800000, MinY: 4000000, MaxY: 4800000}

// Transformer converts ETRS89 / UTM zone 30 (EPSG:25830) coordinates
// to geographic WGS84 (EPSG:4326) degrees. It is pure and deterministic.
type Transformer struct {
	bounds Bounds
	fwd    wgs84.Func
	inv    wgs84.Func
}

func NewTransformer(b Bounds) *Transformer {
	if b == (Bounds{}) {
		b = DefaultBounds
	}
	return &Transformer{
		bounds: b,
		fwd:    wgs84.ETRS89UTM(30).To(wgs84.LonLat()),
		inv:    wgs84.LonLat().To(wgs84.ETRS89UTM(30)),
	}
}

// Transform validates the input against the bounds and returns
// longitude/latitude in degrees. No I/O is performed.
func (t *Transformer) Transform(x, y float64) (lon, lat float64, err error) {
	if x < t.bounds.MinX || x > t.bounds.MaxX {
		return 0, 0, &RangeError{Coord: "X", Value: x, Min: t.bounds.MinX, Max: t.bounds.MaxX}
	}
	if y < t.bounds.MinY || y > t.bounds.MaxY {
		return 0, 0, &RangeError{Coord: "Y", Value: y, Min: t.bounds.MinY, Max: t.bounds.MaxY}
	}
	lon, lat, _ = t.fwd(x, y, 0)
	return lon, lat, nil
}

// ToLonLat converts projected meters to geographic degrees without the
// range validation. Internal callers feed it coordinates that already
// passed the guard or came out of a loaded dataset.
func (t *Transformer) ToLonLat(x, y float64) (lon, lat float64) {
	lon, lat, _ = t.fwd(x, y, 0)
	return lon, lat
}

// Inverse maps geographic degrees back to projected meters. Used by
// tests and by the prefilter index; performs no range validation.
func (t *Transformer) Inverse(lon, lat float64) (x, y float64) {
	x, y, _ = t.inv(lon, lat, 0)
	return x, y
}

// ParseCoord parses a decimal coordinate from user input.
func ParseCoord(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FormatError{Field: field, Value: raw}
	}
	return v, nil
}
