package catastro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Parcela is one cadastral parcel of a municipal dataset.
type Parcela struct {
	Masa    string
	Parcela string
	Geom    orb.Geometry
}

func (p *Parcela) Contains(pt orb.Point) bool {
	switch g := p.Geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

func (p *Parcela) Centroid() orb.Point {
	c, _ := planar.CentroidArea(p.Geom)
	return c
}

// Dataset holds the parcels of one municipality in file order.
type Dataset struct {
	Municipio string
	Parcelas  []Parcela
	idx       *h3Index
}

// Containing returns the first parcel containing pt, in file order.
func (d *Dataset) Containing(pt orb.Point) (*Parcela, bool) {
	if d.idx != nil {
		for _, i := range d.idx.candidates(pt) {
			if d.Parcelas[i].Contains(pt) {
				return &d.Parcelas[i], true
			}
		}
		return nil, false
	}
	for i := range d.Parcelas {
		if d.Parcelas[i].Contains(pt) {
			return &d.Parcelas[i], true
		}
	}
	return nil, false
}

// Masas returns the distinct polygon numbers, sorted.
func (d *Dataset) Masas() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range d.Parcelas {
		m := d.Parcelas[i].Masa
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ParcelasDe returns the parcel numbers within a polygon, sorted.
func (d *Dataset) ParcelasDe(masa string) []string {
	var out []string
	for i := range d.Parcelas {
		if d.Parcelas[i].Masa == masa {
			out = append(out, d.Parcelas[i].Parcela)
		}
	}
	sort.Strings(out)
	return out
}

// Find returns the parcel identified by polygon and parcel number.
func (d *Dataset) Find(masa, parcela string) (*Parcela, bool) {
	for i := range d.Parcelas {
		if d.Parcelas[i].Masa == masa && d.Parcelas[i].Parcela == parcela {
			return &d.Parcelas[i], true
		}
	}
	return nil, false
}

// dbf text fields arrive padded with spaces or NULs depending on the writer.
func trimDBF(s string) string {
	return strings.Trim(s, " \x00")
}

// parseShapefile reads a cadastral shapefile into a Dataset. The companion
// .dbf must sit next to the .shp under the same base name.
func parseShapefile(path, municipio string) (*Dataset, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", path, err)
	}
	defer r.Close()

	masaIdx, parcelaIdx := -1, -1
	for i, f := range r.Fields() {
		switch strings.ToUpper(strings.TrimSpace(f.String())) {
		case "MASA":
			masaIdx = i
		case "PARCELA":
			parcelaIdx = i
		}
	}
	if masaIdx < 0 || parcelaIdx < 0 {
		return nil, fmt.Errorf("%s: faltan los campos MASA o PARCELA", path)
	}

	ds := &Dataset{Municipio: municipio}
	for r.Next() {
		row, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		geom := assembleRings(poly)
		if geom == nil {
			continue
		}
		ds.Parcelas = append(ds.Parcelas, Parcela{
			Masa:    trimDBF(r.ReadAttribute(row, masaIdx)),
			Parcela: trimDBF(r.ReadAttribute(row, parcelaIdx)),
			Geom:    geom,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	return ds, nil
}

// assembleRings groups the record's rings into polygons. Shapefile outer
// rings run clockwise and holes counterclockwise; a hole belongs to the
// outer ring that contains it.
func assembleRings(p *shp.Polygon) orb.Geometry {
	var rings []orb.Ring
	for i, start := range p.Parts {
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-int(start))
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil
	}

	var polys orb.MultiPolygon
	var holes []orb.Ring
	for _, r := range rings {
		if signedArea(r) <= 0 {
			polys = append(polys, orb.Polygon{r})
		} else {
			holes = append(holes, r)
		}
	}
	if len(polys) == 0 {
		// degenerate orientation, treat every ring as an outer
		for _, r := range rings {
			polys = append(polys, orb.Polygon{r})
		}
		holes = nil
	}
	for _, h := range holes {
		for i := range polys {
			if planar.RingContains(polys[i][0], h[0]) {
				polys[i] = append(polys[i], h)
				break
			}
		}
	}
	if len(polys) == 1 {
		return polys[0]
	}
	return polys
}

func signedArea(r orb.Ring) float64 {
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}
