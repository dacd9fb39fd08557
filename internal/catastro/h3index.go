package catastro

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/uber/h3-go/v4"

	"github.com/iberiaforestal/afecciones-carm/internal/geo"
)

// h3Index maps H3 cells to the parcels whose bounding box touches them.
// Cell sets are padded with their immediate neighbors, so a lookup at the
// cell of a point always sees every parcel that could contain it.
type h3Index struct {
	res   int
	tr    *geo.Transformer
	cells map[h3.Cell][]int
}

func buildH3Index(ds *Dataset, tr *geo.Transformer, res int) (*h3Index, error) {
	idx := &h3Index{res: res, tr: tr, cells: make(map[h3.Cell][]int)}
	for i := range ds.Parcelas {
		cover, err := idx.coverBound(ds.Parcelas[i].Geom.Bound())
		if err != nil {
			return nil, err
		}
		seen := make(map[h3.Cell]struct{})
		for _, c := range cover {
			disk, err := h3.GridDisk(c, 1)
			if err != nil {
				return nil, fmt.Errorf("grid disk: %w", err)
			}
			for _, n := range disk {
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				idx.cells[n] = append(idx.cells[n], i)
			}
		}
	}
	return idx, nil
}

func (idx *h3Index) coverBound(b orb.Bound) ([]h3.Cell, error) {
	corners := []orb.Point{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
	}
	loop := make(h3.GeoLoop, 0, len(corners))
	for _, c := range corners {
		lon, lat := idx.tr.ToLonLat(c[0], c[1])
		loop = append(loop, h3.LatLng{Lat: lat, Lng: lon})
	}
	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, idx.res)
	if err != nil {
		return nil, fmt.Errorf("polygon to cells: %w", err)
	}
	if len(cells) > 0 {
		return cells, nil
	}

	// bound smaller than a cell, fall back to the cell of its center
	ctr := b.Center()
	lon, lat := idx.tr.ToLonLat(ctr[0], ctr[1])
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, idx.res)
	if err != nil {
		return nil, fmt.Errorf("latlng to cell: %w", err)
	}
	return []h3.Cell{cell}, nil
}

// candidates returns the parcel indices worth testing for pt, preserving
// file order so the first match stays deterministic.
func (idx *h3Index) candidates(pt orb.Point) []int {
	lon, lat := idx.tr.ToLonLat(pt[0], pt[1])
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, idx.res)
	if err != nil {
		return nil
	}
	// build appends parcels in ascending file order, no sort needed
	return idx.cells[cell]
}
