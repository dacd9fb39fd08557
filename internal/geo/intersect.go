package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const eps = 1e-9

// Intersects reports whether the two geometries touch or overlap.
// Both geometries must be in the same planar CRS; the pipeline keeps
// everything in EPSG:25830 so no reprojection happens here.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for _, pa := range flatten(a) {
		for _, pb := range flatten(b) {
			if primIntersects(pa, pb) {
				return true
			}
		}
	}
	return false
}

// flatten reduces a geometry to point/linestring/polygon parts.
func flatten(g orb.Geometry) []orb.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Geometry{v}
	case orb.MultiPoint:
		out := make([]orb.Geometry, 0, len(v))
		for _, p := range v {
			out = append(out, p)
		}
		return out
	case orb.LineString:
		return []orb.Geometry{v}
	case orb.MultiLineString:
		out := make([]orb.Geometry, 0, len(v))
		for _, ls := range v {
			out = append(out, ls)
		}
		return out
	case orb.Ring:
		return []orb.Geometry{orb.Polygon{v}}
	case orb.Polygon:
		return []orb.Geometry{v}
	case orb.MultiPolygon:
		out := make([]orb.Geometry, 0, len(v))
		for _, p := range v {
			out = append(out, p)
		}
		return out
	case orb.Collection:
		var out []orb.Geometry
		for _, gg := range v {
			out = append(out, flatten(gg)...)
		}
		return out
	case orb.Bound:
		return []orb.Geometry{v.ToPolygon()}
	default:
		return nil
	}
}

func primIntersects(a, b orb.Geometry) bool {
	// order the pair point < line < polygon
	if rank(a) > rank(b) {
		a, b = b, a
	}
	switch ga := a.(type) {
	case orb.Point:
		switch gb := b.(type) {
		case orb.Point:
			return samePoint(ga, gb)
		case orb.LineString:
			return pointOnLine(ga, gb)
		case orb.Polygon:
			return planar.PolygonContains(gb, ga)
		}
	case orb.LineString:
		switch gb := b.(type) {
		case orb.LineString:
			return lineCrossesLine(ga, gb)
		case orb.Polygon:
			return lineTouchesPolygon(ga, gb)
		}
	case orb.Polygon:
		if gb, ok := b.(orb.Polygon); ok {
			return polygonsOverlap(ga, gb)
		}
	}
	return false
}

func rank(g orb.Geometry) int {
	switch g.(type) {
	case orb.Point:
		return 0
	case orb.LineString:
		return 1
	default:
		return 2
	}
}

func samePoint(a, b orb.Point) bool {
	return abs(a[0]-b[0]) <= eps && abs(a[1]-b[1]) <= eps
}

func pointOnLine(p orb.Point, ls orb.LineString) bool {
	for i := 0; i+1 < len(ls); i++ {
		if onSegment(ls[i], ls[i+1], p) {
			return true
		}
	}
	return false
}

func lineCrossesLine(a, b orb.LineString) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func lineTouchesPolygon(ls orb.LineString, poly orb.Polygon) bool {
	for _, p := range ls {
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	for _, ring := range poly {
		for j := 0; j+1 < len(ring); j++ {
			for i := 0; i+1 < len(ls); i++ {
				if segmentsIntersect(ls[i], ls[i+1], ring[j], ring[j+1]) {
					return true
				}
			}
		}
	}
	return false
}

func polygonsOverlap(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, p := range a[0] {
		if planar.PolygonContains(b, p) {
			return true
		}
	}
	for _, p := range b[0] {
		if planar.PolygonContains(a, p) {
			return true
		}
	}
	for _, ra := range a {
		for _, rb := range b {
			for i := 0; i+1 < len(ra); i++ {
				for j := 0; j+1 < len(rb); j++ {
					if segmentsIntersect(ra[i], ra[i+1], rb[j], rb[j+1]) {
						return true
					}
				}
			}
		}
	}
	return false
}

// cross product of (b-a) x (c-a)
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	if abs(cross(a, b, p)) > eps*(abs(b[0]-a[0])+abs(b[1]-a[1])+1) {
		return false
	}
	return min(a[0], b[0])-eps <= p[0] && p[0] <= max(a[0], b[0])+eps &&
		min(a[1], b[1])-eps <= p[1] && p[1] <= max(a[1], b[1])+eps
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(q1, q2, p1) || onSegment(q1, q2, p2) ||
		onSegment(p1, p2, q1) || onSegment(p1, p2, q2)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
