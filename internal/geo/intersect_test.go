package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestIntersects_PointInPolygon(t *testing.T) {
	poly := square(0, 0, 10, 10)

	if !Intersects(orb.Point{5, 5}, poly) {
		t.Fatal("interior point should intersect")
	}
	if Intersects(orb.Point{15, 5}, poly) {
		t.Fatal("exterior point should not intersect")
	}
}

func TestIntersects_Symmetric(t *testing.T) {
	poly := square(0, 0, 10, 10)
	p := orb.Point{5, 5}
	if Intersects(p, poly) != Intersects(poly, p) {
		t.Fatal("Intersects is not symmetric")
	}
}

func TestIntersects_PointInMultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{square(0, 0, 1, 1), square(5, 5, 6, 6)}
	if !Intersects(orb.Point{5.5, 5.5}, mp) {
		t.Fatal("point in second member should intersect")
	}
	if Intersects(orb.Point{3, 3}, mp) {
		t.Fatal("point between members should not intersect")
	}
}

func TestIntersects_PolygonOverlap(t *testing.T) {
	a := square(0, 0, 10, 10)
	b := square(5, 5, 15, 15)
	c := square(20, 20, 30, 30)

	if !Intersects(a, b) {
		t.Fatal("overlapping polygons should intersect")
	}
	if Intersects(a, c) {
		t.Fatal("disjoint polygons should not intersect")
	}
}

func TestIntersects_PolygonContainsPolygon(t *testing.T) {
	outer := square(0, 0, 10, 10)
	inner := square(4, 4, 6, 6)
	if !Intersects(outer, inner) {
		t.Fatal("contained polygon should intersect")
	}
	if !Intersects(inner, outer) {
		t.Fatal("containing polygon should intersect")
	}
}

func TestIntersects_EdgeCrossingOnly(t *testing.T) {
	// a thin polygon slicing through another with no vertex containment
	blade := orb.Polygon{orb.Ring{
		{-5, 4.9}, {15, 4.9}, {15, 5.1}, {-5, 5.1}, {-5, 4.9},
	}}
	target := square(0, 0, 10, 10)
	if !Intersects(blade, target) {
		t.Fatal("edge crossing should count as intersection")
	}
}

func TestIntersects_LineString(t *testing.T) {
	poly := square(0, 0, 10, 10)
	crossing := orb.LineString{{-5, 5}, {15, 5}}
	outside := orb.LineString{{-5, 20}, {15, 20}}

	if !Intersects(crossing, poly) {
		t.Fatal("crossing line should intersect polygon")
	}
	if Intersects(outside, poly) {
		t.Fatal("outside line should not intersect polygon")
	}

	if !Intersects(orb.LineString{{0, 0}, {10, 10}}, orb.LineString{{0, 10}, {10, 0}}) {
		t.Fatal("crossing lines should intersect")
	}
}

func TestIntersects_NilAndBoundShortCircuit(t *testing.T) {
	if Intersects(nil, square(0, 0, 1, 1)) {
		t.Fatal("nil geometry should not intersect")
	}
	// bounds far apart should short circuit to false
	if Intersects(square(0, 0, 1, 1), square(1000, 1000, 1001, 1001)) {
		t.Fatal("distant polygons should not intersect")
	}
}
