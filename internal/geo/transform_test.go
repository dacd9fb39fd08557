package geo

import (
	"errors"
	"math"
	"testing"
)

func TestTransform_MurciaPoint(t *testing.T) {
	tr := NewTransformer(DefaultBounds)

	lon, lat, err := tr.Transform(650000, 4150000)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if lon < -2 || lon > -1 {
		t.Fatalf("lon = %f, want within [-2, -1]", lon)
	}
	if lat < 37 || lat > 38 {
		t.Fatalf("lat = %f, want within [37, 38]", lat)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	tr := NewTransformer(DefaultBounds)
	lon1, lat1, _ := tr.Transform(612345.67, 4212345.89)
	lon2, lat2, _ := tr.Transform(612345.67, 4212345.89)
	if lon1 != lon2 || lat1 != lat2 {
		t.Fatalf("transform not deterministic: (%f,%f) vs (%f,%f)", lon1, lat1, lon2, lat2)
	}
}

func TestTransform_RoundTrip(t *testing.T) {
	tr := NewTransformer(DefaultBounds)
	cases := [][2]float64{
		{650000, 4150000},
		{500000, 4000000},
		{800000, 4800000},
		{677500.5, 4205000.25},
	}
	for _, c := range cases {
		lon, lat, err := tr.Transform(c[0], c[1])
		if err != nil {
			t.Fatalf("Transform(%v): %v", c, err)
		}
		x, y := tr.Inverse(lon, lat)
		// the inverse projection series is only metre-level accurate
		if math.Abs(x-c[0]) > 5 || math.Abs(y-c[1]) > 5 {
			t.Fatalf("round trip of %v drifted to (%f, %f)", c, x, y)
		}
	}
}

func TestTransform_OutOfRange(t *testing.T) {
	tr := NewTransformer(DefaultBounds)
	cases := []struct {
		name string
		x, y float64
	}{
		{"x too small", 499999, 4150000},
		{"x too large", 800001, 4150000},
		{"y too small", 650000, 3999999},
		{"y too large", 650000, 4800001},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := tr.Transform(c.x, c.y)
			var re *RangeError
			if !errors.As(err, &re) {
				t.Fatalf("Transform(%f, %f) err = %v, want *RangeError", c.x, c.y, err)
			}
		})
	}
}

func TestTransform_ConfigurableBounds(t *testing.T) {
	tr := NewTransformer(Bounds{MinX: 0, MaxX: 1e6, MinY: 0, MaxY: 5e6})
	if _, _, err := tr.Transform(450000, 4150000); err != nil {
		t.Fatalf("widened bounds rejected valid point: %v", err)
	}
}

func TestParseCoord(t *testing.T) {
	v, err := ParseCoord("X", " 650000.25 ")
	if err != nil {
		t.Fatalf("ParseCoord: %v", err)
	}
	if v != 650000.25 {
		t.Fatalf("ParseCoord = %f, want 650000.25", v)
	}

	_, err = ParseCoord("X", "seiscientos")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
}
