package catastro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/geo"
)

type testParcel struct {
	masa, parcela  string
	x0, y0, x1, y1 float64
}

// writeShapefile writes base.shp/.shx/.dbf plus stub .prj/.cpg files.
// Outer rings are written clockwise as the cadastral files have them.
func writeShapefile(t *testing.T, dir, base string, parcels []testParcel) {
	t.Helper()
	w, err := shp.Create(filepath.Join(dir, base+".shp"), shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	w.SetFields([]shp.Field{
		shp.StringField("MASA", 10),
		shp.StringField("PARCELA", 10),
	})
	for n, p := range parcels {
		ring := []shp.Point{
			{X: p.x0, Y: p.y0},
			{X: p.x0, Y: p.y1},
			{X: p.x1, Y: p.y1},
			{X: p.x1, Y: p.y0},
			{X: p.x0, Y: p.y0},
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		w.Write(&poly)
		w.WriteAttribute(n, 0, p.masa)
		w.WriteAttribute(n, 1, p.parcela)
	}
	w.Close()
	// go-shp names the attribute file without the dot; move it to where
	// the loader looks for it.
	if _, err := os.Stat(filepath.Join(dir, base+"dbf")); err == nil {
		if err := os.Rename(filepath.Join(dir, base+"dbf"), filepath.Join(dir, base+".dbf")); err != nil {
			t.Fatalf("rename dbf: %v", err)
		}
	}
	for _, ext := range []string{".prj", ".cpg"} {
		if err := os.WriteFile(filepath.Join(dir, base+ext), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", ext, err)
		}
	}
}

var abanillaParcels = []testParcel{
	{"5", "12", 650000, 4150000, 650100, 4150100},
	{"5", "13", 650100, 4150000, 650200, 4150100},
	{"7", "1", 651000, 4151000, 651100, 4151100},
}

// serveCatastro serves shapefile fixtures for ABANILLA only and counts
// requests. Every other municipality 404s.
func serveCatastro(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	writeShapefile(t, dir, "ABANILLA", abanillaParcels)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		http.ServeFile(w, r, filepath.Join(dir, filepath.Base(r.URL.Path)))
	}))
}

func newTestLoader(t *testing.T, url string, opts ...LoaderOption) *Loader {
	t.Helper()
	log := zerolog.Nop()
	return NewLoader(url, &log, opts...)
}

func TestLoader_LoadAndMemoize(t *testing.T) {
	var calls atomic.Int64
	srv := serveCatastro(t, &calls)
	defer srv.Close()

	l := newTestLoader(t, srv.URL)
	m := Municipio{Nombre: "ABANILLA", Base: "ABANILLA"}

	ds, err := l.Load(context.Background(), m)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Parcelas) != 3 {
		t.Fatalf("parcelas = %d, want 3", len(ds.Parcelas))
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("requests = %d, want 5 companion files", got)
	}

	if _, err := l.Load(context.Background(), m); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("requests after memoized load = %d, want 5", got)
	}
}

func TestLoader_FailureIsMemoized(t *testing.T) {
	var calls atomic.Int64
	srv := serveCatastro(t, &calls)
	defer srv.Close()

	l := newTestLoader(t, srv.URL)
	m := Municipio{Nombre: "YECLA", Base: "YECLA"}

	if _, err := l.Load(context.Background(), m); err == nil {
		t.Fatal("expected error for missing municipality")
	}
	first := calls.Load()
	var de *DownloadError
	if _, err := l.Load(context.Background(), m); !errors.As(err, &de) {
		t.Fatalf("memoized err = %v, want *DownloadError", err)
	}
	if calls.Load() != first {
		t.Fatal("failed load was retried")
	}
}

func TestDataset_Queries(t *testing.T) {
	srv := serveCatastro(t, nil)
	defer srv.Close()

	l := newTestLoader(t, srv.URL)
	ds, err := l.Load(context.Background(), Municipio{Nombre: "ABANILLA", Base: "ABANILLA"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := ds.Masas(); len(got) != 2 || got[0] != "5" || got[1] != "7" {
		t.Fatalf("Masas() = %v, want [5 7]", got)
	}
	if got := ds.ParcelasDe("5"); len(got) != 2 || got[0] != "12" || got[1] != "13" {
		t.Fatalf("ParcelasDe(5) = %v, want [12 13]", got)
	}
	p, ok := ds.Find("7", "1")
	if !ok {
		t.Fatal("Find(7, 1) not found")
	}
	c := p.Centroid()
	if c[0] < 651000 || c[0] > 651100 || c[1] < 4151000 || c[1] > 4151100 {
		t.Fatalf("centroid %v outside parcel", c)
	}

	if p, ok := ds.Containing(orb.Point{650050, 4150050}); !ok || p.Parcela != "12" {
		t.Fatalf("Containing inside first parcel: ok=%v p=%+v", ok, p)
	}
	if _, ok := ds.Containing(orb.Point{600000, 4100000}); ok {
		t.Fatal("Containing matched a point outside every parcel")
	}
}

func TestResolver_FindContaining(t *testing.T) {
	srv := serveCatastro(t, nil)
	defer srv.Close()

	r := NewResolver(newTestLoader(t, srv.URL))

	h, err := r.FindContaining(context.Background(), 650150, 4150050)
	if err != nil {
		t.Fatalf("FindContaining: %v", err)
	}
	if h.Municipio != "ABANILLA" || h.Masa != "5" || h.Parcela != "13" {
		t.Fatalf("hallazgo = %+v, want ABANILLA 5/13", h)
	}

	if _, err := r.FindContaining(context.Background(), 700000, 4300000); !errors.Is(err, ErrNoEncontrada) {
		t.Fatalf("err = %v, want ErrNoEncontrada", err)
	}
}

func TestResolver_Lookup(t *testing.T) {
	srv := serveCatastro(t, nil)
	defer srv.Close()

	r := NewResolver(newTestLoader(t, srv.URL))

	h, err := r.Lookup(context.Background(), "ABANILLA", "5", "12")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if h.Geom == nil {
		t.Fatal("lookup returned nil geometry")
	}
	if _, err := r.Lookup(context.Background(), "ABANILLA", "9", "9"); !errors.Is(err, ErrNoEncontrada) {
		t.Fatalf("unknown parcel err = %v, want ErrNoEncontrada", err)
	}
	if _, err := r.Lookup(context.Background(), "NARNIA", "1", "1"); !errors.Is(err, ErrNoEncontrada) {
		t.Fatalf("unknown municipality err = %v, want ErrNoEncontrada", err)
	}
}

func TestPrefilter_MatchesLinearScan(t *testing.T) {
	srv := serveCatastro(t, nil)
	defer srv.Close()

	plain := newTestLoader(t, srv.URL)
	indexed := newTestLoader(t, srv.URL, WithPrefilter(geo.NewTransformer(geo.Bounds{}), 5))
	m := Municipio{Nombre: "ABANILLA", Base: "ABANILLA"}

	dsPlain, err := plain.Load(context.Background(), m)
	if err != nil {
		t.Fatalf("Load plain: %v", err)
	}
	dsIdx, err := indexed.Load(context.Background(), m)
	if err != nil {
		t.Fatalf("Load indexed: %v", err)
	}
	if dsIdx.idx == nil {
		t.Fatal("index was not built")
	}

	points := []orb.Point{
		{650050, 4150050},
		{650150, 4150050},
		{651050, 4151050},
		{600000, 4100000},
		{650200, 4150100}, // shared corner
	}
	for _, pt := range points {
		a, aok := dsPlain.Containing(pt)
		b, bok := dsIdx.Containing(pt)
		if aok != bok {
			t.Fatalf("point %v: linear ok=%v indexed ok=%v", pt, aok, bok)
		}
		if aok && (a.Masa != b.Masa || a.Parcela != b.Parcela) {
			t.Fatalf("point %v: linear %s/%s indexed %s/%s", pt, a.Masa, a.Parcela, b.Masa, b.Parcela)
		}
	}
}

func TestTrimDBF_Padding(t *testing.T) {
	cases := []struct{ in, want string }{
		{"5          ", "5"},
		{"5\x00\x00\x00\x00", "5"},
		{" 12 ", "12"},
		{"12", "12"},
	}
	for _, c := range cases {
		if got := trimDBF(c.in); got != c.want {
			t.Fatalf("trimDBF(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMunicipios_RegistryShape(t *testing.T) {
	ms := Municipios()
	if len(ms) != 45 {
		t.Fatalf("municipios = %d, want 45", len(ms))
	}
	if ms[0].Nombre != "ABANILLA" || ms[len(ms)-1].Nombre != "YECLA" {
		t.Fatalf("registry order changed: first=%s last=%s", ms[0].Nombre, ms[len(ms)-1].Nombre)
	}
	base, ok := BaseFor("ALHAMA DE MURCIA")
	if !ok || base != "ALHAMA_DE_MURCIA" {
		t.Fatalf("BaseFor = %q, %v", base, ok)
	}
}
