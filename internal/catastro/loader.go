package catastro

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iberiaforestal/afecciones-carm/internal/geo"
)

// exts are the companion files a shapefile needs to be readable.
var exts = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// DownloadError reports a companion file that could not be retrieved.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("catastro: descargar %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ParseError reports a downloaded shapefile that could not be read.
type ParseError struct {
	Municipio string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catastro: parcelario %s: %v", e.Municipio, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type LoaderOption func(*Loader)

func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithPrefilter builds a spatial index per dataset so point lookups skip
// parcels that cannot contain the point.
func WithPrefilter(tr *geo.Transformer, res int) LoaderOption {
	return func(l *Loader) {
		l.transformer = tr
		l.h3res = res
	}
}

// Loader downloads municipal cadastral shapefiles and parses them once.
// Results, including failures, are memoized for the lifetime of the Loader.
type Loader struct {
	client      *http.Client
	baseURL     string
	log         *zerolog.Logger
	transformer *geo.Transformer
	h3res       int

	mu      sync.Mutex
	entries map[string]*loadEntry
}

type loadEntry struct {
	once sync.Once
	ds   *Dataset
	err  error
}

func NewLoader(baseURL string, log *zerolog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		client:  &http.Client{Timeout: 100 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		log:     log,
		h3res:   -1,
		entries: make(map[string]*loadEntry),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the parsed dataset for a municipality. A failed download or
// parse is cached so the municipality is not retried within this process.
func (l *Loader) Load(ctx context.Context, m Municipio) (*Dataset, error) {
	l.mu.Lock()
	e, ok := l.entries[m.Base]
	if !ok {
		e = &loadEntry{}
		l.entries[m.Base] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		start := time.Now()
		e.ds, e.err = l.fetch(ctx, m)
		if e.err != nil {
			l.log.Warn().Str("municipio", m.Nombre).Err(e.err).
				Msg("parcelario no disponible")
			return
		}
		l.log.Debug().Str("municipio", m.Nombre).
			Int("parcelas", len(e.ds.Parcelas)).
			Dur("duration", time.Since(start)).
			Msg("parcelario cargado")
	})
	return e.ds, e.err
}

func (l *Loader) fetch(ctx context.Context, m Municipio) (*Dataset, error) {
	tmpdir, err := os.MkdirTemp("", "catastro-"+m.Base+"-")
	if err != nil {
		return nil, fmt.Errorf("catastro: tempdir: %w", err)
	}
	defer os.RemoveAll(tmpdir)

	for _, ext := range exts {
		url := l.baseURL + m.Base + ext
		if err := l.download(ctx, url, filepath.Join(tmpdir, m.Base+ext)); err != nil {
			return nil, err
		}
	}

	ds, err := parseShapefile(filepath.Join(tmpdir, m.Base+".shp"), m.Nombre)
	if err != nil {
		return nil, &ParseError{Municipio: m.Nombre, Err: err}
	}
	if l.h3res >= 0 && l.transformer != nil {
		if idx, err := buildH3Index(ds, l.transformer, l.h3res); err == nil {
			ds.idx = idx
		} else {
			l.log.Warn().Str("municipio", m.Nombre).Err(err).
				Msg("índice espacial no disponible, búsqueda lineal")
		}
	}
	return ds, nil
}

func (l *Loader) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &DownloadError{URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	f, err := os.Create(dest)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return &DownloadError{URL: url, Err: err}
	}
	return f.Close()
}
