package catastro

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
)

// ErrNoEncontrada means no loaded municipality holds a parcel containing
// the point. Callers fall through to the bare point with "N/A" identity.
var ErrNoEncontrada = errors.New("catastro: ninguna parcela contiene el punto")

// Hallazgo identifies a parcel found for a query point.
type Hallazgo struct {
	Municipio string
	Masa      string
	Parcela   string
	Geom      orb.Geometry
}

// Resolver walks the municipal datasets looking for the parcel that
// contains a point.
type Resolver struct {
	loader *Loader
}

func NewResolver(loader *Loader) *Resolver {
	return &Resolver{loader: loader}
}

// FindContaining scans municipalities in registry order and returns the
// first parcel containing the point. Municipalities whose dataset cannot
// be loaded are skipped.
func (r *Resolver) FindContaining(ctx context.Context, x, y float64) (*Hallazgo, error) {
	pt := orb.Point{x, y}
	for _, m := range registro {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := r.loader.Load(ctx, m)
		if err != nil {
			continue
		}
		if p, ok := ds.Containing(pt); ok {
			return &Hallazgo{
				Municipio: m.Nombre,
				Masa:      p.Masa,
				Parcela:   p.Parcela,
				Geom:      p.Geom,
			}, nil
		}
	}
	return nil, ErrNoEncontrada
}

// Lookup returns the parcel selected by municipality, polygon and parcel
// number, the path used when the applicant knows the cadastral reference.
func (r *Resolver) Lookup(ctx context.Context, municipio, masa, parcela string) (*Hallazgo, error) {
	base, ok := BaseFor(municipio)
	if !ok {
		return nil, ErrNoEncontrada
	}
	ds, err := r.loader.Load(ctx, Municipio{Nombre: municipio, Base: base})
	if err != nil {
		return nil, err
	}
	p, ok := ds.Find(masa, parcela)
	if !ok {
		return nil, ErrNoEncontrada
	}
	return &Hallazgo{Municipio: municipio, Masa: masa, Parcela: parcela, Geom: p.Geom}, nil
}
