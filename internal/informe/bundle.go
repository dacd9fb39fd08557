// Package informe compone el informe preliminar de afecciones forestales
// a partir de los resultados por capa.
package informe

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/iberiaforestal/afecciones-carm/internal/afeccion"
	"github.com/iberiaforestal/afecciones-carm/internal/capas"
)

const Titulo = "Informe preliminar de Afecciones Forestales"

// Solicitante carries the applicant data echoed into the report header.
type Solicitante struct {
	Nombre    string `json:"nombre,omitempty"`
	Apellidos string `json:"apellidos,omitempty"`
	DNI       string `json:"dni,omitempty"`
	Direccion string `json:"direccion,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Email     string `json:"email,omitempty"`
	Objeto    string `json:"objeto,omitempty"`
}

// Localizacion identifies the queried spot.
type Localizacion struct {
	Municipio string  `json:"municipio"`
	Poligono  string  `json:"poligono"`
	Parcela   string  `json:"parcela"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
}

// Linea is one entry of the "Otras afecciones" plain-text section.
type Linea struct {
	Titulo string `json:"titulo"`
	Texto  string `json:"texto"`
}

// Tabla is one detail table of an affected layer.
type Tabla struct {
	CapaID   string     `json:"capa"`
	Titulo   string     `json:"titulo"`
	Columnas []string   `json:"columnas"`
	Filas    [][]string `json:"filas"`
}

// Informe is the assembled report.
type Informe struct {
	Titulo       string            `json:"titulo"`
	Fecha        string            `json:"fecha"`
	Solicitante  Solicitante       `json:"solicitante"`
	Localizacion Localizacion      `json:"localizacion"`
	Otras        []Linea           `json:"otras_afecciones"`
	Tablas       []Tabla           `json:"afecciones_detectadas"`
	Geometria    *geojson.Geometry `json:"geometria,omitempty"`
}

// Build assembles the report. Layers with detail rows become tables and
// everything else a text line, following the fixed presentation order.
func Build(now time.Time, sol Solicitante, loc Localizacion, geom orb.Geometry,
	catalogo []capas.Capa, resultados []afeccion.Resultado) *Informe {

	inf := &Informe{
		Titulo:       Titulo,
		Fecha:        now.Format("02/01/2006"),
		Solicitante:  sol,
		Localizacion: loc,
	}
	if geom != nil {
		inf.Geometria = geojson.NewGeometry(geom)
	}

	byID := make(map[string]afeccion.Resultado, len(resultados))
	for _, r := range resultados {
		byID[r.CapaID] = r
	}

	for _, id := range capas.OrdenOtras {
		capa, ok := capas.Por(catalogo, id)
		if !ok {
			continue
		}
		res, ok := byID[id]
		if !ok {
			continue
		}
		if len(res.Filas) > 0 {
			cols := make([]string, 0, len(capa.Detalle))
			for _, c := range capa.Detalle {
				cols = append(cols, c.Etiqueta)
			}
			filas := make([][]string, 0, len(res.Filas))
			for _, f := range res.Filas {
				filas = append(filas, []string(f))
			}
			inf.Tablas = append(inf.Tablas, Tabla{
				CapaID:   id,
				Titulo:   capa.TituloTabla,
				Columnas: cols,
				Filas:    filas,
			})
			continue
		}
		texto := res.Texto
		if texto == "" {
			texto = capa.NoAfecta
		}
		inf.Otras = append(inf.Otras, Linea{Titulo: capa.TituloOtras, Texto: texto})
	}
	return inf
}
