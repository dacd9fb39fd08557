// Package capas declares the fixed catalog of environmental and
// administrative WFS layers ("capas de afección") queried per request.
package capas

import (
	"net/url"
	"strings"
)

// Campo maps a feature property to its presentation label.
type Campo struct {
	Fuente   string
	Etiqueta string
}

// Capa describes one catalog layer: where to fetch it and which
// property fields to project into results.
//
// A layer is either simple (CampoNombre identifies matched features)
// or structured (Campos drives a labeled per-feature block, the MUP
// path). Detalle, when present, declares the columns of the detail
// table emitted for matched features.
type Capa struct {
	ID       string
	Nombre   string // short name used inside status phrases
	Servicio string // geoserver workspace
	TypeName string // qualified WFS typeName

	CampoNombre string
	Campos      []Campo // structured mode; nil for simple layers
	Detalle     []Campo // detail table columns; nil = text only

	// NoAfecta is the canonical phrase reported when the layer does not
	// intersect, or when its service could not be consulted at all.
	NoAfecta string

	TituloOtras string // label in the plain-text section
	TituloTabla string // heading of the detail table
	URLOverride string // non-empty replaces the built WFS URL
}

// URL builds the GetFeature request against the geoserver base,
// honoring a configured override.
func (c Capa) URL(base string) string {
	if c.URLOverride != "" {
		return c.URLOverride
	}
	params := url.Values{}
	params.Set("service", "WFS")
	params.Set("version", "1.1.0")
	params.Set("request", "GetFeature")
	params.Set("typeName", c.TypeName)
	params.Set("outputFormat", "application/json")
	return strings.TrimRight(base, "/") + "/" + c.Servicio + "/wfs?" + params.Encode()
}

// Catalogo returns the fixed layer catalog in query order. The slice
// is freshly allocated; callers may annotate their copy.
func Catalogo() []Capa {
	return []Capa{
		{
			ID: "flora", Nombre: "FLORA",
			Servicio: "SIG_ZOR_PLANIGEST_CARM", TypeName: "SIG_ZOR_PLANIGEST_CARM:planes_recuperacion_flora2014",
			CampoNombre: "tipo",
			Detalle:     []Campo{{"tipo", "Área"}, {"nombre", "Nombre"}},
			NoAfecta:    "No afecta al Plan de Recuperación de flora",
			TituloOtras: "Afección a flora",
			TituloTabla: "Afección a Plan de Recuperación flora",
		},
		{
			ID: "garbancillo", Nombre: "GARBANCILLO",
			Servicio: "SIG_ZOR_PLANIGEST_CARM", TypeName: "SIG_ZOR_PLANIGEST_CARM:plan_recuperacion_garbancillo",
			CampoNombre: "tipo",
			Detalle:     []Campo{{"tipo", "Área"}, {"nombre", "Nombre"}},
			NoAfecta:    "No afecta al Plan de Recuperación del garbancillo",
			TituloOtras: "Afección a garbancillo",
			TituloTabla: "Afección a Plan de Recuperación garbancillo",
		},
		{
			ID: "malvasia", Nombre: "MALVASIA",
			Servicio: "SIG_ZOR_PLANIGEST_CARM", TypeName: "SIG_ZOR_PLANIGEST_CARM:plan_recuperacion_malvasia",
			CampoNombre: "clasificac",
			Detalle:     []Campo{{"clasificac", "Área"}, {"nombre", "Nombre"}},
			NoAfecta:    "No afecta al Plan de Recuperación de la malvasia",
			TituloOtras: "Afección a malvasia",
			TituloTabla: "Afección a Plan de Recuperación malvasia",
		},
		{
			ID: "fartet", Nombre: "FARTET",
			Servicio: "SIG_ZOR_PLANIGEST_CARM", TypeName: "SIG_ZOR_PLANIGEST_CARM:plan_recuperacion_fartet",
			CampoNombre: "clasificac",
			Detalle:     []Campo{{"clasificac", "Área"}, {"nombre", "Nombre"}},
			NoAfecta:    "No afecta al Plan de Recuperación del fartet",
			TituloOtras: "Afección a fartet",
			TituloTabla: "Afección a Plan de Recuperación fartet",
		},
		{
			ID: "nutria", Nombre: "NUTRIA",
			Servicio: "SIG_ZOR_PLANIGEST_CARM", TypeName: "SIG_ZOR_PLANIGEST_CARM:plan_recuperacion_nutria",
			CampoNombre: "tipo_de_ar",
			Detalle:     []Campo{{"tipo_de_ar", "Área"}, {"nombre", "Nombre"}},
			NoAfecta:    "No afecta al Plan de Recuperación de la nutria",
			TituloOtras: "Afección a nutria",
			TituloTabla: "Afección a Plan de Recuperación nutria",
		},
		{
			ID: "perdicera", Nombre: "ÁGUILA PERDICERA",
			Servicio: "SIG_ZOR_PLANIGEST_CARM", TypeName: "SIG_ZOR_PLANIGEST_CARM:plan_recuperacion_perdicera",
			CampoNombre: "zona",
			Detalle:     []Campo{{"zona", "Zona"}, {"nombre", "Nombre"}},
			NoAfecta:    "No afecta al Plan de Recuperación del águila perdicera",
			TituloOtras: "Afección a águila perdicera",
			TituloTabla: "Afección a Plan de Recuperación águila perdicera",
		},
		{
			ID: "tortuga", Nombre: "TORTUGA MORA",
			Servicio: "SIG_DES_BIOTA_CARM", TypeName: "SIG_DES_BIOTA_CARM:tortuga_distribucion_2001",
			CampoNombre: "cat_desc",
			Detalle:     []Campo{{"cat_id", "Cat_id"}, {"cat_desc", "Clasificación"}},
			NoAfecta:    "No afecta al Plan de Recuperación de la tortuga mora",
			TituloOtras: "Afección a tortuga mora",
			TituloTabla: "Afección a Plan de Recuperación tortuga mora",
		},
		{
			ID: "uso_suelo", Nombre: "PLANEAMIENTO",
			Servicio: "SIT_USU_PLA_URB_CARM", TypeName: "SIT_USU_PLA_URB_CARM:plu_ze_37_mun_uso_suelo",
			CampoNombre: "Clasificacion",
			Detalle:     []Campo{{"Uso_Especifico", "Uso"}, {"Clasificacion", "Clasificación"}},
			NoAfecta:    "No afecta a ningún uso del suelo protegido",
			TituloOtras: "Afección Uso del Suelo",
			TituloTabla: "Afección a Planeamiento Urbano (PGOU)",
		},
		{
			ID: "esteparias", Nombre: "ESTEPARIAS",
			Servicio: "SIG_DES_BIOTA_CARM", TypeName: "SIG_DES_BIOTA_CARM:esteparias_ceea_2019_10x10",
			CampoNombre: "nombre",
			Detalle:     []Campo{{"cuad_10km", "Cuadrícula"}, {"especie", "Especie"}, {"nombre", "Nombre común"}},
			NoAfecta:    "No afecta a zona de distribución de aves esteparias",
			TituloOtras: "Afección Esteparias",
			TituloTabla: "Afecciones a zonas de distribución de aves esteparias",
		},
		{
			ID: "enp", Nombre: "ENP",
			Servicio: "SIG_LUP_SITES_CARM", TypeName: "SIG_LUP_SITES_CARM:ENP",
			CampoNombre: "nombre",
			Detalle:     []Campo{{"nombre", "Nombre"}, {"figura", "Figura"}},
			NoAfecta:    "No afecta a ningún Espacio Natural Protegido",
			TituloOtras: "Afección ENP",
			TituloTabla: "Afecciones a Espacios Naturales Protegidos (ENP)",
		},
		{
			ID: "zepa", Nombre: "ZEPA",
			Servicio: "SIG_LUP_SITES_CARM", TypeName: "SIG_LUP_SITES_CARM:ZEPA",
			CampoNombre: "site_name",
			Detalle:     []Campo{{"site_code", "Código"}, {"site_name", "Nombre"}},
			NoAfecta:    "No afecta a ninguna Zona de especial protección para las aves",
			TituloOtras: "Afección ZEPA",
			TituloTabla: "Afecciones a Zonas de Especial Protección para las Aves (ZEPA)",
		},
		{
			ID: "lic", Nombre: "LIC",
			Servicio: "SIG_LUP_SITES_CARM", TypeName: "SIG_LUP_SITES_CARM:LIC-ZEC",
			CampoNombre: "site_name",
			Detalle:     []Campo{{"site_code", "Código"}, {"site_name", "Nombre"}},
			NoAfecta:    "No afecta a ningún Lugar de Interés Comunitario",
			TituloOtras: "Afección LIC",
			TituloTabla: "Afecciones a Lugares de Importancia Comunitaria (LIC)",
		},
		{
			ID: "vp", Nombre: "VP",
			Servicio: "PFO_ZOR_DMVP_CARM", TypeName: "PFO_ZOR_DMVP_CARM:VP_CARM",
			CampoNombre: "vp_nb",
			Detalle: []Campo{
				{"vp_cod", "Código"}, {"vp_nb", "Nombre"}, {"vp_mun", "Municipio"},
				{"vp_sit_leg", "Situación Legal"}, {"vp_anch_lg", "Ancho Legal"},
			},
			NoAfecta:    "No afecta a ninguna Vía Pecuaria",
			TituloOtras: "Afección VP",
			TituloTabla: "Afecciones a Vías Pecuarias (VP)",
		},
		{
			ID: "tm", Nombre: "TM",
			Servicio: "MAP_UAD_DIVISION-ADMINISTRATIVA_CARM", TypeName: "MAP_UAD_DIVISION-ADMINISTRATIVA_CARM:recintos_municipales_inspire_carm_etrs89",
			CampoNombre: "nameunit",
			NoAfecta:    "No afecta a TM",
			TituloOtras: "Afección TM",
		},
		{
			ID: "mup", Nombre: "MUP",
			Servicio: "PFO_ZOR_DMVP_CARM", TypeName: "PFO_ZOR_DMVP_CARM:MONTES",
			Campos: []Campo{
				{"id_monte", "ID"}, {"nombremont", "Nombre"},
				{"municipio", "Municipio"}, {"propiedad", "Propiedad"},
			},
			Detalle: []Campo{
				{"id_monte", "ID"}, {"nombremont", "Nombre"},
				{"municipio", "Municipio"}, {"propiedad", "Propiedad"},
			},
			NoAfecta:    "No afecta a ningún MUP",
			TituloOtras: "Afección MUP",
			TituloTabla: "Afecciones a Montes (MUP)",
		},
	}
}

// OrdenOtras is the presentation order of the plain-text section.
var OrdenOtras = []string{
	"tm", "flora", "garbancillo", "malvasia", "fartet", "nutria",
	"perdicera", "tortuga", "uso_suelo", "esteparias", "enp", "lic",
	"zepa", "vp", "mup",
}

// ApplyOverrides sets per-layer URL overrides keyed by layer ID.
func ApplyOverrides(catalogo []Capa, overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	for i := range catalogo {
		if u, ok := overrides[catalogo[i].ID]; ok {
			catalogo[i].URLOverride = u
		}
	}
}

// Por busca una capa por ID.
func Por(catalogo []Capa, id string) (Capa, bool) {
	for _, c := range catalogo {
		if c.ID == id {
			return c, true
		}
	}
	return Capa{}, false
}
