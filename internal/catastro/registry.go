// Package catastro carga los parcelarios municipales y resuelve parcelas
// catastrales a partir de coordenadas ETRS89 UTM 30.
package catastro

// Municipio asocia el nombre oficial con el nombre base de sus archivos.
type Municipio struct {
	Nombre string
	Base   string
}

// registro lista los municipios de la Región de Murcia en el orden en que
// se recorren al buscar la parcela que contiene un punto.
var registro = []Municipio{
	{"ABANILLA", "ABANILLA"},
	{"ABARAN", "ABARAN"},
	{"AGUILAS", "AGUILAS"},
	{"ALBUDEITE", "ALBUDEITE"},
	{"ALCANTARILLA", "ALCANTARILLA"},
	{"ALEDO", "ALEDO"},
	{"ALGUAZAS", "ALGUAZAS"},
	{"ALHAMA DE MURCIA", "ALHAMA_DE_MURCIA"},
	{"ARCHENA", "ARCHENA"},
	{"BENIEL", "BENIEL"},
	{"BLANCA", "BLANCA"},
	{"BULLAS", "BULLAS"},
	{"CALASPARRA", "CALASPARRA"},
	{"CAMPOS DEL RIO", "CAMPOS_DEL_RIO"},
	{"CARAVACA DE LA CRUZ", "CARAVACA_DE_LA_CRUZ"},
	{"CARTAGENA", "CARTAGENA"},
	{"CEHEGIN", "CEHEGIN"},
	{"CEUTI", "CEUTI"},
	{"CIEZA", "CIEZA"},
	{"FORTUNA", "FORTUNA"},
	{"FUENTE ALAMO DE MURCIA", "FUENTE_ALAMO_DE_MURCIA"},
	{"JUMILLA", "JUMILLA"},
	{"LAS TORRES DE COTILLAS", "LAS_TORRES_DE_COTILLAS"},
	{"LA UNION", "LA_UNION"},
	{"LIBRILLA", "LIBRILLA"},
	{"LORCA", "LORCA"},
	{"LORQUI", "LORQUI"},
	{"LOS ALCAZARES", "LOS_ALCAZARES"},
	{"MAZARRON", "MAZARRON"},
	{"MOLINA DE SEGURA", "MOLINA_DE_SEGURA"},
	{"MORATALLA", "MORATALLA"},
	{"MULA", "MULA"},
	{"MURCIA", "MURCIA"},
	{"OJOS", "OJOS"},
	{"PLIEGO", "PLIEGO"},
	{"PUERTO LUMBRERAS", "PUERTO_LUMBRERAS"},
	{"RICOTE", "RICOTE"},
	{"SANTOMERA", "SANTOMERA"},
	{"SAN JAVIER", "SAN_JAVIER"},
	{"SAN PEDRO DEL PINATAR", "SAN_PEDRO_DEL_PINATAR"},
	{"TORRE PACHECO", "TORRE_PACHECO"},
	{"TOTANA", "TOTANA"},
	{"ULEA", "ULEA"},
	{"VILLANUEVA DEL RIO SEGURA", "VILLANUEVA_DEL_RIO_SEGURA"},
	{"YECLA", "YECLA"},
}

// Municipios returns the municipalities in search order.
func Municipios() []Municipio {
	out := make([]Municipio, len(registro))
	copy(out, registro)
	return out
}

// BaseFor returns the file base name for a municipality.
func BaseFor(nombre string) (string, bool) {
	for _, m := range registro {
		if m.Nombre == nombre {
			return m.Base, true
		}
	}
	return "", false
}
