package tipos

import (
	"fmt"
)

// Contaminante representa una magnitud medida por la estación: uno de los seis
// contaminantes con tabla de índice o una de las dos magnitudes ambientales.
// Es una enumeración cerrada; el valor cero es Desconocido.
type Contaminante struct {
	valor string
}

func (c Contaminante) String() string {
	return c.valor
}

// GobEncode implementa gob.GobEncoder para serialización
func (c Contaminante) GobEncode() ([]byte, error) {
	return []byte(c.valor), nil
}

// GobDecode implementa gob.GobDecoder para deserialización
func (c *Contaminante) GobDecode(data []byte) error {
	if len(data) == 0 {
		*c = Desconocido
		return nil
	}
	return c.UnmarshalText(data)
}

// MarshalText implementa encoding.TextMarshaler (usado como clave de mapas JSON)
func (c Contaminante) MarshalText() ([]byte, error) {
	return []byte(c.valor), nil
}

// UnmarshalText implementa encoding.TextUnmarshaler
func (c *Contaminante) UnmarshalText(data []byte) error {
	parsed, err := ParsearContaminante(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalJSON implementa json.Marshaler para serialización JSON
func (c Contaminante) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.valor + `"`), nil
}

// UnmarshalJSON implementa json.Unmarshaler para deserialización JSON
func (c *Contaminante) UnmarshalJSON(data []byte) error {
	// Remover comillas del string JSON
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	return c.UnmarshalText(data)
}

// Valores posibles para Contaminante
var (
	Desconocido     = Contaminante{}
	CO              = Contaminante{"CO"}
	Benceno         = Contaminante{"C6H6"}
	NMHC            = Contaminante{"NMHC"}
	NO2             = Contaminante{"NO2"}
	NOx             = Contaminante{"NOx"}
	Ozono           = Contaminante{"O3"} // proxy del sensor PT08.S5
	Temperatura     = Contaminante{"T"}
	HumedadAbsoluta = Contaminante{"AH"}
)

// NumMagnitudes es la cantidad de magnitudes que lleva cada Registro
const NumMagnitudes = 8

// Contaminantes son las magnitudes con tabla de índice, en orden de presentación
var Contaminantes = []Contaminante{CO, Benceno, NMHC, NO2, NOx, Ozono}

// Magnitudes son todas las columnas numéricas de un registro
var Magnitudes = []Contaminante{CO, Benceno, NMHC, NO2, NOx, Ozono, Temperatura, HumedadAbsoluta}

// PuntoCorte es un segmento de la tabla de índice: el rango de concentración
// [CBajo, CAlto] se corresponde linealmente con el rango de índice [IBajo, IAlto].
type PuntoCorte struct {
	CBajo float64 `json:"c_bajo"`
	CAlto float64 `json:"c_alto"`
	IBajo int     `json:"i_bajo"`
	IAlto int     `json:"i_alto"`
}

type infoContaminante struct {
	indice  int
	nombre  string
	columna string
	unidad  string
	puntos  []PuntoCorte
}

// segmentos arma una tabla con los rangos de índice fijos (0-50 ... 301-500)
func segmentos(limites ...[2]float64) []PuntoCorte {
	indices := [][2]int{{0, 50}, {51, 100}, {101, 150}, {151, 200}, {201, 300}, {301, 500}}
	puntos := make([]PuntoCorte, len(limites))
	for i, l := range limites {
		puntos[i] = PuntoCorte{CBajo: l[0], CAlto: l[1], IBajo: indices[i][0], IAlto: indices[i][1]}
	}
	return puntos
}

// infoPorContaminante mapea cada variante con su columna de origen, unidad y tabla
var infoPorContaminante = map[Contaminante]infoContaminante{
	CO: {0, "Monóxido de carbono", "CO(GT)", "mg/m³", segmentos(
		[2]float64{0.0, 4.4}, [2]float64{4.5, 9.4}, [2]float64{9.5, 12.4},
		[2]float64{12.5, 15.4}, [2]float64{15.5, 30.4}, [2]float64{30.5, 50.4})},
	Benceno: {1, "Benceno", "C6H6(GT)", "µg/m³", segmentos(
		[2]float64{0.0, 5.0}, [2]float64{5.1, 10.0}, [2]float64{10.1, 15.0},
		[2]float64{15.1, 20.0}, [2]float64{20.1, 25.0}, [2]float64{25.1, 40.0})},
	NMHC: {2, "Hidrocarburos no metánicos", "NMHC(GT)", "µg/m³", segmentos(
		[2]float64{0, 100}, [2]float64{101, 200}, [2]float64{201, 300},
		[2]float64{301, 400}, [2]float64{401, 600}, [2]float64{601, 800})},
	NO2: {3, "Dióxido de nitrógeno", "NO2(GT)", "µg/m³", segmentos(
		[2]float64{0, 53}, [2]float64{54, 100}, [2]float64{101, 360},
		[2]float64{361, 649}, [2]float64{650, 1249}, [2]float64{1250, 2049})},
	NOx: {4, "Óxidos de nitrógeno", "NOx(GT)", "ppb", segmentos(
		[2]float64{0, 60}, [2]float64{61, 120}, [2]float64{121, 180},
		[2]float64{181, 240}, [2]float64{241, 300}, [2]float64{301, 500})},
	Ozono: {5, "Ozono (sensor PT08.S5)", "PT08.S5(O3)", "unidades", segmentos(
		[2]float64{0, 500}, [2]float64{501, 700}, [2]float64{701, 900},
		[2]float64{901, 1100}, [2]float64{1101, 1300}, [2]float64{1301, 1600})},
	Temperatura:     {6, "Temperatura", "T", "°C", nil},
	HumedadAbsoluta: {7, "Humedad absoluta", "AH", "g/m³", nil},
}

// ParsearContaminante obtiene la variante a partir de su identificador ("CO", "NOx")
// o de su columna de origen ("CO(GT)", "PT08.S5(O3)")
func ParsearContaminante(s string) (Contaminante, error) {
	for c, info := range infoPorContaminante {
		if c.valor == s || info.columna == s {
			return c, nil
		}
	}
	return Desconocido, fmt.Errorf("contaminante desconocido: '%s'", s)
}

// Indice retorna la posición de la magnitud en Registro.Valores, o -1 si es Desconocido
func (c Contaminante) Indice() int {
	if info, existe := infoPorContaminante[c]; existe {
		return info.indice
	}
	return -1
}

// Nombre retorna el nombre descriptivo
func (c Contaminante) Nombre() string {
	return infoPorContaminante[c].nombre
}

// Columna retorna el nombre de columna del archivo de origen
func (c Contaminante) Columna() string {
	return infoPorContaminante[c].columna
}

// Unidad retorna la unidad de medida
func (c Contaminante) Unidad() string {
	return infoPorContaminante[c].unidad
}

// PuntosCorte retorna una copia de la tabla de índice; nil para magnitudes ambientales
func (c Contaminante) PuntosCorte() []PuntoCorte {
	puntos := infoPorContaminante[c].puntos
	if puntos == nil {
		return nil
	}
	return append([]PuntoCorte(nil), puntos...)
}

// TieneTabla indica si la magnitud tiene tabla de índice
func (c Contaminante) TieneTabla() bool {
	return len(infoPorContaminante[c].puntos) > 0
}
