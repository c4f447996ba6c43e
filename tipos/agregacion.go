package tipos

import (
	"encoding/json"
)

// Bucket es el resumen de un grupo de registros bajo una granularidad temporal.
// El conteo es por bucket y no por magnitud: todas las magnitudes comparten las mismas filas.
type Bucket struct {
	Clave  string
	Conteo int
	Sumas  map[Contaminante]float64
}

// NuevoBucket crea un bucket vacío con suma 0 para cada magnitud pedida
func NuevoBucket(clave string, contaminantes []Contaminante) Bucket {
	sumas := make(map[Contaminante]float64, len(contaminantes))
	for _, c := range contaminantes {
		sumas[c] = 0
	}
	return Bucket{Clave: clave, Sumas: sumas}
}

// Promedio retorna la media de la magnitud en el bucket; 0 si el bucket está vacío
func (b Bucket) Promedio(c Contaminante) float64 {
	if b.Conteo == 0 {
		return 0
	}
	return b.Sumas[c] / float64(b.Conteo)
}

// Promedios retorna la media de cada magnitud sumada en el bucket
func (b Bucket) Promedios() map[Contaminante]float64 {
	promedios := make(map[Contaminante]float64, len(b.Sumas))
	for c := range b.Sumas {
		promedios[c] = b.Promedio(c)
	}
	return promedios
}

type bucketJSON struct {
	Clave     string                   `json:"clave"`
	Conteo    int                      `json:"conteo"`
	Sumas     map[Contaminante]float64 `json:"sumas"`
	Promedios map[Contaminante]float64 `json:"promedios,omitempty"`
}

// MarshalJSON incluye los promedios listos para graficar
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(bucketJSON{
		Clave:     b.Clave,
		Conteo:    b.Conteo,
		Sumas:     b.Sumas,
		Promedios: b.Promedios(),
	})
}

// UnmarshalJSON descarta los promedios, que se recalculan desde las sumas
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var aux bucketJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = Bucket{Clave: aux.Clave, Conteo: aux.Conteo, Sumas: aux.Sumas}
	return nil
}

// Estadisticas son los descriptivos de una magnitud sobre un subconjunto de registros.
// Con Conteo 0 todos los campos valen 0.
type Estadisticas struct {
	Minimo  float64 `json:"minimo"`
	Maximo  float64 `json:"maximo"`
	Media   float64 `json:"media"`
	Mediana float64 `json:"mediana"`
	Conteo  int     `json:"conteo"`
}

// ResultadoEstadisticas agrupa las estadísticas por magnitud
type ResultadoEstadisticas map[Contaminante]Estadisticas

// Seleccion es el resultado de extraer un rango temporal de registros
type Seleccion struct {
	Registros []Registro     `json:"rows"`
	Columnas  []Contaminante `json:"columns"` // magnitudes activas en el rango
}
