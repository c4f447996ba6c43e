// Package aqi convierte concentraciones en el índice de calidad del aire (0-500)
// por interpolación lineal sobre la tabla de segmentos de cada contaminante.
package aqi

import (
	"errors"
	"fmt"
	"math"

	"github.com/cbiale/calidadaire/tipos"
)

// ErrConcentracionInvalida se retorna para concentraciones negativas o no finitas.
// Los registros normalizados nunca las contienen; si aparecen es un error del llamador.
var ErrConcentracionInvalida = errors.New("concentración inválida")

// Indice interpola la concentración sobre la tabla.
// Se usa el primer segmento con c <= CAlto. Un valor que cae en el hueco de redondeo
// entre dos segmentos publicados (por ejemplo 4.45 para CO) se lleva al CBajo del
// segmento siguiente. Por encima de la tabla retorna IndiceMaximo.
func (t Tabla) Indice(c float64) (int, error) {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0, fmt.Errorf("%w: %s = %v", ErrConcentracionInvalida, t.Contaminante, c)
	}

	for _, s := range t.Segmentos {
		if c > s.CAlto {
			continue
		}
		if c < s.CBajo {
			c = s.CBajo
		}
		pendiente := float64(s.IAlto-s.IBajo) / (s.CAlto - s.CBajo)
		return redondear(pendiente*(c-s.CBajo) + float64(s.IBajo)), nil
	}
	return IndiceMaximo, nil
}

// CalcularAQI retorna el índice de un contaminante para una concentración
func CalcularAQI(c tipos.Contaminante, concentracion float64) (int, error) {
	tabla, err := TablaPara(c)
	if err != nil {
		return 0, err
	}
	return tabla.Indice(concentracion)
}

// AQIPromedio es la media aritmética sin ponderar de los índices, redondeada; 0 si no hay índices
func AQIPromedio(indices []int) int {
	if len(indices) == 0 {
		return 0
	}
	suma := 0
	for _, i := range indices {
		suma += i
	}
	return redondear(float64(suma) / float64(len(indices)))
}

// redondear usa redondeo al par: 58.5 -> 58, 59.5 -> 60
func redondear(v float64) int {
	return int(math.RoundToEven(v))
}

// ResultadoAQI es el índice de un subconjunto de registros
type ResultadoAQI struct {
	Indices         map[tipos.Contaminante]int     `json:"indices"`
	Concentraciones map[tipos.Contaminante]float64 `json:"concentraciones"` // media usada para interpolar
	Promedio        int                            `json:"promedio"`
	Categoria       Categoria                      `json:"categoria"`
}

// CalcularDesdeRegistros calcula el índice de cada contaminante a partir de su
// concentración media en los registros (valores faltantes excluidos; sin valores la media es 0)
// y el índice promedio de la selección. Sin contaminantes usa los seis con tabla.
func CalcularDesdeRegistros(registros []tipos.Registro, contaminantes []tipos.Contaminante) (ResultadoAQI, error) {
	if len(contaminantes) == 0 {
		contaminantes = tipos.Contaminantes
	}

	resultado := ResultadoAQI{
		Indices:         make(map[tipos.Contaminante]int, len(contaminantes)),
		Concentraciones: make(map[tipos.Contaminante]float64, len(contaminantes)),
	}
	indices := make([]int, 0, len(contaminantes))

	for _, c := range contaminantes {
		tabla, err := TablaPara(c)
		if err != nil {
			return ResultadoAQI{}, err
		}

		suma, n := 0.0, 0
		for _, r := range registros {
			if r.Presente(c) {
				suma += r.Valor(c)
				n++
			}
		}
		media := 0.0
		if n > 0 {
			media = suma / float64(n)
		}

		indice, err := tabla.Indice(media)
		if err != nil {
			return ResultadoAQI{}, err
		}
		resultado.Concentraciones[c] = media
		resultado.Indices[c] = indice
		indices = append(indices, indice)
	}

	resultado.Promedio = AQIPromedio(indices)
	resultado.Categoria = Categorizar(resultado.Promedio)
	return resultado, nil
}
