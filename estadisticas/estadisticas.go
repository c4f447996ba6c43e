// Package estadisticas calcula mínimo, máximo, media y mediana por magnitud sobre
// un subconjunto arbitrario de registros.
package estadisticas

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cbiale/calidadaire/tipos"
)

// Calcular retorna las estadísticas de cada magnitud pedida; sin magnitudes usa los
// seis contaminantes. Los valores faltantes se excluyen. Sin valores, todo vale 0.
func Calcular(registros []tipos.Registro, contaminantes []tipos.Contaminante) tipos.ResultadoEstadisticas {
	if len(contaminantes) == 0 {
		contaminantes = tipos.Contaminantes
	}

	resultado := make(tipos.ResultadoEstadisticas, len(contaminantes))
	for _, c := range contaminantes {
		resultado[c] = Describir(valoresDe(registros, c))
	}
	return resultado
}

// Describir calcula las estadísticas de una serie de valores ya filtrada
func Describir(valores []float64) tipos.Estadisticas {
	if len(valores) == 0 {
		return tipos.Estadisticas{}
	}
	return tipos.Estadisticas{
		Minimo:  floats.Min(valores),
		Maximo:  floats.Max(valores),
		Media:   stat.Mean(valores, nil),
		Mediana: Mediana(valores),
		Conteo:  len(valores),
	}
}

// Mediana ordena una copia de los valores: con cantidad impar retorna el central
// y con cantidad par la media de los dos centrales. Sin valores retorna 0.
func Mediana(valores []float64) float64 {
	n := len(valores)
	if n == 0 {
		return 0
	}
	ordenados := append([]float64(nil), valores...)
	sort.Float64s(ordenados)
	if n%2 == 1 {
		return ordenados[n/2]
	}
	return (ordenados[n/2-1] + ordenados[n/2]) / 2
}

// valoresDe extrae los valores presentes de la magnitud
func valoresDe(registros []tipos.Registro, c tipos.Contaminante) []float64 {
	valores := make([]float64, 0, len(registros))
	for _, r := range registros {
		if r.Presente(c) {
			valores = append(valores, r.Valor(c))
		}
	}
	return valores
}
