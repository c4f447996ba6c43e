// Package filtro implementa el filtro en cascada año / mes / día y las opciones
// disponibles en cada nivel según los datos cargados.
package filtro

import (
	"sort"
	"strconv"

	"github.com/cbiale/calidadaire/agregador"
	"github.com/cbiale/calidadaire/tipos"
	"github.com/cbiale/calidadaire/validacion"
)

// Filtro selecciona registros por campos de calendario. Un campo vacío no filtra.
type Filtro struct {
	Anio string `json:"anio,omitempty" validate:"required_with=Mes,omitempty,len=4,numeric"`
	Mes  string `json:"mes,omitempty" validate:"required_with=Dia,omitempty,len=2,numeric"`
	Dia  string `json:"dia,omitempty" validate:"omitempty,len=2,numeric"`
}

// Validar verifica formato y cascada: el mes requiere año y el día requiere mes
func (f Filtro) Validar() error {
	return validacion.ValidarEstructura(f)
}

// Vacio indica si el filtro no restringe nada
func (f Filtro) Vacio() bool {
	return f.Anio == "" && f.Mes == "" && f.Dia == ""
}

// Coincide indica si el registro cumple el filtro
func (f Filtro) Coincide(r tipos.Registro) bool {
	return (f.Anio == "" || r.Anio == f.Anio) &&
		(f.Mes == "" || r.Mes == f.Mes) &&
		(f.Dia == "" || r.Dia == f.Dia)
}

// Aplicar retorna los registros que cumplen el filtro, en el orden original
func (f Filtro) Aplicar(registros []tipos.Registro) []tipos.Registro {
	if f.Vacio() {
		return registros
	}
	resultado := make([]tipos.Registro, 0)
	for _, r := range registros {
		if f.Coincide(r) {
			resultado = append(resultado, r)
		}
	}
	return resultado
}

// AnioMes retorna año y mes como enteros (0 si faltan), para las granularidades acotadas al mes
func (f Filtro) AnioMes() (int, int) {
	anio, _ := strconv.Atoi(f.Anio)
	mes, _ := strconv.Atoi(f.Mes)
	return anio, mes
}

// Granularidad retorna la granularidad de la vista de tendencia para este filtro
func (f Filtro) Granularidad() agregador.Granularidad {
	return agregador.GranularidadTendencia(f.Anio, f.Mes, f.Dia)
}

// ListaOpciones son los valores disponibles para cada nivel del filtro
type ListaOpciones struct {
	Anios []string `json:"anios"`
	Meses []string `json:"meses"` // del año elegido
	Dias  []string `json:"dias"`  // del año y mes elegidos
}

// Opciones retorna los años presentes, los meses del año elegido y los días del
// mes elegido, ordenados y sin repetir
func Opciones(registros []tipos.Registro, f Filtro) ListaOpciones {
	anios := map[string]bool{}
	meses := map[string]bool{}
	dias := map[string]bool{}

	for _, r := range registros {
		anios[r.Anio] = true
		if f.Anio != "" && r.Anio == f.Anio {
			meses[r.Mes] = true
			if f.Mes != "" && r.Mes == f.Mes {
				dias[r.Dia] = true
			}
		}
	}

	return ListaOpciones{
		Anios: ordenadas(anios),
		Meses: ordenadas(meses),
		Dias:  ordenadas(dias),
	}
}

func ordenadas(conjunto map[string]bool) []string {
	lista := make([]string, 0, len(conjunto))
	for v := range conjunto {
		lista = append(lista, v)
	}
	sort.Strings(lista)
	return lista
}
