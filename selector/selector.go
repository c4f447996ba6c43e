// Package selector extrae los registros de un intervalo de tiempo elegido por el
// usuario, junto con las magnitudes que tienen valores en ese intervalo.
package selector

import (
	"time"

	"github.com/cbiale/calidadaire/tipos"
)

// Seleccionar retorna los registros con inicio <= Tiempo <= fin y las magnitudes activas:
// las que tienen al menos un valor presente (un 0 cuenta). Un registro sin ninguna
// magnitud presente no se incluye. Con fin anterior a inicio la selección es vacía.
// Sin magnitudes usa los seis contaminantes.
func Seleccionar(registros []tipos.Registro, inicio, fin time.Time, contaminantes []tipos.Contaminante) tipos.Seleccion {
	seleccion := tipos.Seleccion{
		Registros: []tipos.Registro{},
		Columnas:  []tipos.Contaminante{},
	}
	if fin.Before(inicio) {
		return seleccion
	}
	if len(contaminantes) == 0 {
		contaminantes = tipos.Contaminantes
	}

	activos := make(map[tipos.Contaminante]bool, len(contaminantes))
	for _, r := range registros {
		if r.Tiempo.Before(inicio) || r.Tiempo.After(fin) {
			continue
		}
		presente := false
		for _, c := range contaminantes {
			if r.Presente(c) {
				activos[c] = true
				presente = true
			}
		}
		if presente {
			seleccion.Registros = append(seleccion.Registros, r)
		}
	}

	// Columnas en el orden de la enumeración
	for _, c := range tipos.Magnitudes {
		if activos[c] {
			seleccion.Columnas = append(seleccion.Columnas, c)
		}
	}
	return seleccion
}

// Vecinos es el contexto de un punto elegido en un gráfico: el registro y sus adyacentes
type Vecinos struct {
	Anterior  *tipos.Registro `json:"anterior,omitempty"`
	Actual    tipos.Registro  `json:"actual"`
	Siguiente *tipos.Registro `json:"siguiente,omitempty"`
}

// ObtenerVecinos retorna el registro i con el anterior y el siguiente.
// El segundo valor es false si i está fuera de rango.
func ObtenerVecinos(registros []tipos.Registro, i int) (Vecinos, bool) {
	if i < 0 || i >= len(registros) {
		return Vecinos{}, false
	}
	v := Vecinos{Actual: registros[i]}
	if i > 0 {
		anterior := registros[i-1]
		v.Anterior = &anterior
	}
	if i+1 < len(registros) {
		siguiente := registros[i+1]
		v.Siguiente = &siguiente
	}
	return v, true
}

// TamanoPaginaDefecto es la cantidad de filas por página de la vista de tabla
const TamanoPaginaDefecto = 10

// Pagina es una ventana de la tabla de registros
type Pagina struct {
	Registros    []tipos.Registro `json:"rows"`
	Numero       int              `json:"pagina"`
	Tamano       int              `json:"tamano"`
	TotalPaginas int              `json:"total_paginas"`
	TotalFilas   int              `json:"total_filas"`
}

// Paginar retorna la página pedida (base 1). Un número fuera de rango se lleva a
// la primera o última página; un tamaño no positivo usa TamanoPaginaDefecto.
func Paginar(registros []tipos.Registro, numero, tamano int) Pagina {
	if tamano <= 0 {
		tamano = TamanoPaginaDefecto
	}
	total := (len(registros) + tamano - 1) / tamano
	if total == 0 {
		return Pagina{Registros: []tipos.Registro{}, Numero: 1, Tamano: tamano, TotalPaginas: 1}
	}
	if numero < 1 {
		numero = 1
	}
	if numero > total {
		numero = total
	}

	desde := (numero - 1) * tamano
	hasta := desde + tamano
	if hasta > len(registros) {
		hasta = len(registros)
	}
	return Pagina{
		Registros:    registros[desde:hasta],
		Numero:       numero,
		Tamano:       tamano,
		TotalPaginas: total,
		TotalFilas:   len(registros),
	}
}
