package agregador

import (
	"fmt"
)

// Granularidad define la unidad de calendario con la que se agrupan los registros
type Granularidad string

const (
	GranularidadAnioMes      Granularidad = "anio-mes"       // "2004-03"
	GranularidadDiaDelMes    Granularidad = "dia-del-mes"    // "10", dentro del mes elegido
	GranularidadDiaSemana    Granularidad = "dia-semana"     // "Monday" ... "Sunday", dentro del mes elegido
	GranularidadSemanaDelMes Granularidad = "semana-del-mes" // "Week 1", dentro del mes elegido
	GranularidadHora         Granularidad = "hora"           // "00:00" ... "23:00"
	GranularidadFecha        Granularidad = "fecha"          // "2004-03-10"
	GranularidadMes          Granularidad = "mes"            // "03"
	GranularidadTipoDia      Granularidad = "tipo-dia"       // "Weekday", "Weekend"
	GranularidadTemperatura  Granularidad = "temperatura"    // temperatura redondeada, "14"
)

// Granularidades lista todas las granularidades soportadas
var Granularidades = []Granularidad{
	GranularidadAnioMes,
	GranularidadDiaDelMes,
	GranularidadDiaSemana,
	GranularidadSemanaDelMes,
	GranularidadHora,
	GranularidadFecha,
	GranularidadMes,
	GranularidadTipoDia,
	GranularidadTemperatura,
}

// ParsearGranularidad valida el nombre de una granularidad
func ParsearGranularidad(s string) (Granularidad, error) {
	for _, g := range Granularidades {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrGranularidad, s)
}

// AcotadaAlMes indica si la granularidad trabaja dentro de un mes elegido
func (g Granularidad) AcotadaAlMes() bool {
	switch g {
	case GranularidadDiaDelMes, GranularidadDiaSemana, GranularidadSemanaDelMes:
		return true
	}
	return false
}

// GranularidadTendencia elige la granularidad de la vista de tendencia según el filtro:
// sin filtro por fecha, con año por mes, con mes por día y con día por hora.
func GranularidadTendencia(anio, mes, dia string) Granularidad {
	switch {
	case anio != "" && mes != "" && dia != "":
		return GranularidadHora
	case anio != "" && mes != "":
		return GranularidadDiaDelMes
	case anio != "":
		return GranularidadMes
	default:
		return GranularidadFecha
	}
}
