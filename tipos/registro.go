package tipos

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Fila es una fila ya tokenizada del archivo de origen: columna -> texto
type Fila map[string]string

// Calendario contiene los campos derivados de la fecha y hora de un registro.
// Se calculan una sola vez al normalizar y no se modifican después.
type Calendario struct {
	Anio        string `json:"anio"` // "2004"
	Mes         string `json:"mes"`  // "03"
	Dia         string `json:"dia"`  // "10"
	Hora        int    `json:"hora"` // 0-23
	DiaSemana   string `json:"dia_semana"`
	FinDeSemana bool   `json:"fin_de_semana"`
}

// DerivarCalendario calcula los campos de calendario a partir del instante
func DerivarCalendario(t time.Time) Calendario {
	dia := t.Weekday()
	return Calendario{
		Anio:        fmt.Sprintf("%04d", t.Year()),
		Mes:         fmt.Sprintf("%02d", int(t.Month())),
		Dia:         fmt.Sprintf("%02d", t.Day()),
		Hora:        t.Hour(),
		DiaSemana:   dia.String(),
		FinDeSemana: dia == time.Saturday || dia == time.Sunday,
	}
}

// Registro es una lectura de la estación.
// Valores se indexa con Contaminante.Indice(); Faltante() marca un valor faltante.
type Registro struct {
	Tiempo time.Time
	Calendario
	Valores [NumMagnitudes]float64
}

// NuevoRegistro crea un registro en UTC con sus campos de calendario derivados
func NuevoRegistro(t time.Time, valores [NumMagnitudes]float64) Registro {
	t = t.UTC()
	return Registro{
		Tiempo:     t,
		Calendario: DerivarCalendario(t),
		Valores:    valores,
	}
}

// Valor retorna el valor de la magnitud, NaN si la magnitud es Desconocido
func (r Registro) Valor(c Contaminante) float64 {
	i := c.Indice()
	if i < 0 {
		return Faltante()
	}
	return r.Valores[i]
}

// Presente indica si el registro tiene un valor utilizable (finito y no negativo) para la magnitud
func (r Registro) Presente(c Contaminante) bool {
	v := r.Valor(c)
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// registroJSON es la forma serializable de Registro
type registroJSON struct {
	Tiempo time.Time `json:"tiempo"`
	Calendario
	Valores map[Contaminante]FloatNulo `json:"valores"`
}

// MarshalJSON serializa el registro con sus valores indexados por magnitud.
// Los valores faltantes se serializan como null.
func (r Registro) MarshalJSON() ([]byte, error) {
	aux := registroJSON{
		Tiempo:     r.Tiempo,
		Calendario: r.Calendario,
		Valores:    make(map[Contaminante]FloatNulo, NumMagnitudes),
	}
	for _, c := range Magnitudes {
		aux.Valores[c] = FloatNulo(r.Valor(c))
	}
	return json.Marshal(aux)
}

// UnmarshalJSON reconstruye el registro. Las magnitudes ausentes quedan como faltantes
// y los campos de calendario se derivan nuevamente del instante.
func (r *Registro) UnmarshalJSON(data []byte) error {
	var aux registroJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var valores [NumMagnitudes]float64
	for i := range valores {
		valores[i] = Faltante()
	}
	for c, v := range aux.Valores {
		valores[c.Indice()] = float64(v)
	}
	*r = NuevoRegistro(aux.Tiempo, valores)
	return nil
}
