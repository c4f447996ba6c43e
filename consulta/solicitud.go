// Package consulta define el sobre de pedido y respuesta que comparten la API HTTP
// y el servicio de publicación/suscripción, y lo ejecuta sobre el conjunto activo.
package consulta

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/cbiale/calidadaire/agregador"
	"github.com/cbiale/calidadaire/aqi"
	"github.com/cbiale/calidadaire/filtro"
	"github.com/cbiale/calidadaire/selector"
	"github.com/cbiale/calidadaire/tipos"
	"github.com/cbiale/calidadaire/validacion"
)

// ErrSolicitud envuelve los errores de parámetros del pedido
var ErrSolicitud = errors.New("solicitud inválida")

// Operacion es la vista pedida
type Operacion string

const (
	OperacionAgregacion   Operacion = "agregacion"
	OperacionTendencia    Operacion = "tendencia"
	OperacionEstadisticas Operacion = "estadisticas"
	OperacionAQI          Operacion = "aqi"
	OperacionSeleccion    Operacion = "seleccion"
	OperacionVecinos      Operacion = "vecinos"
	OperacionPagina       Operacion = "pagina"
	OperacionOpciones     Operacion = "opciones"
)

// Operaciones lista las operaciones soportadas
var Operaciones = []Operacion{
	OperacionAgregacion,
	OperacionTendencia,
	OperacionEstadisticas,
	OperacionAQI,
	OperacionSeleccion,
	OperacionVecinos,
	OperacionPagina,
	OperacionOpciones,
}

// Solicitud es un pedido sobre el conjunto activo. Los campos que no usa la
// operación se ignoran.
type Solicitud struct {
	ID            string               `json:"id,omitempty"`
	Operacion     Operacion            `json:"operacion" validate:"required,oneof=agregacion tendencia estadisticas aqi seleccion vecinos pagina opciones"`
	Filtro        filtro.Filtro        `json:"filtro"`
	Granularidad  string               `json:"granularidad,omitempty" validate:"required_if=Operacion agregacion"`
	Contaminantes []tipos.Contaminante `json:"contaminantes,omitempty"`
	InicioSemana  int                  `json:"inicio_semana,omitempty" validate:"min=0,max=7"`
	Inicio        *time.Time           `json:"inicio,omitempty" validate:"required_if=Operacion seleccion"`
	Fin           *time.Time           `json:"fin,omitempty" validate:"required_if=Operacion seleccion"`
	Pagina        int                  `json:"pagina,omitempty" validate:"min=0"`
	Tamano        int                  `json:"tamano,omitempty" validate:"min=0,max=500"`
	Indice        int                  `json:"indice,omitempty" validate:"min=0"`
}

// Validar verifica los campos y el filtro
func (s Solicitud) Validar() error {
	if err := validacion.ValidarEstructura(s); err != nil {
		return fmt.Errorf("%w: %w", ErrSolicitud, err)
	}
	for _, c := range s.Contaminantes {
		if c.Indice() < 0 {
			return fmt.Errorf("%w: magnitud desconocida", ErrSolicitud)
		}
	}
	if s.Operacion == OperacionAgregacion {
		if _, err := agregador.ParsearGranularidad(s.Granularidad); err != nil {
			return fmt.Errorf("%w: %w", ErrSolicitud, err)
		}
	}
	return nil
}

// Clave identifica el pedido para la caché: el mismo pedido sin id produce la misma clave
func (s Solicitud) Clave() (string, error) {
	s.ID = ""
	datos, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("error serializando solicitud: %w", err)
	}
	suma := sha256.Sum256(datos)
	return string(s.Operacion) + "/" + hex.EncodeToString(suma[:]), nil
}

// Respuesta lleva solo el campo de la operación pedida
type Respuesta struct {
	ID           string                      `json:"id,omitempty"`
	Operacion    Operacion                   `json:"operacion"`
	Conjunto     string                      `json:"conjunto,omitempty"`
	Granularidad agregador.Granularidad      `json:"granularidad,omitempty"`
	Buckets      []tipos.Bucket              `json:"buckets,omitempty"`
	Estadisticas tipos.ResultadoEstadisticas `json:"estadisticas,omitempty"`
	AQI          *aqi.ResultadoAQI           `json:"aqi,omitempty"`
	Seleccion    *tipos.Seleccion            `json:"seleccion,omitempty"`
	Vecinos      *selector.Vecinos           `json:"vecinos,omitempty"`
	Pagina       *selector.Pagina            `json:"pagina,omitempty"`
	Opciones     *filtro.ListaOpciones       `json:"opciones,omitempty"`
	DesdeCache   bool                        `json:"desde_cache"`
	Error        string                      `json:"error,omitempty"`
}

// RespuestaError arma la respuesta de un pedido fallido
func RespuestaError(s Solicitud, err error) Respuesta {
	return Respuesta{ID: s.ID, Operacion: s.Operacion, Error: err.Error()}
}

// completarVacios restaura las listas vacías que gob decodifica como nil, para
// que el JSON muestre [] y no null
func (r *Respuesta) completarVacios() {
	if r.Seleccion != nil {
		if r.Seleccion.Registros == nil {
			r.Seleccion.Registros = []tipos.Registro{}
		}
		if r.Seleccion.Columnas == nil {
			r.Seleccion.Columnas = []tipos.Contaminante{}
		}
	}
	if r.Pagina != nil && r.Pagina.Registros == nil {
		r.Pagina.Registros = []tipos.Registro{}
	}
	if r.Opciones != nil {
		for _, lista := range []*[]string{&r.Opciones.Anios, &r.Opciones.Meses, &r.Opciones.Dias} {
			if *lista == nil {
				*lista = []string{}
			}
		}
	}
	if (r.Operacion == OperacionAgregacion || r.Operacion == OperacionTendencia) && r.Buckets == nil {
		r.Buckets = []tipos.Bucket{}
	}
}
