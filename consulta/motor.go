package consulta

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cbiale/calidadaire/agregador"
	"github.com/cbiale/calidadaire/almacen"
	"github.com/cbiale/calidadaire/aqi"
	"github.com/cbiale/calidadaire/estadisticas"
	"github.com/cbiale/calidadaire/filtro"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/metricas"
	"github.com/cbiale/calidadaire/selector"
	"github.com/cbiale/calidadaire/tipos"
)

// Defectos son los parámetros de agregación que el pedido puede omitir
type Defectos struct {
	InicioSemana  int
	LimiteMuestra int
}

// Motor ejecuta pedidos sobre un conjunto inmutable. Es seguro para uso concurrente.
type Motor struct {
	conjunto *Conjunto
	almacen  *almacen.Almacen // nil = sin caché
	defectos Defectos
	log      zerolog.Logger
}

// NuevoMotor crea el motor del conjunto; alm puede ser nil
func NuevoMotor(conjunto *Conjunto, alm *almacen.Almacen, defectos Defectos) *Motor {
	return &Motor{
		conjunto: conjunto,
		almacen:  alm,
		defectos: defectos,
		log:      logging.Con("consulta"),
	}
}

// Conjunto retorna el conjunto activo
func (m *Motor) Conjunto() *Conjunto {
	return m.conjunto
}

// Ejecutar valida y resuelve el pedido. Con almacén, la respuesta se memoriza por
// (conjunto, pedido); DesdeCache indica si se reutilizó.
func (m *Motor) Ejecutar(s Solicitud) (Respuesta, error) {
	inicio := time.Now()
	resp, err := m.ejecutar(s)
	metricas.RegistrarConsulta(string(s.Operacion), err, time.Since(inicio))

	if err != nil {
		m.log.Debug().Err(err).Str("operacion", string(s.Operacion)).Msg("consulta rechazada")
		return Respuesta{}, err
	}

	resp.ID = s.ID
	m.log.Debug().
		Str("operacion", string(s.Operacion)).
		Bool("desde_cache", resp.DesdeCache).
		Dur("duracion", time.Since(inicio)).
		Msg("consulta resuelta")
	return resp, nil
}

func (m *Motor) ejecutar(s Solicitud) (Respuesta, error) {
	if err := s.Validar(); err != nil {
		return Respuesta{}, err
	}
	if m.almacen == nil {
		return m.resolver(s)
	}

	clave, err := s.Clave()
	if err != nil {
		return Respuesta{}, err
	}
	resp, desdeCache, err := almacen.Memorizar(m.almacen, m.conjunto.ID, clave, func() (Respuesta, error) {
		return m.resolver(s)
	})
	if err != nil {
		return Respuesta{}, err
	}
	resp.DesdeCache = desdeCache
	resp.completarVacios()
	return resp, nil
}

// resolver despacha a los componentes de cálculo
func (m *Motor) resolver(s Solicitud) (Respuesta, error) {
	resp := Respuesta{Operacion: s.Operacion, Conjunto: m.conjunto.ID.String()}
	registros := s.Filtro.Aplicar(m.conjunto.Registros)

	switch s.Operacion {
	case OperacionAgregacion, OperacionTendencia:
		g := agregador.Granularidad(s.Granularidad)
		if s.Operacion == OperacionTendencia {
			g = s.Filtro.Granularidad()
		}
		buckets, err := m.agregar(registros, s, g)
		if err != nil {
			return Respuesta{}, err
		}
		resp.Granularidad = g
		resp.Buckets = buckets

	case OperacionEstadisticas:
		resp.Estadisticas = estadisticas.Calcular(registros, s.Contaminantes)

	case OperacionAQI:
		resultado, err := aqi.CalcularDesdeRegistros(registros, s.Contaminantes)
		if err != nil {
			return Respuesta{}, fmt.Errorf("%w: %w", ErrSolicitud, err)
		}
		resp.AQI = &resultado

	case OperacionSeleccion:
		seleccion := selector.Seleccionar(registros, *s.Inicio, *s.Fin, s.Contaminantes)
		resp.Seleccion = &seleccion

	case OperacionVecinos:
		vecinos, ok := selector.ObtenerVecinos(registros, s.Indice)
		if !ok {
			return Respuesta{}, fmt.Errorf("%w: índice %d fuera de rango (%d registros)",
				ErrSolicitud, s.Indice, len(registros))
		}
		resp.Vecinos = &vecinos

	case OperacionPagina:
		pagina := selector.Paginar(registros, s.Pagina, s.Tamano)
		resp.Pagina = &pagina

	case OperacionOpciones:
		opciones := filtro.Opciones(m.conjunto.Registros, s.Filtro)
		resp.Opciones = &opciones

	default:
		return Respuesta{}, fmt.Errorf("%w: operación '%s'", ErrSolicitud, s.Operacion)
	}
	return resp, nil
}

func (m *Motor) agregar(registros []tipos.Registro, s Solicitud, g agregador.Granularidad) ([]tipos.Bucket, error) {
	anio, mes := s.Filtro.AnioMes()
	p := agregador.Parametros{
		Granularidad:  g,
		Contaminantes: s.Contaminantes,
		Anio:          anio,
		Mes:           mes,
		InicioSemana:  s.InicioSemana,
		LimiteMuestra: m.defectos.LimiteMuestra,
	}
	if p.InicioSemana == 0 {
		p.InicioSemana = m.defectos.InicioSemana
	}

	buckets, err := agregador.Agregar(registros, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolicitud, err)
	}
	return buckets, nil
}

// Estado resume el conjunto activo
type Estado struct {
	Conjunto     uuid.UUID `json:"conjunto"`
	Fuente       string    `json:"fuente"`
	Registros    int       `json:"registros"`
	Descartadas  int       `json:"descartadas"`
	Coerciones   int       `json:"coerciones"`
	Desde        time.Time `json:"desde,omitempty"`
	Hasta        time.Time `json:"hasta,omitempty"`
	Advertencias []string  `json:"advertencias,omitempty"`
}

// Estado retorna el resumen del conjunto activo
func (m *Motor) Estado() Estado {
	c := m.conjunto
	e := Estado{
		Conjunto:     c.ID,
		Fuente:       c.Fuente,
		Registros:    len(c.Registros),
		Descartadas:  c.Descartadas,
		Coerciones:   c.Coerciones,
		Advertencias: c.Advertencias,
	}
	// los registros conservan el orden del archivo, que puede no ser cronológico
	for i, r := range c.Registros {
		if i == 0 || r.Tiempo.Before(e.Desde) {
			e.Desde = r.Tiempo
		}
		if i == 0 || r.Tiempo.After(e.Hasta) {
			e.Hasta = r.Tiempo
		}
	}
	return e
}
