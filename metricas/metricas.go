// Package metricas define las métricas Prometheus de las capas de aplicación.
//
// Uso:
//
//	metricas.RegistrarConsulta("aqi", nil, 3*time.Millisecond)
//	metricas.RegistrarCache(true)
//	metricas.RegistrarNormalizacion(4, 120)
package metricas

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultadoOK    = "ok"
	ResultadoError = "error"
)

var (
	// ConsultasTotal cuenta consultas por operación y resultado
	ConsultasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calidadaire_consultas_total",
			Help: "Total de consultas ejecutadas",
		},
		[]string{"operacion", "resultado"},
	)

	// DuracionConsulta mide la latencia de cada operación
	DuracionConsulta = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calidadaire_consulta_duracion_segundos",
			Help:    "Duración de las consultas en segundos",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operacion"},
	)

	CacheAciertos = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calidadaire_cache_aciertos_total",
			Help: "Respuestas servidas desde el almacén",
		},
	)

	CacheFallos = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calidadaire_cache_fallos_total",
			Help: "Respuestas calculadas por no estar en el almacén",
		},
	)

	// FilasDescartadas cuenta filas mal formadas descartadas por el normalizador
	FilasDescartadas = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calidadaire_filas_descartadas_total",
			Help: "Filas descartadas durante la normalización",
		},
	)

	// ValoresCoercionados cuenta valores faltantes o inválidos llevados a 0
	ValoresCoercionados = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calidadaire_valores_coercionados_total",
			Help: "Valores faltantes, negativos o no numéricos reemplazados por 0",
		},
	)

	// RegistrosCargados es el tamaño del conjunto activo
	RegistrosCargados = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calidadaire_registros_cargados",
			Help: "Registros del conjunto de datos activo",
		},
	)
)

// RegistrarConsulta registra el resultado y la duración de una consulta
func RegistrarConsulta(operacion string, err error, duracion time.Duration) {
	resultado := ResultadoOK
	if err != nil {
		resultado = ResultadoError
	}
	ConsultasTotal.WithLabelValues(operacion, resultado).Inc()
	DuracionConsulta.WithLabelValues(operacion).Observe(duracion.Seconds())
}

// RegistrarCache registra un acierto o un fallo de la caché de respuestas
func RegistrarCache(acierto bool) {
	if acierto {
		CacheAciertos.Inc()
		return
	}
	CacheFallos.Inc()
}

// RegistrarNormalizacion registra el reporte de una pasada del normalizador
func RegistrarNormalizacion(descartadas, coerciones int) {
	FilasDescartadas.Add(float64(descartadas))
	ValoresCoercionados.Add(float64(coerciones))
}

// RegistrarConjunto fija el tamaño del conjunto activo
func RegistrarConjunto(registros int) {
	RegistrosCargados.Set(float64(registros))
}
