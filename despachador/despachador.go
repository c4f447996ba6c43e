// Package despachador expone el motor de consultas por HTTP con chi
package despachador

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cbiale/calidadaire/consulta"
	"github.com/cbiale/calidadaire/filtro"
	"github.com/cbiale/calidadaire/logging"
)

// tamaño máximo del cuerpo de una solicitud
const maxCuerpo = 1 << 20

// Despachador atiende la API REST sobre un motor
type Despachador struct {
	motor *consulta.Motor
	log   zerolog.Logger
}

// Nuevo crea el despachador
func Nuevo(motor *consulta.Motor) *Despachador {
	return &Despachador{motor: motor, log: logging.Con("http")}
}

// Rutas arma el router:
//
//	POST /api/consulta     ejecuta una consulta.Solicitud
//	GET  /api/opciones     años, meses y días disponibles (?anio=&mes=)
//	GET  /api/estado       resumen del conjunto activo
//	GET  /api/operaciones  operaciones soportadas
//	GET  /api/salud        chequeo de vida
//	GET  /metrics          métricas Prometheus
func (d *Despachador) Rutas() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(d.registrarPedido)

	r.Route("/api", func(r chi.Router) {
		r.Post("/consulta", d.Consulta)
		r.Get("/opciones", d.Opciones)
		r.Get("/estado", d.Estado)
		r.Get("/operaciones", d.Operaciones)
		r.Get("/salud", d.Salud)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// registrarPedido loguea cada pedido con su duración
func (d *Despachador) registrarPedido(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inicio := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		d.log.Debug().
			Str("metodo", r.Method).
			Str("ruta", r.URL.Path).
			Int("estado", ww.Status()).
			Str("pedido", chimiddleware.GetReqID(r.Context())).
			Dur("duracion", time.Since(inicio)).
			Msg("Pedido HTTP")
	})
}

// ==================== HANDLERS ====================

// Consulta ejecuta la solicitud del cuerpo. Errores de parámetros responden 400
// con la consulta.Respuesta y su campo error.
func (d *Despachador) Consulta(w http.ResponseWriter, r *http.Request) {
	cuerpo, err := io.ReadAll(io.LimitReader(r.Body, maxCuerpo))
	if err != nil {
		escribirError(w, http.StatusBadRequest, fmt.Errorf("error leyendo cuerpo: %w", err))
		return
	}

	var solicitud consulta.Solicitud
	if err := json.Unmarshal(cuerpo, &solicitud); err != nil {
		escribirError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", consulta.ErrSolicitud, err))
		return
	}
	if solicitud.ID == "" {
		solicitud.ID = chimiddleware.GetReqID(r.Context())
	}

	d.ejecutar(w, solicitud)
}

// Opciones responde la cascada de años, meses y días
func (d *Despachador) Opciones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d.ejecutar(w, consulta.Solicitud{
		ID:        chimiddleware.GetReqID(r.Context()),
		Operacion: consulta.OperacionOpciones,
		Filtro:    filtro.Filtro{Anio: q.Get("anio"), Mes: q.Get("mes")},
	})
}

// Estado responde el resumen del conjunto activo
func (d *Despachador) Estado(w http.ResponseWriter, _ *http.Request) {
	escribirJSON(w, http.StatusOK, d.motor.Estado())
}

// Operaciones lista las operaciones que acepta /api/consulta
func (d *Despachador) Operaciones(w http.ResponseWriter, _ *http.Request) {
	escribirJSON(w, http.StatusOK, OperacionesResponse{Operaciones: consulta.Operaciones})
}

// Salud responde "ok" con el identificador del conjunto cargado
func (d *Despachador) Salud(w http.ResponseWriter, _ *http.Request) {
	escribirJSON(w, http.StatusOK, SaludResponse{Estado: "ok", Conjunto: d.motor.Conjunto().ID.String()})
}

func (d *Despachador) ejecutar(w http.ResponseWriter, s consulta.Solicitud) {
	respuesta, err := d.motor.Ejecutar(s)
	switch {
	case err == nil:
		escribirJSON(w, http.StatusOK, respuesta)
	case errors.Is(err, consulta.ErrSolicitud):
		escribirJSON(w, http.StatusBadRequest, consulta.RespuestaError(s, err))
	default:
		d.log.Error().Err(err).Str("id", s.ID).Msg("Error ejecutando consulta")
		escribirJSON(w, http.StatusInternalServerError, consulta.RespuestaError(s, err))
	}
}

// ==================== SERVIDOR ====================

// Servidor envuelve http.Server con arranque en segundo plano
type Servidor struct {
	http *http.Server
	log  zerolog.Logger
}

// NuevoServidor crea el servidor HTTP en la dirección dada
func NuevoServidor(direccion string, d *Despachador) *Servidor {
	return &Servidor{
		http: &http.Server{
			Addr:              direccion,
			Handler:           d.Rutas(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: d.log,
	}
}

// Iniciar sirve en segundo plano; los errores de arranque llegan por el canal
func (s *Servidor) Iniciar() <-chan error {
	errores := make(chan error, 1)
	go func() {
		s.log.Info().Str("direccion", s.http.Addr).Msg("Servidor HTTP iniciado")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errores <- err
		}
		close(errores)
	}()
	return errores
}

// Detener cierra el servidor esperando los pedidos en curso
func (s *Servidor) Detener(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("error deteniendo servidor HTTP: %w", err)
	}
	s.log.Info().Msg("Servidor HTTP detenido")
	return nil
}
