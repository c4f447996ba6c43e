// Package servicio atiende consultas por publicación/suscripción: recibe
// Solicitud en <prefijo>/consultas y publica la Respuesta en
// <prefijo>/respuestas/<id>.
package servicio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbiale/calidadaire/configuracion"
	"github.com/cbiale/calidadaire/consulta"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/middleware"
	"github.com/cbiale/calidadaire/middleware/cliente_coap"
	"github.com/cbiale/calidadaire/middleware/cliente_mqtt"
	"github.com/cbiale/calidadaire/middleware/cliente_nats"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrProtocolo se retorna ante un protocolo de transporte desconocido
var ErrProtocolo = errors.New("protocolo de transporte desconocido")

const timeoutPublicacion = 5 * time.Second

// ==================== CONEXION ====================

// Conectar crea el cliente del protocolo configurado. Con protocolo "ninguno"
// retorna nil sin error.
func Conectar(ctx context.Context, cfg configuracion.Transporte, clienteID string) (middleware.Cliente, error) {
	switch cfg.Protocolo {
	case "", "ninguno":
		return nil, nil
	}

	// cada rama retorna un puntero concreto; un nil tipado no debe llegar a la interfaz
	var (
		cliente middleware.Cliente
		err     error
	)
	switch cfg.Protocolo {
	case "mqtt":
		var c *cliente_mqtt.ClienteMQTT
		if c, err = cliente_mqtt.Conectar(ctx, cfg.Direccion, clienteID); err == nil {
			cliente = c
		}
	case "nats":
		var c *cliente_nats.ClienteNATS
		if c, err = cliente_nats.Conectar(ctx, cfg.Direccion, clienteID); err == nil {
			cliente = c
		}
	case "coap":
		var c *cliente_coap.ClienteCoAP
		if c, err = cliente_coap.Conectar(cfg.Direccion); err == nil {
			cliente = c
		}
	default:
		err = fmt.Errorf("%w: %s", ErrProtocolo, cfg.Protocolo)
	}
	if err != nil {
		return nil, err
	}
	return cliente, nil
}

// TopicoConsultas retorna el tópico donde se reciben las solicitudes
func TopicoConsultas(prefijo string) string {
	return middleware.Topico(prefijo, "consultas")
}

// TopicoRespuesta retorna el tópico donde se publica la respuesta de una solicitud
func TopicoRespuesta(prefijo, id string) string {
	return middleware.Topico(prefijo, "respuestas", id)
}

// ==================== SERVICIO ====================

// Servicio conecta un cliente de transporte con el motor de consultas
type Servicio struct {
	cliente middleware.Cliente
	motor   *consulta.Motor
	prefijo string
	log     zerolog.Logger
}

// Nuevo crea el servicio; no se suscribe hasta Iniciar
func Nuevo(cliente middleware.Cliente, motor *consulta.Motor, prefijo string) *Servicio {
	return &Servicio{
		cliente: cliente,
		motor:   motor,
		prefijo: prefijo,
		log:     logging.Con("servicio"),
	}
}

// Iniciar se suscribe al tópico de consultas
func (s *Servicio) Iniciar() error {
	topico := TopicoConsultas(s.prefijo)
	if err := s.cliente.Suscribir(topico, s.atender); err != nil {
		return fmt.Errorf("error al iniciar servicio: %w", err)
	}
	s.log.Info().Str("topico", topico).Msg("Servicio de consultas iniciado")
	return nil
}

// Detener cancela la suscripción; no cierra el cliente
func (s *Servicio) Detener() {
	if err := s.cliente.Desuscribir(TopicoConsultas(s.prefijo)); err != nil {
		s.log.Warn().Err(err).Msg("Error al desuscribir")
	}
}

func (s *Servicio) atender(_ string, payload []byte) {
	ctx, cancelar := context.WithTimeout(context.Background(), timeoutPublicacion)
	defer cancelar()
	if err := s.Responder(ctx, payload); err != nil {
		s.log.Warn().Err(err).Msg("Solicitud no atendida")
	}
}

// Responder decodifica una solicitud, la ejecuta y publica la respuesta. Una
// solicitud sin id recibe uno nuevo; una que no se puede decodificar no tiene
// tópico de respuesta y se descarta con error.
func (s *Servicio) Responder(ctx context.Context, payload []byte) error {
	var solicitud consulta.Solicitud
	if err := json.Unmarshal(payload, &solicitud); err != nil {
		return fmt.Errorf("%w: %w", consulta.ErrSolicitud, err)
	}
	if solicitud.ID == "" {
		solicitud.ID = uuid.NewString()
	}

	respuesta, err := s.motor.Ejecutar(solicitud)
	if err != nil {
		s.log.Debug().Err(err).Str("id", solicitud.ID).Msg("Consulta con error")
		respuesta = consulta.RespuestaError(solicitud, err)
	}

	datos, err := json.Marshal(respuesta)
	if err != nil {
		return fmt.Errorf("error serializando respuesta %s: %w", solicitud.ID, err)
	}

	topico := TopicoRespuesta(s.prefijo, solicitud.ID)
	if err := s.cliente.Publicar(ctx, topico, datos); err != nil {
		return fmt.Errorf("error publicando respuesta %s: %w", solicitud.ID, err)
	}
	s.log.Debug().Str("id", solicitud.ID).Str("operacion", string(solicitud.Operacion)).
		Bool("cache", respuesta.DesdeCache).Msg("Respuesta publicada")
	return nil
}
