// Package cliente_coap implementa middleware.Cliente contra un intermediario CoAP:
// publica con POST y se suscribe con GET + observe sobre la ruta del tópico.
package cliente_coap

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/middleware"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/udp"
	udpClient "github.com/plgd-dev/go-coap/v3/udp/client"
	"github.com/rs/zerolog"
)

const timeoutOperacion = 5 * time.Second

type observacion interface {
	Cancel(ctx context.Context, opts ...message.Option) error
}

// ClienteCoAP implementa middleware.Cliente con go-coap
type ClienteCoAP struct {
	conn *udpClient.Conn
	log  zerolog.Logger

	mu            sync.Mutex
	observaciones map[string]observacion
}

var _ middleware.Cliente = (*ClienteCoAP)(nil)

// Ruta convierte un tópico en la ruta CoAP con barra inicial
func Ruta(topico string) string {
	return "/" + middleware.Topico(topico)
}

// Conectar abre la sesión UDP con el intermediario
func Conectar(direccion string) (*ClienteCoAP, error) {
	conn, err := udp.Dial(direccion)
	if err != nil {
		return nil, fmt.Errorf("error al conectar con CoAP %s: %w", direccion, err)
	}

	log := logging.Con("coap")
	log.Info().Str("servidor", direccion).Msg("Conectado al intermediario CoAP")
	return &ClienteCoAP{
		conn:          conn,
		log:           log,
		observaciones: make(map[string]observacion),
	}, nil
}

func (c *ClienteCoAP) Publicar(ctx context.Context, topico string, payload []byte) error {
	resp, err := c.conn.Post(ctx, Ruta(topico), message.AppJSON, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error al publicar en %s: %w", topico, err)
	}
	if resp.Code() != codes.Created && resp.Code() != codes.Changed {
		return fmt.Errorf("publicación en %s rechazada: %v", topico, resp.Code())
	}
	return nil
}

func (c *ClienteCoAP) Suscribir(topico string, manejador middleware.Manejador) error {
	ctx, cancelar := context.WithTimeout(context.Background(), timeoutOperacion)
	defer cancelar()

	normalizado := middleware.Topico(topico)
	obs, err := c.conn.Observe(ctx, Ruta(topico), func(m *pool.Message) {
		cuerpo, err := m.ReadBody()
		if err != nil {
			c.log.Warn().Err(err).Str("topico", normalizado).Msg("Error al leer notificación")
			return
		}
		// la respuesta inicial de la observación llega vacía
		if len(cuerpo) == 0 {
			return
		}
		manejador(normalizado, cuerpo)
	})
	if err != nil {
		return fmt.Errorf("error al suscribir a %s: %w", topico, err)
	}

	c.mu.Lock()
	previa := c.observaciones[normalizado]
	c.observaciones[normalizado] = obs
	c.mu.Unlock()
	if previa != nil {
		previa.Cancel(ctx)
	}
	return nil
}

func (c *ClienteCoAP) Desuscribir(topico string) error {
	normalizado := middleware.Topico(topico)
	c.mu.Lock()
	obs, ok := c.observaciones[normalizado]
	delete(c.observaciones, normalizado)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	ctx, cancelar := context.WithTimeout(context.Background(), timeoutOperacion)
	defer cancelar()
	return obs.Cancel(ctx)
}

// Desconectar cancela las observaciones y cierra la sesión
func (c *ClienteCoAP) Desconectar() {
	c.mu.Lock()
	observaciones := c.observaciones
	c.observaciones = make(map[string]observacion)
	c.mu.Unlock()

	ctx, cancelar := context.WithTimeout(context.Background(), timeoutOperacion)
	defer cancelar()
	for topico, obs := range observaciones {
		if err := obs.Cancel(ctx); err != nil {
			c.log.Debug().Err(err).Str("topico", topico).Msg("Error al cancelar observación")
		}
	}
	c.conn.Close()
	c.log.Info().Msg("Desconectado del intermediario CoAP")
}
