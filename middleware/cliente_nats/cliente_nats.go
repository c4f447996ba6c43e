// Package cliente_nats implementa middleware.Cliente sobre NATS. Los tópicos
// con "/" se traducen a sujetos con ".".
package cliente_nats

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/middleware"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const timeoutConexion = 5 * time.Second

// ClienteNATS implementa middleware.Cliente con nats.go
type ClienteNATS struct {
	conn *nats.Conn
	log  zerolog.Logger

	mu            sync.Mutex
	suscripciones map[string]*nats.Subscription
}

var _ middleware.Cliente = (*ClienteNATS)(nil)

// Sujeto traduce un tópico "a/b/c" al sujeto NATS "a.b.c"
func Sujeto(topico string) string {
	return strings.ReplaceAll(strings.Trim(topico, "/"), "/", ".")
}

// Topico es la traducción inversa de Sujeto
func Topico(sujeto string) string {
	return strings.ReplaceAll(sujeto, ".", "/")
}

// URLServidor agrega el esquema nats:// cuando la dirección no trae uno
func URLServidor(direccion string) string {
	if strings.Contains(direccion, "://") {
		return direccion
	}
	return "nats://" + direccion
}

// Conectar abre la conexión con el servidor NATS
func Conectar(ctx context.Context, direccion, nombre string) (*ClienteNATS, error) {
	log := logging.Con("nats")

	timeout := timeoutConexion
	if limite, ok := ctx.Deadline(); ok {
		timeout = time.Until(limite)
	}

	conn, err := nats.Connect(URLServidor(direccion),
		nats.Name(nombre),
		nats.Timeout(timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("Conexión NATS perdida")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("servidor", c.ConnectedUrl()).Msg("Reconectado a NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error al conectar con NATS %s: %w", direccion, err)
	}

	log.Info().Str("servidor", direccion).Str("nombre", nombre).Msg("Conectado a NATS")
	return &ClienteNATS{
		conn:          conn,
		log:           log,
		suscripciones: make(map[string]*nats.Subscription),
	}, nil
}

// Publicar envía el mensaje y espera el flush del buffer de salida
func (c *ClienteNATS) Publicar(ctx context.Context, topico string, payload []byte) error {
	if c.conn.IsClosed() {
		return middleware.ErrDesconectado
	}
	if err := c.conn.Publish(Sujeto(topico), payload); err != nil {
		return fmt.Errorf("error al publicar en %s: %w", topico, err)
	}
	// FlushWithContext exige un contexto con deadline
	if _, ok := ctx.Deadline(); !ok {
		return c.conn.FlushTimeout(timeoutConexion)
	}
	return c.conn.FlushWithContext(ctx)
}

func (c *ClienteNATS) Suscribir(topico string, manejador middleware.Manejador) error {
	if c.conn.IsClosed() {
		return middleware.ErrDesconectado
	}

	sub, err := c.conn.Subscribe(Sujeto(topico), func(m *nats.Msg) {
		manejador(Topico(m.Subject), m.Data)
	})
	if err != nil {
		return fmt.Errorf("error al suscribir a %s: %w", topico, err)
	}

	c.mu.Lock()
	if previa, ok := c.suscripciones[topico]; ok {
		previa.Unsubscribe()
	}
	c.suscripciones[topico] = sub
	c.mu.Unlock()
	c.log.Debug().Str("sujeto", sub.Subject).Msg("Suscripto")
	return nil
}

func (c *ClienteNATS) Desuscribir(topico string) error {
	c.mu.Lock()
	sub, ok := c.suscripciones[topico]
	delete(c.suscripciones, topico)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return sub.Unsubscribe()
}

// Desconectar drena las suscripciones y cierra la conexión
func (c *ClienteNATS) Desconectar() {
	c.mu.Lock()
	c.suscripciones = make(map[string]*nats.Subscription)
	c.mu.Unlock()

	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
	c.log.Info().Msg("Desconectado de NATS")
}
