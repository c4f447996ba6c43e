// Package cliente_mqtt implementa middleware.Cliente sobre un broker MQTT
package cliente_mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/middleware"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	// QoS usado en publicaciones y suscripciones
	QoS = byte(1)

	timeoutConexion   = 5 * time.Second
	esperaDesconexion = 250 // milisegundos
)

// ClienteMQTT implementa middleware.Cliente con paho
type ClienteMQTT struct {
	cliente mqtt.Client
	log     zerolog.Logger

	mu      sync.Mutex
	topicos map[string]struct{}
}

var _ middleware.Cliente = (*ClienteMQTT)(nil)

// URLBroker agrega el esquema tcp:// cuando la dirección no trae uno
func URLBroker(direccion string) string {
	if strings.Contains(direccion, "://") {
		return direccion
	}
	return "tcp://" + direccion
}

// Conectar abre la conexión con el broker y espera la confirmación
func Conectar(ctx context.Context, direccion, clienteID string) (*ClienteMQTT, error) {
	log := logging.Con("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(URLBroker(direccion))
	opts.SetClientID(clienteID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(timeoutConexion)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("Conexión con el broker perdida")
	})

	cliente := mqtt.NewClient(opts)
	if err := esperar(ctx, cliente.Connect()); err != nil {
		return nil, fmt.Errorf("error al conectar con broker MQTT %s: %w", direccion, err)
	}

	log.Info().Str("broker", direccion).Str("cliente", clienteID).Msg("Conectado al broker MQTT")
	return &ClienteMQTT{
		cliente: cliente,
		log:     log,
		topicos: make(map[string]struct{}),
	}, nil
}

// esperar bloquea hasta que el token termina o el contexto se cancela
func esperar(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ClienteMQTT) Publicar(ctx context.Context, topico string, payload []byte) error {
	if !c.cliente.IsConnected() {
		return middleware.ErrDesconectado
	}
	if err := esperar(ctx, c.cliente.Publish(topico, QoS, false, payload)); err != nil {
		return fmt.Errorf("error al publicar en %s: %w", topico, err)
	}
	return nil
}

func (c *ClienteMQTT) Suscribir(topico string, manejador middleware.Manejador) error {
	token := c.cliente.Subscribe(topico, QoS, func(_ mqtt.Client, m mqtt.Message) {
		manejador(m.Topic(), m.Payload())
	})
	if err := esperar(context.Background(), token); err != nil {
		return fmt.Errorf("error al suscribir a %s: %w", topico, err)
	}

	c.mu.Lock()
	c.topicos[topico] = struct{}{}
	c.mu.Unlock()
	c.log.Debug().Str("topico", topico).Msg("Suscripto")
	return nil
}

func (c *ClienteMQTT) Desuscribir(topico string) error {
	if err := esperar(context.Background(), c.cliente.Unsubscribe(topico)); err != nil {
		return fmt.Errorf("error al desuscribir de %s: %w", topico, err)
	}
	c.mu.Lock()
	delete(c.topicos, topico)
	c.mu.Unlock()
	return nil
}

// Desconectar cancela las suscripciones y cierra la conexión
func (c *ClienteMQTT) Desconectar() {
	c.mu.Lock()
	topicos := make([]string, 0, len(c.topicos))
	for t := range c.topicos {
		topicos = append(topicos, t)
	}
	c.topicos = make(map[string]struct{})
	c.mu.Unlock()

	if len(topicos) > 0 && c.cliente.IsConnected() {
		c.cliente.Unsubscribe(topicos...).WaitTimeout(timeoutConexion)
	}
	c.cliente.Disconnect(esperaDesconexion)
	c.log.Info().Msg("Desconectado del broker MQTT")
}
