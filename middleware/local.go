package middleware

import (
	"context"
	"sync"
)

// Bus es un intermediario en memoria; entrega cada publicación a los clientes
// suscriptos al mismo tópico exacto.
type Bus struct {
	mu           sync.RWMutex
	suscriptores map[string]map[*ClienteLocal]Manejador
}

// NuevoBus crea un bus vacío
func NuevoBus() *Bus {
	return &Bus{suscriptores: make(map[string]map[*ClienteLocal]Manejador)}
}

// Conectar crea un cliente del bus
func (b *Bus) Conectar() *ClienteLocal {
	return &ClienteLocal{bus: b}
}

// ClienteLocal implementa Cliente sobre un Bus
type ClienteLocal struct {
	bus          *Bus
	mu           sync.Mutex
	desconectado bool
}

var _ Cliente = (*ClienteLocal)(nil)

func (c *ClienteLocal) activo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.desconectado
}

// Publicar entrega el mensaje en una goroutine por suscriptor
func (c *ClienteLocal) Publicar(ctx context.Context, topico string, payload []byte) error {
	if !c.activo() {
		return ErrDesconectado
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.bus.mu.RLock()
	defer c.bus.mu.RUnlock()
	for _, manejador := range c.bus.suscriptores[topico] {
		copia := append([]byte{}, payload...)
		go manejador(topico, copia)
	}
	return nil
}

func (c *ClienteLocal) Suscribir(topico string, manejador Manejador) error {
	if !c.activo() {
		return ErrDesconectado
	}
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	if c.bus.suscriptores[topico] == nil {
		c.bus.suscriptores[topico] = make(map[*ClienteLocal]Manejador)
	}
	c.bus.suscriptores[topico][c] = manejador
	return nil
}

func (c *ClienteLocal) Desuscribir(topico string) error {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	delete(c.bus.suscriptores[topico], c)
	if len(c.bus.suscriptores[topico]) == 0 {
		delete(c.bus.suscriptores, topico)
	}
	return nil
}

// Desconectar quita todas las suscripciones del cliente
func (c *ClienteLocal) Desconectar() {
	c.mu.Lock()
	c.desconectado = true
	c.mu.Unlock()

	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	for topico, subs := range c.bus.suscriptores {
		delete(subs, c)
		if len(subs) == 0 {
			delete(c.bus.suscriptores, topico)
		}
	}
}
