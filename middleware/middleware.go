// Package middleware define la interfaz común de los clientes de publicación/suscripción
// (MQTT, NATS, CoAP) y un bus en memoria con la misma interfaz.
package middleware

import (
	"context"
	"errors"
	"strings"
)

// ErrDesconectado se retorna al operar con un cliente ya desconectado
var ErrDesconectado = errors.New("cliente desconectado")

// Manejador recibe los mensajes de un tópico suscripto
type Manejador func(topico string, payload []byte)

// Cliente es un cliente de publicación/suscripción. Los manejadores corren en
// goroutines del transporte.
type Cliente interface {
	Publicar(ctx context.Context, topico string, payload []byte) error
	Suscribir(topico string, manejador Manejador) error
	Desuscribir(topico string) error
	Desconectar()
}

// Topico une las partes con "/" sin barras repetidas: Topico("calidadaire", "consultas")
func Topico(partes ...string) string {
	limpias := make([]string, 0, len(partes))
	for _, p := range partes {
		if p = strings.Trim(p, "/"); p != "" {
			limpias = append(limpias, p)
		}
	}
	return strings.Join(limpias, "/")
}
