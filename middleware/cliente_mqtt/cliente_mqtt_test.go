package cliente_mqtt

import (
	"context"
	"net"
	"testing"
	"time"
)

// TestURLBroker verifica el esquema agregado a la dirección
func TestURLBroker(t *testing.T) {
	casos := []struct {
		nombre    string
		direccion string
		esperado  string
	}{
		{"sin esquema", "localhost:1883", "tcp://localhost:1883"},
		{"con tcp", "tcp://broker:1883", "tcp://broker:1883"},
		{"websocket", "ws://broker:9001", "ws://broker:9001"},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			if obtenido := URLBroker(c.direccion); obtenido != c.esperado {
				t.Errorf("esperado %s, obtenido %s", c.esperado, obtenido)
			}
		})
	}
}

// TestConectar_BrokerInexistente verifica el error cuando nadie escucha
func TestConectar_BrokerInexistente(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	direccion := l.Addr().String()
	l.Close()

	ctx, cancelar := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelar()

	if _, err := Conectar(ctx, direccion, "prueba"); err == nil {
		t.Fatal("se esperaba error al conectar con un puerto cerrado")
	}
	t.Log("✓ Conexión rechazada")
}
