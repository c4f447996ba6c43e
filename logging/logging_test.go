package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestParsearNivel verifica la conversión de niveles
func TestParsearNivel(t *testing.T) {
	casos := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"otro":     zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for entrada, esperado := range casos {
		if obtenido := ParsearNivel(entrada); obtenido != esperado {
			t.Errorf("'%s': esperado %v, obtenido %v", entrada, esperado, obtenido)
		}
	}
}

// TestInit_JSONConComponente verifica la salida JSON y el campo componente
func TestInit_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	Init(Configuracion{Nivel: "debug", Formato: "json", Salida: &buf})
	defer Init(ConfiguracionPorDefecto())

	l := Con("normalizador")
	l.Info().Int("descartadas", 3).Msg("pasada completa")

	salida := buf.String()
	for _, esperado := range []string{`"componente":"normalizador"`, `"descartadas":3`, `"message":"pasada completa"`} {
		if !strings.Contains(salida, esperado) {
			t.Errorf("Falta %s en %s", esperado, salida)
		}
	}
	t.Logf("✓ Salida: %s", strings.TrimSpace(salida))
}

// TestInit_Nivel verifica que se filtran los niveles inferiores
func TestInit_Nivel(t *testing.T) {
	var buf bytes.Buffer
	Init(Configuracion{Nivel: "warn", Salida: &buf})
	defer Init(ConfiguracionPorDefecto())

	Info().Msg("no debería aparecer")
	Warn().Msg("visible")

	if strings.Contains(buf.String(), "no debería aparecer") {
		t.Error("Un mensaje info pasó con nivel warn")
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Falta el mensaje warn")
	}
}
