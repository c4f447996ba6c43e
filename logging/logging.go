// Package logging mantiene el logger global (zerolog) de la aplicación.
// Los paquetes de cálculo no registran nada; solo las capas de aplicación lo usan.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Configuracion controla el formato y nivel del logger
type Configuracion struct {
	Nivel   string    `koanf:"nivel" validate:"omitempty,oneof=trace debug info warn error fatal disabled"`
	Formato string    `koanf:"formato" validate:"omitempty,oneof=json console"`
	Caller  bool      `koanf:"caller"`
	Salida  io.Writer `koanf:"-"` // nil = os.Stderr
}

// ConfiguracionPorDefecto retorna nivel info en JSON
func ConfiguracionPorDefecto() Configuracion {
	return Configuracion{Nivel: "info", Formato: "json", Salida: os.Stderr}
}

var (
	logger zerolog.Logger
	mu     sync.RWMutex
)

func init() {
	cfg := ConfiguracionPorDefecto()
	if nivel := os.Getenv("LOG_LEVEL"); nivel != "" {
		cfg.Nivel = nivel
	}
	if formato := os.Getenv("LOG_FORMAT"); formato != "" {
		cfg.Formato = formato
	}
	iniciar(cfg)
}

// Init reemplaza el logger global
func Init(cfg Configuracion) {
	mu.Lock()
	defer mu.Unlock()
	iniciar(cfg)
}

func iniciar(cfg Configuracion) {
	if cfg.Salida == nil {
		cfg.Salida = os.Stderr
	}

	zerolog.SetGlobalLevel(ParsearNivel(cfg.Nivel))
	zerolog.TimeFieldFormat = time.RFC3339

	salida := cfg.Salida
	if cfg.Formato == "console" {
		salida = zerolog.ConsoleWriter{Out: cfg.Salida, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(salida).With().Timestamp().Logger()
	if cfg.Caller {
		l = l.With().Caller().Logger()
	}
	logger = l
}

// ParsearNivel convierte el nombre de nivel; un nombre desconocido es info
func ParsearNivel(nivel string) zerolog.Level {
	switch strings.ToLower(nivel) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger retorna una copia del logger global
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Con retorna un logger hijo con el campo componente
func Con(componente string) zerolog.Logger {
	l := Logger()
	return l.With().Str("componente", componente).Logger()
}

func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}
