// Package configuracion carga la configuración de la aplicación en capas:
//
//  1. Valores por defecto (Defecto)
//  2. Archivo YAML opcional (CALIDADAIRE_CONFIG o calidadaire.yaml)
//  3. Variables de entorno CALIDADAIRE_*, donde "__" separa secciones:
//     CALIDADAIRE_CONJUNTO__FORMATO_FECHA → conjunto.formato_fecha
package configuracion

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cbiale/calidadaire/agregador"
	"github.com/cbiale/calidadaire/almacen"
	"github.com/cbiale/calidadaire/cargador"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/normalizador"
	"github.com/cbiale/calidadaire/validacion"
)

const (
	PrefijoEntorno   = "CALIDADAIRE_"
	VariableArchivo  = "CALIDADAIRE_CONFIG"
	ArchivoDefecto   = "calidadaire.yaml"
	separadorEntorno = "__"
)

// Configuracion es la configuración completa de la aplicación
type Configuracion struct {
	Conjunto   Conjunto              `koanf:"conjunto"`
	Logging    logging.Configuracion `koanf:"logging"`
	HTTP       HTTP                  `koanf:"http"`
	Transporte Transporte            `koanf:"transporte"`
	Almacen    almacen.Configuracion `koanf:"almacen"`
	Agregacion Agregacion            `koanf:"agregacion"`
}

// Conjunto describe el archivo de la estación y cómo leerlo
type Conjunto struct {
	Ruta          string                   `koanf:"ruta" validate:"required"`
	Delimitador   string                   `koanf:"delimitador" validate:"omitempty,len=1"`
	FormatoFecha  string                   `koanf:"formato_fecha" validate:"oneof=MM/DD/YYYY DD/MM/YYYY"`
	SeparadorHora string                   `koanf:"separador_hora" validate:"omitempty,len=1"`
	ComaDecimal   bool                     `koanf:"coma_decimal"`
	S3            cargador.ConfiguracionS3 `koanf:"s3" validate:"-"`
}

// HTTP configura la API REST
type HTTP struct {
	Habilitado bool   `koanf:"habilitado"`
	Direccion  string `koanf:"direccion" validate:"required_if=Habilitado true,omitempty,hostname_port"`
}

// Transporte configura el servicio de consultas por publicación/suscripción
type Transporte struct {
	Protocolo string `koanf:"protocolo" validate:"oneof=ninguno mqtt nats coap"`
	Direccion string `koanf:"direccion"`
	Prefijo   string `koanf:"prefijo" validate:"required"`
	// Intermediario levanta un servidor CoAP local en Direccion (solo protocolo coap)
	Intermediario bool `koanf:"intermediario"`
}

// Agregacion fija los parámetros por defecto de las agregaciones
type Agregacion struct {
	InicioSemana  int `koanf:"inicio_semana" validate:"min=0,max=7"`
	LimiteMuestra int `koanf:"limite_muestra" validate:"min=0"`
}

// Defecto retorna la configuración base, anterior al archivo y al entorno
func Defecto() Configuracion {
	return Configuracion{
		Conjunto: Conjunto{
			Ruta:          "AirQualityUCI.csv",
			Delimitador:   ";",
			FormatoFecha:  string(normalizador.FormatoDMA),
			SeparadorHora: ".",
			ComaDecimal:   true,
		},
		Logging: logging.Configuracion{Nivel: "info", Formato: "json"},
		HTTP: HTTP{
			Habilitado: true,
			Direccion:  ":8080",
		},
		Transporte: Transporte{
			Protocolo: "ninguno",
			Prefijo:   "calidadaire",
		},
		Almacen: almacen.Configuracion{Compresion: "zstd"},
		Agregacion: Agregacion{
			InicioSemana:  1,
			LimiteMuestra: agregador.LimiteMuestraDefecto,
		},
	}
}

// Cargar aplica las tres capas y valida el resultado
func Cargar() (Configuracion, error) {
	return CargarDesde(buscarArchivo())
}

// CargarDesde es Cargar con un archivo explícito; ruta vacía omite la capa de archivo
func CargarDesde(ruta string) (Configuracion, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defecto(), "koanf"), nil); err != nil {
		return Configuracion{}, fmt.Errorf("error cargando valores por defecto: %w", err)
	}

	if ruta != "" {
		if err := k.Load(file.Provider(ruta), yaml.Parser()); err != nil {
			return Configuracion{}, fmt.Errorf("error cargando %s: %w", ruta, err)
		}
	}

	if err := k.Load(env.Provider(PrefijoEntorno, ".", transformarEntorno), nil); err != nil {
		return Configuracion{}, fmt.Errorf("error cargando variables de entorno: %w", err)
	}

	var cfg Configuracion
	if err := k.Unmarshal("", &cfg); err != nil {
		return Configuracion{}, fmt.Errorf("error interpretando configuración: %w", err)
	}

	if err := cfg.Validar(); err != nil {
		return Configuracion{}, fmt.Errorf("configuración inválida: %w", err)
	}
	return cfg, nil
}

// Validar verifica todas las secciones; S3 solo si se configuró
func (c Configuracion) Validar() error {
	if err := validacion.ValidarEstructura(c); err != nil {
		return err
	}
	if !c.Conjunto.S3.Vacia() {
		if err := c.Conjunto.S3.Validar(); err != nil {
			return fmt.Errorf("s3: %w", err)
		}
	}
	return nil
}

func buscarArchivo() string {
	if ruta := os.Getenv(VariableArchivo); ruta != "" {
		return ruta
	}
	if _, err := os.Stat(ArchivoDefecto); err == nil {
		return ArchivoDefecto
	}
	return ""
}

// transformarEntorno convierte CALIDADAIRE_HTTP__DIRECCION en http.direccion
func transformarEntorno(clave string) string {
	clave = strings.TrimPrefix(clave, PrefijoEntorno)
	clave = strings.ToLower(clave)
	return strings.ReplaceAll(clave, separadorEntorno, ".")
}

// ==== CONVERSIONES ====

// Cargador retorna la configuración del cargador de archivos
func (c Conjunto) Cargador() cargador.Configuracion {
	return cargador.Configuracion{
		Ruta:        c.Ruta,
		Delimitador: c.Delimitador,
		S3:          c.S3,
	}
}

// Normalizador retorna las opciones de lectura de filas
func (c Conjunto) Normalizador() normalizador.Opciones {
	return normalizador.Opciones{
		Formato:       normalizador.FormatoFecha(c.FormatoFecha),
		SeparadorHora: c.SeparadorHora,
		ComaDecimal:   c.ComaDecimal,
	}
}
