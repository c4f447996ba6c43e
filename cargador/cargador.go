// Package cargador lee el archivo de la estación (local o en S3, comprimido o no)
// y lo entrega como filas tokenizadas para el normalizador.
package cargador

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/cbiale/calidadaire/compresor"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/tipos"
)

// ErrSinRuta se retorna cuando no se indicó archivo a cargar
var ErrSinRuta = errors.New("ruta del conjunto de datos no indicada")

// Configuracion describe el origen del conjunto de datos
type Configuracion struct {
	Ruta        string          `koanf:"ruta" validate:"required"` // archivo local o s3://bucket/clave
	Delimitador string          `koanf:"delimitador" validate:"omitempty,len=1"`
	S3          ConfiguracionS3 `koanf:"s3" validate:"-"`
}

// Conjunto es el resultado de una carga
type Conjunto struct {
	Fuente      string
	Columnas    []string
	Filas       []tipos.Fila
	Descartadas int // filas con distinta cantidad de campos que el encabezado
}

// Cargador lee conjuntos de datos. El cliente S3 solo se usa para rutas s3://.
type Cargador struct {
	cliente ClienteS3
}

// Nuevo crea un cargador; cliente puede ser nil si no se leerá desde S3
func Nuevo(cliente ClienteS3) *Cargador {
	return &Cargador{cliente: cliente}
}

// NuevoDesdeConfiguracion crea el cliente S3 solo si la configuración lo define
func NuevoDesdeConfiguracion(ctx context.Context, cfg Configuracion) (*Cargador, error) {
	if cfg.S3.Vacia() {
		return Nuevo(nil), nil
	}
	cliente, err := CrearClienteS3(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	return Nuevo(cliente), nil
}

// Cargar lee y tokeniza el archivo indicado en la configuración
func (c *Cargador) Cargar(ctx context.Context, cfg Configuracion) (Conjunto, error) {
	if cfg.Ruta == "" {
		return Conjunto{}, ErrSinRuta
	}
	log := logging.Con("cargador")

	cuerpo, nombre, err := c.abrir(ctx, cfg.Ruta)
	if err != nil {
		return Conjunto{}, err
	}
	defer cuerpo.Close()

	tipo, _ := compresor.PorExtension(nombre)
	lector, err := compresor.NuevoLector(tipo, cuerpo)
	if err != nil {
		return Conjunto{}, fmt.Errorf("error descomprimiendo %s: %w", cfg.Ruta, err)
	}
	defer lector.Close()

	delimitador, err := runaDelimitador(cfg.Delimitador)
	if err != nil {
		return Conjunto{}, err
	}

	conjunto, err := LeerCSV(lector, delimitador)
	if err != nil {
		return Conjunto{}, fmt.Errorf("error leyendo %s: %w", cfg.Ruta, err)
	}
	conjunto.Fuente = cfg.Ruta

	log.Info().
		Str("fuente", cfg.Ruta).
		Str("compresion", tipo.String()).
		Int("filas", len(conjunto.Filas)).
		Int("columnas", len(conjunto.Columnas)).
		Int("descartadas", conjunto.Descartadas).
		Msg("conjunto cargado")

	return conjunto, nil
}

func (c *Cargador) abrir(ctx context.Context, ruta string) (io.ReadCloser, string, error) {
	if EsRutaS3(ruta) {
		if c.cliente == nil {
			return nil, "", fmt.Errorf("ruta %s requiere configuración S3", ruta)
		}
		bucket, clave, err := ParsearRutaS3(ruta)
		if err != nil {
			return nil, "", err
		}
		cuerpo, err := abrirObjeto(ctx, c.cliente, bucket, clave)
		return cuerpo, path.Base(clave), err
	}

	f, err := os.Open(ruta)
	if err != nil {
		return nil, "", fmt.Errorf("error abriendo %s: %w", ruta, err)
	}
	return f, ruta, nil
}

func runaDelimitador(s string) (rune, error) {
	if s == "" {
		return ';', nil
	}
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || n != len(s) {
		return 0, fmt.Errorf("delimitador inválido %q", s)
	}
	return r, nil
}

// LeerCSV tokeniza un CSV con encabezado. Todas las columnas se leen como texto;
// la conversión numérica queda a cargo del normalizador. Las columnas sin nombre
// (separadores finales) se descartan. Una fila con otra cantidad de campos que el
// encabezado se descarta y se cuenta en Conjunto.Descartadas, salvo que el
// sobrante sean solo campos vacíos.
func LeerCSV(r io.Reader, delimitador rune) (Conjunto, error) {
	lector := csv.NewReader(r)
	lector.Comma = delimitador
	lector.FieldsPerRecord = -1
	lector.LazyQuotes = true

	registros, err := lector.ReadAll()
	if err != nil {
		return Conjunto{}, err
	}
	if len(registros) == 0 {
		return Conjunto{Columnas: []string{}, Filas: []tipos.Fila{}}, nil
	}

	ancho := len(registros[0])
	validos := make([][]string, 1, len(registros))
	validos[0] = registros[0]
	descartadas := 0
	for _, registro := range registros[1:] {
		registro, ok := ajustarAncho(registro, ancho)
		if !ok {
			if !esVacio(registro) {
				descartadas++
			}
			continue
		}
		validos = append(validos, registro)
	}

	encabezado := registros[0]
	if len(validos) > 1 {
		df := dataframe.LoadRecords(validos,
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues([]string{}),
		)
		if df.Err != nil {
			return Conjunto{}, df.Err
		}
		validos = df.Records()
		encabezado = validos[0]
	}

	columnas := make([]string, 0, len(encabezado))
	indices := make([]int, 0, len(encabezado))
	for i, nombre := range encabezado {
		nombre = strings.TrimSpace(nombre)
		if nombre == "" || esNombreGenerado(nombre) {
			continue
		}
		columnas = append(columnas, nombre)
		indices = append(indices, i)
	}

	filas := make([]tipos.Fila, 0, len(validos)-1)
	for _, registro := range validos[1:] {
		fila := make(tipos.Fila, len(columnas))
		vacia := true
		for k, i := range indices {
			fila[columnas[k]] = registro[i]
			if strings.TrimSpace(registro[i]) != "" {
				vacia = false
			}
		}
		if !vacia {
			filas = append(filas, fila)
		}
	}
	return Conjunto{Columnas: columnas, Filas: filas, Descartadas: descartadas}, nil
}

// ajustarAncho recorta los campos vacíos sobrantes al final de un registro.
// Retorna false si el registro no queda con el ancho del encabezado.
func ajustarAncho(registro []string, ancho int) ([]string, bool) {
	for len(registro) > ancho && strings.TrimSpace(registro[len(registro)-1]) == "" {
		registro = registro[:len(registro)-1]
	}
	return registro, len(registro) == ancho
}

func esVacio(registro []string) bool {
	for _, campo := range registro {
		if strings.TrimSpace(campo) != "" {
			return false
		}
	}
	return true
}

// esNombreGenerado detecta los nombres X0, X1... que asigna gota a columnas sin encabezado
func esNombreGenerado(nombre string) bool {
	if len(nombre) < 2 || nombre[0] != 'X' {
		return false
	}
	for _, r := range nombre[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
