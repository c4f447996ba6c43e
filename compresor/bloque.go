// Package compresor contiene los codecs usados por las instantáneas y el almacén:
// delta-delta para tiempos, XOR (Gorilla) para columnas de magnitudes y
// compresión de bloque (gzip, lz4, snappy, zstd) para los bytes resultantes.
package compresor

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrTipoCompresion se retorna al parsear un tipo de compresión desconocido
var ErrTipoCompresion = errors.New("tipo de compresión desconocido")

// TipoCompresionBloque es un enum cerrado de algoritmos de bloque
type TipoCompresionBloque struct {
	valor string
}

var (
	SinCompresion = TipoCompresionBloque{"ninguna"}
	Gzip          = TipoCompresionBloque{"gzip"}
	LZ4           = TipoCompresionBloque{"lz4"}
	Snappy        = TipoCompresionBloque{"snappy"}
	ZSTD          = TipoCompresionBloque{"zstd"}
)

// TiposCompresionBloque lista los algoritmos disponibles
var TiposCompresionBloque = []TipoCompresionBloque{SinCompresion, Gzip, LZ4, Snappy, ZSTD}

// extensiones de archivo reconocidas por PorExtension
var extensiones = map[string]TipoCompresionBloque{
	".gz":   Gzip,
	".gzip": Gzip,
	".lz4":  LZ4,
	".sz":   Snappy,
	".zst":  ZSTD,
	".zstd": ZSTD,
}

func (t TipoCompresionBloque) String() string {
	if t.valor == "" {
		return SinCompresion.valor
	}
	return t.valor
}

// ParsearTipoCompresion convierte un nombre (sin distinguir mayúsculas) en el tipo.
// La cadena vacía es SinCompresion.
func ParsearTipoCompresion(nombre string) (TipoCompresionBloque, error) {
	nombre = strings.ToLower(strings.TrimSpace(nombre))
	if nombre == "" || nombre == "none" {
		return SinCompresion, nil
	}
	for _, t := range TiposCompresionBloque {
		if t.valor == nombre {
			return t, nil
		}
	}
	return SinCompresion, fmt.Errorf("%w: %q", ErrTipoCompresion, nombre)
}

// PorExtension deduce el algoritmo a partir de la extensión del archivo.
// Retorna el nombre sin la extensión de compresión.
func PorExtension(archivo string) (TipoCompresionBloque, string) {
	ext := strings.ToLower(filepath.Ext(archivo))
	if t, ok := extensiones[ext]; ok {
		return t, strings.TrimSuffix(archivo, filepath.Ext(archivo))
	}
	return SinCompresion, archivo
}

func (t TipoCompresionBloque) GobEncode() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TipoCompresionBloque) GobDecode(data []byte) error {
	return t.UnmarshalText(data)
}

func (t TipoCompresionBloque) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TipoCompresionBloque) UnmarshalText(data []byte) error {
	parseado, err := ParsearTipoCompresion(string(data))
	if err != nil {
		return err
	}
	*t = parseado
	return nil
}

func (t TipoCompresionBloque) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TipoCompresionBloque) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

var (
	_ gob.GobEncoder = TipoCompresionBloque{}
	_ gob.GobDecoder = (*TipoCompresionBloque)(nil)
)

// CompresorBloque comprime y descomprime bloques completos de bytes
type CompresorBloque interface {
	Comprimir(datos []byte) ([]byte, error)
	Descomprimir(datos []byte) ([]byte, error)
}

// NuevoCompresorBloque retorna el compresor del tipo indicado
func NuevoCompresorBloque(tipo TipoCompresionBloque) CompresorBloque {
	switch tipo {
	case Gzip:
		return &CompresorGzip{}
	case LZ4:
		return &CompresorLZ4{}
	case Snappy:
		return &CompresorSnappy{}
	case ZSTD:
		return &CompresorZSTD{}
	default:
		return &CompresorNinguno{}
	}
}

// NuevoLector envuelve r con el descompresor de flujo del tipo indicado.
// Cerrar el lector no cierra r.
func NuevoLector(tipo TipoCompresionBloque, r io.Reader) (io.ReadCloser, error) {
	switch tipo {
	case Gzip:
		return lectorGzip(r)
	case LZ4:
		return lectorLZ4(r), nil
	case Snappy:
		return lectorSnappy(r), nil
	case ZSTD:
		return lectorZSTD(r)
	default:
		return io.NopCloser(r), nil
	}
}

// CompresorNinguno retorna los bytes tal cual
type CompresorNinguno struct{}

func (c *CompresorNinguno) Comprimir(datos []byte) ([]byte, error) {
	return append([]byte{}, datos...), nil
}

func (c *CompresorNinguno) Descomprimir(datos []byte) ([]byte, error) {
	return append([]byte{}, datos...), nil
}
