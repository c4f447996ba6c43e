package compresor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ==== GZIP ====

// CompresorGzip implementa compresión Gzip
type CompresorGzip struct{}

func (c *CompresorGzip) Comprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(datos); err != nil {
		return nil, fmt.Errorf("error al escribir datos gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error al cerrar writer gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *CompresorGzip) Descomprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	r, err := lectorGzip(bytes.NewReader(datos))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	resultado, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error al leer datos gzip: %w", err)
	}
	return resultado, nil
}

func lectorGzip(r io.Reader) (io.ReadCloser, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("error al crear reader gzip: %w", err)
	}
	return gz, nil
}

// ==== LZ4 ====

// CompresorLZ4 implementa compresión LZ4 en formato frame
type CompresorLZ4 struct{}

func (c *CompresorLZ4) Comprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(datos); err != nil {
		return nil, fmt.Errorf("error al escribir datos LZ4: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error al cerrar writer LZ4: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *CompresorLZ4) Descomprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	resultado, err := io.ReadAll(lz4.NewReader(bytes.NewReader(datos)))
	if err != nil {
		return nil, fmt.Errorf("error al descomprimir con LZ4: %w", err)
	}
	return resultado, nil
}

func lectorLZ4(r io.Reader) io.ReadCloser {
	return io.NopCloser(lz4.NewReader(r))
}

// ==== SNAPPY ====

// CompresorSnappy implementa compresión Snappy en formato bloque.
// Los archivos .sz usan el formato de flujo (ver lectorSnappy).
type CompresorSnappy struct{}

func (c *CompresorSnappy) Comprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}
	return snappy.Encode(nil, datos), nil
}

func (c *CompresorSnappy) Descomprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	resultado, err := snappy.Decode(nil, datos)
	if err != nil {
		return nil, fmt.Errorf("error al descomprimir con Snappy: %w", err)
	}
	return resultado, nil
}

func lectorSnappy(r io.Reader) io.ReadCloser {
	return io.NopCloser(snappy.NewReader(r))
}

// ==== ZSTD ====

// CompresorZSTD implementa compresión Zstd
type CompresorZSTD struct{}

func (c *CompresorZSTD) Comprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("error al crear encoder Zstd: %w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(datos, make([]byte, 0, len(datos))), nil
}

func (c *CompresorZSTD) Descomprimir(datos []byte) ([]byte, error) {
	if len(datos) == 0 {
		return []byte{}, nil
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("error al crear decoder Zstd: %w", err)
	}
	defer decoder.Close()

	resultado, err := decoder.DecodeAll(datos, nil)
	if err != nil {
		return nil, fmt.Errorf("error al descomprimir con Zstd: %w", err)
	}
	return resultado, nil
}

type lectorZstd struct {
	*zstd.Decoder
}

func (l lectorZstd) Close() error {
	l.Decoder.Close()
	return nil
}

func lectorZSTD(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("error al crear decoder Zstd: %w", err)
	}
	return lectorZstd{d}, nil
}
