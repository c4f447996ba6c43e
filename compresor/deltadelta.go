package compresor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDatosCorruptos se retorna cuando un bloque codificado está truncado o mal formado
var ErrDatosCorruptos = errors.New("datos comprimidos corruptos")

// CompresorDeltaDelta codifica tiempos (Unix nanosegundos) como diferencias de
// diferencias. Las series horarias producen delta-delta 0, que ocupa un byte.
//
// Formato: cantidad (uvarint), primer valor (varint), primera delta (varint),
// y luego una delta-delta (varint zigzag) por valor restante.
type CompresorDeltaDelta struct{}

// Comprimir codifica los valores
func (c *CompresorDeltaDelta) Comprimir(valores []int64) ([]byte, error) {
	if len(valores) == 0 {
		return []byte{}, nil
	}

	salida := make([]byte, 0, len(valores)+2*binary.MaxVarintLen64)
	salida = binary.AppendUvarint(salida, uint64(len(valores)))
	salida = binary.AppendVarint(salida, valores[0])
	if len(valores) == 1 {
		return salida, nil
	}

	deltaPrevio := valores[1] - valores[0]
	salida = binary.AppendVarint(salida, deltaPrevio)

	for i := 2; i < len(valores); i++ {
		delta := valores[i] - valores[i-1]
		salida = binary.AppendVarint(salida, delta-deltaPrevio)
		deltaPrevio = delta
	}
	return salida, nil
}

// Descomprimir reconstruye los valores
func (c *CompresorDeltaDelta) Descomprimir(datos []byte) ([]int64, error) {
	if len(datos) == 0 {
		return []int64{}, nil
	}

	pos := 0
	leer := func(campo string) (int64, error) {
		v, n := binary.Varint(datos[pos:])
		if n <= 0 {
			return 0, fmt.Errorf("%w: leyendo %s en byte %d", ErrDatosCorruptos, campo, pos)
		}
		pos += n
		return v, nil
	}

	cantidad, n := binary.Uvarint(datos)
	if n <= 0 || cantidad == 0 {
		return nil, fmt.Errorf("%w: cantidad de valores inválida", ErrDatosCorruptos)
	}
	pos = n

	primero, err := leer("primer valor")
	if err != nil {
		return nil, err
	}
	resultado := make([]int64, 0, cantidad)
	resultado = append(resultado, primero)
	if cantidad == 1 {
		return resultado, nil
	}

	delta, err := leer("primera delta")
	if err != nil {
		return nil, err
	}
	resultado = append(resultado, primero+delta)

	for uint64(len(resultado)) < cantidad {
		dd, err := leer("delta-delta")
		if err != nil {
			return nil, err
		}
		delta += dd
		resultado = append(resultado, resultado[len(resultado)-1]+delta)
	}
	if pos != len(datos) {
		return nil, fmt.Errorf("%w: %d bytes sobrantes", ErrDatosCorruptos, len(datos)-pos)
	}
	return resultado, nil
}
