package compresor

import (
	"fmt"
	"math"
	"math/bits"
)

// CompresorXor implementa la compresión XOR de Gorilla para columnas float64.
// Conserva los bits exactos de cada valor, incluido el NaN que marca un faltante.
//
// Formato por valor después del primero (64 bits crudos):
//
//	0                         igual al anterior
//	1 0 <significativos>      cabe en la ventana anterior
//	1 1 <lz:5> <sig-1:6> <significativos>   ventana nueva
type CompresorXor struct{}

type escritorBits struct {
	bytes []byte
	usado int // bits usados del último byte
}

func (e *escritorBits) bit(b bool) {
	if e.usado == 0 {
		e.bytes = append(e.bytes, 0)
	}
	if b {
		e.bytes[len(e.bytes)-1] |= 1 << (7 - e.usado)
	}
	e.usado = (e.usado + 1) % 8
}

func (e *escritorBits) escribir(valor uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		e.bit(valor&(1<<uint(i)) != 0)
	}
}

type lectorBits struct {
	bytes []byte
	pos   int
}

func (l *lectorBits) bit() (bool, error) {
	if l.pos/8 >= len(l.bytes) {
		return false, fmt.Errorf("%w: fin de datos en bit %d", ErrDatosCorruptos, l.pos)
	}
	b := l.bytes[l.pos/8]&(1<<(7-l.pos%8)) != 0
	l.pos++
	return b, nil
}

func (l *lectorBits) leer(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := l.bit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

func mascara(n int) uint64 {
	if n >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << uint(n)) - 1
}

// Comprimir codifica los valores
func (c *CompresorXor) Comprimir(valores []float64) ([]byte, error) {
	if len(valores) == 0 {
		return []byte{}, nil
	}
	if uint64(len(valores)) > math.MaxUint32 {
		return nil, fmt.Errorf("demasiados valores para un bloque: %d", len(valores))
	}

	e := &escritorBits{}
	e.escribir(uint64(len(valores)), 32)

	anterior := math.Float64bits(valores[0])
	e.escribir(anterior, 64)

	hayVentana := false
	lzPrevio, tzPrevio := 0, 0

	for _, v := range valores[1:] {
		actual := math.Float64bits(v)
		xor := actual ^ anterior
		anterior = actual

		if xor == 0 {
			e.bit(false)
			continue
		}
		e.bit(true)

		lz := bits.LeadingZeros64(xor)
		if lz > 31 {
			lz = 31
		}
		tz := bits.TrailingZeros64(xor)

		if hayVentana && lz >= lzPrevio && tz >= tzPrevio {
			e.bit(false)
			sig := 64 - lzPrevio - tzPrevio
			e.escribir((xor>>uint(tzPrevio))&mascara(sig), sig)
			continue
		}

		e.bit(true)
		sig := 64 - lz - tz
		e.escribir(uint64(lz), 5)
		e.escribir(uint64(sig-1), 6)
		e.escribir((xor>>uint(tz))&mascara(sig), sig)
		hayVentana, lzPrevio, tzPrevio = true, lz, tz
	}

	return e.bytes, nil
}

// Descomprimir reconstruye los valores
func (c *CompresorXor) Descomprimir(datos []byte) ([]float64, error) {
	if len(datos) == 0 {
		return []float64{}, nil
	}

	l := &lectorBits{bytes: datos}
	cantidad, err := l.leer(32)
	if err != nil {
		return nil, err
	}
	if cantidad == 0 {
		return nil, fmt.Errorf("%w: cantidad de valores nula", ErrDatosCorruptos)
	}

	anterior, err := l.leer(64)
	if err != nil {
		return nil, err
	}
	valores := make([]float64, 0, cantidad)
	valores = append(valores, math.Float64frombits(anterior))

	lzPrevio, tzPrevio := 0, 0
	hayVentana := false

	for uint64(len(valores)) < cantidad {
		distinto, err := l.bit()
		if err != nil {
			return nil, err
		}
		if !distinto {
			valores = append(valores, math.Float64frombits(anterior))
			continue
		}

		nueva, err := l.bit()
		if err != nil {
			return nil, err
		}

		var xor uint64
		if !nueva {
			if !hayVentana {
				return nil, fmt.Errorf("%w: ventana reutilizada antes de definirse", ErrDatosCorruptos)
			}
			sig := 64 - lzPrevio - tzPrevio
			s, err := l.leer(sig)
			if err != nil {
				return nil, err
			}
			xor = s << uint(tzPrevio)
		} else {
			lz, err := l.leer(5)
			if err != nil {
				return nil, err
			}
			sigMenosUno, err := l.leer(6)
			if err != nil {
				return nil, err
			}
			sig := int(sigMenosUno) + 1
			tz := 64 - int(lz) - sig
			if tz < 0 {
				return nil, fmt.Errorf("%w: ventana inválida lz=%d sig=%d", ErrDatosCorruptos, lz, sig)
			}
			s, err := l.leer(sig)
			if err != nil {
				return nil, err
			}
			xor = s << uint(tz)
			hayVentana, lzPrevio, tzPrevio = true, int(lz), tz
		}

		anterior ^= xor
		valores = append(valores, math.Float64frombits(anterior))
	}

	return valores, nil
}
