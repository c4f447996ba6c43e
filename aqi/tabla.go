package aqi

import (
	"errors"
	"fmt"

	"github.com/cbiale/calidadaire/tipos"
)

// IndiceMaximo es el techo de la escala; las concentraciones por encima de la tabla saturan aquí
const IndiceMaximo = 500

var (
	// ErrSinTabla se retorna para magnitudes sin tabla de índice (T, AH)
	ErrSinTabla = errors.New("la magnitud no tiene tabla de índice")
	// ErrTablaInvalida se retorna cuando una tabla no cubre la escala de forma contigua
	ErrTablaInvalida = errors.New("tabla de índice inválida")
)

// Tabla es la secuencia ordenada de segmentos de un contaminante
type Tabla struct {
	Contaminante tipos.Contaminante
	Segmentos    []tipos.PuntoCorte
}

// TablaPara retorna la tabla del contaminante
func TablaPara(c tipos.Contaminante) (Tabla, error) {
	if !c.TieneTabla() {
		return Tabla{}, fmt.Errorf("%w: '%s'", ErrSinTabla, c)
	}
	return Tabla{Contaminante: c, Segmentos: c.PuntosCorte()}, nil
}

// Validar verifica que la tabla empiece en 0, sea creciente sin solapes,
// tenga rangos de índice contiguos y termine en IndiceMaximo.
func (t Tabla) Validar() error {
	if len(t.Segmentos) == 0 {
		return fmt.Errorf("%w: '%s' sin segmentos", ErrTablaInvalida, t.Contaminante)
	}
	if t.Segmentos[0].CBajo != 0 || t.Segmentos[0].IBajo != 0 {
		return fmt.Errorf("%w: '%s' no empieza en 0", ErrTablaInvalida, t.Contaminante)
	}

	for i, s := range t.Segmentos {
		if s.CBajo >= s.CAlto {
			return fmt.Errorf("%w: '%s' segmento %d con concentración no creciente [%g, %g]",
				ErrTablaInvalida, t.Contaminante, i, s.CBajo, s.CAlto)
		}
		if s.IBajo >= s.IAlto {
			return fmt.Errorf("%w: '%s' segmento %d con índice no creciente [%d, %d]",
				ErrTablaInvalida, t.Contaminante, i, s.IBajo, s.IAlto)
		}
		if i == 0 {
			continue
		}
		anterior := t.Segmentos[i-1]
		if s.CBajo <= anterior.CAlto {
			return fmt.Errorf("%w: '%s' segmento %d se solapa con el anterior",
				ErrTablaInvalida, t.Contaminante, i)
		}
		if s.IBajo != anterior.IAlto+1 {
			return fmt.Errorf("%w: '%s' segmento %d no continúa el índice (%d después de %d)",
				ErrTablaInvalida, t.Contaminante, i, s.IBajo, anterior.IAlto)
		}
	}

	if ultimo := t.Segmentos[len(t.Segmentos)-1]; ultimo.IAlto != IndiceMaximo {
		return fmt.Errorf("%w: '%s' termina en %d en lugar de %d",
			ErrTablaInvalida, t.Contaminante, ultimo.IAlto, IndiceMaximo)
	}
	return nil
}

// ConcentracionMaxima retorna el límite superior de la tabla
func (t Tabla) ConcentracionMaxima() float64 {
	if len(t.Segmentos) == 0 {
		return 0
	}
	return t.Segmentos[len(t.Segmentos)-1].CAlto
}
