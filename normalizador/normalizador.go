// Package normalizador convierte filas tokenizadas del archivo de la estación en
// registros tipados. Las filas con fecha u hora inválida se descartan y los valores
// numéricos faltantes, inválidos o negativos se fijan en 0.
package normalizador

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cbiale/calidadaire/tipos"
)

// FormatoFecha es el orden de los campos de la columna de fecha
type FormatoFecha string

const (
	FormatoMDA FormatoFecha = "MM/DD/YYYY"
	FormatoDMA FormatoFecha = "DD/MM/YYYY"
)

// ErrFormatoFecha se retorna cuando las opciones piden un formato no soportado
var ErrFormatoFecha = errors.New("formato de fecha no soportado")

// maxAdvertencias limita los motivos de descarte que se guardan en el resultado
const maxAdvertencias = 20

// Opciones controla la lectura de las filas
type Opciones struct {
	Formato       FormatoFecha // vacío = FormatoMDA
	ColumnaFecha  string       // vacío = "Date"
	ColumnaHora   string       // vacío = "Time"
	SeparadorHora string       // vacío = ":"; el export original de UCI usa "."
	ComaDecimal   bool         // acepta "2,6" como 2.6
}

// AplicarDefaults establece valores por defecto en campos opcionales
func (o *Opciones) AplicarDefaults() {
	if o.Formato == "" {
		o.Formato = FormatoMDA
	}
	if o.ColumnaFecha == "" {
		o.ColumnaFecha = "Date"
	}
	if o.ColumnaHora == "" {
		o.ColumnaHora = "Time"
	}
	if o.SeparadorHora == "" {
		o.SeparadorHora = ":"
	}
}

// Validar verifica que el formato de fecha sea uno de los soportados
func (o Opciones) Validar() error {
	switch o.Formato {
	case FormatoMDA, FormatoDMA:
	default:
		return fmt.Errorf("%w: '%s'", ErrFormatoFecha, o.Formato)
	}
	if o.SeparadorHora == "/" {
		return fmt.Errorf("separador de hora inválido: '%s'", o.SeparadorHora)
	}
	return nil
}

// Resultado contiene los registros normalizados y el reporte de la pasada
type Resultado struct {
	Registros    []tipos.Registro
	Descartadas  int      // filas con fecha u hora inválida
	Coerciones   int      // valores fijados en 0
	Advertencias []string // motivos de descarte, como máximo maxAdvertencias
}

// Normalizar convierte las filas en registros preservando su orden.
// Solo retorna error si las opciones son inválidas; una fila mal formada se descarta.
func Normalizar(filas []tipos.Fila, opciones Opciones) (Resultado, error) {
	opciones.AplicarDefaults()
	if err := opciones.Validar(); err != nil {
		return Resultado{}, err
	}

	resultado := Resultado{Registros: make([]tipos.Registro, 0, len(filas))}

	for i, fila := range filas {
		instante, err := parsearInstante(fila[opciones.ColumnaFecha], fila[opciones.ColumnaHora], opciones)
		if err != nil {
			resultado.Descartadas++
			if len(resultado.Advertencias) < maxAdvertencias {
				resultado.Advertencias = append(resultado.Advertencias, fmt.Sprintf("fila %d: %v", i, err))
			}
			continue
		}

		var valores [tipos.NumMagnitudes]float64
		for _, c := range tipos.Magnitudes {
			v, valido := parsearValor(fila[c.Columna()], opciones.ComaDecimal)
			if !valido {
				resultado.Coerciones++
			}
			valores[c.Indice()] = v
		}

		resultado.Registros = append(resultado.Registros, tipos.NuevoRegistro(instante, valores))
	}

	return resultado, nil
}

// parsearValor retorna el valor y si era válido. Los inválidos, no finitos o negativos valen 0.
func parsearValor(texto string, comaDecimal bool) (float64, bool) {
	texto = limpiar(texto)
	if texto == "" {
		return 0, false
	}
	if comaDecimal {
		texto = strings.Replace(texto, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(texto, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// parsearInstante combina fecha y hora en un instante UTC
func parsearInstante(fecha, hora string, opciones Opciones) (time.Time, error) {
	anio, mes, dia, err := parsearFecha(limpiar(fecha), opciones.Formato)
	if err != nil {
		return time.Time{}, err
	}
	h, m, s, err := parsearHora(limpiar(hora), opciones.SeparadorHora)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(anio, time.Month(mes), dia, h, m, s, 0, time.UTC), nil
}

func parsearFecha(texto string, formato FormatoFecha) (anio, mes, dia int, err error) {
	partes := strings.Split(texto, "/")
	if len(partes) != 3 {
		return 0, 0, 0, fmt.Errorf("fecha inválida: '%s'", texto)
	}

	primero, segundo := partes[0], partes[1]
	if formato == FormatoDMA {
		primero, segundo = segundo, primero
	}
	if mes, err = parsearEntero(primero, 1, 2); err != nil {
		return 0, 0, 0, fmt.Errorf("mes inválido en '%s': %w", texto, err)
	}
	if dia, err = parsearEntero(segundo, 1, 2); err != nil {
		return 0, 0, 0, fmt.Errorf("día inválido en '%s': %w", texto, err)
	}
	if anio, err = parsearEntero(partes[2], 4, 4); err != nil {
		return 0, 0, 0, fmt.Errorf("año inválido en '%s': %w", texto, err)
	}

	// time.Date normaliza 31/02 a marzo; se exige que la fecha exista
	t := time.Date(anio, time.Month(mes), dia, 0, 0, 0, 0, time.UTC)
	if mes < 1 || mes > 12 || t.Day() != dia || int(t.Month()) != mes {
		return 0, 0, 0, fmt.Errorf("fecha inexistente: '%s'", texto)
	}
	return anio, mes, dia, nil
}

func parsearHora(texto, separador string) (h, m, s int, err error) {
	partes := strings.Split(texto, separador)
	if len(partes) < 2 || len(partes) > 3 {
		return 0, 0, 0, fmt.Errorf("hora inválida: '%s'", texto)
	}

	limites := []int{23, 59, 59}
	campos := make([]int, 3)
	for i, p := range partes {
		v, err := parsearEntero(p, 1, 2)
		if err != nil || v > limites[i] {
			return 0, 0, 0, fmt.Errorf("hora inválida: '%s'", texto)
		}
		campos[i] = v
	}
	return campos[0], campos[1], campos[2], nil
}

// parsearEntero acepta solo dígitos, con una longitud entre minimo y maximo
func parsearEntero(texto string, minimo, maximo int) (int, error) {
	if len(texto) < minimo || len(texto) > maximo {
		return 0, fmt.Errorf("longitud inválida: '%s'", texto)
	}
	for _, r := range texto {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("no numérico: '%s'", texto)
		}
	}
	return strconv.Atoi(texto)
}

func limpiar(texto string) string {
	return strings.Trim(strings.TrimSpace(texto), `"'`)
}
