// Package agregador agrupa registros normalizados por unidad de calendario y produce
// un bucket por grupo con la suma de cada magnitud y el conteo de registros.
// Las claves se toman de los campos de calendario precalculados de cada registro.
package agregador

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/cbiale/calidadaire/tipos"
)

var (
	// ErrGranularidad se retorna para granularidades desconocidas
	ErrGranularidad = errors.New("granularidad no soportada")
	// ErrMesRequerido se retorna cuando una granularidad acotada al mes no recibe año y mes
	ErrMesRequerido = errors.New("la granularidad requiere año y mes")
	// ErrParametros agrupa el resto de parámetros inválidos
	ErrParametros = errors.New("parámetros de agregación inválidos")
)

// LimiteMuestraDefecto es la cantidad de registros que usa la granularidad temperatura
const LimiteMuestraDefecto = 1000

// Parametros configura una agregación
type Parametros struct {
	Granularidad  Granularidad
	Contaminantes []tipos.Contaminante // vacío = los seis contaminantes
	Anio          int                  // requerido en granularidades acotadas al mes
	Mes           int                  // 1-12, requerido en granularidades acotadas al mes
	InicioSemana  int                  // ISO 8601: 1 = lunes ... 7 = domingo; 0 = lunes
	LimiteMuestra int                  // granularidad temperatura; 0 = LimiteMuestraDefecto
}

// AplicarDefaults establece valores por defecto en campos opcionales
func (p *Parametros) AplicarDefaults() {
	if len(p.Contaminantes) == 0 {
		p.Contaminantes = tipos.Contaminantes
	}
	if p.InicioSemana == 0 {
		p.InicioSemana = 1
	}
	if p.LimiteMuestra == 0 {
		p.LimiteMuestra = LimiteMuestraDefecto
	}
}

// Validar verifica los parámetros después de aplicar defaults
func (p Parametros) Validar() error {
	if _, err := ParsearGranularidad(string(p.Granularidad)); err != nil {
		return err
	}
	if p.Granularidad.AcotadaAlMes() && (p.Anio <= 0 || p.Mes < 1 || p.Mes > 12) {
		return fmt.Errorf("%w: '%s' (año=%d, mes=%d)", ErrMesRequerido, p.Granularidad, p.Anio, p.Mes)
	}
	if p.InicioSemana < 1 || p.InicioSemana > 7 {
		return fmt.Errorf("%w: inicio de semana %d fuera de 1-7", ErrParametros, p.InicioSemana)
	}
	if p.LimiteMuestra < 0 {
		return fmt.Errorf("%w: límite de muestra negativo", ErrParametros)
	}
	for _, c := range p.Contaminantes {
		if c.Indice() < 0 {
			return fmt.Errorf("%w: magnitud desconocida", ErrParametros)
		}
	}
	return nil
}

// Agregar agrupa los registros según la granularidad.
// dia-semana, hora y tipo-dia emiten siempre todas sus claves (vacías con suma 0);
// el resto emite solo las claves observadas.
func Agregar(registros []tipos.Registro, p Parametros) ([]tipos.Bucket, error) {
	p.AplicarDefaults()
	if err := p.Validar(); err != nil {
		return nil, err
	}

	switch p.Granularidad {
	case GranularidadAnioMes:
		return agruparPorClave(registros, p, func(r tipos.Registro) string {
			return r.Anio + "-" + r.Mes
		}), nil

	case GranularidadFecha:
		return agruparPorClave(registros, p, func(r tipos.Registro) string {
			return r.Anio + "-" + r.Mes + "-" + r.Dia
		}), nil

	case GranularidadMes:
		return agruparPorClave(registros, p, func(r tipos.Registro) string {
			return r.Mes
		}), nil

	case GranularidadDiaDelMes:
		return agruparPorClave(registros, p, func(r tipos.Registro) string {
			return r.Dia
		}), nil

	case GranularidadDiaSemana:
		return agruparDiaSemana(registros, p), nil

	case GranularidadSemanaDelMes:
		return agruparSemanaDelMes(registros, p), nil

	case GranularidadHora:
		return agruparHora(registros, p), nil

	case GranularidadTipoDia:
		return agruparTipoDia(registros, p), nil

	case GranularidadTemperatura:
		return agruparTemperatura(registros, p), nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrGranularidad, p.Granularidad)
}

// ============================================================================
// ACUMULADOR
// ============================================================================

// acumulador mantiene los buckets en el orden en que aparece cada clave
type acumulador struct {
	contaminantes []tipos.Contaminante
	buckets       map[string]*tipos.Bucket
	orden         []string
}

// nuevoAcumulador crea el acumulador con claves fijas ya emitidas en ese orden
func nuevoAcumulador(contaminantes []tipos.Contaminante, clavesFijas ...string) *acumulador {
	a := &acumulador{
		contaminantes: contaminantes,
		buckets:       make(map[string]*tipos.Bucket, len(clavesFijas)),
	}
	for _, clave := range clavesFijas {
		a.bucket(clave)
	}
	return a
}

func (a *acumulador) bucket(clave string) *tipos.Bucket {
	b, existe := a.buckets[clave]
	if !existe {
		nuevo := tipos.NuevoBucket(clave, a.contaminantes)
		b = &nuevo
		a.buckets[clave] = b
		a.orden = append(a.orden, clave)
	}
	return b
}

// sumar agrega el registro al bucket; un valor faltante aporta 0
func (a *acumulador) sumar(clave string, r tipos.Registro) {
	b := a.bucket(clave)
	b.Conteo++
	for _, c := range a.contaminantes {
		if r.Presente(c) {
			b.Sumas[c] += r.Valor(c)
		}
	}
}

// resultado retorna los buckets en el orden de las claves
func (a *acumulador) resultado() []tipos.Bucket {
	buckets := make([]tipos.Bucket, 0, len(a.orden))
	for _, clave := range a.orden {
		buckets = append(buckets, *a.buckets[clave])
	}
	return buckets
}

// ============================================================================
// GRANULARIDADES
// ============================================================================

// enMes retorna un filtro por los campos de calendario del mes pedido.
// Con año o mes en 0 no filtra esa parte.
func enMes(anio, mes int) func(tipos.Registro) bool {
	claveAnio := fmt.Sprintf("%04d", anio)
	claveMes := fmt.Sprintf("%02d", mes)
	return func(r tipos.Registro) bool {
		return (anio == 0 || r.Anio == claveAnio) && (mes == 0 || r.Mes == claveMes)
	}
}

// agruparPorClave emite solo claves observadas, en orden ascendente.
// Las claves son de ancho fijo, por lo que el orden lexicográfico es el cronológico.
func agruparPorClave(registros []tipos.Registro, p Parametros, claveDe func(tipos.Registro) string) []tipos.Bucket {
	incluido := enMes(p.Anio, p.Mes)
	a := nuevoAcumulador(p.Contaminantes)
	for _, r := range registros {
		if incluido(r) {
			a.sumar(claveDe(r), r)
		}
	}
	sort.Strings(a.orden)
	return a.resultado()
}

// diasDesde retorna los nombres de los siete días empezando por el día ISO indicado
func diasDesde(inicioISO int) []string {
	dias := make([]string, 7)
	for i := range dias {
		dias[i] = time.Weekday((inicioISO + i) % 7).String()
	}
	return dias
}

// agruparDiaSemana ordena siempre de lunes a domingo; InicioSemana solo afecta
// a las ventanas de semana-del-mes
func agruparDiaSemana(registros []tipos.Registro, p Parametros) []tipos.Bucket {
	incluido := enMes(p.Anio, p.Mes)
	a := nuevoAcumulador(p.Contaminantes, diasDesde(1)...)
	for _, r := range registros {
		if incluido(r) {
			a.sumar(r.DiaSemana, r)
		}
	}
	return a.resultado()
}

// agruparSemanaDelMes usa ventanas de 7 días que empiezan en el inicio del mes
// llevado hacia atrás hasta el día de inicio de semana. Se omiten ventanas vacías
// pero cada una conserva su número.
func agruparSemanaDelMes(registros []tipos.Registro, p Parametros) []tipos.Bucket {
	primero := time.Date(p.Anio, time.Month(p.Mes), 1, 0, 0, 0, 0, time.UTC)
	desfase := (diaISO(primero.Weekday()) - p.InicioSemana + 7) % 7

	incluido := enMes(p.Anio, p.Mes)
	semanas := make(map[int]bool)
	a := nuevoAcumulador(p.Contaminantes)
	for _, r := range registros {
		if !incluido(r) {
			continue
		}
		dia, err := strconv.Atoi(r.Dia)
		if err != nil {
			continue
		}
		semana := (desfase+dia-1)/7 + 1
		semanas[semana] = true
		a.sumar(claveSemana(semana), r)
	}

	numeros := make([]int, 0, len(semanas))
	for n := range semanas {
		numeros = append(numeros, n)
	}
	sort.Ints(numeros)
	a.orden = a.orden[:0]
	for _, n := range numeros {
		a.orden = append(a.orden, claveSemana(n))
	}
	return a.resultado()
}

func claveSemana(n int) string {
	return fmt.Sprintf("Week %d", n)
}

// diaISO convierte time.Weekday a la numeración ISO (lunes = 1, domingo = 7)
func diaISO(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func agruparHora(registros []tipos.Registro, p Parametros) []tipos.Bucket {
	horas := make([]string, 24)
	for h := range horas {
		horas[h] = claveHora(h)
	}
	incluido := enMes(p.Anio, p.Mes)
	a := nuevoAcumulador(p.Contaminantes, horas...)
	for _, r := range registros {
		if incluido(r) {
			a.sumar(claveHora(r.Hora), r)
		}
	}
	return a.resultado()
}

func claveHora(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

const (
	ClaveDiaHabil    = "Weekday"
	ClaveFinDeSemana = "Weekend"
)

func agruparTipoDia(registros []tipos.Registro, p Parametros) []tipos.Bucket {
	incluido := enMes(p.Anio, p.Mes)
	a := nuevoAcumulador(p.Contaminantes, ClaveDiaHabil, ClaveFinDeSemana)
	for _, r := range registros {
		if !incluido(r) {
			continue
		}
		if r.FinDeSemana {
			a.sumar(ClaveFinDeSemana, r)
		} else {
			a.sumar(ClaveDiaHabil, r)
		}
	}
	return a.resultado()
}

// agruparTemperatura agrupa por temperatura redondeada. Omite registros con
// temperatura 0 o sin ningún contaminante distinto de 0, y usa solo los primeros
// LimiteMuestra registros elegibles.
func agruparTemperatura(registros []tipos.Registro, p Parametros) []tipos.Bucket {
	incluido := enMes(p.Anio, p.Mes)
	a := nuevoAcumulador(p.Contaminantes)
	usados := 0
	for _, r := range registros {
		if usados >= p.LimiteMuestra {
			break
		}
		if !incluido(r) || !r.Presente(tipos.Temperatura) {
			continue
		}
		temperatura := int(math.Round(r.Valor(tipos.Temperatura)))
		if temperatura == 0 || !algunoDistintoDeCero(r, p.Contaminantes) {
			continue
		}
		a.sumar(strconv.Itoa(temperatura), r)
		usados++
	}

	sort.Slice(a.orden, func(i, j int) bool {
		ti, _ := strconv.Atoi(a.orden[i])
		tj, _ := strconv.Atoi(a.orden[j])
		return ti < tj
	})
	return a.resultado()
}

func algunoDistintoDeCero(r tipos.Registro, contaminantes []tipos.Contaminante) bool {
	for _, c := range contaminantes {
		if r.Presente(c) && r.Valor(c) != 0 {
			return true
		}
	}
	return false
}
