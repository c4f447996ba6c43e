// Package instantanea codifica un conjunto de registros normalizados en forma
// columnar: una columna de tiempos delta-delta y una columna XOR por magnitud.
// El identificador del conjunto deriva del contenido, de modo que dos cargas
// idénticas comparten la misma caché de respuestas.
package instantanea

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cbiale/calidadaire/compresor"
	"github.com/cbiale/calidadaire/tipos"
)

// EspacioConjuntos es el espacio de nombres de los identificadores uuid v5
var EspacioConjuntos = uuid.NewSHA1(uuid.NameSpaceURL, []byte("calidadaire/conjuntos"))

// ErrColumnas se retorna cuando las columnas no tienen la misma cantidad de filas
var ErrColumnas = errors.New("columnas de la instantánea inconsistentes")

// Instantanea es la representación columnar de un conjunto de registros
type Instantanea struct {
	ID       uuid.UUID
	Fuente   string
	Creada   time.Time
	Filas    int
	Tiempos  []byte                      // delta-delta de Unix nanosegundos
	Columnas [tipos.NumMagnitudes][]byte // XOR, en el orden de tipos.Magnitudes
}

// Codificar construye la instantánea de los registros en su orden actual
func Codificar(registros []tipos.Registro, fuente string) (*Instantanea, error) {
	tiempos := make([]int64, len(registros))
	columnas := make([][]float64, tipos.NumMagnitudes)
	for i := range columnas {
		columnas[i] = make([]float64, len(registros))
	}

	for i, r := range registros {
		tiempos[i] = r.Tiempo.UnixNano()
		for j := range columnas {
			columnas[j][i] = r.Valores[j]
		}
	}

	inst := &Instantanea{
		Fuente: fuente,
		Creada: time.Now().UTC(),
		Filas:  len(registros),
	}

	var err error
	inst.Tiempos, err = (&compresor.CompresorDeltaDelta{}).Comprimir(tiempos)
	if err != nil {
		return nil, fmt.Errorf("error comprimiendo tiempos: %w", err)
	}

	xor := &compresor.CompresorXor{}
	for j := range columnas {
		inst.Columnas[j], err = xor.Comprimir(columnas[j])
		if err != nil {
			return nil, fmt.Errorf("error comprimiendo columna %s: %w", tipos.Magnitudes[j], err)
		}
	}

	inst.ID = uuid.NewSHA1(EspacioConjuntos, inst.huella())
	return inst, nil
}

// huella resume el contenido codificado; no depende de la fuente ni de la fecha de creación
func (i *Instantanea) huella() []byte {
	h := sha256.New()
	h.Write(i.Tiempos)
	for _, c := range i.Columnas {
		h.Write([]byte{0})
		h.Write(c)
	}
	return h.Sum(nil)
}

// Decodificar reconstruye los registros, con su calendario derivado
func (i *Instantanea) Decodificar() ([]tipos.Registro, error) {
	tiempos, err := (&compresor.CompresorDeltaDelta{}).Descomprimir(i.Tiempos)
	if err != nil {
		return nil, fmt.Errorf("error descomprimiendo tiempos: %w", err)
	}
	if len(tiempos) != i.Filas {
		return nil, fmt.Errorf("%w: %d tiempos para %d filas", ErrColumnas, len(tiempos), i.Filas)
	}

	var columnas [tipos.NumMagnitudes][]float64
	xor := &compresor.CompresorXor{}
	for j := range columnas {
		columnas[j], err = xor.Descomprimir(i.Columnas[j])
		if err != nil {
			return nil, fmt.Errorf("error descomprimiendo columna %s: %w", tipos.Magnitudes[j], err)
		}
		if len(columnas[j]) != i.Filas {
			return nil, fmt.Errorf("%w: columna %s con %d valores para %d filas",
				ErrColumnas, tipos.Magnitudes[j], len(columnas[j]), i.Filas)
		}
	}

	registros := make([]tipos.Registro, i.Filas)
	for f := range registros {
		var valores [tipos.NumMagnitudes]float64
		for j := range valores {
			valores[j] = columnas[j][f]
		}
		registros[f] = tipos.NuevoRegistro(time.Unix(0, tiempos[f]), valores)
	}
	return registros, nil
}

// TamanoCodificado retorna los bytes ocupados por las columnas
func (i *Instantanea) TamanoCodificado() int {
	total := len(i.Tiempos)
	for _, c := range i.Columnas {
		total += len(c)
	}
	return total
}

// ==== SERIALIZACION ====

// sobre es la forma persistida: la instantánea en gob comprimida en bloque
type sobre struct {
	Compresion compresor.TipoCompresionBloque
	Datos      []byte
}

// Serializar codifica la instantánea en gob y la comprime con el tipo indicado
func (i *Instantanea) Serializar(tipo compresor.TipoCompresionBloque) ([]byte, error) {
	crudo, err := tipos.SerializarGob(i)
	if err != nil {
		return nil, fmt.Errorf("error serializando instantánea: %w", err)
	}
	comprimido, err := compresor.NuevoCompresorBloque(tipo).Comprimir(crudo)
	if err != nil {
		return nil, err
	}
	return tipos.SerializarGob(sobre{Compresion: tipo, Datos: comprimido})
}

// Deserializar es la inversa de Serializar
func Deserializar(datos []byte) (*Instantanea, error) {
	var s sobre
	if err := tipos.DeserializarGob(datos, &s); err != nil {
		return nil, fmt.Errorf("error leyendo sobre de instantánea: %w", err)
	}
	crudo, err := compresor.NuevoCompresorBloque(s.Compresion).Descomprimir(s.Datos)
	if err != nil {
		return nil, err
	}
	var inst Instantanea
	if err := tipos.DeserializarGob(crudo, &inst); err != nil {
		return nil, fmt.Errorf("error deserializando instantánea: %w", err)
	}
	return &inst, nil
}

// Igual compara dos conjuntos de registros valor a valor; NaN es igual a NaN
func Igual(a, b []tipos.Registro) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Tiempo.Equal(b[i].Tiempo) {
			return false
		}
		for j := range a[i].Valores {
			if math.Float64bits(a[i].Valores[j]) != math.Float64bits(b[i].Valores[j]) &&
				!(math.IsNaN(a[i].Valores[j]) && math.IsNaN(b[i].Valores[j])) {
				return false
			}
		}
	}
	return true
}
