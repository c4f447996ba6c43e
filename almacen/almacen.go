// Package almacen guarda en pebble (sistema de archivos en memoria) las
// instantáneas de los conjuntos cargados y las respuestas ya calculadas para
// cada conjunto. No persiste entre sesiones.
package almacen

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cbiale/calidadaire/compresor"
	"github.com/cbiale/calidadaire/instantanea"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/metricas"
	"github.com/cbiale/calidadaire/tipos"
)

// ErrNoEncontrado se retorna cuando la clave no existe en el almacén
var ErrNoEncontrado = errors.New("no encontrado en el almacén")

const (
	prefijoConjunto = "conjunto/"
	prefijoMemo     = "memo/"
)

// Configuracion del almacén
type Configuracion struct {
	Compresion string `koanf:"compresion" validate:"omitempty,oneof=ninguna gzip lz4 snappy zstd"`
}

// Almacen envuelve una base pebble en memoria. Es seguro para uso concurrente.
type Almacen struct {
	db         *pebble.DB
	compresion compresor.TipoCompresionBloque
	bloque     compresor.CompresorBloque
	log        zerolog.Logger
}

// Abrir crea un almacén vacío en memoria
func Abrir(cfg Configuracion) (*Almacen, error) {
	tipo, err := compresor.ParsearTipoCompresion(cfg.Compresion)
	if err != nil {
		return nil, err
	}

	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("error abriendo pebble: %w", err)
	}

	a := &Almacen{
		db:         db,
		compresion: tipo,
		bloque:     compresor.NuevoCompresorBloque(tipo),
		log:        logging.Con("almacen"),
	}
	a.log.Debug().Str("compresion", tipo.String()).Msg("almacén abierto")
	return a, nil
}

// Cerrar libera la base
func (a *Almacen) Cerrar() error {
	return a.db.Close()
}

// ==== INSTANTANEAS ====

func claveConjunto(id uuid.UUID) []byte {
	return []byte(prefijoConjunto + id.String())
}

// GuardarInstantanea guarda (o reemplaza) la instantánea bajo su id
func (a *Almacen) GuardarInstantanea(inst *instantanea.Instantanea) error {
	datos, err := inst.Serializar(a.compresion)
	if err != nil {
		return err
	}
	if err := a.db.Set(claveConjunto(inst.ID), datos, pebble.Sync); err != nil {
		return fmt.Errorf("error guardando conjunto %s: %w", inst.ID, err)
	}
	a.log.Info().
		Str("conjunto", inst.ID.String()).
		Int("filas", inst.Filas).
		Int("bytes", len(datos)).
		Msg("instantánea guardada")
	return nil
}

// CargarInstantanea lee la instantánea del conjunto
func (a *Almacen) CargarInstantanea(id uuid.UUID) (*instantanea.Instantanea, error) {
	datos, err := a.leer(claveConjunto(id))
	if err != nil {
		return nil, fmt.Errorf("conjunto %s: %w", id, err)
	}
	return instantanea.Deserializar(datos)
}

// Conjuntos lista los ids de los conjuntos guardados, en orden de clave
func (a *Almacen) Conjuntos() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	err := a.recorrer([]byte(prefijoConjunto), func(clave, _ []byte) error {
		id, err := uuid.ParseBytes(bytes.TrimPrefix(clave, []byte(prefijoConjunto)))
		if err != nil {
			return fmt.Errorf("clave de conjunto inválida %q: %w", clave, err)
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// EliminarConjunto borra la instantánea y todas sus respuestas memorizadas
func (a *Almacen) EliminarConjunto(id uuid.UUID) error {
	if err := a.db.Delete(claveConjunto(id), pebble.Sync); err != nil {
		return fmt.Errorf("error eliminando conjunto %s: %w", id, err)
	}
	return a.InvalidarMemos(id)
}

// ==== MEMO ====

func prefijoMemoConjunto(id uuid.UUID) []byte {
	return []byte(prefijoMemo + id.String() + "/")
}

func claveMemo(id uuid.UUID, clave string) []byte {
	return append(prefijoMemoConjunto(id), clave...)
}

// GuardarMemo guarda bytes arbitrarios para (conjunto, clave), comprimidos en bloque
func (a *Almacen) GuardarMemo(id uuid.UUID, clave string, datos []byte) error {
	comprimido, err := a.bloque.Comprimir(datos)
	if err != nil {
		return err
	}
	if err := a.db.Set(claveMemo(id, clave), comprimido, pebble.NoSync); err != nil {
		return fmt.Errorf("error guardando memo: %w", err)
	}
	return nil
}

// ObtenerMemo retorna los bytes guardados para (conjunto, clave) o ErrNoEncontrado
func (a *Almacen) ObtenerMemo(id uuid.UUID, clave string) ([]byte, error) {
	comprimido, err := a.leer(claveMemo(id, clave))
	if err != nil {
		metricas.RegistrarCache(false)
		return nil, err
	}
	metricas.RegistrarCache(true)
	return a.bloque.Descomprimir(comprimido)
}

// InvalidarMemos borra todas las respuestas memorizadas del conjunto
func (a *Almacen) InvalidarMemos(id uuid.UUID) error {
	inicio := prefijoMemoConjunto(id)
	if err := a.db.DeleteRange(inicio, limiteSuperior(inicio), pebble.Sync); err != nil {
		return fmt.Errorf("error invalidando memos de %s: %w", id, err)
	}
	return nil
}

// ContarMemos retorna la cantidad de respuestas memorizadas del conjunto
func (a *Almacen) ContarMemos(id uuid.UUID) (int, error) {
	n := 0
	err := a.recorrer(prefijoMemoConjunto(id), func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// Memorizar retorna el valor guardado para (conjunto, clave) o lo calcula con
// calcular y lo guarda. Los errores de calcular no se memorizan.
func Memorizar[T any](a *Almacen, id uuid.UUID, clave string, calcular func() (T, error)) (T, bool, error) {
	var valor T

	datos, err := a.ObtenerMemo(id, clave)
	if err == nil {
		if err := tipos.DeserializarGob(datos, &valor); err == nil {
			return valor, true, nil
		}
		a.log.Warn().Str("clave", clave).Msg("memo ilegible, se recalcula")
	} else if !errors.Is(err, ErrNoEncontrado) {
		return valor, false, err
	}

	valor, err = calcular()
	if err != nil {
		return valor, false, err
	}

	datos, err = tipos.SerializarGob(valor)
	if err != nil {
		return valor, false, fmt.Errorf("error serializando memo: %w", err)
	}
	if err := a.GuardarMemo(id, clave, datos); err != nil {
		a.log.Warn().Err(err).Str("clave", clave).Msg("no se pudo memorizar la respuesta")
	}
	return valor, false, nil
}

// ==== AUXILIARES ====

func (a *Almacen) leer(clave []byte) ([]byte, error) {
	valor, closer, err := a.db.Get(clave)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("error leyendo %q: %w", clave, err)
	}
	defer closer.Close()
	return append([]byte{}, valor...), nil
}

func (a *Almacen) recorrer(prefijo []byte, fn func(clave, valor []byte) error) error {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: prefijo,
		UpperBound: limiteSuperior(prefijo),
	})
	if err != nil {
		return fmt.Errorf("error creando iterador: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// limiteSuperior retorna la primera clave mayor que todas las que empiezan con prefijo
func limiteSuperior(prefijo []byte) []byte {
	fin := append([]byte{}, prefijo...)
	for i := len(fin) - 1; i >= 0; i-- {
		if fin[i] < 0xff {
			fin[i]++
			return fin[:i+1]
		}
	}
	return nil
}
