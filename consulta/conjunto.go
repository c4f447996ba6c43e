package consulta

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cbiale/calidadaire/almacen"
	"github.com/cbiale/calidadaire/cargador"
	"github.com/cbiale/calidadaire/instantanea"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/metricas"
	"github.com/cbiale/calidadaire/normalizador"
	"github.com/cbiale/calidadaire/tipos"
)

// Conjunto es un conjunto de registros normalizado e inmutable
type Conjunto struct {
	ID           uuid.UUID
	Fuente       string
	Registros    []tipos.Registro
	Descartadas  int
	Coerciones   int
	Advertencias []string
}

// Preparar normaliza las filas cargadas, calcula la identidad del conjunto y, con
// almacén, guarda su instantánea
func Preparar(cargado cargador.Conjunto, opciones normalizador.Opciones, alm *almacen.Almacen) (*Conjunto, error) {
	log := logging.Con("consulta")

	resultado, err := normalizador.Normalizar(cargado.Filas, opciones)
	if err != nil {
		return nil, err
	}
	// las filas irregulares del archivo cuentan junto a las que descarta el normalizador
	descartadas := cargado.Descartadas + resultado.Descartadas
	metricas.RegistrarNormalizacion(descartadas, resultado.Coerciones)
	metricas.RegistrarConjunto(len(resultado.Registros))

	inst, err := instantanea.Codificar(resultado.Registros, cargado.Fuente)
	if err != nil {
		return nil, fmt.Errorf("error codificando instantánea: %w", err)
	}
	if alm != nil {
		if err := alm.GuardarInstantanea(inst); err != nil {
			return nil, err
		}
	}

	for _, adv := range resultado.Advertencias {
		log.Warn().Str("fuente", cargado.Fuente).Msg(adv)
	}
	log.Info().
		Str("conjunto", inst.ID.String()).
		Int("registros", len(resultado.Registros)).
		Int("descartadas", descartadas).
		Int("coerciones", resultado.Coerciones).
		Msg("conjunto preparado")

	return &Conjunto{
		ID:           inst.ID,
		Fuente:       cargado.Fuente,
		Registros:    resultado.Registros,
		Descartadas:  descartadas,
		Coerciones:   resultado.Coerciones,
		Advertencias: resultado.Advertencias,
	}, nil
}

// Restaurar reconstruye un conjunto desde su instantánea guardada. El reporte de
// normalización no se conserva.
func Restaurar(alm *almacen.Almacen, id uuid.UUID) (*Conjunto, error) {
	inst, err := alm.CargarInstantanea(id)
	if err != nil {
		return nil, err
	}
	registros, err := inst.Decodificar()
	if err != nil {
		return nil, err
	}
	metricas.RegistrarConjunto(len(registros))
	return &Conjunto{ID: inst.ID, Fuente: inst.Fuente, Registros: registros}, nil
}
