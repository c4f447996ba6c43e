package despachador

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cbiale/calidadaire/consulta"
	"github.com/cbiale/calidadaire/logging"
)

// ============================================================================
// TIPOS DE RESPUESTA DE LA API REST
// La consulta responde con consulta.Respuesta; aquí solo van los tipos propios
// de la API
// ============================================================================

// ErrorResponse cuerpo de los errores que no vienen de una consulta
type ErrorResponse struct {
	Error string `json:"error"`
}

// SaludResponse respuesta del endpoint /api/salud
type SaludResponse struct {
	Estado   string `json:"estado"`
	Conjunto string `json:"conjunto"`
}

// OperacionesResponse respuesta del endpoint /api/operaciones
type OperacionesResponse struct {
	Operaciones []consulta.Operacion `json:"operaciones"`
}

// escribirJSON serializa con go-json y escribe el código de estado
func escribirJSON(w http.ResponseWriter, estado int, v any) {
	datos, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Error serializando respuesta JSON")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(estado)
	if _, err := w.Write(datos); err != nil {
		logging.Error().Err(err).Msg("Error escribiendo respuesta JSON")
	}
}

func escribirError(w http.ResponseWriter, estado int, err error) {
	escribirJSON(w, estado, ErrorResponse{Error: err.Error()})
}
