package despachador

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbiale/calidadaire/agregador"
	"github.com/cbiale/calidadaire/cargador"
	"github.com/cbiale/calidadaire/consulta"
	"github.com/cbiale/calidadaire/normalizador"
	"github.com/cbiale/calidadaire/tipos"
)

func rutasPrueba(t *testing.T) http.Handler {
	t.Helper()
	fila := func(fecha, hora, co string) tipos.Fila {
		return tipos.Fila{"Date": fecha, "Time": hora, "CO(GT)": co, "T": "10"}
	}
	conjunto, err := consulta.Preparar(cargador.Conjunto{
		Fuente: "prueba.csv",
		Filas: []tipos.Fila{
			fila("03/10/2004", "18:00:00", "2"),
			fila("03/10/2004", "19:00:00", "4"),
			fila("04/01/2005", "08:00:00", "3"),
		},
	}, normalizador.Opciones{}, nil)
	require.NoError(t, err)
	motor := consulta.NuevoMotor(conjunto, nil, consulta.Defectos{InicioSemana: 1, LimiteMuestra: agregador.LimiteMuestraDefecto})
	return Nuevo(motor).Rutas()
}

func pedir(t *testing.T, h http.Handler, metodo, ruta, cuerpo string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(metodo, ruta, strings.NewReader(cuerpo))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var datos map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &datos))
	}
	return rec, datos
}

// TestConsulta_Codigos verifica los códigos HTTP por tipo de resultado
func TestConsulta_Codigos(t *testing.T) {
	h := rutasPrueba(t)

	casos := []struct {
		nombre string
		cuerpo string
		estado int
	}{
		{"agregacion valida", `{"operacion":"agregacion","granularidad":"anio-mes"}`, http.StatusOK},
		{"estadisticas", `{"operacion":"estadisticas","filtro":{"anio":"2004"}}`, http.StatusOK},
		{"granularidad desconocida", `{"operacion":"agregacion","granularidad":"quincena"}`, http.StatusBadRequest},
		{"operacion desconocida", `{"operacion":"borrar"}`, http.StatusBadRequest},
		{"filtro invalido", `{"operacion":"aqi","filtro":{"mes":"03"}}`, http.StatusBadRequest},
		{"json invalido", `{operacion`, http.StatusBadRequest},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			rec, datos := pedir(t, h, http.MethodPost, "/api/consulta", c.cuerpo)
			assert.Equal(t, c.estado, rec.Code, "cuerpo: %s", rec.Body.String())
			if c.estado != http.StatusOK {
				assert.NotEmpty(t, datos["error"])
			}
		})
	}
}

// TestConsulta_Agregacion verifica el cuerpo de una agregación por año-mes
func TestConsulta_Agregacion(t *testing.T) {
	h := rutasPrueba(t)

	rec, datos := pedir(t, h, http.MethodPost, "/api/consulta",
		`{"id":"q1","operacion":"agregacion","granularidad":"anio-mes"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "q1", datos["id"])
	buckets, ok := datos["buckets"].([]any)
	require.True(t, ok)
	assert.Len(t, buckets, 2)
	t.Log("✓ Buckets 2004-03 y 2005-04")
}

// TestConsulta_IDPorDefecto verifica que sin id se usa el del pedido HTTP
func TestConsulta_IDPorDefecto(t *testing.T) {
	h := rutasPrueba(t)

	_, datos := pedir(t, h, http.MethodPost, "/api/consulta", `{"operacion":"opciones"}`)
	assert.NotEmpty(t, datos["id"])
}

// TestOpciones verifica la cascada por parámetros de query
func TestOpciones(t *testing.T) {
	h := rutasPrueba(t)

	rec, datos := pedir(t, h, http.MethodGet, "/api/opciones", "")
	require.Equal(t, http.StatusOK, rec.Code)
	opciones := datos["opciones"].(map[string]any)
	assert.Equal(t, []any{"2004", "2005"}, opciones["anios"])

	rec, datos = pedir(t, h, http.MethodGet, "/api/opciones?anio=2004", "")
	require.Equal(t, http.StatusOK, rec.Code)
	opciones = datos["opciones"].(map[string]any)
	assert.Equal(t, []any{"03"}, opciones["meses"])

	rec, _ = pedir(t, h, http.MethodGet, "/api/opciones?anio=04", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestEstado verifica el resumen del conjunto
func TestEstado(t *testing.T) {
	h := rutasPrueba(t)

	rec, datos := pedir(t, h, http.MethodGet, "/api/estado", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, datos["registros"])
	assert.Equal(t, "prueba.csv", datos["fuente"])
}

// TestRutasAuxiliares verifica operaciones, salud y métricas
func TestRutasAuxiliares(t *testing.T) {
	h := rutasPrueba(t)

	rec, datos := pedir(t, h, http.MethodGet, "/api/operaciones", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, datos["operaciones"], len(consulta.Operaciones))

	rec, datos = pedir(t, h, http.MethodGet, "/api/salud", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", datos["estado"])

	// una consulta previa garantiza que el contador tenga series
	pedir(t, h, http.MethodPost, "/api/consulta", `{"operacion":"opciones"}`)
	rec, _ = pedir(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "calidadaire_consultas_total")

	rec, _ = pedir(t, h, http.MethodGet, "/api/inexistente", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
