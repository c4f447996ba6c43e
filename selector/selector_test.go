package selector

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbiale/calidadaire/tipos"
)

var base = time.Date(2004, 3, 10, 0, 0, 0, 0, time.UTC)

// serie crea un registro por hora desde base, todas las magnitudes faltantes salvo CO
func serie(co ...float64) []tipos.Registro {
	registros := make([]tipos.Registro, len(co))
	for i, v := range co {
		var valores [tipos.NumMagnitudes]float64
		for j := range valores {
			valores[j] = math.NaN()
		}
		valores[tipos.CO.Indice()] = v
		registros[i] = tipos.NuevoRegistro(base.Add(time.Duration(i)*time.Hour), valores)
	}
	return registros
}

func hora(h int) time.Time {
	return base.Add(time.Duration(h) * time.Hour)
}

// TestSeleccionar_LimitesInclusivos verifica que ambos extremos se incluyen
func TestSeleccionar_LimitesInclusivos(t *testing.T) {
	s := Seleccionar(serie(1, 2, 3, 4, 5), hora(1), hora(3), nil)

	require.Len(t, s.Registros, 3)
	assert.Equal(t, 2.0, s.Registros[0].Valor(tipos.CO))
	assert.Equal(t, 4.0, s.Registros[2].Valor(tipos.CO))
	assert.Equal(t, []tipos.Contaminante{tipos.CO}, s.Columnas)
	t.Logf("✓ %d registros, columnas %v", len(s.Registros), s.Columnas)
}

// TestSeleccionar_PuntoAusente verifica la selección vacía con inicio == fin sin datos
func TestSeleccionar_PuntoAusente(t *testing.T) {
	instante := hora(2).Add(30 * time.Minute)
	s := Seleccionar(serie(1, 2, 3), instante, instante, nil)

	assert.NotNil(t, s.Registros)
	assert.NotNil(t, s.Columnas)
	assert.Empty(t, s.Registros)
	assert.Empty(t, s.Columnas)
}

// TestSeleccionar_PuntoPresente verifica la selección de un único instante existente
func TestSeleccionar_PuntoPresente(t *testing.T) {
	s := Seleccionar(serie(1, 2, 3), hora(2), hora(2), nil)
	require.Len(t, s.Registros, 1)
	assert.Equal(t, 3.0, s.Registros[0].Valor(tipos.CO))
}

// TestSeleccionar_IntervaloInvertido verifica que no es un error
func TestSeleccionar_IntervaloInvertido(t *testing.T) {
	s := Seleccionar(serie(1, 2, 3), hora(2), hora(0), nil)
	assert.Empty(t, s.Registros)
	assert.Empty(t, s.Columnas)
}

// TestSeleccionar_CeroEsActivo verifica que un 0 presente activa la magnitud
func TestSeleccionar_CeroEsActivo(t *testing.T) {
	s := Seleccionar(serie(0, 0), hora(0), hora(1), nil)
	assert.Equal(t, []tipos.Contaminante{tipos.CO}, s.Columnas)
	assert.Len(t, s.Registros, 2)
}

// TestSeleccionar_RegistroSinValores verifica que se omiten registros sin magnitudes presentes
func TestSeleccionar_RegistroSinValores(t *testing.T) {
	registros := serie(1, math.NaN(), 3)
	s := Seleccionar(registros, hora(0), hora(2), nil)

	assert.Len(t, s.Registros, 2)
	assert.Equal(t, []tipos.Contaminante{tipos.CO}, s.Columnas)
}

// TestSeleccionar_ColumnasEnOrden verifica el orden de la enumeración
func TestSeleccionar_ColumnasEnOrden(t *testing.T) {
	registros := serie(1, 2)
	registros[0].Valores[tipos.Ozono.Indice()] = 900
	registros[1].Valores[tipos.Benceno.Indice()] = 4

	s := Seleccionar(registros, hora(0), hora(1), nil)
	assert.Equal(t, []tipos.Contaminante{tipos.CO, tipos.Benceno, tipos.Ozono}, s.Columnas)

	// Las magnitudes no pedidas no cuentan
	s = Seleccionar(registros, hora(0), hora(1), []tipos.Contaminante{tipos.Ozono})
	assert.Equal(t, []tipos.Contaminante{tipos.Ozono}, s.Columnas)
	assert.Len(t, s.Registros, 1)
}

// ==================== ObtenerVecinos ====================

// TestObtenerVecinos verifica el contexto en el medio y en los bordes
func TestObtenerVecinos(t *testing.T) {
	registros := serie(1, 2, 3)

	v, ok := ObtenerVecinos(registros, 1)
	require.True(t, ok)
	require.NotNil(t, v.Anterior)
	require.NotNil(t, v.Siguiente)
	assert.Equal(t, 1.0, v.Anterior.Valor(tipos.CO))
	assert.Equal(t, 2.0, v.Actual.Valor(tipos.CO))
	assert.Equal(t, 3.0, v.Siguiente.Valor(tipos.CO))

	v, ok = ObtenerVecinos(registros, 0)
	require.True(t, ok)
	assert.Nil(t, v.Anterior)

	v, ok = ObtenerVecinos(registros, 2)
	require.True(t, ok)
	assert.Nil(t, v.Siguiente)

	_, ok = ObtenerVecinos(registros, 3)
	assert.False(t, ok)
	_, ok = ObtenerVecinos(registros, -1)
	assert.False(t, ok)
}

// ==================== Paginar ====================

// TestPaginar verifica ventanas y límites
func TestPaginar(t *testing.T) {
	registros := serie(make([]float64, 23)...)

	casos := []struct {
		nombre  string
		numero  int
		tamano  int
		filas   int
		numeroR int
		total   int
	}{
		{"primera", 1, 0, 10, 1, 3},
		{"última parcial", 3, 10, 3, 3, 3},
		{"más allá del final", 9, 10, 3, 3, 3},
		{"número negativo", -2, 10, 10, 1, 3},
		{"tamaño grande", 1, 100, 23, 1, 1},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			p := Paginar(registros, c.numero, c.tamano)
			assert.Len(t, p.Registros, c.filas)
			assert.Equal(t, c.numeroR, p.Numero)
			assert.Equal(t, c.total, p.TotalPaginas)
			assert.Equal(t, 23, p.TotalFilas)
		})
	}
}

// TestPaginar_Vacio verifica una tabla sin filas
func TestPaginar_Vacio(t *testing.T) {
	p := Paginar(nil, 4, 10)
	assert.Empty(t, p.Registros)
	assert.NotNil(t, p.Registros)
	assert.Equal(t, 1, p.Numero)
	assert.Equal(t, 1, p.TotalPaginas)
}
