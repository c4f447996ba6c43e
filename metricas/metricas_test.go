package metricas

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRegistrarConsulta verifica las etiquetas de resultado
func TestRegistrarConsulta(t *testing.T) {
	okAntes := testutil.ToFloat64(ConsultasTotal.WithLabelValues("aqi", ResultadoOK))
	errAntes := testutil.ToFloat64(ConsultasTotal.WithLabelValues("aqi", ResultadoError))

	RegistrarConsulta("aqi", nil, time.Millisecond)
	RegistrarConsulta("aqi", errors.New("x"), time.Millisecond)

	if v := testutil.ToFloat64(ConsultasTotal.WithLabelValues("aqi", ResultadoOK)); v != okAntes+1 {
		t.Errorf("ok: esperado %v, obtenido %v", okAntes+1, v)
	}
	if v := testutil.ToFloat64(ConsultasTotal.WithLabelValues("aqi", ResultadoError)); v != errAntes+1 {
		t.Errorf("error: esperado %v, obtenido %v", errAntes+1, v)
	}
	t.Log("✓ Consultas registradas")
}

// TestRegistrarCache verifica aciertos y fallos
func TestRegistrarCache(t *testing.T) {
	aciertos := testutil.ToFloat64(CacheAciertos)
	fallos := testutil.ToFloat64(CacheFallos)

	RegistrarCache(true)
	RegistrarCache(false)
	RegistrarCache(false)

	if testutil.ToFloat64(CacheAciertos) != aciertos+1 {
		t.Error("Los aciertos deberían aumentar en 1")
	}
	if testutil.ToFloat64(CacheFallos) != fallos+2 {
		t.Error("Los fallos deberían aumentar en 2")
	}
}

// TestRegistrarNormalizacion verifica los contadores del normalizador
func TestRegistrarNormalizacion(t *testing.T) {
	descartadas := testutil.ToFloat64(FilasDescartadas)
	coerciones := testutil.ToFloat64(ValoresCoercionados)

	RegistrarNormalizacion(2, 7)

	if testutil.ToFloat64(FilasDescartadas) != descartadas+2 {
		t.Error("FilasDescartadas no aumentó en 2")
	}
	if testutil.ToFloat64(ValoresCoercionados) != coerciones+7 {
		t.Error("ValoresCoercionados no aumentó en 7")
	}
}

// TestRegistrarConjunto verifica el gauge del conjunto activo
func TestRegistrarConjunto(t *testing.T) {
	RegistrarConjunto(9357)
	if v := testutil.ToFloat64(RegistrosCargados); v != 9357 {
		t.Errorf("esperado 9357, obtenido %v", v)
	}
}
