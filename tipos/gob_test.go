package tipos

import (
	"math"
	"testing"
	"time"
)

// ==================== Tests de SerializarGob ====================

// TestSerializarDeserializarGob_Registros verifica serialización de registros con faltantes
func TestSerializarDeserializarGob_Registros(t *testing.T) {
	valores := valoresDePrueba()
	valores[Ozono.Indice()] = math.NaN()
	original := []Registro{
		NuevoRegistro(time.Date(2004, 3, 10, 18, 0, 0, 0, time.UTC), valores),
		NuevoRegistro(time.Date(2004, 3, 10, 19, 0, 0, 0, time.UTC), valoresDePrueba()),
	}

	data, err := SerializarGob(original)
	if err != nil {
		t.Fatalf("Error al serializar registros: %v", err)
	}

	var deserializados []Registro
	if err := DeserializarGob(data, &deserializados); err != nil {
		t.Fatalf("Error al deserializar registros: %v", err)
	}

	if len(deserializados) != len(original) {
		t.Fatalf("Cantidad incorrecta: esperado %d, obtenido %d", len(original), len(deserializados))
	}
	if !deserializados[0].Tiempo.Equal(original[0].Tiempo) {
		t.Errorf("Tiempo incorrecto: esperado %v, obtenido %v", original[0].Tiempo, deserializados[0].Tiempo)
	}
	if deserializados[0].Calendario != original[0].Calendario {
		t.Errorf("Calendario incorrecto: %+v", deserializados[0].Calendario)
	}
	if !math.IsNaN(deserializados[0].Valor(Ozono)) {
		t.Error("El faltante de ozono debería preservarse")
	}
	if deserializados[1].Valor(NOx) != original[1].Valor(NOx) {
		t.Errorf("NOx incorrecto: esperado %f, obtenido %f", original[1].Valor(NOx), deserializados[1].Valor(NOx))
	}

	t.Logf("✓ %d registros serializados en %d bytes", len(deserializados), len(data))
}

// TestSerializarDeserializarGob_Buckets verifica mapas indexados por Contaminante
func TestSerializarDeserializarGob_Buckets(t *testing.T) {
	original := []Bucket{
		{Clave: "2004-03", Conteo: 2, Sumas: map[Contaminante]float64{CO: 5.2, NOx: 300}},
		{Clave: "2004-04", Conteo: 0, Sumas: map[Contaminante]float64{CO: 0, NOx: 0}},
	}

	data, err := SerializarGob(original)
	if err != nil {
		t.Fatalf("Error al serializar buckets: %v", err)
	}

	var deserializados []Bucket
	if err := DeserializarGob(data, &deserializados); err != nil {
		t.Fatalf("Error al deserializar buckets: %v", err)
	}

	if deserializados[0].Sumas[CO] != 5.2 || deserializados[0].Sumas[NOx] != 300 {
		t.Errorf("Sumas incorrectas: %v", deserializados[0].Sumas)
	}
	if deserializados[1].Clave != "2004-04" || deserializados[1].Conteo != 0 {
		t.Errorf("Bucket vacío incorrecto: %+v", deserializados[1])
	}
}

// TestSerializarDeserializarGob_Estadisticas verifica el resultado de estadísticas
func TestSerializarDeserializarGob_Estadisticas(t *testing.T) {
	original := ResultadoEstadisticas{
		CO: {Minimo: 0.5, Maximo: 9, Media: 4.2, Mediana: 4, Conteo: 10},
	}

	data, err := SerializarGob(original)
	if err != nil {
		t.Fatalf("Error al serializar: %v", err)
	}

	var deserializado ResultadoEstadisticas
	if err := DeserializarGob(data, &deserializado); err != nil {
		t.Fatalf("Error al deserializar: %v", err)
	}
	if deserializado[CO] != original[CO] {
		t.Errorf("Esperado %+v, obtenido %+v", original[CO], deserializado[CO])
	}
}

// TestDeserializarGob_DatosInvalidos verifica error con datos corruptos
func TestDeserializarGob_DatosInvalidos(t *testing.T) {
	var destino []Registro
	if err := DeserializarGob([]byte("no es gob"), &destino); err == nil {
		t.Error("Se esperaba error con datos inválidos")
	} else {
		t.Logf("✓ Error esperado: %v", err)
	}
}
