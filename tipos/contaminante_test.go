package tipos

import (
	"encoding/json"
	"testing"
)

// ==================== Tests de Contaminante.String() ====================

// TestContaminante_String_TodasMagnitudes verifica String() para todas las variantes
func TestContaminante_String_TodasMagnitudes(t *testing.T) {
	casos := []struct {
		tipo     Contaminante
		esperado string
	}{
		{CO, "CO"},
		{Benceno, "C6H6"},
		{NMHC, "NMHC"},
		{NO2, "NO2"},
		{NOx, "NOx"},
		{Ozono, "O3"},
		{Temperatura, "T"},
		{HumedadAbsoluta, "AH"},
		{Desconocido, ""},
	}

	for _, c := range casos {
		t.Run(c.esperado, func(t *testing.T) {
			if c.tipo.String() != c.esperado {
				t.Errorf("esperado '%s', obtenido '%s'", c.esperado, c.tipo.String())
			}
		})
	}
}

// TestContaminante_Indice_Unico verifica que cada magnitud ocupa una posición distinta
func TestContaminante_Indice_Unico(t *testing.T) {
	vistos := make(map[int]Contaminante)
	for _, c := range Magnitudes {
		i := c.Indice()
		if i < 0 || i >= NumMagnitudes {
			t.Fatalf("%s tiene índice fuera de rango: %d", c, i)
		}
		if otro, existe := vistos[i]; existe {
			t.Errorf("%s y %s comparten el índice %d", c, otro, i)
		}
		vistos[i] = c
	}
	if Desconocido.Indice() != -1 {
		t.Errorf("Desconocido debería tener índice -1, tiene %d", Desconocido.Indice())
	}
	t.Logf("✓ %d magnitudes con índices únicos", len(vistos))
}

// TestContaminante_Columna verifica las columnas del archivo de origen
func TestContaminante_Columna(t *testing.T) {
	esperadas := map[Contaminante]string{
		CO:              "CO(GT)",
		Benceno:         "C6H6(GT)",
		NMHC:            "NMHC(GT)",
		NO2:             "NO2(GT)",
		NOx:             "NOx(GT)",
		Ozono:           "PT08.S5(O3)",
		Temperatura:     "T",
		HumedadAbsoluta: "AH",
	}
	for c, columna := range esperadas {
		if c.Columna() != columna {
			t.Errorf("%s: columna esperada '%s', obtenida '%s'", c, columna, c.Columna())
		}
	}
}

// TestContaminante_Unidad verifica que todas las magnitudes declaran unidad
func TestContaminante_Unidad(t *testing.T) {
	for _, c := range Magnitudes {
		if c.Unidad() == "" {
			t.Errorf("%s no tiene unidad", c)
		}
	}
	if CO.Unidad() != "mg/m³" {
		t.Errorf("CO debería medirse en mg/m³, obtenido '%s'", CO.Unidad())
	}
	if NOx.Unidad() != "ppb" {
		t.Errorf("NOx debería medirse en ppb, obtenido '%s'", NOx.Unidad())
	}
}

// TestContaminante_TieneTabla verifica que solo los contaminantes tienen tabla de índice
func TestContaminante_TieneTabla(t *testing.T) {
	for _, c := range Contaminantes {
		if !c.TieneTabla() {
			t.Errorf("%s debería tener tabla de índice", c)
		}
		if len(c.PuntosCorte()) != 6 {
			t.Errorf("%s debería tener 6 segmentos, tiene %d", c, len(c.PuntosCorte()))
		}
	}
	if Temperatura.TieneTabla() || HumedadAbsoluta.TieneTabla() {
		t.Error("Las magnitudes ambientales no deberían tener tabla")
	}
	if Temperatura.PuntosCorte() != nil {
		t.Error("PuntosCorte de Temperatura debería ser nil")
	}
}

// TestContaminante_PuntosCorte_Copia verifica que modificar la copia no altera la tabla
func TestContaminante_PuntosCorte_Copia(t *testing.T) {
	puntos := CO.PuntosCorte()
	puntos[0].CAlto = 999

	if CO.PuntosCorte()[0].CAlto != 4.4 {
		t.Errorf("La tabla de CO fue modificada: %v", CO.PuntosCorte()[0])
	}
	t.Log("✓ PuntosCorte retorna una copia")
}

// ==================== Tests de ParsearContaminante ====================

// TestParsearContaminante verifica parseo por identificador y por columna
func TestParsearContaminante(t *testing.T) {
	casos := []struct {
		nombre   string
		entrada  string
		esperado Contaminante
		conError bool
	}{
		{"identificador", "NOx", NOx, false},
		{"columna", "CO(GT)", CO, false},
		{"columna ozono", "PT08.S5(O3)", Ozono, false},
		{"ambiental", "AH", HumedadAbsoluta, false},
		{"desconocido", "SO2", Desconocido, true},
		{"vacío", "", Desconocido, true},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			obtenido, err := ParsearContaminante(c.entrada)
			if c.conError {
				if err == nil {
					t.Errorf("Se esperaba error para '%s'", c.entrada)
				}
				return
			}
			if err != nil {
				t.Fatalf("Error inesperado: %v", err)
			}
			if obtenido != c.esperado {
				t.Errorf("esperado %s, obtenido %s", c.esperado, obtenido)
			}
		})
	}
}

// ==================== Tests de serialización ====================

// TestContaminante_JSON_ClaveDeMapa verifica que funciona como clave de mapa JSON
func TestContaminante_JSON_ClaveDeMapa(t *testing.T) {
	original := map[Contaminante]float64{CO: 2.5, NOx: 120}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Error serializando: %v", err)
	}

	var resultado map[Contaminante]float64
	if err := json.Unmarshal(data, &resultado); err != nil {
		t.Fatalf("Error deserializando: %v", err)
	}
	if resultado[CO] != 2.5 || resultado[NOx] != 120 {
		t.Errorf("Mapa incorrecto: %v", resultado)
	}
	t.Logf("✓ Mapa serializado: %s", string(data))
}

// TestContaminante_UnmarshalJSON_Invalido verifica que se rechazan variantes desconocidas
func TestContaminante_UnmarshalJSON_Invalido(t *testing.T) {
	var c Contaminante
	if err := json.Unmarshal([]byte(`"PM10"`), &c); err == nil {
		t.Error("Se esperaba error para PM10")
	}
}
