package tipos

import (
	"bytes"
	"encoding/gob"
)

// ============================================================================
// FUNCIONES DE SERIALIZACIÓN GOB
// ============================================================================

// SerializarGob serializa un valor usando Gob
func SerializarGob(v interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := gob.NewEncoder(&buffer)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializarGob deserializa bytes usando Gob
func DeserializarGob(data []byte, v interface{}) error {
	buffer := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buffer)
	return decoder.Decode(v)
}

// ============================================================================
// REGISTRO DE TIPOS GOB
// ============================================================================

func init() {
	// Tipos de datos que pueden viajar dentro de interface{}
	gob.Register(Registro{})
	gob.Register([]Registro{})
	gob.Register(Bucket{})
	gob.Register([]Bucket{})
	gob.Register(Estadisticas{})
	gob.Register(ResultadoEstadisticas{})
	gob.Register(Seleccion{})
	gob.Register(Contaminante{})
	gob.Register([]Contaminante{})
}
