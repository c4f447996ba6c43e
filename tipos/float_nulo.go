package tipos

import (
	"encoding/json"
	"math"
)

// FloatNulo es el valor de una magnitud en la salida JSON.
// math.NaN() marca una lectura faltante y se serializa como null;
// null se lee de vuelta como NaN.
type FloatNulo float64

// MarshalJSON serializa NaN como null
func (f FloatNulo) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON deserializa null como NaN
func (f *FloatNulo) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FloatNulo(Faltante())
		return nil
	}
	var val float64
	if err := json.Unmarshal(data, &val); err != nil {
		return err
	}
	*f = FloatNulo(val)
	return nil
}

// EsNulo indica si la lectura es faltante
func (f FloatNulo) EsNulo() bool {
	return math.IsNaN(float64(f))
}

// Faltante es el centinela de lectura faltante
func Faltante() float64 {
	return math.NaN()
}
