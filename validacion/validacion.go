// Package validacion valida estructuras con go-playground/validator usando una
// única instancia compartida, y traduce los errores a mensajes por campo.
package validacion

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validador     *validator.Validate
	validadorOnce sync.Once
)

// ErrorCampo es el error de validación de un campo
type ErrorCampo struct {
	Campo   string `json:"campo"`
	Regla   string `json:"regla"`
	Param   string `json:"param,omitempty"`
	Mensaje string `json:"mensaje"`
}

// ErrorValidacion agrupa los errores de todos los campos inválidos
type ErrorValidacion struct {
	Campos []ErrorCampo `json:"campos"`
}

// Error une los mensajes de cada campo
func (e *ErrorValidacion) Error() string {
	if len(e.Campos) == 0 {
		return "validación fallida"
	}
	mensajes := make([]string, len(e.Campos))
	for i, c := range e.Campos {
		mensajes[i] = c.Mensaje
	}
	return strings.Join(mensajes, "; ")
}

// Validador retorna la instancia compartida (segura para uso concurrente)
func Validador() *validator.Validate {
	validadorOnce.Do(func() {
		validador = validator.New(validator.WithRequiredStructEnabled())
	})
	return validador
}

// ValidarEstructura valida s y retorna *ErrorValidacion si algún campo es inválido
func ValidarEstructura(s interface{}) error {
	err := Validador().Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return &ErrorValidacion{Campos: []ErrorCampo{{Campo: "desconocido", Regla: "desconocida", Mensaje: err.Error()}}}
	}

	campos := make([]ErrorCampo, len(errs))
	for i, fe := range errs {
		campos[i] = ErrorCampo{
			Campo:   fe.Namespace(),
			Regla:   fe.Tag(),
			Param:   fe.Param(),
			Mensaje: traducir(fe),
		}
	}
	return &ErrorValidacion{Campos: campos}
}

// mensajes por regla; %[1]s es el campo y %[2]s el parámetro
var mensajes = map[string]string{
	"required":      "%[1]s es requerido",
	"required_with": "%[1]s es requerido cuando se indica %[2]s",
	"required_if":   "%[1]s es requerido cuando %[2]s",
	"numeric":       "%[1]s debe ser numérico",
	"len":           "%[1]s debe tener longitud %[2]s",
	"oneof":         "%[1]s debe ser uno de: %[2]s",
	"min":           "%[1]s debe ser al menos %[2]s",
	"max":           "%[1]s debe ser como máximo %[2]s",
	"gte":           "%[1]s debe ser mayor o igual a %[2]s",
	"lte":           "%[1]s debe ser menor o igual a %[2]s",
	"hostname_port": "%[1]s debe tener la forma host:puerto",
	"url":           "%[1]s debe ser una URL válida",
	"dive":          "%[1]s contiene un elemento inválido",
}

func traducir(fe validator.FieldError) string {
	if plantilla, ok := mensajes[fe.Tag()]; ok {
		return fmt.Sprintf(plantilla, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s no cumple la regla %s", fe.Field(), fe.Tag())
}
