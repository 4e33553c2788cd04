package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Catalogo-api/internal/domain"
)

var validate = validator.New()

// Validate aplica las etiquetas validate de v y devuelve ErrInvalidInput con los campos que fallan.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Wrap(domain.ErrInvalidInput, err, "validación")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return domain.Errorf(domain.ErrInvalidInput, "campos inválidos: %s", strings.Join(fields, ", "))
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
