package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrInternal     = errors.New("error interno")
)

// ErrBadRequest es el nombre con el que la capa HTTP se refiere a ErrInvalidInput.
var ErrBadRequest = ErrInvalidInput

var kinds = []error{ErrNotFound, ErrInvalidInput, ErrConflict, ErrUnauthorized, ErrForbidden, ErrInternal}

// Error es un error de dominio con categoría y mensaje propio.
// errors.Is(err, ErrNotFound) funciona contra la categoría; Unwrap expone la causa original.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Is compara solo contra la categoría.
func (e *Error) Is(target error) bool { return target == e.kind }

// Unwrap devuelve la causa (puede ser nil).
func (e *Error) Unwrap() error { return e.cause }

// Errorf crea un error de dominio de la categoría kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap envuelve cause en un error de dominio de la categoría kind.
func Wrap(kind error, cause error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf devuelve la categoría de err; ErrInternal si no es un error de dominio.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// IsNotFound atajo para errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
