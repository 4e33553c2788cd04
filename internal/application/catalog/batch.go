package catalog

import (
	"context"

	"github.com/jhoicas/Catalogo-api/internal/domain"
)

// Operaciones registradas en BatchError.
const (
	BatchOpCreate = "create"
	BatchOpUpdate = "update"
)

// BatchInput elementos a crear y a actualizar (estos últimos con _id).
type BatchInput struct {
	ToCreate []Document `json:"toCreate"`
	ToUpdate []Document `json:"toUpdate"`
}

// BatchError fallo de un elemento del lote.
type BatchError struct {
	Operation string   `json:"operation"`
	Index     int      `json:"index"`
	Data      Document `json:"data"`
	Error     string   `json:"error"`
	Code      string   `json:"code"`
}

// BatchResult resultados parciales: lo que se pudo crear/actualizar y los errores.
type BatchResult struct {
	Created []Document   `json:"created"`
	Updated []Document   `json:"updated"`
	Errors  []BatchError `json:"errors"`
}

// BatchProcess crea y actualiza cada elemento de forma independiente; un fallo se registra
// en Errors y no detiene el resto. No es atómico.
func (r *EntityRepository) BatchProcess(ctx context.Context, in BatchInput) *BatchResult {
	res := &BatchResult{Created: []Document{}, Updated: []Document{}, Errors: []BatchError{}}

	for i, item := range in.ToCreate {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, batchError(BatchOpCreate, i, item, err))
			continue
		}
		doc, err := r.Create(ctx, item)
		if err != nil {
			res.Errors = append(res.Errors, batchError(BatchOpCreate, i, item, err))
			continue
		}
		res.Created = append(res.Created, doc)
	}

	for i, item := range in.ToUpdate {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, batchError(BatchOpUpdate, i, item, err))
			continue
		}
		id := DocumentID(item)
		if id == "" {
			res.Errors = append(res.Errors, batchError(BatchOpUpdate, i, item,
				domain.Errorf(domain.ErrInvalidInput, "falta el campo _id")))
			continue
		}
		doc, err := r.Update(ctx, id, item)
		if err != nil {
			res.Errors = append(res.Errors, batchError(BatchOpUpdate, i, item, err))
			continue
		}
		res.Updated = append(res.Updated, doc)
	}
	return res
}

func batchError(op string, i int, item Document, err error) BatchError {
	return BatchError{Operation: op, Index: i, Data: item, Error: err.Error(), Code: ErrorCode(err)}
}

// ErrorCode código estable para una categoría de error de dominio.
func ErrorCode(err error) string {
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return "NOT_FOUND"
	case domain.ErrInvalidInput:
		return "BAD_REQUEST"
	case domain.ErrConflict:
		return "CONFLICT"
	case domain.ErrUnauthorized:
		return "UNAUTHORIZED"
	case domain.ErrForbidden:
		return "FORBIDDEN"
	}
	return "INTERNAL"
}
