package entity

import "time"

// Node es un registro genérico de cualquier colección del catálogo (series, categories, ..., news, faqs).
// Los campos comunes son columnas; el resto del documento vive en Data (nombres multilingües, imágenes, etc.).
type Node struct {
	ID        string
	Code      string // discriminador legible; vacío en news/faqs
	IsActive  bool
	ParentID  string // vacío si es raíz o la colección no tiene padre
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
