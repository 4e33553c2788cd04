package dto

// Valores por defecto de la búsqueda HTTP (la capa de repositorio usa 50).
const (
	DefaultSearchPage  = 1
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SearchRequest parámetros de GET /api/{colección}/search.
type SearchRequest struct {
	Keyword       string `query:"keyword" validate:"max=200"`
	Page          int    `query:"page" validate:"min=0"`
	Limit         int    `query:"limit" validate:"min=0,max=100"`
	Sort          string `query:"sort" validate:"omitempty,max=64"`
	SortDirection string `query:"sortDirection" validate:"omitempty,oneof=asc desc ASC DESC"`
	Parent        string `query:"parent"`
}

// Normalize aplica los valores por defecto de página y límite.
func (r *SearchRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = DefaultSearchPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultSearchLimit
	}
}

// BatchRequest cuerpo de POST /api/{colección}/batch.
type BatchRequest struct {
	ToCreate []map[string]any `json:"toCreate" validate:"max=500"`
	ToUpdate []map[string]any `json:"toUpdate" validate:"max=500"`
}

// DeleteResponse resultado de un borrado.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted int    `json:"deleted"`
}

// ProductRow fila de una hoja CSV de productos.
type ProductRow struct {
	Code               string `validate:"required,max=100"`
	SpecificationsCode string `validate:"required,max=100"`
	NameTW             string `validate:"required"`
	NameEN             string
	DescriptionTW      string
	DescriptionEN      string
}
