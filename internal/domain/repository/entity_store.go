package repository

import (
	"context"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// Filter restringe una consulta. Los punteros nil no filtran.
type Filter struct {
	ParentID *string
	IsActive *bool
	Code     *string
	Match    *KeywordMatch
}

// KeywordMatch es una búsqueda por subcadena sin distinguir mayúsculas sobre varios campos (OR).
// Los campos son rutas con punto dentro del documento ("name.TW"); "code" se refiere a la columna.
type KeywordMatch struct {
	Keyword string
	Fields  []string
}

// SortField orden por un campo; createdAt, updatedAt y code son columnas, el resto rutas del documento.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions orden y ventana de resultados. Limit 0 = sin límite.
type FindOptions struct {
	Sort  []SortField
	Skip  int
	Limit int
}

// Patch describe una actualización parcial. Set usa rutas de hasta dos segmentos ("name.EN")
// para modificar una clave anidada sin tocar sus hermanas; los arreglos se reemplazan completos.
type Patch struct {
	Code     *string
	IsActive *bool
	ParentID *string
	Set      map[string]any
}

// IsEmpty indica si el patch no modifica nada.
func (p Patch) IsEmpty() bool {
	return p.Code == nil && p.IsActive == nil && p.ParentID == nil && len(p.Set) == 0
}

// EntityStore es el puerto de persistencia de una colección (DIP).
// FindByID, FindOneAndUpdate y FindOneAndDelete devuelven (nil, nil) si el id no existe.
type EntityStore interface {
	Collection() string
	FindByID(ctx context.Context, id string) (*entity.Node, error)
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]*entity.Node, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Insert(ctx context.Context, node *entity.Node) (*entity.Node, error)
	FindOneAndUpdate(ctx context.Context, id string, patch Patch) (*entity.Node, error)
	FindOneAndDelete(ctx context.Context, id string) (*entity.Node, error)
}

// StoreFactory devuelve el store de una colección. Se usa para atar stores a una transacción.
type StoreFactory func(collection string) EntityStore

// KeywordQuery consulta con palabra clave más filtros base y ventana.
type KeywordQuery struct {
	Keyword string
	Fields  []string
	Filter  Filter
	Options FindOptions
}

// KeywordSearcher resuelve búsquedas por palabra clave sobre cualquier store.
type KeywordSearcher interface {
	SearchByKeyword(ctx context.Context, store EntityStore, q KeywordQuery) ([]*entity.Node, int, error)
}

// TxRunner ejecuta fn con stores atados a una misma transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(stores StoreFactory) error) error
}
