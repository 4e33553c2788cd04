// Package catalog implementa el núcleo del catálogo: el repositorio genérico por colección,
// el registro perezoso de repositorios por nivel y el motor de recorrido de la jerarquía.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

// Document es la representación plana (JSON) de un nodo hacia y desde los controladores.
type Document = map[string]any

// ActivePolicy decide si una búsqueda por id exige nodos activos.
type ActivePolicy int

const (
	// AnyState acepta nodos activos e inactivos.
	AnyState ActivePolicy = iota
	// OnlyActive trata un nodo inactivo como inexistente.
	OnlyActive
)

// Tamaños de página por defecto de search cuando se pide paginación.
const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// RepositoryConfig configura un EntityRepository. Todos los repositorios comparten comportamiento;
// solo cambia esta configuración.
type RepositoryConfig struct {
	Collection       string
	ParentField      string            // vacío si la colección no tiene padre
	Parent           *EntityRepository // repositorio del nivel padre; nil si ParentField es vacío
	SearchableFields []string          // rutas con punto usadas por la búsqueda por palabra clave
	RequireCode      bool              // news y faqs no usan code
	DefaultActive    bool              // valor de isActive cuando create no lo trae
	Languages        []string          // claves virtuales (TW, EN) que formatOutput elimina
	Validate         func(Document) error
}

// DependencyCheck se ejecuta antes de borrar; devolver error cancela el borrado.
type DependencyCheck func(ctx context.Context, node *entity.Node) error

// EntityRepository CRUD validado y búsqueda sobre una colección.
type EntityRepository struct {
	store    repository.EntityStore
	searcher repository.KeywordSearcher
	cfg      RepositoryConfig
	deps     DependencyCheck
	now      func() time.Time
}

// NewEntityRepository construye el repositorio sobre store.
func NewEntityRepository(store repository.EntityStore, searcher repository.KeywordSearcher, cfg RepositoryConfig) *EntityRepository {
	if cfg.Collection == "" {
		cfg.Collection = store.Collection()
	}
	return &EntityRepository{
		store:    store,
		searcher: searcher,
		cfg:      cfg,
		deps:     func(context.Context, *entity.Node) error { return nil },
		now:      time.Now,
	}
}

// SetDependencyCheck reemplaza el hook previo al borrado (por defecto no hace nada).
func (r *EntityRepository) SetDependencyCheck(fn DependencyCheck) {
	if fn != nil {
		r.deps = fn
	}
}

// Collection nombre de la colección.
func (r *EntityRepository) Collection() string { return r.cfg.Collection }

// ParentField nombre del campo que referencia al padre ("" si no hay).
func (r *EntityRepository) ParentField() string { return r.cfg.ParentField }

// Parent repositorio del nivel padre (nil si no hay).
func (r *EntityRepository) Parent() *EntityRepository { return r.cfg.Parent }

// Store adaptador subyacente.
func (r *EntityRepository) Store() repository.EntityStore { return r.store }

// EnsureExists busca id y falla con ErrNotFound si no existe o, con OnlyActive, si está inactivo.
func (r *EntityRepository) EnsureExists(ctx context.Context, id string, policy ActivePolicy) (*entity.Node, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s: id requerido", r.cfg.Collection)
	}
	n, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, r.storeErr(err, "buscar %s", id)
	}
	if n == nil || (policy == OnlyActive && !n.IsActive) {
		return nil, domain.Errorf(domain.ErrNotFound, "%s %s no encontrado", r.cfg.Collection, id)
	}
	return n, nil
}

// EnsureParentExists resuelve parentID en el nivel padre, exigiendo que esté activo.
func (r *EntityRepository) EnsureParentExists(ctx context.Context, parentID string) (*entity.Node, error) {
	if r.cfg.Parent == nil {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s no tiene nivel padre", r.cfg.Collection)
	}
	if strings.TrimSpace(parentID) == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s: %s requerido", r.cfg.Collection, r.cfg.ParentField)
	}
	return r.cfg.Parent.EnsureExists(ctx, parentID, OnlyActive)
}

// Create valida y persiste un nodo nuevo; devuelve el documento formateado.
func (r *EntityRepository) Create(ctx context.Context, data Document) (Document, error) {
	node, err := r.nodeFromInput(data)
	if err != nil {
		return nil, err
	}
	if r.cfg.Validate != nil {
		if err := r.cfg.Validate(data); err != nil {
			return nil, err
		}
	}
	if r.cfg.RequireCode && node.Code == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s: code requerido", r.cfg.Collection)
	}
	if r.cfg.ParentField != "" {
		if _, err := r.EnsureParentExists(ctx, node.ParentID); err != nil {
			return nil, err
		}
	}
	if node.Code != "" {
		if err := r.ensureCodeAvailable(ctx, node.Code, ""); err != nil {
			return nil, err
		}
	}
	now := r.now().UTC()
	node.ID = uuid.NewString()
	node.CreatedAt = now
	node.UpdatedAt = now

	stored, err := r.store.Insert(ctx, node)
	if err != nil {
		return nil, r.storeErr(err, "crear")
	}
	return r.FormatOutput(stored), nil
}

// Update aplica una actualización parcial. Los objetos anidados se aplanan a rutas con punto
// ("name.EN") para no pisar las claves hermanas.
func (r *EntityRepository) Update(ctx context.Context, id string, data Document) (Document, error) {
	if _, err := r.EnsureExists(ctx, id, AnyState); err != nil {
		return nil, err
	}
	patch, err := r.patchFromInput(data)
	if err != nil {
		return nil, err
	}
	if patch.ParentID != nil {
		if _, err := r.EnsureParentExists(ctx, *patch.ParentID); err != nil {
			return nil, err
		}
	}
	if patch.Code != nil {
		if *patch.Code == "" && r.cfg.RequireCode {
			return nil, domain.Errorf(domain.ErrInvalidInput, "%s: code no puede quedar vacío", r.cfg.Collection)
		}
		if *patch.Code != "" {
			if err := r.ensureCodeAvailable(ctx, *patch.Code, id); err != nil {
				return nil, err
			}
		}
	}
	updated, err := r.store.FindOneAndUpdate(ctx, id, patch)
	if err != nil {
		return nil, r.storeErr(err, "actualizar %s", id)
	}
	if updated == nil {
		// borrado concurrente entre la verificación y la escritura
		return nil, domain.Errorf(domain.ErrNotFound, "%s %s no encontrado", r.cfg.Collection, id)
	}
	return r.FormatOutput(updated), nil
}

// Delete borra id. Devuelve si realmente se eliminó una fila.
func (r *EntityRepository) Delete(ctx context.Context, id string) (bool, error) {
	node, err := r.EnsureExists(ctx, id, AnyState)
	if err != nil {
		return false, err
	}
	if err := r.deps(ctx, node); err != nil {
		return false, err
	}
	removed, err := r.store.FindOneAndDelete(ctx, id)
	if err != nil {
		return false, r.storeErr(err, "eliminar %s", id)
	}
	return removed != nil, nil
}

// Query filtro base de search.
type Query struct {
	ParentID string
	Code     string
	Active   ActivePolicy
}

// Pagination página pedida; ceros toman DefaultPage/DefaultLimit.
type Pagination struct {
	Page  int
	Limit int
}

// SearchOptions palabra clave, orden y paginación. Pagination nil = todos los resultados.
type SearchOptions struct {
	Keyword    string
	Sort       []repository.SortField
	Pagination *Pagination
}

// PageInfo sobre de paginación devuelto por search.
type PageInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// SearchResult página de documentos formateados; Pagination es nil si no se pidió paginación.
type SearchResult struct {
	Data       []Document `json:"data"`
	Pagination *PageInfo  `json:"pagination"`
}

// Search lista nodos que cumplen q; con palabra clave delega en el KeywordSearcher
// sobre code más SearchableFields.
func (r *EntityRepository) Search(ctx context.Context, q Query, opts SearchOptions) (*SearchResult, error) {
	filter := repository.Filter{}
	if q.ParentID != "" {
		filter.ParentID = &q.ParentID
	}
	if q.Code != "" {
		filter.Code = &q.Code
	}
	if q.Active == OnlyActive {
		active := true
		filter.IsActive = &active
	}
	for _, s := range opts.Sort {
		if !validPath(s.Field) {
			return nil, domain.Errorf(domain.ErrInvalidInput, "%s: campo de orden inválido %q", r.cfg.Collection, s.Field)
		}
	}

	findOpts := repository.FindOptions{Sort: opts.Sort}
	var page *PageInfo
	if opts.Pagination != nil {
		p := *opts.Pagination
		if p.Page <= 0 {
			p.Page = DefaultPage
		}
		if p.Limit <= 0 {
			p.Limit = DefaultLimit
		}
		findOpts.Skip = (p.Page - 1) * p.Limit
		findOpts.Limit = p.Limit
		page = &PageInfo{Page: p.Page, Limit: p.Limit}
	}

	var (
		nodes []*entity.Node
		total int
		err   error
	)
	if kw := strings.TrimSpace(opts.Keyword); kw != "" {
		fields := append([]string{"code"}, r.cfg.SearchableFields...)
		nodes, total, err = r.searcher.SearchByKeyword(ctx, r.store, repository.KeywordQuery{
			Keyword: kw, Fields: fields, Filter: filter, Options: findOpts,
		})
	} else {
		nodes, err = r.store.Find(ctx, filter, findOpts)
		if err == nil && page != nil {
			total, err = r.store.Count(ctx, filter)
		}
	}
	if err != nil {
		return nil, r.storeErr(err, "buscar")
	}

	out := &SearchResult{Data: make([]Document, 0, len(nodes))}
	for _, n := range nodes {
		out.Data = append(out.Data, r.FormatOutput(n))
	}
	if page != nil {
		page.Total = total
		page.Pages = (total + page.Limit - 1) / page.Limit
		out.Pagination = page
	}
	return out, nil
}

// FindByCode devuelve el nodo con ese code bajo parentID ("" = en toda la colección), o nil.
func (r *EntityRepository) FindByCode(ctx context.Context, code, parentID string) (*entity.Node, error) {
	filter := repository.Filter{Code: &code}
	if parentID != "" {
		filter.ParentID = &parentID
	}
	nodes, err := r.store.Find(ctx, filter, repository.FindOptions{Limit: 1})
	if err != nil {
		return nil, r.storeErr(err, "buscar code %s", code)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

func (r *EntityRepository) ensureCodeAvailable(ctx context.Context, code, selfID string) error {
	existing, err := r.FindByCode(ctx, code, "")
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.Errorf(domain.ErrConflict, "%s: el code '%s' ya está en uso", r.cfg.Collection, code)
	}
	return nil
}

// storeErr conserva los errores de dominio del store y envuelve el resto como ErrInternal
// con el contexto de colección y operación.
func (r *EntityRepository) storeErr(err error, format string, args ...any) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Wrap(domain.ErrInternal, err, "%s: %s", r.cfg.Collection, fmt.Sprintf(format, args...))
}
