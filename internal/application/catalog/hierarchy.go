package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// DefaultMaxDepth cubre los cinco niveles de la cadena.
const DefaultMaxDepth = 5

var creationOrder = []repository.SortField{{Field: "createdAt"}}

// HierarchyService arma y recorre la jerarquía usando los repositorios del Registry.
type HierarchyService struct {
	registry       *Registry
	topology       *catalog.Topology
	log            *logger.Logger
	maxDepth       int
	parallel       int
	ancestorPolicy ActivePolicy
}

// HierarchyOption configura el HierarchyService.
type HierarchyOption func(*HierarchyService)

// WithDefaultMaxDepth profundidad usada cuando la llamada no indica una. Negativo = sin límite.
func WithDefaultMaxDepth(n int) HierarchyOption {
	return func(s *HierarchyService) { s.maxDepth = n }
}

// WithParallelSiblings construye hasta n subárboles hermanos a la vez. n <= 1 = secuencial.
// El orden de los hermanos en la salida no cambia.
func WithParallelSiblings(n int) HierarchyOption {
	return func(s *HierarchyService) { s.parallel = n }
}

// WithAncestorPolicy decide si GetParentHierarchyData puede subir por ancestros inactivos.
func WithAncestorPolicy(p ActivePolicy) HierarchyOption {
	return func(s *HierarchyService) { s.ancestorPolicy = p }
}

// NewHierarchyService construye el motor. Por defecto: profundidad 5, hermanos en serie,
// ancestros en cualquier estado.
func NewHierarchyService(registry *Registry, log *logger.Logger, opts ...HierarchyOption) *HierarchyService {
	s := &HierarchyService{
		registry:       registry,
		topology:       registry.Topology(),
		log:            log,
		maxDepth:       DefaultMaxDepth,
		ancestorPolicy: AnyState,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TreeOption ajusta una llamada puntual.
type TreeOption func(*treeConfig)

type treeConfig struct {
	maxDepth     int
	currentDepth int
}

// WithMaxDepth limita la profundidad del árbol devuelto; 0 = solo el nodo pedido.
func WithMaxDepth(n int) TreeOption {
	return func(c *treeConfig) { c.maxDepth = n }
}

// WithCurrentDepth profundidad desde la que arranca la construcción.
func WithCurrentDepth(n int) TreeOption {
	return func(c *treeConfig) { c.currentDepth = n }
}

func (s *HierarchyService) treeConfig(opts []TreeOption) treeConfig {
	cfg := treeConfig{maxDepth: s.maxDepth}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// BuildHierarchyTree devuelve el nodo id de level con sus descendientes activos anidados bajo
// la clave del nivel hijo. Devuelve (nil, nil) si el nodo no existe o está inactivo.
func (s *HierarchyService) BuildHierarchyTree(ctx context.Context, level catalog.Level, id string, opts ...TreeOption) (Document, error) {
	cfg := s.treeConfig(opts)
	return s.buildTree(ctx, level, id, cfg.maxDepth, cfg.currentDepth)
}

func (s *HierarchyService) buildTree(ctx context.Context, level catalog.Level, id string, maxDepth, depth int) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := s.topology.Describe(level)
	if err != nil {
		return nil, err
	}
	repo, err := s.registry.Resolve(level)
	if err != nil {
		return nil, err
	}
	node, err := repo.EnsureExists(ctx, id, OnlyActive)
	if err != nil {
		if domain.IsNotFound(err) {
			s.log.Warn().Str("level", string(level)).Str("id", id).Int("depth", depth).Msg("nodo omitido del árbol")
			return nil, nil
		}
		return nil, fmt.Errorf("%s %s: %w", level, id, err)
	}
	out := repo.FormatOutput(node)
	if d.IsLeaf() || (maxDepth >= 0 && depth >= maxDepth) {
		return out, nil
	}

	ids, err := s.activeChildIDs(ctx, d.ChildLevel, id)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", level, id, err)
	}
	children, err := s.buildSiblings(ctx, d.ChildLevel, ids, maxDepth, depth+1)
	if err != nil {
		return nil, err
	}
	out[string(d.ChildLevel)] = children
	return out, nil
}

// buildSiblings construye cada subárbol y descarta los nil sin dejar huecos.
func (s *HierarchyService) buildSiblings(ctx context.Context, level catalog.Level, ids []string, maxDepth, depth int) ([]Document, error) {
	results := make([]Document, len(ids))
	if s.parallel > 1 && len(ids) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.parallel)
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				doc, err := s.buildTree(gctx, level, id, maxDepth, depth)
				if err != nil {
					return err
				}
				results[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, id := range ids {
			doc, err := s.buildTree(ctx, level, id, maxDepth, depth)
			if err != nil {
				return nil, err
			}
			results[i] = doc
		}
	}
	out := make([]Document, 0, len(results))
	for _, doc := range results {
		if doc != nil {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *HierarchyService) activeChildIDs(ctx context.Context, childLevel catalog.Level, parentID string) ([]string, error) {
	docs, err := s.activeChildren(ctx, childLevel, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, DocumentID(doc))
	}
	return ids, nil
}

func (s *HierarchyService) activeChildren(ctx context.Context, childLevel catalog.Level, parentID string) ([]Document, error) {
	repo, err := s.registry.Resolve(childLevel)
	if err != nil {
		return nil, err
	}
	res, err := repo.Search(ctx, Query{ParentID: parentID, Active: OnlyActive}, SearchOptions{Sort: creationOrder})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// GetFullHierarchyData devuelve un árbol por cada raíz activa, en orden de creación.
func (s *HierarchyService) GetFullHierarchyData(ctx context.Context, opts ...TreeOption) ([]Document, error) {
	cfg := s.treeConfig(opts)
	root := s.topology.Root()
	repo, err := s.registry.Resolve(root.Name)
	if err != nil {
		return nil, err
	}
	res, err := repo.Search(ctx, Query{Active: OnlyActive}, SearchOptions{Sort: creationOrder})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Data))
	for _, doc := range res.Data {
		ids = append(ids, DocumentID(doc))
	}
	return s.buildSiblings(ctx, root.Name, ids, cfg.maxDepth, cfg.currentDepth)
}

// ParentRef identifica al padre en ChildrenResult.
type ParentRef struct {
	Type catalog.Level `json:"type"`
	ID   string        `json:"id"`
}

// ChildrenResult hijos activos directos de un nodo.
type ChildrenResult struct {
	Children   []Document    `json:"children"`
	ChildLevel catalog.Level `json:"childLevel"`
	Parent     ParentRef     `json:"parent"`
}

// GetChildrenByParentIdData lista los hijos activos de parentID en orden de creación.
// Falla con ErrInvalidInput si parentLevel es una hoja.
func (s *HierarchyService) GetChildrenByParentIdData(ctx context.Context, parentLevel catalog.Level, parentID string) (*ChildrenResult, error) {
	d, err := s.topology.Describe(parentLevel)
	if err != nil {
		return nil, err
	}
	repo, err := s.registry.Resolve(parentLevel)
	if err != nil {
		return nil, err
	}
	if _, err := repo.EnsureExists(ctx, parentID, AnyState); err != nil {
		return nil, err
	}
	if d.IsLeaf() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s no tiene nivel hijo", parentLevel)
	}
	children, err := s.activeChildren(ctx, d.ChildLevel, parentID)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", parentLevel, parentID, err)
	}
	return &ChildrenResult{
		Children:   children,
		ChildLevel: d.ChildLevel,
		Parent:     ParentRef{Type: parentLevel, ID: parentID},
	}, nil
}

// AncestorEntry un eslabón de la cadena de ancestros.
type AncestorEntry struct {
	Type catalog.Level `json:"type"`
	Item Document      `json:"item"`
}

// GetParentHierarchyData devuelve la cadena desde la raíz hasta el nodo pedido (incluido, al final).
// Un padre vacío, colgante o excluido por la política de ancestros corta la subida sin error.
func (s *HierarchyService) GetParentHierarchyData(ctx context.Context, level catalog.Level, id string) ([]AncestorEntry, error) {
	if _, err := s.topology.Describe(level); err != nil {
		return nil, err
	}
	repo, err := s.registry.Resolve(level)
	if err != nil {
		return nil, err
	}
	node, err := repo.EnsureExists(ctx, id, s.ancestorPolicy)
	if err != nil {
		return nil, err
	}
	chain := []AncestorEntry{{Type: level, Item: repo.FormatOutput(node)}}

	cur, curLevel := node, level
	for {
		parent, ok := s.topology.Parent(curLevel)
		if !ok {
			break
		}
		if cur.ParentID == "" {
			s.log.Warn().Str("level", string(curLevel)).Str("id", cur.ID).Msg("nodo sin referencia al padre")
			break
		}
		prepo, err := s.registry.Resolve(parent.Name)
		if err != nil {
			return nil, err
		}
		pnode, err := prepo.EnsureExists(ctx, cur.ParentID, s.ancestorPolicy)
		if err != nil {
			if domain.IsNotFound(err) {
				s.log.Warn().Str("level", string(parent.Name)).Str("id", cur.ParentID).Msg("ancestro no resuelto, se detiene la subida")
				break
			}
			return nil, fmt.Errorf("%s %s: %w", parent.Name, cur.ParentID, err)
		}
		chain = append(chain, AncestorEntry{Type: parent.Name, Item: prepo.FormatOutput(pnode)})
		cur, curLevel = pnode, parent.Name
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// GetSubHierarchyData árbol a partir de un nodo activo. ErrNotFound si el nodo no existe.
func (s *HierarchyService) GetSubHierarchyData(ctx context.Context, level catalog.Level, id string, opts ...TreeOption) (Document, error) {
	if _, err := s.topology.Describe(level); err != nil {
		return nil, err
	}
	repo, err := s.registry.Resolve(level)
	if err != nil {
		return nil, err
	}
	if _, err := repo.EnsureExists(ctx, id, OnlyActive); err != nil {
		return nil, err
	}
	tree, err := s.BuildHierarchyTree(ctx, level, id, opts...)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, domain.Errorf(domain.ErrNotFound, "%s %s no encontrado", level, id)
	}
	return tree, nil
}
