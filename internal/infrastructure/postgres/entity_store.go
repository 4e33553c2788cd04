package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var _ repository.EntityStore = (*EntityStore)(nil)

const nodeColumns = `id, code, parent_id, is_active, data, created_at, updated_at`

// columnas reales; el resto de los campos de orden/búsqueda son rutas dentro de data
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"code":      "code",
	"isActive":  "is_active",
}

var pathSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EntityStore implementación de repository.EntityStore sobre la tabla catalog_nodes.
// Todas las colecciones comparten la tabla; collection las separa.
type EntityStore struct {
	q          Querier
	collection string
}

// NewEntityStore construye el adaptador de una colección. Pasar pool o tx (Querier).
func NewEntityStore(q Querier, collection string) *EntityStore {
	return &EntityStore{q: q, collection: collection}
}

// Stores devuelve una repository.StoreFactory sobre q.
func Stores(q Querier) repository.StoreFactory {
	return func(collection string) repository.EntityStore { return NewEntityStore(q, collection) }
}

func (s *EntityStore) Collection() string { return s.collection }

// FindByID obtiene un nodo por id; (nil, nil) si no existe.
func (s *EntityStore) FindByID(ctx context.Context, id string) (*entity.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM catalog_nodes WHERE collection = $1 AND id = $2`
	n, err := scanNode(s.q.QueryRow(ctx, query, s.collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", s.collection, err)
	}
	return n, nil
}

// Find lista nodos según filtro, orden y ventana.
func (s *EntityStore) Find(ctx context.Context, filter repository.Filter, opts repository.FindOptions) ([]*entity.Node, error) {
	b := &queryBuilder{}
	where, err := s.where(b, filter)
	if err != nil {
		return nil, err
	}
	orderBy, err := orderClause(b, opts.Sort)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + nodeColumns + ` FROM catalog_nodes WHERE ` + where + ` ORDER BY ` + orderBy
	if opts.Limit > 0 {
		query += ` LIMIT ` + b.arg(opts.Limit)
	}
	if opts.Skip > 0 {
		query += ` OFFSET ` + b.arg(opts.Skip)
	}

	rows, err := s.q.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.collection, err)
	}
	defer rows.Close()
	var list []*entity.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.collection, err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// Count cuenta nodos según filtro.
func (s *EntityStore) Count(ctx context.Context, filter repository.Filter) (int, error) {
	b := &queryBuilder{}
	where, err := s.where(b, filter)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM catalog_nodes WHERE `+where, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.collection, err)
	}
	return n, nil
}

// Insert persiste un nodo nuevo. Un code repetido en la colección devuelve ErrConflict.
func (s *EntityStore) Insert(ctx context.Context, node *entity.Node) (*entity.Node, error) {
	id := node.ID
	if id == "" {
		id = uuid.NewString()
	}
	data, err := marshalData(node.Data)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO catalog_nodes (id, collection, code, parent_id, is_active, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::jsonb, COALESCE($7, now()), COALESCE($8, now()))
		RETURNING ` + nodeColumns
	n, err := scanNode(s.q.QueryRow(ctx, query,
		id, s.collection, node.Code, nullable(node.ParentID), node.IsActive, data,
		nullableTime(node.CreatedAt), nullableTime(node.UpdatedAt),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Errorf(domain.ErrConflict, "%s: code '%s' duplicado", s.collection, node.Code)
		}
		return nil, fmt.Errorf("insert %s: %w", s.collection, err)
	}
	return n, nil
}

// FindOneAndUpdate aplica patch en una sola sentencia y devuelve el nodo resultante.
func (s *EntityStore) FindOneAndUpdate(ctx context.Context, id string, patch repository.Patch) (*entity.Node, error) {
	b := &queryBuilder{}
	sets := []string{"updated_at = now()"}
	if patch.Code != nil {
		sets = append(sets, "code = "+b.arg(*patch.Code))
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = "+b.arg(*patch.IsActive))
	}
	if patch.ParentID != nil {
		sets = append(sets, "parent_id = "+b.arg(nullable(*patch.ParentID)))
	}
	if len(patch.Set) > 0 {
		expr, err := dataExpr(b, patch.Set)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "data = "+expr)
	}
	query := `UPDATE catalog_nodes SET ` + strings.Join(sets, ", ") +
		` WHERE collection = ` + b.arg(s.collection) + ` AND id = ` + b.arg(id) +
		` RETURNING ` + nodeColumns
	n, err := scanNode(s.q.QueryRow(ctx, query, b.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, domain.Errorf(domain.ErrConflict, "%s: code duplicado", s.collection)
		}
		return nil, fmt.Errorf("update %s: %w", s.collection, err)
	}
	return n, nil
}

// FindOneAndDelete borra id y devuelve la fila borrada.
func (s *EntityStore) FindOneAndDelete(ctx context.Context, id string) (*entity.Node, error) {
	query := `DELETE FROM catalog_nodes WHERE collection = $1 AND id = $2 RETURNING ` + nodeColumns
	n, err := scanNode(s.q.QueryRow(ctx, query, s.collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete %s: %w", s.collection, err)
	}
	return n, nil
}

func (s *EntityStore) where(b *queryBuilder, f repository.Filter) (string, error) {
	conds := []string{"collection = " + b.arg(s.collection)}
	if f.ParentID != nil {
		conds = append(conds, "parent_id = "+b.arg(*f.ParentID))
	}
	if f.IsActive != nil {
		conds = append(conds, "is_active = "+b.arg(*f.IsActive))
	}
	if f.Code != nil {
		conds = append(conds, "code = "+b.arg(*f.Code))
	}
	if f.Match != nil && len(f.Match.Fields) > 0 {
		pattern := b.arg("%" + escapeLike(f.Match.Keyword) + "%")
		ors := make([]string, 0, len(f.Match.Fields))
		for _, field := range f.Match.Fields {
			if field == "code" {
				ors = append(ors, "code ILIKE "+pattern)
				continue
			}
			path, err := jsonPath(field)
			if err != nil {
				return "", err
			}
			ors = append(ors, "(data #>> "+b.arg(path)+"::text[]) ILIKE "+pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	return strings.Join(conds, " AND "), nil
}

func orderClause(b *queryBuilder, fields []repository.SortField) (string, error) {
	if len(fields) == 0 {
		return "created_at ASC, id ASC", nil
	}
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		dir := " ASC"
		if f.Desc {
			dir = " DESC"
		}
		if col, ok := sortColumns[f.Field]; ok {
			parts = append(parts, col+dir)
			continue
		}
		path, err := jsonPath(f.Field)
		if err != nil {
			return "", err
		}
		// jsonb compara números como números y textos como textos
		parts = append(parts, "(data #> "+b.arg(path)+"::text[])"+dir)
	}
	parts = append(parts, "created_at ASC", "id ASC")
	return strings.Join(parts, ", "), nil
}

// dataExpr arma la expresión que mezcla Set en data: las claves de primer nivel con ||
// y las rutas "k.sub" con jsonb_set sobre el objeto k existente.
// El resultado coincide con aplicar las claves en orden lexicográfico ("k" antes que "k.sub").
func dataExpr(b *queryBuilder, set map[string]any) (string, error) {
	top := make(map[string]any)
	nested := make(map[string]map[string]any)
	for k, v := range set {
		path, err := jsonPath(k)
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			top[k] = v
			continue
		}
		if nested[path[0]] == nil {
			nested[path[0]] = make(map[string]any)
		}
		nested[path[0]][path[1]] = v
	}
	// "k" y "k.sub" en el mismo patch: las subclaves se aplican sobre el nuevo valor de k,
	// porque el jsonb_set de abajo lee k desde la columna original.
	for k, subs := range nested {
		v, ok := top[k]
		if !ok {
			continue
		}
		merged := make(map[string]any, len(subs))
		if obj, isObj := v.(map[string]any); isObj {
			for sk, sv := range obj {
				merged[sk] = sv
			}
		}
		for sk, sv := range subs {
			merged[sk] = sv
		}
		top[k] = merged
		delete(nested, k)
	}

	expr := "data"
	if len(top) > 0 {
		raw, err := json.Marshal(top)
		if err != nil {
			return "", domain.Wrap(domain.ErrInvalidInput, err, "valor no serializable")
		}
		expr = "(" + expr + " || " + b.arg(string(raw)) + "::text::jsonb)"
	}
	keys := make([]string, 0, len(nested))
	for k := range nested {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw, err := json.Marshal(nested[k])
		if err != nil {
			return "", domain.Wrap(domain.ErrInvalidInput, err, "valor no serializable")
		}
		key := b.arg(k)
		expr = fmt.Sprintf(
			"jsonb_set(%s, ARRAY[%s::text], (CASE WHEN jsonb_typeof(data -> %s::text) = 'object' THEN data -> %s::text ELSE '{}'::jsonb END) || %s::text::jsonb, true)",
			expr, key, key, key, b.arg(string(raw)),
		)
	}
	return expr, nil
}

func jsonPath(field string) ([]string, error) {
	parts := strings.Split(field, ".")
	if len(parts) > 2 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "ruta de campo inválida %q", field)
	}
	for _, p := range parts {
		if !pathSegment.MatchString(p) {
			return nil, domain.Errorf(domain.ErrInvalidInput, "ruta de campo inválida %q", field)
		}
	}
	return parts, nil
}

type queryBuilder struct {
	args []any
}

// arg registra un parámetro y devuelve su placeholder ($n).
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func scanNode(row pgx.Row) (*entity.Node, error) {
	var (
		n      entity.Node
		parent *string
		data   []byte
	)
	if err := row.Scan(&n.ID, &n.Code, &parent, &n.IsActive, &data, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if parent != nil {
		n.ParentID = *parent
	}
	n.Data = make(map[string]any)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode data %s: %w", n.ID, err)
		}
	}
	return &n, nil
}

func marshalData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", domain.Wrap(domain.ErrInvalidInput, err, "documento no serializable")
	}
	return string(raw), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
