// Package memory implementa los stores del catálogo en memoria: cada registro guarda su documento
// como JSON, los patches se aplican con sjson y las búsquedas/órdenes sobre rutas del documento con gjson.
// Se usa con STORE_DRIVER=memory y en los tests de la capa de aplicación.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

type record struct {
	id        string
	code      string
	parentID  string
	active    bool
	doc       []byte
	createdAt time.Time
	updatedAt time.Time
	seq       uint64
}

// DB agrupa las colecciones. Los registros son inmutables: cada escritura reemplaza el puntero,
// lo que permite a TxRunner restaurar una instantánea.
type DB struct {
	mu   sync.RWMutex
	cols map[string]map[string]*record
	seq  uint64
	now  func() time.Time
}

// NewDB crea una base vacía.
func NewDB() *DB {
	return &DB{cols: make(map[string]map[string]*record), now: time.Now}
}

// Store devuelve el store de una colección; su firma coincide con repository.StoreFactory.
func (db *DB) Store(collection string) repository.EntityStore {
	return &EntityStore{db: db, name: collection}
}

// EntityStore implementa repository.EntityStore para una colección.
type EntityStore struct {
	db   *DB
	name string
}

var _ repository.EntityStore = (*EntityStore)(nil)

func (s *EntityStore) Collection() string { return s.name }

func (s *EntityStore) FindByID(_ context.Context, id string) (*entity.Node, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.cols[s.name][id]
	if !ok {
		return nil, nil
	}
	return r.node()
}

func (s *EntityStore) Find(_ context.Context, filter repository.Filter, opts repository.FindOptions) ([]*entity.Node, error) {
	s.db.mu.RLock()
	matched := s.matching(filter)
	s.db.mu.RUnlock()

	sortRecords(matched, opts.Sort)

	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[opts.Skip:]
		}
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	out := make([]*entity.Node, 0, len(matched))
	for _, r := range matched {
		n, err := r.node()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *EntityStore) Count(_ context.Context, filter repository.Filter) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.matching(filter)), nil
}

func (s *EntityStore) Insert(_ context.Context, node *entity.Node) (*entity.Node, error) {
	doc, err := marshalData(node.Data)
	if err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	col := s.db.cols[s.name]
	if col == nil {
		col = make(map[string]*record)
		s.db.cols[s.name] = col
	}
	id := strings.Clone(node.ID)
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := col[id]; exists {
		return nil, domain.Errorf(domain.ErrConflict, "%s: id duplicado %s", s.name, id)
	}
	now := s.db.now().UTC()
	s.db.seq++
	r := &record{
		id:        id,
		code:      node.Code,
		parentID:  node.ParentID,
		active:    node.IsActive,
		doc:       doc,
		createdAt: node.CreatedAt,
		updatedAt: node.UpdatedAt,
		seq:       s.db.seq,
	}
	if r.createdAt.IsZero() {
		r.createdAt = now
	}
	if r.updatedAt.IsZero() {
		r.updatedAt = r.createdAt
	}
	col[id] = r
	return r.node()
}

func (s *EntityStore) FindOneAndUpdate(_ context.Context, id string, patch repository.Patch) (*entity.Node, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	cur, ok := s.db.cols[s.name][id]
	if !ok {
		return nil, nil
	}
	next := *cur
	if patch.Code != nil {
		next.code = *patch.Code
	}
	if patch.IsActive != nil {
		next.active = *patch.IsActive
	}
	if patch.ParentID != nil {
		next.parentID = *patch.ParentID
	}
	doc, err := applySet(cur.doc, patch.Set)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidInput, err, "%s: aplicar cambios a %s", s.name, id)
	}
	next.doc = doc
	next.updatedAt = s.db.now().UTC()
	// la clave es el id del registro: id puede apuntar a un buffer que el llamador reutiliza
	s.db.cols[s.name][cur.id] = &next
	return next.node()
}

func (s *EntityStore) FindOneAndDelete(_ context.Context, id string) (*entity.Node, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.cols[s.name][id]
	if !ok {
		return nil, nil
	}
	delete(s.db.cols[s.name], id)
	return r.node()
}

// matching requiere el lock de lectura tomado.
func (s *EntityStore) matching(f repository.Filter) []*record {
	var kw string
	if f.Match != nil {
		kw = strings.ToLower(f.Match.Keyword)
	}
	out := make([]*record, 0)
	for _, r := range s.db.cols[s.name] {
		if f.ParentID != nil && r.parentID != *f.ParentID {
			continue
		}
		if f.IsActive != nil && r.active != *f.IsActive {
			continue
		}
		if f.Code != nil && r.code != *f.Code {
			continue
		}
		if f.Match != nil && !r.matchKeyword(kw, f.Match.Fields) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (r *record) matchKeyword(kw string, fields []string) bool {
	for _, field := range fields {
		var v string
		if field == "code" {
			v = r.code
		} else {
			v = gjson.GetBytes(r.doc, field).String()
		}
		if strings.Contains(strings.ToLower(v), kw) {
			return true
		}
	}
	return false
}

func (r *record) node() (*entity.Node, error) {
	data := make(map[string]any)
	if err := json.Unmarshal(r.doc, &data); err != nil {
		return nil, domain.Wrap(domain.ErrInternal, err, "documento corrupto %s", r.id)
	}
	return &entity.Node{
		ID:        r.id,
		Code:      r.code,
		IsActive:  r.active,
		ParentID:  r.parentID,
		Data:      data,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}, nil
}

func marshalData(data map[string]any) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidInput, err, "documento no serializable")
	}
	return b, nil
}

// applySet aplica las rutas en orden lexicográfico para que "name" se escriba antes que "name.EN".
func applySet(doc []byte, set map[string]any) ([]byte, error) {
	if len(set) == 0 {
		return doc, nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := doc
	for _, k := range keys {
		var err error
		out, err = sjson.SetBytes(out, k, set[k])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sortRecords(rs []*record, fields []repository.SortField) {
	sort.SliceStable(rs, func(i, j int) bool {
		for _, f := range fields {
			c := compareField(rs[i], rs[j], f.Field)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return rs[i].seq < rs[j].seq
	})
}

func compareField(a, b *record, field string) int {
	switch field {
	case "createdAt":
		return a.createdAt.Compare(b.createdAt)
	case "updatedAt":
		return a.updatedAt.Compare(b.updatedAt)
	case "code":
		return strings.Compare(a.code, b.code)
	case "isActive":
		return boolCompare(a.active, b.active)
	}
	va, vb := gjson.GetBytes(a.doc, field), gjson.GetBytes(b.doc, field)
	if va.Type == gjson.Number && vb.Type == gjson.Number {
		switch {
		case va.Num < vb.Num:
			return -1
		case va.Num > vb.Num:
			return 1
		}
		return 0
	}
	return strings.Compare(va.String(), vb.String())
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
