package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/search"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

type fixture struct {
	db       *memory.DB
	registry *catalog.Registry
	engine   *catalog.HierarchyService
}

func newFixture(t *testing.T, opts ...catalog.HierarchyOption) *fixture {
	t.Helper()
	db := memory.NewDB()
	reg := catalog.NewRegistry(domaincatalog.DefaultTopology(), db.Store, search.NewKeywordSearcher())
	return &fixture{db: db, registry: reg, engine: catalog.NewHierarchyService(reg, logger.Nop(), opts...)}
}

func (f *fixture) repo(t *testing.T, level domaincatalog.Level) *catalog.EntityRepository {
	t.Helper()
	r, err := f.registry.Resolve(level)
	require.NoError(t, err)
	return r
}

// create crea un nodo en level con code y, si parentID no es vacío, bajo ese padre.
func (f *fixture) create(t *testing.T, level domaincatalog.Level, code, parentID string) string {
	t.Helper()
	r := f.repo(t, level)
	doc := catalog.Document{
		"code": code,
		"name": map[string]any{"TW": code + "-tw", "EN": code + "-en"},
	}
	if r.ParentField() != "" {
		doc[r.ParentField()] = parentID
	}
	out, err := r.Create(context.Background(), doc)
	require.NoError(t, err)
	id, ok := out["_id"].(string)
	require.True(t, ok, "el id formateado debe ser texto")
	return id
}

// chain crea series → category → subCategory → specification → product y devuelve los ids en ese orden.
func (f *fixture) chain(t *testing.T, prefix string) []string {
	t.Helper()
	ids := make([]string, 0, 5)
	parent := ""
	for _, d := range domaincatalog.DefaultTopology().Levels() {
		parent = f.create(t, d.Name, prefix+"-"+string(d.Name), parent)
		ids = append(ids, parent)
	}
	return ids
}

func (f *fixture) deactivate(t *testing.T, level domaincatalog.Level, id string) {
	t.Helper()
	_, err := f.repo(t, level).Update(context.Background(), id, catalog.Document{"isActive": false})
	require.NoError(t, err)
}
