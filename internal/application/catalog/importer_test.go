package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

func TestImportTree_CreaYLuegoActualiza(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	im := catalog.NewImporter(f.registry, logger.Nop())

	tree := []catalog.Document{{
		"code": "S1",
		"name": map[string]any{"TW": "系列"},
		"categories": []any{
			map[string]any{"code": "C1", "subCategories": []any{
				map[string]any{"code": "SC1"},
				map[string]any{"name": map[string]any{"TW": "sin code"}},
			}},
		},
	}}

	report, err := im.ImportTree(ctx, domaincatalog.LevelSeries, "", tree)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, domaincatalog.LevelSubCategories, report.Skipped[0].Level)

	tree[0]["name"] = map[string]any{"EN": "Series"}
	report, err = im.ImportTree(ctx, domaincatalog.LevelSeries, "", tree)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 3, report.Updated)

	forest, err := f.engine.GetFullHierarchyData(ctx)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	name := forest[0]["name"].(map[string]any)
	assert.Equal(t, "系列", name["TW"])
	assert.Equal(t, "Series", name["EN"])
	assert.Len(t, children(t, forest[0], "categories"), 1)
}

func TestImportRows_ResuelvePadrePorCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.chain(t, "X")
	im := catalog.NewImporter(f.registry, logger.Nop())

	report, err := im.ImportRows(ctx, domaincatalog.LevelProducts, []catalog.ImportRow{
		{ParentCode: "X-specifications", Doc: catalog.Document{"code": "P-NEW"}},
		{ParentCode: "X-specifications", Doc: catalog.Document{"code": "X-products", "name": map[string]any{"EN": "renamed"}}},
		{ParentCode: "missing", Doc: catalog.Document{"code": "P-ORPHAN"}},
		{ParentCode: "", Doc: catalog.Document{"code": "P-NOPARENT"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Len(t, report.Skipped, 2)
	assert.Empty(t, report.Errors)

	res, err := f.engine.GetChildrenByParentIdData(ctx, domaincatalog.LevelSpecifications, ids[3])
	require.NoError(t, err)
	assert.Len(t, res.Children, 2)
}
