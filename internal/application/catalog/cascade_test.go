package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

func TestDeleteCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.chain(t, "A")
	b := f.chain(t, "B")
	f.create(t, domaincatalog.LevelProducts, "A-extra", a[3])
	f.deactivate(t, domaincatalog.LevelSubCategories, a[2])

	deleter := catalog.NewDeleter(f.registry, memory.NewTxRunner(f.db), logger.Nop())
	n, err := deleter.DeleteCascade(ctx, domaincatalog.LevelCategories, a[1])
	require.NoError(t, err)
	assert.Equal(t, 5, n, "category + subCategory inactivo + specification + 2 productos")

	for i, d := range domaincatalog.DefaultTopology().Levels() {
		_, err := f.repo(t, d.Name).EnsureExists(ctx, a[i], catalog.AnyState)
		if i == 0 {
			assert.NoError(t, err, "la serie no se toca")
		} else {
			assert.ErrorIs(t, err, domain.ErrNotFound, d.Name)
		}
		_, err = f.repo(t, d.Name).EnsureExists(ctx, b[i], catalog.AnyState)
		assert.NoError(t, err, "otra rama intacta")
	}

	_, err = deleter.DeleteCascade(ctx, domaincatalog.LevelCategories, a[1])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
