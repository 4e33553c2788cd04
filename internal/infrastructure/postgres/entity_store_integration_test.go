//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/search"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// startPostgres levanta un PostgreSQL 16, aplica las migraciones y devuelve el pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "catalogo_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/catalogo_test?sslmode=disable", host, port.Port())

	// El puerto abre antes de que el servidor acepte conexiones.
	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return false
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return false
		}
		pool = p
		return true
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(dsn))
	version, dirty, err := postgres.MigrationStatus(dsn)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
	return pool
}

func TestEntityStore_Postgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	store := postgres.NewEntityStore(pool, "series")

	t.Run("insert y find por id", func(t *testing.T) {
		n, err := store.Insert(ctx, &entity.Node{
			Code: "S-1", IsActive: true,
			Data: map[string]any{"name": map[string]any{"TW": "一", "EN": "One"}, "tags": []any{"a", "b"}},
		})
		require.NoError(t, err)
		require.NotEmpty(t, n.ID)

		got, err := store.FindByID(ctx, n.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "S-1", got.Code)
		assert.Equal(t, map[string]any{"TW": "一", "EN": "One"}, got.Data["name"])
	})

	t.Run("id inexistente devuelve nil", func(t *testing.T) {
		got, err := store.FindByID(ctx, "no-existe")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("patch anidado conserva las claves hermanas", func(t *testing.T) {
		n, err := store.Insert(ctx, &entity.Node{Code: "S-2", IsActive: true,
			Data: map[string]any{"name": map[string]any{"TW": "二", "EN": "Two"}, "tags": []any{"x"}}})
		require.NoError(t, err)

		updated, err := store.FindOneAndUpdate(ctx, n.ID, repository.Patch{Set: map[string]any{
			"name.EN": "Two v2",
			"tags":    []any{"y", "z"},
			"extra":   1,
		}})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, map[string]any{"TW": "二", "EN": "Two v2"}, updated.Data["name"])
		assert.Equal(t, []any{"y", "z"}, updated.Data["tags"])
		assert.EqualValues(t, 1, updated.Data["extra"])
		assert.True(t, !updated.UpdatedAt.Before(n.UpdatedAt))
	})

	t.Run("code duplicado es conflicto", func(t *testing.T) {
		_, err := store.Insert(ctx, &entity.Node{Code: "S-1", IsActive: true, Data: map[string]any{}})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("keyword insensible a mayúsculas y con comodines escapados", func(t *testing.T) {
		searcher := search.NewKeywordSearcher()
		nodes, total, err := searcher.SearchByKeyword(ctx, store, repository.KeywordQuery{
			Keyword: "two",
			Fields:  []string{"name.EN"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, nodes, 1)
		assert.Equal(t, "S-2", nodes[0].Code)

		_, total, err = searcher.SearchByKeyword(ctx, store, repository.KeywordQuery{Keyword: "%", Fields: []string{"name.EN"}})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("orden y ventana", func(t *testing.T) {
		nodes, err := store.Find(ctx, repository.Filter{}, repository.FindOptions{
			Sort:  []repository.SortField{{Field: "code", Desc: true}},
			Limit: 1,
		})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "S-2", nodes[0].Code)
	})
}

func TestCascadeDelete_PostgresTx(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	reg := catalog.NewRegistry(domaincatalog.DefaultTopology(), postgres.Stores(pool), search.NewKeywordSearcher())
	deleter := catalog.NewDeleter(reg, postgres.NewTxRunner(pool, nil), logger.Nop())
	engine := catalog.NewHierarchyService(reg, logger.Nop())

	parent := ""
	var ids []string
	for _, d := range domaincatalog.DefaultTopology().Levels() {
		repo := reg.MustResolve(d.Name)
		doc := catalog.Document{"code": "C-" + string(d.Name), "name": map[string]any{"EN": string(d.Name)}}
		if repo.ParentField() != "" {
			doc[repo.ParentField()] = parent
		}
		out, err := repo.Create(ctx, doc)
		require.NoError(t, err)
		parent = catalog.DocumentID(out)
		ids = append(ids, parent)
	}

	tree, err := engine.BuildHierarchyTree(ctx, domaincatalog.LevelSeries, ids[0])
	require.NoError(t, err)
	require.NotNil(t, tree)

	n, err := deleter.DeleteCascade(ctx, domaincatalog.LevelSeries, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	for i, d := range domaincatalog.DefaultTopology().Levels() {
		_, err := reg.MustResolve(d.Name).EnsureExists(ctx, ids[i], catalog.AnyState)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}
