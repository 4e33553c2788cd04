package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
)

func ptr[T any](v T) *T { return &v }

func insert(t *testing.T, s repository.EntityStore, code, parent string, active bool, data map[string]any) *entity.Node {
	t.Helper()
	n, err := s.Insert(context.Background(), &entity.Node{Code: code, ParentID: parent, IsActive: active, Data: data})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)
	return n
}

func TestEntityStore_PatchAnidadoConservaHermanas(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDB().Store("series")
	n := insert(t, s, "S1", "", true, map[string]any{
		"name":   map[string]any{"TW": "系列", "EN": "Series"},
		"images": []any{"a.png", "b.png"},
	})

	got, err := s.FindOneAndUpdate(ctx, n.ID, repository.Patch{Set: map[string]any{
		"name.EN": "Series One",
		"images":  []any{"c.png"},
	}})
	require.NoError(t, err)
	require.NotNil(t, got)

	name := got.Data["name"].(map[string]any)
	assert.Equal(t, "系列", name["TW"])
	assert.Equal(t, "Series One", name["EN"])
	assert.Equal(t, []any{"c.png"}, got.Data["images"])
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestEntityStore_NoExiste(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDB().Store("series")

	n, err := s.FindByID(ctx, "nada")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = s.FindOneAndUpdate(ctx, "nada", repository.Patch{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = s.FindOneAndDelete(ctx, "nada")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestEntityStore_FiltrosYKeyword(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDB().Store("categories")
	insert(t, s, "C1", "p1", true, map[string]any{"name": map[string]any{"EN": "Cameras"}})
	insert(t, s, "C2", "p1", false, map[string]any{"name": map[string]any{"EN": "Camera mounts"}})
	insert(t, s, "C3", "p2", true, map[string]any{"name": map[string]any{"EN": "Recorders"}})

	n, err := s.Count(ctx, repository.Filter{ParentID: ptr("p1")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Count(ctx, repository.Filter{ParentID: ptr("p1"), IsActive: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err := s.Find(ctx, repository.Filter{Match: &repository.KeywordMatch{Keyword: "CAMERA", Fields: []string{"name.EN"}}}, repository.FindOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.Find(ctx, repository.Filter{Match: &repository.KeywordMatch{Keyword: "c3", Fields: []string{"code"}}}, repository.FindOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "C3", found[0].Code)
}

func TestEntityStore_OrdenYVentana(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDB().Store("products")
	insert(t, s, "B", "", true, map[string]any{"rank": 2})
	insert(t, s, "A", "", true, map[string]any{"rank": 10})
	insert(t, s, "C", "", true, map[string]any{"rank": 1})

	codes := func(ns []*entity.Node) []string {
		out := make([]string, 0, len(ns))
		for _, n := range ns {
			out = append(out, n.Code)
		}
		return out
	}

	all, err := s.Find(ctx, repository.Filter{}, repository.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, codes(all), "sin orden explícito se respeta la inserción")

	byRank, err := s.Find(ctx, repository.Filter{}, repository.FindOptions{Sort: []repository.SortField{{Field: "rank"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, codes(byRank), "orden numérico, no lexicográfico")

	page, err := s.Find(ctx, repository.Filter{}, repository.FindOptions{
		Sort: []repository.SortField{{Field: "code", Desc: true}}, Skip: 1, Limit: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, codes(page))
}

func TestTxRunner_RollbackRestauraEstado(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	s := db.Store("series")
	n := insert(t, s, "S1", "", true, nil)

	boom := errors.New("boom")
	err := memory.NewTxRunner(db).Run(ctx, func(stores repository.StoreFactory) error {
		_, err := stores("series").FindOneAndDelete(ctx, n.ID)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "el borrado debe revertirse")
}
