package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
)

func TestInstrumentedStore_CountsCallsAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)
	store := m.Wrap(memory.NewDB().Store("series"))
	ctx := context.Background()

	assert.Equal(t, "series", store.Collection())

	created, err := store.Insert(ctx, &entity.Node{ID: "s1", Code: "S1", IsActive: true, Data: map[string]any{}})
	require.NoError(t, err)
	_, err = store.FindByID(ctx, created.ID)
	require.NoError(t, err)

	// id duplicado -> error
	_, err = store.Insert(ctx, &entity.Node{ID: "s1", Code: "S2", Data: map[string]any{}})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("series", "insert")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.errors.WithLabelValues("series", "find_by_id")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}
