// Package metrics instrumenta los stores con Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

// StoreMetrics latencia y errores de las llamadas al store por colección y operación.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewStoreMetrics registra los colectores en reg (prometheus.DefaultRegisterer si es nil).
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &StoreMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duración de las operaciones del store.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"collection", "operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "store",
			Name:      "operation_errors_total",
			Help:      "Operaciones del store que devolvieron error.",
		}, []string{"collection", "operation"}),
	}
	reg.MustRegister(m.duration, m.errors)
	return m
}

// Wrap decora store con las métricas.
func (m *StoreMetrics) Wrap(store repository.EntityStore) repository.EntityStore {
	return &InstrumentedStore{next: store, m: m}
}

func (m *StoreMetrics) observe(collection, op string, start time.Time, err error) {
	m.duration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(collection, op).Inc()
	}
}

var _ repository.EntityStore = (*InstrumentedStore)(nil)

// InstrumentedStore EntityStore que mide cada llamada.
type InstrumentedStore struct {
	next repository.EntityStore
	m    *StoreMetrics
}

func (s *InstrumentedStore) Collection() string { return s.next.Collection() }

func (s *InstrumentedStore) FindByID(ctx context.Context, id string) (*entity.Node, error) {
	start := time.Now()
	n, err := s.next.FindByID(ctx, id)
	s.m.observe(s.next.Collection(), "find_by_id", start, err)
	return n, err
}

func (s *InstrumentedStore) Find(ctx context.Context, filter repository.Filter, opts repository.FindOptions) ([]*entity.Node, error) {
	start := time.Now()
	out, err := s.next.Find(ctx, filter, opts)
	s.m.observe(s.next.Collection(), "find", start, err)
	return out, err
}

func (s *InstrumentedStore) Count(ctx context.Context, filter repository.Filter) (int, error) {
	start := time.Now()
	n, err := s.next.Count(ctx, filter)
	s.m.observe(s.next.Collection(), "count", start, err)
	return n, err
}

func (s *InstrumentedStore) Insert(ctx context.Context, node *entity.Node) (*entity.Node, error) {
	start := time.Now()
	out, err := s.next.Insert(ctx, node)
	s.m.observe(s.next.Collection(), "insert", start, err)
	return out, err
}

func (s *InstrumentedStore) FindOneAndUpdate(ctx context.Context, id string, patch repository.Patch) (*entity.Node, error) {
	start := time.Now()
	out, err := s.next.FindOneAndUpdate(ctx, id, patch)
	s.m.observe(s.next.Collection(), "update", start, err)
	return out, err
}

func (s *InstrumentedStore) FindOneAndDelete(ctx context.Context, id string) (*entity.Node, error) {
	start := time.Now()
	out, err := s.next.FindOneAndDelete(ctx, id)
	s.m.observe(s.next.Collection(), "delete", start, err)
	return out, err
}
