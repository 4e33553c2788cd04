package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	wrap func(repository.EntityStore) repository.EntityStore
}

// NewTxRunner construye el runner con el pool. wrap (opcional) decora cada store atado a la tx,
// p. ej. con métricas.
func NewTxRunner(pool *pgxpool.Pool, wrap func(repository.EntityStore) repository.EntityStore) *TxRunner {
	if wrap == nil {
		wrap = func(s repository.EntityStore) repository.EntityStore { return s }
	}
	return &TxRunner{pool: pool, wrap: wrap}
}

// Run inicia una transacción, ejecuta fn con stores atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(stores repository.StoreFactory) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stores := func(collection string) repository.EntityStore {
		return r.wrap(NewEntityStore(tx, collection))
	}
	if err := fn(stores); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
