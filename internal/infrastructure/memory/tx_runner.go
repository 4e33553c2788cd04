package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner serializa las "transacciones" en memoria y restaura la instantánea previa si fn falla.
// Las escrituras concurrentes hechas fuera de Run durante un rollback se pierden.
type TxRunner struct {
	db *DB
	mu sync.Mutex
}

// NewTxRunner construye el runner sobre db.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run ejecuta fn con los stores de db.
func (r *TxRunner) Run(_ context.Context, fn func(stores repository.StoreFactory) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.db.snapshot()
	if err := fn(r.db.Store); err != nil {
		r.db.restore(snapshot)
		return err
	}
	return nil
}

func (db *DB) snapshot() map[string]map[string]*record {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make(map[string]map[string]*record, len(db.cols))
	for name, col := range db.cols {
		cp := make(map[string]*record, len(col))
		for id, r := range col {
			cp[id] = r
		}
		out[name] = cp
	}
	return out
}

func (db *DB) restore(snap map[string]map[string]*record) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cols = snap
}
