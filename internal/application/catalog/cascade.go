package catalog

import (
	"context"

	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// Deleter borra un nodo junto con todos sus descendientes dentro de una transacción.
type Deleter struct {
	registry *Registry
	tx       repository.TxRunner
	log      *logger.Logger
}

// NewDeleter construye el borrador en cascada.
func NewDeleter(registry *Registry, tx repository.TxRunner, log *logger.Logger) *Deleter {
	return &Deleter{registry: registry, tx: tx, log: log}
}

// DeleteCascade borra id y sus descendientes (activos o no) nivel por nivel.
// Devuelve cuántos nodos se eliminaron en total.
func (d *Deleter) DeleteCascade(ctx context.Context, level catalog.Level, id string) (int, error) {
	topology := d.registry.Topology()
	desc, err := topology.Describe(level)
	if err != nil {
		return 0, err
	}
	repo, err := d.registry.Resolve(level)
	if err != nil {
		return 0, err
	}
	if _, err := repo.EnsureExists(ctx, id, AnyState); err != nil {
		return 0, err
	}

	deleted := 0
	err = d.tx.Run(ctx, func(stores repository.StoreFactory) error {
		deleted = 0
		ids := []string{id}
		cur := desc
		for len(ids) > 0 {
			store := stores(string(cur.Name))
			var next []string
			for _, nid := range ids {
				if !cur.IsLeaf() {
					children, err := stores(string(cur.ChildLevel)).Find(ctx, repository.Filter{ParentID: &nid}, repository.FindOptions{})
					if err != nil {
						return repo.storeErr(err, "hijos de %s", nid)
					}
					for _, c := range children {
						next = append(next, c.ID)
					}
				}
				removed, err := store.FindOneAndDelete(ctx, nid)
				if err != nil {
					return repo.storeErr(err, "eliminar %s %s", cur.Name, nid)
				}
				if removed != nil {
					deleted++
				}
			}
			if cur.IsLeaf() {
				break
			}
			cur, _ = topology.Lookup(cur.ChildLevel)
			ids = next
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	d.log.Info().Str("level", string(level)).Str("id", id).Int("deleted", deleted).Msg("borrado en cascada")
	return deleted, nil
}
