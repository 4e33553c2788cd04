// Package search implementa la búsqueda por palabra clave sobre cualquier EntityStore.
package search

import (
	"context"
	"strings"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var _ repository.KeywordSearcher = (*KeywordSearcher)(nil)

// KeywordSearcher traduce una palabra clave a un Filter.Match y delega en el store
// (ILIKE en PostgreSQL, gjson en memoria).
type KeywordSearcher struct{}

// NewKeywordSearcher construye el buscador.
func NewKeywordSearcher() *KeywordSearcher { return &KeywordSearcher{} }

// SearchByKeyword devuelve la página pedida y el total de coincidencias.
func (s *KeywordSearcher) SearchByKeyword(ctx context.Context, store repository.EntityStore, q repository.KeywordQuery) ([]*entity.Node, int, error) {
	filter := q.Filter
	if kw := strings.TrimSpace(q.Keyword); kw != "" && len(q.Fields) > 0 {
		filter.Match = &repository.KeywordMatch{Keyword: kw, Fields: dedupe(q.Fields)}
	}
	total, err := store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entity.Node{}, 0, nil
	}
	items, err := store.Find(ctx, filter, q.Options)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func dedupe(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
