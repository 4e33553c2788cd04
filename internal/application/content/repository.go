package content

import (
	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

// NewNewsRepository repositorio de news: sin padre, sin code, inactivo por defecto.
func NewNewsRepository(store repository.EntityStore, searcher repository.KeywordSearcher, langs []string) *catalog.EntityRepository {
	return catalog.NewEntityRepository(store, searcher, catalog.RepositoryConfig{
		Collection:       domaincatalog.CollectionNews,
		SearchableFields: append(catalog.MultilingualFields(langs, "title", "summary"), "category"),
		Languages:        langs,
		Validate:         ValidateNews,
	})
}

// NewFaqRepository repositorio de faqs: sin padre, sin code, inactivo por defecto.
func NewFaqRepository(store repository.EntityStore, searcher repository.KeywordSearcher, langs []string) *catalog.EntityRepository {
	return catalog.NewEntityRepository(store, searcher, catalog.RepositoryConfig{
		Collection:       domaincatalog.CollectionFaqs,
		SearchableFields: append(catalog.MultilingualFields(langs, "question", "answer"), "category", "productModel"),
		Languages:        langs,
		Validate:         ValidateFaq,
	})
}
