package catalog

import (
	"sync"

	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

// DefaultLanguages idiomas de los campos multilingües.
var DefaultLanguages = []string{"TW", "EN"}

// Registry construye de forma perezosa un EntityRepository por nivel y lo cachea.
// Una vez construido, el repositorio de un nivel no cambia; Resolve es seguro entre goroutines.
type Registry struct {
	topology  *catalog.Topology
	stores    repository.StoreFactory
	searcher  repository.KeywordSearcher
	languages []string

	mu    sync.Mutex
	repos map[catalog.Level]*EntityRepository
}

// RegistryOption configura el Registry.
type RegistryOption func(*Registry)

// WithLanguages cambia los idiomas usados en búsqueda y formato.
func WithLanguages(langs ...string) RegistryOption {
	return func(r *Registry) {
		if len(langs) > 0 {
			r.languages = langs
		}
	}
}

// NewRegistry crea un registro vacío; los repositorios se crean en el primer Resolve.
func NewRegistry(topology *catalog.Topology, stores repository.StoreFactory, searcher repository.KeywordSearcher, opts ...RegistryOption) *Registry {
	r := &Registry{
		topology:  topology,
		stores:    stores,
		searcher:  searcher,
		languages: DefaultLanguages,
		repos:     make(map[catalog.Level]*EntityRepository),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Topology tabla de niveles del registro.
func (r *Registry) Topology() *catalog.Topology { return r.topology }

// Languages idiomas configurados.
func (r *Registry) Languages() []string { return r.languages }

// Resolve devuelve el repositorio de level, construyéndolo (y a sus ancestros) la primera vez.
// Llamadas concurrentes convergen en la misma instancia.
func (r *Registry) Resolve(level catalog.Level) (*EntityRepository, error) {
	d, err := r.topology.Describe(level)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	repo, ok := r.repos[level]
	r.mu.Unlock()
	if ok {
		return repo, nil
	}

	// el padre se resuelve antes de tomar el lock; la cadena es acíclica
	var parent *EntityRepository
	if p, hasParent := r.topology.Parent(level); hasParent {
		if parent, err = r.Resolve(p.Name); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, ok := r.repos[level]; ok {
		return repo, nil
	}
	repo = NewEntityRepository(r.stores(string(level)), r.searcher, r.levelConfig(d, parent))
	r.repos[level] = repo
	return repo, nil
}

// MustResolve es Resolve para niveles constantes conocidos en tiempo de compilación.
func (r *Registry) MustResolve(level catalog.Level) *EntityRepository {
	repo, err := r.Resolve(level)
	if err != nil {
		panic(err)
	}
	return repo
}

func (r *Registry) levelConfig(d catalog.LevelDescriptor, parent *EntityRepository) RepositoryConfig {
	return RepositoryConfig{
		Collection:       string(d.Name),
		ParentField:      d.ParentField,
		Parent:           parent,
		SearchableFields: MultilingualFields(r.languages, "name"),
		RequireCode:      true,
		DefaultActive:    true,
		Languages:        r.languages,
	}
}

// MultilingualFields expande cada campo a sus rutas por idioma: name → name.TW, name.EN.
func MultilingualFields(langs []string, fields ...string) []string {
	out := make([]string, 0, len(langs)*len(fields))
	for _, f := range fields {
		for _, l := range langs {
			out = append(out, f+"."+l)
		}
	}
	return out
}
