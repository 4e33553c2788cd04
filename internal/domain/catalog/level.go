// Package catalog contiene la tabla de topología de la jerarquía del catálogo:
// qué niveles existen, cuál es el padre y el hijo de cada uno y con qué campo se referencia al padre.
package catalog

import (
	"strings"

	"github.com/jhoicas/Catalogo-api/internal/domain"
)

// Level identifica un nivel de la jerarquía (y su colección).
type Level string

const (
	LevelSeries         Level = "series"
	LevelCategories     Level = "categories"
	LevelSubCategories  Level = "subCategories"
	LevelSpecifications Level = "specifications"
	LevelProducts       Level = "products"
)

// Colecciones planas (sin padre) que comparten el repositorio genérico.
const (
	CollectionNews = "news"
	CollectionFaqs = "faqs"
)

// LevelDescriptor describe un nivel. ParentField vacío = raíz; ChildLevel vacío = hoja.
type LevelDescriptor struct {
	Name        Level
	ParentField string
	ChildLevel  Level
}

// IsRoot indica si el nivel no tiene padre.
func (d LevelDescriptor) IsRoot() bool { return d.ParentField == "" }

// IsLeaf indica si el nivel no tiene hijos.
func (d LevelDescriptor) IsLeaf() bool { return d.ChildLevel == "" }

var defaultLevels = []LevelDescriptor{
	{Name: LevelSeries, ChildLevel: LevelCategories},
	{Name: LevelCategories, ParentField: string(LevelSeries), ChildLevel: LevelSubCategories},
	{Name: LevelSubCategories, ParentField: string(LevelCategories), ChildLevel: LevelSpecifications},
	{Name: LevelSpecifications, ParentField: string(LevelSubCategories), ChildLevel: LevelProducts},
	{Name: LevelProducts, ParentField: string(LevelSpecifications)},
}

// Topology es inmutable después de construirse; se puede compartir entre goroutines.
type Topology struct {
	levels []LevelDescriptor
	byName map[Level]LevelDescriptor
	parent map[Level]Level
}

// DefaultTopology devuelve la cadena series → categories → subCategories → specifications → products.
func DefaultTopology() *Topology {
	t, err := NewTopology(defaultLevels)
	if err != nil {
		panic("topología por defecto inválida: " + err.Error())
	}
	return t
}

// NewTopology valida que los descriptores formen una única cadena lineal:
// una raíz, una hoja, sin ciclos, y que cada hijo declarado exista y apunte de vuelta a su padre.
func NewTopology(levels []LevelDescriptor) (*Topology, error) {
	if len(levels) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "topología vacía")
	}
	t := &Topology{
		levels: make([]LevelDescriptor, 0, len(levels)),
		byName: make(map[Level]LevelDescriptor, len(levels)),
		parent: make(map[Level]Level, len(levels)),
	}
	var root *LevelDescriptor
	for i := range levels {
		d := levels[i]
		if d.Name == "" {
			return nil, domain.Errorf(domain.ErrInvalidInput, "nivel sin nombre en posición %d", i)
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, domain.Errorf(domain.ErrInvalidInput, "nivel duplicado: %s", d.Name)
		}
		t.byName[d.Name] = d
		if d.IsRoot() {
			if root != nil {
				return nil, domain.Errorf(domain.ErrInvalidInput, "más de una raíz: %s y %s", root.Name, d.Name)
			}
			root = &levels[i]
		}
	}
	if root == nil {
		return nil, domain.Errorf(domain.ErrInvalidInput, "la topología no tiene raíz")
	}
	for _, d := range levels {
		if d.IsLeaf() {
			continue
		}
		child, ok := t.byName[d.ChildLevel]
		if !ok {
			return nil, domain.Errorf(domain.ErrInvalidInput, "%s declara hijo desconocido %s", d.Name, d.ChildLevel)
		}
		if child.IsRoot() {
			return nil, domain.Errorf(domain.ErrInvalidInput, "%s declara como hijo a la raíz %s", d.Name, child.Name)
		}
		if _, taken := t.parent[child.Name]; taken {
			return nil, domain.Errorf(domain.ErrInvalidInput, "%s tiene más de un padre", child.Name)
		}
		t.parent[child.Name] = d.Name
	}
	// recorrer desde la raíz debe visitar todos los niveles exactamente una vez
	seen := make(map[Level]bool, len(levels))
	for cur, ok := t.byName[root.Name]; ok; cur, ok = t.byName[cur.ChildLevel] {
		if seen[cur.Name] {
			return nil, domain.Errorf(domain.ErrInvalidInput, "ciclo en la topología en %s", cur.Name)
		}
		seen[cur.Name] = true
		t.levels = append(t.levels, cur)
		if cur.IsLeaf() {
			break
		}
	}
	if len(seen) != len(levels) {
		return nil, domain.Errorf(domain.ErrInvalidInput, "la topología no es una cadena: %d de %d niveles alcanzables", len(seen), len(levels))
	}
	for _, d := range levels {
		if d.IsRoot() {
			continue
		}
		if _, ok := t.parent[d.Name]; !ok {
			return nil, domain.Errorf(domain.ErrInvalidInput, "%s declara campo padre pero ningún nivel lo tiene como hijo", d.Name)
		}
	}
	return t, nil
}

// Levels devuelve los niveles de raíz a hoja.
func (t *Topology) Levels() []LevelDescriptor {
	out := make([]LevelDescriptor, len(t.levels))
	copy(out, t.levels)
	return out
}

// Root devuelve el nivel raíz.
func (t *Topology) Root() LevelDescriptor { return t.levels[0] }

// Lookup devuelve el descriptor de un nivel.
func (t *Topology) Lookup(l Level) (LevelDescriptor, bool) {
	d, ok := t.byName[l]
	return d, ok
}

// Describe es Lookup con error BadRequest para niveles desconocidos.
func (t *Topology) Describe(l Level) (LevelDescriptor, error) {
	d, ok := t.byName[l]
	if !ok {
		return LevelDescriptor{}, domain.Errorf(domain.ErrInvalidInput, "tipo de nivel inválido: %s", l)
	}
	return d, nil
}

// Parent devuelve el descriptor del nivel padre de l (false si l es raíz o desconocido).
func (t *Topology) Parent(l Level) (LevelDescriptor, bool) {
	p, ok := t.parent[l]
	if !ok {
		return LevelDescriptor{}, false
	}
	return t.byName[p], true
}

// Parse convierte un nombre externo (ruta HTTP, archivo de importación) en Level.
// Acepta el nombre exacto o sin distinguir mayúsculas.
func (t *Topology) Parse(s string) (Level, error) {
	if _, ok := t.byName[Level(s)]; ok {
		return Level(s), nil
	}
	for _, d := range t.levels {
		if strings.EqualFold(string(d.Name), s) {
			return d.Name, nil
		}
	}
	return "", domain.Errorf(domain.ErrInvalidInput, "tipo de nivel inválido: %s", s)
}
