package catalog

import (
	"context"
	"strings"

	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// ImportIssue fila o nodo omitido durante la importación.
type ImportIssue struct {
	Level  catalog.Level `json:"level"`
	Code   string        `json:"code"`
	Reason string        `json:"reason"`
}

// ImportError fallo de create/update reportado por BatchProcess.
type ImportError struct {
	Level catalog.Level `json:"level"`
	BatchError
}

// ImportReport resumen de una importación.
type ImportReport struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped []ImportIssue `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

// ImportRow documento a importar cuyo padre se identifica por code.
type ImportRow struct {
	ParentCode string
	Doc        Document
}

// Importer carga datos en bloque: un code existente se actualiza, uno nuevo se crea.
type Importer struct {
	registry *Registry
	log      *logger.Logger
}

// NewImporter construye el importador.
func NewImporter(registry *Registry, log *logger.Logger) *Importer {
	return &Importer{registry: registry, log: log}
}

func newReport() *ImportReport {
	return &ImportReport{Skipped: []ImportIssue{}, Errors: []ImportError{}}
}

// ImportTree importa documentos de level bajo parentID ("" para la raíz). Cada documento puede
// traer sus hijos bajo la clave del nivel hijo ("categories", "subCategories", ...).
func (im *Importer) ImportTree(ctx context.Context, level catalog.Level, parentID string, docs []Document) (*ImportReport, error) {
	report := newReport()
	if err := im.importGroup(ctx, level, parentID, docs, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ImportRows importa filas planas de level resolviendo el padre por code (p. ej. productos con
// el code de su especificación). Filas con padre desconocido se omiten.
func (im *Importer) ImportRows(ctx context.Context, level catalog.Level, rows []ImportRow) (*ImportReport, error) {
	topology := im.registry.Topology()
	if _, err := topology.Describe(level); err != nil {
		return nil, err
	}
	parent, hasParent := topology.Parent(level)
	report := newReport()

	var order []string
	groups := make(map[string][]Document)
	for _, row := range rows {
		key := strings.TrimSpace(row.ParentCode)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row.Doc)
	}

	for _, parentCode := range order {
		docs := groups[parentCode]
		parentID := ""
		if hasParent {
			prepo, err := im.registry.Resolve(parent.Name)
			if err != nil {
				return nil, err
			}
			var found *entity.Node
			if parentCode != "" {
				if found, err = prepo.FindByCode(ctx, parentCode, ""); err != nil {
					return nil, err
				}
			}
			if found == nil {
				for _, doc := range docs {
					report.Skipped = append(report.Skipped, ImportIssue{Level: level, Code: docCode(doc), Reason: "padre desconocido: " + parentCode})
				}
				continue
			}
			parentID = found.ID
		}
		if err := im.importGroup(ctx, level, parentID, docs, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (im *Importer) importGroup(ctx context.Context, level catalog.Level, parentID string, docs []Document, report *ImportReport) error {
	d, err := im.registry.Topology().Describe(level)
	if err != nil {
		return err
	}
	repo, err := im.registry.Resolve(level)
	if err != nil {
		return err
	}

	childKey := string(d.ChildLevel)
	children := make(map[string][]Document)
	var in BatchInput
	for _, raw := range docs {
		code := docCode(raw)
		if code == "" {
			report.Skipped = append(report.Skipped, ImportIssue{Level: level, Reason: "sin code"})
			continue
		}
		doc := make(Document, len(raw)+1)
		for k, v := range raw {
			if !d.IsLeaf() && k == childKey {
				children[code] = append(children[code], toDocuments(v)...)
				continue
			}
			doc[k] = v
		}
		doc["code"] = code
		if d.ParentField != "" {
			doc[d.ParentField] = parentID
		}
		existing, err := repo.FindByCode(ctx, code, "")
		if err != nil {
			return err
		}
		if existing != nil {
			doc["_id"] = existing.ID
			in.ToUpdate = append(in.ToUpdate, doc)
		} else {
			in.ToCreate = append(in.ToCreate, doc)
		}
	}

	res := repo.BatchProcess(ctx, in)
	report.Created += len(res.Created)
	report.Updated += len(res.Updated)
	for _, e := range res.Errors {
		report.Errors = append(report.Errors, ImportError{Level: level, BatchError: e})
		im.log.Warn().Str("level", string(level)).Str("operation", e.Operation).Str("error", e.Error).Msg("fila no importada")
	}
	if d.IsLeaf() || len(children) == 0 {
		return nil
	}

	imported := make(map[string]bool, len(res.Created)+len(res.Updated))
	for _, out := range append(res.Created, res.Updated...) {
		code := docCode(out)
		imported[code] = true
		if kids := children[code]; len(kids) > 0 {
			if err := im.importGroup(ctx, d.ChildLevel, DocumentID(out), kids, report); err != nil {
				return err
			}
		}
	}
	for code, kids := range children {
		if imported[code] {
			continue
		}
		for _, kid := range kids {
			report.Skipped = append(report.Skipped, ImportIssue{Level: d.ChildLevel, Code: docCode(kid), Reason: "padre no importado: " + code})
		}
	}
	return nil
}

func docCode(doc Document) string {
	s, _ := doc["code"].(string)
	return strings.TrimSpace(s)
}

// toDocuments acepta lo que producen encoding/json y yaml.v3 para una lista de objetos.
func toDocuments(v any) []Document {
	switch list := v.(type) {
	case []Document:
		return list
	case []any:
		out := make([]Document, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
