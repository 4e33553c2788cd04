// Package pdf genera la ficha de catálogo en PDF de un subárbol de la jerarquía.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre del nodo + código  │  Nivel + fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Nivel | Código | Nombre (con sangría por nivel)      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR al recurso + total de nodos                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// SheetRequest datos de entrada de la ficha.
type SheetRequest struct {
	Level    catalog.Level
	Tree     map[string]any // salida de BuildHierarchyTree
	Language string         // clave del idioma para los nombres ("EN", "TW")
	QRURL    string         // opcional: enlace codificado en el QR del pie
}

// CatalogSheetGenerator genera fichas de catálogo con Maroto v2.
type CatalogSheetGenerator struct {
	topology *catalog.Topology
	now      func() time.Time
}

// NewCatalogSheetGenerator construye el generador.
func NewCatalogSheetGenerator(topology *catalog.Topology) *CatalogSheetGenerator {
	return &CatalogSheetGenerator{topology: topology, now: time.Now}
}

// sheetLine una fila de la tabla, ya aplanada.
type sheetLine struct {
	level catalog.Level
	depth int
	code  string
	name  string
}

// GenerateTreePDF genera el PDF del subárbol y devuelve sus bytes.
func (g *CatalogSheetGenerator) GenerateTreePDF(ctx context.Context, req SheetRequest) ([]byte, error) {
	if req.Tree == nil {
		return nil, fmt.Errorf("pdf: árbol vacío")
	}
	if _, err := g.topology.Describe(req.Level); err != nil {
		return nil, err
	}
	lang := req.Language
	if lang == "" {
		lang = "EN"
	}

	var lines []sheetLine
	g.flatten(req.Level, req.Tree, lang, 0, &lines)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := lines[0]

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Ficha de catálogo "+root.code, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(root, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(lines[1:]) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(req.QRURL, len(lines)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// flatten recorre el árbol en preorden siguiendo la clave del nivel hijo.
func (g *CatalogSheetGenerator) flatten(level catalog.Level, node map[string]any, lang string, depth int, out *[]sheetLine) {
	*out = append(*out, sheetLine{
		level: level,
		depth: depth,
		code:  stringValue(node["code"]),
		name:  localizedName(node["name"], lang),
	})
	d, err := g.topology.Describe(level)
	if err != nil || d.IsLeaf() {
		return
	}
	for _, child := range childList(node[string(d.ChildLevel)]) {
		g.flatten(d.ChildLevel, child, lang, depth+1, out)
	}
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre + código (izq), nivel + fecha (der).
func headerRow(root sheetLine, now time.Time) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(nonEmpty(root.name, root.code), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+nonEmpty(root.code, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(strings.ToUpper(string(root.level)), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Fecha: "+now.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2, Left: 1,
		}))
	}
	return row.New(8).Add(
		h("Nivel", 3),
		h("Código", 3),
		h("Nombre", 6),
	)
}

// tableRows: una fila por nodo descendiente, con sangría según la profundidad.
func tableRows(lines []sheetLine) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		indent := float64(l.depth-1) * 3
		rows = append(rows, row.New(6).Add(
			col.New(3).Add(text.New(string(l.level), props.Text{Size: 8, Top: 1, Left: 1 + indent, Color: colorGray})),
			col.New(3).Add(text.New(nonEmpty(l.code, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(6).Add(text.New(nonEmpty(l.name, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	return rows
}

func footerRow(qrURL string, total int) core.Row {
	summary := text.New(fmt.Sprintf("Nodos incluidos: %d", total), props.Text{
		Size: 8, Top: 4, Left: 3, Color: colorGray,
	})
	if qrURL == "" {
		return row.New(10).Add(col.New(12).Add(summary))
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(qrURL, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(summary),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// childList acepta tanto []map[string]any (árbol en memoria) como []any (árbol decodificado de JSON).
func childList(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func localizedName(v any, lang string) string {
	switch n := v.(type) {
	case string:
		return n
	case map[string]any:
		for _, key := range []string{lang, "EN", "TW"} {
			if s := stringValue(n[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
