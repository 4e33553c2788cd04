package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/application/dto"
)

// decodeTree lee un árbol en YAML o JSON (según la extensión). Acepta una lista de documentos
// o un mapa con la lista bajo la clave del nivel ("series: [...]").
func decodeTree(r io.Reader, filename, level string) ([]catalog.Document, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("yaml %s: %w", filename, err)
		}
	case ".json":
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("json %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("formato no soportado: %s (yaml|yml|json)", filename)
	}

	if m, ok := raw.(map[string]any); ok {
		inner, found := m[level]
		if !found {
			return nil, fmt.Errorf("%s: falta la clave %q", filename, level)
		}
		raw = inner
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: se esperaba una lista de documentos", filename)
	}
	docs := make([]catalog.Document, 0, len(list))
	for i, item := range list {
		doc, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: el elemento %d no es un objeto", filename, i)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// textDecoder envuelve r según la codificación declarada (utf-8 o big5).
func textDecoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(encoding, "-", "")) {
	case "", "utf8":
		// quita el BOM que agregan las hojas exportadas desde Excel
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "big5":
		return transform.NewReader(r, traditionalchinese.Big5.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("codificación no soportada: %s (utf-8|big5)", encoding)
	}
}

// productColumns columnas reconocidas de la hoja de productos.
var productColumns = []string{"code", "specificationsCode", "name_TW", "name_EN", "description_TW", "description_EN"}

// decodeProductRows lee la hoja CSV de productos. Las filas inválidas se devuelven aparte con el motivo.
func decodeProductRows(r io.Reader) ([]dto.ProductRow, []rowIssue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, required := range productColumns[:3] {
		if _, ok := idx[required]; !ok {
			return nil, nil, fmt.Errorf("falta la columna %q", required)
		}
	}

	var (
		rows   []dto.ProductRow
		issues []rowIssue
	)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := dto.ProductRow{
			Code:               get("code"),
			SpecificationsCode: get("specificationsCode"),
			NameTW:             get("name_TW"),
			NameEN:             get("name_EN"),
			DescriptionTW:      get("description_TW"),
			DescriptionEN:      get("description_EN"),
		}
		if err := dto.Validate(row); err != nil {
			issues = append(issues, rowIssue{Line: line, Code: row.Code, Reason: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows, issues, nil
}

// rowIssue fila descartada antes de llegar al importador.
type rowIssue struct {
	Line   int    `json:"line"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// productDocument arma el documento del producto a partir de la fila.
func productDocument(row dto.ProductRow) catalog.Document {
	doc := catalog.Document{
		"code": row.Code,
		"name": localized(row.NameTW, row.NameEN),
	}
	if desc := localized(row.DescriptionTW, row.DescriptionEN); len(desc) > 0 {
		doc["description"] = desc
	}
	return doc
}

// localized arma el mapa por idioma omitiendo los vacíos.
func localized(tw, en string) map[string]any {
	out := map[string]any{}
	if tw != "" {
		out["TW"] = tw
	}
	if en != "" {
		out["EN"] = en
	}
	return out
}
