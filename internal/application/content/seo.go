// Package content contiene las reglas de news y faqs: metadatos SEO derivados (nunca persistidos)
// y la validación de campos obligatorios al crear.
package content

import "strings"

// Nombres del sitio por idioma.
const (
	SiteNameTW = "遠岫科技"
	SiteNameEN = "Yenshow"

	faqPageTW = "常見問題"
	faqPageEN = "FAQ"

	titleMax       = 45
	faqCategoryMax = 20
	descriptionMax = 155
)

// Localized texto por idioma.
type Localized struct {
	TW string `json:"TW"`
	EN string `json:"EN"`
}

// Meta metadatos SEO de una página.
type Meta struct {
	Title       Localized `json:"metaTitle"`
	Description Localized `json:"metaDescription"`
}

// NewsMeta título "<título> | <sitio>" y descripción a partir del resumen.
func NewsMeta(doc map[string]any) Meta {
	title := localized(doc["title"])
	m := Meta{
		Title:       Localized{TW: withSite(truncate(title.TW, titleMax), SiteNameTW), EN: withSite(truncate(title.EN, titleMax), SiteNameEN)},
		Description: describe(localized(doc["summary"])),
	}
	return m
}

// FaqMeta título "<categoría> | FAQ | <sitio>" y descripción a partir de la pregunta.
func FaqMeta(doc map[string]any) Meta {
	baseTW, baseEN := faqPageTW, faqPageEN
	if cat, _ := doc["category"].(string); strings.TrimSpace(cat) != "" {
		c := truncate(strings.TrimSpace(cat), faqCategoryMax)
		baseTW = c + " | " + faqPageTW
		baseEN = c + " | " + faqPageEN
	}
	return Meta{
		Title:       Localized{TW: baseTW + " | " + SiteNameTW, EN: baseEN + " | " + SiteNameEN},
		Description: describe(localized(doc["question"])),
	}
}

// DecorateNews agrega metaTitle y metaDescription a un documento de news ya formateado.
func DecorateNews(doc map[string]any) map[string]any { return decorate(doc, NewsMeta(doc)) }

// DecorateFaq agrega metaTitle y metaDescription a un documento de faqs ya formateado.
func DecorateFaq(doc map[string]any) map[string]any { return decorate(doc, FaqMeta(doc)) }

func decorate(doc map[string]any, m Meta) map[string]any {
	doc["metaTitle"] = m.Title
	doc["metaDescription"] = m.Description
	return doc
}

func describe(src Localized) Localized {
	return Localized{TW: truncateWithin(src.TW, descriptionMax), EN: truncateWithin(src.EN, descriptionMax)}
}

func withSite(base, site string) string {
	if base == "" {
		return site
	}
	return base + " | " + site
}

// truncate corta en max runas y agrega "..." (el resultado puede medir max+3).
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// truncateWithin corta para que el resultado, con "...", no pase de max runas.
func truncateWithin(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func localized(v any) Localized {
	m, ok := v.(map[string]any)
	if !ok {
		return Localized{}
	}
	tw, _ := m["TW"].(string)
	en, _ := m["EN"].(string)
	return Localized{TW: tw, EN: en}
}
