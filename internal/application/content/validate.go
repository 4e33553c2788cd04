package content

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Catalogo-api/internal/domain"
)

var validate = validator.New()

// NewsCategories categorías admitidas para news.
var NewsCategories = []string{"新聞稿", "小知識", "其他"}

type requiredLocalized struct {
	TW string `json:"TW" validate:"required"`
	EN string `json:"EN"`
}

type newsInput struct {
	Title    requiredLocalized `json:"title"`
	Category string            `json:"category" validate:"required,oneof=新聞稿 小知識 其他"`
	Author   string            `json:"author" validate:"required"`
}

type faqInput struct {
	Question requiredLocalized `json:"question"`
	Answer   requiredLocalized `json:"answer"`
	Author   string            `json:"author" validate:"required"`
}

// ValidateNews exige title.TW, category (una de NewsCategories) y author.
func ValidateNews(doc map[string]any) error {
	var in newsInput
	return check(doc, &in, "news")
}

// ValidateFaq exige question.TW, answer.TW y author.
func ValidateFaq(doc map[string]any) error {
	var in faqInput
	return check(doc, &in, "faqs")
}

func check(doc map[string]any, dst any, collection string) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.Wrap(domain.ErrInvalidInput, err, "%s: documento inválido", collection)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.Wrap(domain.ErrInvalidInput, err, "%s: tipos de campo inválidos", collection)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fieldPath(fe.Namespace()))
			}
			return domain.Errorf(domain.ErrInvalidInput, "%s: campos inválidos: %s", collection, strings.Join(fields, ", "))
		}
		return domain.Wrap(domain.ErrInvalidInput, err, "%s: validación", collection)
	}
	return nil
}

// fieldPath "newsInput.Title.TW" → "title.TW".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	if len(parts) > 0 {
		parts[0] = strings.ToLower(parts[0][:1]) + parts[0][1:]
	}
	return strings.Join(parts, ".")
}
