package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var fieldKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// claves que el cliente puede enviar pero que nunca se escriben en el documento
var reservedKeys = map[string]bool{
	"_id":       true,
	"id":        true,
	"__v":       true,
	"createdAt": true,
	"updatedAt": true,
}

// validPath acepta "campo" o "campo.subcampo".
func validPath(p string) bool {
	parts := strings.Split(p, ".")
	if len(parts) > 2 {
		return false
	}
	for _, s := range parts {
		if !fieldKey.MatchString(s) {
			return false
		}
	}
	return true
}

func (r *EntityRepository) isVirtual(key string) bool {
	for _, l := range r.cfg.Languages {
		if key == l {
			return true
		}
	}
	return false
}

func (r *EntityRepository) nodeFromInput(data Document) (*entity.Node, error) {
	node := &entity.Node{IsActive: r.cfg.DefaultActive, Data: make(map[string]any, len(data))}
	for k, v := range data {
		switch {
		case reservedKeys[k] || r.isVirtual(k):
			continue
		case k == "code":
			s, err := r.stringField(k, v)
			if err != nil {
				return nil, err
			}
			node.Code = strings.TrimSpace(s)
		case k == "isActive":
			b, err := r.boolField(k, v)
			if err != nil {
				return nil, err
			}
			node.IsActive = b
		case r.cfg.ParentField != "" && k == r.cfg.ParentField:
			s, err := r.stringField(k, v)
			if err != nil {
				return nil, err
			}
			node.ParentID = strings.TrimSpace(s)
		default:
			if !fieldKey.MatchString(k) {
				return nil, domain.Errorf(domain.ErrInvalidInput, "%s: nombre de campo inválido %q", r.cfg.Collection, k)
			}
			node.Data[k] = v
		}
	}
	return node, nil
}

func (r *EntityRepository) patchFromInput(data Document) (repository.Patch, error) {
	patch := repository.Patch{Set: make(map[string]any, len(data))}
	for k, v := range data {
		switch {
		case reservedKeys[k] || r.isVirtual(k):
			continue
		case k == "code":
			s, err := r.stringField(k, v)
			if err != nil {
				return patch, err
			}
			s = strings.TrimSpace(s)
			patch.Code = &s
		case k == "isActive":
			b, err := r.boolField(k, v)
			if err != nil {
				return patch, err
			}
			patch.IsActive = &b
		case r.cfg.ParentField != "" && k == r.cfg.ParentField:
			s, err := r.stringField(k, v)
			if err != nil {
				return patch, err
			}
			s = strings.TrimSpace(s)
			patch.ParentID = &s
		case strings.Contains(k, "."):
			if !validPath(k) {
				return patch, domain.Errorf(domain.ErrInvalidInput, "%s: ruta de campo inválida %q", r.cfg.Collection, k)
			}
			patch.Set[k] = v
		default:
			if !fieldKey.MatchString(k) {
				return patch, domain.Errorf(domain.ErrInvalidInput, "%s: nombre de campo inválido %q", r.cfg.Collection, k)
			}
			m, isObject := v.(map[string]any)
			if !isObject || len(m) == 0 {
				patch.Set[k] = v
				continue
			}
			// un solo nivel: name.TW, description.EN; más abajo se reemplaza el valor completo
			for sub, sv := range m {
				if !fieldKey.MatchString(sub) {
					return patch, domain.Errorf(domain.ErrInvalidInput, "%s: nombre de campo inválido %q", r.cfg.Collection, k+"."+sub)
				}
				patch.Set[k+"."+sub] = sv
			}
		}
	}
	return patch, nil
}

func (r *EntityRepository) stringField(key string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	}
	return "", domain.Errorf(domain.ErrInvalidInput, "%s: %s debe ser texto", r.cfg.Collection, key)
}

func (r *EntityRepository) boolField(key string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err == nil {
			return parsed, nil
		}
	}
	return false, domain.Errorf(domain.ErrInvalidInput, "%s: %s debe ser booleano", r.cfg.Collection, key)
}

// FormatOutput convierte un nodo al documento que ven los controladores: ids como texto,
// referencia al padre bajo su nombre de campo y sin las claves virtuales de idioma.
func (r *EntityRepository) FormatOutput(n *entity.Node) Document {
	out := make(Document, len(n.Data)+6)
	for k, v := range n.Data {
		if reservedKeys[k] || r.isVirtual(k) {
			continue
		}
		out[k] = v
	}
	out["_id"] = n.ID
	if n.Code != "" || r.cfg.RequireCode {
		out["code"] = n.Code
	}
	out["isActive"] = n.IsActive
	if r.cfg.ParentField != "" {
		out[r.cfg.ParentField] = n.ParentID
	}
	out["createdAt"] = n.CreatedAt
	out["updatedAt"] = n.UpdatedAt
	return out
}

// DocumentID extrae el id de un documento de entrada ("_id" o "id").
func DocumentID(doc Document) string {
	for _, k := range []string{"_id", "id"} {
		if s, ok := doc[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
