// Package schema validates concrete-evaluation payloads against a flow's
// declared START inputs. Per spec §9, no runtime class-synthesis is
// needed — a flow's input signature is just a name → (type, required)
// mapping built from the START node's metadata at call time.
package schema

import (
	"fmt"

	"github.com/deciflow/deciflow/internal/domain"
)

// Schema is the validator built from one flow's START metadata.
type Schema struct {
	fields []domain.InputField
}

// New builds a Schema from a START node's declared inputs.
func New(inputs []domain.InputField) *Schema {
	return &Schema{fields: inputs}
}

// Validate checks payload against the declared inputs. On success it
// returns a normalized copy of payload (only declared keys, in declared
// order is not required — map order is irrelevant). On failure it returns
// a domain.ValidationError carrying one domain.FieldError per violation.
func (s *Schema) Validate(payload map[string]any) (map[string]any, error) {
	var details []domain.FieldError
	out := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		v, present := payload[f.DisplayName]
		if !present || v == nil {
			if f.Required {
				details = append(details, domain.FieldError{
					Field:   f.DisplayName,
					Message: "required field missing",
				})
			}
			continue
		}
		if !matchesKind(v, f.Type) {
			details = append(details, domain.FieldError{
				Field:   f.DisplayName,
				Message: fmt.Sprintf("expected %s, got %T", f.Type, v),
			})
			continue
		}
		out[f.DisplayName] = v
	}

	if len(details) > 0 {
		return nil, &domain.ValidationError{
			Message: "payload failed schema validation",
			Details: details,
		}
	}
	return out, nil
}

func matchesKind(v any, kind domain.InputKind) bool {
	switch kind {
	case domain.InputNumber:
		switch v.(type) {
		case int, int64, float64, float32:
			return true
		default:
			return false
		}
	case domain.InputText:
		_, ok := v.(string)
		return ok
	case domain.InputBool:
		_, ok := v.(bool)
		return ok
	case domain.InputObject:
		_, ok := v.(map[string]any)
		return ok
	case domain.InputList:
		_, ok := v.([]any)
		return ok
	default:
		return false
	}
}
