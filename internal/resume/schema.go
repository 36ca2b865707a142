package resume

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/fulmenhq/gofulmen/schema"
)

// ResponseSchema returns the JSON schema sent to providers that support strict
// structured output. Every property is required and no extras are allowed.
func ResponseSchema() map[string]any {
	return buildSchema(true)
}

// ValidationSchema is the lenient shape check applied to every model reply:
// types must match but fields may be missing.
func ValidationSchema() map[string]any {
	return buildSchema(false)
}

func buildSchema(strict bool) map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	strList := func() map[string]any { return map[string]any{"type": "array", "items": str()} }
	object := func(props map[string]any) map[string]any {
		out := map[string]any{"type": "object", "properties": props}
		if strict {
			out["required"] = sortedKeys(props)
			out["additionalProperties"] = false
		}
		return out
	}

	education := object(map[string]any{
		"degree":      str(),
		"institution": str(),
		"year":        str(),
	})
	experience := object(map[string]any{
		"title":   str(),
		"company": str(),
		"dates":   str(),
		"details": strList(),
	})
	project := object(map[string]any{
		"name":        str(),
		"description": str(),
	})

	return object(map[string]any{
		"profile":      str(),
		"education":    map[string]any{"type": "array", "items": education},
		"experience":   map[string]any{"type": "array", "items": experience},
		"skills":       strList(),
		"projects":     map[string]any{"type": "array", "items": project},
		"certificates": strList(),
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	validatorOnce sync.Once
	validateShape func([]byte) error
)

func shapeValidator() func([]byte) error {
	validatorOnce.Do(func() {
		payload, err := json.Marshal(ValidationSchema())
		if err != nil {
			validateShape = func([]byte) error { return fmt.Errorf("encode resume schema: %w", err) }
			return
		}
		v, err := schema.NewValidator(payload)
		if err != nil {
			validateShape = func([]byte) error { return fmt.Errorf("compile resume schema: %w", err) }
			return
		}
		validateShape = func(data []byte) error {
			diagnostics, err := v.ValidateJSON(data)
			if err != nil {
				return err
			}
			if len(diagnostics) > 0 {
				return fmt.Errorf("resume schema validation failed: %s", diagnostics[0].Message)
			}
			return nil
		}
	})
	return validateShape
}

// Validate checks a raw model reply against the resume shape.
func Validate(payload []byte) error {
	return shapeValidator()(payload)
}
