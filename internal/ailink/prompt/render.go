package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Render substitutes {{name}} placeholders in both templates. Every required
// variable must be present and non-blank.
func (p *Prompt) Render(vars map[string]string) (system, user string, err error) {
	if p == nil {
		return "", "", fmt.Errorf("prompt is required")
	}
	for _, required := range p.Config.Input.RequiredVariables {
		if val, ok := vars[required]; !ok || strings.TrimSpace(val) == "" {
			return "", "", fmt.Errorf("required variable %q not provided", required)
		}
	}

	system = applyVars(p.Config.SystemTemplate, vars)
	user = applyVars(p.Config.UserTemplate, vars)
	if strings.TrimSpace(system) == "" {
		return "", "", fmt.Errorf("system prompt is required")
	}
	return system, user, nil
}

// applyVars replaces placeholders in a single pass so values containing
// "{{...}}" are never expanded themselves.
func applyVars(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(vars)*2)
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", vars[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
