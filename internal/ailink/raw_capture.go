package ailink

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// truncateRaw caps raw model text at max bytes without splitting a UTF-8
// sequence. A non-positive max drops the payload.
func truncateRaw(input []byte, max int) json.RawMessage {
	if max <= 0 {
		return nil
	}
	if len(input) <= max {
		out := make(json.RawMessage, len(input))
		copy(out, input)
		return out
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	out := make(json.RawMessage, cut)
	copy(out, input[:cut])
	return out
}

func safeOneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
