package resume

import (
	"strings"
	"unicode"
)

// Filename returns "<name or Resume>.<ext>", safe for a Content-Disposition header
// and for writing next to the current directory.
func Filename(p PersonalInfo, ext string) string {
	base := sanitizeFilename(p.Name)
	if base == "" {
		base = "Resume"
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == '"' || r == ':' || r == '*' || r == '?' || r == '<' || r == '>' || r == '|':
			continue
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(strings.TrimSpace(b.String()), ".")
}
