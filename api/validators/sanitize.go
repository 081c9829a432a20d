package validators

import "strings"

const maxFieldLen = 256

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeField trims free text from forms to the default field length.
func SanitizeField(input string) string {
	return SanitizeString(input, maxFieldLen)
}
