package hazard

import "strings"

// ExtractJSON strips markdown code fences from a model response,
// returning the raw JSON body. Responses without fences pass through
// trimmed.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	return s
}
