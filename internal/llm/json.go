package llm

import "strings"

// StripCodeFences removes a Markdown code-fence wrapper from model output.
// Providers sometimes return ```json ... ``` despite JSON-only instructions.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		first := strings.TrimSpace(s[:idx])
		if first == "" || len(first) <= 8 {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
