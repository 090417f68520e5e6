package llm

import "strings"

// StripFences removes an incidental markdown code fence wrapping a reply.
// Backends frequently wrap JSON in ```json ... ``` even when told not to.
// Unfenced text passes through unchanged.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	rest := text[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		lang := strings.TrimSpace(rest[:nl])
		// The first line after the fence is a language tag, not content.
		if lang == "" || isFenceLanguage(lang) {
			rest = rest[nl+1:]
		}
	}

	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

func isFenceLanguage(tag string) bool {
	switch strings.ToLower(tag) {
	case "json", "json5", "javascript", "txt", "text":
		return true
	}
	return false
}
