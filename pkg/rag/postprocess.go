package rag

import "strings"

// Postprocess caps an answer at maxChars runes, cutting back to the last
// period inside the window. Without one the window is kept and "..." added.
func Postprocess(answer string, maxChars int) string {
	if maxChars <= 0 {
		return answer
	}
	runes := []rune(answer)
	if len(runes) <= maxChars {
		return answer
	}

	truncated := string(runes[:maxChars])
	if idx := strings.LastIndex(truncated, "."); idx > 0 {
		return truncated[:idx+1]
	}
	return truncated + "..."
}
