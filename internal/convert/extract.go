package convert

import "strings"

// ExtractCodeBlock pulls the first fenced code block out of a model
// response. It prefers a fence tagged with lang, then falls back to an
// untagged fence. The second return value reports whether a block was
// found; callers must not treat prose as code.
func ExtractCodeBlock(text, lang string) (string, bool) {
	patterns := []string{
		"```" + lang + "\n",
		"```" + lang + "\r\n",
		"```\n",
	}

	for _, pattern := range patterns {
		if idx := strings.Index(text, pattern); idx != -1 {
			start := idx + len(pattern)
			end := strings.Index(text[start:], "```")
			if end != -1 {
				return strings.TrimSpace(text[start : start+end]), true
			}
		}
	}

	return "", false
}
