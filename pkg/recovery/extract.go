package recovery

import (
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("(?s)^\\s*```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?")
	fenceClose = regexp.MustCompile("(?s)\\r?\\n?[ \\t]*```\\s*$")

	quotedString = regexp.MustCompile(`(?s)"(?:[^"\\]|\\.)*"`)

	controlEscapes = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)
)

// normalize strips a surrounding code fence and whitespace. A fence that
// opens mid-text is also removed so prose-then-fence answers still start
// at the object.
func normalize(text string) string {
	s := strings.TrimSpace(strings.TrimPrefix(text, "\uFEFF"))
	if idx := strings.Index(s, "```"); idx > 0 && !strings.Contains(s[:idx], "{") {
		s = s[idx:]
	}
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func greedyCandidate(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return ""
	}
	return text[start : end+1]
}

// balancedCandidates returns, for every '{' outside a string literal, the
// span up to its matching '}'. Unterminated objects are skipped.
func balancedCandidates(text string) []string {
	var out []string
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		if end := matchBrace(text, start); end > 0 {
			out = append(out, text[start:end+1])
		}
	}
	return out
}

func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// repairEscapes escapes raw newlines, carriage returns and tabs that appear
// inside string literals. Text outside quotes is left untouched.
func repairEscapes(candidate string) string {
	return quotedString.ReplaceAllStringFunc(candidate, controlEscapes.Replace)
}
