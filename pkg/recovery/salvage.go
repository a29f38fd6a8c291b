package recovery

import (
	"encoding/json"
	"regexp"
	"strings"
)

// salvager extracts fields from text that does not decode as JSON, most
// often because generation stopped mid-value.
type salvager struct {
	primary   *regexp.Regexp
	bodyStart *regexp.Regexp
	bodyEnd   *regexp.Regexp
}

func newSalvager(f Fields) *salvager {
	next := regexp.QuoteMeta(f.Confident) + "|" + regexp.QuoteMeta(f.Primary)
	return &salvager{
		primary:   regexp.MustCompile(`(?s)"` + regexp.QuoteMeta(f.Primary) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`),
		bodyStart: regexp.MustCompile(`"` + regexp.QuoteMeta(f.Body) + `"\s*:\s*"`),
		bodyEnd:   regexp.MustCompile(`"\s*,\s*"(?:` + next + `)"|"\s*}`),
	}
}

var salvageUnescape = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\r\n`, " ",
	`\n`, " ",
	`\r`, "",
	`\t`, " ",
	"\r\n", " ",
	"\n", " ",
	"\r", "",
)

func (s *salvager) extract(text string) (*Result, bool) {
	m := s.primary.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	res := &Result{
		PrimaryText: unquoteLoose(m[1]),
		Confident:   false,
		Path:        PathSalvaged,
	}

	loc := s.bodyStart.FindStringIndex(text)
	if loc == nil {
		return res, true
	}
	rest := text[loc[1]:]
	end := s.bodyEndOffset(rest)
	body := strings.TrimSuffix(rest[:end], `\`)
	res.BodyText = strings.TrimSpace(salvageUnescape.Replace(body))
	return res, true
}

// bodyEndOffset returns the offset of the first unescaped end marker in rest,
// or len(rest) when the value runs to the end of the text.
func (s *salvager) bodyEndOffset(rest string) int {
	for _, loc := range s.bodyEnd.FindAllStringIndex(rest, -1) {
		if !escapedAt(rest, loc[0]) {
			return loc[0]
		}
	}
	return len(rest)
}

// escapedAt reports whether the byte at i is preceded by an odd number of
// backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

var salvageNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", "")

// unquoteLoose decodes a salvaged string value. Newlines collapse to single
// spaces as they do in the body.
func unquoteLoose(v string) string {
	var out string
	if err := json.Unmarshal([]byte(repairEscapes(`"`+v+`"`)), &out); err == nil {
		return salvageNewlines.Replace(out)
	}
	return salvageUnescape.Replace(v)
}
