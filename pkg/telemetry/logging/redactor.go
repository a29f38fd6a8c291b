package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/quill/pkg/config"
)

// Mask replaces values under sensitive keys.
const Mask = "***"

// Redactor scrubs credentials and PII from log values.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken  = "bearer_token"
	PatternSignature    = "aws_signature"
	PatternAWSAccessKey = "aws_access_key"
	PatternAPIKey       = "api_key"
	PatternGoogleAPIKey = "google_api_key"
	PatternEmail        = "email"
	PatternPassword     = "password"
)

var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternSignature, `Signature=[0-9a-f]{64}`, "Signature=***"},
	{PatternAWSAccessKey, `\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`, "AKIA***"},
	{PatternAPIKey, `sk-(?:ant-)?[a-zA-Z0-9_-]{8,}`, "sk-***"},
	{PatternGoogleAPIKey, `AIza[0-9A-Za-z_-]{35}`, "AIza***"},
	{PatternEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "***@***"},
	{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s]+`, "$1: ***"},
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "api-key", "apikey",
	"authorization", "private_key", "privatekey",
}

// NewRedactor creates a Redactor with the built-in patterns plus custom
// ones. Custom patterns that fail to compile are skipped; config validation
// rejects them earlier.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, redactPattern{name: p.Name, regex: regex, replacement: p.Replacement})
	}
	return r
}

// PatternCount returns the number of active patterns.
func (r *Redactor) PatternCount() int {
	return len(r.patterns)
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr redacts a single attribute, recursing into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	// Only textual values can carry a credential; counters such as
	// max_tokens pass through.
	if (v.Kind() == slog.KindString || v.Kind() == slog.KindAny) && isSensitiveKey(a.Key) {
		if v.Kind() == slog.KindString && v.String() == "" {
			return slog.String(a.Key, "")
		}
		return slog.String(a.Key, Mask)
	}

	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAPIKey keeps the first four characters of a key for identification.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return Mask
	}
	return apiKey[:4] + Mask
}
