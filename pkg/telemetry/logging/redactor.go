package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

// RedactedValue replaces the value of a sensitive attribute.
const RedactedValue = "[REDACTED]"

// Redactor redacts PII (Personally Identifiable Information) from log fields.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in PII pattern names.
const (
	PatternSSN         = "ssn"
	PatternDateOfBirth = "date_of_birth"
	PatternEmail       = "email"
	PatternPhone       = "phone"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

// defaultPatterns are applied in order before any custom pattern.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternSSN, `\b\d{3}[-\s]\d{2}[-\s]\d{4}\b`, "***-**-****"},
	// US-style dates only; ISO timestamps pass through
	{PatternDateOfBirth, `\b(?:0?[1-9]|1[0-2])/(?:0?[1-9]|[12]\d|3[01])/(?:19|20)\d{2}\b`, "**/**/****"},
	{PatternEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "***@***"},
	{PatternPhone, `(?:\+?1[-.\s])?\(?\b\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`, "***-***-****"},
	{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s]+`, "$1: ***"},
}

// sensitiveKeys name attributes whose values are always dropped. Matching
// is exact on the lower-cased key so "listen_address" is left alone.
var sensitiveKeys = map[string]struct{}{
	"youth_name":    {},
	"guardian_name": {},
	"first_name":    {},
	"last_name":     {},
	"address":       {},
	"home_address":  {},
	"dob":           {},
	"date_of_birth": {},
	"ssn":           {},
	"phone":         {},
	"email":         {},
	"password":      {},
	"secret":        {},
	"token":         {},
	"authorization": {},
}

// NewRedactor creates a new Redactor with default and custom patterns.
// Custom patterns that fail to compile are skipped; configuration
// validation rejects them before a logger is built.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}
	return r
}

// Patterns returns the names of the active patterns in application order.
func (r *Redactor) Patterns() []string {
	names := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		names[i] = p.name
	}
	return names
}

// RedactString redacts PII from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactArgs redacts PII from variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && IsSensitiveKey(key) {
			redacted[i] = RedactedValue
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}
	return redacted
}

// RedactAttr redacts one slog attribute, descending into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedValue)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// IsSensitiveKey reports whether values under key are always redacted.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// MaskIdentifier keeps the last four characters of an identifier, which is
// enough for an officer to correlate a log line with a case file.
func MaskIdentifier(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(id)-4) + id[len(id)-4:]
}
