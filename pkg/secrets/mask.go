// Package secrets masks sensitive values before they are shown or logged.
//
// Secret fields typed by the schema are masked by value kind elsewhere; this
// package supplies the masking styles and a key-based redactor for bodies
// returned by the service, which carry no type information.
package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Style selects how a value is masked.
type Style string

const (
	StyleFull    Style = "full"
	StylePartial Style = "partial"
	StyleHash    Style = "hash"
)

// ParseStyle returns the style named by name, case-insensitively. An empty
// name is StyleFull.
func ParseStyle(name string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(name))) {
	case "", StyleFull:
		return StyleFull, nil
	case StylePartial:
		return StylePartial, nil
	case StyleHash:
		return StyleHash, nil
	}
	return "", fmt.Errorf("invalid mask style %q, valid styles: %s, %s, %s", name, StyleFull, StylePartial, StyleHash)
}

// Masking configures Mask.
type Masking struct {
	Style       Style
	ShowChars   int
	Replacement string
}

// DefaultMasking hides the whole value.
var DefaultMasking = &Masking{Style: StyleFull, Replacement: "********"}

// Mask masks value according to m. A nil m uses DefaultMasking.
func (m *Masking) Mask(value string) string {
	if m == nil {
		m = DefaultMasking
	}
	replacement := m.Replacement
	if replacement == "" {
		replacement = "********"
	}

	switch m.Style {
	case StyleHash:
		sum := sha256.Sum256([]byte(value))
		return "sha256:" + hex.EncodeToString(sum[:])[:16]
	case StylePartial:
		if len(value) <= m.ShowChars {
			return replacement
		}
		return value[:m.ShowChars] + replacement
	default:
		return replacement
	}
}

// DefaultFieldPatterns match key names that usually hold secrets. Patterns
// are case-insensitive globs over camelCase or snake_case keys.
func DefaultFieldPatterns() []string {
	return []string{
		"*password*",
		"*secret*",
		"*token*",
		"*private_key*",
		"*privatekey*",
		"*credential*",
		"*api_key*",
		"*apikey*",
		"authorization",
	}
}

// Redactor masks values of keys matching its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
	masking  *Masking
}

// NewRedactor compiles glob patterns. With no patterns DefaultFieldPatterns
// are used.
func NewRedactor(masking *Masking, patterns ...string) (*Redactor, error) {
	if len(patterns) == 0 {
		patterns = DefaultFieldPatterns()
	}
	r := &Redactor{masking: masking}
	for _, p := range patterns {
		re, err := globToRegex(p)
		if err != nil {
			return nil, fmt.Errorf("invalid field pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// IsSecretField reports whether a key name matches a pattern.
func (r *Redactor) IsSecretField(name string) bool {
	for _, re := range r.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// RedactJSON returns a copy of data with secret-looking keys masked.
func (r *Redactor) RedactJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if _, nested := value.(map[string]interface{}); !nested && r.IsSecretField(key) {
				out[key] = r.masking.Mask(fmt.Sprint(value))
				continue
			}
			out[key] = r.RedactJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = r.RedactJSON(item)
		}
		return out
	default:
		return v
	}
}

func globToRegex(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\?`, ".")
	return regexp.Compile("(?i)^" + escaped + "$")
}
