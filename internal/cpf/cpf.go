// Package cpf normalizes, formats and extracts Brazilian CPF numbers.
package cpf

import (
	"regexp"
	"strings"
)

var cpfPattern = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)

// Sanitize strips every non-digit character. No truncation: an
// over-length value must fail the 11-digit check, not collapse onto
// another identity.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether s normalizes to exactly 11 digits.
func Valid(s string) bool {
	return len(Sanitize(s)) == 11
}

// Format renders a sanitized CPF as XXX.XXX.XXX-XX. Values that do not
// normalize to 11 digits are returned unchanged.
func Format(s string) string {
	digits := Sanitize(s)
	if len(digits) != 11 {
		return s
	}
	return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
}

// ExtractAll returns the unique CPFs found in free text, sanitized to
// digits, in order of first appearance.
func ExtractAll(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, match := range cpfPattern.FindAllString(text, -1) {
		digits := Sanitize(match)
		if len(digits) != 11 {
			continue
		}
		if _, dup := seen[digits]; dup {
			continue
		}
		seen[digits] = struct{}{}
		out = append(out, digits)
	}
	return out
}
