// Package textutil provides the text canonicalization shared by every
// dedupe pass and key derivation in the analysis pipeline. Effects, holding
// mappings, asset recommendations, and node shocks all key on the same
// normalized form so the passes cannot drift apart.
package textutil

import (
	"strings"
	"unicode"
)

// NormalizeKey canonicalizes free text into a matching key: trimmed,
// lowercased, punctuation stripped, runs of whitespace collapsed to a
// single space.
func NormalizeKey(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return CollapseSpace(b.String())
}

// CollapseSpace trims the string and collapses internal whitespace runs
// into single spaces.
func CollapseSpace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// Truncate hard-caps a string at max runes, trimming a trailing partial
// word boundary the way a sanitized model field is capped.
func Truncate(input string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= max {
		return input
	}
	return strings.TrimRight(string(runes[:max-1]), " ")
}

// SanitizeField collapses whitespace and truncates to the declared maximum
// length for a model output field.
func SanitizeField(input string, max int) string {
	return Truncate(CollapseSpace(strings.TrimSpace(input)), max)
}

// Slug derives a node key from an effect description: the normalized key
// hyphen-joined and capped at maxLen runes, falling back to fallback when
// nothing survives normalization.
func Slug(input string, maxLen int, fallback string) string {
	key := strings.ReplaceAll(NormalizeKey(input), " ", "-")
	runes := []rune(key)
	if len(runes) > maxLen {
		key = strings.TrimRight(string(runes[:maxLen]), "-")
	}
	if key == "" {
		return fallback
	}
	return key
}
