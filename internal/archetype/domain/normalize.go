package domain

import (
	"regexp"
	"strings"
)

// NormalizeName canonicalizes an ability name for exact comparison:
// lowercase, trimmed, internal whitespace collapsed.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var trailingTierPattern = regexp.MustCompile(`\s*\d+$`)

// StripTier applies NormalizeName and additionally drops a trailing numeral
// so every tier of one progression shares a key ("Weapon Training 2" →
// "weapon training"). Only conflict detection compares with this key; the
// collapse is deliberate and over-reports tier-family overlaps so a human
// reviews them.
func StripTier(s string) string {
	return strings.TrimSpace(trailingTierPattern.ReplaceAllString(NormalizeName(s), ""))
}

var (
	leadingArticlePattern     = regexp.MustCompile(`^(?:the|a|an)\s+`)
	classFeatureSuffixPattern = regexp.MustCompile(`\s+class\s+features?$`)
)

// reduceTarget trims phrasing around a target name ("the Bravery class
// feature" → "bravery") so matching and conflict keys compare ability
// names only.
func reduceTarget(s string) string {
	out := NormalizeName(s)
	out = leadingArticlePattern.ReplaceAllString(out, "")
	out = classFeatureSuffixPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
