package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Classification is the typed reading of one feature's free-text
// description. Target holds the raw matched substring, unnormalized;
// Level is zero when the text carries no "Level: N" marker. Incidental
// prose like "gains level 5 spells" is not a marker; feature documents
// carry their own level field as the fallback.
type Classification struct {
	Type   FeatureType
	Target string
	Level  int
}

var (
	levelMarkerPattern = regexp.MustCompile(`(?i)\blevel:\s*(\d+)`)
	replacesPattern    = regexp.MustCompile(`(?i)\breplaces\s+(?:the\s+|a\s+|an\s+)?([a-z][a-z0-9' ]*?)(?:\s+class\s+features?)?\s*(?:[.,;:)]|$)`)
	modifiesPattern    = regexp.MustCompile(`(?i)\bmodifies\s+(?:the\s+|a\s+|an\s+)?([a-z][a-z0-9' ]*?)(?:\s+class\s+features?)?\s*(?:[.,;:)]|$)`)
)

// Classify derives a feature type, target phrase, and level marker from a
// feature's free-text description. Unreadable text is never an error; it
// degrades to FeatureUnknown for downstream human resolution.
func Classify(description string) Classification {
	c := Classification{Type: FeatureUnknown}
	text := strings.TrimSpace(description)
	if text == "" {
		return c
	}

	if m := levelMarkerPattern.FindStringSubmatch(text); m != nil {
		if level, err := strconv.Atoi(m[1]); err == nil {
			c.Level = level
		}
	}

	if m := replacesPattern.FindStringSubmatch(text); m != nil {
		c.Type = FeatureReplacement
		c.Target = strings.TrimSpace(m[1])
		return c
	}
	if m := modifiesPattern.FindStringSubmatch(text); m != nil {
		c.Type = FeatureModification
		c.Target = strings.TrimSpace(m[1])
		return c
	}
	if containsTargetVerb(text) {
		// A replace/modify verb with no parsable target needs a human.
		return c
	}
	if looksLikeGrant(text) {
		c.Type = FeatureAdditive
	}
	return c
}

func containsTargetVerb(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "replaces") || strings.Contains(lower, "modifies")
}

// looksLikeGrant reports whether free text plausibly describes a granted
// ability: a few words of prose with no target marker anywhere.
func looksLikeGrant(text string) bool {
	return len(strings.Fields(text)) >= 3
}
