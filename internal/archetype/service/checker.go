package service

import (
	"strings"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
	"github.com/louisbranch/archetype-engine/internal/content"
)

// ValidateClass reports whether an archetype's class restriction matches a
// class item, by trimmed case-insensitive equality against either the class
// tag or its display name. A blank restriction returns false; callers treat
// blank as "no restriction" and skip this check entirely.
func ValidateClass(archetype domain.Archetype, class content.ClassItem) bool {
	restriction := strings.TrimSpace(archetype.Class)
	if restriction == "" {
		return false
	}
	return strings.EqualFold(restriction, strings.TrimSpace(class.Tag)) ||
		strings.EqualFold(restriction, strings.TrimSpace(class.Name))
}

// CheckAgainstApplied collects conflicts between a candidate archetype and
// every archetype already committed to a subject. Empty when nothing is
// applied.
func CheckAgainstApplied(candidate domain.Archetype, applied []domain.Archetype) []domain.Conflict {
	var conflicts []domain.Conflict
	for _, existing := range applied {
		conflicts = append(conflicts, domain.DetectConflicts(candidate, existing)...)
	}
	return conflicts
}
