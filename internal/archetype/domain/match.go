package domain

import "strings"

// MatchTarget resolves a target phrase against a resolved base association
// list. Exact normalized equality wins and returns the first such entry.
// Otherwise a tier-stripped containment fallback pairs tierless targets
// ("armor training") with tiered entries ("Armor Training 1") and longhand
// phrases ("the Bravery class feature") with their bare names. Returns nil
// on an empty target, an empty list, or no match; never panics.
func MatchTarget(target string, associations []Association) *Association {
	reduced := reduceTarget(target)
	if reduced == "" || len(associations) == 0 {
		return nil
	}

	for i := range associations {
		if associations[i].ResolvedName == "" {
			continue
		}
		if NormalizeName(associations[i].ResolvedName) == reduced {
			match := associations[i]
			return &match
		}
	}

	stripped := StripTier(reduced)
	if stripped == "" {
		return nil
	}
	for i := range associations {
		candidate := StripTier(associations[i].ResolvedName)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, stripped) || strings.Contains(stripped, candidate) {
			match := associations[i]
			return &match
		}
	}
	return nil
}
