package domain

// Conflict pairs two archetype features that touch the same base ability
// family. It is symmetric under swapping the A and B sides.
type Conflict struct {
	FeatureName string `json:"featureName"`
	ArchetypeA  string `json:"archetypeA"`
	FeatureA    string `json:"featureA"`
	ArchetypeB  string `json:"archetypeB"`
	FeatureB    string `json:"featureB"`
}

// DetectConflicts reports every pair of targeted features, one from each
// archetype, whose targets collide under the tier-stripped key. Features
// without a target never conflict. Comparing an archetype against itself
// reports its own internal overlaps, degenerate self-pairs included; that
// over-reporting is accepted, not filtered.
func DetectConflicts(a, b Archetype) []Conflict {
	var conflicts []Conflict
	for _, fa := range a.Features {
		keyA := conflictKey(fa.Target)
		if keyA == "" {
			continue
		}
		for _, fb := range b.Features {
			if conflictKey(fb.Target) != keyA {
				continue
			}
			conflicts = append(conflicts, Conflict{
				FeatureName: keyA,
				ArchetypeA:  a.Name,
				FeatureA:    fa.Name,
				ArchetypeB:  b.Name,
				FeatureB:    fb.Name,
			})
		}
	}
	return conflicts
}

// conflictKey reduces a target phrase to the tier-stripped key two
// archetypes are compared on. Empty when the feature has no target.
func conflictKey(target string) string {
	if target == "" {
		return ""
	}
	return StripTier(reduceTarget(target))
}

// StackValidation is the outcome of validating a whole archetype stack.
type StackValidation struct {
	Valid     bool
	Conflicts []Conflict
}

// ValidateStack runs conflict detection over every unordered pair in the
// stack. Zero or one archetypes are trivially valid with no conflicts.
func ValidateStack(archetypes []Archetype) StackValidation {
	var conflicts []Conflict
	for i := 0; i < len(archetypes); i++ {
		for j := i + 1; j < len(archetypes); j++ {
			conflicts = append(conflicts, DetectConflicts(archetypes[i], archetypes[j])...)
		}
	}
	return StackValidation{Valid: len(conflicts) == 0, Conflicts: conflicts}
}
