package domain

// Association is one leveled entry in a subject's base ability
// progression. ResolvedName is attached once by resolving the UUID
// through an external name resolver and is never mutated afterward.
type Association struct {
	UUID         string `json:"uuid"`
	Level        int    `json:"level"`
	ResolvedName string `json:"resolvedName,omitempty"`
}

// FeatureType classifies how an archetype feature relates to the base
// progression.
type FeatureType string

const (
	// FeatureReplacement removes a base ability and adds the feature in
	// its place.
	FeatureReplacement FeatureType = "replacement"
	// FeatureModification alters a base ability in place; the base
	// identifier disappears and the feature's identifier takes over.
	FeatureModification FeatureType = "modification"
	// FeatureAdditive grants a new ability without touching the base
	// progression.
	FeatureAdditive FeatureType = "additive"
	// FeatureUnknown marks text the classifier could not read; a human
	// resolves it downstream.
	FeatureUnknown FeatureType = "unknown"
)

// ArchetypeFeature is one feature belonging to an archetype. UUID is the
// feature's own identifier, distinct from any matched base association's
// UUID, and is the value written into the subject's list on commit.
type ArchetypeFeature struct {
	Name           string       `json:"name"`
	Level          int          `json:"level"`
	Type           FeatureType  `json:"type"`
	Target         string       `json:"target,omitempty"`
	Matched        *Association `json:"matchedAssociation,omitempty"`
	UUID           string       `json:"uuid"`
	NeedsUserInput bool         `json:"needsUserInput"`
	Source         string       `json:"source,omitempty"`
}

// Archetype is a named bundle of feature replacements, modifications and
// additions layered onto a class's base progression. An empty Class means
// the archetype is not class-restricted.
type Archetype struct {
	Name     string             `json:"name"`
	Slug     string             `json:"slug"`
	Class    string             `json:"class,omitempty"`
	Features []ArchetypeFeature `json:"features"`
}
