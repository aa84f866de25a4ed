package content

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrUnknownSection indicates a section name outside the fixed set.
var ErrUnknownSection = errors.New("unknown content section")

// Section names one of the three fixed archetype content sections.
type Section string

const (
	// SectionWorld holds world-specific archetype content. GM-only writes.
	SectionWorld Section = "world"
	// SectionCompendium holds module-shipped archetype content. GM-only writes.
	SectionCompendium Section = "compendium"
	// SectionUser holds per-user homebrew. Writable by anyone.
	SectionUser Section = "user"
)

// SectionPriority is the fixed lookup order across sections; the first
// section containing a slug wins.
var SectionPriority = []Section{SectionWorld, SectionCompendium, SectionUser}

// Known reports whether s is one of the three fixed sections.
func (s Section) Known() bool {
	return s == SectionWorld || s == SectionCompendium || s == SectionUser
}

// GMOnly reports whether the section rejects writes from non-privileged
// callers.
func (s Section) GMOnly() bool {
	return s == SectionWorld || s == SectionCompendium
}

// FeatureRecord is the persisted form of one archetype feature within a
// section. Replaces is nil for additive features.
type FeatureRecord struct {
	Level       int     `json:"level"`
	Replaces    *string `json:"replaces"`
	Description string  `json:"description"`
}

// ArchetypeRecord is the persisted form of one archetype within a section.
type ArchetypeRecord struct {
	Class    string                   `json:"class"`
	Features map[string]FeatureRecord `json:"features"`
}

// SectionData maps archetype slugs to their records within one section.
type SectionData map[string]ArchetypeRecord

// SectionStore persists archetype content across the three fixed sections.
//
// Write calls report a (stored, error) pair: a non-privileged write to a
// GM-only section returns (false, coded error) and mutates nothing.
// Implementations recover corrupted section payloads in place: a payload
// that does not decode to a JSON object resets to {} with a surfaced
// warning, never a returned error.
type SectionStore interface {
	ReadSection(ctx context.Context, section Section) (SectionData, error)
	WriteSection(ctx context.Context, section Section, data SectionData, privileged bool) (bool, error)
	SetArchetype(ctx context.Context, section Section, slug string, record ArchetypeRecord, privileged bool) (bool, error)
	DeleteArchetype(ctx context.Context, section Section, slug string, privileged bool) (bool, error)
}

// FoundArchetype tags a located record with the section it came from.
type FoundArchetype struct {
	Slug    string
	Section Section
	Record  ArchetypeRecord
}

// FindArchetype looks a slug up across sections in priority order and
// returns the first hit tagged with its source section. ErrNotFound when
// no section holds the slug.
func FindArchetype(ctx context.Context, store SectionStore, slug string) (FoundArchetype, error) {
	for _, section := range SectionPriority {
		data, err := store.ReadSection(ctx, section)
		if err != nil {
			return FoundArchetype{}, err
		}
		if record, ok := data[slug]; ok {
			return FoundArchetype{Slug: slug, Section: section, Record: record}, nil
		}
	}
	return FoundArchetype{}, ErrNotFound
}
