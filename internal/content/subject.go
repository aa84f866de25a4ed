package content

import (
	"context"
	"time"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
)

// Subject identifies a mutable actor owning class items.
type Subject struct {
	ID   string
	Name string
}

// ClassItem is one class on a subject's sheet, carrying the base ability
// progression the archetype engine mutates.
type ClassItem struct {
	ID           string
	Tag          string // short machine tag, e.g. "fighter"
	Name         string // display name, e.g. "Fighter"
	Associations []domain.Association
}

// AppliedStateVersion is the current persisted shape of AppliedState.
const AppliedStateVersion = 1

// AppliedState is the engine-owned record persisted per subject and class
// item. It is created on the first successful apply, updated on every
// subsequent apply or remove, and deleted outright when the archetype list
// empties, leaving no engine residue on the class item.
type AppliedState struct {
	Version              int                         `json:"version"`
	Archetypes           []string                    `json:"archetypes"`
	OriginalAssociations []domain.Association        `json:"originalAssociations"`
	AppliedAt            time.Time                   `json:"appliedAt"`
	AppliedArchetypes    map[string]domain.Archetype `json:"appliedArchetypeData"`
}

// Contains reports whether slug is already in the applied list.
func (s AppliedState) Contains(slug string) bool {
	for _, applied := range s.Archetypes {
		if applied == slug {
			return true
		}
	}
	return false
}

// Without returns the applied slug list with one slug removed, preserving
// order, and whether the slug was present.
func (s AppliedState) Without(slug string) ([]string, bool) {
	remaining := make([]string, 0, len(s.Archetypes))
	found := false
	for _, applied := range s.Archetypes {
		if applied == slug {
			found = true
			continue
		}
		remaining = append(remaining, applied)
	}
	return remaining, found
}

// SubjectStore persists subject class state: the live association list,
// the engine's applied-state record, and the per-subject, per-class-tag
// applied-slug index.
type SubjectStore interface {
	Associations(ctx context.Context, subjectID, classItemID string) ([]domain.Association, error)
	PutAssociations(ctx context.Context, subjectID, classItemID string, list []domain.Association) error

	// AppliedState returns ErrNotFound when no archetype has been applied.
	AppliedState(ctx context.Context, subjectID, classItemID string) (AppliedState, error)
	PutAppliedState(ctx context.Context, subjectID, classItemID string, state AppliedState) error
	DeleteAppliedState(ctx context.Context, subjectID, classItemID string) error

	SlugIndex(ctx context.Context, subjectID, classTag string) ([]string, error)
	PutSlugIndex(ctx context.Context, subjectID, classTag string, slugs []string) error
}
