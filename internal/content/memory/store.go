// Package memory provides an in-memory content store used by tests and
// as the default backend when no database path is configured. It mirrors
// the sqlite backend's semantics, including GM-only write rejection and
// in-place recovery of corrupted section payloads.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
	"github.com/louisbranch/archetype-engine/internal/content"
	"github.com/louisbranch/archetype-engine/internal/platform/errors"
)

// Store keeps sections and subject class state in process memory.
type Store struct {
	mu       sync.RWMutex
	sections map[content.Section][]byte
	assocs   map[string][]byte
	states   map[string][]byte
	indexes  map[string][]string
	warn     func(format string, args ...any)
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sections: make(map[content.Section][]byte),
		assocs:   make(map[string][]byte),
		states:   make(map[string][]byte),
		indexes:  make(map[string][]string),
		warn:     log.Printf,
	}
}

// SetWarnFunc overrides the corruption-warning sink. Tests use this to
// assert that recovery surfaces a warning.
func (s *Store) SetWarnFunc(warn func(format string, args ...any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if warn != nil {
		s.warn = warn
	}
}

// SeedRawSection installs a raw section payload verbatim, bypassing write
// checks. Tests use this to inject corrupted content.
func (s *Store) SeedRawSection(section content.Section, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section] = append([]byte(nil), payload...)
}

func stateKey(subjectID, classItemID string) string {
	return subjectID + "/" + classItemID
}

// ReadSection returns the decoded section payload. A payload that does not
// decode to a JSON object is reset to {} in place with a warning and an
// empty result; corruption is never a returned error.
func (s *Store) ReadSection(ctx context.Context, section content.Section) (content.SectionData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !section.Known() {
		return nil, fmt.Errorf("%w: %q", content.ErrUnknownSection, section)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, ok := s.sections[section]
	if !ok || len(payload) == 0 {
		return content.SectionData{}, nil
	}
	data := content.SectionData{}
	if err := json.Unmarshal(payload, &data); err != nil {
		s.sections[section] = []byte("{}")
		s.warn("content section reset after corrupt payload section=%s err=%v", section, err)
		return content.SectionData{}, nil
	}
	return data, nil
}

// WriteSection replaces a section's payload wholesale.
func (s *Store) WriteSection(ctx context.Context, section content.Section, data content.SectionData, privileged bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !section.Known() {
		return false, fmt.Errorf("%w: %q", content.ErrUnknownSection, section)
	}
	if section.GMOnly() && !privileged {
		return false, errors.WithMetadata(errors.CodeSectionWriteDenied,
			fmt.Sprintf("section %q accepts writes from privileged callers only", section),
			map[string]string{"section": string(section)})
	}
	if data == nil {
		data = content.SectionData{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("encode section %s: %w", section, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section] = payload
	return true, nil
}

// SetArchetype upserts one archetype record within a section.
func (s *Store) SetArchetype(ctx context.Context, section content.Section, slug string, record content.ArchetypeRecord, privileged bool) (bool, error) {
	data, err := s.ReadSection(ctx, section)
	if err != nil {
		return false, err
	}
	data[slug] = record
	return s.WriteSection(ctx, section, data, privileged)
}

// DeleteArchetype removes one archetype record from a section. Deleting an
// absent slug is a no-op success.
func (s *Store) DeleteArchetype(ctx context.Context, section content.Section, slug string, privileged bool) (bool, error) {
	data, err := s.ReadSection(ctx, section)
	if err != nil {
		return false, err
	}
	if _, ok := data[slug]; !ok {
		if section.GMOnly() && !privileged {
			return false, errors.WithMetadata(errors.CodeSectionWriteDenied,
				fmt.Sprintf("section %q accepts writes from privileged callers only", section),
				map[string]string{"section": string(section)})
		}
		return true, nil
	}
	delete(data, slug)
	return s.WriteSection(ctx, section, data, privileged)
}

// Associations returns the stored association list for one class item.
// Missing records read as empty lists.
func (s *Store) Associations(ctx context.Context, subjectID, classItemID string) ([]domain.Association, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	payload, ok := s.assocs[stateKey(subjectID, classItemID)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var list []domain.Association
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("decode associations: %w", err)
	}
	return list, nil
}

// PutAssociations replaces the stored association list for one class item.
func (s *Store) PutAssociations(ctx context.Context, subjectID, classItemID string, list []domain.Association) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode associations: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assocs[stateKey(subjectID, classItemID)] = payload
	return nil
}

// AppliedState returns the engine's applied-state record, or ErrNotFound.
func (s *Store) AppliedState(ctx context.Context, subjectID, classItemID string) (content.AppliedState, error) {
	if err := ctx.Err(); err != nil {
		return content.AppliedState{}, err
	}
	s.mu.RLock()
	payload, ok := s.states[stateKey(subjectID, classItemID)]
	s.mu.RUnlock()
	if !ok {
		return content.AppliedState{}, content.ErrNotFound
	}
	var state content.AppliedState
	if err := json.Unmarshal(payload, &state); err != nil {
		return content.AppliedState{}, fmt.Errorf("decode applied state: %w", err)
	}
	return state, nil
}

// PutAppliedState stores the applied-state record.
func (s *Store) PutAppliedState(ctx context.Context, subjectID, classItemID string, state content.AppliedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode applied state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey(subjectID, classItemID)] = payload
	return nil
}

// DeleteAppliedState removes the applied-state record entirely.
func (s *Store) DeleteAppliedState(ctx context.Context, subjectID, classItemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, stateKey(subjectID, classItemID))
	return nil
}

// SlugIndex returns the applied-slug index for one subject and class tag.
func (s *Store) SlugIndex(ctx context.Context, subjectID, classTag string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	slugs := s.indexes[stateKey(subjectID, classTag)]
	return append([]string(nil), slugs...), nil
}

// PutSlugIndex replaces the applied-slug index for one subject and class
// tag. An empty list deletes the index entry.
func (s *Store) PutSlugIndex(ctx context.Context, subjectID, classTag string, slugs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey(subjectID, classTag)
	if len(slugs) == 0 {
		delete(s.indexes, key)
		return nil
	}
	s.indexes[key] = append([]string(nil), slugs...)
	return nil
}
