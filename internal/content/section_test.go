package content

import (
	"context"
	"errors"
	"testing"
)

func TestSectionKnown(t *testing.T) {
	for _, section := range SectionPriority {
		if !section.Known() {
			t.Fatalf("section %q should be known", section)
		}
	}
	if Section("homebrew").Known() {
		t.Fatal("unexpected section accepted")
	}
	if Section("").Known() {
		t.Fatal("empty section accepted")
	}
}

func TestSectionGMOnly(t *testing.T) {
	tcs := []struct {
		section Section
		want    bool
	}{
		{SectionWorld, true},
		{SectionCompendium, true},
		{SectionUser, false},
	}
	for _, tc := range tcs {
		if got := tc.section.GMOnly(); got != tc.want {
			t.Fatalf("%q GMOnly = %v, want %v", tc.section, got, tc.want)
		}
	}
}

type stubSectionStore struct {
	sections map[Section]SectionData
	err      error
}

func (s stubSectionStore) ReadSection(_ context.Context, section Section) (SectionData, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.sections[section]
	if !ok {
		return SectionData{}, nil
	}
	return data, nil
}

func (s stubSectionStore) WriteSection(context.Context, Section, SectionData, bool) (bool, error) {
	return false, errors.New("read-only stub")
}

func (s stubSectionStore) SetArchetype(context.Context, Section, string, ArchetypeRecord, bool) (bool, error) {
	return false, errors.New("read-only stub")
}

func (s stubSectionStore) DeleteArchetype(context.Context, Section, string, bool) (bool, error) {
	return false, errors.New("read-only stub")
}

func TestFindArchetypePriorityOrder(t *testing.T) {
	store := stubSectionStore{sections: map[Section]SectionData{
		SectionWorld:      {"shared-slug": {Class: "from world"}},
		SectionCompendium: {"shared-slug": {Class: "from compendium"}, "compendium-only": {Class: "Fighter"}},
		SectionUser:       {"shared-slug": {Class: "from user"}, "user-only": {Class: "Rogue"}},
	}}
	ctx := context.Background()

	found, err := FindArchetype(ctx, store, "shared-slug")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Section != SectionWorld || found.Record.Class != "from world" {
		t.Fatalf("world must shadow lower sections, got %+v", found)
	}

	found, err = FindArchetype(ctx, store, "compendium-only")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Section != SectionCompendium {
		t.Fatalf("section = %q, want compendium", found.Section)
	}

	found, err = FindArchetype(ctx, store, "user-only")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Section != SectionUser || found.Slug != "user-only" {
		t.Fatalf("unexpected hit: %+v", found)
	}
}

func TestFindArchetypeMissing(t *testing.T) {
	store := stubSectionStore{sections: map[Section]SectionData{}}
	_, err := FindArchetype(context.Background(), store, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindArchetypePropagatesStoreErrors(t *testing.T) {
	failure := errors.New("backend down")
	store := stubSectionStore{err: failure}
	_, err := FindArchetype(context.Background(), store, "anything")
	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want the backend failure", err)
	}
}

func TestAppliedStateContainsAndWithout(t *testing.T) {
	state := AppliedState{Archetypes: []string{"a", "b", "c"}}

	if !state.Contains("b") {
		t.Fatal("expected b to be applied")
	}
	if state.Contains("d") {
		t.Fatal("d is not applied")
	}

	remaining, found := state.Without("b")
	if !found {
		t.Fatal("b should have been found")
	}
	if len(remaining) != 2 || remaining[0] != "a" || remaining[1] != "c" {
		t.Fatalf("remaining = %v, want order preserved", remaining)
	}

	remaining, found = state.Without("d")
	if found {
		t.Fatal("d is not applied")
	}
	if len(remaining) != 3 {
		t.Fatalf("remaining = %v, want untouched list", remaining)
	}
}
