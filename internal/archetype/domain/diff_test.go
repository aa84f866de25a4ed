package domain

import "testing"

// twoHandedFighter mirrors the classic archetype shape: one replacement
// with an exact target, one replacement whose tierless target only matches
// through the containment fallback.
func twoHandedFighter(base []Association) Archetype {
	shatteringTarget := "Bravery"
	overhandTarget := "armor training"
	return Archetype{
		Name: "Two-Handed Fighter",
		Slug: "two-handed-fighter",
		Features: []ArchetypeFeature{
			{
				Name:    "Shattering Strike",
				Level:   2,
				Type:    FeatureReplacement,
				Target:  shatteringTarget,
				Matched: MatchTarget(shatteringTarget, base),
				UUID:    "arch.shattering-strike",
			},
			{
				Name:    "Overhand Chop",
				Level:   3,
				Type:    FeatureReplacement,
				Target:  overhandTarget,
				Matched: MatchTarget(overhandTarget, base),
				UUID:    "arch.overhand-chop",
			},
		},
	}
}

func TestGenerateDiffReplacementScenario(t *testing.T) {
	base := []Association{
		{UUID: "base.bonus-feat", Level: 1, ResolvedName: "Bonus Feat"},
		{UUID: "base.bravery", Level: 2, ResolvedName: "Bravery"},
		{UUID: "base.armor-training-1", Level: 3, ResolvedName: "Armor Training 1"},
	}
	archetype := twoHandedFighter(base)

	diff := GenerateDiff(base, archetype)

	if got := countStatus(diff, DiffUnchanged); got != 1 {
		t.Fatalf("unchanged entries = %d, want 1", got)
	}
	if got := countStatus(diff, DiffRemoved); got != 2 {
		t.Fatalf("removed entries = %d, want 2", got)
	}
	if got := countStatus(diff, DiffAdded); got != 2 {
		t.Fatalf("added entries = %d, want 2", got)
	}

	if !hasEntry(diff, DiffUnchanged, "Bonus Feat") {
		t.Fatal("expected unchanged(Bonus Feat)")
	}
	if !hasEntry(diff, DiffRemoved, "Bravery") {
		t.Fatal("expected removed(Bravery)")
	}
	if !hasEntry(diff, DiffAdded, "Shattering Strike") {
		t.Fatal("expected added(Shattering Strike)")
	}
	if !hasEntry(diff, DiffAdded, "Overhand Chop") {
		t.Fatal("expected added(Overhand Chop)")
	}

	list := BuildAssociations(diff)
	want := []Association{
		{UUID: "base.bonus-feat", Level: 1},
		{UUID: "arch.shattering-strike", Level: 2},
		{UUID: "arch.overhand-chop", Level: 3},
	}
	if len(list) != len(want) {
		t.Fatalf("built list length = %d, want %d (%v)", len(list), len(want), list)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("built[%d] = %+v, want %+v", i, list[i], want[i])
		}
	}
}

func TestGenerateDiffUntouchedAssociationsAreUnchanged(t *testing.T) {
	base := fighterBase()
	archetype := Archetype{Name: "Pure Additions", Features: []ArchetypeFeature{
		{Name: "New Trick", Level: 1, Type: FeatureAdditive, UUID: "arch.new-trick"},
	}}

	diff := GenerateDiff(base, archetype)

	unchanged := 0
	for _, entry := range diff {
		if entry.Status != DiffUnchanged {
			continue
		}
		unchanged++
		if entry.Original == nil {
			t.Fatal("unchanged entry must carry its original")
		}
	}
	if unchanged != len(base) {
		t.Fatalf("unchanged = %d, want one per untouched association (%d)", unchanged, len(base))
	}
}

func TestGenerateDiffReplacementNeverBothStatuses(t *testing.T) {
	base := fighterBase()
	archetype := twoHandedFighter(base)

	diff := GenerateDiff(base, archetype)

	for _, entry := range diff {
		if entry.Status == DiffRemoved && entry.Original == nil {
			t.Fatal("removed entry must carry its original")
		}
		if entry.Status == DiffAdded && entry.Feature == nil {
			t.Fatal("added entry must carry its feature")
		}
	}

	// The replaced base ability appears exactly once, as removed.
	seen := 0
	for _, entry := range diff {
		if entry.Original != nil && entry.Original.UUID == "base.bravery" {
			seen++
			if entry.Status != DiffRemoved {
				t.Fatalf("bravery surfaced as %q, want removed", entry.Status)
			}
		}
	}
	if seen != 1 {
		t.Fatalf("bravery surfaced %d times, want once", seen)
	}
}

func TestGenerateDiffModification(t *testing.T) {
	base := fighterBase()
	target := "Weapon Training 1"
	archetype := Archetype{
		Name: "Weapon Master",
		Features: []ArchetypeFeature{
			{
				Name:    "Focused Training",
				Level:   5,
				Type:    FeatureModification,
				Target:  target,
				Matched: MatchTarget(target, base),
				UUID:    "arch.focused-training",
			},
		},
	}

	diff := GenerateDiff(base, archetype)

	if got := countStatus(diff, DiffModified); got != 1 {
		t.Fatalf("modified entries = %d, want 1", got)
	}
	for _, entry := range diff {
		if entry.Status != DiffModified {
			continue
		}
		if entry.Original == nil || entry.Feature == nil {
			t.Fatal("modified entry must carry both original and feature")
		}
	}

	list := BuildAssociations(diff)
	for _, assoc := range list {
		if assoc.UUID == "base.weapon-training-1" {
			t.Fatal("modified association must carry the feature uuid, not the base uuid")
		}
	}
	if !containsUUID(list, "arch.focused-training") {
		t.Fatal("expected feature uuid in built list")
	}
}

func TestGenerateDiffModifiedEntriesFollowBaseEntries(t *testing.T) {
	// The modified target sits first in the base list; its entry must still
	// trail the unchanged entries, and so must its uuid in the built list.
	base := []Association{
		{UUID: "base.weapon-training-1", Level: 5, ResolvedName: "Weapon Training 1"},
		{UUID: "base.bravery", Level: 2, ResolvedName: "Bravery"},
	}
	target := "Weapon Training 1"
	archetype := Archetype{
		Name: "Weapon Master",
		Features: []ArchetypeFeature{
			{
				Name:    "Focused Training",
				Level:   5,
				Type:    FeatureModification,
				Target:  target,
				Matched: MatchTarget(target, base),
				UUID:    "arch.focused-training",
			},
		},
	}

	diff := GenerateDiff(base, archetype)

	if len(diff) != 2 {
		t.Fatalf("diff length = %d, want 2 (%v)", len(diff), diff)
	}
	if diff[0].Status != DiffUnchanged || diff[0].Name != "Bravery" {
		t.Fatalf("diff[0] = %+v, want unchanged(Bravery)", diff[0])
	}
	if diff[1].Status != DiffModified || diff[1].Name != "Focused Training" {
		t.Fatalf("diff[1] = %+v, want modified(Focused Training)", diff[1])
	}
	if diff[1].Original == nil || diff[1].Original.UUID != "base.weapon-training-1" {
		t.Fatalf("modified entry must carry the consumed original, got %+v", diff[1].Original)
	}

	list := BuildAssociations(diff)
	want := []Association{
		{UUID: "base.bravery", Level: 2},
		{UUID: "arch.focused-training", Level: 5},
	}
	if len(list) != len(want) {
		t.Fatalf("built list = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("built[%d] = %+v, want %+v", i, list[i], want[i])
		}
	}
}

func TestGenerateDiffUnmatchedReplacementSurfacesAsAdded(t *testing.T) {
	base := fighterBase()
	archetype := Archetype{
		Name: "Lost Target",
		Features: []ArchetypeFeature{
			{
				Name:           "Mystery Power",
				Level:          4,
				Type:           FeatureReplacement,
				Target:         "Sneak Attack",
				UUID:           "arch.mystery-power",
				NeedsUserInput: true,
			},
		},
	}

	diff := GenerateDiff(base, archetype)

	if got := countStatus(diff, DiffRemoved); got != 0 {
		t.Fatalf("removed entries = %d, want 0 for an unmatched replacement", got)
	}
	if !hasEntry(diff, DiffAdded, "Mystery Power") {
		t.Fatal("unmatched replacement must still surface as added")
	}
	if got := countStatus(diff, DiffUnchanged); got != len(base) {
		t.Fatalf("unchanged = %d, want the whole base list (%d)", got, len(base))
	}
}

func TestBuildAssociationsNeverLeaksReplacedUUIDs(t *testing.T) {
	base := fighterBase()
	archetype := twoHandedFighter(base)

	list := BuildAssociations(GenerateDiff(base, archetype))

	if containsUUID(list, "base.bravery") {
		t.Fatal("replaced base uuid leaked into built list")
	}
	if containsUUID(list, "base.armor-training-1") {
		t.Fatal("replaced base uuid leaked into built list")
	}
}

func countStatus(diff []DiffEntry, status DiffStatus) int {
	n := 0
	for _, entry := range diff {
		if entry.Status == status {
			n++
		}
	}
	return n
}

func hasEntry(diff []DiffEntry, status DiffStatus, name string) bool {
	for _, entry := range diff {
		if entry.Status == status && entry.Name == name {
			return true
		}
	}
	return false
}

func containsUUID(list []Association, uuid string) bool {
	for _, assoc := range list {
		if assoc.UUID == uuid {
			return true
		}
	}
	return false
}
