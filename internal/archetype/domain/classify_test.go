package domain

import "testing"

func TestClassify(t *testing.T) {
	tcs := []struct {
		name        string
		description string
		wantType    FeatureType
		wantTarget  string
		wantLevel   int
	}{
		{
			name:        "replacement with article and suffix",
			description: "Level: 2. This ability replaces the Bravery class feature.",
			wantType:    FeatureReplacement,
			wantTarget:  "Bravery",
			wantLevel:   2,
		},
		{
			name:        "replacement bare name",
			description: "At 3rd level, replaces armor training. Level: 3",
			wantType:    FeatureReplacement,
			wantTarget:  "armor training",
			wantLevel:   3,
		},
		{
			name:        "replacement preserves tier numeral",
			description: "Replaces Weapon Training 1.",
			wantType:    FeatureReplacement,
			wantTarget:  "Weapon Training 1",
		},
		{
			name:        "modification",
			description: "Level: 5. Modifies weapon training, adding a bonus against giants.",
			wantType:    FeatureModification,
			wantTarget:  "weapon training",
			wantLevel:   5,
		},
		{
			name:        "additive prose",
			description: "Level: 4. The fighter gains a powerful overhand blow usable once per round.",
			wantType:    FeatureAdditive,
			wantLevel:   4,
		},
		{
			name:        "empty text",
			description: "   ",
			wantType:    FeatureUnknown,
		},
		{
			name:        "too short to classify",
			description: "Overhand Chop",
			wantType:    FeatureUnknown,
		},
		{
			name:        "target verb without parsable target",
			description: "Replaces.",
			wantType:    FeatureUnknown,
		},
		{
			name:        "colon-less level prose is not a marker",
			description: "Gained at level 7, this ability replaces bravery.",
			wantType:    FeatureReplacement,
			wantTarget:  "bravery",
			wantLevel:   0,
		},
		{
			name:        "incidental level prose in a grant",
			description: "The wizard gains level 5 spells known from the illusion school.",
			wantType:    FeatureAdditive,
			wantLevel:   0,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.description)
			if got.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", got.Type, tc.wantType)
			}
			if got.Target != tc.wantTarget {
				t.Fatalf("target = %q, want %q", got.Target, tc.wantTarget)
			}
			if got.Level != tc.wantLevel {
				t.Fatalf("level = %d, want %d", got.Level, tc.wantLevel)
			}
		})
	}
}
