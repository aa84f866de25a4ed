package domain

// DiffStatus tags how one entry of a diff affects the base progression.
type DiffStatus string

const (
	DiffUnchanged DiffStatus = "unchanged"
	DiffRemoved   DiffStatus = "removed"
	DiffAdded     DiffStatus = "added"
	DiffModified  DiffStatus = "modified"
)

// DiffEntry describes one change an archetype makes to a base list.
// Removed, modified and unchanged entries always carry Original; added
// and modified entries always carry Feature.
type DiffEntry struct {
	Status   DiffStatus        `json:"status"`
	Name     string            `json:"name"`
	Level    int               `json:"level"`
	Original *Association      `json:"original,omitempty"`
	Feature  *ArchetypeFeature `json:"archetypeFeature,omitempty"`
}

// GenerateDiff computes the ordered change list an archetype makes to a
// resolved base association list. Unchanged and removed entries preserve
// base-list order; modified and added entries follow them in feature order.
// Unmatched and unknown features always surface as added entries so nothing
// an archetype carries is silently dropped.
func GenerateDiff(base []Association, archetype Archetype) []DiffEntry {
	entries := make([]DiffEntry, 0, len(base)+len(archetype.Features))

	// Pair each base association with the first feature that targets it.
	targeted := make(map[string]*ArchetypeFeature, len(archetype.Features))
	for i := range archetype.Features {
		feature := &archetype.Features[i]
		if feature.Matched == nil {
			continue
		}
		if feature.Type != FeatureReplacement && feature.Type != FeatureModification {
			continue
		}
		if _, taken := targeted[feature.Matched.UUID]; !taken {
			targeted[feature.Matched.UUID] = feature
		}
	}

	// An original consumed by a modification surfaces later, attached to the
	// feature's entry; it never appears at its base position.
	modifiedOriginal := make(map[*ArchetypeFeature]*Association)
	for i := range base {
		original := base[i]
		feature, ok := targeted[original.UUID]
		if !ok {
			entries = append(entries, DiffEntry{
				Status:   DiffUnchanged,
				Name:     original.ResolvedName,
				Level:    original.Level,
				Original: &original,
			})
			continue
		}
		switch feature.Type {
		case FeatureReplacement:
			entries = append(entries, DiffEntry{
				Status:   DiffRemoved,
				Name:     original.ResolvedName,
				Level:    original.Level,
				Original: &original,
			})
		case FeatureModification:
			modifiedOriginal[feature] = &original
		}
	}

	for i := range archetype.Features {
		feature := &archetype.Features[i]
		if original, ok := modifiedOriginal[feature]; ok {
			entries = append(entries, DiffEntry{
				Status:   DiffModified,
				Name:     feature.Name,
				Level:    feature.Level,
				Original: original,
				Feature:  feature,
			})
			continue
		}
		entries = append(entries, DiffEntry{
			Status:  DiffAdded,
			Name:    feature.Name,
			Level:   feature.Level,
			Feature: feature,
		})
	}

	return entries
}

// BuildAssociations materializes the association list a committed diff
// produces. Unchanged entries keep their original uuid and level. Modified
// and added entries contribute exactly the feature's uuid at the feature's
// level; the original uuid of anything touched must never leak into the
// persisted list. Removed entries contribute nothing.
func BuildAssociations(diff []DiffEntry) []Association {
	result := make([]Association, 0, len(diff))
	for _, entry := range diff {
		switch entry.Status {
		case DiffUnchanged:
			if entry.Original != nil {
				result = append(result, Association{UUID: entry.Original.UUID, Level: entry.Original.Level})
			}
		case DiffModified, DiffAdded:
			if entry.Feature != nil {
				result = append(result, Association{UUID: entry.Feature.UUID, Level: entry.Feature.Level})
			}
		}
	}
	return result
}
