package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
	"github.com/louisbranch/archetype-engine/internal/content"
)

// featureUUIDPrefix builds the fallback identifier path for feature
// documents that carry no UUID of their own.
const featureUUIDPrefix = "Compendium.archetype-engine.features."

// NameResolver resolves a base ability reference to its display name.
// Implementations return content.ErrNotFound for unknown references.
type NameResolver interface {
	Resolve(ctx context.Context, uuid string) (string, error)
}

// FeatureLoader supplies raw feature documents for an archetype reference.
// Absent content yields an empty slice, never an error.
type FeatureLoader interface {
	LoadFeatureDocuments(ctx context.Context, archetypeRef string) ([]FeatureDoc, error)
}

// ArchetypeDoc is the narrow shape of an external archetype document.
type ArchetypeDoc struct {
	ID     string
	Name   string
	Class  string
	Source string
}

// FeatureDoc is the narrow shape of an external feature document. UUID may
// be empty; ID never is. Level is a fallback for descriptions without a
// level marker.
type FeatureDoc struct {
	ID          string
	UUID        string
	Name        string
	Description string
	Level       int
}

// Parser turns external archetype documents into typed archetypes with
// resolved, matched features.
type Parser struct {
	resolver NameResolver
	loader   FeatureLoader
}

// NewParser creates a parser over the given name resolver. The loader may
// be nil when callers supply feature documents themselves.
func NewParser(resolver NameResolver, loader FeatureLoader) *Parser {
	return &Parser{resolver: resolver, loader: loader}
}

// ResolveAssociations attaches display names to a base association list.
// Resolver misses leave ResolvedName empty and never abort resolution.
func (p *Parser) ResolveAssociations(ctx context.Context, base []domain.Association) ([]domain.Association, error) {
	resolved := make([]domain.Association, len(base))
	for i, assoc := range base {
		resolved[i] = assoc
		if assoc.ResolvedName != "" || p == nil || p.resolver == nil {
			continue
		}
		name, err := p.resolver.Resolve(ctx, assoc.UUID)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve association %s: %w", assoc.UUID, err)
		}
		resolved[i].ResolvedName = name
	}
	return resolved, nil
}

// ParseArchetype classifies and matches every feature document against the
// subject's base ability list, assembling a typed archetype. It returns the
// resolved base list alongside so callers can diff against it. Unreadable
// or unmatched features are never errors; they surface flagged for human
// resolution.
func (p *Parser) ParseArchetype(ctx context.Context, doc ArchetypeDoc, featureDocs []FeatureDoc, base []domain.Association) (domain.Archetype, []domain.Association, error) {
	resolved, err := p.ResolveAssociations(ctx, base)
	if err != nil {
		return domain.Archetype{}, nil, err
	}

	archetype := domain.Archetype{
		Name:  strings.TrimSpace(doc.Name),
		Slug:  domain.Slugify(doc.Name),
		Class: strings.TrimSpace(doc.Class),
	}

	for _, featureDoc := range featureDocs {
		classification := domain.Classify(featureDoc.Description)

		level := classification.Level
		if level == 0 {
			level = featureDoc.Level
		}

		uuid := featureDoc.UUID
		if uuid == "" {
			uuid = featureUUIDPrefix + featureDoc.ID
		}

		feature := domain.ArchetypeFeature{
			Name:   featureDoc.Name,
			Level:  level,
			Type:   classification.Type,
			Target: classification.Target,
			UUID:   uuid,
			Source: doc.Source,
		}
		if classification.Target != "" {
			feature.Matched = domain.MatchTarget(classification.Target, resolved)
		}
		feature.NeedsUserInput = needsUserInput(feature)

		archetype.Features = append(archetype.Features, feature)
	}

	return archetype, resolved, nil
}

// ParseArchetypeRef loads an archetype's feature documents through the
// configured loader and parses them. A reference with no installed content
// parses to an archetype with no features.
func (p *Parser) ParseArchetypeRef(ctx context.Context, doc ArchetypeDoc, archetypeRef string, base []domain.Association) (domain.Archetype, []domain.Association, error) {
	if p == nil || p.loader == nil {
		return domain.Archetype{}, nil, fmt.Errorf("feature loader is not configured")
	}
	featureDocs, err := p.loader.LoadFeatureDocuments(ctx, archetypeRef)
	if err != nil {
		return domain.Archetype{}, nil, fmt.Errorf("load feature documents: %w", err)
	}
	return p.ParseArchetype(ctx, doc, featureDocs, base)
}

// needsUserInput reports whether a feature requires human resolution:
// unknown features always, and replacements or modifications whose target
// could not be matched.
func needsUserInput(feature domain.ArchetypeFeature) bool {
	if feature.Type == domain.FeatureUnknown {
		return true
	}
	if feature.Type == domain.FeatureReplacement || feature.Type == domain.FeatureModification {
		return feature.Matched == nil
	}
	return false
}

// FeatureDocsFromRecord converts a persisted archetype record into feature
// documents, ordered by feature identifier for deterministic parses.
// Records with an explicit Replaces field that the description omits get a
// synthesized "Replaces X." sentence so classification sees the target.
func FeatureDocsFromRecord(record content.ArchetypeRecord) []FeatureDoc {
	ids := make([]string, 0, len(record.Features))
	for id := range record.Features {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]FeatureDoc, 0, len(ids))
	for _, id := range ids {
		feature := record.Features[id]
		description := feature.Description
		if feature.Replaces != nil && !strings.Contains(strings.ToLower(description), "replaces") {
			description = strings.TrimSpace(description + " Replaces " + *feature.Replaces + ".")
		}
		docs = append(docs, FeatureDoc{
			ID:          id,
			Name:        id,
			Description: description,
			Level:       feature.Level,
		})
	}
	return docs
}

// ArchetypeDocFromRecord builds the document head for a persisted record,
// tagged with the section it was found in.
func ArchetypeDocFromRecord(found content.FoundArchetype) ArchetypeDoc {
	return ArchetypeDoc{
		ID:     found.Slug,
		Name:   found.Slug,
		Class:  found.Record.Class,
		Source: string(found.Section),
	}
}
