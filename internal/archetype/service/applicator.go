package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
	"github.com/louisbranch/archetype-engine/internal/content"
	"github.com/louisbranch/archetype-engine/internal/platform/errors"
	"github.com/louisbranch/archetype-engine/internal/telemetry"
)

// PermissionOracle answers whether the current caller may mutate a subject.
// Supplied by the host environment.
type PermissionOracle interface {
	IsPrivileged(ctx context.Context) bool
	IsOwner(ctx context.Context, subjectID string) bool
}

// Applicator commits archetype diffs to a subject's class items and
// reverses them. All mutation of a subject's association list and applied
// state goes through here, serialized per subject.
type Applicator struct {
	subjects content.SubjectStore
	perms    PermissionOracle
	resolver NameResolver
	emitter  *telemetry.Emitter
	locks    *subjectLocks
	inflight *inflightSet
	clock    func() time.Time
	tracer   trace.Tracer
}

// NewApplicator creates an applicator with its own lock registry. The
// resolver re-attaches display names when a non-last removal rebuilds the
// association list from the snapshot; it may be nil when multi-archetype
// stacks are not in play.
func NewApplicator(subjects content.SubjectStore, perms PermissionOracle, resolver NameResolver, emitter *telemetry.Emitter) *Applicator {
	return &Applicator{
		subjects: subjects,
		perms:    perms,
		resolver: resolver,
		emitter:  emitter,
		locks:    newSubjectLocks(),
		inflight: newInflightSet(),
		clock:    time.Now,
		tracer:   otel.Tracer("archetype-engine/applicator"),
	}
}

func inflightKey(subjectID, classItemID, slug string) string {
	return subjectID + "/" + classItemID + "/" + slug
}

// Apply commits a computed diff for one archetype onto a subject's class
// item. Exactly one of any set of simultaneous identical calls succeeds;
// the rest return false with no side effects and no notification. The
// first apply on a class item snapshots the pre-apply association list;
// any failure before that snapshot leaves all state untouched.
func (a *Applicator) Apply(ctx context.Context, subject content.Subject, class content.ClassItem, archetype domain.Archetype, diff []domain.DiffEntry) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "applicator.apply", trace.WithAttributes(
		attribute.String("subject.id", subject.ID),
		attribute.String("archetype.slug", archetype.Slug),
	))
	defer span.End()

	key := inflightKey(subject.ID, class.ID, archetype.Slug)
	if !a.inflight.begin(key) {
		// Duplicate of a request already in flight. Silent rejection: only
		// the winning request surfaces a notification.
		return false, nil
	}
	defer a.inflight.end(key)

	lock := a.locks.acquire(subject.ID)
	defer lock.Unlock()

	if !a.perms.IsPrivileged(ctx) && !a.perms.IsOwner(ctx, subject.ID) {
		return false, errors.WithMetadata(errors.CodePermissionDenied,
			fmt.Sprintf("caller may not mutate %s", subject.Name),
			map[string]string{"subject": subject.Name})
	}
	if strings.TrimSpace(archetype.Class) != "" && !ValidateClass(archetype, class) {
		return false, errors.WithMetadata(errors.CodeClassMismatch,
			fmt.Sprintf("archetype %q requires class %q but %s is a %s", archetype.Name, archetype.Class, subject.Name, class.Name),
			map[string]string{
				"archetype_class": archetype.Class,
				"subject_class":   class.Name,
			})
	}

	state, err := a.subjects.AppliedState(ctx, subject.ID, class.ID)
	switch {
	case stderrors.Is(err, content.ErrNotFound):
		// First archetype on this class item: snapshot the current list so
		// the final removal can restore it byte for byte.
		current, readErr := a.subjects.Associations(ctx, subject.ID, class.ID)
		if readErr != nil {
			return false, fmt.Errorf("read associations: %w", readErr)
		}
		state = content.AppliedState{
			Version:              content.AppliedStateVersion,
			OriginalAssociations: current,
			AppliedArchetypes:    map[string]domain.Archetype{},
		}
	case err != nil:
		return false, fmt.Errorf("read applied state: %w", err)
	}

	if state.Contains(archetype.Slug) {
		// Reapplying must not duplicate; the earlier apply already won.
		return false, nil
	}

	newList := domain.BuildAssociations(diff)
	if err := a.subjects.PutAssociations(ctx, subject.ID, class.ID, newList); err != nil {
		return false, fmt.Errorf("write associations: %w", err)
	}

	state.Archetypes = append(state.Archetypes, archetype.Slug)
	if state.AppliedArchetypes == nil {
		state.AppliedArchetypes = map[string]domain.Archetype{}
	}
	state.AppliedArchetypes[archetype.Slug] = archetype
	state.AppliedAt = a.now()
	if err := a.subjects.PutAppliedState(ctx, subject.ID, class.ID, state); err != nil {
		return false, fmt.Errorf("write applied state: %w", err)
	}
	if err := a.subjects.PutSlugIndex(ctx, subject.ID, class.Tag, state.Archetypes); err != nil {
		return false, fmt.Errorf("write slug index: %w", err)
	}

	a.emitter.Notify(ctx, telemetry.SeverityInfo,
		fmt.Sprintf("Applied archetype %s to %s", archetype.Name, subject.Name))
	a.emitter.PostLog(ctx, telemetry.ChatEntry{
		Speaker: subject.Name,
		Content: fmt.Sprintf("%s gains the %s archetype.", subject.Name, archetype.Name),
	})
	return true, nil
}

// Remove reverts one applied archetype. Removing the last archetype
// restores the snapshot taken before the first apply and deletes the
// applied-state record outright; removing a non-last archetype recomputes
// the association list from the snapshot plus the remaining archetypes'
// regenerated diffs. Removing a slug that is not applied is a silent no-op.
func (a *Applicator) Remove(ctx context.Context, subject content.Subject, class content.ClassItem, slug string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "applicator.remove", trace.WithAttributes(
		attribute.String("subject.id", subject.ID),
		attribute.String("archetype.slug", slug),
	))
	defer span.End()

	key := inflightKey(subject.ID, class.ID, slug)
	if !a.inflight.begin(key) {
		return false, nil
	}
	defer a.inflight.end(key)

	lock := a.locks.acquire(subject.ID)
	defer lock.Unlock()

	if !a.perms.IsPrivileged(ctx) && !a.perms.IsOwner(ctx, subject.ID) {
		return false, errors.WithMetadata(errors.CodePermissionDenied,
			fmt.Sprintf("caller may not mutate %s", subject.Name),
			map[string]string{"subject": subject.Name})
	}

	state, err := a.subjects.AppliedState(ctx, subject.ID, class.ID)
	if stderrors.Is(err, content.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read applied state: %w", err)
	}

	remaining, found := state.Without(slug)
	if !found {
		return false, nil
	}

	removed := state.AppliedArchetypes[slug]

	if len(remaining) == 0 {
		if err := a.subjects.PutAssociations(ctx, subject.ID, class.ID, state.OriginalAssociations); err != nil {
			return false, fmt.Errorf("restore associations: %w", err)
		}
		if err := a.subjects.DeleteAppliedState(ctx, subject.ID, class.ID); err != nil {
			return false, fmt.Errorf("delete applied state: %w", err)
		}
		if err := a.subjects.PutSlugIndex(ctx, subject.ID, class.Tag, nil); err != nil {
			return false, fmt.Errorf("clear slug index: %w", err)
		}
	} else {
		list := state.OriginalAssociations
		for _, appliedSlug := range remaining {
			applied, ok := state.AppliedArchetypes[appliedSlug]
			if !ok {
				continue
			}
			list = a.resolveNames(ctx, list)
			rediff := domain.GenerateDiff(list, rematchFeatures(applied, list))
			list = domain.BuildAssociations(rediff)
		}
		if err := a.subjects.PutAssociations(ctx, subject.ID, class.ID, list); err != nil {
			return false, fmt.Errorf("write associations: %w", err)
		}

		state.Archetypes = remaining
		delete(state.AppliedArchetypes, slug)
		state.AppliedAt = a.now()
		if err := a.subjects.PutAppliedState(ctx, subject.ID, class.ID, state); err != nil {
			return false, fmt.Errorf("write applied state: %w", err)
		}
		if err := a.subjects.PutSlugIndex(ctx, subject.ID, class.Tag, remaining); err != nil {
			return false, fmt.Errorf("write slug index: %w", err)
		}
	}

	name := removed.Name
	if name == "" {
		name = slug
	}
	a.emitter.Notify(ctx, telemetry.SeverityInfo,
		fmt.Sprintf("Removed archetype %s from %s", name, subject.Name))
	a.emitter.PostLog(ctx, telemetry.ChatEntry{
		Speaker: subject.Name,
		Content: fmt.Sprintf("%s loses the %s archetype.", subject.Name, name),
	})
	return true, nil
}

// AppliedArchetypes returns the archetype snapshots currently committed to
// a class item, in application order. Conflict checks against a candidate
// run over this list.
func (a *Applicator) AppliedArchetypes(ctx context.Context, subject content.Subject, class content.ClassItem) ([]domain.Archetype, error) {
	state, err := a.subjects.AppliedState(ctx, subject.ID, class.ID)
	if stderrors.Is(err, content.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read applied state: %w", err)
	}
	applied := make([]domain.Archetype, 0, len(state.Archetypes))
	for _, slug := range state.Archetypes {
		if archetype, ok := state.AppliedArchetypes[slug]; ok {
			applied = append(applied, archetype)
		}
	}
	return applied, nil
}

// resolveNames best-effort re-attaches display names to a rebuilt list so
// stored targets can re-match. Resolver misses and errors leave entries
// unresolved; those entries simply cannot be matched again.
func (a *Applicator) resolveNames(ctx context.Context, list []domain.Association) []domain.Association {
	if a.resolver == nil {
		return list
	}
	resolved := make([]domain.Association, len(list))
	for i, assoc := range list {
		resolved[i] = assoc
		if assoc.ResolvedName != "" {
			continue
		}
		name, err := a.resolver.Resolve(ctx, assoc.UUID)
		if err != nil {
			continue
		}
		resolved[i].ResolvedName = name
	}
	return resolved
}

func (a *Applicator) now() time.Time {
	if a.clock == nil {
		return time.Now().UTC()
	}
	return a.clock().UTC()
}

// rematchFeatures re-resolves an archetype snapshot's targets against a
// rebuilt base list. Stored match pointers refer to the list as it looked
// at parse time, which is stale once an earlier archetype is unwound.
func rematchFeatures(archetype domain.Archetype, base []domain.Association) domain.Archetype {
	rematched := archetype
	rematched.Features = make([]domain.ArchetypeFeature, len(archetype.Features))
	for i, feature := range archetype.Features {
		feature.Matched = nil
		if feature.Target != "" &&
			(feature.Type == domain.FeatureReplacement || feature.Type == domain.FeatureModification) {
			feature.Matched = domain.MatchTarget(feature.Target, base)
		}
		rematched.Features[i] = feature
	}
	return rematched
}
