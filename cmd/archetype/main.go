// Package main provides a CLI for working with a local archetype store:
// listing stored archetypes, previewing the diff an archetype would make
// against a subject's class progression, and applying or removing it.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
	"github.com/louisbranch/archetype-engine/internal/archetype/service"
	"github.com/louisbranch/archetype-engine/internal/content"
	"github.com/louisbranch/archetype-engine/internal/content/sqlite"
	"github.com/louisbranch/archetype-engine/internal/platform/config"
	"github.com/louisbranch/archetype-engine/internal/platform/errors"
	"github.com/louisbranch/archetype-engine/internal/platform/errors/i18n"
	platformotel "github.com/louisbranch/archetype-engine/internal/platform/otel"
	"github.com/louisbranch/archetype-engine/internal/telemetry"
)

// envConfig is the environment-supplied configuration.
type envConfig struct {
	DBPath string `env:"ARCHETYPE_ENGINE_DB_PATH" envDefault:"archetype-engine.db"`
}

// staticOracle answers permission checks from CLI flags.
type staticOracle struct {
	privileged bool
	owner      bool
}

func (o staticOracle) IsPrivileged(context.Context) bool    { return o.privileged }
func (o staticOracle) IsOwner(context.Context, string) bool { return o.owner }

func main() {
	var cfg envConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("Error: %v", err)
	}

	var (
		dbPath     = flag.String("db", cfg.DBPath, "path to the sqlite content store")
		list       = flag.Bool("list", false, "list stored archetypes per section")
		plan       = flag.String("plan", "", "print the diff the named archetype would make")
		apply      = flag.String("apply", "", "apply the named archetype")
		remove     = flag.String("remove", "", "remove the named archetype")
		subjectID  = flag.String("subject", "", "subject identifier")
		className  = flag.String("class-name", "", "class item display name")
		classID    = flag.String("class", "", "class item identifier")
		classTag   = flag.String("class-tag", "", "class item short tag")
		seedFile   = flag.String("seed", "", "JSON file of base associations to load for subject/class")
		privileged = flag.Bool("privileged", false, "treat the caller as privileged (GM)")
		owner      = flag.Bool("owner", true, "treat the caller as the subject's owner")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := platformotel.Setup(ctx, "archetype-cli")
	if err != nil {
		config.Exitf("Error: tracing setup: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer func() { _ = store.Close() }()

	oracle := staticOracle{privileged: *privileged, owner: *owner}
	emitter := telemetry.NewEmitter(telemetry.LogSink{}, telemetry.LogSink{})
	resolver := service.PathResolver{}
	parser := service.NewParser(resolver, nil)
	applicator := service.NewApplicator(store, oracle, resolver, emitter)

	subject := content.Subject{ID: *subjectID, Name: *subjectID}
	class := content.ClassItem{ID: *classID, Tag: *classTag, Name: *className}

	switch {
	case *seedFile != "":
		err = seedAssociations(ctx, store, subject.ID, class.ID, *seedFile)
	case *list:
		err = listArchetypes(ctx, store)
	case *plan != "":
		err = planArchetype(ctx, store, parser, subject, class, *plan)
	case *apply != "":
		err = applyArchetype(ctx, store, parser, applicator, subject, class, *apply)
	case *remove != "":
		err = removeArchetype(ctx, applicator, subject, class, *remove)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", renderError(err))
		os.Exit(1)
	}
}

// renderError prefers the user-facing message for coded engine errors and
// falls back to the raw error text.
func renderError(err error) string {
	var engineErr *errors.Error
	if !stderrors.As(err, &engineErr) {
		return err.Error()
	}
	return i18n.GetCatalog("").Format(string(engineErr.Code), engineErr.Metadata)
}

func seedAssociations(ctx context.Context, store *sqlite.Store, subjectID, classItemID, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var list []domain.Association
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}
	if err := store.PutAssociations(ctx, subjectID, classItemID, list); err != nil {
		return err
	}
	fmt.Printf("seeded %d associations for subject=%s class=%s\n", len(list), subjectID, classItemID)
	return nil
}

func listArchetypes(ctx context.Context, store *sqlite.Store) error {
	for _, section := range content.SectionPriority {
		data, err := store.ReadSection(ctx, section)
		if err != nil {
			return err
		}
		fmt.Printf("[%s]\n", section)
		for slug, record := range data {
			fmt.Printf("  %s (class: %s, features: %d)\n", slug, record.Class, len(record.Features))
		}
	}
	return nil
}

// loadArchetype locates a slug across sections and parses it against the
// subject's stored base associations.
func loadArchetype(ctx context.Context, store *sqlite.Store, parser *service.Parser, subject content.Subject, class content.ClassItem, slug string) (domain.Archetype, []domain.Association, error) {
	found, err := content.FindArchetype(ctx, store, slug)
	if stderrors.Is(err, content.ErrNotFound) {
		return domain.Archetype{}, nil, errors.WithMetadata(errors.CodeArchetypeNotFound,
			fmt.Sprintf("archetype %q not found in any section", slug),
			map[string]string{"slug": slug})
	}
	if err != nil {
		return domain.Archetype{}, nil, fmt.Errorf("find archetype %q: %w", slug, err)
	}
	base, err := store.Associations(ctx, subject.ID, class.ID)
	if err != nil {
		return domain.Archetype{}, nil, err
	}
	doc := service.ArchetypeDocFromRecord(found)
	featureDocs := service.FeatureDocsFromRecord(found.Record)
	return parser.ParseArchetype(ctx, doc, featureDocs, base)
}

func planArchetype(ctx context.Context, store *sqlite.Store, parser *service.Parser, subject content.Subject, class content.ClassItem, slug string) error {
	archetype, base, err := loadArchetype(ctx, store, parser, subject, class, slug)
	if err != nil {
		return err
	}
	diff := domain.GenerateDiff(base, archetype)
	for _, entry := range diff {
		fmt.Printf("%-10s %s (level %d)\n", entry.Status, entry.Name, entry.Level)
	}
	return nil
}

func applyArchetype(ctx context.Context, store *sqlite.Store, parser *service.Parser, applicator *service.Applicator, subject content.Subject, class content.ClassItem, slug string) error {
	archetype, base, err := loadArchetype(ctx, store, parser, subject, class, slug)
	if err != nil {
		return err
	}

	applied, err := applicator.AppliedArchetypes(ctx, subject, class)
	if err != nil {
		return err
	}
	if conflicts := service.CheckAgainstApplied(archetype, applied); len(conflicts) > 0 {
		for _, conflict := range conflicts {
			fmt.Fprintf(os.Stderr, "conflict: %s (%s/%s vs %s/%s)\n",
				conflict.FeatureName, conflict.ArchetypeA, conflict.FeatureA, conflict.ArchetypeB, conflict.FeatureB)
		}
		return fmt.Errorf("archetype %q conflicts with applied archetypes", slug)
	}

	diff := domain.GenerateDiff(base, archetype)
	ok, err := applicator.Apply(ctx, subject, class, archetype, diff)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("apply %q was rejected", slug)
	}
	fmt.Printf("applied %s to %s\n", slug, subject.ID)
	return nil
}

func removeArchetype(ctx context.Context, applicator *service.Applicator, subject content.Subject, class content.ClassItem, slug string) error {
	ok, err := applicator.Remove(ctx, subject, class, slug)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("remove %q was rejected", slug)
	}
	fmt.Printf("removed %s from %s\n", slug, subject.ID)
	return nil
}
