// Package sqlite provides a SQLite-backed content store implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/archetype-engine/internal/archetype/domain"
	"github.com/louisbranch/archetype-engine/internal/content"
	"github.com/louisbranch/archetype-engine/internal/content/sqlite/migrations"
	"github.com/louisbranch/archetype-engine/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/archetype-engine/internal/platform/storage/sqlitemigrate"
)

// Store persists archetype content and subject class state in SQLite.
type Store struct {
	sqlDB *sql.DB
	warn  func(format string, args ...any)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite content store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, warn: log.Printf}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SetWarnFunc overrides the corruption-warning sink.
func (s *Store) SetWarnFunc(warn func(format string, args ...any)) {
	if s != nil && warn != nil {
		s.warn = warn
	}
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// ReadSection returns the decoded section payload. A payload that does not
// decode to a JSON object is reset to {} in place with a warning and an
// empty result; corruption is never a returned error.
func (s *Store) ReadSection(ctx context.Context, section content.Section) (content.SectionData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !section.Known() {
		return nil, fmt.Errorf("%w: %q", content.ErrUnknownSection, section)
	}

	var payload string
	row := s.sqlDB.QueryRowContext(ctx, "SELECT payload FROM content_sections WHERE section = ?", string(section))
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return content.SectionData{}, nil
		}
		return nil, fmt.Errorf("read section %s: %w", section, err)
	}

	data := content.SectionData{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		if resetErr := s.resetSection(ctx, section); resetErr != nil {
			return nil, fmt.Errorf("reset corrupt section %s: %w", section, resetErr)
		}
		s.warn("content section reset after corrupt payload section=%s err=%v", section, err)
		return content.SectionData{}, nil
	}
	return data, nil
}

func (s *Store) resetSection(ctx context.Context, section content.Section) error {
	_, err := s.sqlDB.ExecContext(ctx,
		"UPDATE content_sections SET payload = ?, updated_at = ? WHERE section = ?",
		"{}", toMillis(time.Now()), string(section))
	return err
}

// WriteSection replaces a section's payload wholesale. Non-privileged
// writes to GM-only sections are rejected with no mutation.
func (s *Store) WriteSection(ctx context.Context, section content.Section, data content.SectionData, privileged bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
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

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO content_sections (section, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(section) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`, string(section), string(payload), toMillis(time.Now())); err != nil {
		return false, fmt.Errorf("write section %s: %w", section, err)
	}
	return true, nil
}

// SetArchetype upserts one archetype record within a section.
func (s *Store) SetArchetype(ctx context.Context, section content.Section, slug string, record content.ArchetypeRecord, privileged bool) (bool, error) {
	if section.GMOnly() && !privileged {
		return false, errors.WithMetadata(errors.CodeSectionWriteDenied,
			fmt.Sprintf("section %q accepts writes from privileged callers only", section),
			map[string]string{"section": string(section)})
	}
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
	if section.GMOnly() && !privileged {
		return false, errors.WithMetadata(errors.CodeSectionWriteDenied,
			fmt.Sprintf("section %q accepts writes from privileged callers only", section),
			map[string]string{"section": string(section)})
	}
	data, err := s.ReadSection(ctx, section)
	if err != nil {
		return false, err
	}
	if _, ok := data[slug]; !ok {
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
	if err := s.ready(); err != nil {
		return nil, err
	}

	var payload string
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT payload FROM subject_associations WHERE subject_id = ? AND class_item_id = ?",
		subjectID, classItemID)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read associations: %w", err)
	}
	var list []domain.Association
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		return nil, fmt.Errorf("decode associations: %w", err)
	}
	return list, nil
}

// PutAssociations replaces the stored association list for one class item.
func (s *Store) PutAssociations(ctx context.Context, subjectID, classItemID string, list []domain.Association) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode associations: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO subject_associations (subject_id, class_item_id, payload, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(subject_id, class_item_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`, subjectID, classItemID, string(payload), toMillis(time.Now())); err != nil {
		return fmt.Errorf("write associations: %w", err)
	}
	return nil
}

// AppliedState returns the engine's applied-state record, or
// content.ErrNotFound when no archetype is applied.
func (s *Store) AppliedState(ctx context.Context, subjectID, classItemID string) (content.AppliedState, error) {
	if err := ctx.Err(); err != nil {
		return content.AppliedState{}, err
	}
	if err := s.ready(); err != nil {
		return content.AppliedState{}, err
	}

	var payload string
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT payload FROM applied_states WHERE subject_id = ? AND class_item_id = ?",
		subjectID, classItemID)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return content.AppliedState{}, content.ErrNotFound
		}
		return content.AppliedState{}, fmt.Errorf("read applied state: %w", err)
	}
	var state content.AppliedState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return content.AppliedState{}, fmt.Errorf("decode applied state: %w", err)
	}
	return state, nil
}

// PutAppliedState stores the applied-state record.
func (s *Store) PutAppliedState(ctx context.Context, subjectID, classItemID string, state content.AppliedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode applied state: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO applied_states (subject_id, class_item_id, payload, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(subject_id, class_item_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`, subjectID, classItemID, string(payload), toMillis(time.Now())); err != nil {
		return fmt.Errorf("write applied state: %w", err)
	}
	return nil
}

// DeleteAppliedState removes the applied-state record entirely.
func (s *Store) DeleteAppliedState(ctx context.Context, subjectID, classItemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM applied_states WHERE subject_id = ? AND class_item_id = ?",
		subjectID, classItemID); err != nil {
		return fmt.Errorf("delete applied state: %w", err)
	}
	return nil
}

// SlugIndex returns the applied-slug index for one subject and class tag.
func (s *Store) SlugIndex(ctx context.Context, subjectID, classTag string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	var payload string
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT payload FROM archetype_slug_index WHERE subject_id = ? AND class_tag = ?",
		subjectID, classTag)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read slug index: %w", err)
	}
	var slugs []string
	if err := json.Unmarshal([]byte(payload), &slugs); err != nil {
		return nil, fmt.Errorf("decode slug index: %w", err)
	}
	return slugs, nil
}

// PutSlugIndex replaces the applied-slug index for one subject and class
// tag. An empty list deletes the index row.
func (s *Store) PutSlugIndex(ctx context.Context, subjectID, classTag string, slugs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if len(slugs) == 0 {
		if _, err := s.sqlDB.ExecContext(ctx,
			"DELETE FROM archetype_slug_index WHERE subject_id = ? AND class_tag = ?",
			subjectID, classTag); err != nil {
			return fmt.Errorf("clear slug index: %w", err)
		}
		return nil
	}
	payload, err := json.Marshal(slugs)
	if err != nil {
		return fmt.Errorf("encode slug index: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO archetype_slug_index (subject_id, class_tag, payload, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(subject_id, class_tag) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`, subjectID, classTag, string(payload), toMillis(time.Now())); err != nil {
		return fmt.Errorf("write slug index: %w", err)
	}
	return nil
}
