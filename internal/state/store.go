// Package state provides the persistent key/value state store backing all
// relay entities. Each logical section (contacts, histories, queues, ...) is
// held as a whole JSON document under its own key and rewritten in full after
// every mutation. A single mutex serializes writers; callers never touch the
// backing database directly.
package state

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Logical section names. Every entity family lives under exactly one of these.
const (
	SectionProfileFacts  = "my_profile"
	SectionPersonality   = "personality_profile"
	SectionContacts      = "allowed_contacts"
	SectionContactInfo   = "contacts_info"
	SectionSettings      = "settings"
	SectionImages        = "images"
	SectionImagesSent    = "images_sent"
	SectionHistory       = "chat_history"
	SectionProfiles      = "person_profiles"
	SectionPending       = "pending_for_approval"
	SectionApproved      = "pending_approved"
	SectionGaps          = "knowledge_gaps"
	SectionNotifications = "notifications"
	SectionMissed        = "missed_messages"
)

// ErrNoDocument is returned when a section has never been written.
var ErrNoDocument = errors.New("state: no document")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the single-writer state store.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// Open opens (or creates) the state database at path and applies migrations.
func Open(log *slog.Logger, path string) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// One writer at a time; the mutex does the real serialization, the pool
	// limit keeps sqlite from seeing interleaved connections.
	db.SetMaxOpenConns(1)

	if err := RunMigrate(log, path, "up", nil); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &Store{
		db:     db,
		logger: log.With(slog.String("component", "state")),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads the section document into out. Returns ErrNoDocument when the
// section has never been written.
func (s *Store) Get(ctx context.Context, section string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, section, out)
}

// Put overwrites the section document.
func (s *Store) Put(ctx context.Context, section string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, section, doc)
}

// Delete removes the section document entirely.
func (s *Store) Delete(ctx context.Context, section string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE name = ?`, section)
	if err != nil {
		return fmt.Errorf("delete section %s: %w", section, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, section string, out any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM state WHERE name = ?`, section).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("load section %s: %w", section, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode section %s: %w", section, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, section string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode section %s: %w", section, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state (name, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		section, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save section %s: %w", section, err)
	}
	return nil
}

// Get reads a section as T, returning the zero value when the section has
// never been written.
func Get[T any](ctx context.Context, s *Store, section string) (T, error) {
	var doc T
	err := s.Get(ctx, section, &doc)
	if errors.Is(err, ErrNoDocument) {
		return doc, nil
	}
	return doc, err
}

// Update performs a locked read-modify-write of a section. fn receives the
// current document (zero value if absent); the document is rewritten in full
// when fn returns nil.
func Update[T any](ctx context.Context, s *Store, section string, fn func(doc *T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc T
	if err := s.load(ctx, section, &doc); err != nil && !errors.Is(err, ErrNoDocument) {
		return doc, err
	}
	if err := fn(&doc); err != nil {
		return doc, err
	}
	if err := s.save(ctx, section, doc); err != nil {
		return doc, err
	}
	return doc, nil
}
