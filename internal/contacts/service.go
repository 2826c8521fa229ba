// Package contacts manages the allowed-contact roster and per-contact
// bookkeeping records.
package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/chatpilot/chatpilot/internal/state"
)

var ErrNotFound = errors.New("contact not found")

type Service struct {
	store  *state.Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store) *Service {
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "contacts")),
	}
}

// List returns the full roster.
func (s *Service) List(ctx context.Context) ([]Contact, error) {
	return state.Get[[]Contact](ctx, s.store, state.SectionContacts)
}

// Get returns a roster entry by jid.
func (s *Service) Get(ctx context.Context, jid string) (Contact, error) {
	roster, err := s.List(ctx)
	if err != nil {
		return Contact{}, err
	}
	for _, c := range roster {
		if c.JID == jid {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

// IsEnabled reports whether jid is on the roster and enabled.
func (s *Service) IsEnabled(ctx context.Context, jid string) (bool, error) {
	c, err := s.Get(ctx, jid)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Enabled, nil
}

// Add puts a new enabled contact on the roster. Adding an existing jid is a
// no-op.
func (s *Service) Add(ctx context.Context, jid string) error {
	jid = strings.TrimSpace(jid)
	if jid == "" {
		return fmt.Errorf("jid is required")
	}
	_, err := state.Update(ctx, s.store, state.SectionContacts, func(roster *[]Contact) error {
		for _, c := range *roster {
			if c.JID == jid {
				return nil
			}
		}
		*roster = append(*roster, Contact{JID: jid, Enabled: true})
		return nil
	})
	if err != nil {
		return err
	}
	return s.EnsureStructs(ctx, jid)
}

// Rename sets the display name of a roster entry.
func (s *Service) Rename(ctx context.Context, jid, name string) error {
	_, err := state.Update(ctx, s.store, state.SectionContacts, func(roster *[]Contact) error {
		for i := range *roster {
			if (*roster)[i].JID == jid {
				(*roster)[i].Name = strings.TrimSpace(name)
				break
			}
		}
		return nil
	})
	return err
}

// Toggle flips a contact's enabled flag and returns the new value.
func (s *Service) Toggle(ctx context.Context, jid string) (bool, error) {
	enabled := false
	found := false
	_, err := state.Update(ctx, s.store, state.SectionContacts, func(roster *[]Contact) error {
		for i := range *roster {
			if (*roster)[i].JID == jid {
				(*roster)[i].Enabled = !(*roster)[i].Enabled
				enabled = (*roster)[i].Enabled
				found = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrNotFound
	}
	if enabled {
		if err := s.EnsureStructs(ctx, jid); err != nil {
			return enabled, err
		}
	}
	return enabled, nil
}

// Remove deletes a contact from the roster and drops the per-contact records
// this package owns (info, missed messages). History, sent-image logs, and
// pending queue entries are cascaded by their owning services.
func (s *Service) Remove(ctx context.Context, jid string) error {
	_, err := state.Update(ctx, s.store, state.SectionContacts, func(roster *[]Contact) error {
		kept := (*roster)[:0]
		for _, c := range *roster {
			if c.JID != jid {
				kept = append(kept, c)
			}
		}
		*roster = kept
		return nil
	})
	if err != nil {
		return err
	}
	if _, err := state.Update(ctx, s.store, state.SectionContactInfo, func(doc *map[string]Info) error {
		delete(*doc, jid)
		return nil
	}); err != nil {
		return err
	}
	_, err = state.Update(ctx, s.store, state.SectionMissed, func(doc *map[string]json.RawMessage) error {
		delete(*doc, jid)
		return nil
	})
	return err
}

// EnsureStructs creates the per-contact bookkeeping record if missing.
// Unknown or off-roster jids get nothing created.
func (s *Service) EnsureStructs(ctx context.Context, jid string) error {
	known, err := s.onRoster(ctx, jid)
	if err != nil || !known {
		return err
	}
	_, err = state.Update(ctx, s.store, state.SectionContactInfo, func(doc *map[string]Info) error {
		if *doc == nil {
			*doc = map[string]Info{}
		}
		info, ok := (*doc)[jid]
		if !ok {
			info = Info{}
		}
		if info.Objectives == nil {
			info.Objectives = []Objective{}
		}
		(*doc)[jid] = info
		return nil
	})
	return err
}

// Info returns the bookkeeping record for jid (zero value if absent).
func (s *Service) Info(ctx context.Context, jid string) (Info, error) {
	doc, err := state.Get[map[string]Info](ctx, s.store, state.SectionContactInfo)
	if err != nil {
		return Info{}, err
	}
	return doc[jid], nil
}

// UpdateInfo performs a read-modify-write on a contact's bookkeeping record.
func (s *Service) UpdateInfo(ctx context.Context, jid string, fn func(info *Info) error) (Info, error) {
	var out Info
	_, err := state.Update(ctx, s.store, state.SectionContactInfo, func(doc *map[string]Info) error {
		if *doc == nil {
			*doc = map[string]Info{}
		}
		info := (*doc)[jid]
		if err := fn(&info); err != nil {
			return err
		}
		(*doc)[jid] = info
		out = info
		return nil
	})
	return out, err
}

// SetMediaDir points a contact at a media directory and snapshots its file
// listing. The directory must exist.
func (s *Service) SetMediaDir(ctx context.Context, jid, dir string) error {
	dir = strings.TrimSpace(dir)
	stat, err := os.Stat(dir)
	if err != nil || !stat.IsDir() {
		return fmt.Errorf("media dir does not exist: %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read media dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	_, err = s.UpdateInfo(ctx, jid, func(info *Info) error {
		info.MediaDir = dir
		info.MediaFiles = files
		return nil
	})
	return err
}

func (s *Service) onRoster(ctx context.Context, jid string) (bool, error) {
	roster, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range roster {
		if c.JID == jid {
			return true, nil
		}
	}
	return false, nil
}
