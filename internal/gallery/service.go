// Package gallery manages the shared image pool and each contact's
// exhaustion cursor over it.
package gallery

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/chatpilot/chatpilot/internal/state"
)

// BatchSize is the number of images handed out per request.
const BatchSize = 2

type Service struct {
	store     *state.Store
	imagesDir string
	logger    *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store, imagesDir string) *Service {
	return &Service{
		store:     store,
		imagesDir: imagesDir,
		logger:    log.With(slog.String("service", "gallery")),
	}
}

// Refresh re-enumerates the image pool from the filesystem in lexicographic
// order and persists the snapshot. A missing directory yields an empty pool.
func (s *Service) Refresh(ctx context.Context) ([]string, error) {
	var names []string
	entries, err := os.ReadDir(s.imagesDir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
	}
	if names == nil {
		names = []string{}
	}
	if err := s.store.Put(ctx, state.SectionImages, names); err != nil {
		return nil, err
	}
	return names, nil
}

// Pool returns the last persisted pool snapshot.
func (s *Service) Pool(ctx context.Context) ([]string, error) {
	return state.Get[[]string](ctx, s.store, state.SectionImages)
}

// Sent returns the identifiers already delivered to jid.
func (s *Service) Sent(ctx context.Context, jid string) ([]string, error) {
	doc, err := state.Get[map[string][]string](ctx, s.store, state.SectionImagesSent)
	if err != nil {
		return nil, err
	}
	return doc[jid], nil
}

// HasReceived reports whether jid has been sent any images.
func (s *Service) HasReceived(ctx context.Context, jid string) (bool, error) {
	sent, err := s.Sent(ctx, jid)
	if err != nil {
		return false, err
	}
	return len(sent) > 0, nil
}

// NextBatch returns up to BatchSize pool images not yet in jid's sent log,
// in pool order. It does not mark them sent; commit happens at delivery.
func (s *Service) NextBatch(ctx context.Context, jid string) ([]string, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	sent, err := s.Sent(ctx, jid)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(sent))
	for _, id := range sent {
		seen[id] = struct{}{}
	}
	batch := make([]string, 0, BatchSize)
	for _, id := range pool {
		if _, ok := seen[id]; ok {
			continue
		}
		batch = append(batch, id)
		if len(batch) == BatchSize {
			break
		}
	}
	return batch, nil
}

// MarkSent commits delivered identifiers to jid's sent log.
func (s *Service) MarkSent(ctx context.Context, jid string, images []string) error {
	if len(images) == 0 {
		return nil
	}
	_, err := state.Update(ctx, s.store, state.SectionImagesSent, func(doc *map[string][]string) error {
		if *doc == nil {
			*doc = map[string][]string{}
		}
		(*doc)[jid] = append((*doc)[jid], images...)
		return nil
	})
	return err
}

// ResetSent clears jid's sent log so the pool replays from the top.
func (s *Service) ResetSent(ctx context.Context, jid string) error {
	_, err := state.Update(ctx, s.store, state.SectionImagesSent, func(doc *map[string][]string) error {
		if *doc == nil {
			*doc = map[string][]string{}
		}
		(*doc)[jid] = []string{}
		return nil
	})
	return err
}

// RemoveContact drops jid's sent log entirely (cascade on contact removal).
func (s *Service) RemoveContact(ctx context.Context, jid string) error {
	_, err := state.Update(ctx, s.store, state.SectionImagesSent, func(doc *map[string][]string) error {
		delete(*doc, jid)
		return nil
	})
	return err
}
