// Package approval holds replies awaiting human sign-off and the approved
// queue drained by the messaging client.
package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/state"
)

// Item is a computed reply parked for review. Images ride along so a batch
// picked at computation time is delivered unchanged on approval.
type Item struct {
	JID     string   `json:"jid"`
	UserMsg string   `json:"user_msg"`
	Reply   string   `json:"reply"`
	Images  []string `json:"images"`
}

// Approved is what the client poller consumes: the signed-off text plus any
// images to send ahead of it.
type Approved struct {
	JID    string   `json:"jid"`
	Reply  string   `json:"reply"`
	Images []string `json:"images"`
}

type Service struct {
	store   *state.Store
	history *history.Service
	logger  *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store, historySvc *history.Service) *Service {
	return &Service{
		store:   store,
		history: historySvc,
		logger:  log.With(slog.String("service", "approval")),
	}
}

// Pending returns the review queue in arrival order.
func (s *Service) Pending(ctx context.Context) ([]Item, error) {
	items, err := state.Get[[]Item](ctx, s.store, state.SectionPending)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Enqueue parks a computed reply for review.
func (s *Service) Enqueue(ctx context.Context, item Item) error {
	if item.Images == nil {
		item.Images = []string{}
	}
	_, err := state.Update(ctx, s.store, state.SectionPending, func(items *[]Item) error {
		*items = append(*items, item)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("reply queued for approval", slog.String("jid", item.JID))
	return nil
}

// Approve moves the item at idx to the approved queue and records the reply
// in the contact's history. An edited text, when non-empty, replaces the
// stored reply.
func (s *Service) Approve(ctx context.Context, idx int, edited string) error {
	item, err := s.take(ctx, idx)
	if err != nil {
		return err
	}
	reply := item.Reply
	if edited != "" {
		reply = edited
	}
	_, err = state.Update(ctx, s.store, state.SectionApproved, func(items *[]Approved) error {
		*items = append(*items, Approved{JID: item.JID, Reply: reply, Images: item.Images})
		return nil
	})
	if err != nil {
		return err
	}
	return s.history.Append(ctx, item.JID, history.RoleAssistant, reply)
}

// Reject drops the item at idx without delivering it.
func (s *Service) Reject(ctx context.Context, idx int) error {
	_, err := s.take(ctx, idx)
	return err
}

// Update replaces the reply text of a pending item in place, keeping its
// position and images. Used when a reply is regenerated during review.
func (s *Service) Update(ctx context.Context, idx int, reply string) error {
	_, err := state.Update(ctx, s.store, state.SectionPending, func(items *[]Item) error {
		if idx < 0 || idx >= len(*items) {
			return fmt.Errorf("no pending item at index %d", idx)
		}
		(*items)[idx].Reply = reply
		return nil
	})
	return err
}

// Drain empties and returns the approved queue. A second immediate drain
// yields an empty list.
func (s *Service) Drain(ctx context.Context) ([]Approved, error) {
	var drained []Approved
	_, err := state.Update(ctx, s.store, state.SectionApproved, func(items *[]Approved) error {
		drained = *items
		*items = []Approved{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if drained == nil {
		drained = []Approved{}
	}
	return drained, nil
}

// RemoveContact purges both queues of a removed contact's items.
func (s *Service) RemoveContact(ctx context.Context, jid string) error {
	_, err := state.Update(ctx, s.store, state.SectionPending, func(items *[]Item) error {
		kept := (*items)[:0]
		for _, it := range *items {
			if it.JID != jid {
				kept = append(kept, it)
			}
		}
		*items = kept
		return nil
	})
	if err != nil {
		return err
	}
	_, err = state.Update(ctx, s.store, state.SectionApproved, func(items *[]Approved) error {
		kept := (*items)[:0]
		for _, it := range *items {
			if it.JID != jid {
				kept = append(kept, it)
			}
		}
		*items = kept
		return nil
	})
	return err
}

func (s *Service) take(ctx context.Context, idx int) (Item, error) {
	var item Item
	_, err := state.Update(ctx, s.store, state.SectionPending, func(items *[]Item) error {
		if idx < 0 || idx >= len(*items) {
			return fmt.Errorf("no pending item at index %d", idx)
		}
		item = (*items)[idx]
		*items = append((*items)[:idx], (*items)[idx+1:]...)
		return nil
	})
	return item, err
}
