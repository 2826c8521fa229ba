// Package persona manages the operator's profile facts, personality traits,
// per-contact profiles, and recorded knowledge gaps.
package persona

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chatpilot/chatpilot/internal/state"
)

type Service struct {
	store  *state.Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store *state.Store) *Service {
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "persona")),
	}
}

// --- operator facts ---

func (s *Service) Facts(ctx context.Context) ([]string, error) {
	return state.Get[[]string](ctx, s.store, state.SectionProfileFacts)
}

func (s *Service) AddFact(ctx context.Context, fact string) error {
	return s.appendEntry(ctx, state.SectionProfileFacts, fact)
}

func (s *Service) UpdateFact(ctx context.Context, idx int, fact string) error {
	return s.replaceEntry(ctx, state.SectionProfileFacts, idx, fact)
}

func (s *Service) RemoveFact(ctx context.Context, idx int) error {
	return s.removeEntry(ctx, state.SectionProfileFacts, idx)
}

// --- personality traits ---

func (s *Service) Traits(ctx context.Context) ([]string, error) {
	return state.Get[[]string](ctx, s.store, state.SectionPersonality)
}

func (s *Service) AddTrait(ctx context.Context, trait string) error {
	return s.appendEntry(ctx, state.SectionPersonality, trait)
}

func (s *Service) UpdateTrait(ctx context.Context, idx int, trait string) error {
	return s.replaceEntry(ctx, state.SectionPersonality, idx, trait)
}

func (s *Service) RemoveTrait(ctx context.Context, idx int) error {
	return s.removeEntry(ctx, state.SectionPersonality, idx)
}

// --- per-contact profiles ---

func (s *Service) Profile(ctx context.Context, jid string) (Profile, error) {
	doc, err := state.Get[map[string]Profile](ctx, s.store, state.SectionProfiles)
	if err != nil {
		return Profile{}, err
	}
	return doc[jid], nil
}

// UpdateProfile performs a read-modify-write on a contact's profile.
func (s *Service) UpdateProfile(ctx context.Context, jid string, fn func(p *Profile) error) (Profile, error) {
	var out Profile
	_, err := state.Update(ctx, s.store, state.SectionProfiles, func(doc *map[string]Profile) error {
		if *doc == nil {
			*doc = map[string]Profile{}
		}
		p := (*doc)[jid]
		if err := fn(&p); err != nil {
			return err
		}
		(*doc)[jid] = p
		out = p
		return nil
	})
	return out, err
}

func (s *Service) SetInfo(ctx context.Context, jid, info string) error {
	_, err := s.UpdateProfile(ctx, jid, func(p *Profile) error {
		p.Info = strings.TrimSpace(info)
		return nil
	})
	return err
}

func (s *Service) SetStyle(ctx context.Context, jid, style string) error {
	_, err := s.UpdateProfile(ctx, jid, func(p *Profile) error {
		p.Style = strings.TrimSpace(style)
		return nil
	})
	return err
}

func (s *Service) SetSummary(ctx context.Context, jid, summary string) error {
	_, err := s.UpdateProfile(ctx, jid, func(p *Profile) error {
		p.Summary = summary
		p.LastSummarized = time.Now().UTC()
		return nil
	})
	return err
}

// RemoveProfile drops a contact's profile (cascade on contact removal).
func (s *Service) RemoveProfile(ctx context.Context, jid string) error {
	_, err := state.Update(ctx, s.store, state.SectionProfiles, func(doc *map[string]Profile) error {
		delete(*doc, jid)
		return nil
	})
	return err
}

// --- knowledge gaps ---

func (s *Service) Gaps(ctx context.Context) ([]string, error) {
	return state.Get[[]string](ctx, s.store, state.SectionGaps)
}

// RecordGap notes a topic the generation backend flagged as missing.
func (s *Service) RecordGap(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	_, err := state.Update(ctx, s.store, state.SectionGaps, func(doc *[]string) error {
		for _, g := range *doc {
			if g == topic {
				return nil
			}
		}
		*doc = append(*doc, topic)
		return nil
	})
	return err
}

// ResolveGap removes a topic from the gap list.
func (s *Service) ResolveGap(ctx context.Context, topic string) error {
	_, err := state.Update(ctx, s.store, state.SectionGaps, func(doc *[]string) error {
		kept := (*doc)[:0]
		for _, g := range *doc {
			if g != topic {
				kept = append(kept, g)
			}
		}
		*doc = kept
		return nil
	})
	return err
}

// --- list helpers ---

func (s *Service) appendEntry(ctx context.Context, section, entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("entry is required")
	}
	_, err := state.Update(ctx, s.store, section, func(doc *[]string) error {
		*doc = append(*doc, entry)
		return nil
	})
	return err
}

func (s *Service) replaceEntry(ctx context.Context, section string, idx int, entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("entry is required")
	}
	_, err := state.Update(ctx, s.store, section, func(doc *[]string) error {
		if idx < 0 || idx >= len(*doc) {
			return fmt.Errorf("index out of range: %d", idx)
		}
		(*doc)[idx] = entry
		return nil
	})
	return err
}

func (s *Service) removeEntry(ctx context.Context, section string, idx int) error {
	_, err := state.Update(ctx, s.store, section, func(doc *[]string) error {
		if idx < 0 || idx >= len(*doc) {
			return fmt.Errorf("index out of range: %d", idx)
		}
		*doc = append((*doc)[:idx], (*doc)[idx+1:]...)
		return nil
	})
	return err
}
