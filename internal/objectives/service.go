// Package objectives manages per-contact conversational goals: creation with
// a generated strategy, manual completion, deletion, and the progress
// tracker advanced on answered messages.
package objectives

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/llm"
	"github.com/chatpilot/chatpilot/internal/notify"
)

// A new objective needs between 3 and 6 detected occurrences to complete.
const (
	minOccurrences = 3
	maxOccurrences = 6
)

type Service struct {
	contacts *contacts.Service
	backend  llm.Completer
	notify   *notify.Service
	logger   *slog.Logger
	rng      *rand.Rand
}

func NewService(log *slog.Logger, contactSvc *contacts.Service, backend llm.Completer, notifySvc *notify.Service) *Service {
	return &Service{
		contacts: contactSvc,
		backend:  backend,
		notify:   notifySvc,
		logger:   log.With(slog.String("service", "objectives")),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRequest describes a new objective.
type CreateRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	MinDays     int    `json:"min_days"`
	MaxDays     int    `json:"max_days"`
}

// Create synthesizes a strategy via the generation backend and installs the
// objective on the contact.
func (s *Service) Create(ctx context.Context, jid string, req CreateRequest) (contacts.Objective, error) {
	objType := strings.ToLower(strings.TrimSpace(req.Type))
	if objType != contacts.ObjectiveLinguistic && objType != contacts.ObjectiveBehavioral {
		objType = contacts.ObjectiveLinguistic
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return contacts.Objective{}, fmt.Errorf("description is required")
	}
	minDays, maxDays := req.MinDays, req.MaxDays
	if minDays <= 0 {
		minDays = 7
	}
	if maxDays < minDays {
		maxDays = 14
	}

	strategy, err := s.generateStrategy(ctx, objType, description, minDays, maxDays)
	if err != nil {
		return contacts.Objective{}, fmt.Errorf("generate strategy: %w", err)
	}

	obj := contacts.Objective{
		ID:                uuid.NewString(),
		Type:              objType,
		Description:       description,
		Status:            contacts.StatusInProgress,
		Progress:          0,
		OccurrencesNeeded: minOccurrences + s.rng.Intn(maxOccurrences-minOccurrences+1),
		Strategy:          strategy,
		Notes:             []string{},
		MinDays:           minDays,
		MaxDays:           maxDays,
		CreatedAt:         time.Now().UTC(),
	}

	_, err = s.contacts.UpdateInfo(ctx, jid, func(info *contacts.Info) error {
		info.Objectives = append(info.Objectives, obj)
		return nil
	})
	if err != nil {
		return contacts.Objective{}, err
	}

	s.notify.Add(ctx, jid, fmt.Sprintf("New %s objective added: %s", objType, description))
	return obj, nil
}

// Complete manually marks an objective done. Already-completed objectives
// stay completed.
func (s *Service) Complete(ctx context.Context, jid, id string) error {
	var description string
	_, err := s.contacts.UpdateInfo(ctx, jid, func(info *contacts.Info) error {
		for i := range info.Objectives {
			obj := &info.Objectives[i]
			if obj.ID != id {
				continue
			}
			if obj.Status != contacts.StatusCompleted {
				obj.Status = contacts.StatusCompleted
				obj.Notes = append(obj.Notes, "Manually marked complete by user.")
				description = obj.Description
			}
			return nil
		}
		return fmt.Errorf("objective not found: %s", id)
	})
	if err != nil {
		return err
	}
	if description != "" {
		s.notify.Add(ctx, jid, fmt.Sprintf("Objective completed for %s: %q", jid, description))
	}
	return nil
}

// Delete removes an objective.
func (s *Service) Delete(ctx context.Context, jid, id string) error {
	_, err := s.contacts.UpdateInfo(ctx, jid, func(info *contacts.Info) error {
		kept := info.Objectives[:0]
		for _, obj := range info.Objectives {
			if obj.ID != id {
				kept = append(kept, obj)
			}
		}
		info.Objectives = kept
		return nil
	})
	if err != nil {
		return err
	}
	s.notify.Add(ctx, jid, fmt.Sprintf("Objective deleted for %s", jid))
	return nil
}

// Track evaluates every in-progress objective against an answered inbound
// message and records progress. Completed objectives are never revisited.
func (s *Service) Track(ctx context.Context, jid, msg string) error {
	info, err := s.contacts.Info(ctx, jid)
	if err != nil {
		return err
	}

	// Backend calls happen outside the store lock; decisions are collected
	// first, then applied in one read-modify-write.
	progressed := map[string]string{} // id -> note
	for _, obj := range info.Objectives {
		if obj.Status != contacts.StatusInProgress {
			continue
		}
		switch obj.Type {
		case contacts.ObjectiveLinguistic:
			if matchesKeyTerm(obj.Description, msg) {
				progressed[obj.ID] = fmt.Sprintf("Matched linguistic cue in message: %q", msg)
			}
		case contacts.ObjectiveBehavioral:
			ok, err := s.detectBehavioralProgress(ctx, obj.Description, msg)
			if err != nil {
				s.logger.Warn("behavioral progress check failed",
					slog.String("jid", jid), slog.Any("error", err))
				continue
			}
			if ok {
				progressed[obj.ID] = fmt.Sprintf("Behavioral cue detected in message: %q", msg)
			}
		}
	}
	if len(progressed) == 0 {
		return nil
	}

	var completed []string
	_, err = s.contacts.UpdateInfo(ctx, jid, func(info *contacts.Info) error {
		for i := range info.Objectives {
			obj := &info.Objectives[i]
			note, ok := progressed[obj.ID]
			if !ok || obj.Status != contacts.StatusInProgress {
				continue
			}
			obj.Progress++
			obj.Notes = append(obj.Notes, note)
			if obj.Progress >= obj.OccurrencesNeeded {
				obj.Status = contacts.StatusCompleted
				completed = append(completed, obj.Description)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, description := range completed {
		s.notify.Add(ctx, jid, fmt.Sprintf("Objective completed: %q", description))
	}
	return nil
}

// matchesKeyTerm reports whether any description word longer than three
// characters appears in the message, case-insensitively.
func matchesKeyTerm(description, msg string) bool {
	lowerMsg := strings.ToLower(msg)
	for _, w := range strings.Fields(description) {
		term := strings.ToLower(strings.TrimSpace(w))
		if len(term) > 3 && strings.Contains(lowerMsg, term) {
			return true
		}
	}
	return false
}

func (s *Service) detectBehavioralProgress(ctx context.Context, description, msg string) (bool, error) {
	answer, err := s.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a precise behavior progress detector."},
			{Role: "user", Content: fmt.Sprintf(
				"Objective: %s\nMessage: %s\nDoes this message show progress? Reply only 'yes' or 'no'.",
				description, msg)},
		},
		Temperature: 0.1,
		MaxTokens:   3,
	})
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(answer), "yes"), nil
}

func (s *Service) generateStrategy(ctx context.Context, objType, description string, minDays, maxDays int) (string, error) {
	var prompt string
	if objType == contacts.ObjectiveLinguistic {
		prompt = fmt.Sprintf(
			"Create a conversational strategy to achieve this linguistic goal: '%s'. "+
				"The goal should be achieved gradually within %d-%d days. "+
				"Focus on natural repetition and emotional tone. Write 2-3 sentences.",
			description, minDays, maxDays)
	} else {
		prompt = fmt.Sprintf(
			"Create a conversational strategy to achieve this behavioral goal: '%s'. "+
				"Focus on influencing behavior or attitude change over %d-%d days. "+
				"Keep it subtle and emotionally intelligent. Write 2-3 sentences.",
			description, minDays, maxDays)
	}
	return s.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "You are an expert in subtle conversational influence and relationship psychology."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   120,
	})
}
