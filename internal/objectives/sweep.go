package objectives

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatpilot/chatpilot/internal/contacts"
)

const overdueNote = "Past its target window without completion."

// SweepOverdue flags in-progress objectives that have exceeded their
// max_days window. Each objective is flagged at most once.
func (s *Service) SweepOverdue(ctx context.Context) error {
	roster, err := s.contacts.List(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, c := range roster {
		type overdue struct{ id, description string }
		var flagged []overdue
		_, err := s.contacts.UpdateInfo(ctx, c.JID, func(info *contacts.Info) error {
			for i := range info.Objectives {
				obj := &info.Objectives[i]
				if obj.Status != contacts.StatusInProgress || obj.MaxDays <= 0 {
					continue
				}
				if now.Sub(obj.CreatedAt) < time.Duration(obj.MaxDays)*24*time.Hour {
					continue
				}
				if hasNote(obj.Notes, overdueNote) {
					continue
				}
				obj.Notes = append(obj.Notes, overdueNote)
				flagged = append(flagged, overdue{obj.ID, obj.Description})
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("overdue sweep failed", slog.String("jid", c.JID), slog.Any("error", err))
			continue
		}
		for _, o := range flagged {
			s.notify.Add(ctx, c.JID, fmt.Sprintf("Objective overdue: %q", o.description))
		}
	}
	return nil
}

func hasNote(notes []string, note string) bool {
	for _, n := range notes {
		if n == note {
			return true
		}
	}
	return false
}
