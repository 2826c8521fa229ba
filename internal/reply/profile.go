package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatpilot/chatpilot/internal/llm"
	"github.com/chatpilot/chatpilot/internal/persona"
)

const profileAnalystPrompt = `You are a profile analyst AI. Your job is to refine a contact's profile based on recent conversation.
Analyze the provided transcript and update the existing 'info' and 'style' sections.

**RULES:**
1.  **Refine, Don't Replace:** Integrate new learnings into the existing text. Do not remove existing user-written notes unless they are explicitly contradicted in the conversation.
2.  **'Info' is for Facts:** Extract concrete, objective facts about the person (e.g., job, family, plans, preferences).
3.  **'Style' is for Communication:** Analyze their linguistic style (e.g., formality, emoji use, sentence length, common phrases, tone).
4.  **Output JSON:** Respond ONLY with a valid JSON object with two keys: "updated_info" and "updated_style".

**EXISTING INFO:**
---
%s
---

**EXISTING STYLE:**
---
%s
---

**RECENT CONVERSATION TRANSCRIPT:**
---
%s
---

Now, provide the complete, updated profile sections in a single JSON object.`

// RefreshContactProfile asks the backend to fold the last forty turns into
// the contact's learned info and style. No transcript means no update.
func (e *Engine) RefreshContactProfile(ctx context.Context, jid string) error {
	transcript, err := e.history.Transcript(ctx, jid, 40)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		e.logger.Debug("no transcript, skipping profile refresh", slog.String("jid", jid))
		return nil
	}
	profile, err := e.persona.Profile(ctx, jid)
	if err != nil {
		return err
	}

	raw, err := e.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: fmt.Sprintf(profileAnalystPrompt, profile.Info, profile.Style, transcript)},
		},
		Temperature: 0.4,
		MaxTokens:   500,
	})
	if err != nil {
		return err
	}

	var updates struct {
		UpdatedInfo  *string `json:"updated_info"`
		UpdatedStyle *string `json:"updated_style"`
	}
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		return fmt.Errorf("parse profile update: %w", err)
	}

	_, err = e.persona.UpdateProfile(ctx, jid, func(p *persona.Profile) error {
		if updates.UpdatedInfo != nil && *updates.UpdatedInfo != p.Info {
			p.Info = *updates.UpdatedInfo
			e.notify.Add(ctx, jid, "Profile 'info' updated automatically from conversation.")
		}
		if updates.UpdatedStyle != nil && *updates.UpdatedStyle != p.Style {
			p.Style = *updates.UpdatedStyle
			e.notify.Add(ctx, jid, "Profile 'style' updated automatically from conversation.")
		}
		return nil
	})
	return err
}

// Summarize produces (and stores) a short relationship summary for a contact.
func (e *Engine) Summarize(ctx context.Context, jid string) (string, error) {
	transcript, err := e.history.Transcript(ctx, jid, 40)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("no conversation to summarize")
	}
	summary, err := e.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "Summarize the relationship and recent topics in this conversation in 3-4 sentences. Be concrete."},
			{Role: "user", Content: transcript},
		},
		Temperature: 0.4,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}
	if err := e.persona.SetSummary(ctx, jid, summary); err != nil {
		return "", err
	}
	return summary, nil
}
