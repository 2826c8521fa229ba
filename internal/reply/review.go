package reply

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatpilot/chatpilot/internal/language"
	"github.com/chatpilot/chatpilot/internal/llm"
)

// RegeneratePending rewrites the pending reply at idx following the
// reviewer's instruction, keeping its queue position and attached images.
func (e *Engine) RegeneratePending(ctx context.Context, idx int, instruction string) error {
	items, err := e.approval.Pending(ctx)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(items) {
		return fmt.Errorf("no pending item at index %d", idx)
	}
	item := items[idx]

	system, err := e.systemPrompt(ctx, item.JID, false)
	if err != nil {
		return err
	}
	text, err := e.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: item.UserMsg},
			{Role: "user", Content: "Regenerate the reply with this guidance: " + instruction},
		},
		Temperature: 0.7,
		MaxTokens:   150,
		TopP:        0.9,
	})
	if err != nil {
		return err
	}
	return e.approval.Update(ctx, idx, text)
}

// FillGap records an answer to a knowledge gap on the persona (facts or
// personality, per target), resolves the gap, and regenerates any pending
// replies that were blocked on missing information.
func (e *Engine) FillGap(ctx context.Context, key, value, target string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return fmt.Errorf("gap key and value are required")
	}
	entry := key + ": " + value
	if target == "personality" {
		if err := e.persona.AddTrait(ctx, entry); err != nil {
			return err
		}
	} else {
		if err := e.persona.AddFact(ctx, entry); err != nil {
			return err
		}
	}
	e.notify.Add(ctx, "system", fmt.Sprintf("Knowledge gap filled: %q", key))
	if err := e.persona.ResolveGap(ctx, key); err != nil {
		return err
	}
	return e.refillBlockedPending(ctx, key)
}

// refillBlockedPending regenerates pending replies still carrying a
// missing-info placeholder, now that more facts are known.
func (e *Engine) refillBlockedPending(ctx context.Context, gapKey string) error {
	items, err := e.approval.Pending(ctx)
	if err != nil {
		return err
	}
	replies := make(map[int]string)
	for i, item := range items {
		if !strings.Contains(item.Reply, "Missing info") && !strings.Contains(item.Reply, needInfoPrefix) {
			continue
		}
		text, err := e.regenerateBlocked(ctx, item.JID, item.UserMsg)
		if err != nil {
			e.logger.Warn("gap refill regeneration failed",
				slog.String("jid", item.JID), slog.Any("error", err))
			text = fmt.Sprintf("(Could not regenerate reply, but the fact about %s was saved.)", gapKey)
		}
		replies[i] = text
	}
	for i, text := range replies {
		if err := e.approval.Update(ctx, i, text); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) regenerateBlocked(ctx context.Context, jid, userMsg string) (string, error) {
	system, err := e.systemPrompt(ctx, jid, false)
	if err != nil {
		return "", err
	}
	draft, err := e.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: "(Reply in English only)\n\n" + userMsg},
		},
		Temperature: 0.7,
		MaxTokens:   150,
		TopP:        0.9,
	})
	if err != nil {
		return "", err
	}
	if lang := language.Detect(userMsg); lang != language.English {
		draft, err = e.translate(ctx, lang, draft)
		if err != nil {
			return "", err
		}
	}
	return e.humanized(ctx, jid, userMsg, draft), nil
}
