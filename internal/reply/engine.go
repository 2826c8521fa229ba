// Package reply routes inbound messages through the rule cascade, the
// generation fallback, and the approval gate.
package reply

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatpilot/chatpilot/internal/approval"
	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/humanize"
	"github.com/chatpilot/chatpilot/internal/language"
	"github.com/chatpilot/chatpilot/internal/llm"
	"github.com/chatpilot/chatpilot/internal/notify"
	"github.com/chatpilot/chatpilot/internal/objectives"
	"github.com/chatpilot/chatpilot/internal/persona"
	"github.com/chatpilot/chatpilot/internal/rules"
	"github.com/chatpilot/chatpilot/internal/settings"
)

const (
	needInfoPrefix = "[NEED_INFO:"
	// Contact profiles are refreshed after this many processed messages.
	profileRefreshEvery = 20
)

// Response is what the messaging client receives. An empty Reply means
// nothing should be sent (unknown contact, empty input, or queued for
// approval).
type Response struct {
	Reply  string   `json:"reply"`
	Images []string `json:"images,omitempty"`
}

type Engine struct {
	contacts    *contacts.Service
	history     *history.Service
	settings    *settings.Service
	persona     *persona.Service
	gallery     *gallery.Service
	approval    *approval.Service
	objectives  *objectives.Service
	notify      *notify.Service
	cascade     *rules.Cascade
	backend     llm.Completer
	rewriter    *humanize.Rewriter
	personaName string
	systemBase  string
	logger      *slog.Logger
}

type Deps struct {
	Contacts   *contacts.Service
	History    *history.Service
	Settings   *settings.Service
	Persona    *persona.Service
	Gallery    *gallery.Service
	Approval   *approval.Service
	Objectives *objectives.Service
	Notify     *notify.Service
	Cascade    *rules.Cascade
	Backend    llm.Completer
	Rewriter   *humanize.Rewriter
}

// NewEngine builds the router. systemBase overrides the default persona
// instructions when non-empty.
func NewEngine(log *slog.Logger, personaName, systemBase string, d Deps) *Engine {
	return &Engine{
		contacts:    d.Contacts,
		history:     d.History,
		settings:    d.Settings,
		persona:     d.Persona,
		gallery:     d.Gallery,
		approval:    d.Approval,
		objectives:  d.Objectives,
		notify:      d.Notify,
		cascade:     d.Cascade,
		backend:     d.Backend,
		rewriter:    d.Rewriter,
		personaName: personaName,
		systemBase:  systemBase,
		logger:      log.With(slog.String("service", "reply")),
	}
}

// Reply handles one inbound message end to end. Unknown or disabled senders
// get an empty response with no state touched.
func (e *Engine) Reply(ctx context.Context, jid, msg string) (Response, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return Response{Reply: ""}, nil
	}
	enabled, err := e.contacts.IsEnabled(ctx, jid)
	if err != nil {
		return Response{}, err
	}
	if !enabled {
		e.logger.Debug("ignoring message from unknown or disabled contact", slog.String("jid", jid))
		return Response{Reply: ""}, nil
	}
	if err := e.contacts.EnsureStructs(ctx, jid); err != nil {
		return Response{}, err
	}
	if _, err := e.gallery.Refresh(ctx); err != nil {
		return Response{}, err
	}

	// The user turn is logged before any routing so even failed generations
	// leave the conversation record intact.
	if err := e.history.Append(ctx, jid, history.RoleUser, msg); err != nil {
		return Response{}, err
	}

	outcome, err := e.cascade.Evaluate(ctx, jid, msg)
	if err != nil {
		return Response{}, err
	}

	var reply string
	var images []string
	if outcome != nil {
		reply = outcome.Reply
		images = outcome.Images
	} else {
		reply, err = e.generate(ctx, jid, msg)
		if err != nil {
			return Response{}, err
		}
	}
	if reply == "" {
		return Response{Reply: ""}, nil
	}

	cfg, err := e.settings.Get(ctx)
	if err != nil {
		return Response{}, err
	}
	if cfg.ApprovalEnabled {
		err := e.approval.Enqueue(ctx, approval.Item{
			JID: jid, UserMsg: msg, Reply: reply, Images: images,
		})
		if err != nil {
			return Response{}, err
		}
		return Response{Reply: ""}, nil
	}

	if err := e.history.Append(ctx, jid, history.RoleAssistant, reply); err != nil {
		return Response{}, err
	}
	if err := e.gallery.MarkSent(ctx, jid, images); err != nil {
		return Response{}, err
	}
	if err := e.objectives.Track(ctx, jid, msg); err != nil {
		e.logger.Warn("objective tracking failed", slog.String("jid", jid), slog.Any("error", err))
	}
	e.bumpProfileCounter(ctx, jid)

	return Response{Reply: reply, Images: images}, nil
}

// generate runs the model fallback: an English draft, a gap check, an
// optional translation pass, then the humanizer.
func (e *Engine) generate(ctx context.Context, jid, msg string) (string, error) {
	system, err := e.systemPrompt(ctx, jid, true)
	if err != nil {
		return "", err
	}
	lang := language.Detect(msg)

	draft, err := e.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: "(Reply in English only)\n\n" + msg},
		},
		Temperature: 0.7,
		MaxTokens:   150,
		TopP:        0.9,
	})
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(draft, needInfoPrefix) {
		topic := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(draft, needInfoPrefix), "]"))
		if err := e.persona.RecordGap(ctx, topic); err != nil {
			return "", err
		}
		return fmt.Sprintf("(⚠️ Missing info: %s)", topic), nil
	}

	if lang != language.English {
		draft, err = e.translate(ctx, lang, draft)
		if err != nil {
			return "", err
		}
	}
	return e.humanized(ctx, jid, msg, draft), nil
}

func (e *Engine) translate(ctx context.Context, lang, text string) (string, error) {
	return e.backend.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "Translate naturally, keep tone conversational."},
			{Role: "user", Content: fmt.Sprintf("Translate to natural %s:\n\n%s", strings.ToUpper(lang), text)},
		},
		Temperature: 0.7,
		MaxTokens:   200,
		TopP:        0.9,
	})
}

func (e *Engine) humanized(ctx context.Context, jid, userMsg, draft string) string {
	var recent []string
	if msgs, err := e.history.Tail(ctx, jid, 10); err == nil {
		for _, m := range msgs {
			if m.Role == history.RoleUser {
				recent = append(recent, m.Content)
			}
		}
	}
	return e.rewriter.Rewrite(userMsg, draft, recent)
}

// systemPrompt assembles the persona context: global facts and traits, the
// contact's learned info and style when requested, and the last ten turns.
func (e *Engine) systemPrompt(ctx context.Context, jid string, contactProfile bool) (string, error) {
	var b strings.Builder
	if e.systemBase != "" {
		b.WriteString(e.systemBase)
	} else {
		b.WriteString(fmt.Sprintf(
			"You are %s, chatting casually and warmly as yourself. Stay in character. "+
				"If asked a personal question you have no recorded fact for, reply with exactly "+
				"[NEED_INFO: topic] and nothing else.", e.personaName))
	}

	facts, err := e.persona.Facts(ctx)
	if err != nil {
		return "", err
	}
	if len(facts) > 0 {
		b.WriteString(fmt.Sprintf("\n\nFacts about %s:\n", e.personaName))
		for _, f := range facts {
			b.WriteString("- " + f + "\n")
		}
	}
	traits, err := e.persona.Traits(ctx)
	if err != nil {
		return "", err
	}
	if len(traits) > 0 {
		b.WriteString("\nPersonality guidelines:\n")
		for _, t := range traits {
			b.WriteString("- " + t + "\n")
		}
	}

	if contactProfile {
		profile, err := e.persona.Profile(ctx, jid)
		if err != nil {
			return "", err
		}
		if profile.Info != "" {
			b.WriteString("\nIMPORTANT FACTS TO REMEMBER ABOUT THIS PERSON:\n" + profile.Info + "\n")
		}
		if profile.Style != "" {
			b.WriteString("\nADOPT THIS SPECIFIC STYLE FOR THIS PERSON:\n" + profile.Style + "\n")
		}
	}

	last10, err := e.history.Tail(ctx, jid, 10)
	if err != nil {
		return "", err
	}
	if len(last10) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, m := range last10 {
			b.WriteString(m.Role + ": " + m.Content + "\n")
		}
	}
	return b.String(), nil
}

func (e *Engine) bumpProfileCounter(ctx context.Context, jid string) {
	var due bool
	_, err := e.contacts.UpdateInfo(ctx, jid, func(info *contacts.Info) error {
		info.MessagesSinceProfileUpdate++
		if info.MessagesSinceProfileUpdate >= profileRefreshEvery {
			info.MessagesSinceProfileUpdate = 0
			due = true
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("profile counter update failed", slog.String("jid", jid), slog.Any("error", err))
		return
	}
	if due {
		if err := e.RefreshContactProfile(ctx, jid); err != nil {
			e.logger.Warn("automatic profile refresh failed", slog.String("jid", jid), slog.Any("error", err))
		}
	}
}
