// Package rules implements the ordered short-circuit cascade evaluated
// before reply generation. Each rule is an independently testable predicate;
// the engine stops at the first non-nil outcome.
package rules

import (
	"context"
	"log/slog"
	"regexp"
)

// Outcome is a canned reply produced by a matched rule, optionally carrying
// image identifiers to deliver alongside it.
type Outcome struct {
	Reply  string   `json:"reply"`
	Images []string `json:"images,omitempty"`
}

// Rule inspects a normalized inbound message and the sender's prior state.
// A nil outcome with a nil error means the rule does not apply.
type Rule interface {
	Name() string
	TryMatch(ctx context.Context, jid, msg string) (*Outcome, error)
}

// Cascade evaluates rules in order and returns the first outcome.
type Cascade struct {
	rules  []Rule
	logger *slog.Logger
}

func NewCascade(log *slog.Logger, rules ...Rule) *Cascade {
	return &Cascade{
		rules:  rules,
		logger: log.With(slog.String("service", "rules")),
	}
}

// Evaluate returns the first matching rule's outcome, or nil when no rule
// fires and generation should take over. A rule error aborts the cascade.
func (c *Cascade) Evaluate(ctx context.Context, jid, msg string) (*Outcome, error) {
	for _, r := range c.rules {
		out, err := r.TryMatch(ctx, jid, msg)
		if err != nil {
			return nil, err
		}
		if out != nil {
			c.logger.Debug("rule matched",
				slog.String("rule", r.Name()), slog.String("jid", jid))
			return out, nil
		}
	}
	return nil, nil
}

// Intent patterns. Kept together so precedence stays reviewable in one place.
var (
	wydRe = regexp.MustCompile(`(?i)(?:\bwhat(?:'s| is)? (?:are )?you doing\b|\bwyd\b|` +
		`\bq(?:ué|ue)? (?:estás|estas) haciendo\b|\bqué haces\b)`)

	clockRe = regexp.MustCompile(`(?i)\b(?:what(?:'s| is)? the time|current time)\b`)

	imageRe = regexp.MustCompile(`(?i)(?:\b(?:send|show|share|give|see|have|want|send me|show me|share me)` +
		`(?:\s+me|\s+us)?\b.{0,25})?` +
		`\b(?:image|images|photo|photos|picture|pictures|pic|pics|selfie|selfies)\b` +
		`(?:.{0,25}\b(?:of\s+you|yourself))?`)

	moreRe        = regexp.MustCompile(`(?i)\b(?:more|another|again|extra|mas|más|otra|otro|otros|otras)\b`)
	resetImagesRe = regexp.MustCompile(`(?i)\b(?:start over|from the beginning|reset (?:pics|photos|images))\b`)

	thanksRe   = regexp.MustCompile(`(?i)\b(?:thanks|thank you|appreciate|gracias|ty)\b`)
	picWordRe  = regexp.MustCompile(`(?i)\b(?:pic|pics|photo|photos|image|images|selfie|selfies)\b`)
	explicitRe = regexp.MustCompile(`(?i)\b(?:dick|penis|nude|naked|xxx|nsfw|explicit)\b`)
)
