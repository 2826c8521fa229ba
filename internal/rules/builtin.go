package rules

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/settings"
)

// How many user turns back a bare "more" still counts as a photo follow-up.
const photoLookback = 6

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}

// ClockRule answers "what time is it" with the configured local time. It
// runs ahead of ActivityRule so time questions phrased alongside activity
// phrasing still get the clock answer.
type ClockRule struct {
	Settings *settings.Service
	Now      func() time.Time
}

func (ClockRule) Name() string { return "clock" }

func (r ClockRule) TryMatch(ctx context.Context, jid, msg string) (*Outcome, error) {
	if !clockRe.MatchString(msg) {
		return nil, nil
	}
	now := clock(r.Now).In(r.Settings.Location(ctx))
	return &Outcome{Reply: fmt.Sprintf("The current time in Guatemala is %s.", now.Format("3:04 PM"))}, nil
}

// ActivityRule answers "what are you doing" with an hour-banded canned line.
// Outside the bands it yields nothing and generation takes over.
type ActivityRule struct {
	Settings *settings.Service
	Now      func() time.Time
}

func (ActivityRule) Name() string { return "activity" }

func (r ActivityRule) TryMatch(ctx context.Context, jid, msg string) (*Outcome, error) {
	if !wydRe.MatchString(msg) {
		return nil, nil
	}
	hour := clock(r.Now).In(r.Settings.Location(ctx)).Hour()
	switch {
	case hour >= 12 && hour < 13:
		return &Outcome{Reply: "I’m on lunch break right now, back to work at 1 PM."}, nil
	case hour >= 6 && hour < 15:
		return &Outcome{Reply: "I’m here working with my clients and doing related tasks."}, nil
	}
	return nil, nil
}

// ResetGalleryRule clears the contact's sent-image log on request.
type ResetGalleryRule struct {
	Gallery *gallery.Service
}

func (ResetGalleryRule) Name() string { return "reset_gallery" }

func (r ResetGalleryRule) TryMatch(ctx context.Context, jid, msg string) (*Outcome, error) {
	if !resetImagesRe.MatchString(msg) {
		return nil, nil
	}
	if err := r.Gallery.ResetSent(ctx, jid); err != nil {
		return nil, err
	}
	return &Outcome{Reply: "Resetting the gallery — I’ll start from the top next time you ask 😊"}, nil
}

// GratitudeGuardRule deflects thanks-for-photos and explicit requests so
// they never reach the generation backend.
type GratitudeGuardRule struct{}

func (GratitudeGuardRule) Name() string { return "gratitude_guard" }

func (GratitudeGuardRule) TryMatch(ctx context.Context, jid, msg string) (*Outcome, error) {
	if (thanksRe.MatchString(msg) && picWordRe.MatchString(msg)) || explicitRe.MatchString(msg) {
		return &Outcome{Reply: "You’re sweet. I’m glad you liked them. Want more travel or everyday moments? 😉"}, nil
	}
	return nil, nil
}

// PhotoRequestRule serves gallery batches for photo requests, treats a bare
// "more" as a follow-up only when a recent photo request or prior delivery
// supports that reading, and otherwise asks for clarification.
type PhotoRequestRule struct {
	Gallery *gallery.Service
	History *history.Service
	Rand    *rand.Rand
}

func (PhotoRequestRule) Name() string { return "photo_request" }

func (r PhotoRequestRule) TryMatch(ctx context.Context, jid, msg string) (*Outcome, error) {
	askedPhotos := imageRe.MatchString(msg)
	wantsMore := moreRe.MatchString(msg)
	if !askedPhotos && !wantsMore {
		return nil, nil
	}

	// "More" phrasing is only honored as a follow-up: a recent photo request
	// in the look-back window or images already delivered. Without that
	// context we ask instead of guessing.
	if wantsMore {
		recent, err := r.recentlyAskedForPhotos(ctx, jid)
		if err != nil {
			return nil, err
		}
		received, err := r.Gallery.HasReceived(ctx, jid)
		if err != nil {
			return nil, err
		}
		if !recent && !received {
			return &Outcome{Reply: "Do you mean more photos? If so, say the word 'photos' and I’ll send some 📸"}, nil
		}
	}

	batch, err := r.Gallery.NextBatch(ctx, jid)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		outLines := []string{
			"That’s what I have for now 😌. Once I take more, I’ll gladly share them with you.",
			"I’m out of photos at the moment — when I snap new ones, they’re yours 😊.",
		}
		return &Outcome{Reply: outLines[r.Rand.Intn(len(outLines))]}, nil
	}
	closings := []string{"Hope you like them 😉", "Thought you’d enjoy these ✨", "Just for you 💫"}
	return &Outcome{Reply: closings[r.Rand.Intn(len(closings))], Images: batch}, nil
}

// recentlyAskedForPhotos scans the last few user turns before the current
// one for a photo request. The inbound message is already in history when
// rules run, so the newest user turn is skipped.
func (r PhotoRequestRule) recentlyAskedForPhotos(ctx context.Context, jid string) (bool, error) {
	msgs, err := r.History.Tail(ctx, jid, 50)
	if err != nil {
		return false, err
	}
	within := photoLookback
	current := true
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != history.RoleUser {
			continue
		}
		if current {
			current = false
			continue
		}
		if imageRe.MatchString(msgs[i].Content) {
			return true, nil
		}
		within--
		if within <= 0 {
			break
		}
	}
	return false, nil
}
