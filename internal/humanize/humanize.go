// Package humanize post-processes generated replies so they read like casual
// typed chat: fillers, shortening, burst-splitting, the odd fake typo, and
// mood-matched emoji. The transform is deliberately stochastic.
package humanize

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

var (
	sadWords   = []string{"sad", "tired", "lonely", "bad", "depressed", "down", "cry"}
	happyWords = []string{"good", "great", "love", "happy", "excited", "amazing"}

	fillers      = []string{"lol", "haha", "ngl", "idk", "hmm"}
	shortAnswers = []string{"yea fr", "idk tbh", "sure", "bet", "maybe"}
	happyEmoji   = []string{"😊", "🔥", "✨", "😂"}
	sadEmoji     = []string{"🥺", "💙", "😔"}
	neutralEmoji = []string{"😉", "😂", "🌿"}

	sentenceSplit  = regexp.MustCompile(`(?:[.!?]) +`)
	emotionalWords = []string{"sad", "love", "angry", "cry", "miss"}
)

// Rewriter applies the humanizing transform.
type Rewriter struct {
	rng *rand.Rand
}

// NewRewriter returns a time-seeded Rewriter.
func NewRewriter() *Rewriter {
	return NewRewriterWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewRewriterWithSource returns a Rewriter with a caller-owned source, used
// by tests to pin the dice.
func NewRewriterWithSource(src rand.Source) *Rewriter {
	return &Rewriter{rng: rand.New(src)}
}

// Rewrite transforms a raw generated reply. recent carries the contents of
// the last few history messages and feeds the topic-callback tail.
func (r *Rewriter) Rewrite(userMsg, raw string, recent []string) string {
	reply := strings.TrimSpace(raw)
	lowerUser := strings.ToLower(userMsg)

	isSad := containsAny(lowerUser, sadWords)
	isHappy := containsAny(lowerUser, happyWords)

	// Casual fillers, skipped when the user sounds down.
	if !isSad && r.rng.Float64() < 0.2 {
		reply = fillers[r.rng.Intn(len(fillers))] + " " + strings.ToLower(reply)
	}

	// Occasionally answer with almost nothing.
	if r.rng.Float64() < 0.05 {
		return shortAnswers[r.rng.Intn(len(shortAnswers))]
	}

	if r.rng.Float64() < 0.1 {
		reply = strings.ReplaceAll(reply, "you", "u")
	}
	if strings.Contains(reply, "yeah") && r.rng.Float64() < 0.3 {
		reply = strings.ReplaceAll(reply, "yeah", "yea")
	}

	// Long replies get trimmed to the first couple of sentences.
	if len(reply) > 80 && r.rng.Float64() < 0.3 {
		sentences := splitSentences(reply)
		if len(sentences) > 2 {
			sentences = sentences[:2]
		}
		reply = strings.Join(sentences, "\n")
	}

	// Fake typo plus correction.
	if r.rng.Float64() < 0.05 {
		words := strings.Fields(reply)
		if len(words) > 3 {
			idx := r.rng.Intn(len(words))
			words[idx] = reverse(words[idx])
			reply = strings.Join(words, " ") + "\n(sry typo, meant that!)"
		}
	}

	switch {
	case isHappy:
		reply += " " + happyEmoji[r.rng.Intn(len(happyEmoji))]
	case isSad:
		reply += " " + sadEmoji[r.rng.Intn(len(sadEmoji))]
	case r.rng.Float64() < 0.2:
		reply += " " + neutralEmoji[r.rng.Intn(len(neutralEmoji))]
	}

	// Callback to a recent topic.
	if len(recent) > 0 && r.rng.Float64() < 0.1 {
		joined := strings.ToLower(strings.Join(recent, " "))
		switch {
		case strings.Contains(joined, "dog"):
			reply += " btw how's ur dog?"
		case strings.Contains(joined, "work"):
			reply += " how's work going btw?"
		case strings.Contains(joined, "food") || strings.Contains(joined, "eat"):
			reply += " did u eat yet today?"
		}
	}

	return reply
}

// TypingDelay returns a realistic pre-send pause scaled by reply length and
// the user's emotional tone.
func (r *Rewriter) TypingDelay(userMsg, reply string) time.Duration {
	var delay float64
	switch {
	case len(reply) < 30:
		delay = 2 + r.rng.Float64()*3
	case len(reply) < 80:
		delay = 5 + r.rng.Float64()*5
	default:
		delay = 10 + r.rng.Float64()*10
	}

	if containsAny(strings.ToLower(userMsg), emotionalWords) {
		delay *= 1.3
	}

	// Occasionally simulate being busy.
	if r.rng.Float64() < 0.05 {
		delay += 30 + r.rng.Float64()*30
	}

	return time.Duration(delay) * time.Second
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func splitSentences(s string) []string {
	// Preserve terminal punctuation by splitting on the gap after it.
	var out []string
	last := 0
	for _, loc := range sentenceSplit.FindAllStringIndex(s, -1) {
		out = append(out, s[last:loc[0]+1])
		last = loc[1]
	}
	out = append(out, s[last:])
	return out
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
