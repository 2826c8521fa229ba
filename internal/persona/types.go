package persona

import "time"

// Profile is the accumulated knowledge about one contact used to steer
// generation: objective facts (info), communication style notes, and an
// on-demand summary.
type Profile struct {
	Info           string    `json:"info"`
	Style          string    `json:"style"`
	Summary        string    `json:"summary,omitempty"`
	LastSummarized time.Time `json:"last_summarized,omitempty"`
}
