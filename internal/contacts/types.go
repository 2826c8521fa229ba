package contacts

import "time"

// Objective types.
const (
	ObjectiveLinguistic = "linguistic"
	ObjectiveBehavioral = "behavioral"
)

// Objective statuses. Transitions are one-way: in_progress -> completed.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Contact is a roster entry. Only enabled contacts participate in automated
// reply generation or history ingestion.
type Contact struct {
	JID     string `json:"jid"`
	Enabled bool   `json:"enabled"`
	Name    string `json:"name"`
}

// Objective is a long-running conversational goal attached to a contact.
type Objective struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Description       string    `json:"description"`
	Status            string    `json:"status"`
	Progress          int       `json:"progress"`
	OccurrencesNeeded int       `json:"occurrences_needed"`
	Strategy          string    `json:"strategy"`
	Notes             []string  `json:"notes"`
	MinDays           int       `json:"min_days"`
	MaxDays           int       `json:"max_days"`
	CreatedAt         time.Time `json:"created_at"`
}

// Info is the per-contact bookkeeping record.
type Info struct {
	MediaDir                   string      `json:"media_dir,omitempty"`
	MediaFiles                 []string    `json:"media_files,omitempty"`
	Objectives                 []Objective `json:"objectives"`
	MessagesSinceProfileUpdate int         `json:"messages_since_profile_update"`
}
