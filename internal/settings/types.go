package settings

// Defaults applied when the settings section has never been written.
const (
	DefaultTimezone = "America/Guatemala"
)

// Settings is the process-wide configuration record.
type Settings struct {
	Timezone        string   `json:"timezone"`
	ApprovalEnabled bool     `json:"approval_enabled"`
	DateDayFirst    bool     `json:"date_day_first"`
	SelfLabels      []string `json:"self_labels"`
}

// UpsertRequest carries a partial settings update; nil fields are left as-is.
type UpsertRequest struct {
	Timezone        *string   `json:"timezone,omitempty"`
	ApprovalEnabled *bool     `json:"approval_enabled,omitempty"`
	DateDayFirst    *bool     `json:"date_day_first,omitempty"`
	SelfLabels      *[]string `json:"self_labels,omitempty"`
}
