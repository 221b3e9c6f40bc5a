package models

import "strings"

// ScheduleEntry represents one broadcast slot observed on the weekly schedule.
type ScheduleEntry struct {
	Title         string  `json:"title"`
	DayOfWeek     string  `json:"dayOfWeek"` // Monday..Sunday or "Unknown"
	AirTime       string  `json:"airTime"`   // free-form, "TBA" when unlisted
	EpisodeLabel  string  `json:"episode"`   // numeric text or marker like "New"/"Movie"
	AirDate       string  `json:"airDate"`   // YYYY-MM-DD, next occurrence of DayOfWeek
	ImageURL      string  `json:"imageUrl,omitempty"`
	IsTrending    bool    `json:"isTrending"`
	Genre         string  `json:"genre"`
	TotalEpisodes int     `json:"totalEpisodes,omitempty"` // enrichment, 0 = unknown
	Studio        string  `json:"studio,omitempty"`
	RatingScore   float64 `json:"ratingScore,omitempty"`
	ExternalID    string  `json:"externalId,omitempty"` // catalog id (e.g. MAL)
}

// TitleKey returns the normalized diff key for an entry. Title is the natural
// key: two entries are the same show iff their keys match. Key-matching policy
// lives here so it can change in one place.
func (e ScheduleEntry) TitleKey() string {
	return NormalizeTitle(e.Title)
}

// NormalizeTitle lowercases and collapses surrounding whitespace for
// case-insensitive title matching.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ScheduleSnapshot is the full schedule as observed on one calendar day.
// Snapshots are immutable: each acquisition cycle creates a new one and the
// previous day's snapshot is superseded, never updated.
type ScheduleSnapshot struct {
	Date    string          `json:"date"` // YYYY-MM-DD
	Entries []ScheduleEntry `json:"entries"`
}
