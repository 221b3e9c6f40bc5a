package models

// ProjectedEpisode is one computed future airing, derived purely from
// weekly-cadence arithmetic. Unconfirmed until a real listing backs it up.
type ProjectedEpisode struct {
	EpisodeNumber int    `json:"episodeNumber"`
	Date          string `json:"date"` // YYYY-MM-DD
	AirTime       string `json:"airTime"`
	Confirmed     bool   `json:"confirmed"`
}

// ForecastRecord is the auto-scheduled future calendar for one show.
// Regenerating a forecast overwrites the record wholesale; the only partial
// updates are advancing the current episode and confirming a single date.
type ForecastRecord struct {
	ShowID            string             `json:"showId"` // deterministic slug of Title
	Title             string             `json:"title"`
	TotalEpisodes     int                `json:"totalEpisodes"`
	CurrentEpisode    int                `json:"currentEpisode"` // >= 1
	DayOfWeek         string             `json:"dayOfWeek"`
	AirTime           string             `json:"airTime"`
	TimezoneLabel     string             `json:"timezone"` // fixed broadcast timezone
	AutoScheduled     bool               `json:"autoScheduled"`
	ProjectedEpisodes []ProjectedEpisode `json:"projectedEpisodes"` // ascending by episode number
}
