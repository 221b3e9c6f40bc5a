package extractor

import (
	"time"

	"airsched/internal/dates"
	"airsched/models"
)

// fallbackEntries is a hand-maintained snapshot of the weekly schedule,
// served when every transport and retry has been exhausted. Air dates are
// filled in relative to the reference date at call time.
var fallbackEntries = []models.ScheduleEntry{
	{Title: "One Piece", DayOfWeek: "Sunday", AirTime: "09:30", EpisodeLabel: "New", IsTrending: true, Genre: "Adventure"},
	{Title: "Jujutsu Kaisen", DayOfWeek: "Thursday", AirTime: "23:56", EpisodeLabel: "New", IsTrending: true, Genre: "Action"},
	{Title: "Frieren: Beyond Journey's End", DayOfWeek: "Friday", AirTime: "23:00", EpisodeLabel: "New", IsTrending: true, Genre: "Fantasy"},
	{Title: "Blue Lock", DayOfWeek: "Saturday", AirTime: "01:30", EpisodeLabel: "New", IsTrending: true, Genre: "Sports"},
	{Title: "My Hero Academia", DayOfWeek: "Saturday", AirTime: "17:30", EpisodeLabel: "New", IsTrending: false, Genre: "Action"},
	{Title: "Dandadan", DayOfWeek: "Thursday", AirTime: "24:26", EpisodeLabel: "New", IsTrending: true, Genre: "Supernatural"},
	{Title: "Detective Conan", DayOfWeek: "Saturday", AirTime: "18:00", EpisodeLabel: "New", IsTrending: false, Genre: "Mystery"},
	{Title: "Kaiju No. 8", DayOfWeek: "Saturday", AirTime: "23:00", EpisodeLabel: "New", IsTrending: true, Genre: "Action"},
}

// FallbackEntries returns a copy of the static fallback schedule with air
// dates computed relative to ref.
func FallbackEntries(ref time.Time) []models.ScheduleEntry {
	cloned := make([]models.ScheduleEntry, len(fallbackEntries))
	copy(cloned, fallbackEntries)
	for i := range cloned {
		cloned[i].AirDate = dates.ISODate(dates.NextOccurrence(cloned[i].DayOfWeek, ref))
	}
	return cloned
}
