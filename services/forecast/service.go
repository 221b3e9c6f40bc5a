// Package forecast projects future episode air dates from a weekly cadence
// anchor and maintains the per-show forecast records.
package forecast

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"airsched/internal/dates"
	"airsched/models"
)

// BroadcastTimezone labels every forecast; the source schedule is published
// in Japanese broadcast time.
const BroadcastTimezone = "Asia/Tokyo"

// Episode-count buckets. These are heuristics, not guarantees: an unseen
// long-running or split-cour title will land in the default bucket.
const (
	longRunningHorizon = 52 // episodes ahead for long-running shows
	twoCourFloor       = 24
	defaultFloor       = 12
)

var (
	ErrForecastNotFound = errors.New("forecast not found")
	ErrEpisodeNotFound  = errors.New("projected episode not found")
)

// Store persists forecast records. Upserts are whole-record, keyed by ShowID.
type Store interface {
	SaveForecast(models.ForecastRecord) error
	GetForecast(showID string) (*models.ForecastRecord, error)
}

// Lists are the curated title classifications, injected so tests can use
// deterministic fixtures.
type Lists struct {
	LongRunning []string
	TwoCour     []string
}

// Planner builds and maintains forecast records.
type Planner struct {
	store Store
	lists Lists
	now   func() time.Time
}

// New creates a planner backed by the given store.
func New(store Store, lists Lists) *Planner {
	return &Planner{store: store, lists: lists, now: time.Now}
}

// WithClock overrides the reference clock. Test hook.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// AutoSchedule builds the full future calendar for entry and persists it,
// overwriting any prior record for the same show. Episodes strictly after the
// current one are projected one week apart, anchored at the next occurrence
// of the entry's broadcast day.
func (p *Planner) AutoSchedule(entry models.ScheduleEntry) (models.ForecastRecord, error) {
	current := parseEpisodeLabel(entry.EpisodeLabel)
	total := p.resolveTotalEpisodes(entry, current)

	anchor := dates.NextOccurrence(entry.DayOfWeek, p.now())
	var projected []models.ProjectedEpisode
	for target := current + 1; target <= total; target++ {
		weeksFromNow := target - current
		date := anchor.AddDate(0, 0, (weeksFromNow-1)*7)
		projected = append(projected, models.ProjectedEpisode{
			EpisodeNumber: target,
			Date:          dates.ISODate(date),
			AirTime:       entry.AirTime,
			Confirmed:     false,
		})
	}

	record := models.ForecastRecord{
		ShowID:            ShowID(entry.Title),
		Title:             entry.Title,
		TotalEpisodes:     total,
		CurrentEpisode:    current,
		DayOfWeek:         entry.DayOfWeek,
		AirTime:           entry.AirTime,
		TimezoneLabel:     BroadcastTimezone,
		AutoScheduled:     true,
		ProjectedEpisodes: projected,
	}
	if err := p.store.SaveForecast(record); err != nil {
		return models.ForecastRecord{}, fmt.Errorf("save forecast for %q: %w", entry.Title, err)
	}
	return record, nil
}

// Advance increments a show's current episode by one and drops projections
// that are no longer in the future. This and Confirm are the only partial
// updates; everything else regenerates the record wholesale.
func (p *Planner) Advance(showID string) (*models.ForecastRecord, error) {
	record, err := p.store.GetForecast(showID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrForecastNotFound
	}

	record.CurrentEpisode++
	// Fresh slice: the store may have handed out its own backing array.
	kept := make([]models.ProjectedEpisode, 0, len(record.ProjectedEpisodes))
	for _, ep := range record.ProjectedEpisodes {
		if ep.EpisodeNumber > record.CurrentEpisode {
			kept = append(kept, ep)
		}
	}
	record.ProjectedEpisodes = kept

	if err := p.store.SaveForecast(*record); err != nil {
		return nil, fmt.Errorf("save advanced forecast: %w", err)
	}
	return record, nil
}

// Confirm marks a single projected episode as confirmed, leaving every other
// field untouched.
func (p *Planner) Confirm(showID string, episodeNumber int) (*models.ForecastRecord, error) {
	record, err := p.store.GetForecast(showID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrForecastNotFound
	}

	found := false
	for i := range record.ProjectedEpisodes {
		if record.ProjectedEpisodes[i].EpisodeNumber == episodeNumber {
			record.ProjectedEpisodes[i].Confirmed = true
			found = true
			break
		}
	}
	if !found {
		return nil, ErrEpisodeNotFound
	}

	if err := p.store.SaveForecast(*record); err != nil {
		return nil, fmt.Errorf("save confirmed forecast: %w", err)
	}
	return record, nil
}

// resolveTotalEpisodes prefers the enriched count when present, then
// classifies by curated title lists.
func (p *Planner) resolveTotalEpisodes(entry models.ScheduleEntry, current int) int {
	if entry.TotalEpisodes > 0 {
		return entry.TotalEpisodes
	}
	switch {
	case matchesAny(entry.Title, p.lists.LongRunning):
		return current + longRunningHorizon
	case matchesAny(entry.Title, p.lists.TwoCour):
		return max(twoCourFloor, current)
	default:
		return max(defaultFloor, current)
	}
}

func matchesAny(title string, list []string) bool {
	lower := strings.ToLower(title)
	for _, candidate := range list {
		if strings.Contains(lower, strings.ToLower(candidate)) {
			return true
		}
	}
	return false
}

// parseEpisodeLabel extracts the current episode number from a label.
// Non-numeric markers ("New", "Movie") default to episode 1.
func parseEpisodeLabel(label string) int {
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// ShowID derives the deterministic show identifier from a title:
// transliterate to ASCII, lowercase, collapse every run of non-alphanumeric
// characters to a single separator.
func ShowID(title string) string {
	slug := strings.ToLower(unidecode.Unidecode(title))
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
