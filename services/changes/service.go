// Package changes diffs two schedule snapshots into typed change records.
package changes

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"airsched/models"
)

// Detector compares schedule snapshots. The title key function is pluggable
// so key-matching policy lives in one place (models.NormalizeTitle by
// default).
type Detector struct {
	titleKey func(models.ScheduleEntry) string
	now      func() time.Time
}

// New creates a detector with the default title-key policy.
func New() *Detector {
	return &Detector{
		titleKey: models.ScheduleEntry.TitleKey,
		now:      time.Now,
	}
}

// WithClock overrides the detection timestamp source. Test hook.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Detect compares current against previous and emits one record per detected
// difference. A title can receive several kinds in one batch (a time change
// and a day change are independent axes). Cancellations — titles present
// yesterday but absent today — are appended last. All records of one call
// share a BatchID and a single DetectedAt captured up front, so consumers can
// treat the result as one detection batch.
func (d *Detector) Detect(current, previous []models.ScheduleEntry) []models.ChangeRecord {
	detectedAt := d.now()
	batchID := uuid.NewString()

	prevByKey := make(map[string]models.ScheduleEntry, len(previous))
	for _, e := range previous {
		prevByKey[d.titleKey(e)] = e
	}
	// Preserve previous iteration order for deterministic cancellation output.
	prevOrder := make([]string, 0, len(previous))
	for _, e := range previous {
		prevOrder = append(prevOrder, d.titleKey(e))
	}

	var records []models.ChangeRecord
	emit := func(kind models.ChangeKind, title, details, prevVal, newVal string) {
		records = append(records, models.ChangeRecord{
			Kind:          kind,
			Title:         title,
			Details:       details,
			PreviousValue: prevVal,
			NewValue:      newVal,
			BatchID:       batchID,
			DetectedAt:    detectedAt,
		})
	}

	matched := make(map[string]bool)
	processed := make(map[string]bool)
	for _, entry := range current {
		key := d.titleKey(entry)
		// A duplicated title within one snapshot is diffed once; the first
		// occurrence wins.
		if processed[key] {
			continue
		}
		processed[key] = true

		old, ok := prevByKey[key]
		if !ok {
			emit(models.ChangeNew, entry.Title,
				fmt.Sprintf("%s joined the schedule on %s", entry.Title, entry.DayOfWeek), "", "")
			continue
		}
		matched[key] = true

		if old.AirTime != entry.AirTime {
			emit(models.ChangeTime, entry.Title,
				fmt.Sprintf("air time moved from %s to %s", old.AirTime, entry.AirTime),
				old.AirTime, entry.AirTime)
		}
		if old.DayOfWeek != entry.DayOfWeek {
			// A day move is reported neutrally; whether it's a delay or an
			// earlier slot is for the consumer to interpret.
			emit(models.ChangeDay, entry.Title,
				fmt.Sprintf("broadcast day moved from %s to %s", old.DayOfWeek, entry.DayOfWeek),
				old.DayOfWeek, entry.DayOfWeek)
		}
		if old.EpisodeLabel != entry.EpisodeLabel {
			emit(models.ChangeEpisode, entry.Title,
				fmt.Sprintf("episode %s is up (was %s)", entry.EpisodeLabel, old.EpisodeLabel),
				old.EpisodeLabel, entry.EpisodeLabel)
		}
	}

	seen := make(map[string]bool)
	for _, key := range prevOrder {
		if matched[key] || seen[key] {
			continue
		}
		seen[key] = true
		old := prevByKey[key]
		emit(models.ChangeCancellation, old.Title,
			fmt.Sprintf("%s dropped off the schedule", old.Title), "", "")
	}
	return records
}
