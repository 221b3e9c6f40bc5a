package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"airsched/models"
)

// Repository provides snapshot and forecast persistence. Snapshots are
// immutable per date: saving the same date again replaces the whole day,
// which only happens when a cycle re-runs within one calendar day.
type Repository struct {
	db *sql.DB
}

// SaveSnapshot stores the full entry list for one calendar date.
func (r *Repository) SaveSnapshot(date string, entries []models.ScheduleEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO snapshots (date, entries, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET entries = excluded.entries`,
		date, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", date, err)
	}
	return nil
}

// GetSnapshot returns the entries stored for date, or (nil, nil) when no
// snapshot exists for that day.
func (r *Repository) GetSnapshot(date string) ([]models.ScheduleEntry, error) {
	var payload string
	err := r.db.QueryRow(`SELECT entries FROM snapshots WHERE date = ?`, date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", date, err)
	}
	var entries []models.ScheduleEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", date, err)
	}
	return entries, nil
}

// ListSnapshotDates returns stored snapshot dates, newest first.
func (r *Repository) ListSnapshotDates(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(`SELECT date FROM snapshots ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// SaveForecast upserts a forecast record wholesale, keyed by show id.
func (r *Repository) SaveForecast(record models.ForecastRecord) error {
	episodes, err := json.Marshal(record.ProjectedEpisodes)
	if err != nil {
		return fmt.Errorf("encode projected episodes: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO forecasts
			(show_id, title, total_episodes, current_episode, day_of_week, air_time, timezone, auto_scheduled, episodes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(show_id) DO UPDATE SET
			title = excluded.title,
			total_episodes = excluded.total_episodes,
			current_episode = excluded.current_episode,
			day_of_week = excluded.day_of_week,
			air_time = excluded.air_time,
			timezone = excluded.timezone,
			auto_scheduled = excluded.auto_scheduled,
			episodes = excluded.episodes,
			updated_at = excluded.updated_at`,
		record.ShowID, record.Title, record.TotalEpisodes, record.CurrentEpisode,
		record.DayOfWeek, record.AirTime, record.TimezoneLabel,
		boolToInt(record.AutoScheduled), string(episodes), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save forecast %s: %w", record.ShowID, err)
	}
	return nil
}

// GetForecast returns the record for showID, or (nil, nil) when absent.
func (r *Repository) GetForecast(showID string) (*models.ForecastRecord, error) {
	row := r.db.QueryRow(`
		SELECT show_id, title, total_episodes, current_episode, day_of_week, air_time, timezone, auto_scheduled, episodes
		FROM forecasts WHERE show_id = ?`, showID)
	record, err := scanForecast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get forecast %s: %w", showID, err)
	}
	return record, nil
}

// ListForecasts returns all stored forecast records ordered by title.
func (r *Repository) ListForecasts() ([]models.ForecastRecord, error) {
	rows, err := r.db.Query(`
		SELECT show_id, title, total_episodes, current_episode, day_of_week, air_time, timezone, auto_scheduled, episodes
		FROM forecasts ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	var records []models.ForecastRecord
	for rows.Next() {
		record, err := scanForecast(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForecast(row rowScanner) (*models.ForecastRecord, error) {
	var record models.ForecastRecord
	var autoScheduled int
	var episodes string
	err := row.Scan(&record.ShowID, &record.Title, &record.TotalEpisodes,
		&record.CurrentEpisode, &record.DayOfWeek, &record.AirTime,
		&record.TimezoneLabel, &autoScheduled, &episodes)
	if err != nil {
		return nil, err
	}
	record.AutoScheduled = autoScheduled != 0
	if err := json.Unmarshal([]byte(episodes), &record.ProjectedEpisodes); err != nil {
		return nil, fmt.Errorf("decode projected episodes: %w", err)
	}
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
