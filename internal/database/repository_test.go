package database

import (
	"path/filepath"
	"testing"

	"airsched/models"
)

// setupTestDB creates a new test database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_Success(t *testing.T) {
	db := setupTestDB(t)
	if db.Repository == nil {
		t.Fatal("expected non-nil repository")
	}
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := setupTestDB(t).Repository

	entries := []models.ScheduleEntry{
		{Title: "Show X", DayOfWeek: "Friday", AirTime: "20:00", EpisodeLabel: "5", AirDate: "2025-06-13", Genre: "Action"},
		{Title: "Show Y", DayOfWeek: "Monday", AirTime: "TBA", EpisodeLabel: "New", AirDate: "2025-06-16", IsTrending: true},
	}
	if err := repo.SaveSnapshot("2025-06-10", entries); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err := repo.GetSnapshot("2025-06-10")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Title != "Show X" || got[0].AirTime != "20:00" {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
	if !got[1].IsTrending {
		t.Error("IsTrending not preserved")
	}
}

func TestGetSnapshotAbsent(t *testing.T) {
	repo := setupTestDB(t).Repository

	got, err := repo.GetSnapshot("1999-01-01")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent snapshot, got %+v", got)
	}
}

func TestSaveSnapshotReplacesSameDate(t *testing.T) {
	repo := setupTestDB(t).Repository

	if err := repo.SaveSnapshot("2025-06-10", []models.ScheduleEntry{{Title: "Old"}}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := repo.SaveSnapshot("2025-06-10", []models.ScheduleEntry{{Title: "New A"}, {Title: "New B"}}); err != nil {
		t.Fatalf("SaveSnapshot (replace) failed: %v", err)
	}

	got, err := repo.GetSnapshot("2025-06-10")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "New A" {
		t.Errorf("expected replacement entries, got %+v", got)
	}
}

func TestListSnapshotDates(t *testing.T) {
	repo := setupTestDB(t).Repository

	for _, d := range []string{"2025-06-08", "2025-06-10", "2025-06-09"} {
		if err := repo.SaveSnapshot(d, nil); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}

	dates, err := repo.ListSnapshotDates(2)
	if err != nil {
		t.Fatalf("ListSnapshotDates failed: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2025-06-10" || dates[1] != "2025-06-09" {
		t.Errorf("expected newest-first dates, got %v", dates)
	}
}

func TestForecastUpsert(t *testing.T) {
	repo := setupTestDB(t).Repository

	record := models.ForecastRecord{
		ShowID:         "kingdom",
		Title:          "Kingdom",
		TotalEpisodes:  12,
		CurrentEpisode: 3,
		DayOfWeek:      "Saturday",
		AirTime:        "18:00",
		TimezoneLabel:  "Asia/Tokyo",
		AutoScheduled:  true,
		ProjectedEpisodes: []models.ProjectedEpisode{
			{EpisodeNumber: 4, Date: "2025-06-14", AirTime: "18:00"},
			{EpisodeNumber: 5, Date: "2025-06-21", AirTime: "18:00"},
		},
	}
	if err := repo.SaveForecast(record); err != nil {
		t.Fatalf("SaveForecast failed: %v", err)
	}

	got, err := repo.GetForecast("kingdom")
	if err != nil {
		t.Fatalf("GetForecast failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected forecast to be retrievable")
	}
	if got.CurrentEpisode != 3 || len(got.ProjectedEpisodes) != 2 {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.AutoScheduled {
		t.Error("AutoScheduled not preserved")
	}

	// Upsert overwrites wholesale.
	record.CurrentEpisode = 4
	record.ProjectedEpisodes = record.ProjectedEpisodes[1:]
	if err := repo.SaveForecast(record); err != nil {
		t.Fatalf("SaveForecast (upsert) failed: %v", err)
	}
	got, err = repo.GetForecast("kingdom")
	if err != nil {
		t.Fatalf("GetForecast failed: %v", err)
	}
	if got.CurrentEpisode != 4 || len(got.ProjectedEpisodes) != 1 {
		t.Errorf("upsert did not overwrite: %+v", got)
	}
}

func TestGetForecastAbsent(t *testing.T) {
	repo := setupTestDB(t).Repository
	got, err := repo.GetForecast("missing")
	if err != nil {
		t.Fatalf("GetForecast failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent forecast, got %+v", got)
	}
}

func TestListForecastsOrderedByTitle(t *testing.T) {
	repo := setupTestDB(t).Repository

	for _, title := range []string{"Zeta Show", "Alpha Show"} {
		err := repo.SaveForecast(models.ForecastRecord{
			ShowID: title, Title: title, TotalEpisodes: 12, CurrentEpisode: 1,
			DayOfWeek: "Monday", AirTime: "20:00", TimezoneLabel: "Asia/Tokyo",
		})
		if err != nil {
			t.Fatalf("SaveForecast failed: %v", err)
		}
	}

	records, err := repo.ListForecasts()
	if err != nil {
		t.Fatalf("ListForecasts failed: %v", err)
	}
	if len(records) != 2 || records[0].Title != "Alpha Show" {
		t.Errorf("expected title order, got %+v", records)
	}
}
