// Package tracker runs the acquisition cycle: fetch the schedule, persist
// today's snapshot, diff it against yesterday's, and forecast future episodes
// for the shows worth following.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"airsched/internal/dates"
	"airsched/models"
	"airsched/services/extractor"
	"airsched/services/fetcher"
)

// Fetcher retrieves and parses the schedule page.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.ScheduleEntry, error)
}

// Store persists snapshots and forecasts.
type Store interface {
	SaveSnapshot(date string, entries []models.ScheduleEntry) error
	GetSnapshot(date string) ([]models.ScheduleEntry, error)
	ListForecasts() ([]models.ForecastRecord, error)
}

// Enricher fills catalog metadata onto entries in place.
type Enricher interface {
	EnrichAll(ctx context.Context, entries []models.ScheduleEntry)
}

// Detector diffs two snapshots.
type Detector interface {
	Detect(current, previous []models.ScheduleEntry) []models.ChangeRecord
}

// Planner builds and persists forecast records.
type Planner interface {
	AutoSchedule(entry models.ScheduleEntry) (models.ForecastRecord, error)
}

// CycleResult is the outcome of one acquisition cycle.
type CycleResult struct {
	Date       string                 `json:"date"`
	Entries    []models.ScheduleEntry `json:"entries"`
	Changes    []models.ChangeRecord  `json:"changes"`
	Degraded   bool                   `json:"degraded"` // true when the fallback dataset was substituted
	Forecasted int                    `json:"forecasted"`
}

// Status holds the current state of the tracker background worker.
type Status struct {
	Running       bool      `json:"running"`
	State         string    `json:"state"` // "idle", "refreshing", "stopped"
	LastRefreshAt time.Time `json:"lastRefreshAt"`
	LastRefreshMs int64     `json:"lastRefreshMs"`
	NextRefreshAt time.Time `json:"nextRefreshAt"`
	Degraded      bool      `json:"degraded"`
	LastError     string    `json:"lastError,omitempty"`
}

// Service orchestrates the pipeline and owns the background refresh loop.
type Service struct {
	fetch    Fetcher
	store    Store
	enrich   Enricher // optional
	detector Detector
	planner  Planner
	now      func() time.Time

	mu         sync.RWMutex
	lastResult *CycleResult

	stopCh     chan struct{}
	stopOnce   sync.Once
	refreshNow chan struct{}

	statusMu      sync.RWMutex
	running       bool
	state         string
	lastRefreshAt time.Time
	lastRefreshMs int64
	nextRefreshAt time.Time
	degraded      bool
	lastError     string
}

// New wires the pipeline. enrich may be nil; entries then stay unenriched.
func New(fetch Fetcher, store Store, enrich Enricher, detector Detector, planner Planner) *Service {
	return &Service{
		fetch:    fetch,
		store:    store,
		enrich:   enrich,
		detector: detector,
		planner:  planner,
		now:      time.Now,
	}
}

// WithClock overrides the cycle clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AcquireAndDiff runs one acquisition: fetch entries (substituting the static
// fallback dataset when every transport is exhausted), enrich, persist
// today's snapshot, and diff against yesterday's. Store failures abort the
// cycle; prior snapshots stay valid.
func (s *Service) AcquireAndDiff(ctx context.Context) (*CycleResult, error) {
	now := s.now()
	today := dates.ISODate(now)
	yesterday := dates.ISODate(now.AddDate(0, 0, -1))

	degraded := false
	entries, err := s.fetch.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, fetcher.ErrAllTransportsFailed) {
			return nil, fmt.Errorf("fetch schedule: %w", err)
		}
		log.Printf("[tracker] all transports exhausted, serving fallback dataset")
		entries = extractor.FallbackEntries(now)
		degraded = true
	}

	if s.enrich != nil {
		s.enrich.EnrichAll(ctx, entries)
	}

	if err := s.store.SaveSnapshot(today, entries); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	previous, err := s.store.GetSnapshot(yesterday)
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}

	var changeRecords []models.ChangeRecord
	if previous != nil {
		changeRecords = s.detector.Detect(entries, previous)
		log.Printf("[tracker] %d changes detected against %s", len(changeRecords), yesterday)
	} else {
		log.Printf("[tracker] no snapshot for %s, skipping diff", yesterday)
	}

	result := &CycleResult{
		Date:     today,
		Entries:  entries,
		Changes:  changeRecords,
		Degraded: degraded,
	}
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	s.statusMu.Lock()
	s.degraded = degraded
	s.statusMu.Unlock()

	return result, nil
}

// ForecastAll auto-schedules future episodes for the given entries. Per-entry
// failures are logged and skipped; the batch never aborts.
func (s *Service) ForecastAll(ctx context.Context, entries []models.ScheduleEntry) int {
	count := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.planner.AutoSchedule(entry); err != nil {
			log.Printf("[tracker] forecast %q failed: %v", entry.Title, err)
			continue
		}
		count++
	}
	return count
}

// RunCycle performs a full acquisition plus forecasting for trending entries.
func (s *Service) RunCycle(ctx context.Context) (*CycleResult, error) {
	result, err := s.AcquireAndDiff(ctx)
	if err != nil {
		return nil, err
	}

	var trending []models.ScheduleEntry
	for _, entry := range result.Entries {
		if entry.IsTrending {
			trending = append(trending, entry)
		}
	}
	result.Forecasted = s.ForecastAll(ctx, trending)
	log.Printf("[tracker] cycle complete: %d entries, %d changes, %d forecasts (degraded=%t)",
		len(result.Entries), len(result.Changes), result.Forecasted, result.Degraded)
	return result, nil
}

// LastResult returns the most recent cycle result, or nil before the first
// cycle completes.
func (s *Service) LastResult() *CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// StartBackgroundRefresh begins the periodic acquisition loop.
func (s *Service) StartBackgroundRefresh(interval time.Duration) {
	s.stopCh = make(chan struct{})
	s.refreshNow = make(chan struct{}, 1)

	s.statusMu.Lock()
	s.running = true
	s.state = "idle"
	s.statusMu.Unlock()

	go func() {
		log.Println("[tracker] background refresh: initial cycle starting...")
		s.doRefresh()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			s.statusMu.Lock()
			s.nextRefreshAt = time.Now().Add(interval)
			s.statusMu.Unlock()

			select {
			case <-ticker.C:
				s.doRefresh()
			case <-s.refreshNow:
				s.doRefresh()
				// Next auto-refresh is a full interval away again.
				ticker.Reset(interval)
			case <-s.stopCh:
				log.Println("[tracker] background refresh: stopped")
				s.statusMu.Lock()
				s.running = false
				s.state = "stopped"
				s.statusMu.Unlock()
				return
			}
		}
	}()
}

// Refresh triggers an immediate cycle. Non-blocking.
func (s *Service) Refresh() {
	if s.refreshNow == nil {
		return
	}
	select {
	case s.refreshNow <- struct{}{}:
	default:
		// Already a refresh pending
	}
}

// Stop halts the background loop. Safe to call more than once.
func (s *Service) Stop() {
	if s.stopCh == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// GetStatus returns the current worker status.
func (s *Service) GetStatus() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return Status{
		Running:       s.running,
		State:         s.state,
		LastRefreshAt: s.lastRefreshAt,
		LastRefreshMs: s.lastRefreshMs,
		NextRefreshAt: s.nextRefreshAt,
		Degraded:      s.degraded,
		LastError:     s.lastError,
	}
}

func (s *Service) doRefresh() {
	s.statusMu.Lock()
	s.state = "refreshing"
	s.statusMu.Unlock()

	start := time.Now()
	_, err := s.RunCycle(context.Background())
	elapsed := time.Since(start)

	s.statusMu.Lock()
	s.state = "idle"
	s.lastRefreshAt = time.Now()
	s.lastRefreshMs = elapsed.Milliseconds()
	if err != nil {
		s.lastError = err.Error()
		log.Printf("[tracker] cycle failed: %v", err)
	} else {
		s.lastError = ""
	}
	s.statusMu.Unlock()
}
