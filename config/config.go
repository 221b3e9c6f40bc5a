package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Settings holds all runtime configuration, persisted as a single JSON file.
type Settings struct {
	ListenAddr string `json:"listenAddr"`

	// Fetch pipeline
	SourceURL         string   `json:"sourceUrl"`
	TransportPrefixes []string `json:"transportPrefixes"` // proxy URL templates, tried in order
	MaxRetries        int      `json:"maxRetries"`        // per transport
	BaseDelayMs       int      `json:"baseDelayMs"`       // backoff base
	FetchTimeoutSecs  int      `json:"fetchTimeoutSecs"`  // per attempt
	MinBodyBytes      int      `json:"minBodyBytes"`      // plausibility threshold

	// Acquisition cycle
	RefreshIntervalHours int    `json:"refreshIntervalHours"`
	DatabasePath         string `json:"databasePath"`

	// Enrichment collaborator (optional)
	EnrichmentEnabled bool   `json:"enrichmentEnabled"`
	EnrichmentBaseURL string `json:"enrichmentBaseUrl"`

	// Curated keyword lists; injectable so tests can substitute fixtures.
	TrendingTitles    []string `json:"trendingTitles"`
	LongRunningTitles []string `json:"longRunningTitles"`
	TwoCourTitles     []string `json:"twoCourTitles"`

	LogFile string `json:"logFile"`
}

// Defaults returns the settings used when no config file exists yet.
func Defaults() Settings {
	return Settings{
		ListenAddr: ":8480",
		SourceURL:  "https://animeschedule.net/",
		TransportPrefixes: []string{
			"https://api.allorigins.win/raw?url=",
			"https://corsproxy.io/?",
			"https://api.codetabs.com/v1/proxy?quest=",
			"",
		},
		MaxRetries:           3,
		BaseDelayMs:          1000,
		FetchTimeoutSecs:     15,
		MinBodyBytes:         1000,
		RefreshIntervalHours: 24,
		DatabasePath:         "data/airsched.db",
		EnrichmentEnabled:    true,
		EnrichmentBaseURL:    "https://api.jikan.moe/v4",
		TrendingTitles: []string{
			"One Piece", "Jujutsu Kaisen", "Frieren", "Solo Leveling",
			"Kaiju No. 8", "Dandadan", "Blue Lock", "My Hero Academia",
		},
		LongRunningTitles: []string{
			"One Piece", "Detective Conan", "Case Closed", "Boruto", "Pokemon",
		},
		TwoCourTitles: []string{
			"Frieren", "Vinland Saga", "Kingdom Heroes", "Mushoku Tensei",
		},
		LogFile: "logs/airsched.log",
	}
}

// Manager loads and saves Settings. The filesystem is injected so tests can
// run against an in-memory fs.
type Manager struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewManager creates a manager persisting to path on the OS filesystem.
func NewManager(path string) *Manager {
	return NewManagerFs(afero.NewOsFs(), path)
}

// NewManagerFs creates a manager persisting to path on the given filesystem.
func NewManagerFs(fs afero.Fs, path string) *Manager {
	return &Manager{fs: fs, path: path}
}

// Load reads settings from disk, filling in defaults for missing fields.
// A missing file yields Defaults() without error.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings := Defaults()

	exists, err := afero.Exists(m.fs, m.path)
	if err != nil {
		return settings, fmt.Errorf("stat settings: %w", err)
	}
	if !exists {
		return settings, nil
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings: %w", err)
	}
	applyDefaults(&settings)
	return settings, nil
}

// Save writes settings to disk, creating parent directories as needed.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := afero.WriteFile(m.fs, m.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// applyDefaults backfills zero values so a hand-edited partial config file
// still produces a usable configuration.
func applyDefaults(s *Settings) {
	defaults := Defaults()
	if s.ListenAddr == "" {
		s.ListenAddr = defaults.ListenAddr
	}
	if s.SourceURL == "" {
		s.SourceURL = defaults.SourceURL
	}
	if len(s.TransportPrefixes) == 0 {
		s.TransportPrefixes = defaults.TransportPrefixes
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = defaults.MaxRetries
	}
	if s.BaseDelayMs <= 0 {
		s.BaseDelayMs = defaults.BaseDelayMs
	}
	if s.FetchTimeoutSecs <= 0 {
		s.FetchTimeoutSecs = defaults.FetchTimeoutSecs
	}
	if s.MinBodyBytes <= 0 {
		s.MinBodyBytes = defaults.MinBodyBytes
	}
	if s.RefreshIntervalHours <= 0 {
		s.RefreshIntervalHours = defaults.RefreshIntervalHours
	}
	if s.DatabasePath == "" {
		s.DatabasePath = defaults.DatabasePath
	}
	if s.EnrichmentBaseURL == "" {
		s.EnrichmentBaseURL = defaults.EnrichmentBaseURL
	}
	if len(s.TrendingTitles) == 0 {
		s.TrendingTitles = defaults.TrendingTitles
	}
	if len(s.LongRunningTitles) == 0 {
		s.LongRunningTitles = defaults.LongRunningTitles
	}
	if len(s.TwoCourTitles) == 0 {
		s.TwoCourTitles = defaults.TwoCourTitles
	}
}
