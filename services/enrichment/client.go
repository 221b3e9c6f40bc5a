// Package enrichment looks up catalog metadata for schedule entries. It is an
// optional collaborator: every failure is recovered locally and the entry
// proceeds unenriched.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"airsched/models"
)

const (
	defaultBaseURL  = "https://api.jikan.moe/v4"
	requestTimeout  = 10 * time.Second
	defaultThrottle = 350 * time.Millisecond // Jikan free tier is ~3 req/s
	maxConcurrent   = 4
)

// Info is the catalog metadata for one title.
type Info struct {
	TotalEpisodes int
	Genre         string
	Studio        string
	RatingScore   float64
	ExternalID    string
}

// Client queries a Jikan-style anime catalog API.
type Client struct {
	baseURL string
	httpc   *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient constructs an enrichment client. A nil http client gets a default
// with a request timeout.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		httpc:       httpc,
		minInterval: defaultThrottle,
	}
}

type searchResponse struct {
	Data []struct {
		MalID    int     `json:"mal_id"`
		Title    string  `json:"title"`
		Episodes int     `json:"episodes"`
		Score    float64 `json:"score"`
		Genres   []struct {
			Name string `json:"name"`
		} `json:"genres"`
		Studios []struct {
			Name string `json:"name"`
		} `json:"studios"`
	} `json:"data"`
}

// LookupByTitle returns catalog info for the best title match, or (nil, nil)
// when the catalog has no match.
func (c *Client) LookupByTitle(ctx context.Context, title string) (*Info, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	c.throttle()

	query := url.Values{}
	query.Set("q", title)
	query.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/anime?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, nil
	}

	hit := parsed.Data[0]
	info := &Info{
		TotalEpisodes: hit.Episodes,
		RatingScore:   hit.Score,
		ExternalID:    fmt.Sprintf("mal:%d", hit.MalID),
	}
	if len(hit.Genres) > 0 {
		info.Genre = hit.Genres[0].Name
	}
	if len(hit.Studios) > 0 {
		info.Studio = hit.Studios[0].Name
	}
	return info, nil
}

// throttle spaces requests out so the free catalog tier doesn't reject us.
func (c *Client) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

// EnrichAll fills enrichment fields on entries in place. Lookups run
// concurrently and are order-independent; a failed lookup leaves that entry
// unenriched and never aborts the batch.
func (c *Client) EnrichAll(ctx context.Context, entries []models.ScheduleEntry) {
	p := pool.New().WithMaxGoroutines(maxConcurrent)
	for i := range entries {
		i := i
		p.Go(func() {
			info, err := c.LookupByTitle(ctx, entries[i].Title)
			if err != nil {
				log.Printf("[enrichment] lookup %q failed: %v", entries[i].Title, err)
				return
			}
			if info == nil {
				return
			}
			applyInfo(&entries[i], info)
		})
	}
	p.Wait()
}

// applyInfo copies catalog fields onto an entry. The extractor's genre is
// only replaced when it fell back to the sentinel.
func applyInfo(entry *models.ScheduleEntry, info *Info) {
	if info.TotalEpisodes > 0 {
		entry.TotalEpisodes = info.TotalEpisodes
	}
	if info.Genre != "" && (entry.Genre == "" || entry.Genre == "Anime") {
		entry.Genre = info.Genre
	}
	if info.Studio != "" {
		entry.Studio = info.Studio
	}
	if info.RatingScore > 0 {
		entry.RatingScore = info.RatingScore
	}
	if info.ExternalID != "" {
		entry.ExternalID = info.ExternalID
	}
}
