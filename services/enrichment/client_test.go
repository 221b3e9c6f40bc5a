package enrichment

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"airsched/models"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

const searchHit = `{"data":[{
	"mal_id": 52991,
	"title": "Frieren: Beyond Journey's End",
	"episodes": 28,
	"score": 9.3,
	"genres": [{"name": "Adventure"}, {"name": "Drama"}],
	"studios": [{"name": "Madhouse"}]
}]}`

func newTestClient(rt roundTripFunc) *Client {
	c := NewClient("https://catalog.test/v4", &http.Client{Transport: rt})
	c.minInterval = 0 // no throttling in tests
	return c
}

func TestLookupByTitle(t *testing.T) {
	var gotURL string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return jsonResponse(http.StatusOK, searchHit), nil
	})

	info, err := client.LookupByTitle(context.Background(), "Frieren")
	if err != nil {
		t.Fatalf("LookupByTitle failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected a match")
	}
	if gotURL != "https://catalog.test/v4/anime?limit=1&q=Frieren" {
		t.Errorf("unexpected request URL: %s", gotURL)
	}
	if info.TotalEpisodes != 28 || info.Genre != "Adventure" || info.Studio != "Madhouse" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.RatingScore != 9.3 || info.ExternalID != "mal:52991" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestLookupByTitleNoMatch(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[]}`), nil
	})

	info, err := client.LookupByTitle(context.Background(), "Nonexistent Show")
	if err != nil {
		t.Fatalf("LookupByTitle failed: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil info for no match, got %+v", info)
	}
}

func TestLookupByTitleEmptySkipsRequest(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty title")
		return nil, nil
	})

	info, err := client.LookupByTitle(context.Background(), "   ")
	if err != nil || info != nil {
		t.Errorf("expected (nil, nil), got (%+v, %v)", info, err)
	}
}

func TestLookupByTitleErrorStatus(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"message":"rate limited"}`), nil
	})

	if _, err := client.LookupByTitle(context.Background(), "Frieren"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestEnrichAll(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("q") == "Broken Show" {
			return jsonResponse(http.StatusInternalServerError, "oops"), nil
		}
		return jsonResponse(http.StatusOK, searchHit), nil
	})

	entries := []models.ScheduleEntry{
		{Title: "Frieren", Genre: "Anime"},
		{Title: "Broken Show", Genre: "Anime"},
	}
	client.EnrichAll(context.Background(), entries)

	if entries[0].TotalEpisodes != 28 || entries[0].Studio != "Madhouse" {
		t.Errorf("entry not enriched: %+v", entries[0])
	}
	if entries[0].Genre != "Adventure" {
		t.Errorf("sentinel genre should be replaced, got %q", entries[0].Genre)
	}
	if entries[1].TotalEpisodes != 0 || entries[1].Studio != "" {
		t.Errorf("failed lookup must leave entry untouched: %+v", entries[1])
	}
}

func TestApplyInfoKeepsExtractedGenre(t *testing.T) {
	entry := models.ScheduleEntry{Title: "Frieren", Genre: "Fantasy"}
	applyInfo(&entry, &Info{TotalEpisodes: 28, Genre: "Adventure"})
	if entry.Genre != "Fantasy" {
		t.Errorf("extracted genre must win, got %q", entry.Genre)
	}
	if entry.TotalEpisodes != 28 {
		t.Errorf("TotalEpisodes = %d", entry.TotalEpisodes)
	}
}
