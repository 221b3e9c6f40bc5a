// Package fetcher retrieves the schedule page through an ordered list of
// proxy transports. Each transport gets its own retry budget with exponential
// backoff; only when every transport is exhausted does the fetch fail overall.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"

	"airsched/models"
)

const (
	defaultAttemptTimeout = 15 * time.Second
	defaultBaseDelay      = 1 * time.Second
	defaultMaxRetries     = 3
	defaultMinBodyBytes   = 1000
)

// ErrAllTransportsFailed is returned when every transport has exhausted its
// retries. Callers substitute the static fallback dataset on this error.
var ErrAllTransportsFailed = errors.New("all transports failed")

// FailReason classifies why a single attempt failed. All reasons are retried
// identically; the distinction exists for the logs.
type FailReason string

const (
	ReasonTimeout    FailReason = "timeout"
	ReasonStatus     FailReason = "bad_status"
	ReasonShortBody  FailReason = "short_body"
	ReasonNotMarkup  FailReason = "not_markup"
	ReasonEmptyParse FailReason = "empty_parse"
	ReasonNetwork    FailReason = "network"
)

// TransportError records one failed attempt against one transport.
type TransportError struct {
	Transport string
	Reason    FailReason
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %q: %s: %v", e.Transport, e.Reason, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Parser reduces a raw document to schedule entries. A response the parser
// reduces to zero entries is not a success; it counts as a failed attempt.
type Parser interface {
	Extract(doc []byte) []models.ScheduleEntry
}

// Options configures the fetch pipeline.
type Options struct {
	SourceURL      string
	Transports     []string // proxy URL prefixes, tried in order; "" means direct
	MaxRetries     uint     // attempts per transport
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	MinBodyBytes   int // plausibility threshold for response bodies
}

// Service fetches and parses the schedule page.
type Service struct {
	opts       Options
	parser     Parser
	httpClient *http.Client
}

// New constructs a fetcher. A nil client gets a default http.Client; zero
// option values get the package defaults.
func New(opts Options, parser Parser, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{}
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.AttemptTimeout == 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.MinBodyBytes == 0 {
		opts.MinBodyBytes = defaultMinBodyBytes
	}
	if len(opts.Transports) == 0 {
		opts.Transports = []string{""}
	}
	return &Service{opts: opts, parser: parser, httpClient: client}
}

// Fetch tries each transport in order, retrying with exponential backoff
// within a transport before moving to the next. The retry budget does not
// carry across transports. Returns ErrAllTransportsFailed after total
// exhaustion.
func (s *Service) Fetch(ctx context.Context) ([]models.ScheduleEntry, error) {
	for _, transport := range s.opts.Transports {
		transport := transport
		var entries []models.ScheduleEntry

		err := retry.Do(
			func() error {
				got, err := s.attempt(ctx, transport)
				if err != nil {
					return err
				}
				entries = got
				return nil
			},
			retry.Attempts(s.opts.MaxRetries),
			retry.Delay(s.opts.BaseDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				log.Printf("[fetcher] transport %q attempt %d failed: %v", transportName(transport), n+1, err)
			}),
		)
		if err == nil {
			log.Printf("[fetcher] transport %q returned %d entries", transportName(transport), len(entries))
			return entries, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[fetcher] transport %q exhausted: %v", transportName(transport), err)
	}
	return nil, ErrAllTransportsFailed
}

// attempt performs one GET through one transport and parses the body.
func (s *Service) attempt(ctx context.Context, transport string) ([]models.ScheduleEntry, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, s.proxiedURL(transport), nil)
	if err != nil {
		return nil, &TransportError{Transport: transport, Reason: ReasonNetwork, Err: err}
	}
	req.Header.Set("Accept", "text/html, application/xhtml+xml, application/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; airsched/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		reason := ReasonNetwork
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			reason = ReasonTimeout
		}
		return nil, &TransportError{Transport: transport, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Transport: transport,
			Reason:    ReasonStatus,
			Err:       fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		reason := ReasonNetwork
		if attemptCtx.Err() == context.DeadlineExceeded {
			reason = ReasonTimeout
		}
		return nil, &TransportError{Transport: transport, Reason: reason, Err: err}
	}

	if len(body) < s.opts.MinBodyBytes {
		return nil, &TransportError{
			Transport: transport,
			Reason:    ReasonShortBody,
			Err:       fmt.Errorf("body %d bytes, want >= %d", len(body), s.opts.MinBodyBytes),
		}
	}
	if !looksLikeMarkup(body) {
		return nil, &TransportError{
			Transport: transport,
			Reason:    ReasonNotMarkup,
			Err:       fmt.Errorf("unexpected content type %s", mimetype.Detect(body)),
		}
	}

	entries := s.parser.Extract(body)
	if len(entries) == 0 {
		return nil, &TransportError{
			Transport: transport,
			Reason:    ReasonEmptyParse,
			Err:       errors.New("no entries extracted"),
		}
	}
	return entries, nil
}

// proxiedURL builds the target URL for a transport. An empty prefix hits the
// source directly.
func (s *Service) proxiedURL(transport string) string {
	if transport == "" {
		return s.opts.SourceURL
	}
	return transport + url.QueryEscape(s.opts.SourceURL)
}

// looksLikeMarkup rejects bodies that are clearly not an HTML/XML document,
// such as a proxy's JSON error envelope.
func looksLikeMarkup(body []byte) bool {
	mtype := mimetype.Detect(body)
	for m := mtype; m != nil; m = m.Parent() {
		switch m.String() {
		case "text/html", "text/xml", "application/xml", "application/xhtml+xml":
			return true
		}
	}
	// mimetype reports plain text for fragments; accept if it scans as tag-y.
	return mtype.Is("text/plain") && len(body) > 0 && body[0] == '<'
}

func transportName(transport string) string {
	if transport == "" {
		return "direct"
	}
	return transport
}
