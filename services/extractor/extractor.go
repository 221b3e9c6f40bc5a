// Package extractor turns the raw schedule page into structured entries.
//
// The page is an external site we don't control, so extraction is a layered
// heuristic: candidate extractors are tried in priority order and the first
// one that produces entries wins. Adding a new tier means appending to the
// list, not touching existing tiers.
package extractor

import (
	"bytes"
	"log"
	"strings"
	"time"

	"golang.org/x/net/html"

	"airsched/internal/dates"
	"airsched/models"
)

const (
	defaultAirTime = "TBA"
	defaultEpisode = "New"
	defaultGenre   = "Anime"
)

// trendingKeywords mark an item as trending when found in its class
// attributes or text.
var trendingKeywords = []string{"trending", "popular", "hot"}

// tier is one candidate extraction strategy. It returns either a populated
// list or nil ("no match"); it never fails.
type tier struct {
	name    string
	extract func(e *Extractor, root *html.Node, ref time.Time) []models.ScheduleEntry
}

// Extractor parses raw schedule documents. The curated trending list is
// injected so tests can substitute deterministic fixtures.
type Extractor struct {
	trendingTitles []string
	now            func() time.Time
	tiers          []tier
}

// New creates an extractor with the given curated trending-title list.
func New(trendingTitles []string) *Extractor {
	e := &Extractor{
		trendingTitles: trendingTitles,
		now:            time.Now,
	}
	e.tiers = []tier{
		{name: "day-blocks", extract: (*Extractor).extractDayBlocks},
		{name: "flat-items", extract: (*Extractor).extractFlatItems},
	}
	return e
}

// WithClock overrides the reference clock. Test hook.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract parses doc into schedule entries. It never returns an error:
// unparseable or unrecognized documents degrade to an empty list, which the
// fetch pipeline treats as a failed attempt.
func (e *Extractor) Extract(doc []byte) []models.ScheduleEntry {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		log.Printf("[extractor] parse failed: %v", err)
		return nil
	}

	ref := e.now()
	for _, t := range e.tiers {
		if entries := t.extract(e, root, ref); len(entries) > 0 {
			log.Printf("[extractor] tier %q yielded %d entries", t.name, len(entries))
			return entries
		}
	}
	return nil
}

// extractDayBlocks handles the structured layout: container elements whose
// class denotes a day grouping, each with a day header and show items below.
func (e *Extractor) extractDayBlocks(root *html.Node, ref time.Time) []models.ScheduleEntry {
	var entries []models.ScheduleEntry

	for _, block := range findAll(root, isDayBlock) {
		day := dates.Unknown
		if header := findFirst(block, isDayHeader); header != nil {
			text := nodeText(header)
			day = dates.NormalizeDay(text)
			if day == dates.Unknown {
				// Header text can carry extra words ("Airing Thursday").
				day = dates.FindWeekday(text)
			}
		}

		for _, item := range findAll(block, isShowItem) {
			if entry, ok := e.buildEntry(item, day, ref); ok {
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

// extractFlatItems is the fallback layout: generic item-like elements with no
// day grouping. The day is inferred from the nearest enclosing section's text.
func (e *Extractor) extractFlatItems(root *html.Node, ref time.Time) []models.ScheduleEntry {
	var entries []models.ScheduleEntry

	for _, item := range findAll(root, isShowItem) {
		day := dates.Unknown
		if section := closestSection(item); section != nil {
			day = dates.FindWeekday(nodeText(section))
		}
		if entry, ok := e.buildEntry(item, day, ref); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// buildEntry reads an item's fields using prioritized selector candidates.
// Title is the only mandatory field; everything else degrades to a default.
func (e *Extractor) buildEntry(item *html.Node, day string, ref time.Time) (models.ScheduleEntry, bool) {
	title := firstText(item, isTitleNode)
	if title == "" {
		return models.ScheduleEntry{}, false
	}

	airTime := firstText(item, isTimeNode)
	if airTime == "" {
		airTime = defaultAirTime
	}

	episode := firstText(item, isEpisodeNode)
	if episode == "" {
		episode = defaultEpisode
	}

	imageURL := ""
	if img := findFirst(item, func(n *html.Node) bool { return n.Data == "img" }); img != nil {
		imageURL = attr(img, "src")
	}

	genre := firstText(item, isGenreNode)
	if genre == "" {
		genre = firstText(item, isTagNode)
	}
	if genre == "" {
		genre = defaultGenre
	}

	entry := models.ScheduleEntry{
		Title:        title,
		DayOfWeek:    day,
		AirTime:      airTime,
		EpisodeLabel: episode,
		AirDate:      dates.ISODate(dates.NextOccurrence(day, ref)),
		ImageURL:     imageURL,
		IsTrending:   e.isTrending(item, title),
		Genre:        genre,
	}
	return entry, true
}

// isTrending checks trending-indicator keywords on the item itself, then the
// curated known-trending title list by substring.
func (e *Extractor) isTrending(item *html.Node, title string) bool {
	haystack := strings.ToLower(attr(item, "class") + " " + nodeText(item))
	for _, kw := range trendingKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	lowerTitle := strings.ToLower(title)
	for _, known := range e.trendingTitles {
		if strings.Contains(lowerTitle, strings.ToLower(known)) {
			return true
		}
	}
	return false
}

// --- node predicates -------------------------------------------------------

func isDayBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return classContainsAny(n, "timetable-day", "day-column", "schedule-day", "day-block")
}

func isDayHeader(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "h2", "h3":
		return true
	}
	return classContainsAny(n, "day-title", "day-header", "day-name")
}

func isShowItem(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Data == "article" {
		return true
	}
	return classContainsAny(n, "show-card", "anime-card", "schedule-item", "show-item", "timetable-column-show")
}

func isTitleNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Data == "h3" || n.Data == "h4" {
		return true
	}
	return classContainsAny(n, "show-title", "anime-title", "title")
}

func isTimeNode(n *html.Node) bool {
	return n.Type == html.ElementNode &&
		(n.Data == "time" || classContainsAny(n, "show-air-time", "air-time", "time"))
}

func isEpisodeNode(n *html.Node) bool {
	return n.Type == html.ElementNode &&
		classContainsAny(n, "show-episode", "episode-number", "episode", "ep-number")
}

func isGenreNode(n *html.Node) bool {
	return n.Type == html.ElementNode && classContainsAny(n, "show-genre", "genre")
}

func isTagNode(n *html.Node) bool {
	return n.Type == html.ElementNode && classContainsAny(n, "tag", "tags")
}

// --- html helpers ----------------------------------------------------------

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// classContainsAny reports whether any class token of n contains one of the
// given substrings. Substring matching keeps the extractor tolerant of
// site-specific prefixes like "ul-show-card".
func classContainsAny(n *html.Node, subs ...string) bool {
	class := strings.ToLower(attr(n, "class"))
	if class == "" {
		return false
	}
	for _, tok := range strings.Fields(class) {
		for _, sub := range subs {
			if strings.Contains(tok, sub) {
				return true
			}
		}
	}
	return false
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
			// Don't descend into a matched node; nested matches would
			// duplicate items.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n != root && match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// firstText returns the trimmed text of the first matching descendant.
func firstText(root *html.Node, match func(*html.Node) bool) string {
	if n := findFirst(root, match); n != nil {
		return strings.TrimSpace(nodeText(n))
	}
	return ""
}

// nodeText concatenates all text descendants of n.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// closestSection walks up from n to the nearest section-like ancestor.
func closestSection(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if p.Data == "section" || classContainsAny(p, "section", "day") {
			return p
		}
	}
	return nil
}
