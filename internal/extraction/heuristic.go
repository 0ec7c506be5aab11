package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/chat2carpool/carpoold/internal/chat"
)

// Keyword lists for intent classification. Offer keywords are checked first:
// "I'm driving and can take 2" must not classify as a request on "take".
var (
	offerKeywords = []string{
		"offering", "have space", "empty seat", "can take", "available seat",
		"driving", "have room", "have a seat", "giving a lift",
	}
	requestKeywords = []string{
		"need", "want", "looking for", "require", "going to", "going from",
		"need to go", "take me", "anyone going",
	}
)

// Field extraction patterns, from the regex fallback the service uses when
// the LLM is unavailable.
var (
	clockTimePattern  = regexp.MustCompile(`\b(\d{1,2}:\d{2} ?(?:am|pm))\b`)
	hourTimePattern   = regexp.MustCompile(`\b(\d{1,2} ?(?:am|pm))\b`)
	periodTimePattern = regexp.MustCompile(`\b(morning|afternoon|evening|noon|night)\b`)
	countPattern      = regexp.MustCompile(`\b(\d+)\s*(?:people|person|passenger|passengers|seat|seats)\b`)
	fromToPattern     = regexp.MustCompile(`from\s+(.+?)\s+to\s+([^\s,.!?]+)`)
	toPattern         = regexp.MustCompile(`to\s+([^\s,.!?]+)`)
)

var dateKeywords = []string{"today", "tomorrow", "tonight"}

// HeuristicExtractor implements Extractor using keyword matching and regex
// patterns. It needs no external backend and doubles as the fallback when an
// LLM call fails.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates a new heuristic extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// ExtractMessage classifies and extracts one chat message using keyword and
// regex heuristics. Returns (nil, nil) for messages that are neither a
// request nor an offer.
func (h *HeuristicExtractor) ExtractMessage(_ context.Context, msg chat.Message) (*Record, error) {
	kind, confidence, ok := ClassifyKind(msg.Text)
	if !ok {
		return nil, nil
	}

	details := extractDetails(msg.Text, kind)

	return &Record{
		Kind:       kind,
		Details:    details,
		Confidence: confidence,
		Reasoning:  "keyword heuristic",
		Source:     msg,
	}, nil
}

// Available always returns true; the heuristic needs no configuration.
func (h *HeuristicExtractor) Available() bool {
	return true
}

// ClassifyKind classifies message text by keyword matching. The boolean is
// false when no carpool intent is detected.
func ClassifyKind(text string) (Kind, float64, bool) {
	lower := strings.ToLower(text)

	for _, kw := range offerKeywords {
		if strings.Contains(lower, kw) {
			return KindOffer, 0.8, true
		}
	}
	for _, kw := range requestKeywords {
		if strings.Contains(lower, kw) {
			return KindRequest, 0.8, true
		}
	}
	return "", 0, false
}

// extractDetails pulls ride details out of the text with regex patterns.
func extractDetails(text string, kind Kind) RideDetails {
	lower := strings.ToLower(text)
	var d RideDetails

	if m := clockTimePattern.FindStringSubmatch(lower); m != nil {
		d.Time = m[1]
	} else if m := hourTimePattern.FindStringSubmatch(lower); m != nil {
		d.Time = m[1]
	} else if m := periodTimePattern.FindStringSubmatch(lower); m != nil {
		d.Time = m[1]
	}

	for _, kw := range dateKeywords {
		if strings.Contains(lower, kw) {
			d.Date = kw
			break
		}
	}

	if m := countPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if kind == KindRequest {
				d.Passengers = &n
			} else {
				d.AvailableSeats = &n
			}
		}
	}

	if m := fromToPattern.FindStringSubmatch(lower); m != nil {
		d.PickupLocation = strings.TrimSpace(m[1])
		d.DropLocation = strings.TrimSpace(m[2])
	} else if m := toPattern.FindStringSubmatch(lower); m != nil {
		d.DropLocation = strings.TrimSpace(m[1])
	}

	return d
}

// Ensure HeuristicExtractor implements Extractor.
var _ Extractor = (*HeuristicExtractor)(nil)
