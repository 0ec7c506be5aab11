// Package match pairs carpool requests with compatible offers and scores
// each pairing.
package match

import (
	"sort"
	"strings"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/metrics"
)

// Match types, best to worst.
const (
	TypeExact        = "exact"
	TypeExactRoute   = "exact_route"
	TypePartialRoute = "partial_route"
)

// Score weights: location alignment dominates, time compatibility refines.
const (
	locationWeight = 0.7
	timeWeight     = 0.3
)

// Match pairs a ride request with a compatible offer.
type Match struct {
	RequestID      string  `json:"request_id"`
	OfferID        string  `json:"offer_id"`
	Type           string  `json:"type"`
	LocationScore  float64 `json:"location_score"`
	TimeScore      float64 `json:"time_score"`
	Score          float64 `json:"score"`
	RemainingSeats int     `json:"remaining_seats"`
}

// Matcher finds compatible request/offer pairs.
type Matcher struct {
	metrics *metrics.Metrics
}

// New creates a matcher. Metrics may be nil.
func New(m *metrics.Metrics) *Matcher {
	return &Matcher{metrics: m}
}

// FindMatches pairs every complete request in records with every compatible
// complete offer, sorted by score descending. Dates must match and the offer
// must seat the request's passengers.
func (m *Matcher) FindMatches(records []extraction.Record) []Match {
	var requests, offers []extraction.Record
	for _, r := range records {
		if !r.Complete {
			continue
		}
		switch r.Kind {
		case extraction.KindRequest:
			requests = append(requests, r)
		case extraction.KindOffer:
			offers = append(offers, r)
		}
	}

	matches := make([]Match, 0)
	for _, req := range requests {
		for _, off := range offers {
			if req.Details.Date != off.Details.Date {
				continue
			}

			seats := 0
			if off.Details.AvailableSeats != nil {
				seats = *off.Details.AvailableSeats
			}
			passengers := 1
			if req.Details.Passengers != nil {
				passengers = *req.Details.Passengers
			}
			if seats < passengers {
				continue
			}

			aligned, matchType, locationScore := routeAlignment(req.Details, off.Details)
			if !aligned {
				continue
			}

			timeScore := timeCompatibility(req.Details.Time, off.Details.Time)
			score := locationWeight*locationScore + timeWeight*timeScore

			matches = append(matches, Match{
				RequestID:      req.ID,
				OfferID:        off.ID,
				Type:           matchType,
				LocationScore:  locationScore,
				TimeScore:      timeScore,
				Score:          round3(score),
				RemainingSeats: seats,
			})
			if m.metrics != nil {
				m.metrics.MatchesFound.WithLabelValues(matchType).Inc()
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// NormalizeLocation prepares a location name for comparison.
func NormalizeLocation(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), " ")
}

// routeAlignment checks whether the request's endpoints lie on the offer's
// route, in order. Without a route it falls back to exact endpoint matching.
//
// Partial-route scores grow with the share of the route the request covers:
// 0.7 base plus up to 0.3 for full coverage.
func routeAlignment(req, off extraction.RideDetails) (bool, string, float64) {
	if len(off.Route) < 2 {
		if NormalizeLocation(req.PickupLocation) == NormalizeLocation(off.PickupLocation) &&
			NormalizeLocation(req.DropLocation) == NormalizeLocation(off.DropLocation) {
			return true, TypeExact, 1.0
		}
		return false, "", 0
	}

	route := make([]string, len(off.Route))
	for i, stop := range off.Route {
		route[i] = NormalizeLocation(stop)
	}
	pickup := NormalizeLocation(req.PickupLocation)
	drop := NormalizeLocation(req.DropLocation)

	pickupIdx, dropIdx := -1, -1
	for i, stop := range route {
		if pickupIdx < 0 && stopsOverlap(pickup, stop) {
			pickupIdx = i
		}
	}
	for i, stop := range route {
		if stopsOverlap(drop, stop) {
			dropIdx = i
		}
	}

	// Both endpoints must lie on the route with the pickup first.
	if pickupIdx < 0 || dropIdx < 0 || pickupIdx >= dropIdx {
		return false, "", 0
	}

	if pickupIdx == 0 && dropIdx == len(route)-1 {
		return true, TypeExactRoute, 1.0
	}

	coverage := float64(dropIdx-pickupIdx) / float64(len(route)-1)
	return true, TypePartialRoute, 0.7 + 0.3*coverage
}

// stopsOverlap matches a location against a route stop loosely, in either
// containment direction ("gulshan" matches "gulshan chowrangi").
func stopsOverlap(location, stop string) bool {
	if location == "" || stop == "" {
		return false
	}
	return strings.Contains(stop, location) || strings.Contains(location, stop)
}

// Time periods for coarse compatibility when clock times differ.
var timePeriods = map[string][]string{
	"morning":   {"morning", "6am", "7am", "8am", "9am", "10am", "11am"},
	"afternoon": {"afternoon", "noon", "12pm", "1pm", "2pm", "3pm", "4pm"},
	"evening":   {"evening", "night", "5pm", "6pm", "7pm", "8pm", "9pm"},
}

// timeCompatibility scores how well two stated times line up: exact match
// 1.0, same period of day 0.8, otherwise an assumed-compatible 0.6.
func timeCompatibility(reqTime, offTime string) float64 {
	rt := strings.ToLower(strings.TrimSpace(reqTime))
	ot := strings.ToLower(strings.TrimSpace(offTime))

	if rt == ot {
		return 1.0
	}

	for _, keywords := range timePeriods {
		if containsAny(rt, keywords) && containsAny(ot, keywords) {
			return 0.8
		}
	}

	return 0.6
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}
