// Package extraction converts chat messages into structured carpool records
// using an LLM backend, with a heuristic (pattern-based) fallback.
package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/chat2carpool/carpoold/internal/chat"
)

// Kind distinguishes ride requests from ride offers. A record is always
// exactly one of the two; messages that are neither produce no record.
type Kind string

const (
	KindRequest Kind = "request"
	KindOffer   Kind = "offer"
)

// RideDetails holds the extracted ride information. Unknown fields are nil
// or empty, never guessed.
type RideDetails struct {
	PickupLocation string   `json:"pickup_location,omitempty"`
	DropLocation   string   `json:"drop_location,omitempty"`
	Route          []string `json:"route,omitempty"`
	Date           string   `json:"date,omitempty"`
	Time           string   `json:"time,omitempty"`
	Passengers     *int     `json:"passengers,omitempty"`
	AvailableSeats *int     `json:"available_seats,omitempty"`
	AdditionalInfo string   `json:"additional_info,omitempty"`
}

// Record is a structured carpool request or offer extracted from one chat
// message. Never mutated after creation; Source always references a message
// from the ingested chat.
type Record struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"session_id"`
	Kind          Kind         `json:"kind"`
	Details       RideDetails  `json:"details"`
	Confidence    float64      `json:"confidence"`
	Reasoning     string       `json:"reasoning,omitempty"`
	MissingFields []string     `json:"missing_fields"`
	Complete      bool         `json:"complete"`
	Source        chat.Message `json:"source"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ExtractionError reports a failed extraction batch. It is non-fatal: other
// batches of the same session continue processing.
type ExtractionError struct {
	Batch      int
	FirstIndex int
	LastIndex  int
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: batch %d (messages %d-%d): %v",
		e.Batch, e.FirstIndex, e.LastIndex, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Result holds the outcome of extracting one chat. Records follow the source
// chat's chronological message order. Errors lists failed batches.
type Result struct {
	Records []Record           `json:"records"`
	Errors  []*ExtractionError `json:"-"`
}

// Extractor maps a single chat message to at most one carpool record.
// A nil record with nil error means the message is not a ride request
// or offer.
type Extractor interface {
	ExtractMessage(ctx context.Context, msg chat.Message) (*Record, error)

	// Available reports whether the extractor is configured and ready.
	Available() bool
}

// Config holds extraction backend configuration.
type Config struct {
	Provider  string `json:"provider"` // "gemini", "openai", "heuristic", "disabled"
	Model     string `json:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Timeout   int    `json:"timeout,omitempty"` // seconds
	BatchSize int    `json:"batch_size,omitempty"`
}

// requiredFields returns the field names a complete record of the given kind
// must carry.
func requiredFields(kind Kind) []string {
	fields := []string{"pickup_location", "drop_location", "date", "time"}
	if kind == KindRequest {
		return append(fields, "passengers")
	}
	return append(fields, "available_seats")
}

// missingFields computes which required fields the details lack.
func missingFields(kind Kind, d RideDetails) []string {
	missing := make([]string, 0, 2)
	for _, f := range requiredFields(kind) {
		switch f {
		case "pickup_location":
			if d.PickupLocation == "" {
				missing = append(missing, f)
			}
		case "drop_location":
			if d.DropLocation == "" {
				missing = append(missing, f)
			}
		case "date":
			if d.Date == "" {
				missing = append(missing, f)
			}
		case "time":
			if d.Time == "" {
				missing = append(missing, f)
			}
		case "passengers":
			if d.Passengers == nil {
				missing = append(missing, f)
			}
		case "available_seats":
			if d.AvailableSeats == nil {
				missing = append(missing, f)
			}
		}
	}
	return missing
}
