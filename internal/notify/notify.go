// Package notify publishes match events to NATS so downstream consumers
// (notification senders, analytics) can react without polling the API.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chat2carpool/carpoold/internal/match"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// MatchEvent is the wire format for a discovered match.
type MatchEvent struct {
	SessionID      string    `json:"session_id"`
	RequestID      string    `json:"request_id"`
	OfferID        string    `json:"offer_id"`
	MatchType      string    `json:"match_type"`
	Score          float64   `json:"score"`
	RemainingSeats int       `json:"remaining_seats"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher emits match events on a NATS subject. A nil Publisher is valid
// and drops all events, so callers never have to branch on whether
// notifications are configured.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

// New wraps an established NATS connection.
func New(nc *nats.Conn, subject string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}
}

// PublishMatch sends one event per match. Publish failures are logged and
// returned but matching itself has already succeeded by the time this runs,
// so callers treat errors as non-fatal.
func (p *Publisher) PublishMatch(sessionID string, m match.Match) error {
	if p == nil {
		return nil
	}

	event := MatchEvent{
		SessionID:      sessionID,
		RequestID:      m.RequestID,
		OfferID:        m.OfferID,
		MatchType:      m.Type,
		Score:          m.Score,
		RemainingSeats: m.RemainingSeats,
		Timestamp:      time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		p.logger.Warn("publish match event failed",
			zap.String("subject", p.subject),
			zap.String("request_id", m.RequestID),
			zap.Error(err))
		return fmt.Errorf("publish match event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}
