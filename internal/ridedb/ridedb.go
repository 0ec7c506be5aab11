// Package ridedb persists confirmed carpool records and matches to Postgres.
//
// The in-memory session store remains authoritative for live sessions; this
// store keeps the durable ride_requests / ride_offers / matches tables the
// matching history is built from. It is optional: the daemon runs without it
// when no database URL is configured.
package ridedb

import (
	"context"
	"fmt"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/match"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Init creates the schema if it does not exist. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS ride_requests (
			id              TEXT PRIMARY KEY,
			session_id      TEXT NOT NULL,
			sender          TEXT NOT NULL,
			pickup_location TEXT NOT NULL,
			drop_location   TEXT NOT NULL,
			route           TEXT[],
			date            TEXT NOT NULL,
			time            TEXT NOT NULL,
			passengers      INT NOT NULL DEFAULT 1,
			additional_info TEXT,
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ride_requests_session_idx ON ride_requests (session_id)`,
		`CREATE TABLE IF NOT EXISTS ride_offers (
			id              TEXT PRIMARY KEY,
			session_id      TEXT NOT NULL,
			sender          TEXT NOT NULL,
			pickup_location TEXT NOT NULL,
			drop_location   TEXT NOT NULL,
			route           TEXT[],
			date            TEXT NOT NULL,
			time            TEXT NOT NULL,
			available_seats INT NOT NULL,
			seats_filled    INT NOT NULL DEFAULT 0,
			additional_info TEXT,
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ride_offers_session_idx ON ride_offers (session_id)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id          BIGSERIAL PRIMARY KEY,
			request_id  TEXT NOT NULL,
			offer_id    TEXT NOT NULL,
			match_type  TEXT NOT NULL,
			match_score DOUBLE PRECISION NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS matches_request_idx ON matches (request_id)`,
	}

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveRecord persists a complete record to the table for its kind.
// Incomplete records are skipped silently: they carry too little data to
// match against later.
func (s *Store) SaveRecord(ctx context.Context, rec extraction.Record) error {
	if !rec.Complete {
		return nil
	}

	switch rec.Kind {
	case extraction.KindRequest:
		passengers := 1
		if rec.Details.Passengers != nil {
			passengers = *rec.Details.Passengers
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO ride_requests (id, session_id, sender, pickup_location, drop_location, route, date, time, passengers, additional_info)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.SessionID, rec.Source.Sender,
			rec.Details.PickupLocation, rec.Details.DropLocation, rec.Details.Route,
			rec.Details.Date, rec.Details.Time, passengers, rec.Details.AdditionalInfo,
		)
		if err != nil {
			return fmt.Errorf("insert ride request: %w", err)
		}
	case extraction.KindOffer:
		seats := 0
		if rec.Details.AvailableSeats != nil {
			seats = *rec.Details.AvailableSeats
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO ride_offers (id, session_id, sender, pickup_location, drop_location, route, date, time, available_seats, additional_info)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.SessionID, rec.Source.Sender,
			rec.Details.PickupLocation, rec.Details.DropLocation, rec.Details.Route,
			rec.Details.Date, rec.Details.Time, seats, rec.Details.AdditionalInfo,
		)
		if err != nil {
			return fmt.Errorf("insert ride offer: %w", err)
		}
	}
	return nil
}

// SaveMatch persists a scored match in pending status.
func (s *Store) SaveMatch(ctx context.Context, m match.Match) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (request_id, offer_id, match_type, match_score)
		VALUES ($1, $2, $3, $4)`,
		m.RequestID, m.OfferID, m.Type, m.Score,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// ActiveOfferCount reports active offers with free seats, optionally
// filtered by date. Used by the dashboard.
func (s *Store) ActiveOfferCount(ctx context.Context, date string) (int, error) {
	query := `SELECT count(*) FROM ride_offers WHERE is_active AND available_seats > seats_filled`
	args := []any{}
	if date != "" {
		query += ` AND date = $1`
		args = append(args, date)
	}

	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return n, nil
}

// MatchesForRequest returns all stored matches for a request, best first.
func (s *Store) MatchesForRequest(ctx context.Context, requestID string) ([]match.Match, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT request_id, offer_id, match_type, match_score
		FROM matches WHERE request_id = $1
		ORDER BY match_score DESC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		var m match.Match
		if err := rows.Scan(&m.RequestID, &m.OfferID, &m.Type, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
