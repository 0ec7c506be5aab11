package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/chat2carpool/carpoold/internal/chat"
	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/match"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ExtractRequest is the request body for POST /api/v1/extract.
type ExtractRequest struct {
	ChatText  string `json:"chat_text"`
	SessionID string `json:"session_id,omitempty"`
}

// ExtractResponse is the response body for POST /api/v1/extract.
type ExtractResponse struct {
	SessionID    string              `json:"session_id"`
	MessageCount int                 `json:"message_count"`
	Records      []extraction.Record `json:"records"`
	Errors       []string            `json:"errors,omitempty"`
}

// RecordsResponse is the response body for GET /api/v1/sessions/:id/records.
type RecordsResponse struct {
	SessionID string              `json:"session_id"`
	Records   []extraction.Record `json:"records"`
}

// MatchResponse is the response body for POST /api/v1/sessions/:id/match.
type MatchResponse struct {
	SessionID string        `json:"session_id"`
	Matches   []match.Match `json:"matches"`
	Count     int           `json:"count"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "carpoold"})
}

// handleExtract parses a chat export, runs extraction on it, and appends
// the results to the session. Per-batch extraction failures are reported
// in the response body; only a malformed export fails the request.
func (s *Server) handleExtract(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid extract request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ChatText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chat_text field is required")
	}

	messages, err := chat.Parse(req.ChatText)
	if err != nil {
		var perr *chat.ParseError
		if errors.As(err, &perr) {
			return echo.NewHTTPError(http.StatusBadRequest, perr.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, "unable to parse chat export")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.sessions.Touch(sessionID)

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.requestTimeout)
	defer cancel()

	result := s.engine.ExtractChat(ctx, sessionID, messages)
	s.sessions.Append(sessionID, result.Records)

	resp := ExtractResponse{
		SessionID:    sessionID,
		MessageCount: len(messages),
		Records:      result.Records,
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	if resp.Records == nil {
		resp.Records = []extraction.Record{}
	}

	s.logger.Debug("extraction complete",
		zap.String("session_id", sessionID),
		zap.Int("messages", len(messages)),
		zap.Int("records", len(resp.Records)),
		zap.Int("batch_errors", len(resp.Errors)),
	)

	return c.JSON(http.StatusOK, resp)
}

// handleSessionRecords returns every record extracted so far for a session.
func (s *Server) handleSessionRecords(c echo.Context) error {
	sessionID := c.Param("id")

	records, ok := s.sessions.Records(sessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if records == nil {
		records = []extraction.Record{}
	}

	return c.JSON(http.StatusOK, RecordsResponse{
		SessionID: sessionID,
		Records:   records,
	})
}

// handleSessionMatch pairs requests against offers within a session. When a
// database or publisher is configured the results are persisted and
// announced; failures there are logged but do not fail the request.
func (s *Server) handleSessionMatch(c echo.Context) error {
	sessionID := c.Param("id")

	records, ok := s.sessions.Records(sessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	matches := s.matcher.FindMatches(records)

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.requestTimeout)
	defer cancel()

	if s.rides != nil {
		for _, rec := range records {
			if err := s.rides.SaveRecord(ctx, rec); err != nil {
				s.logger.Warn("persist record failed",
					zap.String("record_id", rec.ID), zap.Error(err))
			}
		}
		for _, m := range matches {
			if err := s.rides.SaveMatch(ctx, m); err != nil {
				s.logger.Warn("persist match failed",
					zap.String("request_id", m.RequestID), zap.Error(err))
			}
		}
	}

	for _, m := range matches {
		if err := s.publisher.PublishMatch(sessionID, m); err != nil {
			// already logged by the publisher
			continue
		}
	}

	if matches == nil {
		matches = []match.Match{}
	}

	return c.JSON(http.StatusOK, MatchResponse{
		SessionID: sessionID,
		Matches:   matches,
		Count:     len(matches),
	})
}
