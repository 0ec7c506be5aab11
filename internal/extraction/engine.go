package extraction

import (
	"context"
	"time"

	"github.com/chat2carpool/carpoold/internal/chat"
	"github.com/chat2carpool/carpoold/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keywordOverrideThreshold: LLM classifications below this confidence are
// re-checked against the keyword lists, which win when they disagree.
const keywordOverrideThreshold = 0.6

// Engine runs extraction over a whole chat: it windows messages into
// batches, calls the configured extractor per message, and falls back to the
// heuristic extractor when an LLM call fails. A failed batch is reported in
// the result and does not stop the remaining batches.
type Engine struct {
	extractor Extractor
	fallback  *HeuristicExtractor
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewEngine creates an extraction engine. The heuristic fallback is wired
// automatically unless the primary extractor is already the heuristic.
func NewEngine(extractor Extractor, batchSize int, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if batchSize < 1 {
		batchSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var fallback *HeuristicExtractor
	if _, isHeuristic := extractor.(*HeuristicExtractor); !isHeuristic {
		if _, isNoOp := extractor.(*NoOpExtractor); !isNoOp {
			fallback = NewHeuristicExtractor()
		}
	}

	return &Engine{
		extractor: extractor,
		fallback:  fallback,
		batchSize: batchSize,
		logger:    logger,
		metrics:   m,
	}
}

// ExtractChat extracts carpool records from an ordered message sequence.
//
// Records preserve the source chat's chronological message order. An empty
// chat yields an empty record list and no errors. Batch failures (context
// cancellation aside) are collected in Result.Errors; the other batches
// still run.
func (e *Engine) ExtractChat(ctx context.Context, sessionID string, msgs []chat.Message) Result {
	result := Result{Records: []Record{}}

	batchNum := 0
	for start := 0; start < len(msgs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		batch := msgs[start:end]

		records, err := e.extractBatch(ctx, batch)
		if err != nil {
			e.logger.Warn("extraction batch failed",
				zap.Int("batch", batchNum),
				zap.Int("first_index", batch[0].Index),
				zap.Int("last_index", batch[len(batch)-1].Index),
				zap.Error(err))
			if e.metrics != nil {
				e.metrics.ExtractBatches.WithLabelValues("error").Inc()
			}
			result.Errors = append(result.Errors, &ExtractionError{
				Batch:      batchNum,
				FirstIndex: batch[0].Index,
				LastIndex:  batch[len(batch)-1].Index,
				Err:        err,
			})
			batchNum++
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for _, rec := range records {
			result.Records = append(result.Records, e.finalize(rec, sessionID))
		}
		if e.metrics != nil {
			e.metrics.ExtractBatches.WithLabelValues("ok").Inc()
		}
		batchNum++
	}

	return result
}

// extractBatch processes one window of messages. A per-message LLM failure
// switches that message to the heuristic fallback; without a fallback the
// whole batch fails.
func (e *Engine) extractBatch(ctx context.Context, batch []chat.Message) ([]Record, error) {
	records := make([]Record, 0, len(batch))

	for _, msg := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		rec, err := e.extractor.ExtractMessage(ctx, msg)
		if e.metrics != nil {
			e.metrics.LLMDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if e.fallback == nil {
				return nil, err
			}
			e.logger.Debug("falling back to heuristic extraction",
				zap.Int("message_index", msg.Index),
				zap.Error(err))
			if e.metrics != nil {
				e.metrics.ExtractBatches.WithLabelValues("fallback").Inc()
			}
			rec, err = e.fallback.ExtractMessage(ctx, msg)
			if err != nil {
				return nil, err
			}
		}

		if rec == nil {
			continue
		}

		e.applyKeywordOverride(rec)
		records = append(records, *rec)
	}

	return records, nil
}

// applyKeywordOverride re-classifies low-confidence results with the keyword
// lists. Keyword hits are more reliable than an unsure model.
func (e *Engine) applyKeywordOverride(rec *Record) {
	if rec.Confidence >= keywordOverrideThreshold {
		return
	}
	if kind, confidence, ok := ClassifyKind(rec.Source.Text); ok && kind != rec.Kind {
		rec.Kind = kind
		rec.Confidence = confidence
		rec.Reasoning = "keyword override"
	}
}

// finalize assigns identity and completeness to an extracted record.
func (e *Engine) finalize(rec Record, sessionID string) Record {
	rec.ID = uuid.NewString()
	rec.SessionID = sessionID
	rec.CreatedAt = time.Now().UTC()

	// A stated route implies the endpoints: first stop is the pickup, last
	// stop is the drop.
	if len(rec.Details.Route) >= 2 {
		if rec.Details.PickupLocation == "" {
			rec.Details.PickupLocation = rec.Details.Route[0]
		}
		if rec.Details.DropLocation == "" {
			rec.Details.DropLocation = rec.Details.Route[len(rec.Details.Route)-1]
		}
	}

	// Requests default to one passenger.
	if rec.Kind == KindRequest && rec.Details.Passengers == nil {
		one := 1
		rec.Details.Passengers = &one
	}

	rec.MissingFields = missingFields(rec.Kind, rec.Details)
	rec.Complete = len(rec.MissingFields) == 0

	if e.metrics != nil {
		e.metrics.IntentTotal.WithLabelValues(string(rec.Kind)).Inc()
	}

	return rec
}
