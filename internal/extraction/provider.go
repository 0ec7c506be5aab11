package extraction

import (
	"context"
	"fmt"

	"github.com/chat2carpool/carpoold/internal/chat"
)

// NewExtractor creates an extractor based on configuration.
func NewExtractor(cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case "gemini":
		return newGeminiExtractor(cfg)
	case "openai":
		return newOpenAIExtractor(cfg)
	case "heuristic":
		return NewHeuristicExtractor(), nil
	case "disabled":
		return &NoOpExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NoOpExtractor ignores every message. Used when extraction is disabled.
type NoOpExtractor struct{}

// ExtractMessage returns no record.
func (n *NoOpExtractor) ExtractMessage(_ context.Context, _ chat.Message) (*Record, error) {
	return nil, nil
}

// Available returns false for NoOpExtractor.
func (n *NoOpExtractor) Available() bool {
	return false
}

// Ensure NoOpExtractor implements Extractor.
var _ Extractor = (*NoOpExtractor)(nil)
