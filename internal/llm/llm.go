package llm

import (
	"context"
	"fmt"

	"github.com/sozercan/insight-gateway/internal/config"
)

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai", "azure":
		o, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Unavailable fails every call with the reason it could not be built. It
// keeps the gateway serving when LLM credentials are missing.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Name() string {
	return "unavailable"
}

func (u Unavailable) Complete(context.Context, string, ...Option) (*Response, error) {
	return nil, fmt.Errorf("llm provider unavailable: %w", u.Reason)
}
