package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/studyquiz/internal/logging"
	"github.com/abhisek/studyquiz/internal/store"
)

// NewFromConfig builds a Dispatcher with one provider per tier. Each
// provider is wrapped with logging, and with retry when
// cfg.Retry.MaxAttempts > 1. A vendor without a credential is still
// installed: it fails each request with *ConfigError and makes no network
// call.
func NewFromConfig(ctx context.Context, cfg Config, events store.EventRepo, log *logging.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pro, err := newVendorProvider(ctx, cfg.ProVendor, cfg, DefaultProModel)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.ProVendor, err)
	}
	free, err := newVendorProvider(ctx, cfg.FreeVendor, cfg, DefaultFreeModel)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.FreeVendor, err)
	}

	wrap := func(p Provider, tier Tier) Provider {
		// caller → retry → logging → base
		p = WithLogging(p, tier, events, log)
		if cfg.Retry.MaxAttempts > 1 {
			p = WithRetry(p, cfg.Retry)
		}
		return p
	}

	return NewDispatcher(wrap(pro, TierPro), wrap(free, TierFree), cfg.Timeout()), nil
}

func newVendorProvider(ctx context.Context, vendor string, cfg Config, mockModel string) (Provider, error) {
	var vc VendorConfig
	switch vendor {
	case "openai":
		vc = cfg.OpenAI
	case "anthropic":
		vc = cfg.Anthropic
	case "gemini":
		vc = cfg.Gemini
	case "openrouter":
		vc = cfg.OpenRouter
	case "mock":
		return NewMockProvider().WithModel(mockModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM vendor: %q", vendor)
	}

	if vc.APIKey == "" {
		return &unconfiguredProvider{vendor: vendor, model: vc.Model}, nil
	}

	switch vendor {
	case "openai":
		return NewOpenAIProvider(vc)
	case "anthropic":
		return NewAnthropicProvider(vc)
	case "gemini":
		return NewGeminiProvider(ctx, vc)
	default:
		return NewOpenRouterProvider(vc)
	}
}

// unconfiguredProvider stands in for a vendor whose credential is missing.
type unconfiguredProvider struct {
	vendor string
	model  string
}

func (p *unconfiguredProvider) Generate(context.Context, Request) (*Response, error) {
	return nil, &ConfigError{
		Provider: p.vendor,
		Msg:      keyEnvName(p.vendor) + " is not set.",
	}
}

func (p *unconfiguredProvider) Name() string { return p.vendor }

func (p *unconfiguredProvider) ModelID() string { return p.model }
