package llm

import (
	"fmt"
	"net/http"
	"time"

	"chatrelay/common"
	"chatrelay/relay"
	"chatrelay/secret_manager"
)

// Provider relays a single user message to an LLM vendor, either as one
// complete reply or as a stream of fragments.
//
// StreamFragments MUST NOT close fragmentChan; the caller owns the channel
// lifecycle. Vendor events that carry no text are sent as absent fragments.
type Provider interface {
	Name() string
	relay.Streamer
	relay.Completer
}

// Options are the per-process request settings shared by all adapters.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	BaseURL     string
	Timeout     time.Duration
}

func optionsFromConfig(cfg common.ProviderConfig) Options {
	return Options{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
	}
}

func (o Options) modelOrDefault(defaultModel string) string {
	if o.Model != "" {
		return o.Model
	}
	return defaultModel
}

func (o Options) httpClient() *http.Client {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

// NewProvider builds the adapter selected by cfg.Type, reading its API key
// from the <NAME>_API_KEY secret, and wraps it with tracing.
func NewProvider(cfg common.ProviderConfig, secrets secret_manager.SecretManager) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiKey, err := secrets.GetSecret(cfg.SecretName())
	if err != nil {
		// local openai-compatible servers commonly run without auth
		if cfg.Type != common.ProviderTypeOpenAICompatible {
			return nil, fmt.Errorf("failed to get %s API key: %w", cfg.ProviderName(), err)
		}
		apiKey = ""
	}

	options := optionsFromConfig(cfg)
	var provider Provider
	switch cfg.Type {
	case common.ProviderTypeOpenAI:
		provider = NewOpenAIProvider(apiKey, options)
	case common.ProviderTypeAnthropic:
		provider = NewAnthropicProvider(apiKey, options)
	case common.ProviderTypeGoogle:
		provider, err = NewGoogleProvider(apiKey, options)
		if err != nil {
			return nil, err
		}
	case common.ProviderTypeOpenAICompatible:
		provider = NewOpenAICompatibleProvider(cfg.ProviderName(), apiKey, options)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}

	return Traced(provider), nil
}
