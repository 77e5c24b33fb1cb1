package llm

import (
	"context"
	"errors"
	"testing"

	"chatrelay/common"
	"chatrelay/relay"
	"chatrelay/secret_manager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		cfg          common.ProviderConfig
		expectedName string
		expectedType any
	}{
		{name: "openai", cfg: common.ProviderConfig{Type: common.ProviderTypeOpenAI}, expectedName: "openai", expectedType: &OpenAIProvider{}},
		{name: "anthropic", cfg: common.ProviderConfig{Type: common.ProviderTypeAnthropic}, expectedName: "anthropic", expectedType: &AnthropicProvider{}},
		{name: "google", cfg: common.ProviderConfig{Type: common.ProviderTypeGoogle}, expectedName: "google", expectedType: &GoogleProvider{}},
		{
			name:         "openai compatible",
			cfg:          common.ProviderConfig{Type: common.ProviderTypeOpenAICompatible, Name: "ollama", BaseURL: "http://localhost:11434/v1", Model: "llama3.2"},
			expectedName: "ollama",
			expectedType: &OpenAICompatibleProvider{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider, err := NewProvider(tt.cfg, &secret_manager.MockSecretManager{})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, provider.Name())

			traced, ok := provider.(*tracedProvider)
			require.True(t, ok)
			assert.IsType(t, tt.expectedType, traced.Provider)
		})
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Setenv("CHATRELAY_ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewProvider(common.ProviderConfig{Type: common.ProviderTypeAnthropic}, &secret_manager.EnvSecretManager{})
	require.Error(t, err)
	assert.ErrorIs(t, err, secret_manager.ErrSecretNotFound)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestNewProvider_CompatibleWithoutKey(t *testing.T) {
	t.Setenv("CHATRELAY_LOCAL_API_KEY", "")
	t.Setenv("LOCAL_API_KEY", "")

	cfg := common.ProviderConfig{Type: common.ProviderTypeOpenAICompatible, Name: "local", BaseURL: "http://localhost:8000/v1", Model: "qwen"}
	provider, err := NewProvider(cfg, &secret_manager.EnvSecretManager{})
	require.NoError(t, err)
	assert.Equal(t, "local", provider.Name())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := NewProvider(common.ProviderConfig{Type: "bogus"}, &secret_manager.MockSecretManager{})
	assert.ErrorContains(t, err, "invalid provider type")
}

type stubProvider struct {
	fragments []relay.Fragment
	err       error
}

func (s stubProvider) Name() string { return "stub" }

func (s stubProvider) Complete(ctx context.Context, prompt string) (relay.Fragment, error) {
	if len(s.fragments) == 0 {
		return relay.AbsentFragment(), s.err
	}
	return s.fragments[0], s.err
}

func (s stubProvider) StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- relay.Fragment) error {
	for _, f := range s.fragments {
		if err := relay.Send(ctx, fragmentChan, f); err != nil {
			return err
		}
	}
	return s.err
}

func newRecordedProvider(p Provider) (*tracedProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return &tracedProvider{Provider: p, tracer: tp.Tracer("test")}, recorder
}

func TestTraced_StreamFragments(t *testing.T) {
	t.Parallel()
	providerErr := errors.New("boom")
	traced, recorder := newRecordedProvider(stubProvider{
		fragments: []relay.Fragment{relay.TextFragment("a")},
		err:       providerErr,
	})

	fragments, err := collectFragments(t, traced, "Hi")
	assert.ErrorIs(t, err, providerErr)
	assert.Equal(t, []string{"a"}, fragmentTexts(fragments))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Provider.StreamFragments", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attributeKV("llm.provider", "stub"))
}

func TestTraced_Complete(t *testing.T) {
	t.Parallel()
	traced, recorder := newRecordedProvider(stubProvider{fragments: []relay.Fragment{relay.TextFragment("ok")}})

	fragment, err := traced.Complete(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", fragment.String())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Provider.Complete", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTraced_DoesNotDoubleWrap(t *testing.T) {
	t.Parallel()
	once := Traced(stubProvider{})
	assert.Same(t, once, Traced(once))
}
