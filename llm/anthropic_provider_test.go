package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatrelay/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anthropicEvent(eventType, data string) string {
	return "event: " + eventType + "\ndata: " + data
}

var anthropicPreamble = []string{
	anthropicEvent("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":1}}}`),
	anthropicEvent("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`),
}

func anthropicTextDelta(text string) string {
	return anthropicEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":`+jsonString(text)+`}}`)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newAnthropicTestServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		handler(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAnthropicProvider_StreamFragments(t *testing.T) {
	t.Parallel()
	server := newAnthropicTestServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, "claude-sonnet-4-5", body["model"])
		assert.EqualValues(t, anthropicDefaultMaxTokens, body["max_tokens"])

		w.Header().Set("Content-Type", "text/event-stream")
		records := append([]string{}, anthropicPreamble...)
		records = append(records,
			anthropicTextDelta("Hel"),
			anthropicTextDelta(""),
			anthropicTextDelta(" lo"),
			anthropicEvent("content_block_stop", `{"type":"content_block_stop","index":0}`),
			anthropicEvent("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":2}}`),
			anthropicEvent("message_stop", `{"type":"message_stop"}`),
		)
		writeSSE(t, w, records...)
	})

	provider := NewAnthropicProvider("test-key", Options{BaseURL: server.URL})
	fragments, err := collectFragments(t, provider, "Hi")
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "", " lo"}, fragmentTexts(fragments))
	assert.Equal(t, 5, absentCount(fragments))
}

func TestAnthropicProvider_StreamFragments_ErrorEvent(t *testing.T) {
	t.Parallel()
	server := newAnthropicTestServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.Header().Set("Content-Type", "text/event-stream")
		records := append([]string{}, anthropicPreamble...)
		records = append(records,
			anthropicTextDelta("a"),
			anthropicTextDelta("b"),
			anthropicEvent("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`),
		)
		writeSSE(t, w, records...)
	})

	provider := NewAnthropicProvider("test-key", Options{BaseURL: server.URL})
	fragments, err := collectFragments(t, provider, "Hi")
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, fragmentTexts(fragments))

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "anthropic", providerErr.Provider)
	assert.Contains(t, err.Error(), "Overloaded")
}

func TestAnthropicProvider_Complete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		content  string
		expected relay.Fragment
	}{
		{name: "text", content: `[{"type":"text","text":"Hello!"}]`, expected: relay.TextFragment("Hello!")},
		{name: "multiple text blocks", content: `[{"type":"text","text":"Hello"},{"type":"text","text":" there"}]`, expected: relay.TextFragment("Hello there")},
		{name: "no content", content: `[]`, expected: relay.AbsentFragment()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := newAnthropicTestServer(t, func(w http.ResponseWriter, body map[string]any) {
				assert.Equal(t, "claude-haiku-4-5", body["model"])
				assert.EqualValues(t, 256, body["max_tokens"])
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5","content":` + tt.content + `,"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":2}}`))
			})

			provider := NewAnthropicProvider("test-key", Options{
				BaseURL:   server.URL,
				Model:     "claude-haiku-4-5",
				MaxTokens: 256,
			})
			fragment, err := provider.Complete(context.Background(), "Hi")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fragment)
		})
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	t.Parallel()
	server := newAnthropicTestServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	provider := NewAnthropicProvider("test-key", Options{BaseURL: server.URL})
	_, err := provider.Complete(context.Background(), "Hi")
	require.Error(t, err)

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
}
