package llm

import (
	"context"
	"net/http"
	"testing"

	"chatrelay/relay"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func ptr[T any](v T) *T {
	return &v
}

// collectFragments runs a stream to completion with a buffered channel and
// returns everything the provider sent.
func collectFragments(t *testing.T, streamer relay.Streamer, prompt string) ([]relay.Fragment, error) {
	t.Helper()
	fragmentChan := make(chan relay.Fragment, 256)
	err := streamer.StreamFragments(context.Background(), prompt, fragmentChan)
	close(fragmentChan)

	var fragments []relay.Fragment
	for f := range fragmentChan {
		fragments = append(fragments, f)
	}
	return fragments, err
}

// fragmentTexts returns the text of every present fragment, including empty ones.
func fragmentTexts(fragments []relay.Fragment) []string {
	texts := []string{}
	for _, f := range fragments {
		if f.Text != nil {
			texts = append(texts, *f.Text)
		}
	}
	return texts
}

func absentCount(fragments []relay.Fragment) int {
	n := 0
	for _, f := range fragments {
		if f.Text == nil {
			n++
		}
	}
	return n
}

// writeSSE writes each record as one server-sent event and flushes.
func writeSSE(t *testing.T, w http.ResponseWriter, records ...string) {
	t.Helper()
	flusher, ok := w.(http.Flusher)
	require.True(t, ok)
	for _, record := range records {
		_, err := w.Write([]byte(record + "\n\n"))
		require.NoError(t, err)
		flusher.Flush()
	}
}

func attributeKV(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}
