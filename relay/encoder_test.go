package relay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Encode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "plain",
			event:    Event{Data: "Hello"},
			expected: "data: Hello\n\n",
		},
		{
			name:     "structured",
			event:    Event{Id: "0", Type: EventTypeChatMessage, Data: "Hello"},
			expected: "id: 0\nevent: chat.message\ndata: Hello\n\n",
		},
		{
			name:     "leading space is preserved after the separator",
			event:    Event{Data: " there"},
			expected: "data:  there\n\n",
		},
		{
			name:     "multi line data",
			event:    Event{Id: "3", Type: EventTypeChatMessage, Data: "line one\nline two\r\nline three"},
			expected: "id: 3\nevent: chat.message\ndata: line one\ndata: line two\ndata: line three\n\n",
		},
		{
			name:     "newline only",
			event:    Event{Data: "\n"},
			expected: "data: \ndata: \n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, NewEncoder(&buf).Encode(tt.event))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestEncoder_WriteError(t *testing.T) {
	t.Parallel()
	err := NewEncoder(failingWriter{}).Encode(Event{Data: "x"})
	assert.EqualError(t, err, "broken pipe")
}
