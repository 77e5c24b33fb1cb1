package relay

import (
	"io"
	"strings"
)

// Encoder writes events in the text/event-stream format.
//
// Field values are written after "field: " so that a leading space in the
// data survives the one space a conforming parser strips.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(event Event) error {
	var b strings.Builder
	if event.Id != "" {
		writeField(&b, "id", event.Id)
	}
	if event.Type != "" {
		writeField(&b, "event", event.Type)
	}
	for _, line := range splitLines(event.Data) {
		writeField(&b, "data", line)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(e.w, b.String())
	return err
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// splitLines breaks data on any SSE line terminator; each line becomes its
// own data field and the client rejoins them with "\n".
func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")
	return strings.Split(data, "\n")
}
