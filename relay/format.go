package relay

import (
	"context"
	"strconv"
)

// EventTypeChatMessage tags every structured event. Clients resuming a
// stream by last-seen id depend on it, so it is not configurable.
const EventTypeChatMessage = "chat.message"

// Mode selects the wire shape of a streamed response.
type Mode string

const (
	// ModePlain sends each fragment as a bare data record.
	ModePlain Mode = "plain"
	// ModeStructured sends each fragment with an id and event type.
	ModeStructured Mode = "structured"
)

// Event is one record pushed to the client. Id and Type are empty in plain
// mode.
type Event struct {
	Id   string
	Type string
	Data string
}

func PlainEvent(indexed Indexed) Event {
	return Event{Data: indexed.Text}
}

func StructuredEvent(indexed Indexed) Event {
	return Event{
		Id:   strconv.Itoa(indexed.Index),
		Type: EventTypeChatMessage,
		Data: indexed.Text,
	}
}

// Pipeline is Filter -> Sequence -> format over one fragment source.
type Pipeline struct {
	filtered  *Filtered
	sequencer *Sequencer
	format    func(Indexed) Event
	current   Event
	close     func()
}

var _ Iterator[Event] = (*Pipeline)(nil)

// Events builds a pipeline over source in the given mode.
func Events(source Iterator[Fragment], mode Mode) *Pipeline {
	format := PlainEvent
	if mode == ModeStructured {
		format = StructuredEvent
	}
	filtered := Filter(source)
	return &Pipeline{
		filtered:  filtered,
		sequencer: Sequence(filtered),
		format:    format,
		close:     func() {},
	}
}

// Stream opens streamer for prompt and returns the formatted event pipeline.
// Callers must Close the pipeline when done, including on early return.
func Stream(ctx context.Context, streamer Streamer, prompt string, mode Mode) *Pipeline {
	fragments := Open(ctx, streamer, prompt)
	p := Events(fragments, mode)
	p.close = fragments.Close
	return p
}

func (p *Pipeline) Next() bool {
	if !p.sequencer.Next() {
		return false
	}
	p.current = p.format(p.sequencer.Current())
	return true
}

func (p *Pipeline) Current() Event {
	return p.current
}

func (p *Pipeline) Err() error {
	return p.sequencer.Err()
}

// Emitted returns the number of events produced so far.
func (p *Pipeline) Emitted() int {
	return p.sequencer.Count()
}

// Dropped returns the number of fragments the filter discarded so far.
func (p *Pipeline) Dropped() int {
	return p.filtered.Dropped()
}

func (p *Pipeline) Close() {
	p.close()
}
