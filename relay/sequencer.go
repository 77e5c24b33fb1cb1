package relay

// Indexed is a fragment paired with its zero-based position among the
// fragments that survived filtering.
type Indexed struct {
	Index int
	Text  string
}

// Sequencer numbers the texts of its source 0, 1, 2, ... in arrival order.
// The counter belongs to the Sequencer; build a new one per stream.
type Sequencer struct {
	source  Iterator[string]
	next    int
	current Indexed
}

var _ Iterator[Indexed] = (*Sequencer)(nil)

func Sequence(source Iterator[string]) *Sequencer {
	return &Sequencer{source: source}
}

func (s *Sequencer) Next() bool {
	if !s.source.Next() {
		return false
	}
	s.current = Indexed{Index: s.next, Text: s.source.Current()}
	s.next++
	return true
}

func (s *Sequencer) Current() Indexed {
	return s.current
}

func (s *Sequencer) Err() error {
	return s.source.Err()
}

// Count returns the number of indices handed out so far.
func (s *Sequencer) Count() int {
	return s.next
}
