package relay

// Filtered yields the text of every fragment that is present and non-empty,
// in arrival order. Upstream failure is passed through untouched.
type Filtered struct {
	source  Iterator[Fragment]
	current string
	dropped int
}

var _ Iterator[string] = (*Filtered)(nil)

func Filter(source Iterator[Fragment]) *Filtered {
	return &Filtered{source: source}
}

func (f *Filtered) Next() bool {
	for f.source.Next() {
		fragment := f.source.Current()
		if fragment.IsEmpty() {
			f.dropped++
			continue
		}
		f.current = *fragment.Text
		return true
	}
	return false
}

func (f *Filtered) Current() string {
	return f.current
}

func (f *Filtered) Err() error {
	return f.source.Err()
}

// Dropped returns how many absent or empty fragments have been skipped so far.
func (f *Filtered) Dropped() int {
	return f.dropped
}
