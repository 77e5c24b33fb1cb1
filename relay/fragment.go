package relay

import "context"

// Fragment is one unit of partial provider output. A nil Text means the
// provider event carried no text at all, which is distinct from an empty
// string only for diagnostics: both are dropped by Filter.
type Fragment struct {
	Text *string
}

// TextFragment returns a Fragment carrying s, which may be empty.
func TextFragment(s string) Fragment {
	return Fragment{Text: &s}
}

// AbsentFragment returns a Fragment with no text.
func AbsentFragment() Fragment {
	return Fragment{}
}

// IsEmpty reports whether the fragment is absent or zero-length. Whitespace
// is content.
func (f Fragment) IsEmpty() bool {
	return f.Text == nil || *f.Text == ""
}

// String returns the fragment text, or "" when absent.
func (f Fragment) String() string {
	if f.Text == nil {
		return ""
	}
	return *f.Text
}

// Streamer produces fragments for a single prompt.
//
// Implementations MUST NOT close fragmentChan; the caller owns the channel
// lifecycle. A non-nil return means the stream failed after every fragment
// already sent.
type Streamer interface {
	StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- Fragment) error
}

// Completer returns a single completed response for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Fragment, error)
}

// Send delivers fragment on fragmentChan unless ctx is done first. Providers
// use it so an abandoned consumer never leaves them blocked.
func Send(ctx context.Context, fragmentChan chan<- Fragment, fragment Fragment) error {
	select {
	case fragmentChan <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
