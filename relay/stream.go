package relay

import "context"

// Iterator is a pull-based sequence with the same Next/Current/Err shape the
// provider SDK streams use. Err is only meaningful once Next returns false.
type Iterator[T any] interface {
	Next() bool
	Current() T
	Err() error
}

// Fragments iterates over the fragments of one provider stream. The provider
// runs in its own goroutine and hands each fragment over an unbuffered
// channel, so it never gets ahead of the consumer by more than one fragment.
type Fragments struct {
	fragmentChan chan Fragment
	cancel       context.CancelFunc

	// written by the producer goroutine before fragmentChan is closed
	err error

	current Fragment
	done    bool
}

var _ Iterator[Fragment] = (*Fragments)(nil)

// Open starts streamer for prompt. The returned iterator owns a child of ctx;
// Close must be called to release it.
func Open(ctx context.Context, streamer Streamer, prompt string) *Fragments {
	ctx, cancel := context.WithCancel(ctx)
	f := &Fragments{
		fragmentChan: make(chan Fragment),
		cancel:       cancel,
	}

	go func() {
		defer close(f.fragmentChan)
		f.err = streamer.StreamFragments(ctx, prompt, f.fragmentChan)
	}()

	return f
}

func (f *Fragments) Next() bool {
	if f.done {
		return false
	}
	fragment, ok := <-f.fragmentChan
	if !ok {
		f.done = true
		return false
	}
	f.current = fragment
	return true
}

func (f *Fragments) Current() Fragment {
	return f.current
}

func (f *Fragments) Err() error {
	if !f.done {
		return nil
	}
	return f.err
}

// Close stops the producer and waits for it to return. Fragments still in
// flight are discarded.
func (f *Fragments) Close() {
	f.cancel()
	if f.done {
		return
	}
	for range f.fragmentChan {
	}
	f.done = true
}
