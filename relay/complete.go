package relay

import (
	"context"

	"golang.org/x/sync/semaphore"
)

const DefaultCompleteWorkers = 16

// CompletePool bounds the number of non-streaming provider calls in flight,
// keeping slow blocking provider calls from piling up without limit.
type CompletePool struct {
	sem *semaphore.Weighted
}

func NewCompletePool(workers int) *CompletePool {
	if workers <= 0 {
		workers = DefaultCompleteWorkers
	}
	return &CompletePool{sem: semaphore.NewWeighted(int64(workers))}
}

// Complete waits for a free slot, then asks completer for a single response.
// An absent result becomes "". Provider errors are returned unchanged.
func (p *CompletePool) Complete(ctx context.Context, completer Completer, prompt string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	fragment, err := completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return fragment.String(), nil
}
