package embedding

import (
	"context"
	"math"
	"sync"
	"time"
)

// startSlack is added to the window so that the time a provider observes a
// call never falls inside the window of a recorded start.
const startSlack = time.Millisecond

// startWindow admits at most limit starts in any rolling span.
//
// It keeps the last limit start times in a ring. A new start is admitted
// once the oldest of them is at least span old, so any limit+1 consecutive
// starts are at least span apart.
type startWindow struct {
	mu     sync.Mutex
	starts []time.Time
	next   int
	span   time.Duration
}

func newStartWindow(perSecond float64) *startWindow {
	limit := int(math.Floor(perSecond))
	if limit < 1 {
		limit = 1
	}
	return &startWindow{
		starts: make([]time.Time, limit),
		span:   time.Second + startSlack,
	}
}

// wait blocks until a start is admitted and records it.
func (w *startWindow) wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		oldest := w.starts[w.next]
		if oldest.IsZero() || now.Sub(oldest) >= w.span {
			w.starts[w.next] = now
			w.next = (w.next + 1) % len(w.starts)
			w.mu.Unlock()
			return nil
		}
		delay := w.span - now.Sub(oldest)
		w.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
