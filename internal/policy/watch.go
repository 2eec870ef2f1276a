package policy

import (
	"context"
	"time"
)

const DefaultRefreshInterval = 60 * time.Second

// Watch evaluates the appointment immediately and then every interval,
// sending each status on the returned channel. The channel is closed once
// ctx is done.
func (e *Evaluator) Watch(ctx context.Context, date, clock string, now func() time.Time, interval time.Duration) <-chan Status {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if now == nil {
		now = time.Now
	}

	out := make(chan Status)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case out <- e.Evaluate(date, clock, now()):
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
