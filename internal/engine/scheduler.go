// Package engine runs audit work units concurrently under a bounded permit
// pool and streams their results in completion order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"ghaudit/internal/logging"
)

var unitsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ghaudit_units_in_flight",
	Help: "Number of audit units currently holding a concurrency permit",
})

// Scheduler fans out units subject to a fixed concurrency ceiling. Each
// Scheduler owns its permit pool, so concurrent audit runs do not throttle
// each other.
type Scheduler struct {
	concurrency int
	log         zerolog.Logger
}

func NewScheduler(concurrency int) (*Scheduler, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	return &Scheduler{
		concurrency: concurrency,
		log:         logging.Component("engine"),
	}, nil
}

// Execute streams one Result per unit in the order units finish.
//
// Channel semantics:
//   - In the normal (non-canceled) case, exactly one Result is sent per unit.
//   - Results arrive in completion order, not submission order.
//   - At most the configured ceiling of units run concurrently; a unit holds
//     its permit for its entire lifetime, backoff sleeps included, and
//     releases it unconditionally.
//   - A unit error degrades only that unit (Result.Err set, Payload nil);
//     siblings and the scheduler keep going.
//   - On context cancellation the scheduler stops starting units, in-flight
//     units observe the cancellation through their own ctx, and fewer than
//     len(units) results may be emitted.
//   - The results channel is always closed.
//
// The channel is unbuffered: a slow consumer exerts backpressure on unit
// completion rather than queueing results without bound.
func (s *Scheduler) Execute(ctx context.Context, units []Unit) <-chan Result {
	results := make(chan Result)

	go func() {
		defer close(results)

		if s == nil || ctx == nil {
			return
		}

		sem := make(chan struct{}, s.concurrency)
		var wg sync.WaitGroup

	scheduleLoop:
		for _, u := range units {
			if u.Run == nil {
				continue
			}
			select {
			case sem <- struct{}{}:
				// permit acquired
			case <-ctx.Done():
				break scheduleLoop
			}

			unitsInFlight.Inc()
			wg.Add(1)
			go func(u Unit) {
				defer wg.Done()
				defer func() {
					unitsInFlight.Dec()
					<-sem
				}()

				payload, err := u.Run(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					s.log.Warn().
						Str("unit", u.Key).
						Err(err).
						Msg("unit degraded")
				}

				select {
				case results <- Result{Key: u.Key, Payload: payload, Err: err}:
				case <-ctx.Done():
				}
			}(u)
		}

		wg.Wait()
	}()

	return results
}
