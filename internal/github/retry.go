package github

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate-limit retry handling.
var (
	rateLimitRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghaudit_rate_limit_retries_total",
		Help: "Total number of requests retried after a 403 rate-limit response",
	})

	rateLimitBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ghaudit_rate_limit_backoff_seconds",
		Help:    "Backoff duration before rate-limit retries",
		Buckets: []float64{1, 5, 15, 30, 60, 90, 120},
	})

	rateLimitExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghaudit_rate_limit_exhausted_total",
		Help: "Total number of requests that spent their whole retry budget rate-limited",
	})
)

const (
	// defaultMaxRetries is the number of backoff-then-retry cycles before the
	// final best-effort attempt.
	defaultMaxRetries = 3

	// maxBackoff caps header-derived waits so a far-future reset timestamp
	// cannot stall a unit indefinitely.
	maxBackoff = 120 * time.Second

	// fallbackBackoffStep is multiplied by the attempt number when the remote
	// supplies no reset timestamp.
	fallbackBackoffStep = 30 * time.Second
)

// retryTransport retries requests rejected with HTTP 403, GitHub's rate-limit
// signal, waiting out the remote-provided reset timestamp between attempts.
//
// Contract:
//   - Only 403 responses are retried. Any other status, including 5xx, is
//     returned to the caller immediately for interpretation.
//   - Transport errors are returned immediately; retry is scoped strictly to
//     the rate-limit condition.
//   - After maxRetries backoff cycles the request is issued one final time and
//     that response is returned as-is, even if it is another 403.
//   - Backoff sleeps honor context cancellation.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	log        zerolog.Logger

	// now and sleep are test seams.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryTransport(base http.RoundTripper, log zerolog.Logger) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{
		base:       base,
		maxRetries: defaultMaxRetries,
		log:        log,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		resp, err := t.base.RoundTrip(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusForbidden {
			return resp, nil
		}

		wait := t.backoffFor(resp, attempt)
		drainAndClose(resp.Body)

		rateLimitRetriesTotal.Inc()
		rateLimitBackoffSeconds.Observe(wait.Seconds())
		t.log.Debug().
			Str("url", req.URL.Path).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("rate limited, backing off")

		if err := t.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	// Budget spent: issue one last request and hand back whatever arrives.
	// Callers must still status-check.
	rateLimitExhaustedTotal.Inc()
	t.log.Warn().
		Str("url", req.URL.Path).
		Int("max_retries", t.maxRetries).
		Msg("rate-limit retries exhausted")
	return t.base.RoundTrip(req.Clone(ctx))
}

// backoffFor derives one wait duration from a 403 response. With an
// X-RateLimit-Reset header the wait runs to the reset instant, clamped to
// [1s, maxBackoff]. Without one it grows linearly with the attempt number.
func (t *retryTransport) backoffFor(resp *http.Response, attempt int) time.Duration {
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			wait := time.Unix(epoch, 0).Sub(t.now())
			if wait < time.Second {
				wait = time.Second
			}
			if wait > maxBackoff {
				wait = maxBackoff
			}
			return wait
		}
	}
	return time.Duration(attempt) * fallbackBackoffStep
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
