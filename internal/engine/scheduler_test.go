package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewSchedulerRejectsNonPositiveConcurrency(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewScheduler(n); err == nil {
			t.Errorf("NewScheduler(%d): expected error", n)
		}
	}
	if _, err := NewScheduler(1); err != nil {
		t.Fatalf("NewScheduler(1): %v", err)
	}
}

func TestExecuteRespectsConcurrencyCeiling(t *testing.T) {
	const (
		ceiling   = 5
		unitCount = 50
	)

	var inFlight, peak int32
	units := make([]Unit, unitCount)
	for i := range units {
		units[i] = Unit{
			Key: fmt.Sprintf("unit-%d", i),
			Run: func(ctx context.Context) (any, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return n, nil
			},
		}
	}

	scheduler, err := NewScheduler(ceiling)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	var results int
	for res := range scheduler.Execute(context.Background(), units) {
		if res.Err != nil {
			t.Errorf("unit %s: unexpected error %v", res.Key, res.Err)
		}
		results++
	}

	if results != unitCount {
		t.Fatalf("expected %d results, got %d", unitCount, results)
	}
	if got := atomic.LoadInt32(&peak); got > ceiling {
		t.Fatalf("observed %d concurrent units, ceiling is %d", got, ceiling)
	}
}

func TestExecuteStreamsInCompletionOrder(t *testing.T) {
	release := make(chan struct{})

	units := []Unit{
		{Key: "slow", Run: func(ctx context.Context) (any, error) {
			<-release
			return "slow", nil
		}},
		{Key: "fast", Run: func(ctx context.Context) (any, error) {
			return "fast", nil
		}},
	}

	scheduler, err := NewScheduler(2)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	results := scheduler.Execute(context.Background(), units)

	first := <-results
	if first.Key != "fast" {
		t.Fatalf("expected the fast unit first, got %q", first.Key)
	}

	close(release)
	second := <-results
	if second.Key != "slow" {
		t.Fatalf("expected the slow unit second, got %q", second.Key)
	}

	if _, open := <-results; open {
		t.Fatal("expected results channel closed after last unit")
	}
}

func TestExecuteIsolatesUnitFailures(t *testing.T) {
	boom := errors.New("unit failed")
	units := []Unit{
		{Key: "ok-1", Run: func(ctx context.Context) (any, error) { return 1, nil }},
		{Key: "bad", Run: func(ctx context.Context) (any, error) { return nil, boom }},
		{Key: "ok-2", Run: func(ctx context.Context) (any, error) { return 2, nil }},
	}

	scheduler, err := NewScheduler(1)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	got := map[string]Result{}
	for res := range scheduler.Execute(context.Background(), units) {
		got[res.Key] = res
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if !errors.Is(got["bad"].Err, boom) {
		t.Errorf("expected failed unit to carry its error, got %v", got["bad"].Err)
	}
	if got["ok-1"].Err != nil || got["ok-2"].Err != nil {
		t.Errorf("sibling units degraded: %v, %v", got["ok-1"].Err, got["ok-2"].Err)
	}
}

func TestExecuteStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started int32
	units := make([]Unit, 20)
	for i := range units {
		units[i] = Unit{
			Key: fmt.Sprintf("unit-%d", i),
			Run: func(ctx context.Context) (any, error) {
				atomic.AddInt32(&started, 1)
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
	}

	scheduler, err := NewScheduler(3)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	results := scheduler.Execute(ctx, units)

	cancel()

	var count int
	for range results {
		count++
	}
	if count > len(units) {
		t.Fatalf("got %d results for %d units", count, len(units))
	}
	// With the permit pool at 3, no later unit may start once ctx is done.
	if got := atomic.LoadInt32(&started); got > 20 {
		t.Fatalf("started %d units", got)
	}
}

func TestExecuteSkipsNilRun(t *testing.T) {
	units := []Unit{
		{Key: "nil-run"},
		{Key: "real", Run: func(ctx context.Context) (any, error) { return "ok", nil }},
	}

	scheduler, err := NewScheduler(2)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	var keys []string
	for res := range scheduler.Execute(context.Background(), units) {
		keys = append(keys, res.Key)
	}
	if len(keys) != 1 || keys[0] != "real" {
		t.Fatalf("expected only the runnable unit, got %v", keys)
	}
}

func TestExecuteNoUnits(t *testing.T) {
	scheduler, err := NewScheduler(5)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	for res := range scheduler.Execute(context.Background(), nil) {
		t.Fatalf("unexpected result %v", res)
	}
}
