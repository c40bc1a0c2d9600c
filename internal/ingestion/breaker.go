package ingestion

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/fetch"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

// newBreaker trips after maxFailures consecutive days whose downloads were
// exhausted. Data and storage errors do not count against the server.
func newBreaker(runType model.RunType, maxFailures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker[Outcome] {
	return gobreaker.NewCircuitBreaker[Outcome](gobreaker.Settings{
		Name:        "hycom-" + runType.String(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, fetch.ErrFetchExhausted)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("backfill breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
