package triad

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Prober is the probe surface a seat exposes to the gate.
type Prober interface {
	ID() string
	Ping(ctx context.Context) error
}

/*
Status is the transient verdict of one availability check. It is recomputed
on every check and never persisted.
*/
type Status struct {
	Healthy     bool
	FailedSeats []string
	Latency     map[string]time.Duration
}

/*
Gate runs the pre-flight availability check across the triad's seats. All
seats are probed in parallel, so the gate's worst-case latency is the
slowest seat's timeout, not the sum of all timeouts.
*/
type Gate struct {
	seats   []Prober
	timeout time.Duration
}

// NewGate creates a gate over the given seats. perSeatTimeout <= 0 selects
// 3 seconds.
func NewGate(seats []Prober, perSeatTimeout time.Duration) *Gate {
	if perSeatTimeout <= 0 {
		perSeatTimeout = 3 * time.Second
	}
	return &Gate{seats: seats, timeout: perSeatTimeout}
}

// Seats returns the IDs of the seats the gate watches.
func (gate *Gate) Seats() []string {
	ids := make([]string, 0, len(gate.seats))
	for _, seat := range gate.seats {
		ids = append(ids, seat.ID())
	}
	return ids
}

/*
CheckAvailability probes every seat concurrently. A seat that errors or does
not answer within the per-seat timeout is recorded as failed with latency
equal to the timeout value. Healthy means no seat failed.
*/
func (gate *Gate) CheckAvailability(ctx context.Context) Status {
	status := Status{
		Latency: make(map[string]time.Duration, len(gate.seats)),
	}

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)

	for _, seat := range gate.seats {
		group.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, gate.timeout)
			defer cancel()

			started := time.Now()
			err := seat.Ping(probeCtx)
			elapsed := time.Since(started)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				status.FailedSeats = append(status.FailedSeats, seat.ID())
				if probeCtx.Err() != nil {
					elapsed = gate.timeout
				}
				log.Warn("seat probe failed", "seat", seat.ID(), "error", err)
			}
			status.Latency[seat.ID()] = elapsed

			// Probe failures are collected, not propagated: every seat is
			// always probed so the status names all failures at once.
			return nil
		})
	}

	_ = group.Wait()

	sort.Strings(status.FailedSeats)
	status.Healthy = len(status.FailedSeats) == 0
	return status
}
