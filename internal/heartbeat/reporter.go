// Package heartbeat emits estimated-progress events while a blocking
// conversion call is in flight. The converter exposes no progress hooks,
// so the estimate is purely time-based: elapsed against a per-page cost
// model, clamped so it never claims completion on its own.
package heartbeat

import (
	"time"

	"github.com/raphaelgruber/docchunk-go/internal/events"
	"github.com/raphaelgruber/docchunk-go/internal/telemetry"
)

// MaxPercent is the ceiling of the time-based estimate. Completion is only
// asserted by the driver once the conversion call actually returns.
const MaxPercent = 95.0

// enrichmentCap is the enrichment count at which the cost multiplier stops
// growing linearly and pins to maxMultiplier.
const (
	enrichmentCap  = 4
	enrichmentStep = 0.5
	maxMultiplier  = 3.0
)

// Multiplier scales the per-page baseline by the number of enabled
// enrichments: linear growth below the cap, fixed at the cap and above.
func Multiplier(enrichments int) float64 {
	if enrichments < 0 {
		enrichments = 0
	}
	if enrichments >= enrichmentCap {
		return maxMultiplier
	}
	return 1.0 + enrichmentStep*float64(enrichments)
}

// Estimate describes the unit being converted.
type Estimate struct {
	// Pages is the unit's page count, zero when unknown.
	Pages int
	// Enrichments is the number of enabled enrichment options.
	Enrichments int
}

// Config holds the reporter's cadence and cost baseline.
type Config struct {
	Interval       time.Duration
	SecondsPerPage float64
}

// Reporter runs one background goroutine per in-flight conversion call.
// Start and Stop bracket the blocking call; at most one goroutine is alive
// at any time.
type Reporter struct {
	cfg     Config
	emitter *events.Emitter
	sampler *telemetry.Sampler

	stop chan struct{}
	done chan struct{}
}

// New creates a reporter. The sampler may be nil to disable hardware
// events (used by tests).
func New(cfg Config, emitter *events.Emitter, sampler *telemetry.Sampler) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.SecondsPerPage <= 0 {
		cfg.SecondsPerPage = 1.5
	}
	return &Reporter{cfg: cfg, emitter: emitter, sampler: sampler}
}

// Start launches the heartbeat goroutine for one unit. The progress fields
// identify the unit in emitted events. Must be paired with Stop.
func (r *Reporter) Start(p events.Progress, est Estimate) {
	// The goroutine closes over locals only; Stop mutates the fields and
	// must not race with the select below.
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop = stop
	r.done = done

	start := time.Now()
	estimatedTotal := int64(float64(est.Pages) * r.cfg.SecondsPerPage * Multiplier(est.Enrichments))

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			elapsed := int64(time.Since(start).Seconds())
			remaining := estimatedTotal - elapsed
			if remaining < 0 {
				remaining = 0
			}
			r.emitter.Emit(events.HeartbeatEvent(
				p, est.Pages, elapsed, estimatedTotal, remaining,
				percent(elapsed, estimatedTotal),
			))

			if r.sampler != nil {
				u := r.sampler.Sample()
				r.emitter.Emit(events.Hardware(u.CPUPercent, u.MemoryMB, u.GPUPercent))
			}
		}
	}()
}

// Stop signals the goroutine and waits for it to exit, at most timeout.
// Returns false if the join timed out; a stuck reporter must not block
// shutdown.
func (r *Reporter) Stop(timeout time.Duration) bool {
	if r.stop == nil {
		return true
	}
	close(r.stop)
	r.stop = nil

	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// percent converts elapsed seconds into an estimate percentage, clamped to
// MaxPercent. With no page count there is no estimate.
func percent(elapsed, estimatedTotal int64) float64 {
	if estimatedTotal <= 0 {
		return 0
	}
	pct := float64(elapsed) / float64(estimatedTotal) * 100
	if pct > MaxPercent {
		return MaxPercent
	}
	return pct
}
