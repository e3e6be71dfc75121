package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// ResultSubmitter is the registry's ingestion path.
type ResultSubmitter interface {
	SubmitResult(ctx context.Context, r *domain.HealthcheckResult) (*domain.HealthcheckResult, error)
}

// Dispatcher delivers probe results to the registry at least once. The
// queue is bounded and enqueue sheds on overflow: probes must never block
// behind an unreachable registry, and monitoring data is best-effort
// telemetry. Transport failures are retried with exponential backoff up to
// a capped attempt count, then the result is dropped and counted.
type Dispatcher struct {
	log         *zap.Logger
	registry    ResultSubmitter
	queue       chan domain.HealthcheckResult
	maxAttempts int

	// RetryInterval seeds the exponential backoff. Exposed for tests.
	RetryInterval time.Duration

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func NewDispatcher(log *zap.Logger, registry ResultSubmitter, queueSize, maxAttempts int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 256
	}
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	return &Dispatcher{
		log:           log,
		registry:      registry,
		queue:         make(chan domain.HealthcheckResult, queueSize),
		maxAttempts:   maxAttempts,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Enqueue hands a result to the delivery loop without blocking. It reports
// whether the result was accepted; a full queue sheds and counts the drop.
func (d *Dispatcher) Enqueue(r domain.HealthcheckResult) bool {
	select {
	case d.queue <- r:
		return true
	default:
		d.dropped.Add(1)
		d.log.Warn("dispatch_queue_full",
			zap.Int64("check_id", int64(r.CheckID)),
			zap.Uint64("dropped_total", d.dropped.Load()),
		)
		return false
	}
}

// Run consumes the queue until ctx is cancelled. Delivery order within one
// check follows production order; retries of a failed submission may
// reorder across checks, which consumers tolerate by keying on start_time.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher_stopped",
				zap.Uint64("delivered", d.delivered.Load()),
				zap.Uint64("dropped", d.dropped.Load()),
			)
			return
		case r := <-d.queue:
			d.deliver(ctx, r)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, r domain.HealthcheckResult) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.RetryInterval

	op := func() error {
		_, err := d.registry.SubmitResult(ctx, &r)
		if err == nil {
			return nil
		}
		// structurally invalid submissions will never succeed
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(d.maxAttempts-1)), ctx))
	if err != nil {
		d.dropped.Add(1)
		d.log.Warn("result_dropped",
			zap.Int64("check_id", int64(r.CheckID)),
			zap.Int("attempts", d.maxAttempts),
			zap.Uint64("dropped_total", d.dropped.Load()),
			zap.Error(err),
		)
		return
	}
	d.delivered.Add(1)
}

// Delivered reports successfully submitted results.
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }

// Dropped reports results lost to a full queue or exhausted retries.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }
