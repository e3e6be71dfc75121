package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/probe"
)

// Executor owns one scheduling slot per enabled check. Each slot is a
// goroutine that serializes its own probes: the next probe arms interval
// seconds after the previous one STARTED, except that an overrunning probe
// delays the next run until it completes (never two in flight per check).
// A shared semaphore bounds in-flight probes across all slots.
//
// The slot map is mutated only by the Synchronizer (single-writer).
type Executor struct {
	log     *zap.Logger
	checker probe.Checker
	emit    func(domain.HealthcheckResult)
	sem     chan struct{}
	maxWait time.Duration // upper bound on a single probe's timeout

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	slots map[domain.CheckID]*slot
	wg    sync.WaitGroup
}

type slot struct {
	check domain.Healthcheck
	stop  chan struct{} // closed by StopSlot; the slot stops re-arming
	done  chan struct{} // closed when the slot goroutine has exited
}

func NewExecutor(log *zap.Logger, checker probe.Checker, emit func(domain.HealthcheckResult), maxConcurrent int, maxProbeTimeout time.Duration) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if maxProbeTimeout <= 0 {
		maxProbeTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		log:     log,
		checker: checker,
		emit:    emit,
		sem:     make(chan struct{}, maxConcurrent),
		maxWait: maxProbeTimeout,
		ctx:     ctx,
		cancel:  cancel,
		slots:   make(map[domain.CheckID]*slot),
	}
}

// Running snapshots the scheduled checks, keyed by id.
func (e *Executor) Running() map[domain.CheckID]domain.Healthcheck {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[domain.CheckID]domain.Healthcheck, len(e.slots))
	for id, s := range e.slots {
		out[id] = s.check
	}
	return out
}

// StartSlot schedules a check. A slot already running under the same id is
// stopped first, so parameter changes never mutate a live timer in place.
func (e *Executor) StartSlot(check domain.Healthcheck) {
	e.StopSlot(check.ID)

	s := &slot{
		check: check,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	e.mu.Lock()
	e.slots[check.ID] = s
	e.mu.Unlock()

	e.wg.Add(1)
	go e.runSlot(s)

	e.log.Info("slot_started",
		zap.Int64("check_id", int64(check.ID)),
		zap.String("endpoint", check.Endpoint),
		zap.Int("interval", check.Interval),
	)
}

// StopSlot cancels a slot's future schedule and waits for its goroutine to
// exit. An in-flight probe is allowed to finish and still emits its result;
// the wait is bounded by the probe timeout.
func (e *Executor) StopSlot(id domain.CheckID) {
	e.mu.Lock()
	s, ok := e.slots[id]
	if ok {
		delete(e.slots, id)
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	close(s.stop)
	<-s.done
	e.log.Info("slot_stopped", zap.Int64("check_id", int64(id)))
}

// Close stops all slots and aborts in-flight probes. Used on agent shutdown.
func (e *Executor) Close() {
	e.cancel()
	e.mu.Lock()
	for id, s := range e.slots {
		close(s.stop)
		delete(e.slots, id)
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) runSlot(s *slot) {
	defer e.wg.Done()
	defer close(s.done)

	interval := s.check.IntervalDuration()

	for {
		// worker-pool bound: wait for a permit rather than dropping
		select {
		case e.sem <- struct{}{}:
		case <-s.stop:
			return
		case <-e.ctx.Done():
			return
		}

		// the interval and the recorded start both measure from probe
		// initiation, after any wait for a permit
		start := time.Now()
		res := e.probeOnce(s.check, start)
		<-e.sem

		// shutdown aborts the probe mid-flight; don't record the abort
		select {
		case <-e.ctx.Done():
			return
		default:
			e.emit(res)
		}

		// arm relative to probe start; an overrun goes again immediately
		wait := time.Until(start.Add(interval))
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.stop:
			timer.Stop()
			return
		case <-e.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// probeOnce runs a single probe under a timeout strictly below the check's
// interval, so a hung endpoint cannot block its own slot indefinitely. The
// context derives from the executor, not the slot: stopping a slot does not
// abort a probe that is already in flight.
func (e *Executor) probeOnce(check domain.Healthcheck, start time.Time) domain.HealthcheckResult {
	ctx, cancel := context.WithTimeout(e.ctx, probeTimeout(check.IntervalDuration(), e.maxWait))
	defer cancel()

	out := e.checker.Check(ctx, check.Endpoint)

	e.log.Debug("probe_done",
		zap.Int64("check_id", int64(check.ID)),
		zap.Bool("pass", out.Success),
		zap.Int("status", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
	)

	return domain.HealthcheckResult{
		CheckID:   check.ID,
		StartTime: start.UTC(),
		ElapsedMS: out.LatencyMS,
		Pass:      out.Success,
		Message:   out.Message,
	}
}

// probeTimeout is 80% of the interval, capped by the configured maximum.
// Intervals are whole seconds, so the floor cannot reach the interval.
func probeTimeout(interval, max time.Duration) time.Duration {
	t := interval * 4 / 5
	if t > max {
		t = max
	}
	if t < 100*time.Millisecond {
		t = 100 * time.Millisecond
	}
	return t
}
