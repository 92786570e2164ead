// Package probe decides whether a cluster already exists behind a single
// candidate address. A Prober repeatedly queries the candidate's seed-node
// endpoint with jittered delays, tracks two deadlines computed once at
// construction, and reports one of three outcomes to its parent: seeds were
// observed (terminal), probing kept failing (terminal), or nothing was seen
// for long enough that forming a new cluster becomes an option (repeatable
// hint). The parent owns candidate discovery and the join/form decision.
package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/seedprobe/internal/telemetry"
)

// State identifies where a Prober is in its lifecycle.
type State int32

const (
	// StateIdle means constructed but not yet started.
	StateIdle State = iota
	// StateProbing means exactly one request is in flight.
	StateProbing
	// StateScheduled means exactly one timer is pending before the next probe.
	StateScheduled
	// StateSucceeded means seed nodes were observed and the Prober terminated.
	StateSucceeded
	// StateFailed means probing failed past its deadline and the Prober terminated.
	StateFailed
	// StateStopped means the parent terminated the Prober externally.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateScheduled:
		return "scheduled"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Events consumed by the run loop. External stop arrives through ctx
// cancellation rather than the inbox so it can never be blocked out.
type eventKind int

const (
	evTimerFired eventKind = iota
	evResponse
	evFailure
)

type event struct {
	kind eventKind
	obs  Observation
	err  error
}

// Prober owns the probing lifecycle of one candidate address. It holds at
// most one in-flight request or one pending timer at any instant, processes
// one event at a time, and terminates itself on a definitive outcome.
type Prober struct {
	target   string
	settings Settings
	querier  Querier
	notifier Notifier
	log      *zap.Logger

	// Computed once at construction from the monotonic clock, never
	// recomputed. Only compared against time.Now afterwards.
	noSeedsDeadline        time.Time
	probingFailureDeadline time.Time

	events chan event
	timer  *time.Timer // pending probe timer, owned by the run loop

	// ctx is cancelled by Stop and on self-termination; it bounds in-flight
	// requests and unblocks stale timer/request goroutines.
	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	done      chan struct{}

	state atomic.Int32
}

// New validates the settings, rejects self-probing, and computes both
// deadlines. The Prober does not issue any request until Start is called.
func New(target string, settings Settings, querier Querier, notifier Notifier) (*Prober, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if target == "" {
		return nil, errors.New("probe target cannot be empty")
	}
	if querier == nil {
		return nil, errors.New("querier cannot be nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier cannot be nil")
	}

	tgt := NormalizeHostPort(target, DefaultPort)
	if tgt == NormalizeHostPort(settings.SelfAddr, DefaultPort) {
		return nil, fmt.Errorf("%w: %s", ErrSelfProbe, tgt)
	}

	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Prober{
		target:                 tgt,
		settings:               settings,
		querier:                querier,
		notifier:               notifier,
		log:                    logger.With(zap.String("target", tgt)),
		noSeedsDeadline:        now.Add(settings.NoSeedsStableMargin),
		probingFailureDeadline: now.Add(settings.ProbingFailureTimeout),
		events:                 make(chan event),
		ctx:                    ctx,
		cancel:                 cancel,
		done:                   make(chan struct{}),
	}
	p.state.Store(int32(StateIdle))
	return p, nil
}

// Start begins probing immediately, with no initial delay. Calling Start more
// than once has no effect.
func (p *Prober) Start() {
	p.startOnce.Do(func() { go p.run() })
}

// Stop terminates the Prober externally: the pending timer is cancelled and
// any in-flight request is discarded. No notification is emitted after Stop
// takes effect. Safe to call repeatedly and after self-termination.
func (p *Prober) Stop() {
	p.cancel()
}

// Done closes once the Prober has terminated, whether by its own decision or
// via Stop. It only ever closes after Start.
func (p *Prober) Done() <-chan struct{} {
	return p.done
}

// State reports the Prober's current lifecycle state.
func (p *Prober) State() State {
	return State(p.state.Load())
}

// Target returns the normalized candidate address this Prober watches.
func (p *Prober) Target() string {
	return p.target
}

func (p *Prober) run() {
	telemetry.ProberStarted()
	defer telemetry.ProberStopped()
	defer close(p.done)
	defer p.disarmTimer()
	defer p.cancel() // releases any still-running request goroutine

	p.state.Store(int32(StateProbing))
	p.dispatch()

	for {
		select {
		case <-p.ctx.Done():
			p.state.Store(int32(StateStopped))
			p.log.Debug("prober stopped by parent")
			return
		case ev := <-p.events:
			if p.ctx.Err() != nil {
				// Stop won the race; the next iteration takes the stop arm.
				continue
			}
			switch ev.kind {
			case evTimerFired:
				if p.State() != StateScheduled {
					continue
				}
				p.state.Store(int32(StateProbing))
				p.dispatch()
			case evResponse:
				if p.State() != StateProbing {
					continue
				}
				if p.observed(ev.obs) {
					return
				}
			case evFailure:
				if p.State() != StateProbing {
					continue
				}
				if p.failed(ev.err) {
					return
				}
			}
		}
	}
}

// dispatch issues exactly one request; its outcome is posted back to the
// event loop. A result that arrives after Stop is discarded, never delivered.
func (p *Prober) dispatch() {
	go func() {
		start := time.Now()
		obs, err := p.querier.QuerySeedNodes(p.ctx, p.target)
		telemetry.ObserveProbe(classify(obs, err), time.Since(start))

		ev := event{kind: evResponse, obs: obs}
		if err != nil {
			ev = event{kind: evFailure, err: err}
		}
		select {
		case p.events <- ev:
		case <-p.ctx.Done():
		}
	}()
}

func classify(obs Observation, err error) string {
	switch {
	case err != nil:
		return telemetry.OutcomeFailure
	case len(obs.SeedNodes) > 0:
		return telemetry.OutcomeSeeds
	default:
		return telemetry.OutcomeEmpty
	}
}

// observed handles a successful probe. It reports whether the Prober
// terminated.
func (p *Prober) observed(obs Observation) bool {
	if len(obs.SeedNodes) > 0 {
		// A positive observation always wins, regardless of either deadline.
		p.state.Store(int32(StateSucceeded))
		p.log.Info("seed nodes observed",
			zap.String("selfNode", obs.SelfNode),
			zap.Strings("seedNodes", obs.SeedNodes))
		p.notifier.SeedsObserved(obs.SelfNode, obs.SeedNodes)
		return true
	}

	if p.settings.FormNewCluster && time.Now().After(p.noSeedsDeadline) {
		// Repeated on every qualifying empty observation; the hint is
		// idempotent for the parent.
		p.log.Info("no seed nodes observed past stable margin")
		p.notifier.NoSeedsObserved(p.target)
	} else {
		p.log.Debug("no seed nodes observed yet")
	}

	p.schedule()
	return false
}

// failed handles a transport error or malformed response. It reports whether
// the Prober terminated.
func (p *Prober) failed(cause error) bool {
	if time.Now().After(p.probingFailureDeadline) {
		p.state.Store(int32(StateFailed))
		p.log.Warn("probing failed past deadline", zap.Error(cause))
		p.notifier.ProbingFailed(p.target, cause)
		return true
	}

	p.log.Debug("probe attempt failed", zap.Error(cause))
	p.schedule()
	return false
}

// schedule arms the next probe timer. Arming always supersedes any prior
// pending timer, so at most one probe is ever scheduled.
func (p *Prober) schedule() {
	p.state.Store(int32(StateScheduled))
	p.disarmTimer()

	d := nextDelay(p.settings.ProbeInterval, p.settings.JitterFactor)
	p.timer = time.AfterFunc(d, func() {
		select {
		case p.events <- event{kind: evTimerFired}:
		case <-p.ctx.Done():
		}
	})
}

func (p *Prober) disarmTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
