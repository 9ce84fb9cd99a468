package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/logger"
	"github.com/velist/gametest/internal/platform/metrics"
)

type envelope struct {
	action Action
	reply  chan error
}

// Engine is the runtime around a Session. One goroutine owns the session and
// serializes ticks, player actions and narrative completions.
type Engine struct {
	session  *Session
	provider narrative.Provider
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	ticker   *Ticker
	clock    func() time.Time

	actions     chan envelope
	completions chan Completion
	running     chan struct{}

	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[int]chan Snapshot
	nextSub  int
}

// NewEngine wires a session to its narrative provider and event log.
func NewEngine(session *Session, provider narrative.Provider, eventLog *events.EventLog, tuning config.Tuning, log *logger.Logger) *Engine {
	if provider == nil {
		provider = narrative.Static{}
	}
	e := &Engine{
		session:     session,
		provider:    provider,
		eventLog:    eventLog,
		logger:      log,
		metrics:     metrics.Get(),
		ticker:      NewTicker(tuning.TickInterval(), log),
		clock:       time.Now,
		actions:     make(chan envelope),
		completions: make(chan Completion, 16),
		running:     make(chan struct{}),
		subs:        make(map[int]chan Snapshot),
	}
	e.snapshot = session.Snapshot(e.clock())
	return e
}

// Run owns the session until ctx is done. Outstanding narrative requests are
// not cancelled; their results are dropped once Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Starting observer engine...")
	close(e.running)
	defer e.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Observer engine stopped.")
			return nil

		case now := <-e.ticker.C():
			start := time.Now()
			e.apply(ctx, e.session.Tick(now))
			n := e.ticker.Count()
			e.metrics.RecordTick(time.Since(start))
			if n%600 == 0 {
				g := e.session.God()
				e.logger.Infof("tick %s: era=%s pop=%s karma=%d",
					humanize.Comma(n), g.CurrentEra, humanize.Commaf(float64(int64(g.Resources.Population))), g.Karma)
			}

		case env := <-e.actions:
			fx, err := e.session.Apply(env.action, e.clock())
			e.metrics.RecordAction(err == nil)
			if err != nil {
				e.logger.Warnf("action %s rejected: %v", env.action.Type, err)
			} else {
				e.apply(ctx, fx)
			}
			// Reply after publishing so Snapshot reflects the action once Dispatch returns.
			e.syncTicker()
			e.publish()
			env.reply <- err
			continue

		case c := <-e.completions:
			fx, ok := e.session.Complete(c, e.clock())
			if !ok {
				e.metrics.RecordStaleCompletion()
				e.logger.Infof("discarded stale %s completion (epoch %d)", c.Request.Kind, c.Request.Epoch)
				continue
			}
			e.apply(ctx, fx)
		}

		e.syncTicker()
		e.publish()
	}
}

func (e *Engine) syncTicker() {
	if e.session.Ticking() {
		e.ticker.Start()
	} else {
		e.ticker.Stop()
	}
}

func (e *Engine) apply(ctx context.Context, fx Effects) {
	for _, ev := range fx.Events {
		ev = e.eventLog.Append(ev)
		e.logger.Event(string(ev.Type), ev.ActorID, fmt.Sprintf("run=%s %v", ev.RunID, ev.Payload))
		switch ev.Type {
		case events.EventTypeIntervention:
			e.metrics.RecordIntervention()
		case events.EventTypeEraAdvanced:
			e.metrics.RecordEraAdvance()
		case events.EventTypeRunEnded:
			e.metrics.RecordRunEnded()
		}
	}
	for _, req := range fx.Requests {
		go e.fulfil(ctx, req)
	}
}

func (e *Engine) fulfil(ctx context.Context, req Request) {
	c := Fulfil(ctx, e.provider, req)
	if c.Failed {
		e.metrics.RecordNarrativePanic()
		e.logger.Errorf("%s request panicked, using fallback", req.Kind)
	}
	select {
	case e.completions <- c:
	case <-ctx.Done():
	}
}

// Dispatch delivers a player action and returns its rejection, if any.
func (e *Engine) Dispatch(ctx context.Context, a Action) error {
	env := envelope{action: a, reply: make(chan error, 1)}
	select {
	case e.actions <- env:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-env.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready is closed once Run has started.
func (e *Engine) Ready() <-chan struct{} {
	return e.running
}

// Snapshot returns the latest published view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Subscribe returns a channel that always holds the newest snapshot. Slow
// readers skip intermediate snapshots. cancel releases the subscription.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- e.snapshot
	e.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs, id)
		})
	}
	return ch, cancel
}

func (e *Engine) publish() {
	snap := e.session.Snapshot(e.clock())

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = snap
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
