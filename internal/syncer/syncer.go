// Package syncer runs the resolve, reconcile and publish cycle on a fixed
// interval. Each cycle compares against the profile on disk, so the loop
// keeps no address state of its own.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ovpnsync/internal/metrics"
	"ovpnsync/internal/ovpn"
	"ovpnsync/internal/publish"
	"ovpnsync/internal/resolver"
	"ovpnsync/internal/types"
	"ovpnsync/internal/utils"
)

// maxCauseLen bounds the error text of the failure log line
const maxCauseLen = 512

// Reconciler points the profile at path to candidate
type Reconciler func(path, candidate string) (ovpn.Result, error)

// Publisher copies the profile to its destination
type Publisher interface {
	Publish(ctx context.Context, source string, dest publish.Destination, overwrite bool) (publish.Receipt, error)
}

// Notifier receives published address changes
type Notifier interface {
	NotifyAddressChange(change *types.AddressChange)
}

// Options configures a Syncer
type Options struct {
	Source      string
	Destination publish.Destination
	Interval    time.Duration
	RetryDelay  time.Duration
}

// Option customizes a Syncer
type Option func(*Syncer)

// WithMetrics records cycles on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithNotifier sends address changes to n
func WithNotifier(n Notifier) Option {
	return func(s *Syncer) { s.notifier = n }
}

// WithReconciler replaces ovpn.Reconcile
func WithReconciler(r Reconciler) Option {
	return func(s *Syncer) { s.reconcile = r }
}

// Syncer drives one cycle at a time
type Syncer struct {
	opts      Options
	resolver  resolver.Resolver
	reconcile Reconciler
	publisher Publisher
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.RWMutex
	status types.Status
}

// New creates a Syncer
func New(opts Options, res resolver.Resolver, pub Publisher, logger *zap.Logger, options ...Option) *Syncer {
	s := &Syncer{
		opts:      opts,
		resolver:  res,
		reconcile: ovpn.Reconcile,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, o := range options {
		o(s)
	}
	s.status = types.Status{
		Stage:       types.StageIdle,
		Source:      opts.Source,
		Destination: opts.Destination.String(),
		StartedAt:   s.now(),
	}
	return s
}

// Run loops until ctx is cancelled. Failed cycles wait RetryDelay,
// successful ones wait Interval.
func (s *Syncer) Run(ctx context.Context) {
	s.logger.Info("Starting sync loop",
		zap.String("source", s.opts.Source),
		zap.Stringer("destination", s.opts.Destination),
		zap.Duration("interval", s.opts.Interval))

	for {
		out := s.RunOnce(ctx)
		if ctx.Err() != nil {
			break
		}

		wait := s.decide(out)
		s.update(func(st *types.Status) {
			st.Stage = types.StageSleeping
			st.NextCheckAt = s.now().Add(wait)
		})

		if err := s.sleep(ctx, wait); err != nil {
			break
		}
	}

	s.update(func(st *types.Status) {
		st.Stage = types.StageIdle
		st.NextCheckAt = time.Time{}
	})
	s.logger.Info("Sync loop stopped")
}

// RunOnce performs a single resolve, reconcile and publish cycle
func (s *Syncer) RunOnce(ctx context.Context) Outcome {
	out := Outcome{Started: s.now()}

	s.enter(types.StageResolving)
	addr, err := s.resolver.Resolve(ctx)
	if err != nil {
		return s.finish(out, types.StageResolving, err)
	}
	out.Address = addr

	s.enter(types.StageReconciling)
	res, err := s.reconcile(s.opts.Source, addr)
	if err != nil {
		return s.finish(out, types.StageReconciling, err)
	}
	out.Recorded = res.Recorded
	out.Changed = res.Changed

	s.enter(types.StagePublishing)
	rec, err := s.publisher.Publish(ctx, s.opts.Source, s.opts.Destination, res.Changed)
	if err != nil {
		return s.finish(out, types.StagePublishing, err)
	}
	s.metrics.RecordPublish(rec.Copied)
	out.Published = rec.Copied
	out.Target = rec.Target

	if res.Changed {
		s.logger.Info(fmt.Sprintf("IP address updated to %s; file saved at %s.", addr, rec.Target),
			zap.String("previous", res.Recorded),
			zap.String("address", addr))
		if s.notifier != nil {
			s.notifier.NotifyAddressChange(&types.AddressChange{
				Previous:    res.Recorded,
				Current:     addr,
				Source:      s.opts.Source,
				Destination: s.opts.Destination.String(),
				Published:   rec.Target,
				Timestamp:   s.now(),
			})
		}
	} else {
		s.logger.Info(fmt.Sprintf("IP address is still %s; no update necessary.", addr),
			zap.Bool("published", rec.Copied))
	}

	return s.finish(out, types.StagePublishing, nil)
}

// finish stamps the outcome and records it
func (s *Syncer) finish(out Outcome, stage types.Stage, err error) Outcome {
	out.Stage = stage
	out.Finished = s.now()
	if err != nil {
		if types.KindOf(err) == types.KindUnknown {
			err = types.NewError(stageKind(stage), "", err)
		}
		out.Err = err
	}

	s.metrics.RecordCycle(out.Kind(), out.Changed, out.Finished, out.Duration())
	s.update(func(st *types.Status) {
		st.Cycles++
		st.LastCycleAt = out.Finished
		if out.Address != "" {
			st.Address = out.Address
		}
		if out.Err != nil {
			st.Failures++
			st.LastError = utils.Truncate(out.Err.Error(), maxCauseLen)
			st.LastErrorKind = out.Kind()
			return
		}
		st.Changed = out.Changed
		st.LastSuccessAt = out.Finished
		st.LastError = ""
		st.LastErrorKind = types.KindNone
	})
	return out
}

// decide logs the outcome and returns the wait before the next cycle.
// Every error kind is handled the same way: log, back off, continue.
func (s *Syncer) decide(out Outcome) time.Duration {
	if out.Err != nil {
		s.logger.Error(fmt.Sprintf("%s encountered while %s:\n%s\nRetrying in %s.",
			out.Kind(), out.Stage, utils.Truncate(out.Err.Error(), maxCauseLen), utils.FormatDuration(s.opts.RetryDelay)),
			zap.String("kind", string(out.Kind())),
			zap.String("stage", string(out.Stage)),
			zap.Strings("causes", types.Causes(out.Err)))
		return s.opts.RetryDelay
	}

	s.logger.Info(fmt.Sprintf("Waiting %s until next check.", utils.FormatDuration(s.opts.Interval)))
	return s.opts.Interval
}

// Status returns a snapshot of the loop state
func (s *Syncer) Status() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Syncer) enter(stage types.Stage) {
	s.update(func(st *types.Status) { st.Stage = stage })
}

func (s *Syncer) update(fn func(*types.Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
