package propagator

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/integrators"
)

// Propagator integrates one dynamics model with one configuration. It is
// immutable after New and safe for concurrent use; every call to Propagate
// owns its own step-size state and stage buffers.
type Propagator struct {
	sys    dynamo.System
	opts   Options
	tab    *integrators.Tableau
	logger log.Logger
}

func New(sys dynamo.System, opts Options) (*Propagator, error) {
	if sys == nil {
		return nil, dynamo.Configf("dynamics", "must not be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Adaptive() && sys.StateDim() < opts.Norm.MinDim() {
		return nil, dynamo.Configf("norm", "%s needs at least %d state components, dynamics have %d",
			opts.Norm, opts.Norm.MinDim(), sys.StateDim())
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	observers := make([]dynamo.Observer, len(opts.Observers))
	copy(observers, opts.Observers)
	opts.Observers = observers

	return &Propagator{
		sys:    sys,
		opts:   opts,
		tab:    opts.Method.Tableau(),
		logger: log.With(logger, "component", "propagator", "method", opts.Method.String()),
	}, nil
}

func (p *Propagator) Options() Options { return p.opts }

func (p *Propagator) System() dynamo.System { return p.sys }

// WithObservers returns a copy of p that also notifies obs on every accepted
// step.
func (p *Propagator) WithObservers(obs ...dynamo.Observer) *Propagator {
	cp := *p
	cp.opts.Observers = append(append([]dynamo.Observer(nil), p.opts.Observers...), obs...)
	return &cp
}

// For propagates x0 from epoch over the signed duration d.
func (p *Propagator) For(ctx context.Context, epoch time.Time, x0 dynamo.State, d time.Duration) (*Result, error) {
	return p.Propagate(ctx, epoch, x0, epoch.Add(d))
}

// Propagate integrates x0 from epoch to target, backwards when target is
// earlier. The returned result ends exactly on target. ctx is only checked
// before stepping starts; a started propagation runs to completion or
// failure.
func (p *Propagator) Propagate(ctx context.Context, epoch time.Time, x0 dynamo.State, target time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(x0) != p.sys.StateDim() {
		return nil, dynamo.Configf("initial_state", "has %d components, dynamics expect %d", len(x0), p.sys.StateDim())
	}
	if !x0.IsValid() {
		return nil, dynamo.Configf("initial_state", "contains NaN or Inf")
	}

	ctx, span := startPropagateSpan(ctx, p.opts.Method.String(), target.Sub(epoch))
	started := time.Now()

	res, err := p.run(epoch, x0, target)
	res.Elapsed = time.Since(started)

	finishPropagateSpan(span, res.Stats, err)
	recordPropagateMetrics(ctx, p.opts.Method.String(), res.Elapsed, res.Stats, err == nil)

	if err != nil {
		return nil, err
	}
	level.Debug(p.logger).Log(
		"msg", "propagation complete",
		"target", target.Format(time.RFC3339Nano),
		"steps", res.Stats.Steps,
		"rejections", res.Stats.Rejections,
		"evaluations", res.Stats.Evaluations,
	)
	return res, nil
}

func (p *Propagator) run(epoch time.Time, x0 dynamo.State, target time.Time) (*Result, error) {
	n := len(x0)
	res := &Result{Method: p.opts.Method.String()}
	res.Samples = append(res.Samples, Sample{Epoch: epoch, State: x0.Clone()})

	total := target.Sub(epoch)
	if total == 0 {
		return res, nil
	}
	dir := time.Duration(1)
	if total < 0 {
		dir = -1
	}

	stepper := integrators.AcquireStepper(p.opts.Method, n, p.opts.Tolerance())
	defer integrators.ReleaseStepper(p.opts.Method, stepper)

	var ctrl *Controller
	if p.tab.Adaptive() {
		ctrl = NewController(p.opts, p.tab.EmbeddedOrder)
	}
	sampler := newSampler(epoch, dir, p.opts.SampleEvery)

	x := x0.Clone()
	next := make(dynamo.State, n)
	h := float64(dir) * p.opts.firstStep().Seconds()

	for !epoch.Equal(target) {
		remaining := target.Sub(epoch)
		hd := dynamo.Seconds(h)
		final := false
		if hd*dir >= remaining*dir {
			if hd*dir > remaining*dir {
				level.Debug(p.logger).Log("msg", "overshoot corrected", "epoch", epoch.Format(time.RFC3339Nano),
					"proposed", hd, "step", remaining)
			}
			hd = remaining
			final = true
		}
		hs := hd.Seconds()

		outcome, err := stepper.Step(p.sys, epoch, x, hs, next)
		res.Stats.Evaluations += outcome.Evaluations
		if err != nil {
			return res, err
		}

		attempts := 1
		if ctrl != nil {
			attempts = ctrl.Attempts() + 1
			accepted, proposal, err := ctrl.Evaluate(epoch, hs, outcome.ErrorNorm)
			if err != nil {
				res.Stats.Rejections++
				level.Warn(p.logger).Log("msg", "step size failed to converge", "err", err)
				return res, err
			}
			if !accepted {
				res.Stats.Rejections++
				h = proposal
				continue
			}
			if !final {
				h = proposal
			}
		}
		if !next.IsValid() {
			return res, &dynamo.EvaluationError{Epoch: epoch, State: x.Clone(), Err: dynamo.ErrInvalidState}
		}

		if final {
			epoch = target
		} else {
			epoch = epoch.Add(hd)
		}
		x, next = next, x
		res.Stats.record(hs, outcome.ErrorNorm, attempts)

		for _, obs := range p.opts.Observers {
			obs.OnStep(epoch, x)
		}
		if final || sampler.due(epoch) {
			res.Samples = append(res.Samples, Sample{Epoch: epoch, State: x.Clone()})
		}
	}

	return res, nil
}

// sampler decides which accepted step boundaries are recorded.
type sampler struct {
	start time.Time
	dir   time.Duration
	every time.Duration
	mark  time.Duration
}

func newSampler(start time.Time, dir, every time.Duration) *sampler {
	return &sampler{start: start, dir: dir, every: every, mark: every}
}

func (s *sampler) due(epoch time.Time) bool {
	if s.every <= 0 {
		return true
	}
	elapsed := epoch.Sub(s.start) * s.dir
	if elapsed < s.mark {
		return false
	}
	for s.mark <= elapsed {
		s.mark += s.every
	}
	return true
}
