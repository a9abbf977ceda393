package montecarlo

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/propagator"
)

type Options struct {
	Runs int
	// Run i draws its dispersion from a generator seeded with Seed+i.
	Seed int64
	// Workers bounds concurrent runs; zero means runtime.NumCPU().
	Workers int
	// FailFast stops dispatching after the first failed run and returns
	// its error.
	FailFast bool
	// OnRun is called once per executed run. Calls are serialised but
	// arrive in completion order, not index order.
	OnRun  func(Run)
	Logger log.Logger
}

// Coordinator runs dispersed copies of one propagation in parallel. The
// batch depends only on the inputs and the seed, never on the worker count
// or scheduling.
type Coordinator struct {
	prop   *propagator.Propagator
	opts   Options
	logger log.Logger
}

func New(prop *propagator.Propagator, opts Options) (*Coordinator, error) {
	if prop == nil {
		return nil, dynamo.Configf("propagator", "must not be nil")
	}
	if opts.Runs < 1 {
		return nil, dynamo.Configf("runs", "must be at least 1, got %d", opts.Runs)
	}
	if opts.Workers < 0 {
		return nil, dynamo.Configf("workers", "must not be negative, got %d", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Coordinator{
		prop:   prop,
		opts:   opts,
		logger: log.With(logger, "component", "montecarlo"),
	}, nil
}

func (c *Coordinator) Options() Options { return c.opts }

// Run propagates Runs dispersed copies of nominal from epoch to target.
//
// Cancelling ctx stops dispatch; runs already started finish and are kept.
// The returned batch is never nil. The error is ctx.Err() after a
// cancellation, the first run error under FailFast, and nil otherwise:
// individual failures are recorded on their Run.
func (c *Coordinator) Run(ctx context.Context, epoch time.Time, nominal dynamo.State, target time.Time, disp Dispersion) (*Batch, error) {
	ctx, span := startBatchSpan(ctx, c.opts.Runs, c.opts.Workers)
	started := time.Now()

	runs := make([]Run, c.opts.Runs)
	executed := make([]bool, c.opts.Runs)

	// stop is cancelled by FailFast; dispatch also watches the caller's ctx.
	stopCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu       sync.Mutex
		firstErr error
	)

	g := new(errgroup.Group)
	g.SetLimit(c.opts.Workers)

	for i := 0; i < c.opts.Runs; i++ {
		if stopCtx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			// The slot may have opened after a stop.
			if stopCtx.Err() != nil {
				return nil
			}
			run := c.runOne(ctx, i, epoch, nominal, target, disp)

			mu.Lock()
			runs[i] = run
			executed[i] = true
			if run.Err != nil && c.opts.FailFast && firstErr == nil {
				firstErr = fmt.Errorf("run %d: %w", i, run.Err)
				stop()
			}
			if c.opts.OnRun != nil {
				c.opts.OnRun(run)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{Requested: c.opts.Runs}
	for i, ok := range executed {
		if ok {
			batch.Runs = append(batch.Runs, runs[i])
		}
	}

	err := firstErr
	if err == nil {
		err = ctx.Err()
	}
	finishBatchSpan(span, batch, err)

	level.Info(c.logger).Log(
		"msg", "batch complete",
		"requested", batch.Requested,
		"executed", batch.Len(),
		"failed", len(batch.Failed()),
		"elapsed", time.Since(started),
	)
	return batch, err
}

func (c *Coordinator) runOne(ctx context.Context, i int, epoch time.Time, nominal dynamo.State, target time.Time, disp Dispersion) Run {
	seed := c.opts.Seed + int64(i)
	run := Run{Index: i, Seed: seed}
	run.Initial = disp.Apply(nominal, newRand(seed))

	// A run that has been dispatched is not interrupted.
	res, err := c.prop.Propagate(context.WithoutCancel(ctx), epoch, run.Initial, target)
	run.Result, run.Err = res, err
	recordRun(ctx, err == nil)

	if err != nil {
		level.Warn(c.logger).Log("msg", "run failed", "run", i, "seed", seed, "err", err)
	} else {
		level.Debug(c.logger).Log("msg", "run complete", "run", i, "steps", res.Stats.Steps)
	}
	return run
}
