package propagator

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/integrators"
)

// stiffDecay is x' = -1e6 x, which no explicit method can step across at
// second-scale steps.
type stiffDecay struct{}

func (stiffDecay) StateDim() int { return 1 }

func (stiffDecay) Derive(_ time.Time, x, dx dynamo.State) error {
	dx[0] = -1e6 * x[0]
	return nil
}

type exploding struct{ at time.Time }

func (exploding) Name() string { return "exploding" }

func (e exploding) Accumulate(epoch time.Time, _ dynamo.State, _ dynamo.State) error {
	if !epoch.Before(e.at) {
		return errors.New("model undefined past cutoff")
	}
	return nil
}

var _ = Describe("Propagate failures", func() {
	ctx := context.Background()

	Context("with a stiff system", func() {
		It("fails at the minimum step", func() {
			opts := AdaptiveOptions(integrators.Dormand45, time.Second, 10*time.Second, 1e-9)
			p, err := New(stiffDecay{}, opts)
			Expect(err).NotTo(HaveOccurred())

			res, err := p.For(ctx, j2000, dynamo.State{1}, time.Minute)
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrStepSizeConvergence)).To(BeTrue())

			var conv *dynamo.StepSizeConvergenceError
			Expect(errors.As(err, &conv)).To(BeTrue())
			Expect(conv.Epoch).To(Equal(j2000))
			Expect(conv.Step).To(BeNumerically("==", 1))
			Expect(conv.Reason).To(ContainSubstring("minimum step"))
		})

		It("fails after the attempt budget", func() {
			opts := AdaptiveOptions(integrators.Dormand78, time.Nanosecond, 10*time.Second, 1e-9)
			opts.MaxAttempts = 3
			p, err := New(stiffDecay{}, opts)
			Expect(err).NotTo(HaveOccurred())

			_, err = p.For(ctx, j2000, dynamo.State{1}, time.Minute)
			var conv *dynamo.StepSizeConvergenceError
			Expect(errors.As(err, &conv)).To(BeTrue())
			Expect(conv.Attempts).To(Equal(3))
			Expect(conv.Reason).To(ContainSubstring("attempts"))
		})

		It("steps through with fixed steps and reports the blow up", func() {
			p, err := New(stiffDecay{}, FixedStepOptions(time.Second))
			Expect(err).NotTo(HaveOccurred())

			_, err = p.For(ctx, j2000, dynamo.State{1}, time.Hour)
			Expect(errors.Is(err, dynamo.ErrEvaluation)).To(BeTrue())
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		})
	})

	Context("with a failing contributor", func() {
		It("returns an EvaluationError naming the source", func() {
			cutoff := j2000.Add(10 * time.Minute)
			sys := dynamo.NewComposite(6, forces.NewTwoBody(forces.Earth.GM), exploding{at: cutoff})
			p, err := New(sys, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			_, err = p.For(ctx, j2000, leo, time.Hour)
			var evalErr *dynamo.EvaluationError
			Expect(errors.As(err, &evalErr)).To(BeTrue())
			Expect(evalErr.Source).To(Equal("exploding"))
			Expect(evalErr.Epoch.Before(cutoff)).To(BeFalse())
			Expect(evalErr.State).To(HaveLen(6))
		})

		It("reports a collision with the central body", func() {
			sys := dynamo.NewComposite(6, forces.NewTwoBody(forces.Earth.GM), forces.NewZonal(forces.Earth, false))
			// Radial plunge from 7000 km.
			x0 := dynamo.State{7000, 0, 0, -3, 0, 0}
			p, err := New(sys, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			_, err = p.For(ctx, j2000, x0, time.Hour)
			Expect(errors.Is(err, dynamo.ErrBelowSurface)).To(BeTrue())
		})
	})

	Context("with inconsistent configuration", func() {
		DescribeTable("rejects options before stepping",
			func(mutate func(*Options), field string) {
				opts := DefaultOptions()
				mutate(&opts)
				_, err := New(forces.NewTwoBody(forces.Earth.GM), opts)
				var cfg *dynamo.ConfigurationError
				Expect(errors.As(err, &cfg)).To(BeTrue())
				Expect(cfg.Field).To(Equal(field))
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			},
			Entry("unknown method", func(o *Options) { o.Method = integrators.Method(99) }, "method"),
			Entry("zero fixed step", func(o *Options) { o.Method = integrators.RK4Fixed; o.FixedStep = 0 }, "fixed_step"),
			Entry("zero min step", func(o *Options) { o.MinStep = 0 }, "min_step"),
			Entry("min above max", func(o *Options) { o.MinStep = time.Hour }, "min_step"),
			Entry("initial outside bounds", func(o *Options) { o.InitialStep = time.Hour }, "initial_step"),
			Entry("zero tolerance", func(o *Options) { o.RelTol = 0 }, "relative_tolerance"),
			Entry("nan tolerance", func(o *Options) { o.AbsTol = math.NaN() }, "absolute_tolerance"),
			Entry("no attempts", func(o *Options) { o.MaxAttempts = 0 }, "max_attempts"),
			Entry("bad safety", func(o *Options) { o.Safety = 1.5 }, "safety"),
			Entry("bad growth", func(o *Options) { o.MaxGrowth = 1 }, "max_growth"),
			Entry("bad shrink", func(o *Options) { o.MinShrink = 1 }, "min_shrink"),
			Entry("negative cadence", func(o *Options) { o.SampleEvery = -time.Second }, "sample_every"),
		)

		It("ignores the step bounds of a fixed-step method", func() {
			opts := FixedStepOptions(10 * time.Second)
			opts.MinStep = -1
			opts.RelTol = 0
			_, err := New(forces.NewTwoBody(forces.Earth.GM), opts)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects the position/velocity norm on short states", func() {
			opts := DefaultOptions()
			opts.Norm = integrators.NormRSSPosVel
			_, err := New(stiffDecay{}, opts)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})

		It("rejects a mismatched initial state", func() {
			p, err := New(forces.NewTwoBody(forces.Earth.GM), DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			_, err = p.For(ctx, j2000, dynamo.State{1, 2, 3}, time.Hour)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

			_, err = p.For(ctx, j2000, dynamo.State{math.NaN(), 0, 0, 0, 0, 0}, time.Hour)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})

		It("honours a cancelled context before stepping", func() {
			p, err := New(forces.NewTwoBody(forces.Earth.GM), DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err = p.For(cctx, j2000, leo, time.Hour)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
