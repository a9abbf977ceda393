package montecarlo

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/propagator"
)

var (
	j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	leo   = dynamo.State{-2436.45, -2436.45, 6891.037, 5.088611, -5.088611, 0.0}
)

// signGate is a one-component system that stays put and fails for positive
// states.
type signGate struct{}

func (signGate) StateDim() int { return 1 }

func (signGate) Derive(_ time.Time, x, dx dynamo.State) error {
	if x[0] > 0 {
		return errors.New("positive state")
	}
	dx[0] = 0
	return nil
}

func orbitPropagator() *propagator.Propagator {
	opts := propagator.DefaultOptions()
	opts.SampleEvery = time.Hour
	p, err := propagator.New(forces.NewTwoBody(forces.Earth.GM), opts)
	Expect(err).NotTo(HaveOccurred())
	return p
}

func gatePropagator() *propagator.Propagator {
	p, err := propagator.New(signGate{}, propagator.FixedStepOptions(time.Second))
	Expect(err).NotTo(HaveOccurred())
	return p
}

func finals(b *Batch) []dynamo.State {
	out := make([]dynamo.State, b.Len())
	for i, r := range b.Runs {
		out[i] = r.Result.Final().State
	}
	return out
}

var _ = Describe("Coordinator", func() {
	ctx := context.Background()
	target := j2000.Add(3 * time.Hour)
	disp := NewDispersion(0.5, 5e-4)

	It("rejects invalid options", func() {
		_, err := New(orbitPropagator(), Options{Runs: 0})
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

		_, err = New(orbitPropagator(), Options{Runs: 1, Workers: -1})
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

		_, err = New(nil, Options{Runs: 1})
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	})

	It("defaults the worker count", func() {
		c, err := New(orbitPropagator(), Options{Runs: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Options().Workers).To(BeNumerically(">", 0))
	})

	It("is independent of the worker count", func() {
		serial, err := New(orbitPropagator(), Options{Runs: 12, Seed: 7, Workers: 1})
		Expect(err).NotTo(HaveOccurred())
		parallel, err := New(orbitPropagator(), Options{Runs: 12, Seed: 7, Workers: 6})
		Expect(err).NotTo(HaveOccurred())

		a, err := serial.Run(ctx, j2000, leo, target, disp)
		Expect(err).NotTo(HaveOccurred())
		b, err := parallel.Run(ctx, j2000, leo, target, disp)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Len()).To(Equal(12))
		Expect(b.Len()).To(Equal(12))
		for i := range a.Runs {
			Expect(a.Runs[i].Index).To(Equal(i))
			Expect(b.Runs[i].Index).To(Equal(i))
			Expect(a.Runs[i].Seed).To(Equal(int64(7 + i)))
		}
		Expect(finals(b)).To(Equal(finals(a)))
	})

	It("seeds run i with Seed+i", func() {
		c, err := New(orbitPropagator(), Options{Runs: 3, Seed: 100})
		Expect(err).NotTo(HaveOccurred())
		b, err := c.Run(ctx, j2000, leo, target, disp)
		Expect(err).NotTo(HaveOccurred())

		for _, r := range b.Runs {
			Expect(r.Initial).To(Equal(disp.Apply(leo, newRand(100+int64(r.Index)))))
			Expect(r.Initial).NotTo(Equal(leo))
		}
		Expect(b.Runs[0].Initial).NotTo(Equal(b.Runs[1].Initial))
	})

	It("reproduces the nominal trajectory with zero dispersion", func() {
		c, err := New(orbitPropagator(), Options{Runs: 4, Workers: 2})
		Expect(err).NotTo(HaveOccurred())
		b, err := c.Run(ctx, j2000, leo, target, NewDispersion(0, 0))
		Expect(err).NotTo(HaveOccurred())

		nominal, err := orbitPropagator().Propagate(ctx, j2000, leo, target)
		Expect(err).NotTo(HaveOccurred())
		for _, x := range finals(b) {
			Expect(x).To(Equal(nominal.Final().State))
		}

		s := b.Summary()
		Expect(s.Runs).To(Equal(4))
		Expect(s.RadiusMax).To(BeNumerically("==", 0))
		for _, sd := range s.StdDev {
			Expect(sd).To(BeNumerically("==", 0))
		}
	})

	It("summarises the spread of final states", func() {
		c, err := New(orbitPropagator(), Options{Runs: 24, Seed: 1})
		Expect(err).NotTo(HaveOccurred())
		b, err := c.Run(ctx, j2000, leo, target, disp)
		Expect(err).NotTo(HaveOccurred())

		s := b.Summary()
		Expect(s.Runs).To(Equal(24))
		Expect(s.Failed).To(BeZero())
		Expect(s.Mean).To(HaveLen(6))

		nominal, _ := forces.Kepler(forces.Earth.GM, leo, 3*time.Hour)
		for c := 0; c < 3; c++ {
			Expect(math.Abs(s.Mean[c] - nominal[c])).To(BeNumerically("<", 50))
			Expect(s.StdDev[c]).To(BeNumerically(">", 0))
		}
		Expect(s.RadiusMean).To(BeNumerically(">", 0))
		Expect(s.RadiusMax).To(BeNumerically(">=", s.RadiusMean))
	})

	It("calls OnRun once per executed run", func() {
		seen := map[int]bool{}
		c, err := New(orbitPropagator(), Options{Runs: 6, Workers: 3, OnRun: func(r Run) {
			seen[r.Index] = true
		}})
		Expect(err).NotTo(HaveOccurred())
		_, err = c.Run(ctx, j2000, leo, target, disp)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(6))
	})

	Context("with failing runs", func() {
		gate := Dispersion{Sigma: []float64{1}}

		It("records failures and keeps going", func() {
			c, err := New(gatePropagator(), Options{Runs: 20, Seed: 3})
			Expect(err).NotTo(HaveOccurred())
			b, err := c.Run(ctx, j2000, dynamo.State{0}, j2000.Add(time.Minute), gate)
			Expect(err).NotTo(HaveOccurred())

			Expect(b.Len()).To(Equal(20))
			Expect(b.Failed()).NotTo(BeEmpty())
			Expect(b.Succeeded()).NotTo(BeEmpty())
			for _, r := range b.Failed() {
				Expect(r.Initial[0]).To(BeNumerically(">", 0))
				Expect(errors.Is(r.Err, dynamo.ErrEvaluation)).To(BeTrue())
			}
			Expect(b.Summary().Failed).To(Equal(len(b.Failed())))
		})

		It("stops at the first failure with FailFast", func() {
			c, err := New(gatePropagator(), Options{Runs: 20, Seed: 3, Workers: 1, FailFast: true})
			Expect(err).NotTo(HaveOccurred())
			b, err := c.Run(ctx, j2000, dynamo.State{0}, j2000.Add(time.Minute), gate)
			Expect(errors.Is(err, dynamo.ErrEvaluation)).To(BeTrue())

			Expect(b.Len()).To(BeNumerically("<", 20))
			Expect(b.Failed()).To(HaveLen(1))
			Expect(b.Runs[b.Len()-1].Err).To(HaveOccurred())
		})
	})

	Context("when cancelled", func() {
		It("dispatches nothing after an early cancel", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			c, err := New(orbitPropagator(), Options{Runs: 5})
			Expect(err).NotTo(HaveOccurred())

			b, err := c.Run(cctx, j2000, leo, target, disp)
			Expect(err).To(MatchError(context.Canceled))
			Expect(b).NotTo(BeNil())
			Expect(b.Len()).To(BeZero())
			Expect(b.Requested).To(Equal(5))
		})

		It("finishes started runs and stops dispatch", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			c, err := New(orbitPropagator(), Options{Runs: 10, Workers: 1, OnRun: func(Run) { cancel() }})
			Expect(err).NotTo(HaveOccurred())

			b, err := c.Run(cctx, j2000, leo, target, disp)
			Expect(err).To(MatchError(context.Canceled))
			Expect(b.Len()).To(Equal(1))
			Expect(b.Runs[0].Succeeded()).To(BeTrue())
			Expect(b.Runs[0].Result.Final().Epoch).To(Equal(target))
		})
	})
})
