// Package engine orchestrates the per-channel persistence pipeline:
// validate, fit, resolve, diagnose, score, and optionally bootstrap
// and cross-check phase. Each channel is a pure function of its own
// series plus a derived seed, so channels fan out in parallel with no
// shared mutable state.
package engine

import (
	"context"
	"sync"

	"github.com/san-kum/chronostat/internal/arfit"
	"github.com/san-kum/chronostat/internal/confidence"
	"github.com/san-kum/chronostat/internal/diagnostics"
	"github.com/san-kum/chronostat/internal/phase"
	"github.com/san-kum/chronostat/internal/randx"
	"github.com/san-kum/chronostat/internal/roots"
	"github.com/san-kum/chronostat/internal/series"
	"github.com/san-kum/chronostat/internal/validation"
)

// NoStructureR2 is the ceiling below which a channel is considered to
// carry no detectable temporal structure.
const NoStructureR2 = 0.10

// Options configures one analysis run. The seed is mandatory and
// caller-visible: every randomized step derives from it, so a rerun
// with the same inputs is bit-identical.
type Options struct {
	Seed int64

	// WithValidation enables the bootstrap CI on the modulus.
	WithValidation bool
	BootstrapMethod validation.BootstrapMethod
	Resamples       int

	// WithPhase enables the phase-robustness panel.
	WithPhase   bool
	PhaseConfig phase.Config

	// WithEnrichment enables the root-space enrichment report over the
	// analyzed channels, tested against the given reference point.
	WithEnrichment bool
	Reference      Reference
	Permutations   int

	// Workers bounds the channel fan-out; 0 means one goroutine per
	// channel.
	Workers int
}

// ChannelResult is the structured per-channel output contract.
type ChannelResult struct {
	Name     string
	Unit     string
	Warnings []string

	Beta1         float64
	Beta2         float64
	Modulus       float64
	IsComplex     bool
	ImpliedPeriod float64 // in time units; 0 when dynamics are non-oscillatory
	Stability     roots.Class
	Strength      roots.Strength
	R2            float64
	Degenerate    bool

	LjungBox   diagnostics.LjungBoxResult
	Quality    []diagnostics.Diagnostic
	EdgeCases  []diagnostics.Diagnostic
	Confidence confidence.Assessment

	Bootstrap *validation.BootstrapCI
	Phase     *phase.RobustnessResult
}

// SkippedChannel records a channel excluded before analysis.
type SkippedChannel struct {
	Name   string
	Reason string
}

// RunResult is the whole-run output. NoStructure marks the legitimate
// negative result of every analyzed channel showing r² < 0.10; it is
// distinct from Skipped, which lists channels that could not be
// analyzed at all.
type RunResult struct {
	Seed        int64
	Channels    []ChannelResult
	Skipped     []SkippedChannel
	NoStructure bool

	// Enrichment is present when the run was asked to test the channel
	// set against a reference point in root space.
	Enrichment *EnrichmentReport
}

// Analyze runs the pipeline over every channel. Channel-level
// exclusion is the only hard skip; everything else is reported with
// flags and degraded confidence rather than dropped.
func Analyze(ctx context.Context, channels []series.TimeSeries, opts Options) (RunResult, error) {
	src := randx.NewSource(opts.Seed)
	result := RunResult{Seed: opts.Seed}

	type slot struct {
		res     *ChannelResult
		skipped *SkippedChannel
		err     error
	}
	slots := make([]slot, len(channels))

	sem := make(chan struct{}, fanout(opts.Workers, len(channels)))
	var wg sync.WaitGroup
	for i := range channels {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ts := channels[idx]
			v := series.Validate(ts)
			if !v.OK() {
				slots[idx].skipped = &SkippedChannel{Name: ts.Name, Reason: v.Err.Error()}
				return
			}

			cr, err := analyzeChannel(ctx, ts, v.Warnings, opts, src.Child(int64(idx)))
			if err != nil {
				slots[idx].err = err
				return
			}
			slots[idx].res = cr
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return RunResult{Seed: opts.Seed}, err
	}

	allWeak := true
	for _, s := range slots {
		switch {
		case s.err != nil:
			return RunResult{Seed: opts.Seed}, s.err
		case s.skipped != nil:
			result.Skipped = append(result.Skipped, *s.skipped)
		case s.res != nil:
			result.Channels = append(result.Channels, *s.res)
			if s.res.R2 >= NoStructureR2 {
				allWeak = false
			}
		}
	}
	result.NoStructure = len(result.Channels) > 0 && allWeak

	if opts.WithEnrichment && len(result.Channels) > 0 {
		// Child index len(channels) is disjoint from the per-channel
		// indices 0..len(channels)-1.
		rep, err := RootSpaceEnrichment(ctx, result.Channels, opts.Reference, opts.Permutations, src.Child(int64(len(channels))))
		if err != nil {
			return RunResult{Seed: opts.Seed}, err
		}
		result.Enrichment = &rep
	}

	return result, nil
}

func analyzeChannel(ctx context.Context, ts series.TimeSeries, warnings []string, opts Options, src *randx.Source) (*ChannelResult, error) {
	fit := arfit.AR2(ts.Values)
	res := roots.Resolve(fit.Beta1(), fit.Beta2())
	diag := diagnostics.Run(ts, fit, res)

	cr := &ChannelResult{
		Name:       ts.Name,
		Unit:       ts.Unit,
		Warnings:   warnings,
		Beta1:      fit.Beta1(),
		Beta2:      fit.Beta2(),
		Modulus:    res.Modulus(),
		IsComplex:  res.IsComplex(),
		Stability:  res.Class,
		Strength:   res.Strength,
		R2:         fit.R2,
		Degenerate: fit.Degenerate,
		LjungBox:   diag.LjungBox,
		Quality:    diag.Quality,
		EdgeCases:  diag.EdgeCases,
		Confidence: confidence.Score(diag),
	}
	if fit.Degenerate {
		cr.Confidence = confidence.ForceUnreliable(cr.Confidence)
	}
	if res.ImpliedPeriod > 0 {
		cr.ImpliedPeriod = res.ImpliedPeriod * ts.SamplingInterval()
	}

	if opts.WithValidation && !fit.Degenerate {
		ci, err := validation.BootstrapModulusCI(ctx, ts.Values, opts.BootstrapMethod, opts.Resamples, src.Child(1))
		switch err {
		case nil:
			cr.Bootstrap = &ci
		case validation.ErrDegenerateBase, validation.ErrTooFewResamples:
			cr.Warnings = append(cr.Warnings, "bootstrap unavailable: "+err.Error())
		default:
			return nil, err
		}
	}

	if opts.WithPhase {
		panel := phase.Panel(ts, opts.PhaseConfig)
		cr.Phase = &panel
	}

	return cr, nil
}

func fanout(workers, n int) int {
	if workers <= 0 || workers > n {
		if n < 1 {
			return 1
		}
		return n
	}
	return workers
}
