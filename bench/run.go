package bench

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/jsonabi/errors"
)

// DefaultIterations is used when RunConfig.Iterations is zero.
const DefaultIterations = 100

// RunConfig controls a harness run. A nil *RunConfig means all defaults.
type RunConfig struct {
	// Logger receives one debug entry per measurement.
	Logger *zap.Logger

	// Iterations per probe and input. 0 means DefaultIterations.
	Iterations int

	// Warmup passes before timing; at least one always runs, and a probe
	// that fails it is not timed.
	Warmup int
}

// Result is one probe measured on one input.
type Result struct {
	Probe      string
	Input      string
	Bytes      int
	Iterations int
	Elapsed    time.Duration
	// OK is false when the probe rejected the input; nothing was timed.
	OK bool
}

// NsPerOp returns the mean time per parse.
func (r Result) NsPerOp() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Elapsed.Nanoseconds()) / float64(r.Iterations)
}

// MBPerSec returns the parse throughput in megabytes per second.
func (r Result) MBPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Bytes) * float64(r.Iterations) / 1e6 / r.Elapsed.Seconds()
}

// Run measures every probe on every input. A probe that rejects an input
// gets a Result with OK false; Run fails only when nothing was measured.
func Run(probes []Probe, inputs []Input, cfg *RunConfig) ([]Result, error) {
	if cfg == nil {
		cfg = &RunConfig{}
	}
	iters := cfg.Iterations
	if iters <= 0 {
		iters = DefaultIterations
	}
	warmup := max(cfg.Warmup, 1)
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if len(probes) == 0 || len(inputs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseBench, "no probes or inputs")
	}

	results := make([]Result, 0, len(probes)*len(inputs))
	for _, in := range inputs {
		for _, p := range probes {
			r := measure(p, in, iters, warmup)
			log.Debug("measured",
				zap.String("probe", r.Probe),
				zap.String("input", r.Input),
				zap.Bool("ok", r.OK),
				zap.Duration("elapsed", r.Elapsed))
			results = append(results, r)
		}
	}
	return results, nil
}

func measure(p Probe, in Input, iters, warmup int) Result {
	r := Result{Probe: p.Name(), Input: in.Name, Bytes: len(in.Data)}

	for range warmup {
		if !p.Parse(in.Data) {
			return r
		}
	}

	start := time.Now()
	for range iters {
		p.Parse(in.Data)
	}
	r.Elapsed = time.Since(start)
	r.Iterations = iters
	r.OK = true
	return r
}
