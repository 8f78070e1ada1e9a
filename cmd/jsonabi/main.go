package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jsonabi/bench"
	"github.com/wippyai/jsonabi/engine"
	"github.com/wippyai/jsonabi/errors"
	"github.com/wippyai/jsonabi/hostabi"
	"github.com/wippyai/jsonabi/metrics"
	"github.com/wippyai/jsonabi/runtime"
	"github.com/wippyai/jsonabi/value"
	"github.com/wippyai/jsonabi/writer"
)

type options struct {
	pretty      bool
	rawNumber   bool
	raw         bool
	lossy       bool
	validate    bool
	wasm        bool
	bench       bool
	metrics     bool
	verbose     bool
	interactive bool
	iterations  int
	pointer     string
}

func (o options) deserializeFlags() engine.DeserializeFlags {
	var f engine.DeserializeFlags
	if o.rawNumber {
		f |= engine.DeserializeRawNumber
	}
	if o.raw {
		f |= engine.DeserializeRawValue
	}
	if o.lossy {
		f |= engine.DeserializeUTF8Lossy
	}
	return f
}

func (o options) serializeFlags() engine.SerializeFlags {
	if o.pretty {
		return engine.SerializePretty
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonabi", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.BoolVar(&o.pretty, "pretty", false, "Pretty-print output with two-space indent")
	fs.BoolVar(&o.rawNumber, "raw-number", false, "Keep numbers in their source form")
	fs.BoolVar(&o.raw, "raw", false, "Keep strings and numbers in their source form")
	fs.BoolVar(&o.lossy, "lossy", false, "Replace invalid UTF-8 with U+FFFD instead of failing")
	fs.BoolVar(&o.validate, "validate", false, "Only report whether the input parses")
	fs.BoolVar(&o.wasm, "wasm", false, "Route every call through the wasm loopback guest")
	fs.BoolVar(&o.bench, "bench", false, "Benchmark parse throughput against other engines")
	fs.IntVar(&o.iterations, "n", bench.DefaultIterations, "Benchmark iterations per probe and input")
	fs.BoolVar(&o.metrics, "metrics", false, "Print engine metrics at exit")
	fs.BoolVar(&o.verbose, "v", false, "Verbose development logging")
	fs.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	fs.StringVar(&o.pointer, "pointer", "", "Print only the value at this JSON pointer")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jsonabi [flags] [file]")
		fmt.Fprintln(stderr, "       jsonabi -bench [-n iterations] [file]")
		fmt.Fprintln(stderr, "       jsonabi -i  (interactive mode)")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := zap.NewNop()
	if o.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer log.Sync()
	engine.SetLogger(log)
	hostabi.SetLogger(log)

	var reg *prometheus.Registry
	cfg := &engine.Config{Logger: log}
	if o.metrics {
		reg = prometheus.NewRegistry()
		cfg.Observers = append(cfg.Observers, metrics.NewCollector(reg))
	}

	err := dispatch(o, fs.Args(), cfg, stdin, stdout)
	if reg != nil {
		printMetrics(stderr, reg)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var perr *errors.Error
		if stderrors.As(err, &perr) && perr.HasPosition() {
			fmt.Fprintf(stderr, "%s:%d:%d\n", source(fs.Args()), perr.Line, perr.Column)
		}
		return 1
	}
	return 0
}

func dispatch(o options, args []string, cfg *engine.Config, stdin io.Reader, stdout io.Writer) error {
	if o.interactive {
		if !isTerminal(stdin) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(o, cfg)
	}

	if o.bench {
		return runBench(o, args, cfg, stdout)
	}

	if len(args) == 0 && isTerminal(stdin) {
		return fmt.Errorf("no input: pass a file or pipe JSON on stdin")
	}
	data, err := readInput(args, stdin)
	if err != nil {
		return err
	}

	p, err := newProcessor(o, cfg)
	if err != nil {
		return err
	}
	defer p.close()

	out, err := p.process(data, o)
	if err != nil {
		return err
	}
	if o.validate {
		fmt.Fprintln(stdout, "ok")
		return nil
	}
	stdout.Write(out)
	fmt.Fprintln(stdout)
	return nil
}

func readInput(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, errors.Load("read file "+args[0], err)
		}
		return data, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, errors.Load("read stdin", err)
	}
	return data, nil
}

// source names the input for position lines.
func source(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "<stdin>"
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// processor hides whether calls go through the Go runtime or the wasm
// loopback.
type processor interface {
	process(data []byte, o options) ([]byte, error)
	close() error
}

func newProcessor(o options, cfg *engine.Config) (processor, error) {
	if o.wasm {
		lb, err := hostabi.NewLoopback(context.Background(), &hostabi.Config{EngineConfig: cfg})
		if err != nil {
			return nil, fmt.Errorf("start wasm loopback: %w", err)
		}
		return wasmProcessor{lb: lb}, nil
	}
	return goProcessor{rt: runtime.New(cfg)}, nil
}

type goProcessor struct {
	rt *runtime.Runtime
}

func (p goProcessor) process(data []byte, o options) ([]byte, error) {
	doc, err := p.rt.Parse(data, o.deserializeFlags())
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if o.validate {
		return nil, nil
	}
	if o.pointer != "" {
		var out []byte
		err := doc.With(func(root *value.Value) error {
			v, err := root.Pointer(o.pointer)
			if err != nil {
				return err
			}
			out, err = marshalValue(v, o)
			return err
		})
		return out, err
	}
	return doc.Marshal(o.serializeFlags())
}

func marshalValue(v *value.Value, o options) ([]byte, error) {
	return writer.Marshal(v, o.serializeFlags().Options())
}

func (p goProcessor) close() error { return p.rt.Close() }

type wasmProcessor struct {
	lb *hostabi.Loopback
}

func (p wasmProcessor) process(data []byte, o options) ([]byte, error) {
	ctx := context.Background()
	h, err := p.lb.Deserialize(ctx, data, o.deserializeFlags())
	if err != nil {
		return nil, err
	}
	defer p.lb.DropValue(ctx, h)

	if o.validate {
		return nil, nil
	}
	if o.pointer != "" {
		return nil, fmt.Errorf("-pointer is not available with -wasm")
	}
	return p.lb.Serialize(ctx, h, o.serializeFlags())
}

func (p wasmProcessor) close() error { return p.lb.Close(context.Background()) }

func runBench(o options, args []string, cfg *engine.Config, stdout io.Writer) error {
	inputs := bench.Corpus()
	if len(args) > 0 {
		data, err := readInput(args, nil)
		if err != nil {
			return err
		}
		inputs = []bench.Input{{Name: args[0], Data: data}}
	}

	ctx := context.Background()
	lb, err := hostabi.NewLoopback(ctx, &hostabi.Config{EngineConfig: cfg})
	if err != nil {
		return fmt.Errorf("start wasm loopback: %w", err)
	}
	defer lb.Close(ctx)

	flags := o.deserializeFlags()
	probes := append([]bench.Probe{bench.Native(flags), bench.Wasm(lb, flags)}, bench.Thirdparty()...)

	results, err := bench.Run(probes, inputs, &bench.RunConfig{Iterations: o.iterations, Logger: cfg.Logger})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, bench.Table(results))
	return nil
}

// printMetrics writes counters and gauges in a plain name{labels} value form.
func printMetrics(w io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels(m), metricValue(m)))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func labels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	default:
		return 0
	}
}
