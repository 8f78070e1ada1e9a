// Package bench compares parse-only throughput of jsonabi against other Go
// JSON engines.
//
// Each Probe parses a document into its engine's DOM and throws it away;
// nothing parsed leaves the probe. Run times every probe on every input
// after a validating warm-up pass, and Table renders the results.
//
//	results, err := bench.Run(append([]bench.Probe{bench.Native(0)}, bench.Thirdparty()...),
//	    bench.Corpus(), &bench.RunConfig{Iterations: 200})
//	fmt.Println(bench.Table(results))
//
// Probes are not safe for concurrent use.
package bench
