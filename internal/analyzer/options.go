package analyzer

import "codeberg.org/mutker/powertrace/internal/logger"

// Cluster is a named set of CPUs sharing a power domain.
type Cluster struct {
	Name string
	CPUs []int
}

type options struct {
	start, end *float64
	topology   []Cluster
	domains    [][]int
	log        logger.Logger
}

// Option configures an Analyzer.
type Option func(*options)

// WithWindow restricts analysis to [start, end]. A nil bound defaults to the
// first (or last) timestamp of any available event.
func WithWindow(start, end *float64) Option {
	return func(o *options) {
		o.start = start
		o.end = end
	}
}

// WithTopology declares the CPU clusters of the traced target.
func WithTopology(clusters ...Cluster) Option {
	return func(o *options) {
		o.topology = clusters
	}
}

// WithFrequencyDomains declares groups of CPUs whose frequencies are tied.
func WithFrequencyDomains(domains ...[]int) Option {
	return func(o *options) {
		o.domains = domains
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}
