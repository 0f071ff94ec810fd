// Package analyzer reconstructs idle, frequency and thermal signals from a
// parsed trace and derives statistics from them over an analysis window.
package analyzer

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	"codeberg.org/mutker/powertrace/internal/signal"
	"codeberg.org/mutker/powertrace/internal/table"
	"codeberg.org/mutker/powertrace/internal/trace"
)

var errFactory = errors.New()

// cpuFields are the row fields that may name a CPU other than the one the
// record was emitted on.
var cpuFields = []string{"cpu_id", "cpu"}

// Analyzer is the entry point of an analysis. It is immutable once built.
type Analyzer struct {
	src       trace.Source
	overrides map[string]*trace.Table
	available map[string]struct{}
	cpus      []int
	window    signal.Window
	topology  []Cluster
	domains   [][]int
	log       logger.Logger

	Idle      *Idle
	Frequency *Frequency
	Thermal   *Thermal

	modules map[string]Module
}

// New inventories src and builds every analyzer module. It fails with
// ErrEmptyTrace when no event type has any row.
func New(src trace.Source, opts ...Option) (*Analyzer, error) {
	o := options{log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &Analyzer{
		src:       src,
		overrides: make(map[string]*trace.Table),
		available: make(map[string]struct{}),
		topology:  o.topology,
		domains:   o.domains,
		log:       o.log,
	}

	for _, name := range src.EventNames() {
		if src.Table(name).Len() > 0 {
			a.available[name] = struct{}{}
		}
	}
	if len(a.available) == 0 {
		return nil, errFactory.New(errors.ErrEmptyTrace)
	}

	maxCPU := 0
	first, last := math.Inf(1), math.Inf(-1)
	for name := range a.available {
		tbl := src.Table(name)
		maxCPU = max(maxCPU, tbl.MaxCPU(cpuFields...))
		if f, l, ok := tbl.Bounds(); ok {
			first = min(first, f)
			last = max(last, l)
		}
	}
	for cpu := 0; cpu <= maxCPU; cpu++ {
		a.cpus = append(a.cpus, cpu)
	}

	a.window = signal.Window{Start: first, End: last}
	if o.start != nil {
		a.window.Start = *o.start
	}
	if o.end != nil {
		a.window.End = *o.end
	}
	if a.window.Start > a.window.End {
		return nil, errFactory.WithData(errors.ErrInvalidWindow, a.window.String())
	}

	a.log.Debug().
		Strs("events", a.AvailableEvents()).
		Ints("cpus", a.cpus).
		Str("window", a.window.String()).
		Msg("Analyzing trace")

	a.Idle = newIdle(a)
	a.Frequency = newFrequency(a, a.Idle)
	a.Thermal = newThermal(a)

	a.modules = map[string]Module{
		a.Idle.Name():      a.Idle,
		a.Frequency.Name(): a.Frequency,
		a.Thermal.Name():   a.Thermal,
	}

	return a, nil
}

// AvailableEvents returns the sorted names of events with at least one row.
func (a *Analyzer) AvailableEvents() []string {
	names := make([]string, 0, len(a.available))
	for n := range a.available {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// HasEvents reports whether every named event is available.
func (a *Analyzer) HasEvents(events ...string) bool {
	return len(a.missing(events)) == 0
}

func (a *Analyzer) missing(events []string) []string {
	var out []string
	for _, e := range events {
		if _, ok := a.available[e]; !ok && !slices.Contains(out, e) {
			out = append(out, e)
		}
	}

	return out
}

// CPUs returns the CPU ids 0..max observed CPU.
func (a *Analyzer) CPUs() []int {
	return slices.Clone(a.cpus)
}

func (a *Analyzer) Window() signal.Window {
	return a.window
}

// Topology returns the declared clusters, or one cluster per CPU when none
// were declared.
func (a *Analyzer) Topology() []Cluster {
	if len(a.topology) > 0 {
		return a.topology
	}

	clusters := make([]Cluster, len(a.cpus))
	for i, cpu := range a.cpus {
		clusters[i] = Cluster{Name: formatInt(cpu), CPUs: []int{cpu}}
	}

	return clusters
}

// FrequencyDomains returns the declared frequency domains, possibly nil.
func (a *Analyzer) FrequencyDomains() [][]int {
	return a.domains
}

// group validates the CPU group an accessor was called with. The group must
// not be empty and may only name known CPUs; it comes back sorted without
// duplicates.
func (a *Analyzer) group(accessor string, cpus []int) ([]int, error) {
	if len(cpus) == 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, accessor+" needs at least one CPU")
	}

	out := slices.Clone(cpus)
	slices.Sort(out)
	out = slices.Compact(out)
	for _, cpu := range out {
		if _, ok := slices.BinarySearch(a.cpus, cpu); !ok {
			return nil, errFactory.WithMessage(errors.ErrInvalidArgument,
				fmt.Sprintf("%s: CPU %d is not in the trace", accessor, cpu))
		}
	}

	return out, nil
}

// knownCPUs returns the members of a declared CPU set that the trace knows
// about, sorted without duplicates.
func (a *Analyzer) knownCPUs(cpus []int) []int {
	var out []int
	for _, cpu := range cpus {
		if _, ok := slices.BinarySearch(a.cpus, cpu); ok {
			out = append(out, cpu)
		}
	}
	slices.Sort(out)

	return slices.Compact(out)
}

// eventTable returns the rows of an event, honouring tables rewritten during
// module construction.
func (a *Analyzer) eventTable(name string) *trace.Table {
	if tbl, ok := a.overrides[name]; ok {
		return tbl
	}

	return a.src.Table(name)
}

// Module returns a module by name.
func (a *Analyzer) Module(name string) (Module, error) {
	m, ok := a.modules[name]
	if !ok {
		return nil, errFactory.WithData(errors.ErrUnknownModule, name)
	}

	return m, nil
}

// Modules returns every module sorted by name.
func (a *Analyzer) Modules() []Module {
	out := make([]Module, 0, len(a.modules))
	for _, m := range a.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out
}

// Call runs the accessor name of module in namespace ns.
func (a *Analyzer) Call(module string, ns Namespace, name string, cpus ...int) (*table.Table, error) {
	m, err := a.Module(module)
	if err != nil {
		return nil, err
	}

	return m.Call(ns, name, cpus...)
}
