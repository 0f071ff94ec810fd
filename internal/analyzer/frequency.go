package analyzer

import (
	"math"
	"slices"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/signal"
	"codeberg.org/mutker/powertrace/internal/table"
)

const (
	EventCPUFrequency       = "cpu_frequency"
	EventCPUFrequencyDevlib = "cpu_frequency_devlib"
)

var (
	freqKeyFields   = []string{"cpu_id", "cpu"}
	freqValueFields = []string{"state", "frequency"}
)

// ActivitySource reports when a group of CPUs is running.
type ActivitySource interface {
	ClusterActive(cpus []int) (*signal.Series, error)
}

// Residency is the time a CPU group spent at each frequency.
type Residency struct {
	CPUs        []int
	Frequencies []float64 // ascending
	Total       map[float64]float64
	Active      map[float64]float64
}

// Frequency analyzes CPU frequency scaling.
type Frequency struct {
	module
	activity ActivitySource
}

func newFrequency(a *Analyzer, activity ActivitySource) *Frequency {
	m := &Frequency{module: newModule(a, "cpufreq", EventCPUFrequency), activity: activity}

	if len(a.domains) > 0 && a.HasEvents(EventCPUFrequencyDevlib) {
		m.injectDevlib()
	}
	for _, d := range a.domains {
		if !m.coherent(d) {
			a.log.Warn().Ints("cpus", d).Msg("Frequency domain is not coherent")
		}
	}

	residencyEvents := []string{EventCPUIdle, EventCPUFrequency}

	m.reg.register(NamespaceSignal, "cpu_frequency", nil, func([]int) (*table.Table, error) {
		sig, err := m.CPUFrequency()
		if err != nil {
			return nil, err
		}
		return cpuSignalTable("cpu_frequency", sig), nil
	})
	m.reg.register(NamespaceStats, "frequency_residency", residencyEvents, func([]int) (*table.Table, error) {
		res, err := m.FrequencyResidency()
		if err != nil {
			return nil, err
		}
		return residencyTable("frequency_residency", res), nil
	})
	m.reg.registerGroup(NamespaceStats, "group_residency", residencyEvents, func(cpus []int) (*table.Table, error) {
		res, err := m.GroupResidency(cpus)
		if err != nil {
			return nil, err
		}
		return residencyTable("group_residency", []*Residency{res}), nil
	})
	m.reg.register(NamespaceStats, "frequency_transitions", nil, func([]int) (*table.Table, error) {
		counts, err := m.FrequencyTransitions()
		if err != nil {
			return nil, err
		}
		vals := make(map[int]float64, len(counts))
		for cpu, n := range counts {
			vals[cpu] = float64(n)
		}
		return perCPUTable("frequency_transitions", "transitions", m.a.cpus, vals), nil
	})

	return m
}

// CPUFrequency returns the frequency of every CPU over the window.
func (m *Frequency) CPUFrequency() (*signal.Signal[int], error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	sig := pivotCPU(m.a.eventTable(EventCPUFrequency), freqKeyFields, freqValueFields, m.a.cpus, nil)

	return sig.Extrude(m.a.window), nil
}

// GroupResidency returns the frequency residency of a group of CPUs. A group
// of more than one CPU must switch frequency in lock-step, otherwise it fails
// with ErrIncoherentGroupFrequency.
func (m *Frequency) GroupResidency(cpus []int) (*Residency, error) {
	if err := m.check(EventCPUIdle, EventCPUFrequency); err != nil {
		return nil, err
	}
	cpus, err := m.a.group("group_residency", cpus)
	if err != nil {
		return nil, err
	}
	if len(cpus) > 1 && !m.coherent(cpus) {
		return nil, errFactory.WithData(errors.ErrIncoherentGroupFrequency, cpus)
	}

	freqs, err := m.CPUFrequency()
	if err != nil {
		return nil, err
	}
	freq, _ := freqs.Select(cpus[:1]).Column(cpus[0])

	active, err := m.activity.ClusterActive(cpus)
	if err != nil {
		return nil, err
	}

	total, busy := signal.Residency(freq, active)
	res := &Residency{CPUs: slices.Clone(cpus), Total: total, Active: busy}
	for f := range total {
		res.Frequencies = append(res.Frequencies, f)
	}
	slices.Sort(res.Frequencies)

	return res, nil
}

// FrequencyResidency returns the residency of every frequency domain, or of
// every CPU when no domains were declared. Domain CPUs absent from the trace
// are left out; a domain with none left is skipped.
func (m *Frequency) FrequencyResidency() ([]*Residency, error) {
	if err := m.check(EventCPUIdle, EventCPUFrequency); err != nil {
		return nil, err
	}

	domains := m.a.FrequencyDomains()
	var groups [][]int
	for _, d := range domains {
		if g := m.a.knownCPUs(d); len(g) > 0 {
			groups = append(groups, g)
		}
	}
	if len(domains) == 0 {
		for _, cpu := range m.a.cpus {
			groups = append(groups, []int{cpu})
		}
	}

	out := make([]*Residency, 0, len(groups))
	for _, g := range groups {
		res, err := m.GroupResidency(g)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}

	return out, nil
}

// FrequencyTransitions returns how many times each CPU changed frequency.
func (m *Frequency) FrequencyTransitions() (map[int]int, error) {
	sig, err := m.CPUFrequency()
	if err != nil {
		return nil, err
	}

	changes := signal.CountByKey(signal.Transitions(sig, func(float64) bool { return true }), sig.Keys())
	for cpu, n := range changes {
		// The first known value is a starting point, not a change.
		changes[cpu] = max(n-1, 0)
	}

	return changes, nil
}

// coherent reports whether cpus report the same frequency for every run of
// len(cpus) consecutive frequency records of the group.
func (m *Frequency) coherent(cpus []int) bool {
	if len(cpus) < 2 {
		return true
	}

	tbl := m.a.eventTable(EventCPUFrequency)
	cols, ok := resolveColumns(tbl, freqKeyFields, freqValueFields)
	if !ok {
		return true
	}

	var values []float64
	for _, r := range tbl.Rows() {
		if !slices.Contains(cpus, cols.cpu(r)) {
			continue
		}
		v, ok := r.Field(cols.value)
		if !ok || !v.IsNumeric() {
			continue
		}
		values = append(values, v.Float())
	}

	for start := 0; start < len(values); start += len(cpus) {
		chunk := values[start:min(start+len(cpus), len(values))]
		for _, v := range chunk[1:] {
			if v != chunk[0] {
				return false
			}
		}
	}

	return true
}

// residencyTable lays out residencies side by side: one row per frequency,
// a total and an active column per group keyed by the group's first CPU.
func residencyTable(name string, res []*Residency) *table.Table {
	var cols []string
	var freqs []float64
	for _, r := range res {
		key := formatInt(r.CPUs[0])
		cols = append(cols, key+"/total", key+"/active")
		freqs = append(freqs, r.Frequencies...)
	}
	slices.Sort(freqs)
	freqs = slices.Compact(freqs)

	tbl := table.New(name, "frequency", cols...)
	for _, f := range freqs {
		vals := make([]float64, 0, len(cols))
		for _, r := range res {
			total, ok := r.Total[f]
			if !ok {
				vals = append(vals, math.NaN(), math.NaN())
				continue
			}
			vals = append(vals, total, r.Active[f])
		}
		tbl.Append(formatFloat(f), vals...)
	}

	return tbl
}
