package analyzer

import (
	"math"

	"codeberg.org/mutker/powertrace/internal/signal"
	"codeberg.org/mutker/powertrace/internal/table"
)

const (
	EventCPUIdle = "cpu_idle"

	// IdleExit is the idle state a CPU reports when it leaves idle.
	IdleExit = -1

	// rawIdleExit is IdleExit as an unsigned 32-bit trace field.
	rawIdleExit = 4294967295
)

// Idle analyzes CPU idle-state transitions.
type Idle struct {
	module
}

func newIdle(a *Analyzer) *Idle {
	m := &Idle{module: newModule(a, "cpuidle", EventCPUIdle)}

	m.reg.register(NamespaceSignal, "cpu_idle_state", nil, func([]int) (*table.Table, error) {
		sig, err := m.CPUIdleState()
		if err != nil {
			return nil, err
		}
		return cpuSignalTable("cpu_idle_state", sig), nil
	})
	m.reg.register(NamespaceSignal, "cpu_active", nil, func([]int) (*table.Table, error) {
		sig, err := m.CPUActive()
		if err != nil {
			return nil, err
		}
		return cpuSignalTable("cpu_active", sig), nil
	})
	m.reg.registerGroup(NamespaceSignal, "cluster_active", nil, func(cpus []int) (*table.Table, error) {
		s, err := m.ClusterActive(cpus)
		if err != nil {
			return nil, err
		}
		return seriesTable("cluster_active", "active", s), nil
	})
	m.reg.register(NamespaceEvent, "cpu_wakeup", nil, func([]int) (*table.Table, error) {
		events, err := m.CPUWakeup()
		if err != nil {
			return nil, err
		}
		return cpuEventTable("cpu_wakeup", events), nil
	})
	m.reg.register(NamespaceStats, "cpu_time", nil, func([]int) (*table.Table, error) {
		t, err := m.CPUTime()
		if err != nil {
			return nil, err
		}
		return perCPUTable("cpu_time", "active_time", m.a.cpus, t), nil
	})
	m.reg.register(NamespaceStats, "wakeup_count", nil, func([]int) (*table.Table, error) {
		counts, err := m.WakeupCount()
		if err != nil {
			return nil, err
		}
		vals := make(map[int]float64, len(counts))
		for cpu, n := range counts {
			vals[cpu] = float64(n)
		}
		return perCPUTable("wakeup_count", "wakeups", m.a.cpus, vals), nil
	})
	m.reg.register(NamespaceStats, "cluster_time", nil, func([]int) (*table.Table, error) {
		times, err := m.ClusterTime()
		if err != nil {
			return nil, err
		}
		tbl := table.New("cluster_time", "cluster", "active_time")
		for _, c := range m.a.Topology() {
			tbl.Append(c.Name, times[c.Name])
		}
		return tbl, nil
	})

	return m
}

// CPUIdleState returns the idle state of every CPU over the window. A CPU
// that is running reports IdleExit.
func (m *Idle) CPUIdleState() (*signal.Signal[int], error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	sig := pivotCPU(m.a.eventTable(EventCPUIdle), []string{"cpu_id"}, []string{"state"}, m.a.cpus,
		func(v float64) float64 {
			if v == rawIdleExit {
				return IdleExit
			}
			return v
		})

	return sig.Extrude(m.a.window), nil
}

// CPUActive returns 1 where a CPU is running and 0 where it is idle.
func (m *Idle) CPUActive() (*signal.Signal[int], error) {
	state, err := m.CPUIdleState()
	if err != nil {
		return nil, err
	}

	return state.Map(func(v float64) float64 {
		if v == IdleExit {
			return 1
		}
		return 0
	}), nil
}

// ClusterActive returns 1 where at least one of cpus is running, 0 where all
// of them are idle and NaN where none of them is known yet.
func (m *Idle) ClusterActive(cpus []int) (*signal.Series, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	cpus, err := m.a.group("cluster_active", cpus)
	if err != nil {
		return nil, err
	}

	active, err := m.CPUActive()
	if err != nil {
		return nil, err
	}

	return active.Select(cpus).Reduce(func(row []float64) float64 {
		known := false
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v != 0 {
				return 1
			}
			known = true
		}
		if !known {
			return math.NaN()
		}
		return 0
	}), nil
}

// CPUWakeup returns the times at which a CPU left idle, in time order.
func (m *Idle) CPUWakeup() ([]signal.Event[int], error) {
	state, err := m.CPUIdleState()
	if err != nil {
		return nil, err
	}

	return signal.Transitions(state, func(v float64) bool { return v == IdleExit }), nil
}

// CPUTime returns the time each CPU spent running.
func (m *Idle) CPUTime() (map[int]float64, error) {
	active, err := m.CPUActive()
	if err != nil {
		return nil, err
	}

	out := make(map[int]float64, len(active.Keys()))
	for _, cpu := range active.Keys() {
		col, _ := active.Column(cpu)
		out[cpu] = signal.IntegrateSquareWave(col.DropNaN())
	}

	return out, nil
}

// WakeupCount returns the number of wakeups of each CPU.
func (m *Idle) WakeupCount() (map[int]int, error) {
	events, err := m.CPUWakeup()
	if err != nil {
		return nil, err
	}

	return signal.CountByKey(events, m.a.cpus), nil
}

// ClusterTime returns the time each topology cluster had a running CPU. A
// cluster with no CPU in the trace gets NaN.
func (m *Idle) ClusterTime() (map[string]float64, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, c := range m.a.Topology() {
		cpus := m.a.knownCPUs(c.CPUs)
		if len(cpus) == 0 {
			out[c.Name] = math.NaN()
			continue
		}
		s, err := m.ClusterActive(cpus)
		if err != nil {
			return nil, err
		}
		out[c.Name] = signal.IntegrateSquareWave(s.DropNaN())
	}

	return out, nil
}
