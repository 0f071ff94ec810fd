package analyzer

import (
	"slices"

	"codeberg.org/mutker/powertrace/internal/trace"
)

// injectDevlib merges the frequency snapshots devlib records at trace start
// and stop into cpu_frequency. Injection is per frequency domain and never
// interleaves snapshots with frequency changes reported by the kernel.
func (m *Frequency) injectDevlib() {
	devlib := m.a.eventTable(EventCPUFrequencyDevlib).Rows()
	kernel := m.a.eventTable(EventCPUFrequency).Rows()

	if len(kernel) == 0 {
		m.a.overrides[EventCPUFrequency] = trace.NewTable(EventCPUFrequency, devlib)
		m.a.available[EventCPUFrequency] = struct{}{}
		m.a.log.Debug().Int("rows", len(devlib)).Msg("Using devlib frequency snapshots as cpu_frequency")

		return
	}

	n := min(len(m.a.cpus), len(devlib))
	initial, final := devlib[:n], devlib[n:]

	rows := slices.Clone(kernel)
	for _, d := range m.a.domains {
		snap := inDomain(initial, d)
		if len(snap) == 0 {
			continue
		}
		known := inDomain(kernel, d)
		if len(known) == 0 || firstTime(known) > lastTime(snap) {
			rows = slices.Concat(snap, rows)
			m.a.log.Debug().Ints("cpus", d).Msg("Injected initial devlib frequencies")
		}
	}

	injected := slices.Clone(rows)
	for _, d := range m.a.domains {
		snap := inDomain(final, d)
		if len(snap) == 0 {
			continue
		}
		known := inDomain(injected, d)
		if len(known) == 0 || lastTime(known) < firstTime(snap) {
			rows = slices.Concat(rows, snap)
			m.a.log.Debug().Ints("cpus", d).Msg("Injected final devlib frequencies")
		}
	}

	m.a.overrides[EventCPUFrequency] = trace.NewTable(EventCPUFrequency, rows)
}

// inDomain returns the rows describing one of cpus, in trace order.
func inDomain(rows []trace.Row, cpus []int) []trace.Row {
	var out []trace.Row
	for _, r := range rows {
		if slices.Contains(cpus, rowCPU(r, freqKeyFields...)) {
			out = append(out, r)
		}
	}

	return out
}

func firstTime(rows []trace.Row) float64 {
	t := rows[0].Time
	for _, r := range rows[1:] {
		t = min(t, r.Time)
	}

	return t
}

func lastTime(rows []trace.Row) float64 {
	t := rows[0].Time
	for _, r := range rows[1:] {
		t = max(t, r.Time)
	}

	return t
}
