package analyzer

import (
	"sort"

	"codeberg.org/mutker/powertrace/internal/signal"
	"codeberg.org/mutker/powertrace/internal/table"
)

const EventThermalTemperature = "thermal_temperature"

// Thermal analyzes thermal zone readings.
type Thermal struct {
	module
}

func newThermal(a *Analyzer) *Thermal {
	m := &Thermal{module: newModule(a, "thermal", EventThermalTemperature)}

	m.reg.register(NamespaceSignal, "temperature", nil, func([]int) (*table.Table, error) {
		sig, err := m.Temperature()
		if err != nil {
			return nil, err
		}
		return zoneSignalTable("temperature", sig), nil
	})
	m.reg.register(NamespaceStats, "avg_temperature", nil, func([]int) (*table.Table, error) {
		avg, err := m.AvgTemperature()
		if err != nil {
			return nil, err
		}
		tbl := table.New("avg_temperature", "thermal_zone", "avg_temperature")
		zones := make([]string, 0, len(avg))
		for zone := range avg {
			zones = append(zones, zone)
		}
		sort.Strings(zones)
		for _, zone := range zones {
			tbl.Append(zone, avg[zone])
		}
		return tbl, nil
	})

	return m
}

// Temperature returns the temperature of every observed thermal zone.
func (m *Thermal) Temperature() (*signal.Signal[string], error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	sig := pivotZone(m.a.eventTable(EventThermalTemperature), "thermal_zone", "temp")

	return sig.Extrude(m.a.window), nil
}

// AvgTemperature returns the time-weighted average temperature of every zone.
// A zone whose readings span no time averages to NaN.
func (m *Thermal) AvgTemperature() (map[string]float64, error) {
	sig, err := m.Temperature()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(sig.Keys()))
	for _, zone := range sig.Keys() {
		col, _ := sig.Column(zone)
		out[zone] = signal.Average(col)
	}

	return out, nil
}
