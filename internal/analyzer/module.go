package analyzer

import (
	"fmt"
	"sort"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/table"
)

// Namespace groups accessors by the kind of result they produce.
type Namespace string

const (
	NamespaceEvent  Namespace = "event"
	NamespaceSignal Namespace = "signal"
	NamespaceStats  Namespace = "stats"
)

// Namespaces lists every namespace in display order.
var Namespaces = []Namespace{NamespaceSignal, NamespaceEvent, NamespaceStats}

// Module is a domain-specific set of accessors over one analyzer.
type Module interface {
	Name() string
	// RequiredEvents lists the events the module's accessors need by default.
	RequiredEvents() []string
	// Accessors lists the accessor names registered in ns, sorted.
	Accessors(ns Namespace) []string
	// Requires lists the events an accessor needs.
	Requires(ns Namespace, name string) ([]string, error)
	// Call runs an accessor. Only accessors over a CPU group take cpus.
	Call(ns Namespace, name string, cpus ...int) (*table.Table, error)
}

type accessorFunc func(cpus []int) (*table.Table, error)

type accessor struct {
	requires []string
	group    bool // takes a CPU group
	fn       accessorFunc
}

type registry map[Namespace]map[string]accessor

func (r registry) add(ns Namespace, name string, acc accessor) {
	if r[ns] == nil {
		r[ns] = make(map[string]accessor)
	}
	r[ns][name] = acc
}

// register adds an accessor that takes no arguments.
func (r registry) register(ns Namespace, name string, requires []string, fn accessorFunc) {
	r.add(ns, name, accessor{requires: requires, fn: fn})
}

// registerGroup adds an accessor over a CPU group.
func (r registry) registerGroup(ns Namespace, name string, requires []string, fn accessorFunc) {
	r.add(ns, name, accessor{requires: requires, group: true, fn: fn})
}

// module holds what every analyzer module shares: the owning analyzer, its
// default required events and its accessor registry.
type module struct {
	a        *Analyzer
	name     string
	required []string
	reg      registry
}

func newModule(a *Analyzer, name string, required ...string) module {
	return module{a: a, name: name, required: required, reg: make(registry)}
}

func (m *module) Name() string {
	return m.name
}

func (m *module) RequiredEvents() []string {
	return m.required
}

func (m *module) Accessors(ns Namespace) []string {
	names := make([]string, 0, len(m.reg[ns]))
	for n := range m.reg[ns] {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

func (m *module) lookup(ns Namespace, name string) (accessor, error) {
	acc, ok := m.reg[ns][name]
	if !ok {
		return accessor{}, errFactory.WithData(errors.ErrUnknownAccessor, errors.AccessorData{
			Module:    m.name,
			Namespace: string(ns),
			Name:      name,
			Valid:     m.Accessors(ns),
		})
	}

	return acc, nil
}

func (m *module) Requires(ns Namespace, name string) ([]string, error) {
	acc, err := m.lookup(ns, name)
	if err != nil {
		return nil, err
	}
	if acc.requires == nil {
		return m.RequiredEvents(), nil
	}

	return acc.requires, nil
}

func (m *module) Call(ns Namespace, name string, cpus ...int) (*table.Table, error) {
	acc, err := m.lookup(ns, name)
	if err != nil {
		return nil, err
	}
	if !acc.group && len(cpus) > 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument,
			fmt.Sprintf("%s %s %s takes no CPU arguments", m.name, ns, name))
	}

	return acc.fn(cpus)
}

// check fails with ErrMissingTraceEvents unless every event is available.
// Without arguments the module's default events are checked.
func (m *module) check(events ...string) error {
	if len(events) == 0 {
		events = m.RequiredEvents()
	}
	if missing := m.a.missing(events); len(missing) > 0 {
		return errors.NewMissingEvents(missing)
	}

	return nil
}
