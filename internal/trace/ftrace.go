package trace

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"codeberg.org/mutker/powertrace/internal/errors"
)

// ftrace text lines, e.g.
//
//	<idle>-0     [004]   519.021928: cpu_idle:   state=4294967295 cpu_id=4
//	kworker/5:1-28858 [005] d..2 100.000000: thermal_temperature: thermal_zone=cls0 temp=20000
var ftraceLine = regexp.MustCompile(
	`^\s*(.+?)-(\d+)\s+(?:\(\s*[\d-]+\)\s+)?\[(\d+)\]\s+(?:\S+\s+)?(\d+\.\d+):\s+(\w+):\s*(.*)$`)

// ParseError reports the line that could not be parsed.
type ParseError struct {
	Line int
	Text string
}

func (e ParseError) String() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Text
}

// Parse reads ftrace text output. Lines that are not event records (headers,
// comments, blank lines) are skipped; events listed in only are kept, or all
// events when only is empty. Event types in only that never appear still get
// an empty table.
func Parse(r io.Reader, only ...string) (*Trace, error) {
	errFactory := errors.New()

	keep := make(map[string]bool, len(only))
	for _, e := range only {
		keep[e] = true
	}

	rows := make(map[string][]Row)
	for _, e := range only {
		rows[e] = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seq, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		m := ftraceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		event := m[5]
		if len(keep) > 0 && !keep[event] {
			continue
		}

		cpu, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, errFactory.WithData(errors.ErrParseTrace, ParseError{lineNo, line})
		}
		ts, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return nil, errFactory.WithData(errors.ErrParseTrace, ParseError{lineNo, line})
		}

		rows[event] = append(rows[event], Row{
			Time:   ts,
			CPU:    cpu,
			Seq:    seq,
			Fields: parseFields(m[6]),
		})
		seq++
	}

	if err := sc.Err(); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadTrace, err)
	}

	tables := make([]*Table, 0, len(rows))
	for name, rs := range rows {
		tables = append(tables, NewTable(name, rs))
	}

	return New(tables...), nil
}

// ReadFile parses the ftrace text file at path.
func ReadFile(path string, only ...string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrReadTrace, err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f, only...)
}

func parseFields(s string) map[string]Value {
	fields := make(map[string]Value)
	for _, tok := range strings.Fields(s) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			continue
		}
		fields[k] = ParseValue(v)
	}

	return fields
}
