package config

import (
	"strconv"
	"strings"

	"codeberg.org/mutker/powertrace/internal/errors"
)

// ParseCPUList parses a kernel style CPU list such as "0-3,6,8-9".
func ParseCPUList(s string) ([]int, error) {
	errFactory := errors.New()
	invalid := func() error {
		return errFactory.WithData(errors.ErrInvalidCPUList, strconv.Quote(s))
	}

	res := []int{}
	for _, part := range strings.Split(strings.TrimSpace(s), ",") {
		part = strings.TrimSpace(part)
		if index := strings.IndexByte(part, '-'); index != -1 {
			first, err := strconv.Atoi(part[:index])
			if err != nil {
				return nil, invalid()
			}
			last, err := strconv.Atoi(part[index+1:])
			if err != nil || last < first {
				return nil, invalid()
			}
			for first <= last {
				res = append(res, first)
				first++
			}
		} else {
			cpu, err := strconv.Atoi(part)
			if err != nil || cpu < 0 {
				return nil, invalid()
			}
			res = append(res, cpu)
		}
	}

	return res, nil
}

// ParseCPUArgs parses positional CLI arguments, each a CPU list.
func ParseCPUArgs(args []string) ([]int, error) {
	var cpus []int
	for _, a := range args {
		list, err := ParseCPUList(a)
		if err != nil {
			return nil, err
		}
		cpus = append(cpus, list...)
	}

	return cpus, nil
}
