package signal

import (
	"cmp"
	"sort"
)

// Event is a derived discrete event: entity Key did something at Time.
type Event[K cmp.Ordered] struct {
	Time  float64
	Key   K
	Value float64
}

// Transitions extracts, for every entity, the points where its value changed
// into a state accepted by match. Results of all entities are merged in time
// order; simultaneous events are ordered by entity.
func Transitions[K cmp.Ordered](s *Signal[K], match func(float64) bool) []Event[K] {
	var events []Event[K]
	for _, k := range s.keys {
		col, _ := s.Column(k)
		changes := col.DropNaN().DropConsecutiveDuplicates()
		for i, v := range changes.Values {
			if match(v) {
				events = append(events, Event[K]{Time: changes.Times[i], Key: k, Value: v})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return events[i].Key < events[j].Key
	})

	return events
}

// CountByKey counts events per entity; every key in keys is present.
func CountByKey[K cmp.Ordered](events []Event[K], keys []K) map[K]int {
	counts := make(map[K]int, len(keys))
	for _, k := range keys {
		counts[k] = 0
	}
	for _, e := range events {
		counts[e.Key]++
	}

	return counts
}
