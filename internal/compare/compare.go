// Package compare computes normalized delta reports between two dissection
// count stores.
package compare

import (
	"sort"

	"capdiff/internal/dissect"
)

// Delta holds the comparison result for one (field path, value) pair.
// LeftCount and RightCount are the raw counts from the reference and other
// side; Delta is the difference of the value's relative frequency within its
// field path, in [-1, 1].
type Delta struct {
	Delta      float64 `json:"delta"`
	Total      int64   `json:"total"`
	LeftCount  int64   `json:"left_count"`
	RightCount int64   `json:"right_count"`
}

// Report maps field path -> value -> Delta for one comparison. Produced
// fresh per comparison and never mutated afterwards.
type Report struct {
	Title   string                      `json:"title"`
	Entries map[string]map[string]Delta `json:"entries"`
}

// Dissections compares one bucket of a reference store against the same
// bucket of another store. A positive delta means the value's relative
// frequency increased from reference to other; a value present on only one
// side saturates to -1 (disappeared) or +1 (new). A field path absent from
// one side entirely is treated as total 0 with no entries, so its values all
// saturate toward the side that has them and no division by zero occurs.
func Dissections(reference, other dissect.Counts) Report {
	report := Report{Entries: make(map[string]map[string]Delta)}

	for key := range union(reference, other) {
		left := reference[key]
		right := other[key]
		leftTotal := total(left)
		rightTotal := total(right)
		entries := make(map[string]Delta)

		for value, leftCount := range left {
			if rightCount, ok := right[value]; ok {
				entries[value] = Delta{
					Delta: float64(rightCount)/float64(rightTotal) -
						float64(leftCount)/float64(leftTotal),
					Total:      leftCount + rightCount,
					LeftCount:  leftCount,
					RightCount: rightCount,
				}
			} else {
				entries[value] = Delta{
					Delta:     -1.0,
					Total:     leftCount,
					LeftCount: leftCount,
				}
			}
		}
		for value, rightCount := range right {
			if _, ok := entries[value]; ok {
				continue
			}
			entries[value] = Delta{
				Delta:      1.0,
				Total:      rightCount,
				RightCount: rightCount,
			}
		}

		report.Entries[key] = entries
	}

	return report
}

func union(a, b dissect.Counts) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func total(values map[string]int64) int64 {
	var sum int64
	for _, c := range values {
		sum += c
	}
	return sum
}

// Keys returns the report's field paths in lexical order.
func (r Report) Keys() []string {
	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValueDelta pairs a value with its Delta for ordered presentation.
type ValueDelta struct {
	Value string
	Delta
}

// SortedValues returns one field path's entries ordered by delta ascending,
// with the value string breaking ties so output is reproducible.
func (r Report) SortedValues(key string) []ValueDelta {
	entries := r.Entries[key]
	out := make([]ValueDelta, 0, len(entries))
	for value, delta := range entries {
		out = append(out, ValueDelta{Value: value, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Delta.Delta != out[j].Delta.Delta {
			return out[i].Delta.Delta < out[j].Delta.Delta
		}
		return out[i].Value < out[j].Value
	})
	return out
}
