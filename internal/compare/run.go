package compare

import (
	"fmt"

	"capdiff/internal/dissect"
)

// TimeWindow restricts single-capture bucket comparisons to an inclusive
// epoch-second range.
type TimeWindow struct {
	Start int64
	End   int64
}

// Contains reports whether a bucket pair falls inside the window.
func (w TimeWindow) Contains(left, right int64) bool {
	return left >= w.Start && right <= w.End
}

// All produces the comparison reports for a set of dissected captures.
//
// With two or more captures, the first is the reference and every remaining
// capture is compared against it pairwise, over the aggregate bucket. The
// remaining captures are never compared against each other.
//
// With a single capture, consecutive time buckets are compared instead,
// which requires that the capture was dissected with binning enabled. The
// optional window drops bucket pairs outside its range.
func All(dissections []*dissect.Dissection, window *TimeWindow) ([]Report, error) {
	switch {
	case len(dissections) == 0:
		return nil, fmt.Errorf("nothing to compare")
	case len(dissections) == 1:
		return overTime(dissections[0], window)
	default:
		return acrossCaptures(dissections), nil
	}
}

func acrossCaptures(dissections []*dissect.Dissection) []Report {
	reference := dissections[0]
	reports := make([]Report, 0, len(dissections)-1)
	for _, other := range dissections[1:] {
		report := Dissections(
			reference.Bucket(dissect.AggregateBucket),
			other.Bucket(dissect.AggregateBucket),
		)
		report.Title = fmt.Sprintf("%s vs %s", reference.SourceFile, other.SourceFile)
		reports = append(reports, report)
	}
	return reports
}

func overTime(dis *dissect.Dissection, window *TimeWindow) ([]Report, error) {
	var buckets []int64
	for _, b := range dis.Buckets() {
		if b != dissect.AggregateBucket {
			buckets = append(buckets, b)
		}
	}
	if len(buckets) < 2 {
		return nil, fmt.Errorf("%s has %d time buckets; comparing a single capture needs binning (-b)",
			dis.SourceFile, len(buckets))
	}

	var reports []Report
	for i := 1; i < len(buckets); i++ {
		left, right := buckets[i-1], buckets[i]
		if window != nil && !window.Contains(left, right) {
			continue
		}
		report := Dissections(dis.Bucket(left), dis.Bucket(right))
		report.Title = fmt.Sprintf("time %d vs time %d", left, right)
		reports = append(reports, report)
	}
	return reports, nil
}
