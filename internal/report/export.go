package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"capdiff/internal/compare"
)

// CSV writes comparison reports as flat records, one row per (field path,
// value) pair, suitable for downstream tooling.
type CSV struct {
	w       *csv.Writer
	filters Filters
	header  bool
}

// NewCSV returns a CSV renderer writing to w.
func NewCSV(w io.Writer, filters Filters) *CSV {
	return &CSV{w: csv.NewWriter(w), filters: filters}
}

// Comparison appends one report's entries. The header is written once, so
// multiple reports share a single table distinguished by the report column.
func (c *CSV) Comparison(r compare.Report) error {
	if !c.header {
		if err := c.w.Write([]string{"report", "key", "value", "left", "right", "delta"}); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		c.header = true
	}

	for _, key := range r.Keys() {
		if !c.filters.keepKey(key) {
			continue
		}
		for _, vd := range r.SortedValues(key) {
			if !c.filters.keep(vd.Delta) {
				continue
			}
			record := []string{
				r.Title,
				key,
				vd.Value,
				strconv.FormatInt(vd.LeftCount, 10),
				strconv.FormatInt(vd.RightCount, 10),
				strconv.FormatFloat(vd.Delta.Delta, 'g', -1, 64),
			}
			if err := c.w.Write(record); err != nil {
				return fmt.Errorf("write csv record: %w", err)
			}
		}
	}
	return nil
}

// Flush flushes buffered records and reports any write error.
func (c *CSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
