// Package report renders dissection listings and comparison reports for the
// console.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"capdiff/internal/compare"
	"capdiff/internal/dissect"
)

// Filters limits which comparison entries are printed.
type Filters struct {
	PrintThreshold float64 // drop entries with |delta| below this
	MinimumCount   int64   // drop entries whose total count is below this
	MatchString    string  // only field paths containing this substring
	OnlyPositive   bool
	OnlyNegative   bool
}

// keepKey reports whether a field path passes the match filter.
func (f Filters) keepKey(key string) bool {
	return f.MatchString == "" || strings.Contains(key, f.MatchString)
}

// keep mirrors the output filter chain of the comparison renderer.
func (f Filters) keep(d compare.Delta) bool {
	if f.OnlyPositive && d.Delta <= 0 {
		return false
	}
	if f.OnlyNegative && d.Delta >= 0 {
		return false
	}
	if math.Abs(d.Delta) < f.PrintThreshold {
		return false
	}
	if d.Total < f.MinimumCount {
		return false
	}
	return true
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	keyStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	negStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	strongNeg     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	posStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	strongPos     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	neutralStyle  = lipgloss.NewStyle()
)

func deltaStyle(delta float64) lipgloss.Style {
	switch {
	case delta < -0.5:
		return strongNeg
	case delta < 0:
		return negStyle
	case delta > 0.5:
		return strongPos
	case delta > 0:
		return posStyle
	}
	return neutralStyle
}

// Console writes human-readable reports.
type Console struct {
	w       io.Writer
	filters Filters
}

// NewConsole returns a console renderer writing to w.
func NewConsole(w io.Writer, filters Filters) *Console {
	return &Console{w: w, filters: filters}
}

// Comparison prints one comparison report, field paths in lexical order and
// entries ordered by delta within each path.
func (c *Console) Comparison(r compare.Report) {
	fmt.Fprintf(c.w, "%s\n", titleStyle.Render("************ "+r.Title))
	fmt.Fprintf(c.w, "  %-50s%8s %8s %8s\n", "Value", "Delta %", "Left", "Right")

	for _, key := range r.Keys() {
		if !c.filters.keepKey(key) {
			continue
		}
		headerPrinted := false
		for _, vd := range r.SortedValues(key) {
			if !c.filters.keep(vd.Delta) {
				continue
			}
			if !headerPrinted {
				fmt.Fprintf(c.w, "%s\n", keyStyle.Render("====== "+key))
				headerPrinted = true
			}
			style := deltaStyle(vd.Delta.Delta)
			fmt.Fprintf(c.w, "  %s%8.2f %8d %8d\n",
				style.Render(fmt.Sprintf("%-50s", printable(vd.Value))),
				100*vd.Delta.Delta, vd.LeftCount, vd.RightCount)
		}
	}
}

// Dissection prints a count listing for the requested buckets.
func (c *Console) Dissection(d *dissect.Dissection, buckets []int64, matchKey, matchValue string, minimumCount int64) {
	fmt.Fprintf(c.w, "%s\n", titleStyle.Render("************ "+d.SourceFile))
	for _, e := range d.FindData(buckets, matchKey, matchValue, minimumCount) {
		fmt.Fprintf(c.w, "%-30s %-30s %d\n", e.Key, printable(e.Value), e.Count)
	}
}

// printable truncates unwieldy values so one entry cannot wreck the layout.
func printable(value string) string {
	if len(value) > 50 {
		return value[:47] + "..."
	}
	return value
}
