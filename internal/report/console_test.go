package report

import (
	"bytes"
	"strings"
	"testing"

	"capdiff/internal/compare"
	"capdiff/internal/dissect"
)

func testReport() compare.Report {
	return compare.Report{
		Title: "left.pcap vs right.pcap",
		Entries: map[string]map[string]compare.Delta{
			"Ethernet.IP.ttl": {
				"64":  {Delta: -0.25, Total: 30, LeftCount: 20, RightCount: 10},
				"128": {Delta: 0.25, Total: 30, LeftCount: 10, RightCount: 20},
			},
			"Ethernet.IP.TCP.dport": {
				"443": {Delta: 1.0, Total: 5, RightCount: 5},
			},
		},
	}
}

// TestComparisonOutput tests the rendered report layout
func TestComparisonOutput(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, Filters{}).Comparison(testReport())
	out := buf.String()

	if !strings.Contains(out, "left.pcap vs right.pcap") {
		t.Error("missing report title")
	}
	for _, want := range []string{"Ethernet.IP.ttl", "Ethernet.IP.TCP.dport", "64", "128", "443"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	// deltas are shown as percentages
	if !strings.Contains(out, "-25.00") || !strings.Contains(out, "100.00") {
		t.Errorf("missing percentage deltas in output:\n%s", out)
	}
	// lexical key order
	if strings.Index(out, "Ethernet.IP.TCP.dport") > strings.Index(out, "Ethernet.IP.ttl") {
		t.Error("field paths not in lexical order")
	}
}

// TestComparisonFilters tests entry suppression
func TestComparisonFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		gone    []string
		kept    []string
	}{
		{
			name:    "threshold",
			filters: Filters{PrintThreshold: 0.5},
			gone:    []string{"64", "128"},
			kept:    []string{"443"},
		},
		{
			name:    "minimum count",
			filters: Filters{MinimumCount: 10},
			gone:    []string{"443"},
			kept:    []string{"64", "128"},
		},
		{
			name:    "match string",
			filters: Filters{MatchString: "dport"},
			gone:    []string{"Ethernet.IP.ttl"},
			kept:    []string{"443"},
		},
		{
			name:    "only positive",
			filters: Filters{OnlyPositive: true},
			gone:    []string{"64"},
			kept:    []string{"128", "443"},
		},
		{
			name:    "only negative",
			filters: Filters{OnlyNegative: true},
			gone:    []string{"128", "443"},
			kept:    []string{"64"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf, tt.filters).Comparison(testReport())
			out := buf.String()
			for _, s := range tt.gone {
				if strings.Contains(out, " "+s+" ") || strings.Contains(out, s+"  ") {
					t.Errorf("filtered value %q still present:\n%s", s, out)
				}
			}
			for _, s := range tt.kept {
				if !strings.Contains(out, s) {
					t.Errorf("value %q missing:\n%s", s, out)
				}
			}
		})
	}
}

// TestComparisonSkipsEmptyKeys tests that a fully filtered field path prints
// no header.
func TestComparisonSkipsEmptyKeys(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, Filters{MinimumCount: 100}).Comparison(testReport())
	if strings.Contains(buf.String(), "======") {
		t.Errorf("empty field paths should print no header:\n%s", buf.String())
	}
}

// TestDissectionOutput tests the count listing
func TestDissectionOutput(t *testing.T) {
	d := dissect.NewDissection("test.pcap", dissect.DefaultOptions())
	d.Incr(0, "Ethernet.IP.ttl", "64")
	d.Incr(0, "Ethernet.IP.ttl", "64")
	d.Incr(0, "Ethernet.IP.src", "10.0.0.1")

	var buf bytes.Buffer
	NewConsole(&buf, Filters{}).Dissection(d, nil, "", "", 0)
	out := buf.String()

	if !strings.Contains(out, "test.pcap") {
		t.Error("missing source file header")
	}
	if !strings.Contains(out, "Ethernet.IP.ttl") || !strings.Contains(out, "64") {
		t.Errorf("missing counts in output:\n%s", out)
	}
}

// TestPrintable tests long value truncation
func TestPrintable(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := printable(long)
	if len(got) != 50 || !strings.HasSuffix(got, "...") {
		t.Errorf("printable: got %q (len %d)", got, len(got))
	}
	if printable("short") != "short" {
		t.Error("short values should pass through")
	}
}
