package report

import (
	"bytes"
	"encoding/csv"
	"testing"
)

// TestCSVExport tests the flat record format
func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSV(&buf, Filters{})
	if err := exporter.Comparison(testReport()); err != nil {
		t.Fatalf("Comparison failed: %v", err)
	}
	if err := exporter.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 4 { // header plus three entries
		t.Fatalf("records: got %d, want 4", len(records))
	}
	want := []string{"report", "key", "value", "left", "right", "delta"}
	for i, col := range want {
		if records[0][i] != col {
			t.Errorf("header[%d]: got %q, want %q", i, records[0][i], col)
		}
	}
	// lexical key order puts dport first, its single entry saturated at +1
	first := records[1]
	if first[1] != "Ethernet.IP.TCP.dport" || first[2] != "443" || first[5] != "1" {
		t.Errorf("first record: got %v", first)
	}
	if first[0] != "left.pcap vs right.pcap" {
		t.Errorf("report column: got %q", first[0])
	}
}

// TestCSVExportFilters tests that output filters apply to exports too
func TestCSVExportFilters(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSV(&buf, Filters{MatchString: "dport"})
	if err := exporter.Comparison(testReport()); err != nil {
		t.Fatalf("Comparison failed: %v", err)
	}
	if err := exporter.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want header plus one entry", len(records))
	}
}

// TestCSVHeaderOnce tests that multiple reports share one header
func TestCSVHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSV(&buf, Filters{})
	for i := 0; i < 2; i++ {
		if err := exporter.Comparison(testReport()); err != nil {
			t.Fatalf("Comparison failed: %v", err)
		}
	}
	if err := exporter.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 7 { // one header, three entries per report
		t.Errorf("records: got %d, want 7", len(records))
	}
}
