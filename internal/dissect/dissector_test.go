package dissect

import (
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"capdiff/internal/logging"
)

// fakeLayer implements Layer for traversal tests.
type fakeLayer struct {
	name   string
	class  LayerClass
	fields []Field
}

func (l fakeLayer) Name() string      { return l.name }
func (l fakeLayer) Class() LayerClass { return l.class }
func (l fakeLayer) Fields() []Field   { return l.fields }

// fakeSource replays a fixed packet slice.
type fakeSource struct {
	packets []Packet
	pos     int
}

func (s *fakeSource) Next() (Packet, error) {
	if s.pos >= len(s.packets) {
		return Packet{}, io.EOF
	}
	p := s.packets[s.pos]
	s.pos++
	return p, nil
}

func tcpPacket(ts int64, ttl int64, flags string, options []Value) Packet {
	return Packet{
		Timestamp: time.Unix(ts, 0),
		Layers: []Layer{
			fakeLayer{name: "Ethernet", class: ClassLink, fields: []Field{
				{Name: "src", Value: Str("aa:bb:cc:dd:ee:ff")},
				{Name: "type", Value: Int(2048)},
			}},
			fakeLayer{name: "IP", class: ClassNetwork, fields: []Field{
				{Name: "ttl", Value: Int(ttl)},
				{Name: "src", Value: Str("10.0.0.1")},
			}},
			fakeLayer{name: "TCP", class: ClassTransport, fields: []Field{
				{Name: "flags", Value: Str(flags)},
				{Name: "options", Value: List(options)},
			}},
		},
	}
}

func mustDissect(t *testing.T, opts Options, packets []Packet) *Dissection {
	t.Helper()
	d, err := NewDissector(opts, logging.Discard())
	if err != nil {
		t.Fatalf("NewDissector failed: %v", err)
	}
	dis, err := d.Dissect(&fakeSource{packets: packets}, "test.pcap")
	if err != nil {
		t.Fatalf("Dissect failed: %v", err)
	}
	return dis
}

// TestDissectSentinel tests the per-packet total counter
func TestDissectSentinel(t *testing.T) {
	packets := []Packet{
		tcpPacket(1000, 64, "S", nil),
		tcpPacket(1001, 64, "SA", nil),
	}
	dis := mustDissect(t, Options{Level: Detailed}, packets)

	if got := dis.Data[AggregateBucket][TotalKey][TotalSubkey]; got != 2 {
		t.Errorf("total count: got %d, want 2", got)
	}
	if dis.Meta.TotalPackets != 2 {
		t.Errorf("metadata total: got %d, want 2", dis.Meta.TotalPackets)
	}
}

// TestDissectLevels tests the decode depth cutoff per level
func TestDissectLevels(t *testing.T) {
	packets := []Packet{tcpPacket(1000, 64, "S", nil)}

	t.Run("count-only", func(t *testing.T) {
		dis := mustDissect(t, Options{Level: CountOnly}, packets)
		counts := dis.Data[AggregateBucket]
		if len(counts) != 1 {
			t.Errorf("count-only should record only the sentinel, got %d keys", len(counts))
		}
	})

	t.Run("through-ip", func(t *testing.T) {
		dis := mustDissect(t, Options{Level: ThroughIP}, packets)
		counts := dis.Data[AggregateBucket]
		if _, ok := counts["Ethernet.IP.ttl"]; !ok {
			t.Error("through-ip should decode IP fields")
		}
		if _, ok := counts["Ethernet.IP.TCP.flags"]; ok {
			t.Error("through-ip should stop before the transport layer")
		}
	})

	t.Run("detailed", func(t *testing.T) {
		dis := mustDissect(t, Options{Level: Detailed}, packets)
		counts := dis.Data[AggregateBucket]
		if got := counts["Ethernet.IP.TCP.flags"]["S"]; got != 1 {
			t.Errorf("TCP flags count: got %d, want 1", got)
		}
	})
}

// TestDissectLayerExistence tests that chain presence is counted even for
// layers with an empty repeated-options field.
func TestDissectLayerExistence(t *testing.T) {
	packets := []Packet{tcpPacket(1000, 64, "S", nil)} // no options
	dis := mustDissect(t, Options{Level: Detailed}, packets)
	counts := dis.Data[AggregateBucket]

	if got := counts["Ethernet.IP.TCP"]["TCP"]; got != 1 {
		t.Errorf("layer existence count: got %d, want 1", got)
	}
	if _, ok := counts["Ethernet.IP.TCP.options"]; ok {
		t.Error("empty options list should add no sub-counters")
	}
}

// TestDissectNamedOptions tests that repeated tuple-like options are counted
// by element name.
func TestDissectNamedOptions(t *testing.T) {
	options := []Value{
		Named("MSS", Bytes([]byte{0x05, 0xb4})),
		Named("NOP", Bytes(nil)),
		Named("NOP", Bytes(nil)),
	}
	packets := []Packet{tcpPacket(1000, 64, "S", options)}
	dis := mustDissect(t, Options{Level: Detailed}, packets)
	counts := dis.Data[AggregateBucket]["Ethernet.IP.TCP.options"]

	if got := counts["MSS"]; got != 1 {
		t.Errorf("MSS count: got %d, want 1", got)
	}
	if got := counts["NOP"]; got != 2 {
		t.Errorf("NOP count: got %d, want 2", got)
	}
}

// TestDissectNestedFields tests recursion through substructures
func TestDissectNestedFields(t *testing.T) {
	packets := []Packet{{
		Timestamp: time.Unix(1000, 0),
		Layers: []Layer{
			fakeLayer{name: "DNS", class: ClassApplication, fields: []Field{
				{Name: "qd", Value: List([]Value{
					Nested([]Field{
						{Name: "qname", Value: Bytes([]byte("example.com."))},
						{Name: "qtype", Value: Int(1)},
					}),
				})},
			}},
		},
	}}
	dis := mustDissect(t, Options{Level: Detailed}, packets)
	counts := dis.Data[AggregateBucket]

	if got := counts["DNS.qd.qname"]["example.com."]; got != 1 {
		t.Errorf("qname count: got %d, want 1", got)
	}
	if got := counts["DNS.qd.qtype"]["1"]; got != 1 {
		t.Errorf("qtype count: got %d, want 1", got)
	}
}

// TestDissectOpaqueLayer tests that a layer without field knowledge is
// skipped with the chain still counted.
func TestDissectOpaqueLayer(t *testing.T) {
	packets := []Packet{{
		Timestamp: time.Unix(1000, 0),
		Layers: []Layer{
			fakeLayer{name: "Ethernet", class: ClassLink, fields: []Field{
				{Name: "type", Value: Int(2048)},
			}},
			fakeLayer{name: "Mystery", class: ClassOpaque, fields: nil},
		},
	}}
	dis := mustDissect(t, Options{Level: Detailed}, packets)
	counts := dis.Data[AggregateBucket]

	if got := counts["Ethernet.Mystery"]["Mystery"]; got != 1 {
		t.Errorf("opaque layer existence: got %d, want 1", got)
	}
}

// TestDissectBinning tests bucket key computation
func TestDissectBinning(t *testing.T) {
	packets := []Packet{
		tcpPacket(1003, 64, "S", nil),
		tcpPacket(1007, 64, "S", nil),
		tcpPacket(1021, 64, "S", nil),
	}
	dis := mustDissect(t, Options{Level: CountOnly, BinSize: 10}, packets)

	if got := dis.Data[1000][TotalKey][TotalSubkey]; got != 2 {
		t.Errorf("bucket 1000: got %d, want 2", got)
	}
	if got := dis.Data[1020][TotalKey][TotalSubkey]; got != 1 {
		t.Errorf("bucket 1020: got %d, want 1", got)
	}
	if got := dis.Data[AggregateBucket][TotalKey][TotalSubkey]; got != 3 {
		t.Errorf("aggregate: got %d, want 3", got)
	}
}

// TestDissectTruncation tests the maximum packet cutoff
func TestDissectTruncation(t *testing.T) {
	var packets []Packet
	for i := 0; i < 10; i++ {
		packets = append(packets, tcpPacket(int64(1000+i), 64, "S", nil))
	}
	dis := mustDissect(t, Options{Level: CountOnly, MaximumCount: 4}, packets)

	if got := dis.Data[AggregateBucket][TotalKey][TotalSubkey]; got != 4 {
		t.Errorf("truncated total: got %d, want 4", got)
	}
}

// TestDissectCommutative tests that packet arrival order does not change the
// final counts.
func TestDissectCommutative(t *testing.T) {
	packets := []Packet{
		tcpPacket(1001, 64, "S", []Value{Named("MSS", Bytes(nil))}),
		tcpPacket(1002, 128, "SA", nil),
		tcpPacket(1003, 64, "A", []Value{Named("NOP", Bytes(nil))}),
		tcpPacket(1004, 255, "R", nil),
	}
	reversed := make([]Packet, len(packets))
	for i, p := range packets {
		reversed[len(packets)-1-i] = p
	}

	opts := Options{Level: Detailed, BinSize: 2}
	forward := mustDissect(t, opts, packets)
	backward := mustDissect(t, opts, reversed)

	if !reflect.DeepEqual(forward.Data, backward.Data) {
		t.Error("counts depend on packet arrival order")
	}
}

// TestDissectSourceError tests that a read failure is fatal
func TestDissectSourceError(t *testing.T) {
	d, err := NewDissector(Options{Level: ThroughIP}, logging.Discard())
	if err != nil {
		t.Fatalf("NewDissector failed: %v", err)
	}
	if _, err := d.Dissect(&errorSource{}, "bad.pcap"); err == nil {
		t.Error("source error should be fatal")
	}
}

type errorSource struct{}

func (errorSource) Next() (Packet, error) {
	return Packet{}, errors.New("truncated capture")
}

// TestUnsupportedLevel tests level validation
func TestUnsupportedLevel(t *testing.T) {
	_, err := NewDissector(Options{Level: 7}, logging.Discard())
	if !errors.Is(err, ErrUnsupportedLevel) {
		t.Errorf("got %v, want ErrUnsupportedLevel", err)
	}
}

// TestParseLevel tests level name and numeric parsing
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"count-only", CountOnly, false},
		{"1", CountOnly, false},
		{"through-ip", ThroughIP, false},
		{"2", ThroughIP, false},
		{"detailed", Detailed, false},
		{"10", Detailed, false},
		{"3", 0, true},
		{"full", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedLevel) {
				t.Errorf("ParseLevel(%q): got err %v, want ErrUnsupportedLevel", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q): got (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}
