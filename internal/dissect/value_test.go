package dissect

import "testing"

// TestNormalize tests scalar value normalization
func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"int", Int(64), "64"},
		{"negative int", Int(-1), "-1"},
		{"float", Float(1.5), "1.5"},
		{"string", Str("example.com"), "example.com"},
		{"utf8 bytes", Bytes([]byte("hello")), "hello"},
		{"binary bytes", Bytes([]byte{0xde, 0xad, 0xbe, 0xef}), "0xdeadbeef"},
		{"named", Named("MSS", Bytes([]byte{0x05, 0xb4})), "MSS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Normalize(); got != tt.want {
				t.Errorf("Normalize: got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNormalizeBytesInvalidUTF8 tests that undecodable bytes become hex
// strings instead of being dropped.
func TestNormalizeBytesInvalidUTF8(t *testing.T) {
	got := NormalizeBytes([]byte{0xff, 0xfe, 0x00})
	want := "0xfffe00"
	if got != want {
		t.Errorf("NormalizeBytes: got %q, want %q", got, want)
	}
}

// TestScalar tests the scalar/recursive split of the value variant
func TestScalar(t *testing.T) {
	if !Int(1).Scalar() {
		t.Error("Int should be scalar")
	}
	if !Bytes(nil).Scalar() {
		t.Error("Bytes should be scalar")
	}
	if List(nil).Scalar() {
		t.Error("List should not be scalar")
	}
	if Nested(nil).Scalar() {
		t.Error("Nested should not be scalar")
	}
}
