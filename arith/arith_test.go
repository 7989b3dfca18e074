package arith

import (
	"bytes"
	"io"
	"testing"
)

func roundTrip(t *testing.T, input []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write(input); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := NewReader(&buf)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Errorf("round trip mismatch:\n got  %q\n want %q", got, input)
	}
}

func TestRoundTripShort(t *testing.T) {
	roundTrip(t, []byte("abracadabra"))
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestRoundTripLarger(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 10*1024; i++ {
		buf.WriteByte(byte('a' + i%7))
	}
	roundTrip(t, buf.Bytes())
}

func TestRoundTripAllByteValues(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	roundTrip(t, data)
}
