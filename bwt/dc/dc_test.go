package dc

import (
	"bytes"
	"testing"
)

func roundTrip(t *testing.T, input []byte) {
	t.Helper()
	init, distances, _ := Encode(input)

	di := 0
	got, err := Decode(len(input), init, func(Context) (int, bool) {
		if di >= len(distances) {
			return 0, false
		}
		d := distances[di]
		di++
		return d, true
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Errorf("round trip mismatch:\n got  %q\n want %q", got, input)
	}
	if di != len(distances) {
		t.Errorf("consumed %d distances, want %d", di, len(distances))
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"teeesst_dc",
		"",
		"a",
		"abracadabra",
		"banana",
		"aaaaaaaaaaaaaa",
		"the quick brown fox jumps over the lazy dog",
	}
	for _, s := range cases {
		roundTrip(t, []byte(s))
	}
}

func TestRoundTripAllUnique(t *testing.T) {
	input := make([]byte, 256)
	for i := range input {
		input[i] = byte(i)
	}
	roundTrip(t, input)
}

// TestRoundTripWithContext checks that the contexts supplied to the decode
// callback match the ones Encode produced for each distance, and that the
// same sequence of distances reconstructs the input.
func TestRoundTripWithContext(t *testing.T) {
	input := []byte("teeesst_dc")
	init, distances, contexts := Encode(input)

	di := 0
	got, err := Decode(len(input), init, func(ctx Context) (int, bool) {
		if di >= len(distances) {
			return 0, false
		}
		if ctx != contexts[di] {
			t.Errorf("distance %d: context mismatch: got %+v, want %+v", di, ctx, contexts[di])
		}
		d := distances[di]
		di++
		return d, true
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Errorf("round trip mismatch:\n got  %q\n want %q", got, input)
	}
}

func TestDecodeEmpty(t *testing.T) {
	var init [TotalSymbols]int
	for i := range init {
		init[i] = 0
	}
	got, err := Decode(0, init, func(Context) (int, bool) {
		t.Fatal("nextDistance should not be called for an empty block")
		return 0, false
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestDecodeUnexpectedEOF(t *testing.T) {
	input := []byte("abracadabra")
	init, distances, _ := Encode(input)
	if len(distances) == 0 {
		t.Fatal("expected at least one distance for this input")
	}

	di := 0
	_, err := Decode(len(input), init, func(Context) (int, bool) {
		if di >= len(distances)-1 {
			return 0, false
		}
		d := distances[di]
		di++
		return d, true
	})
	if err == nil {
		t.Error("expected an error from a truncated distance stream")
	}
}
