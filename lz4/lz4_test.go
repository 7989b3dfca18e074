package lz4

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"
)

func roundTripStream(t *testing.T, input []byte, blockSize int) {
	t.Helper()
	var buf bytes.Buffer
	wr := NewWriter(&buf, blockSize)
	if _, err := wr.Write(input); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd := NewReader(&buf)
	got, err := ioutil.ReadAll(rd)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(input))
	}
}

func TestStreamRoundTrip(t *testing.T) {
	vectors := []struct {
		desc  string
		input []byte
	}{
		{"empty", nil},
		{"short", []byte("test")},
		{"repeats", repeatsFixture(0, 1<<18)},
		{"text", []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 1000))},
	}
	for _, v := range vectors {
		for _, blockSize := range []int{256, 64 << 10, 256 << 10} {
			roundTripStream(t, v.input, blockSize)
			if t.Failed() {
				t.Fatalf("%s/blockSize=%d failed", v.desc, blockSize)
			}
		}
	}
}

func TestStreamRoundTripSpanningBlocks(t *testing.T) {
	// Force many small blocks so decodeBlock is exercised repeatedly.
	roundTripStream(t, repeatsFixture(3, 1<<14), 512)
}

func TestStreamCorruptStreamChecksum(t *testing.T) {
	var buf bytes.Buffer
	wr := NewWriter(&buf, 64<<10)
	if _, err := wr.Write([]byte("corrupt me")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := buf.Bytes()
	data[len(data)-1] ^= 0xff

	rd := NewReader(bytes.NewReader(data))
	if _, err := ioutil.ReadAll(rd); err != ErrChecksum {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestStreamBadMagic(t *testing.T) {
	var buf bytes.Buffer
	wr := NewWriter(&buf, 64<<10)
	wr.Write([]byte("hello"))
	wr.Close()

	data := buf.Bytes()
	data[0] ^= 0xff

	rd := NewReader(bytes.NewReader(data))
	if _, err := ioutil.ReadAll(rd); err != ErrHeader {
		t.Errorf("expected ErrHeader, got %v", err)
	}
}

func TestStreamTruncated(t *testing.T) {
	var buf bytes.Buffer
	wr := NewWriter(&buf, 64<<10)
	wr.Write([]byte("truncate this stream"))
	wr.Close()

	data := buf.Bytes()
	rd := NewReader(bytes.NewReader(data[:len(data)-5]))
	if _, err := ioutil.ReadAll(rd); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestStreamStreamingReads(t *testing.T) {
	input := repeatsFixture(4, 1<<15)
	var buf bytes.Buffer
	wr := NewWriter(&buf, 4096)
	if _, err := wr.Write(input); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd := NewReader(&buf)
	small := make([]byte, 37) // Awkward size to exercise partial reads.
	var got []byte
	for {
		n, err := rd.Read(small)
		got = append(got, small[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if !bytes.Equal(got, input) {
		t.Error("streaming round trip mismatch")
	}
}
