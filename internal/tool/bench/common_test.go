// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bench

import (
	"bytes"
	"hash/crc32"
	"io"
	"math/rand"
	"strings"
	"testing"
)

// fixtures returns a small, varied set of synthetic inputs in place of an
// on-disk test corpus: this module ships no binary/text sample files, so
// benchmarks and round-trip tests build their own inputs in memory.
func fixtures() map[string][]byte {
	r := rand.New(rand.NewSource(1))
	random := make([]byte, 1<<16)
	r.Read(random)

	return map[string][]byte{
		"zeros":   make([]byte, 1<<16),
		"random":  random,
		"text":    []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 2000)),
		"digits":  []byte(strings.Repeat("0123456789", 6000)),
		"repeats": repeatsFixture(2, 1<<16),
	}
}

// repeatsFixture produces data with plenty of repeated runs, giving the
// LZ-style codecs something to find.
func repeatsFixture(seed int64, size int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, size)
	for len(b) < size {
		if r.Float32() < 0.2 || len(b) < 32 {
			b = append(b, byte(r.Intn(256)))
			continue
		}
		dist := 1 + r.Intn(len(b))
		length := 4 + r.Intn(64)
		for i := 0; i < length; i++ {
			b = append(b, b[len(b)-dist])
		}
	}
	return b[:size]
}

func testRoundTrip(t *testing.T, enc Encoder, dec Decoder) {
	const level = 6
	for name, input := range fixtures() {
		buf := new(bytes.Buffer)
		wr := enc(buf, level)
		_, cpErr := io.Copy(wr, bytes.NewReader(input))
		if err := wr.Close(); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if cpErr != nil {
			t.Errorf("%s: unexpected error: %v", name, cpErr)
			continue
		}

		hash := crc32.NewIEEE()
		rd := dec(buf)
		cnt, cpErr := io.Copy(hash, rd)
		if err := rd.Close(); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if cpErr != nil {
			t.Errorf("%s: unexpected error: %v", name, cpErr)
			continue
		}

		sum := crc32.ChecksumIEEE(input)
		if int(cnt) != len(input) {
			t.Errorf("%s: mismatching count: got %d, want %d", name, cnt, len(input))
		}
		if hash.Sum32() != sum {
			t.Errorf("%s: mismatching checksum: got 0x%08x, want 0x%08x", name, hash.Sum32(), sum)
		}
	}
}
