// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

// dictDecoder is the sliding dictionary used to reconstruct LZ77 backward
// copies while inflating. It implements a ring buffer: the writer appends
// newly decoded bytes (literals or copies) at wrPos, and ReadFlush exposes
// everything not yet handed back to the caller, wrapping the position to 0
// once the buffer fills.
type dictDecoder struct {
	hist []byte // Sliding window of past output, half-open at wrPos
	wrPos int   // Current write position within hist
	rdPos int   // Position of last byte returned by ReadFlush
	full  bool  // Whether hist has wrapped around at least once
}

// Init prepares the dictionary with the given window size.
func (dd *dictDecoder) Init(size int) {
	if cap(dd.hist) < size {
		dd.hist = make([]byte, size)
	}
	dd.hist = dd.hist[:size]
	dd.wrPos = 0
	dd.rdPos = 0
	dd.full = false
}

// AvailSize reports how many bytes can still be written before the ring
// buffer must be flushed and wrapped.
func (dd *dictDecoder) AvailSize() int {
	return len(dd.hist) - dd.wrPos
}

// WriteSlice returns the unused tail of the ring buffer for the caller to
// fill directly (e.g. via io.Reader.Read); call WriteMark afterward to
// record how much was actually written.
func (dd *dictDecoder) WriteSlice() []byte {
	return dd.hist[dd.wrPos:]
}

// WriteMark advances the write position by cnt, as previously returned by
// WriteSlice.
func (dd *dictDecoder) WriteMark(cnt int) {
	dd.wrPos += cnt
}

// WriteByte appends a single decoded literal byte.
func (dd *dictDecoder) WriteByte(c byte) {
	dd.hist[dd.wrPos] = c
	dd.wrPos++
}

// HistSize reports how many bytes of history are available to copy from.
func (dd *dictDecoder) HistSize() int {
	if dd.full {
		return len(dd.hist)
	}
	return dd.wrPos
}

// WriteCopy performs a backward copy of length bytes starting dist bytes
// before the current write position, stopping early if it would run past
// the end of the ring buffer (the caller must flush and retry the
// remainder). It returns the number of bytes actually copied. dist must
// not exceed the amount of history written so far; the caller is expected
// to have validated this (readBlock in reader.go checks it against HistSize).
func (dd *dictDecoder) WriteCopy(dist, length int) int {
	dstBase := dd.wrPos
	dstPos := dstBase
	srcPos := dstPos - dist
	endPos := dstPos + length
	if endPos > len(dd.hist) {
		endPos = len(dd.hist)
	}

	if srcPos < 0 {
		srcPos += len(dd.hist)
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:])
		srcPos = 0
	}
	for dstPos < endPos {
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:dstPos])
	}

	dd.wrPos = dstPos
	return dstPos - dstBase
}

// ReadFlush returns all bytes written since the last ReadFlush, wrapping
// the ring buffer back to the start if it is now full.
func (dd *dictDecoder) ReadFlush() []byte {
	toRead := dd.hist[dd.rdPos:dd.wrPos]
	dd.rdPos = dd.wrPos
	if dd.wrPos == len(dd.hist) {
		dd.wrPos, dd.rdPos = 0, 0
		dd.full = true
	}
	return toRead
}
