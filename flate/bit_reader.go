// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"bufio"
	"io"
)

// byteSource is what bitStream needs from its underlying reader: plain
// byte-at-a-time reads, used when nothing better is available.
type byteSource interface {
	io.Reader
	io.ByteReader
}

// bitStream pulls DEFLATE's bitstream (LSB-first, per RFC 1951 section
// 3.1.1) out of a byte stream.
//
// Two code paths exist for filling the bit buffer. The general path
// (src has no Peek/Discard) reads one byte at a time via ReadByte,
// never consuming more bytes than strictly necessary to satisfy a
// request. The fast path, used whenever src is a *bufio.Reader, instead
// Peeks as many buffered bytes as fit into the 64-bit buffer in one
// shot and defers committing the read position (via Discard) until
// SyncPos is called. This trades the "never over-read" property for
// far fewer method calls per decoded symbol; Symbol and Bits are
// written assuming the buffer is kept as full as possible.
type bitStream struct {
	src   byteSource
	buf   uint64 // Holds nbits bits, LSB-aligned
	nbits uint   // Number of valid bits currently in buf
	pos   int64  // Bytes consumed from src so far

	// Only used when src is a *bufio.Reader.
	rdr     *bufio.Reader
	peeked  []byte // Unconsumed tail of the last Peek
	discard int    // Bytes owed to rdr.Discard once SyncPos runs
	fed     uint   // nbits as of the last SyncPos/Fill bookkeeping pass

	scratch prefixDecoder // Reused across ReadPrefixTables calls
}

// Reset prepares the stream to read from r, discarding any buffered
// state from a prior use.
func (bs *bitStream) Reset(r io.Reader) {
	*bs = bitStream{scratch: bs.scratch}
	if src, ok := r.(byteSource); ok {
		bs.src = src
	} else {
		bs.src = bufio.NewReader(r)
	}
	if rdr, ok := bs.src.(*bufio.Reader); ok {
		bs.rdr = rdr
	}
}

// SyncPos reconciles pos with whatever has actually been consumed from
// the fast (Peek-based) path, issuing the deferred Discard, and returns
// the resulting byte offset.
func (bs *bitStream) SyncPos() int64 {
	if bs.rdr == nil {
		return bs.pos
	}

	bs.discard += int(bs.fed - bs.nbits)
	bs.fed = bs.nbits

	nd := (bs.discard + 7) / 8 // Round up to a whole byte
	nd, _ = bs.rdr.Discard(nd)
	bs.discard -= nd * 8 // Left in [-7, 0]
	bs.pos += int64(nd)

	bs.peeked = nil // Invalid once Discard has run
	return bs.pos
}

// Fill tops up the bit buffer until at least nb bits are available,
// panicking on a short read (normalizing io.EOF to
// io.ErrUnexpectedEOF, since a DEFLATE stream is never supposed to end
// mid-bitstream).
func (bs *bitStream) Fill(nb uint) {
	if bs.rdr == nil {
		bs.fillBytewise(nb)
		return
	}
	bs.fillBuffered(nb)
}

func (bs *bitStream) fillBytewise(nb uint) {
	for bs.nbits < nb {
		c, err := bs.src.ReadByte()
		if err != nil {
			panic(normalizeEOF(err))
		}
		bs.buf |= uint64(c) << bs.nbits
		bs.nbits += 8
		bs.pos++
	}
}

func (bs *bitStream) fillBuffered(nb uint) {
	bs.discard += int(bs.fed - bs.nbits)
	for {
		if len(bs.peeked) == 0 {
			bs.fed = bs.nbits // The bits just buffered aren't owed a Discard yet
			bs.SyncPos()

			want := 8 // Minimum Peek to guarantee progress
			if bs.rdr.Buffered() > want {
				want = bs.rdr.Buffered()
			}
			peeked, err := bs.rdr.Peek(want)
			bs.peeked = peeked[bs.nbits/8:] // Skip bytes already folded into buf

			if len(bs.peeked) == 0 {
				if bs.nbits >= nb {
					break
				}
				panic(normalizeEOF(err))
			}
		}

		n := int(64-bs.nbits) / 8
		if n > len(bs.peeked) {
			n = len(bs.peeked)
		}
		for _, c := range bs.peeked[:n] {
			bs.buf |= uint64(c) << bs.nbits
			bs.nbits += 8
		}
		bs.peeked = bs.peeked[n:]
		if bs.nbits > 56 {
			break
		}
	}
	bs.fed = bs.nbits
}

func normalizeEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Read drains whole bytes currently sitting in the bit buffer, falling
// back to a direct read from src once the buffer is empty. It returns an
// error if called while nbits isn't byte-aligned.
func (bs *bitStream) Read(p []byte) (int, error) {
	if bs.nbits%8 != 0 {
		return 0, Error("non-aligned bit buffer")
	}
	if bs.nbits == 0 {
		bs.SyncPos()
		n, err := bs.src.Read(p)
		bs.pos += int64(n)
		return n, err
	}
	var n int
	for n < len(p) && bs.nbits > 0 {
		p[n] = byte(bs.buf)
		bs.buf >>= 8
		bs.nbits -= 8
		n++
	}
	return n, nil
}

// TryBits attempts to read nb bits using only what is already buffered,
// reporting failure instead of reading from src. Meant to be inlined on
// the common, already-buffered path.
func (bs *bitStream) TryBits(nb uint) (uint, bool) {
	if bs.nbits < nb {
		return 0, false
	}
	v := uint(bs.buf & uint64(1<<nb-1))
	bs.buf >>= nb
	bs.nbits -= nb
	return v, true
}

// Bits reads nb bits (LSB first).
func (bs *bitStream) Bits(nb uint) uint {
	bs.Fill(nb)
	v := uint(bs.buf & uint64(1<<nb-1))
	bs.buf >>= nb
	bs.nbits -= nb
	return v
}

// Align discards whatever partial bits remain before the next byte
// boundary, per RFC 1951 section 3.2.4's padding rule for raw blocks.
func (bs *bitStream) Align() uint {
	nb := bs.nbits % 8
	v := uint(bs.buf & uint64(1<<nb-1))
	bs.buf >>= nb
	bs.nbits -= nb
	return v
}

// TrySymbol is TryBits for a prefix-coded symbol: it succeeds only if
// the buffered bits already resolve to a leaf of pd's table.
func (bs *bitStream) TrySymbol(pd *prefixDecoder) (uint, bool) {
	if bs.nbits < uint(pd.minBits) || len(pd.chunks) == 0 {
		return 0, false
	}
	chunk := pd.chunks[uint32(bs.buf)&pd.chunkMask]
	nb := uint(chunk & prefixCountMask)
	if nb > bs.nbits || nb > uint(pd.chunkBits) {
		return 0, false
	}
	bs.buf >>= nb
	bs.nbits -= nb
	return uint(chunk >> prefixCountBits), true
}

// Symbol decodes the next prefix-coded symbol using pd, refilling the
// buffer as needed and falling through to the second-level links table
// for codes longer than pd's direct chunk width.
func (bs *bitStream) Symbol(pd *prefixDecoder) uint {
	if len(pd.chunks) == 0 {
		panic(ErrCorrupt) // Tree has no symbols to decode with
	}

	nb := uint(pd.minBits)
	for {
		bs.Fill(nb)
		chunk := pd.chunks[uint32(bs.buf)&pd.chunkMask]
		nb = uint(chunk & prefixCountMask)
		if nb > uint(pd.chunkBits) {
			link := chunk >> prefixCountBits
			chunk = pd.links[link][uint32(bs.buf>>pd.chunkBits)&pd.linkMask]
			nb = uint(chunk & prefixCountMask)
		}
		if nb <= bs.nbits {
			bs.buf >>= nb
			bs.nbits -= nb
			return uint(chunk >> prefixCountBits)
		}
	}
}

// Extra resolves a length or distance symbol sym to its final value by
// reading rcs[sym]'s extra bits and adding them to its base.
func (bs *bitStream) Extra(sym uint, rcs []rangeCode) uint {
	rc := rcs[sym]
	return uint(rc.base) + bs.Bits(uint(rc.bits))
}

// ReadPrefixTables reads the code-length table, then the literal/length
// and distance prefix tables it describes, per RFC 1951 section 3.2.7.
func (bs *bitStream) ReadPrefixTables(hl, hd *prefixDecoder) {
	numLit := bs.Bits(5) + 257
	numDist := bs.Bits(5) + 1
	numCLen := bs.Bits(4) + 4
	if numLit > maxNumLitSyms || numDist > maxNumDistSyms {
		panic(ErrCorrupt)
	}

	clenCodes := bs.readCLenTable(numCLen)
	bs.scratch.Init(clenCodes, true)

	litCodes, distCodes := bs.readSymbolTables(numLit, numDist)
	hl.Init(degenerateCode(litCodes, maxNumLitSyms), true)
	hd.Init(degenerateCode(distCodes, maxNumDistSyms), true)

	// The HLIT tree always contains an end-of-block code, and every
	// DEFLATE block must terminate with one; priming minBits with its
	// length means the first Fill call of the next block can't pull in
	// bits from beyond the stream's actual end. Only worth doing on the
	// byte-at-a-time path: the buffered path always tries to fill to
	// capacity regardless, so this optimization buys it nothing.
	if bs.rdr == nil {
		for i := len(litCodes) - 1; i >= 0; i-- {
			if litCodes[i].sym == endBlockSym && litCodes[i].len > 0 {
				hl.minBits = litCodes[i].len
				break
			}
		}
	}
}

// readCLenTable reads the n code-length code lengths (RFC 1951 section
// 3.2.7's permuted, possibly-sparse alphabet) and returns them compacted
// to just the nonzero entries.
func (bs *bitStream) readCLenTable(n uint) []prefixCode {
	var arr [maxNumCLenSyms]prefixCode // Indexed by symbol; zero length means absent
	for _, sym := range clenLens[:n] {
		if clen := bs.Bits(3); clen > 0 {
			arr[sym] = prefixCode{sym: uint32(sym), len: uint32(clen)}
		}
	}
	codes := arr[:0]
	for _, c := range arr {
		if c.len > 0 {
			codes = append(codes, c)
		}
	}
	return degenerateCode(codes, maxNumCLenSyms)
}

// readSymbolTables decodes numLit+numDist code lengths using the
// code-length tree already loaded into bs.scratch, expanding the two
// repeater symbols (copy-previous and zero-run), and splits the result
// into literal/length codes and distance codes.
func (bs *bitStream) readSymbolTables(numLit, numDist uint) (lits, dists []prefixCode) {
	var arr [maxNumLitSyms + maxNumDistSyms]prefixCode
	lits = arr[:0]
	dists = arr[maxNumLitSyms:maxNumLitSyms]
	put := func(sym, clen uint) {
		if sym < numLit {
			lits = append(lits, prefixCode{sym: uint32(sym), len: uint32(clen)})
		} else {
			dists = append(dists, prefixCode{sym: uint32(sym - numLit), len: uint32(clen)})
		}
	}

	var prevLen uint
	total := numLit + numDist
	for sym := uint(0); sym < total; {
		clen := bs.Symbol(&bs.scratch)
		if clen < 16 {
			if clen > 0 {
				put(sym, clen)
			}
			prevLen = clen
			sym++
			continue
		}

		var rep uint
		switch clen {
		case 16:
			if sym == 0 {
				panic(ErrCorrupt) // Nothing to repeat yet
			}
			clen = prevLen
			rep = 3 + bs.Bits(2)
		case 17:
			clen = 0
			rep = 3 + bs.Bits(3)
		case 18:
			clen = 0
			rep = 11 + bs.Bits(7)
		default:
			panic(ErrCorrupt)
		}

		if clen > 0 {
			for end := sym + rep; sym < end; sym++ {
				put(sym, clen)
			}
		} else {
			sym += rep
		}
		if sym > total {
			panic(ErrCorrupt)
		}
	}
	return lits, dists
}
