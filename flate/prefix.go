// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

const maxPrefixBits = 15

const (
	maxNumCLenSyms = 19
	maxNumLitSyms  = 286
	maxNumDistSyms = 30
)

// rangeCode maps a length or distance symbol onto the base value of its
// range plus the number of extra bits that follow it in the bitstream,
// per RFC 1951 section 3.2.5.
type rangeCode struct {
	base uint32
	bits uint32
}

// prefixCode pairs a symbol with its canonical prefix code, as produced
// or consumed by prefixDecoder.Init.
type prefixCode struct {
	sym uint32
	val uint32 // Must be in [0, 1<<len)
	len uint32
}

var (
	lengthRanges   [maxNumLitSyms - 257]rangeCode // RFC 1951 section 3.2.5
	distanceRanges [maxNumDistSyms]rangeCode      // RFC 1951 section 3.2.5
	fixedLitTree   prefixDecoder                  // RFC 1951 section 3.2.6
	fixedDistTree  prefixDecoder                  // RFC 1951 section 3.2.6
)

// clenLens gives the order in which code-length code lengths are stored
// in a dynamic block header (RFC 1951 section 3.2.7): the alphabet is
// permuted so that the codes most likely to be used come first, letting
// a header with few distinct lengths end early.
var clenLens = [maxNumCLenSyms]uint{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

func init() {
	buildRangeTables()
	buildFixedTrees()
}

// buildRangeTables fills in lengthRanges and distanceRanges, the base
// value/extra-bits pairs a length or distance symbol expands to.
func buildRangeTables() {
	base := 3
	for i := range lengthRanges[:len(lengthRanges)-1] {
		nb := uint(i/4 - 1)
		if i < 4 {
			nb = 0
		}
		lengthRanges[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
	lengthRanges[len(lengthRanges)-1] = rangeCode{base: 258, bits: 0}

	base = 1
	for i := range distanceRanges {
		nb := uint(i/2 - 1)
		if i < 2 {
			nb = 0
		}
		distanceRanges[i] = rangeCode{base: uint32(base), bits: uint32(nb)}
		base += 1 << nb
	}
}

// buildFixedTrees initializes the prefix trees for RFC 1951 section
// 3.2.6's fixed Huffman codes, used by block type 1.
func buildFixedTrees() {
	var litCodes [288]prefixCode
	for i := range litCodes {
		switch {
		case i < 144:
			litCodes[i] = prefixCode{sym: uint32(i), len: 8}
		case i < 256:
			litCodes[i] = prefixCode{sym: uint32(i), len: 9}
		case i < 280:
			litCodes[i] = prefixCode{sym: uint32(i), len: 7}
		default:
			litCodes[i] = prefixCode{sym: uint32(i), len: 8}
		}
	}
	fixedLitTree.Init(litCodes[:], true)

	var distCodes [32]prefixCode
	for i := range distCodes {
		distCodes[i] = prefixCode{sym: uint32(i), len: 5}
	}
	fixedDistTree.Init(distCodes[:], true)
}

// degenerateCode patches a single-symbol code table so that the unused
// "1" bit of its one-bit code still routes somewhere: RFC 1951 section
// 3.2.7 allows a prefix tree with only one leaf, at code length 1, even
// though the canonical assignment algorithm leaves its sibling code
// unassigned. A phantom out-of-alphabet symbol is inserted there so that
// a stream actually using it fails with ErrCorrupt instead of decoding
// one of pd's table-building invariants incorrectly.
func degenerateCode(codes []prefixCode, maxSyms uint) []prefixCode {
	if len(codes) != 1 {
		return codes
	}
	return append(codes, prefixCode{sym: uint32(maxSyms), len: 1})
}
