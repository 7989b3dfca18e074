// Package lz4 implements the LZ4 block format and the LZ4 frame format
// that sequences blocks into a checksummed stream.
package lz4

import "github.com/dsnet-oss/streamcodec/internal/errors"

const (
	minMatch = 4
	mlBits   = 4
	mlMask   = 1<<mlBits - 1
	runBits  = 8 - mlBits
	runMask  = 1<<runBits - 1

	hashLog        = 17
	hashTableSize  = 1 << hashLog
	hashShift      = minMatch*8 - hashLog
	incompressible = 128
	uninitHash     = 0x88888888
	maxInputSize   = 0x7e000000
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "lz4: " + string(e) }

// ErrCorrupt indicates the compressed block stream is malformed: a
// truncated token, a match distance of zero, or a back-reference that
// points before the start of the output produced so far.
var ErrCorrupt error = Error("corrupt block")

// CompressionBound returns the size of the largest block EncodeBlock can
// produce for a source of size bytes. It reports false if size exceeds
// the format's input limit.
func CompressionBound(size int) (int, bool) {
	if size > maxInputSize {
		return 0, false
	}
	return size + size/255 + 16 + 4, true
}

// DecodeBlock decodes a single LZ4 block from src, appending the result
// to dst and returning the extended slice.
func DecodeBlock(dst, src []byte) (out []byte, err error) {
	defer errors.Recover(&err)
	return decodeBlock(dst, src), nil
}

func decodeBlock(dst, src []byte) []byte {
	cur := 0
	for cur < len(src) {
		token := src[cur]
		cur++

		litLen := int(token >> 4)
		if litLen == 0xf {
			for {
				if cur >= len(src) {
					panic(ErrCorrupt)
				}
				b := src[cur]
				cur++
				litLen += int(b)
				if b != 0xff {
					break
				}
			}
		}
		if litLen > 0 {
			if cur+litLen > len(src) {
				panic(ErrCorrupt)
			}
			dst = append(dst, src[cur:cur+litLen]...)
			cur += litLen
		}
		if cur == len(src) {
			// Final sequence is literals only; no trailing match.
			break
		}

		if cur+2 > len(src) {
			panic(ErrCorrupt)
		}
		back := int(src[cur]) | int(src[cur+1])<<8
		cur += 2
		if back == 0 || back > len(dst) {
			panic(ErrCorrupt)
		}
		start := len(dst) - back

		matchLen := int(token & 0xf)
		if matchLen == 0xf {
			for {
				if cur >= len(src) {
					panic(ErrCorrupt)
				}
				b := src[cur]
				cur++
				matchLen += int(b)
				if b != 0xff {
					break
				}
			}
		}
		matchLen += minMatch

		// Byte-by-byte so overlapping matches (back < matchLen) repeat
		// correctly, e.g. a back-distance of 1 run-length-encodes a byte.
		for i := 0; i < matchLen; i++ {
			dst = append(dst, dst[start+i])
		}
	}
	return dst
}

// EncodeBlock compresses src into a single LZ4 block, appending the
// result to dst and returning the extended slice. It panics with
// ErrCorrupt if src exceeds the format's input limit.
//
// The match finder hashes every four-byte position into a 17-bit table
// of prior positions. Table entries and the position being probed are
// both offset by uninitHash, so an empty slot (zero) compares as a
// position far outside the 64KiB window and is naturally rejected by
// the proximity check below instead of needing an explicit
// "is this slot populated" flag.
func EncodeBlock(dst, src []byte) []byte {
	bound, ok := CompressionBound(len(src))
	if !ok {
		panic(ErrCorrupt)
	}
	base := len(dst)
	dst = append(dst, make([]byte, bound)...)
	out := dst[base:]
	destPos := uint32(0)

	writeLiterals := func(litLen, matchLen, litPos uint32) {
		var code uint8
		if litLen > runMask-1 {
			code = runMask
		} else {
			code = uint8(litLen)
		}
		if matchLen > mlMask-1 {
			out[destPos] = code<<mlBits + mlMask
		} else {
			out[destPos] = code<<mlBits + uint8(matchLen)
		}
		destPos++

		if code == runMask {
			ln := litLen - runMask
			for ln > 254 {
				out[destPos] = 255
				destPos++
				ln -= 255
			}
			out[destPos] = uint8(ln)
			destPos++
		}

		copy(out[destPos:destPos+litLen], src[litPos:litPos+litLen])
		destPos += litLen
	}

	seqAt := func(pos uint32) uint32 {
		return uint32(src[pos+3])<<24 | uint32(src[pos+2])<<16 | uint32(src[pos+1])<<8 | uint32(src[pos])
	}

	if len(src) == 0 {
		writeLiterals(0, 0, 0)
		return dst[:base+int(destPos)]
	}

	hashTable := make([]uint32, hashTableSize)
	inputLen := uint32(len(src))
	var pos, anchor uint32
	step := uint32(1)
	limit := uint32(incompressible)

	for {
		if pos+12 > inputLen {
			writeLiterals(inputLen-anchor, 0, anchor)
			return dst[:base+int(destPos)]
		}

		seq := seqAt(pos)
		hash := (seq * 2654435761) >> hashShift
		r := hashTable[hash] + uninitHash
		hashTable[hash] = pos - uninitHash

		if (pos-r)>>16 != 0 || seq != seqAt(r) {
			if pos-anchor > limit {
				limit <<= 1
				step += 1 + (step >> 2)
			}
			pos += step
			continue
		}

		if step > 1 {
			hashTable[hash] = r - uninitHash
			pos -= step - 1
			step = 1
			continue
		}
		limit = incompressible

		litLen := pos - anchor
		back := pos - r
		litPos := anchor

		pos += minMatch
		r += minMatch
		anchor = pos

		for pos < inputLen-5 && src[pos] == src[r] {
			pos++
			r++
		}
		matchLen := pos - anchor

		writeLiterals(litLen, matchLen, litPos)
		out[destPos] = uint8(back)
		out[destPos+1] = uint8(back >> 8)
		destPos += 2

		if matchLen > mlMask-1 {
			matchLen -= mlMask
			for matchLen > 254 {
				matchLen -= 255
				out[destPos] = 255
				destPos++
			}
			out[destPos] = uint8(matchLen)
			destPos++
		}

		anchor = pos
	}
}
