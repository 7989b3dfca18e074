package bwt

import (
	"bytes"
	"sort"
)

// ComputeSuffixes fills sa (len(sa) == len(input)) with a permutation of
// 0..len(input) such that the rotations of input starting at those
// positions are in lexicographic order of their suffixes. Run time is
// O(N^2 log N) worst case, due to full-tail suffix comparison within each
// radix bucket; memory is O(N) for sa plus the fixed 257-entry radix table.
func ComputeSuffixes(input []byte, sa []int) {
	var radix Radix
	radix.Gather(input)
	radix.Accumulate()

	for i, ch := range input {
		sa[radix.Place(ch)] = i
	}
	radix.Shift()

	for c := 0; c < AlphabetSize; c++ {
		lo, hi := radix.freq[c], radix.freq[c+1]
		if lo == hi {
			continue
		}
		bucket := sa[lo:hi]
		sort.Slice(bucket, func(i, j int) bool {
			return bytes.Compare(input[bucket[i]:], input[bucket[j]:]) < 0
		})
	}
}

// Encode computes the forward Burrows-Wheeler Transform of input using sa
// as scratch space (len(sa) must equal len(input)). It returns the
// transformed bytes and the origin row: the index in the output at which
// the original string appears in the sorted rotation matrix.
func Encode(input []byte, sa []int) (output []byte, origin int) {
	ComputeSuffixes(input, sa)

	n := len(input)
	output = make([]byte, n)
	origin = 0
	for i, p := range sa {
		if p == 0 {
			origin = i
			output[i] = input[n-1]
		} else {
			output[i] = input[p-1]
		}
	}
	return output, origin
}

// computeInversionTable builds the O(N) jump table used by Decode: table[k]
// is one plus the output position whose predecessor (in original-string
// order) is at rank-space index k, except for the slot corresponding to
// origin's predecessor, set to 0 as the cycle-closing sentinel.
func computeInversionTable(input []byte, origin int, table []int) {
	var radix Radix
	radix.Gather(input)
	radix.Accumulate()

	table[radix.Place(input[origin])] = 0
	for i, ch := range input[:origin] {
		table[radix.Place(ch)] = i + 1
	}
	for i, ch := range input[origin+1:] {
		table[radix.Place(ch)] = origin + 2 + i
	}
}

// Decode reverses Encode: given the BWT output and its origin, it
// reconstructs the original bytes in O(N) time using table as scratch
// space (len(table) must equal len(input)).
func Decode(input []byte, origin int, table []int) ([]byte, error) {
	n := len(input)
	if origin < 0 || (n > 0 && origin >= n) || (n == 0 && origin != 0) {
		return nil, ErrInvalidOrigin
	}
	if n == 0 {
		return nil, nil
	}

	computeInversionTable(input, origin, table)

	const sentinel = -1
	out := make([]byte, n)
	current := origin
	idx := 0
	for current != sentinel && idx < n {
		if table[current] == 0 {
			current = sentinel
		} else {
			current = table[current] - 1
		}
		var p int
		if current != sentinel {
			if current < 0 || current >= n {
				return nil, ErrCorrupt
			}
			p = current
		} else {
			p = origin
		}
		out[idx] = input[p]
		idx++
	}
	if idx != n {
		return nil, Error("invalid BWT stream")
	}
	return out, nil
}

// DecodeMinimal is the zero-extra-memory inverse variant: instead of an
// O(N) jump table, it recomputes each next position by linearly counting
// prior occurrences of the current symbol. O(N^2) time, O(1) extra memory
// beyond the fixed radix table.
func DecodeMinimal(input []byte, origin int) ([]byte, error) {
	n := len(input)
	if origin < 0 || (n > 0 && origin >= n) || (n == 0 && origin != 0) {
		return nil, ErrInvalidOrigin
	}
	output := make([]byte, n)
	if n == 0 {
		return output, nil
	}

	var radix Radix
	radix.Gather(input)
	radix.Accumulate()

	i := origin
	for j := 0; j < n; j++ {
		ch := input[i]
		output[n-j-1] = ch
		offset := 0
		for _, k := range input[:i] {
			if k == ch {
				offset++
			}
		}
		i = radix.freq[ch] + offset
	}
	return output, nil
}
