// Package dc implements Distance Coding, a transform over MTF-ranked
// symbols that expresses each repeated symbol occurrence as a distance to
// its next occurrence, modulated by its current Move-To-Front rank. It is
// intended to run on BWT block output, where it exposes long runs much
// more directly than MTF+run-length coding does.
package dc

import "github.com/dsnet-oss/streamcodec/mtf"

// TotalSymbols is the size of the byte alphabet.
const TotalSymbols = 0x100

// Context carries the information a probability model may want when
// coding a single distance value.
type Context struct {
	// Symbol is the symbol whose next occurrence is being coded.
	Symbol uint8
	// LastRank is the rank Symbol held the previous time a context was
	// produced for it: its position in the initial sort of live symbols
	// by next occurrence if this is the first context seen for it, or
	// the MTF rank recorded by the prior context otherwise. Both Encode
	// and Decode compute this value from information already available
	// before the current distance is known, so it can condition a
	// probability model without leaking the distance it's about to code.
	LastRank uint8
	// DistanceLimit is one more than the largest distance value that can
	// legally occur at this point: the block length minus the position of
	// the occurrence being coded.
	DistanceLimit int
}

// Encode runs Distance Coding over input, returning the 256-entry initial
// occurrence table, the emitted distances in input order (skipping
// unique-symbol positions, which are implicit), and the modeling Context
// for each emitted distance. n (the sentinel "never occurred" value) is
// len(input).
//
// init[s] == n means symbol s never occurs in input.
func Encode(input []byte) (init [TotalSymbols]int, distances []int, contexts []Context) {
	n := len(input)
	for i := range init {
		init[i] = n
	}

	var table mtf.Table
	table.Reset()
	syms := table.Symbols()

	last := [TotalSymbols]int{}
	for i := range last {
		last[i] = n
	}

	// lastRank holds, per symbol, the rank that was in effect the last
	// time a context was recorded for it (or its rank in first-occurrence
	// order, if no context has been recorded yet). This is what Decode
	// can reconstruct without having seen a distance yet, so contexts
	// must be built from it rather than from this event's own MTF rank;
	// the event's rank becomes the value used for the symbol's next
	// context instead.
	var lastRank [TotalSymbols]uint8

	rawDist := make([]int, n)
	rawCtx := make([]Context, n)
	written := make([]bool, n)

	numUnique := 0
	for i, s := range input {
		base := last[s]
		last[s] = i
		if base == n {
			// First occurrence: append s at the next free rank.
			syms[numUnique] = s
			table.Encode(numUnique+1, s)
			init[s] = i
			lastRank[s] = uint8(numUnique)
			numUnique++
			continue
		}
		rank := table.Encode(numUnique, s)
		if rank > 0 {
			rawDist[base] = i - base - rank - 1
			rawCtx[base] = Context{Symbol: s, LastRank: lastRank[s], DistanceLimit: n - base}
			written[base] = true
			lastRank[s] = uint8(rank)
		}
	}

	// Sweep: close out the last occurrence of every symbol seen, in the
	// order they currently sit in the MTF list (most recently seen
	// first).
	for rank, s := range syms[:numUnique] {
		base := last[s]
		rawDist[base] = n - base - rank - 1
		rawCtx[base] = Context{Symbol: s, LastRank: lastRank[s], DistanceLimit: n - base}
		written[base] = true
	}

	distances = make([]int, 0, n)
	contexts = make([]Context, 0, n)
	for i, ok := range written {
		if ok {
			distances = append(distances, rawDist[i])
			contexts = append(contexts, rawCtx[i])
		}
	}
	return init, distances, contexts
}

// Decode reconstructs the original n-byte block from the 256-entry initial
// occurrence table and the distance stream, pulling one distance at a time
// from nextDistance (which receives the Context for the value it is about
// to supply). nextDistance returns ok=false if the stream runs out before
// the block is fully reconstructed.
func Decode(n int, init [TotalSymbols]int, nextDistance func(Context) (int, bool)) ([]byte, error) {
	output := make([]byte, n)
	if n == 0 {
		return output, nil
	}

	next := init
	var table mtf.Table
	table.Reset()
	syms := table.Symbols()

	k := 0
	for s := 0; s < TotalSymbols; s++ {
		d := next[s]
		if d >= n {
			continue
		}
		j := k
		for j > 0 && next[syms[j-1]] > d {
			syms[j] = syms[j-1]
			j--
		}
		syms[j] = uint8(s)
		k++
	}

	if k <= 1 {
		var s uint8
		if k == 1 {
			s = syms[0]
		}
		for i := range output {
			output[i] = s
		}
		if k == 1 {
			// Encode's sweep still emits one distance for the lone
			// symbol's last occurrence; consume it to stay in step.
			d, ok := nextDistance(Context{Symbol: s, LastRank: 0, DistanceLimit: 1})
			if !ok {
				return nil, errUnexpectedEOF
			}
			if d > 0 {
				return nil, errInvalidDistance
			}
		}
		return output, nil
	}

	alphabetSize := k
	var ranks [TotalSymbols]uint8
	for rank, s := range syms[:k] {
		ranks[s] = uint8(rank)
	}

	i := 0
	stop := next[syms[1]]
	for i < n {
		s := syms[0]
		for i < stop {
			output[i] = s
			i++
		}

		ctx := Context{Symbol: s, LastRank: ranks[s], DistanceLimit: n + 1 - i}
		d, ok := nextDistance(ctx)
		if !ok {
			return nil, errUnexpectedEOF
		}
		future := stop + d
		if future > n {
			return nil, errInvalidDistance
		}

		rank := 1
		for rank < alphabetSize && future+rank > next[syms[rank]] {
			syms[rank-1] = syms[rank]
			rank++
		}
		syms[rank-1] = s
		next[s] = future + rank - 1
		ranks[s] = uint8(rank - 1)

		stop = next[syms[1]]
	}
	return output, nil
}

type dcError string

func (e dcError) Error() string { return "dc: " + string(e) }

var (
	errUnexpectedEOF   error = dcError("unexpected end of distance stream")
	errInvalidDistance error = dcError("distance projects past end of block")
)
