package rangecoder

// Table is a frequency-table Model: an array of per-value counts and a
// running total. It adapts towards recently observed values and
// downscales automatically when the total would reach the range coder's
// threshold.
type Table struct {
	total       uint32
	freq        []uint16
	cutThreshold uint32
	cutShift    uint32
}

// NewTable builds a table over numValues values, with each value's initial
// frequency supplied by initFn, downscaled as needed so total stays below
// threshold. threshold should be at most the Coder's Threshold.
func NewTable(numValues int, threshold uint32, initFn func(int) uint16) *Table {
	t := &Table{
		freq:         make([]uint16, numValues),
		cutThreshold: threshold,
		cutShift:     1,
	}
	var total uint32
	for i := range t.freq {
		t.freq[i] = initFn(i)
		total += uint32(t.freq[i])
	}
	t.total = total
	for t.total >= threshold {
		t.Downscale()
	}
	return t
}

// NewFlatTable builds a table over numValues values, each with frequency 1.
func NewFlatTable(numValues int, threshold uint32) *Table {
	return NewTable(numValues, threshold, func(int) uint16 { return 1 })
}

// ResetFlat resets every frequency to 1.
func (t *Table) ResetFlat() {
	for i := range t.freq {
		t.freq[i] = 1
	}
	t.total = uint32(len(t.freq))
}

// Update adapts the table in favor of value. addLog and addConst together
// control the additive factor: higher addLog is more conservative.
func (t *Table) Update(value int, addLog uint32, addConst uint32) {
	add := (t.total >> addLog) + addConst
	t.freq[value] += uint16(add)
	t.total += add
	if t.total >= t.cutThreshold {
		t.Downscale()
	}
}

// Downscale halves (by cutShift bits, rounding up) every frequency so no
// positive entry becomes zero, and recomputes the total.
func (t *Table) Downscale() {
	roundup := uint16(1<<t.cutShift - 1)
	var total uint32
	for i, f := range t.freq {
		f = (f + roundup) >> t.cutShift
		t.freq[i] = f
		total += uint32(f)
	}
	t.total = total
}

// Frequencies returns the live frequency slice.
func (t *Table) Frequencies() []uint16 { return t.freq }

// GetRange implements Model.
func (t *Table) GetRange(value uint32) (lo, hi uint32) {
	for _, f := range t.freq[:value] {
		lo += uint32(f)
	}
	return lo, lo + uint32(t.freq[value])
}

// FindValue implements Model.
func (t *Table) FindValue(offset uint32) (value, lo, hi uint32) {
	var v uint32
	var l, h uint32
	for {
		h = l + uint32(t.freq[v])
		if h > offset {
			break
		}
		l = h
		v++
	}
	return v, l, h
}

// GetDenominator implements Model.
func (t *Table) GetDenominator() uint32 { return t.total }

// SumProxy composes two Table models with integer weights, reporting a
// weighted-sum interval without materializing a merged table. Used for
// model mixing.
type SumProxy struct {
	first, second   *Table
	wFirst, wSecond uint32
	wShift          uint32
}

// NewSumProxy returns a Model computing (wa*A + wb*B) >> shift over a and
// b, which must have the same number of values.
func NewSumProxy(wa uint32, a *Table, wb uint32, b *Table, shift uint32) *SumProxy {
	if len(a.freq) != len(b.freq) {
		panic("rangecoder: SumProxy operands have different alphabet sizes")
	}
	return &SumProxy{first: a, second: b, wFirst: wa, wSecond: wb, wShift: shift}
}

// GetRange implements Model.
func (p *SumProxy) GetRange(value uint32) (lo, hi uint32) {
	lo0, hi0 := p.first.GetRange(value)
	lo1, hi1 := p.second.GetRange(value)
	return (p.wFirst*lo0 + p.wSecond*lo1) >> p.wShift, (p.wFirst*hi0 + p.wSecond*hi1) >> p.wShift
}

// FindValue implements Model.
func (p *SumProxy) FindValue(offset uint32) (value, lo, hi uint32) {
	fa, fb := p.first.Frequencies(), p.second.Frequencies()
	var v uint32
	var l, h uint32
	for {
		h = l + (p.wFirst*uint32(fa[v])+p.wSecond*uint32(fb[v]))>>p.wShift
		if h > offset {
			break
		}
		l = h
		v++
	}
	return v, l, h
}

// GetDenominator implements Model.
func (p *SumProxy) GetDenominator() uint32 {
	return (p.wFirst*p.first.GetDenominator() + p.wSecond*p.second.GetDenominator()) >> p.wShift
}
