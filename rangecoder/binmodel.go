package rangecoder

// Binary is a binary-value frequency Model: a single zero-count and a
// constant total, updated in place by bit shift rather than by
// reallocating a table. Values are represented as 0 (false) or 1 (true).
type Binary struct {
	zero  uint32
	total uint32
	Rate  uint32
}

// NewFlatBinary returns a Binary with an even 50/50 split.
func NewFlatBinary(threshold, rate uint32) *Binary {
	return &Binary{zero: threshold >> 1, total: threshold, Rate: rate}
}

// NewCustomBinary returns a Binary with zeroPercent% weight on zero.
func NewCustomBinary(zeroPercent uint8, threshold, rate uint32) *Binary {
	if threshold < 100 {
		panic("rangecoder: Binary threshold must be >= 100")
	}
	return &Binary{zero: uint32(zeroPercent) * threshold / 100, total: threshold, Rate: rate}
}

// ResetFlat resets the model to a 50/50 distribution.
func (b *Binary) ResetFlat() { b.zero = b.total >> 1 }

// ProbabilityZero returns the current frequency of 0.
func (b *Binary) ProbabilityZero() uint32 { return b.zero }

// ProbabilityOne returns the current frequency of 1.
func (b *Binary) ProbabilityOne() uint32 { return b.total - b.zero }

// UpdateZero adapts the model towards 0.
func (b *Binary) UpdateZero() { b.zero += (b.total - b.zero) >> b.Rate }

// UpdateOne adapts the model towards 1.
func (b *Binary) UpdateOne() { b.zero -= b.zero >> b.Rate }

// Update adapts the model towards value (0 or 1).
func (b *Binary) Update(value uint32) {
	if value != 0 {
		b.UpdateOne()
	} else {
		b.UpdateZero()
	}
}

// GetRange implements Model.
func (b *Binary) GetRange(value uint32) (lo, hi uint32) {
	if value != 0 {
		return b.zero, b.total
	}
	return 0, b.zero
}

// FindValue implements Model.
func (b *Binary) FindValue(offset uint32) (value, lo, hi uint32) {
	if offset < b.zero {
		return 0, 0, b.zero
	}
	return 1, b.zero, b.total
}

// GetDenominator implements Model.
func (b *Binary) GetDenominator() uint32 { return b.total }

// BinarySumProxy composes two Binary models with integer weights, the
// binary-model counterpart of SumProxy.
type BinarySumProxy struct {
	first, second   *Binary
	wFirst, wSecond uint32
	wShift          uint32
}

// NewBinarySumProxy returns a Model computing (wa*A + wb*B) >> shift.
func NewBinarySumProxy(wa uint32, a *Binary, wb uint32, b *Binary, shift uint32) *BinarySumProxy {
	return &BinarySumProxy{first: a, second: b, wFirst: wa, wSecond: wb, wShift: shift}
}

func (p *BinarySumProxy) probabilityZero() uint32 {
	return (p.wFirst*p.first.ProbabilityZero() + p.wSecond*p.second.ProbabilityZero()) >> p.wShift
}

// GetRange implements Model.
func (p *BinarySumProxy) GetRange(value uint32) (lo, hi uint32) {
	zero := p.probabilityZero()
	if value != 0 {
		return zero, p.GetDenominator()
	}
	return 0, zero
}

// FindValue implements Model.
func (p *BinarySumProxy) FindValue(offset uint32) (value, lo, hi uint32) {
	zero := p.probabilityZero()
	total := p.GetDenominator()
	if offset < zero {
		return 0, 0, zero
	}
	return 1, zero, total
}

// GetDenominator implements Model.
func (p *BinarySumProxy) GetDenominator() uint32 {
	return (p.wFirst*p.first.GetDenominator() + p.wSecond*p.second.GetDenominator()) >> p.wShift
}
