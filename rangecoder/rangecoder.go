// Package rangecoder implements a byte-oriented range coder, an arithmetic
// coding primitive that turns probability intervals supplied by a pluggable
// Model into whole bytes of output, and back.
package rangecoder

import (
	"encoding/binary"
	"io"
)

const (
	symbolBits  = 8
	borderBytes = 4
	borderBits  = borderBytes * 8       // 32
	borderExcess = borderBits - symbolBits // 24

	// borderSymbolMask isolates the top 8 bits of a Border value, the bits
	// that stagnate once low and high agree on them.
	borderSymbolMask = uint32(0xFF) << borderExcess

	// DefaultThreshold is the minimum distance kept between low and high at
	// all times. It must be at least as large as the largest denominator any
	// Model in use will report.
	DefaultThreshold uint32 = 1 << 14
)

// Coder is the range coder primitive: it tracks a half-open interval
// [low, high) within [0, 2^32) and narrows it on every Process call,
// emitting bytes whenever the interval gets too narrow to keep dividing.
//
// A single Coder value is used on only one side (encode xor decode) of a
// stream at a time; Encoder and Decoder below each own one.
type Coder struct {
	low, high uint32
	Threshold uint32
}

// New returns a Coder with the given renormalization threshold. threshold
// must be at least as large as the largest denominator any Model supplies.
func New(threshold uint32) *Coder {
	c := &Coder{Threshold: threshold}
	c.Reset()
	return c
}

// Reset restores the full [0, 2^32) interval.
func (c *Coder) Reset() {
	c.low = 0
	c.high = ^uint32(0)
}

// Process narrows the current interval to the sub-interval [from, to) of
// [0, total), renormalizing (and appending emitted bytes to out) as needed.
// It returns the number of bytes written to out. out must have room for at
// least 4 bytes.
func (c *Coder) Process(total, from, to uint32, out []byte) int {
	oldRange := c.high - c.low
	r := oldRange / total
	lo := c.low + r*from
	hi := c.low + r*to

	n := 0
	for {
		if (lo^hi)&borderSymbolMask != 0 {
			if hi-lo > c.Threshold {
				break
			}
			// Threshold cut: the interval is narrow but the top bytes of lo
			// and hi still disagree, so force agreement by clamping to the
			// side of the midpoint with more room. This loses a fractional
			// bit but guarantees the loop below can make progress.
			lim := hi & borderSymbolMask
			if hi-lim >= lim-lo {
				lo = lim
			} else {
				hi = lim - 1
			}
		}
		out[n] = byte(lo >> borderExcess)
		n++
		lo <<= symbolBits
		hi <<= symbolBits
	}
	c.low = lo
	c.high = hi
	return n
}

// Query returns the offset into [0, total) that the decoder's running code
// word corresponds to under the current interval.
func (c *Coder) Query(total, code uint32) uint32 {
	r := (c.high - c.low) / total
	return (code - c.low) / r
}

// GetCodeTail returns low as the final code word and resets the interval.
// Called once by the encoder after the last value has been processed.
func (c *Coder) GetCodeTail() uint32 {
	tail := c.low
	c.low, c.high = 0, 0
	return tail
}

// Model is a pluggable probability source. The intervals returned by
// GetRange over every valid value must partition [0, GetDenominator()), and
// FindValue(offset) must return the unique value whose interval contains
// offset.
//
// Values are represented as uint32 throughout this package: a binary model
// maps {0,1}, a byte frequency table maps 0..256, an MTF rank model maps
// 0..255, and so on.
type Model interface {
	GetRange(value uint32) (lo, hi uint32)
	FindValue(offset uint32) (value, lo, hi uint32)
	GetDenominator() uint32
}

// EncodeValue narrows c by value's interval under m and returns the bytes
// produced (written into out, which must have room for 4 bytes).
func EncodeValue(c *Coder, value uint32, m Model, out []byte) int {
	lo, hi := m.GetRange(value)
	total := m.GetDenominator()
	return c.Process(total, lo, hi, out)
}

// DecodeValue recovers the value whose interval under m contains the
// decoder's running code word, and narrows c to match. shift is the number
// of bytes the caller must feed into the running code word before the next
// DecodeValue call.
func DecodeValue(c *Coder, code uint32, m Model) (value uint32, shift int) {
	total := m.GetDenominator()
	offset := c.Query(total, code)
	value, lo, hi := m.FindValue(offset)
	var buf [borderBytes]byte
	shift = c.Process(total, lo, hi, buf[:])
	return value, shift
}

// Encoder drives a Coder over an io.Writer, emitting renormalized bytes as
// soon as they're produced.
type Encoder struct {
	w io.Writer
	c Coder
}

// NewEncoder returns an Encoder writing to w with the default threshold.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	e.c.Threshold = DefaultThreshold
	e.c.Reset()
	return e
}

// Encode narrows the coder by value's interval under m and writes any
// produced bytes to the underlying writer.
func (e *Encoder) Encode(value uint32, m Model) error {
	var buf [borderBytes]byte
	n := EncodeValue(&e.c, value, m, buf[:])
	_, err := e.w.Write(buf[:n])
	return err
}

// Finish writes the closing code-tail word (big-endian) and returns any
// write error.
func (e *Encoder) Finish() error {
	tail := e.c.GetCodeTail()
	var buf [borderBytes]byte
	binary.BigEndian.PutUint32(buf[:], tail)
	_, err := e.w.Write(buf[:])
	return err
}

// Decoder drives a Coder over an io.Reader.
type Decoder struct {
	r       io.Reader
	c       Coder
	code    uint32
	pending int
}

// NewDecoder returns a Decoder reading from r with the default threshold.
// The first Decode call consumes the initial 4-byte code word.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{r: r, pending: borderBytes}
	d.c.Threshold = DefaultThreshold
	d.c.Reset()
	return d
}

func (d *Decoder) feed() error {
	var b [1]byte
	for d.pending > 0 {
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return err
		}
		d.code = d.code<<8 | uint32(b[0])
		d.pending--
	}
	return nil
}

// Decode reads (feeding more code bytes as needed) and returns the next
// value under m.
func (d *Decoder) Decode(m Model) (uint32, error) {
	if err := d.feed(); err != nil {
		return 0, err
	}
	value, shift := DecodeValue(&d.c, d.code, m)
	d.pending = shift
	return value, nil
}
