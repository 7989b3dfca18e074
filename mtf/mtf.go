// Package mtf implements the Move-To-Front symbol-rank transform.
package mtf

import "io"

// Table holds the current rank order of all 256 byte values. The zero value
// is the zeroed table (every entry 0); use Reset or ResetAlphabetical to
// bring it to a usable state before encoding or decoding.
type Table struct {
	symbols [256]uint8
}

// ResetAlphabetical sets symbols[i] = i, the standard starting order for
// stand-alone MTF use.
func (t *Table) ResetAlphabetical() {
	for i := range t.symbols {
		t.symbols[i] = uint8(i)
	}
}

// Reset zeroes the table. This is the starting mode used by the distance
// coder, which builds its own initial prefix incrementally rather than
// starting from the alphabetical order.
func (t *Table) Reset() {
	t.symbols = [256]uint8{}
}

// Symbols returns the live slice backing the rank order. DC uses this
// directly to manage a variable-length prefix; plain MTF use treats it as a
// fixed 256-entry permutation.
func (t *Table) Symbols() []uint8 { return t.symbols[:] }

// Encode moves s to rank 0 within symbols[:n], shifting entries between its
// old and new rank over by one, and returns its previous rank. s must
// already be present in symbols[:n].
func (t *Table) Encode(n int, s uint8) int {
	syms := t.symbols[:n]
	rank := 0
	for syms[rank] != s {
		rank++
	}
	copy(syms[1:rank+1], syms[:rank])
	syms[0] = s
	return rank
}

// Decode reads the symbol at rank within symbols[:n], moves it to rank 0,
// and returns it.
func (t *Table) Decode(n int, rank int) uint8 {
	syms := t.symbols[:n]
	s := syms[rank]
	copy(syms[1:rank+1], syms[:rank])
	syms[0] = s
	return s
}

// Encode applies the whole-alphabet Move-To-Front transform to src,
// returning one rank byte per input byte. The table is reset to
// alphabetical order first.
func Encode(src []byte) []byte {
	var t Table
	t.ResetAlphabetical()
	dst := make([]byte, len(src))
	for i, c := range src {
		dst[i] = byte(t.Encode(256, c))
	}
	return dst
}

// Decode reverses Encode.
func Decode(src []byte) []byte {
	var t Table
	t.ResetAlphabetical()
	dst := make([]byte, len(src))
	for i, r := range src {
		dst[i] = t.Decode(256, int(r))
	}
	return dst
}

// Encoder is a streaming wrapper that writes one rank byte per input byte
// to the underlying writer.
type Encoder struct {
	w   io.Writer
	tbl Table
	buf [4096]byte
}

// NewEncoder returns an Encoder writing MTF ranks to w.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	e.tbl.ResetAlphabetical()
	return e
}

// Write encodes p and writes the resulting ranks to the underlying writer.
func (e *Encoder) Write(p []byte) (int, error) {
	n := 0
	for len(p) > 0 {
		cnt := copy(e.buf[:], p)
		for i, c := range e.buf[:cnt] {
			e.buf[i] = byte(e.tbl.Encode(256, c))
		}
		if _, err := e.w.Write(e.buf[:cnt]); err != nil {
			return n, err
		}
		n += cnt
		p = p[cnt:]
	}
	return n, nil
}

// Decoder is a streaming wrapper that reads rank bytes from the underlying
// reader and reconstructs the original symbols.
type Decoder struct {
	r   io.Reader
	tbl Table
}

// NewDecoder returns a Decoder reading MTF ranks from r.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{r: r}
	d.tbl.ResetAlphabetical()
	return d
}

// Read decodes into p the original symbols corresponding to ranks read from
// the underlying reader.
func (d *Decoder) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] = d.tbl.Decode(256, int(p[i]))
	}
	return n, err
}
