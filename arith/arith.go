// Package arith implements a byte-stream arithmetic codec: an adaptive
// order-0 frequency model over the 256 byte values plus a 257th
// end-of-stream terminator, driving the rangecoder primitive.
package arith

import (
	"io"

	"github.com/dsnet-oss/streamcodec/rangecoder"
)

const (
	symbolTotal = 256
	eofSymbol   = symbolTotal // one past the last byte value

	// freqMax bounds the frequency table's total strictly below the range
	// coder's renormalization threshold, as the table model requires.
	freqMax = rangecoder.DefaultThreshold >> 2
)

func newByteModel() *rangecoder.Table {
	return rangecoder.NewFlatTable(symbolTotal+1, freqMax)
}

// Writer adaptively arithmetic-encodes bytes written to it. Callers must
// call Close to flush the terminator symbol and the closing code word.
type Writer struct {
	enc  *rangecoder.Encoder
	freq *rangecoder.Table
	err  error
}

// NewWriter returns a Writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: rangecoder.NewEncoder(w), freq: newByteModel()}
}

// Write implements io.Writer.
func (zw *Writer) Write(p []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	for i, c := range p {
		value := uint32(c)
		if err := zw.enc.Encode(value, zw.freq); err != nil {
			zw.err = err
			return i, err
		}
		zw.freq.Update(int(value), 10, 1)
	}
	return len(p), nil
}

// Close writes the terminator symbol and the final code tail.
func (zw *Writer) Close() error {
	if zw.err != nil {
		return zw.err
	}
	if err := zw.enc.Encode(eofSymbol, zw.freq); err != nil {
		zw.err = err
		return err
	}
	zw.err = zw.enc.Finish()
	return zw.err
}

// Reader adaptively arithmetic-decodes bytes from the underlying reader
// until the terminator symbol is reached.
type Reader struct {
	dec    *rangecoder.Decoder
	freq   *rangecoder.Table
	isEOF  bool
	err    error
}

// NewReader returns a Reader decoding from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: rangecoder.NewDecoder(r), freq: newByteModel()}
}

// Read implements io.Reader.
func (zr *Reader) Read(p []byte) (int, error) {
	if zr.isEOF {
		return 0, io.EOF
	}
	if zr.err != nil {
		return 0, zr.err
	}
	n := 0
	for n < len(p) {
		value, err := zr.dec.Decode(zr.freq)
		if err != nil {
			zr.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if value == eofSymbol {
			zr.isEOF = true
			break
		}
		zr.freq.Update(int(value), 10, 1)
		p[n] = byte(value)
		n++
	}
	if zr.isEOF && n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
