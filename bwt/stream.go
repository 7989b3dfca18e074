package bwt

import (
	"encoding/binary"
	"io"
)

// Writer applies the BWT to a byte stream one block at a time, framing
// each block as <u32 LE length><bytes><u32 LE origin>. A <u32 LE
// max_block_size> header precedes the first block. Close writes a
// zero-length block to mark end-of-stream.
type Writer struct {
	w           io.Writer
	blockSize   int
	buf         []byte
	sa          []int
	wroteHeader bool
	err         error
}

// NewWriter returns a Writer buffering up to blockSize bytes per BWT
// block before transforming and flushing them.
func NewWriter(w io.Writer, blockSize int) *Writer {
	return &Writer{w: w, blockSize: blockSize}
}

func (zw *Writer) writeHeader() error {
	if zw.wroteHeader {
		return nil
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(zw.blockSize))
	if _, err := zw.w.Write(hdr[:]); err != nil {
		return err
	}
	zw.wroteHeader = true
	return nil
}

// transform runs Encode over zw.buf (len(zw.buf) == n) behind a
// panic/recover boundary, so an invariant violation in the radix sorter
// surfaces as an ordinary error instead of an unrecovered panic out of
// Write.
func (zw *Writer) transform(n int) (out []byte, origin int, err error) {
	defer errRecover(&err)
	out, origin = Encode(zw.buf, zw.sa[:n])
	return out, origin, nil
}

func (zw *Writer) encodeBlock() error {
	n := len(zw.buf)
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(n))
	if _, err := zw.w.Write(hdr[:]); err != nil {
		return err
	}

	if cap(zw.sa) < n {
		zw.sa = make([]int, n)
	}
	out, origin, err := zw.transform(n)
	if err != nil {
		return err
	}
	if _, err := zw.w.Write(out); err != nil {
		return err
	}

	var originBuf [4]byte
	binary.LittleEndian.PutUint32(originBuf[:], uint32(origin))
	if _, err := zw.w.Write(originBuf[:]); err != nil {
		return err
	}
	zw.buf = zw.buf[:0]
	return nil
}

// Write buffers p, transforming and flushing full blocks as they fill.
func (zw *Writer) Write(p []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	if err := zw.writeHeader(); err != nil {
		zw.err = err
		return 0, err
	}

	total := len(p)
	for len(p) > 0 {
		room := zw.blockSize - len(zw.buf)
		cnt := len(p)
		if cnt > room {
			cnt = room
		}
		zw.buf = append(zw.buf, p[:cnt]...)
		p = p[cnt:]
		if len(zw.buf) == zw.blockSize {
			if err := zw.encodeBlock(); err != nil {
				zw.err = err
				return total - len(p), err
			}
		}
	}
	return total, nil
}

// Close flushes any buffered partial block and writes the zero-length
// terminator block.
func (zw *Writer) Close() error {
	if zw.err != nil {
		return zw.err
	}
	if err := zw.writeHeader(); err != nil {
		zw.err = err
		return err
	}
	if len(zw.buf) > 0 {
		if err := zw.encodeBlock(); err != nil {
			zw.err = err
			return err
		}
	}
	var term [4]byte // length 0 terminator
	_, zw.err = zw.w.Write(term[:])
	return zw.err
}

// Reader reverses Writer: it reads the max-block-size header, then
// decodes blocks until a zero-length block or EOF is reached.
type Reader struct {
	r         io.Reader
	maxBlock  int
	gotHeader bool

	output []byte
	start  int
	table  []int
	done   bool
	err    error
}

// NewReader returns a Reader decoding BWT blocks read from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (zr *Reader) readHeader() error {
	var hdr [4]byte
	if _, err := io.ReadFull(zr.r, hdr[:]); err != nil {
		return err
	}
	zr.maxBlock = int(binary.LittleEndian.Uint32(hdr[:]))
	zr.gotHeader = true
	return nil
}

// untransform runs Decode over buf behind a panic/recover boundary, so an
// invariant violation in the radix sorter surfaces as an ordinary error
// instead of an unrecovered panic out of Read.
func (zr *Reader) untransform(buf []byte, origin, n int) (out []byte, err error) {
	defer errRecover(&err)
	return Decode(buf, origin, zr.table[:n])
}

// decodeBlock reads and decodes the next block, returning false (without
// error) if the zero-length terminator was reached.
func (zr *Reader) decodeBlock() (bool, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(zr.r, hdr[:]); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	n := int(binary.LittleEndian.Uint32(hdr[:]))
	if n == 0 {
		return false, nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(zr.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return false, err
	}

	var originBuf [4]byte
	if _, err := io.ReadFull(zr.r, originBuf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return false, err
	}
	origin := int(binary.LittleEndian.Uint32(originBuf[:]))

	if cap(zr.table) < n {
		zr.table = make([]int, n)
	}
	out, err := zr.untransform(buf, origin, n)
	if err != nil {
		return false, err
	}
	zr.output = out
	zr.start = 0
	return true, nil
}

// Close releases resources associated with the Reader. After Close, the
// Reader's underlying stream can no longer be read.
func (zr *Reader) Close() error {
	if zr.err == nil || zr.err == io.EOF || zr.err == io.ErrClosedPipe {
		zr.err = io.ErrClosedPipe
		return nil
	}
	return zr.err
}

// Read implements io.Reader.
func (zr *Reader) Read(p []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if !zr.gotHeader {
		if err := zr.readHeader(); err != nil {
			zr.err = err
			return 0, err
		}
	}

	n := 0
	for n < len(p) {
		if zr.start == len(zr.output) {
			if zr.done {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			more, err := zr.decodeBlock()
			if err != nil {
				zr.err = err
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
			if !more {
				zr.done = true
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
		}
		cnt := copy(p[n:], zr.output[zr.start:])
		zr.start += cnt
		n += cnt
	}
	return n, nil
}
