// Package zlib implements the zlib compressed data format, as specified in
// RFC 1950: a 2-byte header, a DEFLATE-compressed payload, and a 4-byte
// big-endian Adler-32 trailer over the decompressed bytes.
package zlib

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/dsnet-oss/streamcodec/adler32"
	"github.com/dsnet-oss/streamcodec/flate"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "zlib: " + string(e) }

var (
	ErrHeader   error = Error("invalid header")
	ErrChecksum error = Error("invalid checksum")
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

func toByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// Reader decodes a zlib stream, validating the header and the trailing
// Adler-32 checksum against the decompressed output.
type Reader struct {
	InputOffset  int64 // Total number of bytes read from the underlying io.Reader
	OutputOffset int64 // Total number of bytes emitted from Read

	br          byteReader
	fr          *flate.Reader
	digest      adler32.Digest
	readHeader  bool
	readTrailer bool
	err         error
}

// NewReader returns a Reader decoding a zlib stream read from r.
func NewReader(r io.Reader) *Reader {
	zr := new(Reader)
	zr.Reset(r)
	return zr
}

// Reset discards the Reader's state and starts decoding a fresh zlib
// stream read from r.
func (zr *Reader) Reset(r io.Reader) error {
	br := toByteReader(r)
	*zr = Reader{br: br, fr: zr.fr}
	if zr.fr == nil {
		zr.fr = flate.NewReader(br)
	} else {
		zr.fr.Reset(br)
	}
	zr.digest.Reset()
	return nil
}

func (zr *Reader) validateHeader() error {
	cmf, err := zr.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	flg, err := zr.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	zr.InputOffset += 2

	if cmf&0x0f != 0x08 {
		return Error("unsupported compression method")
	}
	if cmf&0xf0 != 0x70 {
		return Error("unsupported window size")
	}
	if flg&0x20 != 0 {
		return Error("preset dictionaries are not supported")
	}
	if (uint16(cmf)*256+uint16(flg))%31 != 0 {
		return ErrHeader
	}
	return nil
}

// Read implements io.Reader.
func (zr *Reader) Read(buf []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if !zr.readHeader {
		if err := zr.validateHeader(); err != nil {
			zr.err = err
			return 0, err
		}
		zr.readHeader = true
	}

	n, err := zr.fr.Read(buf)
	if n > 0 {
		zr.digest.Write(buf[:n])
		zr.OutputOffset += int64(n)
	}
	zr.InputOffset = 2 + zr.fr.InputOffset

	if err == io.EOF {
		if !zr.readTrailer {
			var trailer [4]byte
			if _, err2 := io.ReadFull(zr.br, trailer[:]); err2 != nil {
				if err2 == io.EOF {
					err2 = io.ErrUnexpectedEOF
				}
				zr.err = err2
				return n, zr.err
			}
			zr.InputOffset += 4
			zr.readTrailer = true
			if binary.BigEndian.Uint32(trailer[:]) != zr.digest.Sum32() {
				zr.err = ErrChecksum
				return n, zr.err
			}
		}
		zr.err = io.EOF
		return n, io.EOF
	}
	if err != nil {
		zr.err = err
		return n, err
	}
	return n, nil
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
