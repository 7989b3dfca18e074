// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_ds_lib

package bench

import (
	"io"

	"github.com/dsnet-oss/streamcodec/bwt"
	"github.com/dsnet-oss/streamcodec/flate"
	"github.com/dsnet-oss/streamcodec/lz4"
)

// bwtBlockSize maps a bench "level" onto a BWT block size. There is no
// compression-level knob for this codec; level is reused as a block
// size selector so the existing -levels flag still drives something
// meaningful (bigger blocks find more distant repeats, at the cost of
// sort time).
func bwtBlockSize(lvl int) int {
	switch {
	case lvl <= 0:
		return 1 << 16
	default:
		return lvl * (1 << 16)
	}
}

// lz4BlockSize maps a bench "level" onto one of the frame format's
// cataloged max block sizes.
func lz4BlockSize(lvl int) int {
	switch {
	case lvl <= 1:
		return 64 << 10
	case lvl == 2:
		return 256 << 10
	default:
		return 1 << 20
	}
}

func init() {
	RegisterDecoder(FormatDeflate, "streamcodec",
		func(r io.Reader) io.ReadCloser {
			return flate.NewReader(r)
		})

	RegisterEncoder(FormatBWT, "streamcodec",
		func(w io.Writer, lvl int) io.WriteCloser {
			return bwt.NewWriter(w, bwtBlockSize(lvl))
		})
	RegisterDecoder(FormatBWT, "streamcodec",
		func(r io.Reader) io.ReadCloser {
			return bwt.NewReader(r)
		})

	RegisterEncoder(FormatLZ4, "streamcodec",
		func(w io.Writer, lvl int) io.WriteCloser {
			return lz4.NewWriter(w, lz4BlockSize(lvl))
		})
	RegisterDecoder(FormatLZ4, "streamcodec",
		func(r io.Reader) io.ReadCloser {
			return lz4.NewReader(r)
		})
}
