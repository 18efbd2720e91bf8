// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apngenc

import "math"

// packetHeadroom is a conservative allowance for every fixed-size chunk a
// packet might carry ahead of image data (signature, IHDR, pHYs, sTER,
// sRGB, cHRM, gAMA, PLTE, tRNS, IEND, and one fcTL for APNG frames), plus
// slack for the caller's extradata bookkeeping.
const packetHeadroom = 2048

func intCeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// maxPacketSize computes the worst-case packet size for one frame, per
// spec.md §4.6 step 1: HEADROOM + H × (deflateBound(row_bytes) + chunk
// framing overhead for however many 4 KiB buffers that bound could span).
// Interlaced encodings are bounded by scaling per-row overhead by the
// number of Adam7 passes, since interlacing can only add filter-byte and
// chunk-framing overhead relative to the non-interlaced case, never reduce
// the pixel count encoded.
func (e *Encoder) maxPacketSize() (int, error) {
	rowBytes := e.format.rowBytes(e.width)
	bound := deflateBound(rowBytes + 1)
	perRow := bound + chunkOverhead*intCeilDiv(bound, 4096)
	if e.interlace {
		perRow *= nPasses
	}
	total := packetHeadroom + e.height*perRow
	if total <= 0 || total > math.MaxInt32 {
		return 0, codecErrorf("worst-case packet size exceeds limit")
	}
	return total, nil
}

func (e *Encoder) validateFrame(frame *Frame) error {
	if frame == nil {
		return configErrorf("frame is nil")
	}
	rowBytes := e.format.rowBytes(e.width)
	if frame.Stride < rowBytes {
		return configErrorf("frame stride too small for width/pixel format")
	}
	need := frame.Stride*(e.height-1) + rowBytes
	if len(frame.Pix) < need {
		return configErrorf("frame pixel buffer too small")
	}
	info, _ := e.format.info()
	if info.colourType == colourPaletted {
		if len(frame.Palette) < 1 || len(frame.Palette) > 256 {
			return configErrorf("palette must have between 1 and 256 entries")
		}
	}
	return nil
}

// encodeRows runs the row-filter/interlace/DEFLATE pipeline (C2+C3+C4) over
// a width×height raster whose rows are supplied by getRow, emitting
// compressed output in up-to-4KiB buffers via emit. This is shared by the
// still-image driver (C6), the APNG driver (C8), and the inter-frame
// optimizer's trial encodes (C7).
func (e *Encoder) encodeRows(getRow func(y int) []byte, width, height int, emit func([]byte) error) error {
	bpp := e.format.bytesPerPixel()
	bitsPerPixel := 0
	if info, ok := e.format.info(); ok {
		bitsPerPixel = info.bitsPerPixel
	}
	monochrome := e.format.isMonochrome()

	if err := e.deflate.begin(emit); err != nil {
		return err
	}

	if !e.interlace {
		rowBytes := e.format.rowBytes(width)
		resetRowBuffers(&e.cr, &e.pr, rowBytes)
		var pr []byte
		for y := 0; y < height; y++ {
			copy(e.cr[ftNone][1:], getRow(y))
			f := filterRow(&e.cr, pr, bpp, e.filter, monochrome)
			if err := e.deflate.writeRow(e.cr[f]); err != nil {
				return err
			}
			e.pr, e.cr[ftNone] = e.cr[ftNone], e.pr
			pr = e.pr
		}
		return e.deflate.end()
	}

	for pass := 0; pass < nPasses; pass++ {
		passBytes := passRowSize(pass, bitsPerPixel, width)
		if passBytes == 0 {
			continue
		}
		resetRowBuffers(&e.cr, &e.pr, passBytes)
		for i := range e.interlaceBuf {
			if cap(e.interlaceBuf[i]) < passBytes {
				e.interlaceBuf[i] = make([]byte, passBytes)
			} else {
				e.interlaceBuf[i] = e.interlaceBuf[i][:passBytes]
			}
		}
		var pr []byte
		slot := 0
		for y := 0; y < height; y++ {
			if !passIncludesRow(pass, y) {
				continue
			}
			src := getRow(y)
			dst := e.interlaceBuf[slot%2]
			if monochrome {
				getInterlacedRowBits(dst, src, pass, width)
			} else {
				getInterlacedRow(dst, src, pass, bpp, width)
			}
			copy(e.cr[ftNone][1:], dst)
			f := filterRow(&e.cr, pr, bpp, e.filter, monochrome)
			if err := e.deflate.writeRow(e.cr[f]); err != nil {
				return err
			}
			e.pr, e.cr[ftNone] = e.cr[ftNone], e.pr
			pr = e.pr
			slot++
		}
	}
	return e.deflate.end()
}

// EncodePNG encodes one frame into a complete, self-contained PNG packet:
// signature, headers, image data, IEND (spec.md §4.6).
func (e *Encoder) EncodePNG(frame *Frame) ([]byte, error) {
	if e.apng != nil {
		return nil, wrap(&ConfigError{Msg: "EncodePNG called on an APNG encoder; use EncodeAPNG"})
	}
	if err := e.validateFrame(frame); err != nil {
		return nil, wrap(err)
	}
	packetSize, err := e.maxPacketSize()
	if err != nil {
		return nil, wrap(err)
	}
	buf := make([]byte, packetSize)
	c := newCursor(buf)

	if err := c.writeSignature(); err != nil {
		return nil, wrap(err)
	}
	if err := e.writeHeaders(c, frame); err != nil {
		return nil, wrap(err)
	}
	rowBytes := e.format.rowBytes(e.width)
	if err := e.encodeRows(func(y int) []byte {
		return frame.row(y, rowBytes)
	}, e.width, e.height, func(payload []byte) error {
		return c.writeChunk("IDAT", payload)
	}); err != nil {
		return nil, wrap(err)
	}
	if err := c.writeChunk("IEND", nil); err != nil {
		return nil, wrap(err)
	}
	return c.bytes(), nil
}
