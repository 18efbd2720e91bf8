// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apngenc

import (
	"encoding/binary"
	"math"
)

// chromaticity is an (x, y) CIE 1931 point, stored pre-scale; cHRM values are
// round(v * 100000).
type chromaticity struct{ x, y float64 }

type primariesTable struct {
	white, red, green, blue chromaticity
}

var d65White = chromaticity{0.3127, 0.3290}

var primariesTables = map[ColourPrimaries]primariesTable{
	PrimariesBT709: {
		white: d65White,
		red:   chromaticity{0.640, 0.330},
		green: chromaticity{0.300, 0.600},
		blue:  chromaticity{0.150, 0.060},
	},
	PrimariesBT470M: {
		white: chromaticity{0.310, 0.316},
		red:   chromaticity{0.670, 0.330},
		green: chromaticity{0.210, 0.710},
		blue:  chromaticity{0.140, 0.080},
	},
	PrimariesBT470BG: {
		white: d65White,
		red:   chromaticity{0.640, 0.330},
		green: chromaticity{0.290, 0.600},
		blue:  chromaticity{0.150, 0.060},
	},
	PrimariesSMPTE170M: {
		white: d65White,
		red:   chromaticity{0.630, 0.340},
		green: chromaticity{0.310, 0.595},
		blue:  chromaticity{0.155, 0.070},
	},
	PrimariesSMPTE240M: {
		white: d65White,
		red:   chromaticity{0.630, 0.340},
		green: chromaticity{0.310, 0.595},
		blue:  chromaticity{0.155, 0.070},
	},
	PrimariesBT2020: {
		white: d65White,
		red:   chromaticity{0.708, 0.292},
		green: chromaticity{0.170, 0.797},
		blue:  chromaticity{0.131, 0.046},
	},
}

func scaleChroma(v float64) uint32 {
	return uint32(math.Round(v * 100000))
}

// writeHeaders emits IHDR, pHYs, and the optional sTER/sRGB/cHRM/gAMA
// chunks, in that order, per spec.md §4.5.
func (e *Encoder) writeHeaders(c *cursor, frame *Frame) error {
	if err := e.writeIHDR(c); err != nil {
		return err
	}
	if err := e.writePHYS(c); err != nil {
		return err
	}
	if err := e.writeSTER(c); err != nil {
		return err
	}
	if err := e.writeSRGB(c); err != nil {
		return err
	}
	if err := e.writeCHRM(c); err != nil {
		return err
	}
	if err := e.writeGAMA(c); err != nil {
		return err
	}
	info, _ := e.format.info()
	if info.colourType == colourPaletted {
		if err := e.writePLTEAndTRNS(c, frame); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeIHDR(c *cursor) error {
	info, ok := e.format.info()
	if !ok {
		return configErrorf("unsupported pixel format")
	}
	var buf [13]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(e.width))
	binary.BigEndian.PutUint32(buf[4:8], uint32(e.height))
	buf[8] = info.bitDepth
	buf[9] = info.colourType
	buf[10] = 0 // compression method: deflate
	buf[11] = 0 // filter method: adaptive
	if e.interlace {
		buf[12] = 1
	}
	return c.writeChunk("IHDR", buf[:])
}

func (e *Encoder) writePHYS(c *cursor) error {
	var buf [9]byte
	if e.dpm != 0 {
		binary.BigEndian.PutUint32(buf[0:4], e.dpm)
		binary.BigEndian.PutUint32(buf[4:8], e.dpm)
		buf[8] = 1
	} else if e.dpi != 0 {
		ppm := uint32(math.Round(float64(e.dpi) / 0.0254))
		binary.BigEndian.PutUint32(buf[0:4], ppm)
		binary.BigEndian.PutUint32(buf[4:8], ppm)
		buf[8] = 1
	} else {
		binary.BigEndian.PutUint32(buf[0:4], e.sarNum)
		binary.BigEndian.PutUint32(buf[4:8], e.sarDen)
		buf[8] = 0
	}
	return c.writeChunk("pHYs", buf[:])
}

func (e *Encoder) writeSTER(c *cursor) error {
	if e.stereo != Stereo3DSideBySide {
		return nil
	}
	var buf [1]byte
	if e.stereoFlip {
		buf[0] = 1
	}
	return c.writeChunk("sTER", buf[:])
}

func (e *Encoder) writeSRGB(c *cursor) error {
	if e.primaries != PrimariesBT709 || e.transfer != TransferIEC61966_2_1 {
		return nil
	}
	buf := [1]byte{1} // rendering intent: relative colorimetric
	return c.writeChunk("sRGB", buf[:])
}

func (e *Encoder) writeCHRM(c *cursor) error {
	table, ok := primariesTables[e.primaries]
	if !ok {
		return nil
	}
	var buf [32]byte
	binary.BigEndian.PutUint32(buf[0:4], scaleChroma(table.white.x))
	binary.BigEndian.PutUint32(buf[4:8], scaleChroma(table.white.y))
	binary.BigEndian.PutUint32(buf[8:12], scaleChroma(table.red.x))
	binary.BigEndian.PutUint32(buf[12:16], scaleChroma(table.red.y))
	binary.BigEndian.PutUint32(buf[16:20], scaleChroma(table.green.x))
	binary.BigEndian.PutUint32(buf[20:24], scaleChroma(table.green.y))
	binary.BigEndian.PutUint32(buf[24:28], scaleChroma(table.blue.x))
	binary.BigEndian.PutUint32(buf[28:32], scaleChroma(table.blue.y))
	return c.writeChunk("cHRM", buf[:])
}

func (e *Encoder) writeGAMA(c *cursor) error {
	gamma := e.transfer.gamma()
	if gamma <= 0 {
		return nil
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(math.Round((1/gamma)*100000)))
	return c.writeChunk("gAMA", buf[:])
}

// writePLTEAndTRNS emits PLTE (RGB triples) and, if any palette entry is not
// fully opaque, tRNS (alpha bytes up to the last non-opaque entry), per
// spec.md §4.5.
func (e *Encoder) writePLTEAndTRNS(c *cursor, frame *Frame) error {
	n := len(frame.Palette)
	if n < 1 || n > 256 {
		return configErrorf("bad palette length")
	}
	plte := make([]byte, 3*n)
	alpha := make([]byte, n)
	last := -1
	for i, col := range frame.Palette {
		a := byte(col >> 24)
		r := byte(col >> 16)
		g := byte(col >> 8)
		b := byte(col)
		plte[3*i+0] = r
		plte[3*i+1] = g
		plte[3*i+2] = b
		alpha[i] = a
		if a != 0xff {
			last = i
		}
	}
	if err := c.writeChunk("PLTE", plte); err != nil {
		return err
	}
	if last != -1 {
		if err := c.writeChunk("tRNS", alpha[:last+1]); err != nil {
			return err
		}
	}
	return nil
}
