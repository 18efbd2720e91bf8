// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apngenc

import "github.com/klauspost/compress/zlib"

// chunkSink accumulates zlib-stream output into a fixed 4 KiB buffer and
// emits it via emit whenever the buffer fills, per spec.md §4.4. This stands
// in for the abstract "avail_in/avail_out" streaming deflate collaborator
// the spec treats as external: klauspost/compress/zlib.Writer plays that
// role, and chunkSink plays the role of its bounded output buffer.
type chunkSink struct {
	buf  [4096]byte
	n    int
	emit func(payload []byte) error
	err  error
}

func (s *chunkSink) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if s.err != nil {
			return written, s.err
		}
		space := len(s.buf) - s.n
		k := len(p)
		if k > space {
			k = space
		}
		copy(s.buf[s.n:], p[:k])
		s.n += k
		p = p[k:]
		written += k
		if s.n == len(s.buf) {
			if err := s.emit(s.buf[:s.n]); err != nil {
				s.err = err
				return written, err
			}
			s.n = 0
		}
	}
	return written, nil
}

func (s *chunkSink) flushRemainder() error {
	if s.err != nil {
		return s.err
	}
	if s.n == 0 {
		return nil
	}
	err := s.emit(s.buf[:s.n])
	s.n = 0
	return err
}

// deflateStream is the compression pipe (C4): it owns a streaming zlib
// writer (RFC 1950: 2-byte header, DEFLATE body, Adler-32 trailer) over a
// chunkSink and is reset (never destroyed) at each frame boundary, per
// spec.md §3's invariant. PNG's IDAT/fdAT payload is a zlib datastream, not
// raw DEFLATE (spec.md §4.4's windowBits=15 is the zlib-wrapped setting) —
// a raw-DEFLATE payload fails every conforming decoder's "invalid header"
// check before a single pixel is read.
type deflateStream struct {
	level CompressionLevel
	zw    *zlib.Writer
	sink  *chunkSink
}

func newDeflateStream(level CompressionLevel) *deflateStream {
	return &deflateStream{level: level}
}

func flateLevel(level CompressionLevel) int {
	if level == DefaultCompression {
		return zlib.DefaultCompression
	}
	return int(level)
}

// begin starts (or resets) the stream for one frame, draining full buffers
// to emit as they fill.
func (d *deflateStream) begin(emit func(payload []byte) error) error {
	if d.sink == nil {
		d.sink = &chunkSink{}
	}
	d.sink.n = 0
	d.sink.err = nil
	d.sink.emit = emit

	if d.zw == nil {
		zw, err := zlib.NewWriterLevel(d.sink, flateLevel(d.level))
		if err != nil {
			return codecErrorf(err.Error())
		}
		d.zw = zw
	} else {
		d.zw.Reset(d.sink)
	}
	return nil
}

func (d *deflateStream) writeRow(row []byte) error {
	if _, err := d.zw.Write(row); err != nil {
		return codecErrorf(err.Error())
	}
	return nil
}

// end flushes and closes the DEFLATE stream (end-of-stream on the frame
// boundary) and drains any residual bytes, per spec.md §4.4.
func (d *deflateStream) end() error {
	if err := d.zw.Close(); err != nil {
		return codecErrorf(err.Error())
	}
	return d.sink.flushRemainder()
}

// deflateBound estimates the worst-case compressed size of n bytes of input,
// the standard zlib deflateBound formula, used for packet pre-sizing
// (spec.md §4.6 step 1).
func deflateBound(n int) int {
	return n + n>>12 + n>>14 + n>>25 + 13
}
