package apngenc

import "encoding/binary"

type apngPhase int

const (
	apngEmpty apngPhase = iota
	apngPending
)

// apngState is the one-frame-delay APNG driver's state (C8, spec.md §4.8).
// A submitted frame is never encoded immediately: its dispose_op can only
// be chosen once the following frame is known, since dispose_op determines
// the canvas that frame is composited onto. So the encoder always holds one
// undecided frame back, keyed by phase.
type apngState struct {
	phase apngPhase
	seq   uint32

	havePaletteCRC bool
	paletteCRC     uint32

	emittedFirst bool

	canvasBeforePending []byte
	pendingFull         []byte
	pendingPixels       []byte // box-cropped, stride=pendingBox.w*bpp: what emitPending actually transmits
	pendingPalette      []uint32
	pendingBox          bbox
	pendingBlend        BlendOp
	pendingDelayNum     uint16
	pendingDelayDen     uint16
}

// EncodeAPNG submits one frame to the pipeline and returns the packet for
// whichever EARLIER frame its submission just finalized (nil on the very
// first call, since there is nothing to finalize yet). extradata — the
// PNG signature plus the static header chunks (IHDR, pHYs, and any of
// sTER/sRGB/cHRM/gAMA/PLTE/tRNS that apply) — is returned once, alongside
// the first packet. acTL and IEND are the caller's concern: this encoder
// never has enough information to know the final frame count or when the
// stream ends without an explicit Flush.
func (e *Encoder) EncodeAPNG(frame *Frame, delayNum, delayDen uint16) (packet []byte, extradata []byte, err error) {
	if e.apng == nil {
		return nil, nil, wrap(&ConfigError{Msg: "EncodeAPNG called on a non-APNG encoder"})
	}
	if err := e.validateFrame(frame); err != nil {
		return nil, nil, wrap(err)
	}

	info, _ := e.format.info()
	if info.colourType == colourPaletted {
		crc := frame.paletteChecksum()
		if !e.apng.havePaletteCRC {
			e.apng.paletteCRC = crc
			e.apng.havePaletteCRC = true
		} else if crc != e.apng.paletteCRC {
			e.logf("apng palette changed after first frame", "crc", crc, "want", e.apng.paletteCRC)
			return nil, nil, stateErrorf("apng: palette must not change across frames")
		}
	}

	rowBytes := e.format.rowBytes(e.width)
	full := flatten(frame, rowBytes, e.height)

	if e.apng.phase == apngEmpty {
		e.apng.canvasBeforePending = make([]byte, len(full))
		e.apng.pendingFull = full
		e.apng.pendingPixels = full
		e.apng.pendingPalette = frame.Palette
		e.apng.pendingBox = fullBBox(e.width, e.height)
		e.apng.pendingBlend = BlendSource
		e.apng.pendingDelayNum = delayNum
		e.apng.pendingDelayDen = delayDen
		e.apng.phase = apngPending
		return nil, nil, nil
	}

	cand, err := e.decideDispose(e.apng.pendingFull, e.apng.canvasBeforePending, e.apng.pendingBox, frame)
	if err != nil {
		return nil, nil, wrap(err)
	}

	packet, extradata, err = e.emitPending(cand.dispose)
	if err != nil {
		return nil, nil, wrap(err)
	}

	e.apng.canvasBeforePending = cand.canvas
	e.apng.pendingFull = full
	e.apng.pendingPixels = cand.pixels
	e.apng.pendingPalette = frame.Palette
	e.apng.pendingBox = cand.box
	e.apng.pendingBlend = cand.blend
	e.apng.pendingDelayNum = delayNum
	e.apng.pendingDelayDen = delayDen
	return packet, extradata, nil
}

// Flush finalizes and returns the packet for the last buffered frame, using
// DisposeNone since there is no successor frame left to optimize against.
// Call once after the final EncodeAPNG call; returns a nil packet once
// nothing is left to flush.
func (e *Encoder) Flush() ([]byte, []byte, error) {
	if e.apng == nil || e.apng.phase == apngEmpty {
		return nil, nil, nil
	}
	packet, extradata, err := e.emitPending(DisposeNone)
	if err != nil {
		return nil, nil, wrap(err)
	}
	e.apng.phase = apngEmpty
	return packet, extradata, nil
}

// buildExtradata emits the signature and every static header chunk once,
// derived from the first frame's geometry, colour configuration, and (for
// PAL8) palette.
func (e *Encoder) buildExtradata() ([]byte, error) {
	buf := make([]byte, packetHeadroom)
	c := newCursor(buf)
	if err := c.writeSignature(); err != nil {
		return nil, err
	}
	frame := &Frame{
		Pix:     e.apng.pendingFull,
		Stride:  e.format.rowBytes(e.width),
		Palette: e.apng.pendingPalette,
	}
	if err := e.writeHeaders(c, frame); err != nil {
		return nil, err
	}
	return c.bytes(), nil
}

// writeFCTL emits one fcTL chunk and advances the shared sequence-number
// counter (spec.md §4.8): fcTL and fdAT share one monotonic sequence space.
func (e *Encoder) writeFCTL(c *cursor, box bbox, blend BlendOp, dispose DisposeOp, delayNum, delayDen uint16) error {
	var buf [26]byte
	binary.BigEndian.PutUint32(buf[0:4], e.apng.seq)
	e.apng.seq++
	binary.BigEndian.PutUint32(buf[4:8], uint32(box.w))
	binary.BigEndian.PutUint32(buf[8:12], uint32(box.h))
	binary.BigEndian.PutUint32(buf[12:16], uint32(box.x))
	binary.BigEndian.PutUint32(buf[16:20], uint32(box.y))
	binary.BigEndian.PutUint16(buf[20:22], delayNum)
	binary.BigEndian.PutUint16(buf[22:24], delayDen)
	buf[24] = byte(dispose)
	buf[25] = byte(blend)
	return c.writeChunk("fcTL", buf[:])
}

// emitPending encodes the currently-pending frame (now finalized with
// dispose) into one packet: an fcTL chunk followed by its image data, as
// IDAT for the very first frame of the stream or fdAT (sequence-numbered)
// for every frame after.
func (e *Encoder) emitPending(dispose DisposeOp) (packet []byte, extradata []byte, err error) {
	isFirst := !e.apng.emittedFirst
	if isFirst {
		extradata, err = e.buildExtradata()
		if err != nil {
			return nil, nil, err
		}
	}

	packetSize, err := e.maxPacketSize()
	if err != nil {
		return nil, nil, err
	}
	packetSize += chunkOverhead + 26 + e.height*4
	buf := make([]byte, packetSize)
	c := newCursor(buf)

	if err := e.writeFCTL(c, e.apng.pendingBox, e.apng.pendingBlend, dispose, e.apng.pendingDelayNum, e.apng.pendingDelayDen); err != nil {
		return nil, nil, err
	}

	bpp := e.format.bytesPerPixel()
	chunkType := "fdAT"
	if isFirst {
		chunkType = "IDAT"
	}
	stride := e.apng.pendingBox.w * bpp
	getRow := func(y int) []byte {
		return e.apng.pendingPixels[y*stride : (y+1)*stride]
	}
	emit := func(payload []byte) error {
		if isFirst {
			return c.writeChunk(chunkType, payload)
		}
		seqPayload := make([]byte, 4+len(payload))
		binary.BigEndian.PutUint32(seqPayload, e.apng.seq)
		e.apng.seq++
		copy(seqPayload[4:], payload)
		return c.writeChunk(chunkType, seqPayload)
	}
	if err := e.encodeRows(getRow, e.apng.pendingBox.w, e.apng.pendingBox.h, emit); err != nil {
		return nil, nil, err
	}
	e.apng.emittedFirst = true
	return c.bytes(), extradata, nil
}
