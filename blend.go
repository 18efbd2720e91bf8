package apngenc

// DisposeOp is the APNG fcTL dispose_op: what happens to the frame's region
// of the canvas after it has been displayed, before the next frame is
// composited (spec.md §4.8).
type DisposeOp uint8

const (
	DisposeNone DisposeOp = iota
	DisposeBackground
	DisposePrevious
)

// BlendOp is the APNG fcTL blend_op: how a frame's region is combined with
// the canvas beneath it.
type BlendOp uint8

const (
	BlendSource BlendOp = iota
	BlendOver
)

type bbox struct{ x, y, w, h int }

func fullBBox(width, height int) bbox { return bbox{0, 0, width, height} }

func flatten(frame *Frame, rowBytes, height int) []byte {
	out := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], frame.row(y, rowBytes))
	}
	return out
}

func pixelsEqual(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// pixelTransparent reports whether px (one pixel, bpp bytes) is blend-
// neutral under BlendOver: a zero alpha channel, or, for PAL8, an index
// whose palette entry has zero alpha.
func pixelTransparent(format PixelFormat, palette []uint32, px []byte) bool {
	switch format {
	case RGBA:
		return px[3] == 0
	case RGBA64BE:
		return px[6] == 0 && px[7] == 0
	case GRAY8A:
		return px[1] == 0
	case YA16BE:
		return px[2] == 0 && px[3] == 0
	case PAL8:
		idx := int(px[0])
		if idx >= 0 && idx < len(palette) {
			return byte(palette[idx]>>24) == 0
		}
	}
	return false
}

// pixelOpaque reports whether px (one pixel, bpp bytes) is fully opaque: no
// alpha channel at all, a maxed alpha channel, or, for PAL8, an index whose
// palette entry has a maxed alpha.
func pixelOpaque(format PixelFormat, palette []uint32, px []byte) bool {
	switch format {
	case RGBA:
		return px[3] == 0xff
	case RGBA64BE:
		return px[6] == 0xff && px[7] == 0xff
	case GRAY8A:
		return px[1] == 0xff
	case YA16BE:
		return px[2] == 0xff && px[3] == 0xff
	case PAL8:
		idx := int(px[0])
		return idx >= 0 && idx < len(palette) && byte(palette[idx]>>24) == 0xff
	}
	return true
}

// canOver reports whether BlendOver is representable for this encoder's
// pixel format: a true alpha channel, or a PAL8 palette with at least one
// transparent entry (spec.md §4.8's PAL8 special case).
func (e *Encoder) canOver(palette []uint32) bool {
	if e.format.hasAlpha() {
		return true
	}
	if e.format != PAL8 {
		return false
	}
	for _, c := range palette {
		if byte(c>>24) == 0 {
			return true
		}
	}
	return false
}

// tightBBoxOp returns the minimal rectangle enclosing every pixel where cur
// differs from base, and ok=false if every pixel already matches (the frame
// is redundant with its predecessor). spec.md §4.7 step 1 defines this bbox
// purely on foreground≠background, for both BlendSource and BlendOver alike:
// whether a differing pixel can actually be transmitted under BlendOver is a
// separate feasibility question, decided per-pixel by inverseBlendOver, not
// by shrinking the bbox up front.
func tightBBoxOp(width, height, rowBytes, bpp int, cur, base []byte) (bbox, bool) {
	minX, minY, maxX, maxY := width, height, -1, -1
	for y := 0; y < height; y++ {
		curRow := cur[y*rowBytes : (y+1)*rowBytes]
		baseRow := base[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < width; x++ {
			cp := curRow[x*bpp : x*bpp+bpp]
			if pixelsEqual(cp, baseRow[x*bpp:x*bpp+bpp]) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return bbox{}, false
	}
	return bbox{minX, minY, maxX - minX + 1, maxY - minY + 1}, true
}

// inverseBlendOver computes the sub-image that must be transmitted under
// BlendOver so a decoder's compositing against base reconstructs cur exactly
// within box (spec.md §4.7 step 2): a pixel where cur==base is encoded fully
// transparent, since compositing a transparent source over any background is
// a no-op that reproduces the background (here, the desired pixel). A
// differing pixel is transmitted as an exact copy, which only reconstructs
// correctly when that copy alone determines the composited result — the
// source is fully opaque (so it overwrites whatever is beneath it) or the
// canvas pixel beneath it is fully transparent (so it contributes nothing).
// ok is false the moment a differing pixel satisfies neither: BlendOver
// cannot represent this frame over this canvas, and the combination must be
// rejected rather than silently emitting a pixel that won't round-trip.
func inverseBlendOver(format PixelFormat, palette []uint32, rowBytes, bpp int, cur, base []byte, box bbox) ([]byte, bool) {
	// For PAL8 the fully transparent pixel is the first zero-alpha palette
	// index, which canOver guarantees exists.
	var clearIdx byte
	if format == PAL8 {
		for i, c := range palette {
			if byte(c>>24) == 0 {
				clearIdx = byte(i)
				break
			}
		}
	}
	stride := box.w * bpp
	out := make([]byte, stride*box.h)
	for y := 0; y < box.h; y++ {
		curRow := cur[(box.y+y)*rowBytes : (box.y+y+1)*rowBytes]
		baseRow := base[(box.y+y)*rowBytes : (box.y+y+1)*rowBytes]
		dstRow := out[y*stride : (y+1)*stride]
		for x := 0; x < box.w; x++ {
			cp := curRow[(box.x+x)*bpp : (box.x+x+1)*bpp]
			bp := baseRow[(box.x+x)*bpp : (box.x+x+1)*bpp]
			if pixelsEqual(cp, bp) {
				if format == PAL8 {
					dstRow[x] = clearIdx
				}
				continue // otherwise left zeroed: fully transparent, a no-op over base
			}
			if !pixelOpaque(format, palette, cp) && !pixelTransparent(format, palette, bp) {
				return nil, false
			}
			copy(dstRow[x*bpp:(x+1)*bpp], cp)
		}
	}
	return out, true
}

func zeroRegion(buf []byte, rowBytes, bpp int, box bbox) {
	for y := box.y; y < box.y+box.h; y++ {
		row := buf[y*rowBytes : (y+1)*rowBytes]
		for x := box.x; x < box.x+box.w; x++ {
			for i := 0; i < bpp; i++ {
				row[x*bpp+i] = 0
			}
		}
	}
}

// applyDispose returns the full-canvas raster left behind once a frame
// drawn in box (on top of canvasBefore) has been displayed and then
// disposed per d. frameFull is the frame's complete displayed content.
func applyDispose(rowBytes, bpp int, frameFull, canvasBefore []byte, box bbox, d DisposeOp) []byte {
	switch d {
	case DisposeBackground:
		out := make([]byte, len(frameFull))
		copy(out, frameFull)
		zeroRegion(out, rowBytes, bpp, box)
		return out
	case DisposePrevious:
		out := make([]byte, len(canvasBefore))
		copy(out, canvasBefore)
		return out
	default: // DisposeNone
		out := make([]byte, len(frameFull))
		copy(out, frameFull)
		return out
	}
}

// trialEncodeSize runs the image-data pipeline over a raster without ever
// materializing a packet, just summing what the emitted chunks would cost,
// used to score bbox/blend/dispose candidates by actual post-compression
// size rather than raw pixel count.
func (e *Encoder) trialEncodeSize(getRow func(y int) []byte, width, height int) (int, error) {
	total := 0
	err := e.encodeRows(getRow, width, height, func(payload []byte) error {
		total += len(payload) + chunkOverhead
		return nil
	})
	return total, err
}

func cropRow(full []byte, rowBytes, bpp int, box bbox, y int) []byte {
	row := full[(box.y+y)*rowBytes : (box.y+y+1)*rowBytes]
	return row[box.x*bpp : (box.x+box.w)*bpp]
}

// disposeCandidate is one (dispose, blend, bbox) trial and its outcome.
type disposeCandidate struct {
	dispose DisposeOp
	blend   BlendOp
	box     bbox
	canvas  []byte // canvas-before-next, i.e. after pending is disposed
	cost    int
	// pixels is the box-cropped, stride=box.w*bpp raster to actually
	// transmit for this candidate: a plain crop of next under BlendSource,
	// or inverseBlendOver's reconstructed sub-image under BlendOver.
	pixels []byte
}

func (c *disposeCandidate) getRow(bpp int) func(y int) []byte {
	stride := c.box.w * bpp
	return func(y int) []byte {
		return c.pixels[y*stride : (y+1)*stride]
	}
}

// decideDispose searches DisposeOp(pending) × BlendOp(next) for the
// combination that minimizes next's encoded size against the resulting
// canvas, per spec.md §4.8's inverse-blend bounding-box optimizer (C7). The
// baseline (DisposeNone, BlendSource) is always evaluated first and, since
// only a strictly lower cost replaces it, wins every tie. BlendOver is only
// ever compared against when inverseBlendOver reports the combination is
// actually feasible; an infeasible BlendOver candidate is never scored, let
// alone chosen.
func (e *Encoder) decideDispose(pendingFull, canvasBeforePending []byte, pendingBox bbox, next *Frame) (disposeCandidate, error) {
	rowBytes := e.format.rowBytes(e.width)
	bpp := e.format.bytesPerPixel()
	mono := e.format.isMonochrome()
	nextFull := flatten(next, rowBytes, e.height)
	overOK := !mono && e.canOver(next.Palette)

	disposeOrder := [3]DisposeOp{DisposeNone, DisposeBackground, DisposePrevious}
	blendOrder := [2]BlendOp{BlendSource, BlendOver}

	var best disposeCandidate
	haveBest := false

	for _, d := range disposeOrder {
		canvas := applyDispose(rowBytes, bpp, pendingFull, canvasBeforePending, pendingBox, d)
		for _, b := range blendOrder {
			if b == BlendOver && !overOK {
				continue
			}
			var box bbox
			ok := true
			if mono {
				box = fullBBox(e.width, e.height)
			} else {
				box, ok = tightBBoxOp(e.width, e.height, rowBytes, bpp, nextFull, canvas)
				if !ok {
					// Frame is pixel-identical to the disposed canvas: a
					// degenerate 1x1 bbox still satisfies the decoder
					// (spec.md §8's frame2==frame1 case).
					box = bbox{0, 0, 1, 1}
				}
			}

			var pixels []byte
			if b == BlendOver {
				var feasible bool
				pixels, feasible = inverseBlendOver(e.format, next.Palette, rowBytes, bpp, nextFull, canvas, box)
				if !feasible {
					continue
				}
			} else {
				pixels = make([]byte, box.w*bpp*box.h)
				stride := box.w * bpp
				for y := 0; y < box.h; y++ {
					copy(pixels[y*stride:(y+1)*stride], cropRow(nextFull, rowBytes, bpp, box, y))
				}
			}

			cand := disposeCandidate{dispose: d, blend: b, box: box, canvas: canvas, pixels: pixels}
			cost, err := e.trialEncodeSize(cand.getRow(bpp), box.w, box.h)
			if err != nil {
				return disposeCandidate{}, err
			}
			cand.cost = cost
			if !haveBest || cost < best.cost {
				best = cand
				haveBest = true
			}
		}
	}
	return best, nil
}
