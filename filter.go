// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apngenc

import "github.com/shutej/apngenc/internal/bytediff"

// PNG filter type tags, per the PNG spec.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
	nFilter   = 5
)

// abs8 is the absolute value of a byte interpreted as a signed int8;
// used by the mixed-filter cost heuristic (sum of absolute values).
func abs8(d uint8) int {
	if d < 128 {
		return int(d)
	}
	return 256 - int(d)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// paethPredictor returns whichever of a, b, c minimises the distance to
// p = a+b-c, tie-breaking a < b < c (spec.md §4.2).
func paethPredictor(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa := absInt(p - int(a))
	pb := absInt(p - int(b))
	pc := absInt(p - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func buildSub(dst, src []byte, bpp int) {
	n := len(src)
	copy(dst[:bpp], src[:bpp])
	if n > bpp {
		bytediff.Diff(dst[bpp:n], src[bpp:n], src[:n-bpp])
	}
}

func buildUp(dst, src, top []byte) {
	bytediff.Diff(dst, src, top)
}

// buildAverage: dst[i] = src[i] - floor((left+top)/2); left=0 for the first
// bpp bytes, so the subtrahend collapses to top[i]>>1.
func buildAverage(dst, src, top []byte, bpp int) {
	n := len(src)
	for i := 0; i < bpp && i < n; i++ {
		dst[i] = src[i] - top[i]>>1
	}
	for i := bpp; i < n; i++ {
		dst[i] = src[i] - uint8((int(src[i-bpp])+int(top[i]))/2)
	}
}

// buildPaeth: dst[i] = src[i] - P(a,b,c); a=c=0 for the first bpp bytes, so
// the predictor collapses to top[i].
func buildPaeth(dst, src, top []byte, bpp int) {
	n := len(src)
	for i := 0; i < bpp && i < n; i++ {
		dst[i] = src[i] - top[i]
	}
	for i := bpp; i < n; i++ {
		dst[i] = src[i] - paethPredictor(src[i-bpp], top[i], top[i-bpp])
	}
}

// scoreRow sums abs8 over the whole row including the leading filter-type
// byte, which participates in the cost per spec.md §4.2.
func scoreRow(row []byte) int {
	sum := abs8(row[0])
	for _, b := range row[1:] {
		sum += abs8(b)
	}
	return sum
}

// filterRow chooses and applies a row filter. cr[ftNone][1:] must already
// hold the row's raw, unfiltered bytes; filterRow fills whichever of
// cr[ftSub..ftPaeth] the strategy needs and returns the winning index into
// cr. pr is the previous row's raw bytes (cr[ftNone] from the prior call),
// or nil if this is the first row of the image/pass.
func filterRow(cr *[nFilter][]byte, pr []byte, bpp int, strategy FilterStrategy, monochrome bool) int {
	if monochrome {
		return ftNone
	}
	src := cr[ftNone][1:]

	effective := strategy
	if pr == nil && effective != FilterNone {
		// No previous row to reference: downgrade any top-referencing
		// filter to Sub, per spec.md §4.2.
		effective = FilterSub
	}

	switch effective {
	case FilterNone:
		return ftNone
	case FilterSub:
		buildSub(cr[ftSub][1:], src, bpp)
		return ftSub
	case FilterUp:
		buildUp(cr[ftUp][1:], src, pr[1:])
		return ftUp
	case FilterAverage:
		buildAverage(cr[ftAverage][1:], src, pr[1:], bpp)
		return ftAverage
	case FilterPaeth:
		buildPaeth(cr[ftPaeth][1:], src, pr[1:], bpp)
		return ftPaeth
	case FilterMixed:
		top := pr[1:]
		buildSub(cr[ftSub][1:], src, bpp)
		buildUp(cr[ftUp][1:], src, top)
		buildAverage(cr[ftAverage][1:], src, top, bpp)
		buildPaeth(cr[ftPaeth][1:], src, top, bpp)

		// Trial order Up, Paeth, None, Sub, Average mirrors the
		// teacher's util.go; a strictly lower score wins, so ties
		// favor the earlier-tried filter (see DESIGN.md).
		order := [nFilter]int{ftUp, ftPaeth, ftNone, ftSub, ftAverage}
		best := order[0]
		bestScore := scoreRow(cr[best])
		for _, f := range order[1:] {
			s := scoreRow(cr[f])
			if s < bestScore {
				bestScore = s
				best = f
			}
		}
		return best
	default:
		return ftNone
	}
}

// resetRowBuffers (re)sizes cr and pr for a row of size bytes (excluding the
// leading filter-type byte) and tags each cr[i][0] with its filter id.
func resetRowBuffers(cr *[nFilter][]byte, pr *[]byte, size int) {
	for i := range cr {
		if cap(cr[i]) < size+1 {
			cr[i] = make([]byte, size+1)
		} else {
			cr[i] = cr[i][:size+1]
		}
		cr[i][0] = byte(i)
	}
	if cap(*pr) < size+1 {
		*pr = make([]byte, size+1)
	} else {
		*pr = (*pr)[:size+1]
	}
}
