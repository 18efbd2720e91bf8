package apngenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTightBBoxOpDegenerateWhenIdentical(t *testing.T) {
	rowBytes := 2 * 4 // 2px RGBA
	cur := make([]byte, rowBytes*2)
	base := make([]byte, rowBytes*2)
	_, ok := tightBBoxOp(2, 2, rowBytes, 4, cur, base)
	assert.False(t, ok)
}

func TestTightBBoxOpExactCrop(t *testing.T) {
	width, height, bpp := 5, 5, 3
	rowBytes := width * bpp
	cur := make([]byte, rowBytes*height)
	base := make([]byte, rowBytes*height)
	// Differ only in the 2x2 block at (1,1)-(2,2).
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			cur[y*rowBytes+x*bpp] = 0xff
		}
	}
	box, ok := tightBBoxOp(width, height, rowBytes, bpp, cur, base)
	assert.True(t, ok)
	assert.Equal(t, bbox{1, 1, 2, 2}, box)
}

func TestTightBBoxOpIncludesTransparentDifferingPixels(t *testing.T) {
	// spec.md §4.7 step 1: the bbox is defined purely on foreground≠
	// background, for both blend modes alike — a transparent differing
	// pixel still forces inclusion. (Whether BlendOver can actually
	// transmit it is inverseBlendOver's concern, not the bbox's.)
	width, height, bpp := 4, 1, 4 // RGBA
	rowBytes := width * bpp
	base := make([]byte, rowBytes)
	cur := make([]byte, rowBytes)
	cur[0*bpp+0] = 10
	cur[0*bpp+3] = 255
	cur[3*bpp+0] = 10
	cur[3*bpp+3] = 0

	box, ok := tightBBoxOp(width, height, rowBytes, bpp, cur, base)
	assert.True(t, ok)
	assert.Equal(t, bbox{0, 0, 4, 1}, box)
}

func TestInverseBlendOverTransparentWhereEqual(t *testing.T) {
	rowBytes, bpp := 4, 4 // 1px RGBA
	base := []byte{5, 6, 7, 255}
	cur := make([]byte, rowBytes)
	copy(cur, base)
	out, ok := inverseBlendOver(RGBA, nil, rowBytes, bpp, cur, base, bbox{0, 0, 1, 1})
	assert.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestInverseBlendOverCopiesOpaqueForeground(t *testing.T) {
	rowBytes, bpp := 4, 4
	base := []byte{0, 0, 0, 0}
	cur := []byte{9, 9, 9, 255}
	out, ok := inverseBlendOver(RGBA, nil, rowBytes, bpp, cur, base, bbox{0, 0, 1, 1})
	assert.True(t, ok)
	assert.Equal(t, cur, out)
}

func TestInverseBlendOverCopiesOverTransparentBackground(t *testing.T) {
	rowBytes, bpp := 4, 4
	base := []byte{0, 0, 0, 0}
	cur := []byte{9, 9, 9, 128} // semi-transparent foreground, fully transparent canvas
	out, ok := inverseBlendOver(RGBA, nil, rowBytes, bpp, cur, base, bbox{0, 0, 1, 1})
	assert.True(t, ok)
	assert.Equal(t, cur, out)
}

func TestInverseBlendOverInfeasibleForPartialAlphaOverOpaque(t *testing.T) {
	rowBytes, bpp := 4, 4
	base := []byte{1, 2, 3, 255} // opaque canvas
	cur := []byte{9, 9, 9, 128}  // semi-transparent foreground: genuine blending required
	_, ok := inverseBlendOver(RGBA, nil, rowBytes, bpp, cur, base, bbox{0, 0, 1, 1})
	assert.False(t, ok)
}

func TestCanOverPAL8RequiresTransparentEntry(t *testing.T) {
	e := &Encoder{format: PAL8}
	assert.False(t, e.canOver([]uint32{0xffff0000, 0xff00ff00}))
	assert.True(t, e.canOver([]uint32{0xffff0000, 0x0000ff00}))
}

func TestApplyDisposeBackgroundZeroesRegion(t *testing.T) {
	rowBytes, bpp := 6, 3 // width 2, RGB24
	full := []byte{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}
	before := make([]byte, len(full))
	out := applyDispose(rowBytes, bpp, full, before, bbox{1, 0, 1, 1}, DisposeBackground)
	assert.Equal(t, []byte{1, 1, 1, 0, 0, 0, 3, 3, 3, 4, 4, 4}, out)
}

func TestApplyDisposePreviousRestoresPriorCanvas(t *testing.T) {
	full := []byte{9, 9, 9}
	before := []byte{1, 2, 3}
	out := applyDispose(3, 3, full, before, bbox{0, 0, 1, 1}, DisposePrevious)
	assert.Equal(t, before, out)
}
