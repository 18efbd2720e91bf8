package apngenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdam7PassRowSizes(t *testing.T) {
	// An 8x8 image: pass geometry is exact (one pixel per participating
	// column, 8 bits per pixel), so pass sizes follow the classic Adam7
	// column counts {1,1,2,2,4,4,8} out of 8 total columns.
	want := []int{1, 1, 2, 2, 4, 4, 8}
	for pass := 0; pass < nPasses; pass++ {
		got := passRowSize(pass, 8, 8)
		assert.Equal(t, want[pass], got, "pass %d", pass)
	}
}

func TestAdam7SmallImageStarvesLaterPasses(t *testing.T) {
	// A 1x1 image only ever has column 0 and row 0, which belong together
	// only to pass 0. passRowSize looks at columns alone, so passes 2, 4
	// and 6 (which include column 0) still report a 1-byte row, but none of
	// them includes row 0; passes 1, 3 and 5 include no column of a 1-wide
	// row at all.
	want := []int{1, 0, 1, 0, 1, 0, 1}
	for pass := 0; pass < nPasses; pass++ {
		assert.Equal(t, want[pass], passRowSize(pass, 8, 1), "pass %d", pass)
	}
	for pass := 1; pass < nPasses; pass++ {
		assert.False(t, passRowSize(pass, 8, 1) > 0 && passIncludesRow(pass, 0), "pass %d", pass)
	}
	assert.True(t, passIncludesRow(0, 0))
	assert.True(t, passIncludesColumn(0, 0))
}

func TestGetInterlacedRowPacksSelectedColumns(t *testing.T) {
	// width=8, bpp=1, pass 0 selects only column 0.
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, passRowSize(0, 8, 8))
	getInterlacedRow(dst, src, 0, 1, 8)
	assert.Equal(t, []byte{1}, dst)

	// pass 5 selects every odd column.
	dst = make([]byte, passRowSize(5, 8, 8))
	getInterlacedRow(dst, src, 5, 1, 8)
	assert.Equal(t, []byte{2, 4, 6, 8}, dst)
}
