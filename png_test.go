package apngenc_test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutej/apngenc"
)

// readChunks walks a packet's {length,type,payload,crc} records, skipping the
// 8-byte signature, and returns each chunk's payload keyed by chunk type (the
// last one wins when a type repeats).
func readChunks(t *testing.T, packet []byte) map[string][]byte {
	t.Helper()
	require.True(t, len(packet) >= 8)
	chunks := map[string][]byte{}
	pos := 8
	for pos < len(packet) {
		length := binary.BigEndian.Uint32(packet[pos : pos+4])
		typ := string(packet[pos+4 : pos+8])
		payload := packet[pos+8 : pos+8+int(length)]
		chunks[typ] = payload
		pos += 8 + int(length) + 4
	}
	return chunks
}

func TestEncodePNGOneByOneBlack(t *testing.T) {
	e, err := apngenc.NewEncoder(apngenc.RGB24, 1, 1)
	require.NoError(t, err)
	defer e.Close()

	packet, err := e.EncodePNG(&apngenc.Frame{Pix: []byte{0, 0, 0}, Stride: 3})
	require.NoError(t, err)
	assert.Equal(t, 67, len(packet))

	chunks := readChunks(t, packet)
	assert.Contains(t, chunks, "IHDR")
	assert.Contains(t, chunks, "IDAT")
	assert.Contains(t, chunks, "IEND")
}

func TestEncodePNGMonoBlackForcesNoneFilter(t *testing.T) {
	const size = 8
	e, err := apngenc.NewEncoder(apngenc.MonoBlack, size, size, apngenc.WithFilter(apngenc.FilterMixed))
	require.NoError(t, err)
	defer e.Close()

	pix := make([]byte, size) // 8x8 checkerboard, one byte per row
	for y := 0; y < size; y++ {
		if y%2 == 0 {
			pix[y] = 0xaa
		} else {
			pix[y] = 0x55
		}
	}
	rows := make([]byte, 0, size*size)
	for y := 0; y < size; y++ {
		rows = append(rows, pix[y])
	}
	packet, err := e.EncodePNG(&apngenc.Frame{Pix: rows, Stride: 1})
	require.NoError(t, err)
	chunks := readChunks(t, packet)
	assert.Contains(t, chunks, "IDAT")

	zr, err := zlib.NewReader(bytes.NewReader(chunks["IDAT"]))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Len(t, raw, size*2) // one filter-type byte plus one packed byte per row
	for y := 0; y < size; y++ {
		assert.Equal(t, byte(0), raw[y*2], "row %d filter type", y)
	}
}

func TestEncodePNGPalette256EntriesWithAlpha(t *testing.T) {
	e, err := apngenc.NewEncoder(apngenc.PAL8, 4, 4)
	require.NoError(t, err)
	defer e.Close()

	palette := make([]uint32, 256)
	for i := range palette {
		palette[i] = 0xff000000 | uint32(i)
	}
	palette[0] = 0x00000000 // fully transparent entry at index 0

	frame := &apngenc.Frame{
		Pix:     make([]byte, 4*4),
		Stride:  4,
		Palette: palette,
	}
	packet, err := e.EncodePNG(frame)
	require.NoError(t, err)

	chunks := readChunks(t, packet)
	require.Contains(t, chunks, "PLTE")
	assert.Equal(t, 768, len(chunks["PLTE"]))
	require.Contains(t, chunks, "tRNS")
	assert.Equal(t, 1, len(chunks["tRNS"])) // only index 0 is non-opaque
}

func TestEncodePNGRejectsAPNGEncoder(t *testing.T) {
	e, err := apngenc.NewAPNGEncoder(apngenc.RGB24, 1, 1)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.EncodePNG(&apngenc.Frame{Pix: []byte{0, 0, 0}, Stride: 3})
	assert.Error(t, err)
}
