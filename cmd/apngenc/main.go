// Command apngenc is a thin example driver for the apngenc library: it reads
// a sequence of image files (any format the stdlib image package can decode),
// converts each to RGBA, and writes to stdout the encoder's extradata, one
// fcTL+IDAT/fdAT packet per frame, and a final IEND. It exists to exercise
// the library end to end (spec.md §1). The final IEND, which apngenc leaves
// to its caller, is assembled here. No acTL chunk is written, so the output
// carries no frame count and decoders read it as a still PNG of the first
// frame.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/shutej/apngenc"
)

func main() {
	delayNum := flag.Uint("delay-num", 1, "fcTL delay numerator")
	delayDen := flag.Uint("delay-den", 10, "fcTL delay denominator (e.g. 10 for 100ms)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: apngenc [flags] frame.png [frame.png ...]")
		os.Exit(2)
	}

	if err := run(flag.Args(), uint16(*delayNum), uint16(*delayDen)); err != nil {
		fmt.Fprintln(os.Stderr, "apngenc:", err)
		os.Exit(1)
	}
}

func run(paths []string, delayNum, delayDen uint16) error {
	frames := make([]*apngenc.Frame, 0, len(paths))
	var width, height int
	for _, path := range paths {
		frame, w, h, err := loadFrame(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(frames) == 0 {
			width, height = w, h
		} else if w != width || h != height {
			return fmt.Errorf("%s: size %dx%d does not match first frame %dx%d", path, w, h, width, height)
		}
		frames = append(frames, frame)
	}

	e, err := apngenc.NewAPNGEncoder(apngenc.RGBA, width, height)
	if err != nil {
		return err
	}
	defer e.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for _, frame := range frames {
		packet, extradata, err := e.EncodeAPNG(frame, delayNum, delayDen)
		if err != nil {
			return err
		}
		if extradata != nil {
			if _, err := out.Write(extradata); err != nil {
				return err
			}
		}
		if packet != nil {
			if _, err := out.Write(packet); err != nil {
				return err
			}
		}
	}

	packet, extradata, err := e.Flush()
	if err != nil {
		return err
	}
	if extradata != nil {
		if _, err := out.Write(extradata); err != nil {
			return err
		}
	}
	if packet != nil {
		if _, err := out.Write(packet); err != nil {
			return err
		}
	}

	return writeIEND(out)
}

func loadFrame(path string) (frame *apngenc.Frame, width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	stride := width * 4
	pix := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := y*stride + x*4
			pix[off+0] = byte(r >> 8)
			pix[off+1] = byte(g >> 8)
			pix[off+2] = byte(bl >> 8)
			pix[off+3] = byte(a >> 8)
		}
	}
	return &apngenc.Frame{Pix: pix, Stride: stride}, width, height, nil
}

func writeIEND(w *bufio.Writer) error {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], 0)
	copy(buf[4:8], "IEND")
	binary.BigEndian.PutUint32(buf[8:12], 0xae426082) // CRC32 of "IEND"
	_, err := w.Write(buf[:])
	return err
}
