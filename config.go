package apngenc

import (
	"go.uber.org/zap"
)

// FilterStrategy selects which PNG row filter(s) the encoder applies.
type FilterStrategy int

const (
	FilterNone FilterStrategy = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	FilterMixed // adaptive: minimum sum-of-absolute-values heuristic
)

// CompressionLevel is a zlib-compatible compression level in [0, 9], or
// DefaultCompression to defer to the DEFLATE library's own default.
type CompressionLevel int

const DefaultCompression CompressionLevel = -1

// ColourPrimaries identifies the input's colour primaries, used to choose
// the cHRM chromaticity table and whether sRGB applies.
type ColourPrimaries int

const (
	PrimariesUnspecified ColourPrimaries = iota
	PrimariesBT709
	PrimariesBT470M
	PrimariesBT470BG
	PrimariesSMPTE170M
	PrimariesSMPTE240M
	PrimariesBT2020
)

// TransferCharacteristic identifies the input's transfer function, used to
// derive the gAMA chunk and, combined with BT709 primaries, the sRGB chunk.
type TransferCharacteristic int

const (
	TransferUnspecified TransferCharacteristic = iota
	TransferIEC61966_2_1
	TransferBT709
	TransferGamma22
	TransferGamma28
	TransferLinear
)

func (t TransferCharacteristic) gamma() float64 {
	switch t {
	case TransferIEC61966_2_1, TransferBT709, TransferGamma22:
		return 1.0 / 2.2
	case TransferGamma28:
		return 1.0 / 2.8
	case TransferLinear:
		return 1.0
	default:
		return 0
	}
}

// Stereo3DMode identifies whether, and how, a frame carries side-by-side
// stereoscopic 3D side data for the sTER chunk.
type Stereo3DMode int

const (
	Stereo3DNone Stereo3DMode = iota
	Stereo3DSideBySide
)

// Encoder holds PNG/APNG encoding state for the lifetime of one codec
// instance: pixel format and geometry, configuration, reusable per-frame
// scratch buffers, and (when opened via NewAPNGEncoder) APNG driver state.
type Encoder struct {
	format    PixelFormat
	width     int
	height    int
	interlace bool
	filter    FilterStrategy
	level     CompressionLevel

	dpi, dpm       uint32
	sarNum, sarDen uint32

	primaries ColourPrimaries
	transfer  TransferCharacteristic

	stereo     Stereo3DMode
	stereoFlip bool

	log *zap.SugaredLogger

	// Per-frame scratch, reused across Encode calls (spec.md §3's row
	// workspace and interlacer buffers).
	cr           [nFilter][]byte
	pr           []byte
	interlaceBuf [2][]byte

	deflate *deflateStream

	apng *apngState
}

// Option configures an Encoder at construction time.
type Option func(*Encoder) error

// WithFilter selects the row filter strategy. Default is FilterMixed.
func WithFilter(f FilterStrategy) Option {
	return func(e *Encoder) error {
		e.filter = f
		return nil
	}
}

// WithCompressionLevel sets the zlib-compatible compression level in [0, 9].
func WithCompressionLevel(level CompressionLevel) Option {
	return func(e *Encoder) error {
		if level != DefaultCompression && (level < 0 || level > 9) {
			return configErrorf("compression level out of range [0,9]")
		}
		e.level = level
		return nil
	}
}

// WithDPI sets physical pixel density on an inches basis. Mutually exclusive
// with WithDPM.
func WithDPI(dpi uint32) Option {
	return func(e *Encoder) error {
		if dpi > 65536 {
			return configErrorf("dpi out of range [0,65536]")
		}
		if e.dpm != 0 {
			return configErrorf("dpi and dpm are mutually exclusive")
		}
		e.dpi = dpi
		return nil
	}
}

// WithDPM sets physical pixel density on a metres basis. Mutually exclusive
// with WithDPI.
func WithDPM(dpm uint32) Option {
	return func(e *Encoder) error {
		if dpm > 65536 {
			return configErrorf("dpm out of range [0,65536]")
		}
		if e.dpi != 0 {
			return configErrorf("dpi and dpm are mutually exclusive")
		}
		e.dpm = dpm
		return nil
	}
}

// WithSampleAspectRatio sets the pixel aspect ratio used in pHYs when
// neither WithDPI nor WithDPM is given. Defaults to 1:1 (square pixels).
func WithSampleAspectRatio(num, den uint32) Option {
	return func(e *Encoder) error {
		if den == 0 {
			return configErrorf("sample aspect ratio denominator must be nonzero")
		}
		e.sarNum, e.sarDen = num, den
		return nil
	}
}

// WithInterlace enables Adam7 interlacing.
func WithInterlace(interlace bool) Option {
	return func(e *Encoder) error {
		e.interlace = interlace
		return nil
	}
}

// WithColourPrimaries sets the input colour primaries for the cHRM/sRGB chunks.
func WithColourPrimaries(p ColourPrimaries) Option {
	return func(e *Encoder) error {
		e.primaries = p
		return nil
	}
}

// WithTransferCharacteristic sets the input transfer function for gAMA/sRGB.
func WithTransferCharacteristic(t TransferCharacteristic) Option {
	return func(e *Encoder) error {
		e.transfer = t
		return nil
	}
}

// WithStereo3D marks the stream as side-by-side stereoscopic 3D; flip
// indicates the right-eye-first layout. Other stereo layouts are not
// representable by sTER and are silently dropped by the header builder.
func WithStereo3D(mode Stereo3DMode, flip bool) Option {
	return func(e *Encoder) error {
		e.stereo = mode
		e.stereoFlip = flip
		return nil
	}
}

// WithLogger overrides the package's no-op default logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Encoder) error {
		e.log = l.Sugar()
		return nil
	}
}

func newEncoder(format PixelFormat, width, height int, opts ...Option) (*Encoder, error) {
	if _, ok := format.info(); !ok {
		return nil, configErrorf("unsupported pixel format")
	}
	if width <= 0 || height <= 0 {
		return nil, configErrorf("invalid image dimensions")
	}
	e := &Encoder{
		format: format,
		width:  width,
		height: height,
		filter: FilterMixed,
		level:  DefaultCompression,
		sarNum: 1,
		sarDen: 1,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, configErrorf(err.Error())
		}
	}
	e.deflate = newDeflateStream(e.level)
	return e, nil
}

// NewEncoder opens a still-PNG encoder for one frame at a time. Each call to
// EncodePNG produces one self-contained PNG packet.
func NewEncoder(format PixelFormat, width, height int, opts ...Option) (*Encoder, error) {
	e, err := newEncoder(format, width, height, opts...)
	if err != nil {
		return nil, wrap(err)
	}
	return e, nil
}

// NewAPNGEncoder opens an APNG encoder. Frames are submitted via EncodeAPNG,
// which implements the one-frame-delay pipeline described in spec.md §4.8.
func NewAPNGEncoder(format PixelFormat, width, height int, opts ...Option) (*Encoder, error) {
	e, err := newEncoder(format, width, height, opts...)
	if err != nil {
		return nil, wrap(err)
	}
	e.apng = &apngState{}
	return e, nil
}

// Close releases encoder state. The Encoder must not be used afterward.
func (e *Encoder) Close() error {
	e.deflate = nil
	e.apng = nil
	return nil
}
