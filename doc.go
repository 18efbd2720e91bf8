// Package apngenc is a low-level PNG and APNG encoder. It writes one frame
// at a time into a caller-owned buffer, with no dependency on image.Image
// or any container/muxing layer: acTL, IEND placement, and file assembly
// are left to the caller, for instance an ffmpeg-style muxer overlaying an
// animation onto a video.
//
// For encoding details, see:
//
// https://en.wikipedia.org/wiki/APNG#Technical_details
// https://wiki.mozilla.org/APNG_Specification
// https://www.w3.org/TR/PNG/
package apngenc
