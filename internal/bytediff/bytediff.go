// Package bytediff computes the per-byte difference of two buffers,
// dst[i] = a[i] - b[i] (mod 256). It is the SIMD-optional helper spec.md
// treats as an external collaborator: the Up PNG row filter hands it the
// whole row, and the Sub filter everything after the row's first bpp bytes,
// whatever the row's length. Neither filter runs a scalar head up to an
// aligned offset before delegating.
package bytediff

import "github.com/klauspost/cpuid/v2"

// wideLanes is on when the CPU reports a wide SIMD feature set, in which case
// the widened (8-byte-unrolled) loop is used instead of the plain scalar
// loop. The unrolled loop is still byte-wise arithmetic in portable Go (no
// assembly): what cpuid buys us here is avoiding loop-overhead on CPUs that
// can actually retire the unrolled body at speed, not a vector instruction.
var wideLanes = cpuid.CPU.Supports(cpuid.SSE2) || cpuid.CPU.Supports(cpuid.ASIMD)

// Diff computes dst[i] = a[i] - b[i] for i in [0, len(dst)). a, b, and dst
// must have length >= len(dst).
func Diff(dst, a, b []byte) {
	n := len(dst)
	i := 0
	if wideLanes {
		for ; i+8 <= n; i += 8 {
			dst[i+0] = a[i+0] - b[i+0]
			dst[i+1] = a[i+1] - b[i+1]
			dst[i+2] = a[i+2] - b[i+2]
			dst[i+3] = a[i+3] - b[i+3]
			dst[i+4] = a[i+4] - b[i+4]
			dst[i+5] = a[i+5] - b[i+5]
			dst[i+6] = a[i+6] - b[i+6]
			dst[i+7] = a[i+7] - b[i+7]
		}
	}
	for ; i < n; i++ {
		dst[i] = a[i] - b[i]
	}
}
