// Package distance computes squared Euclidean distance between float32
// vectors, dispatching to a BLAS-backed kernel when the running CPU
// supports it and falling back to a pure Go loop otherwise.
package distance

import (
	"sync"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas/gonum"
)

// L2Sq returns the squared Euclidean distance between a and b.
// It panics if the two vectors have different lengths; callers in this
// module only ever compare vectors of the same schema-declared dimension.
func L2Sq(a, b []float32) float32 {
	return l2sqImpl(a, b)
}

var l2sqImpl = l2sqGo

func init() {
	if cpuid.CPU.Has(cpuid.SSE2) || cpuid.CPU.Has(cpuid.AVX2) || cpuid.CPU.Has(cpuid.ASIMD) {
		l2sqImpl = l2sqGonum
	}
}

func l2sqGo(a, b []float32) float32 {
	if len(a) != len(b) {
		panic("distance: vectors have different lengths")
	}
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// diffWorkspace holds scratch float32 slices so the Gonum path avoids
// allocating on every call.
var diffWorkspace = sync.Pool{
	New: func() interface{} {
		s := make([]float32, 256)
		return &s
	},
}

var gonumEngine = gonum.Implementation{}

func l2sqGonum(a, b []float32) float32 {
	n := len(a)
	if n != len(b) {
		panic("distance: vectors have different lengths")
	}
	diffPtr := diffWorkspace.Get().(*[]float32)
	defer diffWorkspace.Put(diffPtr)

	if cap(*diffPtr) < n {
		*diffPtr = make([]float32, n)
	}
	diff := (*diffPtr)[:n]

	copy(diff, a)
	gonumEngine.Saxpy(n, -1, b, 1, diff, 1)
	return gonumEngine.Sdot(n, diff, 1, diff, 1)
}
