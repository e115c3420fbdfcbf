package wwv

/*------------------------------------------------------------------
 *
 * Purpose:     Filter/FFT window shape functions, grounded in the
 *		teacher's dsp.go "window" generator, generalized from a
 *		filter-kernel shaping table to the Blackman-Harris window
 *		the tone trackers require before their FFT (spec.md §4.5).
 *
 *----------------------------------------------------------------*/

import "math"

// blackmanHarris returns the j-th coefficient of an N-point 4-term
// Blackman-Harris window.
func blackmanHarris(n, j int) float64 {
	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)
	x := 2 * math.Pi * float64(j) / float64(n-1)
	return a0 - a1*math.Cos(x) + a2*math.Cos(2*x) - a3*math.Cos(3*x)
}

func applyBlackmanHarris(re, im []float64) {
	n := len(re)
	for j := 0; j < n; j++ {
		w := blackmanHarris(n, j)
		re[j] *= w
		im[j] *= w
	}
}
