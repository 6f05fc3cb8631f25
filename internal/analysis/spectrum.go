// Package analysis extracts frequency content from sampled run series,
// such as the librational oscillation of constrained molecules showing up
// in the kinetic energy.
package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PowerSpectrum returns the magnitude of each real-FFT coefficient of the
// series, mean removed. Index i corresponds to a frequency of
// i/(n*sampleDt) cycles per time unit.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	detrended := detrend(series)
	fft := fourier.NewFFT(len(detrended))
	coeffs := fft.Coefficients(nil, detrended)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the strongest nonzero frequency in cycles per
// time unit and its spectral power. sampleDt is the spacing of the series
// samples.
func DominantFrequency(series []float64, sampleDt float64) (freq, power float64) {
	ps := PowerSpectrum(series)
	if len(ps) < 2 || sampleDt <= 0 {
		return 0, 0
	}
	maxIdx := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	n := float64(len(series))
	return float64(maxIdx) / (n * sampleDt), ps[maxIdx]
}

func detrend(series []float64) []float64 {
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v - mean
	}
	return out
}
