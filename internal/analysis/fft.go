package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT returns the discrete Fourier transform of real data.
func FFT(data []float64) []complex128 {
	return fft.FFTReal(data)
}

// PadPow2 returns data zero-padded to the next power of two.
func PadPow2(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)
	return padded
}

// PowerSpectrum returns the magnitudes of the non-negative frequency bins of
// data after removing its mean and padding it to a power of two. Bin k is
// k/(len(padded)*dt) Hz.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := FFT(PadPow2(centered))
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin
// of samples taken every dt seconds, and its magnitude. A constant or too
// short signal yields 0, 0.
func DominantFrequency(samples []float64, dt float64) (float64, float64) {
	ps := PowerSpectrum(samples)
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}

	maxIdx, maxPower := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower, maxIdx = ps[i], i
		}
	}
	if maxPower < 1e-12 {
		return 0, 0
	}
	return float64(maxIdx) / (float64(2*len(ps)) * dt), maxPower
}
