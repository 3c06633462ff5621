package sink

import "math"

// volumeToGain applies the cubic perceptual curve (v_out = clamp(v,0,1)^3)
// used across the observer's volume samples, turning a linear [0,1]
// fader position into the actual gain to apply to the output.
func volumeToGain(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v * v * v
}

// gainToBeepVolume converts a linear gain (post cubic curve) into the
// effects.Volume field beep expects, which is logarithmic with base 2:
// 0 means unity gain, -1 halves it, -2 quarters it, and so on. A gain of
// zero maps to -Inf, which 2^Volume turns into a gain of exactly zero
// (silence).
func gainToBeepVolume(gain float64) float64 {
	if gain <= 0 {
		return math.Inf(-1)
	}
	if gain >= 1 {
		return 0
	}
	return math.Log2(gain)
}
