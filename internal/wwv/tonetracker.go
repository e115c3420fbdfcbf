package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Sub-bin FFT frequency tracker for a reference tone
 *		(residual carrier, 500Hz or 600Hz), spec.md §4.5. Used
 *		to characterize receiver/reference-oscillator frequency
 *		offset against the station's known tone frequencies.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	toneFFTSize     = 4096
	toneSearchBins  = 10
	toneSNRGateDb   = 10.0
	toneNoiseLoBin  = 50
	toneNoiseHiBin  = 150
	referenceHz10M  = 10_000_000.0
	toneNoiseAdapt  = 0.1 // per spec.md §4.5/§9: "slow-adapted ... factor 0.1 per update"
	parabolicTieTol = 1e-10
)

// ToneTracker implements spec.md §4.5 for one nominal tone (0, 500 or
// 600 Hz). nominalHz == 0 selects the residual-carrier / DC behavior.
type ToneTracker struct {
	nominalHz    float64
	sampleRateHz float64

	bufI, bufQ []float64
	fill       int

	lastNoiseFloorLinear float64
}

// NewToneTracker builds a tracker for the given nominal tone on the
// 12kHz display path.
func NewToneTracker(nominalHz, sampleRateHz float64) *ToneTracker {
	return &ToneTracker{
		nominalHz:    nominalHz,
		sampleRateHz: sampleRateHz,
		bufI:         make([]float64, 0, toneFFTSize),
		bufQ:         make([]float64, 0, toneFFTSize),
	}
}

// ProcessSample feeds one complex sample of the 12kHz display path.
// A measurement is returned (ok=true) once toneFFTSize samples have
// accumulated; the tracker then starts a fresh buffer.
func (t *ToneTracker) ProcessSample(i, q float64) (ToneMeasurement, bool) {
	if !finite(i) {
		i = 0
	}
	if !finite(q) {
		q = 0
	}

	t.bufI = append(t.bufI, i)
	t.bufQ = append(t.bufQ, q)
	if len(t.bufI) < toneFFTSize {
		return ToneMeasurement{}, false
	}

	m := t.measure()
	t.bufI = t.bufI[:0]
	t.bufQ = t.bufQ[:0]
	return m, true
}

func (t *ToneTracker) measure() ToneMeasurement {
	re := append([]float64(nil), t.bufI...)
	im := append([]float64(nil), t.bufQ...)
	applyBlackmanHarris(re, im)
	fftComplex(re, im)

	n := len(re)
	mag := make([]float64, n)
	for k := 0; k < n; k++ {
		mag[k] = math.Hypot(re[k], im[k])
	}

	if t.nominalHz == 0 {
		return t.measureDC(mag)
	}
	return t.measureTone(mag)
}

func (t *ToneTracker) measureTone(mag []float64) ToneMeasurement {
	n := len(mag)
	usbBin := int(math.Round(t.nominalHz * float64(n) / t.sampleRateHz))
	lsbBin := wrapBin(-usbBin, n)

	usbPeak, usbSub := searchPeak(mag, usbBin, toneSearchBins, n)
	lsbPeak, lsbSub := searchPeak(mag, lsbBin, toneSearchBins, n)

	usbHz := binToHz(usbSub, n, t.sampleRateHz, false)
	lsbHz := binToHz(lsbSub, n, t.sampleRateHz, true)
	measuredHz := (usbHz + lsbHz) / 2.0

	peak := (usbPeak + lsbPeak) / 2.0
	noise := t.noiseFloor(mag, usbBin, lsbBin)

	return t.finish(measuredHz, peak, noise)
}

func (t *ToneTracker) measureDC(mag []float64) ToneMeasurement {
	n := len(mag)
	peak, sub := searchPeak(mag, 0, toneSearchBins, n)
	measuredHz := binToHz(sub, n, t.sampleRateHz, false)
	noise := t.noiseFloor(mag, 0, 0)
	return t.finish(measuredHz, peak, noise)
}

func (t *ToneTracker) finish(measuredHz, peak, noise float64) ToneMeasurement {
	snr := 20 * math.Log10(peak/(noise+1e-10))
	valid := snr >= toneSNRGateDb

	m := ToneMeasurement{
		NominalHz:        t.nominalHz,
		SNRDb:            snr,
		NoiseFloorLinear: t.lastNoiseFloorLinear,
		Valid:            valid,
	}

	if valid {
		t.lastNoiseFloorLinear += toneNoiseAdapt * (noise - t.lastNoiseFloorLinear)
		m.NoiseFloorLinear = t.lastNoiseFloorLinear
		m.MeasuredHz = measuredHz
		m.OffsetHz = measuredHz - t.nominalHz
		if t.nominalHz != 0 {
			m.OffsetPPM = (m.OffsetHz / t.nominalHz) * (referenceHz10M / 1_000_000.0)
		} else {
			m.OffsetPPM = m.OffsetHz / referenceHz10M * 1_000_000.0
		}
	}
	// Invalid: zero offset, hold last noise floor (spec.md §4.5/§7(d)).
	return m
}

// LastNoiseFloorLinear exposes the held noise floor for the process-wide
// "subcarrier noise floor" wiring owned by the orchestrator (spec.md §9).
func (t *ToneTracker) LastNoiseFloorLinear() float64 { return t.lastNoiseFloorLinear }

// searchPeak finds the magnitude peak within ±width bins of center (bin
// indices wrapped modulo n) and returns (peak magnitude, sub-bin index).
func searchPeak(mag []float64, center, width, n int) (float64, float64) {
	bestBin := center
	bestMag := mag[wrapBin(center, n)]
	for off := -width; off <= width; off++ {
		b := wrapBin(center+off, n)
		if mag[b] > bestMag {
			bestMag = mag[b]
			bestBin = center + off
		}
	}

	alpha := mag[wrapBin(bestBin-1, n)]
	beta := mag[wrapBin(bestBin, n)]
	gamma := mag[wrapBin(bestBin+1, n)]

	denom := alpha - 2*beta + gamma
	var p float64
	if math.Abs(denom) < parabolicTieTol {
		p = 0
	} else {
		p = 0.5 * (alpha - gamma) / denom
		if p > 1 {
			p = 1
		} else if p < -1 {
			p = -1
		}
	}

	return bestMag, float64(bestBin) + p
}

// binToHz converts a (possibly fractional, possibly wrapped-negative) FFT
// bin index to a signed frequency. mirror indicates the bin lives on the
// negative-frequency side and its magnitude should be reported as a
// positive-equivalent Hz (the LSB mirror of a USB tone).
func binToHz(bin float64, n int, sampleRateHz float64, mirror bool) float64 {
	half := float64(n) / 2
	if bin > half {
		bin -= float64(n)
	}
	hz := bin * sampleRateHz / float64(n)
	if mirror {
		hz = -hz
	}
	return hz
}

func wrapBin(b, n int) int {
	b %= n
	if b < 0 {
		b += n
	}
	return b
}

func (t *ToneTracker) noiseFloor(mag []float64, excludeA, excludeB int) float64 {
	n := len(mag)
	var sum float64
	var count int
	for _, base := range []int{toneNoiseLoBin, n - toneNoiseHiBin} {
		for k := toneNoiseLoBin; k <= toneNoiseHiBin; k++ {
			idx := wrapBin(base+(k-toneNoiseLoBin), n)
			if nearBin(idx, excludeA, toneSearchBins, n) || nearBin(idx, excludeB, toneSearchBins, n) {
				continue
			}
			sum += mag[idx]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func nearBin(idx, center, width, n int) bool {
	for off := -width; off <= width; off++ {
		if idx == wrapBin(center+off, n) {
			return true
		}
	}
	return false
}
