package wwv

/*------------------------------------------------------------------
 *
 * Purpose:	Biquad IIR section, the building block for the sync
 *		and data channel filters (spec.md §4.1).
 *
 * Description:	Direct Form I, coefficients from the RBJ Audio Cookbook.
 *		State is four scalars per section, mutated only through
 *		Process. No allocation, no locking: callers own one
 *		biquadSection per logical filter and must not share it
 *		across concurrent samples.
 *
 *----------------------------------------------------------------*/

import "math"

type biquadSection struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func (s *biquadSection) process(x float64) float64 {
	y := s.b0*x + s.b1*s.x1 + s.b2*s.x2 - s.a1*s.y1 - s.a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

func (s *biquadSection) reset() {
	s.x1, s.x2, s.y1, s.y2 = 0, 0, 0, 0
}

func lowpassSection(cutoffHz, sampleRateHz, q float64) biquadSection {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return biquadSection{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

func highpassSection(cutoffHz, sampleRateHz, q float64) biquadSection {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return biquadSection{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

// butterworthQ is the per-section Q for a two-section (4th order)
// Butterworth cascade, the standard 0.541/1.306 pair.
const (
	butterworthQ1 = 0.54119610
	butterworthQ2 = 1.30656296
)

// complexChannelFilter runs two independent biquad cascades, one for I
// and one for Q, each two sections deep (spec.md §4.1: "two biquad
// sections"). It has no knowledge of what band it implements; see
// newSyncChannelFilter / newDataChannelFilter below for the two concrete
// instances the pipeline needs.
type complexChannelFilter struct {
	iSections [2]biquadSection
	qSections [2]biquadSection
}

func (f *complexChannelFilter) process(i, q float64) (float64, float64) {
	oi := f.iSections[0].process(i)
	oi = f.iSections[1].process(oi)
	oq := f.qSections[0].process(q)
	oq = f.qSections[1].process(oq)
	return oi, oq
}

func (f *complexChannelFilter) reset() {
	for k := range f.iSections {
		f.iSections[k].reset()
		f.qSections[k].reset()
	}
}

// newSyncChannelFilter builds the 800-1400 Hz band used by the tick and
// marker detectors (both watch the 1000/1200 Hz tick tones, squarely
// inside this band): an 800 Hz high-pass section at butterworthQ1
// cascaded with a 1400 Hz low-pass section at butterworthQ2. The
// BCD-time detector rides the unrelated 100 Hz subcarrier and has no use
// for this filter - its own Goertzel bucket already rejects everything
// outside its single bin.
func newSyncChannelFilter(sampleRateHz float64) *complexChannelFilter {
	hp := highpassSection(800, sampleRateHz, butterworthQ1)
	lp := lowpassSection(1400, sampleRateHz, butterworthQ2)
	return &complexChannelFilter{
		iSections: [2]biquadSection{hp, lp},
		qSections: [2]biquadSection{hp, lp},
	}
}

// newDataChannelFilter builds the <150 Hz band used by the BCD freq
// detector: two cascaded 150 Hz low-pass sections for a steeper rolloff.
func newDataChannelFilter(sampleRateHz float64) *complexChannelFilter {
	lp1 := lowpassSection(150, sampleRateHz, butterworthQ1)
	lp2 := lowpassSection(150, sampleRateHz, butterworthQ2)
	return &complexChannelFilter{
		iSections: [2]biquadSection{lp1, lp2},
		qSections: [2]biquadSection{lp1, lp2},
	}
}
