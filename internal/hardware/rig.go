package hardware

/*------------------------------------------------------------------
 *
 * Purpose:	CAT control of a companion HF receiver via Hamlib
 *		(xylo04/goHamlib), so the bandselect CLI helper can step
 *		the front-end across the standard WWV/WWVH carrier
 *		frequencies without the operator touching the radio.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"

	hamlib "github.com/xylo04/goHamlib"
)

// WWVFrequenciesHz lists the standard NIST WWV/WWVH carrier frequencies.
var WWVFrequenciesHz = []float64{2_500_000, 5_000_000, 10_000_000, 15_000_000, 20_000_000}

// Rig wraps a Hamlib-controlled receiver for frequency steering.
type Rig struct {
	r *hamlib.Rig
}

// NewRig opens a Hamlib rig of the given model on device (e.g. "/dev/ttyUSB0").
func NewRig(model int, device string) (*Rig, error) {
	r := hamlib.RigInit(model)
	if r == nil {
		return nil, fmt.Errorf("hardware: hamlib rig_init failed for model %d", model)
	}
	r.State.RigPort.Pathname = device

	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("hardware: hamlib rig_open on %s: %w", device, err)
	}
	return &Rig{r: r}, nil
}

// SetFrequencyHz tunes the current VFO to freqHz.
func (r *Rig) SetFrequencyHz(freqHz float64) error {
	if err := r.r.SetFreq(hamlib.VFOCurr, freqHz); err != nil {
		return fmt.Errorf("hardware: hamlib set_freq %.0f: %w", freqHz, err)
	}
	return nil
}

// FrequencyHz reads back the current VFO frequency.
func (r *Rig) FrequencyHz() (float64, error) {
	freq, err := r.r.GetFreq(hamlib.VFOCurr)
	if err != nil {
		return 0, fmt.Errorf("hardware: hamlib get_freq: %w", err)
	}
	return freq, nil
}

// Close releases the rig's serial port.
func (r *Rig) Close() error {
	if err := r.r.Close(); err != nil {
		return fmt.Errorf("hardware: hamlib close: %w", err)
	}
	return nil
}
