package tutor

import (
	"errors"
	"fmt"
	"math"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	MiddleC = 60
	MaxLED  = 255
)

var ErrCalibration = errors.New("invalid calibration")

// Calibration maps pitches onto LED indexes of the strip.
// AnchorLED is the LED placed under middle C, sign of Slope selects
// the direction of the LED numbering relative to the keyboard.
type Calibration struct {
	AnchorLED int
	Slope     float64
}

// Validate checks that anchor is a strip LED and slope is finite
// and not steeper than the whole strip
func (c Calibration) Validate() error {
	if c.AnchorLED < 0 || c.AnchorLED > MaxLED {
		return fmt.Errorf("%w: anchor LED %d outside of 0-%d range", ErrCalibration, c.AnchorLED, MaxLED)
	}
	if math.IsNaN(c.Slope) || math.Abs(c.Slope) > Keys {
		return fmt.Errorf("%w: slope %v outside of -%d-%d range", ErrCalibration, c.Slope, Keys, Keys)
	}
	return nil
}

// PitchToLight returns LED index related to given pitch, always in 0-255 range.
// Anchor is defined on the boundary between two LEDs, so the reference point
// depends on the direction and on which side of middle C the pitch is.
func (c Calibration) PitchToLight(pitch int) int {
	refPitch, refLED := MiddleC-1, c.AnchorLED+1
	if c.Slope < 0 && pitch >= MiddleC {
		refPitch, refLED = MiddleC, c.AnchorLED
	}

	led := math.Round(float64(pitch-refPitch)*c.Slope + float64(refLED))
	switch {
	case math.IsNaN(led), led < 0:
		return 0
	case led > MaxLED:
		return MaxLED
	}
	return int(led)
}

func (t *Tutor) PitchToLight(pitch int) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.calibration.PitchToLight(pitch)
}

func (t *Tutor) Calibration() Calibration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.calibration
}

func (t *Tutor) AnchorLED() int {
	return t.Calibration().AnchorLED
}

func (t *Tutor) Slope() float64 {
	return t.Calibration().Slope
}

func (t *Tutor) SetAnchorLED(led int) error {
	return t.SetCalibration(Calibration{AnchorLED: led, Slope: t.Slope()})
}

func (t *Tutor) SetSlope(slope float64) error {
	return t.SetCalibration(Calibration{AnchorLED: t.AnchorLED(), Slope: slope})
}

// SetCalibration replaces calibration, keys already lit are moved to their new LEDs.
// Invalid calibration is rejected with ErrCalibration and the current one is kept.
func (t *Tutor) SetCalibration(c Calibration) error {
	err := c.Validate()
	if err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if c == t.calibration {
		return nil
	}
	for pitch, k := range t.keys {
		if k.used {
			t.clearLight(t.calibration.PitchToLight(pitch))
		}
	}
	t.calibration = c
	for pitch, k := range t.keys {
		if k.used {
			t.setLight(c.PitchToLight(pitch), t.colorFor(k.channel, k.future))
		}
	}
	log.Info(
		fmt.Sprintf("Calibration changed: anchor LED %d, slope %.2f", c.AnchorLED, c.Slope),
		logger.Action,
	)
	return t.flush()
}

// SetC4Pitch recalibrates the strip so that the LED currently assigned to middle C
// belongs to given pitch. Used by calibration wizard: middle C gets lit and the
// player presses the key that is really under it.
// Pitch that would move the anchor off the strip is rejected with ErrCalibration.
func (t *Tutor) SetC4Pitch(pitch int) error {
	err := validPitch(pitch)
	if err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	err = t.clearAll()
	c := t.calibration
	c.AnchorLED -= int(math.Round(float64(pitch-MiddleC) * c.Slope))
	if verr := c.Validate(); verr != nil {
		log.Info(fmt.Sprintf("Calibration with middle C at pitch %d rejected: %v", pitch, verr), zap.Int("pitch", pitch), logger.Warning)
		return verr
	}
	t.calibration = c
	log.Info(
		fmt.Sprintf("Calibrated with middle C at pitch %d, anchor LED %d", pitch, t.calibration.AnchorLED),
		zap.Int("pitch", pitch), logger.Action,
	)
	return err
}
