package tutor

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchToLight(t *testing.T) {
	for _, tc := range []struct {
		calibration Calibration
		pitch       int
		led         int
	}{
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 60, led: 71},
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 61, led: 69},
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 59, led: 72},
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 58, led: 74},
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 21, led: 148},
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 200, led: 0},
		{calibration: Calibration{AnchorLED: 71, Slope: -2}, pitch: 0, led: 190},
		{calibration: Calibration{AnchorLED: 10, Slope: 2}, pitch: 60, led: 13},
		{calibration: Calibration{AnchorLED: 10, Slope: 2}, pitch: 59, led: 11},
		{calibration: Calibration{AnchorLED: 10, Slope: 2}, pitch: 0, led: 0},
		{calibration: Calibration{AnchorLED: 10, Slope: 2}, pitch: 200, led: 255},
		{calibration: Calibration{AnchorLED: 100, Slope: -1.5}, pitch: 61, led: 99},  // 98.5 rounds away from zero
		{calibration: Calibration{AnchorLED: 100, Slope: -1.5}, pitch: 58, led: 103}, // 102.5 rounds away from zero
		{calibration: Calibration{AnchorLED: 100, Slope: 0}, pitch: 20, led: 101},
		{calibration: Calibration{AnchorLED: 71, Slope: 1e300}, pitch: 61, led: 255},
		{calibration: Calibration{AnchorLED: 71, Slope: 1e300}, pitch: 0, led: 0},
		{calibration: Calibration{AnchorLED: 71, Slope: math.Inf(-1)}, pitch: 0, led: 255},
		{calibration: Calibration{AnchorLED: 71, Slope: math.Inf(1)}, pitch: 59, led: 0},
		{calibration: Calibration{AnchorLED: 71, Slope: math.NaN()}, pitch: 60, led: 0},
	} {
		name := fmt.Sprintf("anchor %d slope %g pitch %d", tc.calibration.AnchorLED, tc.calibration.Slope, tc.pitch)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.led, tc.calibration.PitchToLight(tc.pitch))
		})
	}
}

func TestPitchToLightInRange(t *testing.T) {
	for _, c := range []Calibration{
		{AnchorLED: 71, Slope: -2},
		{AnchorLED: 0, Slope: 4},
		{AnchorLED: 255, Slope: -4},
		{AnchorLED: -40, Slope: 1},
	} {
		for pitch := 0; pitch < Keys; pitch++ {
			led := c.PitchToLight(pitch)
			assert.GreaterOrEqual(t, led, 0)
			assert.LessOrEqual(t, led, MaxLED)
		}
	}
}

func TestCalibrationValidate(t *testing.T) {
	for _, c := range []Calibration{
		{AnchorLED: 71, Slope: -2},
		{AnchorLED: 0, Slope: 0},
		{AnchorLED: MaxLED, Slope: Keys},
		{AnchorLED: 12, Slope: -Keys},
	} {
		assert.NoError(t, c.Validate(), "%+v", c)
	}

	for _, c := range []Calibration{
		{AnchorLED: -1, Slope: -2},
		{AnchorLED: MaxLED + 1, Slope: -2},
		{AnchorLED: 71, Slope: math.NaN()},
		{AnchorLED: 71, Slope: math.Inf(1)},
		{AnchorLED: 71, Slope: math.Inf(-1)},
		{AnchorLED: 71, Slope: 1e300},
		{AnchorLED: 71, Slope: -Keys - 0.5},
	} {
		assert.ErrorIs(t, c.Validate(), ErrCalibration, "%+v", c)
	}
}

func TestSetCalibrationInvalid(t *testing.T) {
	tut, device, _, _ := newTestTutor()
	require.NoError(t, tut.AddKey(60, 100, 0, 0))
	device.takeCommands(t)

	for _, slope := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300} {
		assert.ErrorIs(t, tut.SetSlope(slope), ErrCalibration)
	}
	assert.ErrorIs(t, tut.SetAnchorLED(-7), ErrCalibration)
	assert.ErrorIs(t, tut.SetAnchorLED(MaxLED+1), ErrCalibration)

	assert.Equal(t, Calibration{AnchorLED: 71, Slope: -2}, tut.Calibration())
	assert.Empty(t, device.takeCommands(t), "lit key stays where it was")
	assert.Equal(t, 1, tut.Size())
}
