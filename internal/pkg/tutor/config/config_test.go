package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
	"github.com/realbucksavage/openrgb-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func TestParseData(t *testing.T) {
	data := []byte(`
calibration:
  anchor_led: 80
  slope: 2
colors:
  even: "#0000ff"
  odd: "#102030"
`)
	p, err := ParseData(data)
	require.NoError(t, err)
	assert.Equal(t, tutor.Calibration{AnchorLED: 80, Slope: 2}, p.Calibration)
	assert.Equal(t, [2]openrgb.Color{{Blue: 255}, {Red: 0x10, Green: 0x20, Blue: 0x30}}, p.Colors)
}

func TestParseDataDefaults(t *testing.T) {
	p, err := ParseData([]byte("calibration:\n  slope: -1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, tutor.Calibration{AnchorLED: 71, Slope: -1.5}, p.Calibration)
	assert.Equal(t, tutor.DefaultColors, p.Colors)

	p, err = ParseData(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}

func TestParseDataErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{name: "anchor out of range", data: "calibration:\n  anchor_led: 300\n"},
		{name: "negative anchor", data: "calibration:\n  anchor_led: -1\n"},
		{name: "nan slope", data: "calibration:\n  slope: .nan\n"},
		{name: "infinite slope", data: "calibration:\n  slope: -.inf\n"},
		{name: "slope longer than strip", data: "calibration:\n  slope: 1e300\n"},
		{name: "bad color", data: "colors:\n  even: red\n"},
		{name: "unknown field", data: "brightness: 10\n"},
		{name: "malformed", data: "calibration: [\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseData([]byte(tc.data))
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)

	p.Calibration = tutor.Calibration{AnchorLED: 12, Slope: 2}
	p.Colors[1] = openrgb.Color{Red: 1, Green: 2, Blue: 3}
	require.NoError(t, SaveProfile(path, p))

	loaded, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	p.Calibration.AnchorLED = -7
	assert.ErrorIs(t, SaveProfile(path, p), ErrInvalidProfile)
	loaded, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Calibration.AnchorLED, "rejected profile is not written")
}

func TestSaveWizardCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	tut := tutor.NewTutor(tutor.DefaultConfig())

	for _, tc := range []struct {
		pitch  int
		anchor int
	}{
		{pitch: 62, anchor: 75},
		{pitch: 21, anchor: 75},
		{pitch: 0, anchor: 75},
		{pitch: 50, anchor: 55},
		{pitch: 83, anchor: 101},
		{pitch: 180, anchor: 101},
	} {
		err := tut.SetC4Pitch(tc.pitch)
		if err != nil && !errors.Is(err, tutor.ErrCalibration) {
			assert.ErrorIs(t, err, tutor.ErrOffline)
		}
		require.Equal(t, tc.anchor, tut.AnchorLED(), "pitch %d", tc.pitch)

		p := DefaultProfile()
		p.Calibration = tut.Calibration()
		require.NoError(t, SaveProfile(path, p))
		loaded, err := LoadProfile(path)
		require.NoError(t, err)
		assert.Equal(t, p, loaded)
	}
}

type fakeSetter struct {
	calibration tutor.Calibration
	colors      map[int]openrgb.Color
}

func (f *fakeSetter) SetCalibration(c tutor.Calibration) error {
	f.calibration = c
	return nil
}

func (f *fakeSetter) SetColor(channel int, c openrgb.Color) error {
	f.colors[channel] = c
	return tutor.ErrOffline
}

func TestApply(t *testing.T) {
	s := &fakeSetter{colors: map[int]openrgb.Color{}}
	p := DefaultProfile()
	p.Calibration.AnchorLED = 40

	err := p.Apply(s)
	assert.ErrorIs(t, err, tutor.ErrOffline)
	assert.Equal(t, 40, s.calibration.AnchorLED)
	assert.Equal(t, map[int]openrgb.Color{0: p.Colors[0], 1: p.Colors[1]}, s.colors)
}

func TestDetectProfileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := DetectProfileChanges(ctx, path)

	// watcher is set up asynchronously
	time.Sleep(time.Millisecond * 100)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("calibration:\n  anchor_led: 5\n"), 0o644))

	select {
	case <-changes:
	case <-time.After(time.Second * 5):
		t.Fatal("profile change not detected")
	}

	cancel()
	for range changes {
	}
}
