package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/midi"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
	"github.com/gethiox/keytutor/internal/pkg/tutor/config"
	"github.com/gethiox/keytutor/internal/pkg/utils"
	"github.com/realbucksavage/openrgb-go"
	"go.uber.org/zap"
)

// Controls are the live adjustments available from the UI, every change is saved into the profile
type Controls struct {
	tutor       *tutor.Tutor
	profilePath string
	calibrate   chan bool
}

func NewControls(t *tutor.Tutor, profilePath string) *Controls {
	return &Controls{
		tutor:       t,
		profilePath: profilePath,
		calibrate:   make(chan bool, 1),
	}
}

func (c *Controls) bind(f func() error) func(g *gocui.Gui, v *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		err := f()
		if err != nil {
			log.Info(err.Error(), logger.Warning)
		}
		return nil
	}
}

func (c *Controls) save() error {
	p := config.Profile{
		Calibration: c.tutor.Calibration(),
		Colors:      [2]openrgb.Color{c.tutor.Color(0), c.tutor.Color(1)},
	}
	if c.profilePath == "" {
		return nil
	}
	err := config.SaveProfile(c.profilePath, p)
	if err != nil {
		return err
	}
	log.Info(fmt.Sprintf("Profile saved (%s)", p), logger.Debug)
	return nil
}

// applied saves calibration change, rejected calibration is left out of the profile.
// Offline strip still gets the change, it is shown once the device is back.
func (c *Controls) applied(what string, err error) error {
	if errors.Is(err, tutor.ErrCalibration) {
		return err
	}
	if err != nil {
		log.Info(fmt.Sprintf("applying %s: %v", what, err), logger.Debug)
	}
	return c.save()
}

// NudgeAnchor moves the whole mapping by given number of LEDs
func (c *Controls) NudgeAnchor(delta int) error {
	return c.applied("anchor LED", c.tutor.SetAnchorLED(c.tutor.AnchorLED()+delta))
}

// FlipSlope reverses LED numbering direction
func (c *Controls) FlipSlope() error {
	return c.applied("slope", c.tutor.SetSlope(-c.tutor.Slope()))
}

func (c *Controls) StartCalibration() error {
	select {
	case c.calibrate <- true:
	default:
	}
	return nil
}

// PressedKeys keeps the most recent keys pressed by the player for the overview
type PressedKeys struct {
	mutex  sync.Mutex
	keys   []string
	total  uint
	misses uint
}

const pressedKeysShown = 8

func (p *PressedKeys) add(note midi.Note, result int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var mark string
	switch {
	case result == tutor.KeyUnmatched:
		mark = "✗"
		p.misses++
	case result == tutor.KeyPending:
		mark = "…"
	case result > 0:
		mark = fmt.Sprintf("+%d", result)
	default:
		mark = "✓"
	}
	p.total++
	p.keys = append(p.keys, fmt.Sprintf("%s%s", midi.NoteName(note.Key), mark))
	if len(p.keys) > pressedKeysShown {
		p.keys = p.keys[len(p.keys)-pressedKeysShown:]
	}
}

func (p *PressedKeys) Snapshot() (keys []string, total, misses uint) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string(nil), p.keys...), p.total, p.misses
}

// handleInput matches keys pressed by the player against lit keys.
// Calibration request makes the next pressed key the new middle C.
func handleInput(ctx context.Context, wg *sync.WaitGroup, t *tutor.Tutor, controls *Controls, events <-chan midi.Event, pressed *PressedKeys) {
	defer wg.Done()

	var calibrating bool
	startCalibration := func() {
		calibrating = true
		err := t.ClearKeys()
		if err == nil {
			err = t.AddKey(tutor.MiddleC, 127, 0, 0)
		}
		if err == nil {
			err = t.Flush()
		}
		if err != nil {
			log.Info(fmt.Sprintf("calibration: %v", err), logger.Warning)
		}
		log.Info("Calibration: press the key placed over the lit LED", logger.Action)
	}

root:
	for {
		select {
		case <-ctx.Done():
			break root
		case <-controls.calibrate:
			startCalibration()
		case ev, ok := <-events:
			if !ok {
				break root
			}
			if ev.IsAllNotesOff() {
				log.Info("All notes off received", logger.Debug)
				continue
			}
			note, ok := ev.Note()
			if !ok || !note.On {
				continue
			}

			if calibrating {
				calibrating = false
				err := controls.applied("calibration", t.SetC4Pitch(int(note.Key)))
				if err != nil {
					log.Info(fmt.Sprintf("calibration not saved: %v", err), logger.Warning)
				}
				continue
			}

			result := t.KeyPressed(int(note.Key), int(note.Velocity))
			pressed.add(note, result)
		}
	}
	for range events {
	}
	log.Info("Input handler stopped", logger.Debug)
}

// readInput pushes events from the instrument until context is done
func readInput(ctx context.Context, wg *sync.WaitGroup, device io.ReadCloser, name string, events chan<- midi.Event) {
	defer wg.Done()
	defer close(events)

	go func() {
		<-ctx.Done()
		device.Close()
	}()

	log.Info("Reading MIDI input", zap.String("device", name), logger.Info)
	err := midi.ReadEvents(ctx, device, events)
	if err != nil {
		log.Info(fmt.Sprintf("reading MIDI input failed: %v", err), zap.String("device", name), logger.Error)
		return
	}
	log.Info("MIDI input closed", zap.String("device", name), logger.Debug)
}

// logInput reports every incoming event until the input is closed
func logInput(wg *sync.WaitGroup, fan *utils.DynamicFanOut[midi.Event]) {
	defer wg.Done()
	events, err := fan.SpawnOutput()
	if err != nil {
		log.Info(fmt.Sprintf("input monitor unavailable: %v", err), logger.Debug)
		return
	}
	for ev := range events {
		log.Info(ev.String(), logger.Device)
	}
}

// monitorProfile applies profile changes to the running tutor
func monitorProfile(ctx context.Context, wg *sync.WaitGroup, t *tutor.Tutor, path string) {
	defer wg.Done()
	for range config.DetectProfileChanges(ctx, path) {
		p, err := config.LoadProfile(path)
		if err != nil {
			log.Info(fmt.Sprintf("profile reload failed: %v", err), logger.Warning)
			continue
		}
		err = p.Apply(t)
		if err != nil {
			log.Info(fmt.Sprintf("applying profile: %v", err), logger.Debug)
		}
		log.Info(fmt.Sprintf("Profile applied (%s)", p), logger.Action)
	}
}
