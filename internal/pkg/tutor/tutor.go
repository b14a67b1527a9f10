package tutor

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/realbucksavage/openrgb-go"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	Keys = 256 // one slot for every possible pitch byte

	// KeyPressed results besides exact (0) and look-ahead (>0) matches
	KeyUnmatched = -1 // nothing recorded for pressed pitch
	KeyPending   = -2 // look-ahead key matched while current keys are still waiting
)

var DefaultColors = [2]openrgb.Color{
	{Red: 50, Green: 0, Blue: 0},
	{Red: 0, Green: 50, Blue: 0},
}

type Config struct {
	Devices  []string // candidate device paths, tried in order
	BaudRate int
	Open     OpenFunc

	FlushInterval time.Duration // minimal distance between a flush and next write
	Debounce      time.Duration

	Calibration Calibration
	Colors      [2]openrgb.Color
}

func DefaultConfig() Config {
	return Config{
		Devices:       []string{"/dev/ttyACM0", "/dev/ttyACM1"},
		BaudRate:      115200,
		FlushInterval: time.Millisecond * 10,
		Debounce:      time.Millisecond * 100,
		Calibration:   Calibration{AnchorLED: 71, Slope: -2},
		Colors:        DefaultColors,
	}
}

// key is the state of a single pitch.
// Slot that is not used but has clearedAt set was provisionally cleared
// by a look-ahead match and still takes part in debouncing.
type key struct {
	used      bool
	velocity  int
	channel   int
	future    int // 0: press now, >0: steps ahead
	clearedAt time.Time
}

// Tutor controls LED strip placed over piano keys.
// Every method is safe for concurrent use, state changes and device writes
// are serialized with a single mutex.
type Tutor struct {
	mutex *sync.Mutex

	keys          [Keys]key
	currentEvents int

	calibration Calibration
	colors      [2]openrgb.Color

	link       *Link
	out        bytes.Buffer
	needsFlush bool
	lastFlush  time.Time

	flushInterval time.Duration
	debounce      time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func NewTutor(cfg Config) *Tutor {
	return &Tutor{
		mutex:         &sync.Mutex{},
		calibration:   cfg.Calibration,
		colors:        cfg.Colors,
		link:          NewLink(cfg.Devices, cfg.BaudRate, cfg.Open),
		flushInterval: cfg.FlushInterval,
		debounce:      cfg.Debounce,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

func validPitch(pitch int) error {
	if pitch < 0 || pitch >= Keys {
		return fmt.Errorf("%w: %d", ErrPitchRange, pitch)
	}
	return nil
}

// AddKey lights the key for given pitch. Zero velocity is handled as a release.
// Key that is already lit is replaced only by a more imminent event (lower future),
// or by equally imminent one played stronger. Look-ahead key becoming current always wins.
func (t *Tutor) AddKey(pitch, velocity, channel, future int) error {
	if velocity == 0 {
		return t.ClearKey(pitch, false)
	}
	err := validPitch(pitch)
	if err != nil {
		return err
	}
	if future < 0 {
		future = 0
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	k := &t.keys[pitch]
	if k.used && k.velocity == velocity && k.channel == channel && k.future == future {
		return nil
	}

	led := t.calibration.PitchToLight(pitch)

	if !k.used && !k.clearedAt.IsZero() {
		if t.now().Sub(k.clearedAt) < t.debounce {
			// key was already matched by the player, lighting it again would only flicker
			*k = key{}
			t.clearLight(led)
			log.Info("Key debounced", zap.Int("pitch", pitch), zap.Int("led", led), logger.Keys)
			return t.transmit()
		}
		*k = key{}
	}

	if k.used {
		switch {
		case k.future > 0 && future == 0:
		case future < k.future:
		case future == k.future && velocity > k.velocity:
		default:
			return nil
		}
	}

	if future == 0 && (!k.used || k.future > 0) {
		t.currentEvents++
	}

	*k = key{used: true, velocity: velocity, channel: channel, future: future}
	t.setLight(led, t.colorFor(channel, future))
	log.Info(
		fmt.Sprintf("Key lit (velocity: %d, channel: %d, future: %d)", velocity, channel, future),
		zap.Int("pitch", pitch), zap.Int("led", led), logger.Keys,
	)
	return t.transmit()
}

// ClearKey turns the key off. Marked look-ahead key is cleared provisionally,
// AddKey for the same pitch shortly after is then suppressed.
func (t *Tutor) ClearKey(pitch int, mark bool) error {
	err := validPitch(pitch)
	if err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.clearKey(pitch, mark) {
		return nil
	}
	return t.transmit()
}

func (t *Tutor) clearKey(pitch int, mark bool) bool {
	k := &t.keys[pitch]
	if !k.used {
		return false
	}

	led := t.calibration.PitchToLight(pitch)
	t.clearLight(led)

	if k.future > 0 && mark {
		k.used = false
		k.clearedAt = t.now()
		log.Info("Key cleared provisionally", zap.Int("pitch", pitch), zap.Int("led", led), logger.Keys)
		return true
	}

	if k.future == 0 {
		t.currentEvents--
	}
	*k = key{}
	log.Info("Key cleared", zap.Int("pitch", pitch), zap.Int("led", led), logger.Keys)
	return true
}

// ClearKeys turns every LED off, used on playback stop and seek
func (t *Tutor) ClearKeys() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	log.Info("All keys cleared", logger.Keys)
	return t.clearAll()
}

// KeyPressed consumes lit key matching the pitch pressed by the player.
// Returns 0 for current key, look-ahead distance for a key pressed ahead of time
// (only when no current key is waiting), KeyPending when look-ahead key exists
// but current keys still wait, KeyUnmatched when nothing is lit for the pitch.
func (t *Tutor) KeyPressed(pitch, velocity int) int {
	if validPitch(pitch) != nil {
		return KeyUnmatched
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	k := t.keys[pitch]
	if !k.used {
		log.Info(fmt.Sprintf("Key pressed, unmatched (velocity: %d)", velocity), zap.Int("pitch", pitch), logger.Keys)
		return KeyUnmatched
	}

	if k.future == 0 {
		t.clearKey(pitch, false)
		t.flushPressed(pitch)
		log.Info(fmt.Sprintf("Key pressed, matched (velocity: %d)", velocity), zap.Int("pitch", pitch), logger.Keys)
		return 0
	}

	if t.currentEvents == 0 {
		t.clearKey(pitch, true)
		t.flushPressed(pitch)
		log.Info(
			fmt.Sprintf("Key pressed, matched %d steps ahead (velocity: %d)", k.future, velocity),
			zap.Int("pitch", pitch), logger.Keys,
		)
		return k.future
	}

	return KeyPending
}

// flushPressed flushes after key press, strip failure doesn't change the press result
func (t *Tutor) flushPressed(pitch int) {
	err := t.flush()
	if err != nil {
		log.Info(fmt.Sprintf("Failed to flush pressed key: %v", err), zap.Int("pitch", pitch), logger.Debug)
	}
}

// Size returns number of current keys still waiting for the player
func (t *Tutor) Size() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.currentEvents
}

// Flush shows every change sent to the strip so far
func (t *Tutor) Flush() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.flush()
}

func (t *Tutor) Color(channel int) openrgb.Color {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.colors[((channel%2)+2)%2]
}

// SetColor changes color for given channel parity, lit keys of that channel are repainted
func (t *Tutor) SetColor(channel int, c openrgb.Color) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	i := ((channel % 2) + 2) % 2
	if t.colors[i] == c {
		return nil
	}
	t.colors[i] = c

	for pitch, k := range t.keys {
		if k.used && ((k.channel%2)+2)%2 == i {
			t.setLight(t.calibration.PitchToLight(pitch), t.colorFor(k.channel, k.future))
		}
	}
	log.Info(fmt.Sprintf("Channel %d color changed: %d, %d, %d", i, c.Red, c.Green, c.Blue), logger.Action)
	return t.flush()
}

// Close turns the strip off and releases the device
func (t *Tutor) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.link.Connected() {
		t.clearAll()
	}
	return t.link.Close()
}
