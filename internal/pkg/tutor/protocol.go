package tutor

import (
	"fmt"

	"github.com/realbucksavage/openrgb-go"
)

// Line protocol understood by the strip controller:
//
//	Hllrrggbb  set LED ll to color rrggbb (hex), 000000 turns it off
//	F          show every LED change sent so far
//	c          turn every LED off and show it immediately
//
// Every command is terminated with a newline.
const (
	CmdSet      = 'H'
	CmdFlush    = 'F'
	CmdClearAll = 'c'
)

// futureDimming is the intensity divisor for look-ahead keys
const futureDimming = 8

var off = openrgb.Color{}

func (t *Tutor) setLight(led int, c openrgb.Color) {
	fmt.Fprintf(&t.out, "%c%02X%02X%02X%02X\n", CmdSet, led, c.Red, c.Green, c.Blue)
	t.needsFlush = true
}

func (t *Tutor) clearLight(led int) {
	t.setLight(led, off)
}

func (t *Tutor) colorFor(channel, future int) openrgb.Color {
	c := t.colors[((channel%2)+2)%2]
	if future > 0 {
		c.Red /= futureDimming
		c.Green /= futureDimming
		c.Blue /= futureDimming
	}
	return c
}

// throttle keeps the minimal distance between a flush and the next write
func (t *Tutor) throttle() {
	if t.lastFlush.IsZero() {
		return
	}
	for {
		elapsed := t.now().Sub(t.lastFlush)
		if elapsed >= t.flushInterval {
			return
		}
		t.sleep(t.flushInterval - elapsed)
	}
}

// transmit writes every buffered command, buffer is emptied regardless of the result
func (t *Tutor) transmit() error {
	if t.out.Len() == 0 {
		return nil
	}
	defer t.out.Reset()

	t.throttle()
	return t.link.Write(t.out.Bytes())
}

func (t *Tutor) flush() error {
	if !t.needsFlush {
		return t.transmit()
	}
	t.out.WriteByte(CmdFlush)
	t.out.WriteByte('\n')
	err := t.transmit()
	t.needsFlush = false
	t.lastFlush = t.now()
	return err
}

func (t *Tutor) clearAll() error {
	for i := range t.keys {
		t.keys[i] = key{}
	}
	t.currentEvents = 0

	t.out.Reset()
	t.out.WriteByte(CmdClearAll)
	t.out.WriteByte('\n')
	err := t.transmit()
	t.needsFlush = false
	t.lastFlush = t.now()
	return err
}
