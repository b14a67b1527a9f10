package midi

import (
	"context"
	"errors"
	"io"
	"os"
)

// Framer splits raw MIDI byte stream into channel messages.
// Running status is supported, realtime, system common and sysex messages are skipped.
type Framer struct {
	status byte
	data   []byte
	sysex  bool
}

func dataLength(status byte) int {
	switch status & 0xF0 {
	case ProgramChange, ChannelPressure:
		return 1
	case 0xF0:
		switch status {
		case 0xF1, 0xF3: // time code quarter frame, song select
			return 1
		case 0xF2: // song position
			return 2
		default:
			return 0
		}
	default:
		return 2
	}
}

// Feed consumes single byte, returns an event when the byte completed one
func (f *Framer) Feed(b byte) (Event, bool) {
	switch {
	case b >= 0xF8: // realtime, may appear anywhere
		return nil, false
	case b == 0xF0:
		f.sysex = true
		f.status = 0
		return nil, false
	case b == 0xF7:
		f.sysex = false
		return nil, false
	case b >= 0x80:
		f.sysex = false
		f.status = b
		f.data = f.data[:0]
		if dataLength(b) == 0 {
			f.status = 0
		}
		return nil, false
	}

	if f.sysex || f.status == 0 {
		return nil, false
	}

	f.data = append(f.data, b)
	if len(f.data) < dataLength(f.status) {
		return nil, false
	}

	ev := make(Event, 0, len(f.data)+1)
	ev = append(ev, f.status)
	ev = append(ev, f.data...)
	f.data = f.data[:0]
	if f.status >= 0xF0 { // no running status for system common
		f.status = 0
		return nil, false
	}
	return ev, true
}

// ReadEvents reads channel messages until reader is exhausted or context is done.
// Blocked read is not interrupted by the context, closing the reader does that.
func ReadEvents(ctx context.Context, r io.Reader, events chan<- Event) error {
	var framer Framer
	var buf = make([]byte, 64)

	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			ev, ok := framer.Feed(b)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
