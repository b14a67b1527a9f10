package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	// message types
	NoteOff               uint8 = 0b1000 << 4
	NoteOn                uint8 = 0b1001 << 4
	PolyphonicKeyPressure uint8 = 0b1010 << 4 // After-touch
	ControlChange         uint8 = 0b1011 << 4
	ProgramChange         uint8 = 0b1100 << 4
	ChannelPressure       uint8 = 0b1101 << 4 // After-touch
	PitchWheelChange      uint8 = 0b1110 << 4

	// ControlChange
	AllSoundOff         uint8 = 0b01111000
	ResetAllControllers uint8 = 0b01111001
	AllNotesOff         uint8 = 0b01111011
)

type Event []byte

func (e Event) String() string {
	if len(e) == 0 {
		return "empty event"
	}
	channel := e[0]&0b1111 + 1
	switch x := e[0] & 0b11110000; x {
	case NoteOff:
		return fmt.Sprintf("Note Off: %s (channel: %2d, velocity: %3d)", NoteName(e[1]), channel, e[2])
	case NoteOn:
		return fmt.Sprintf("Note On : %s (channel: %2d, velocity: %3d)", NoteName(e[1]), channel, e[2])
	case PolyphonicKeyPressure:
		return fmt.Sprintf("Polyphonic Key Pressure: %s (channel: %2d, pressure: %3d)", NoteName(e[1]), channel, e[2])
	case ControlChange:
		return fmt.Sprintf("Control Change: %3d, value: %3d (channel: %2d)", e[1], e[2], channel)
	case ProgramChange:
		return fmt.Sprintf("Program Change: %3d (channel: %2d)", e[1], channel)
	case ChannelPressure:
		return fmt.Sprintf("Channel Pressure: %3d (channel: %2d)", e[1], channel)
	case PitchWheelChange:
		val := float64((int(e[2])<<7)+int(e[1])-8192) / 8192 // max value: 16383, middle value (no pitch change): 8192
		return fmt.Sprintf("Pitch Bend: %4.0f%% (channel: %2d)", val*100, channel)
	default:
		msg := "unexpected event format:"
		for _, v := range e {
			msg += fmt.Sprintf(" 0x%02x", v)
		}
		return msg
	}
}

func NoteEvent(messageType, channel, note, velocity uint8) Event {
	return Event{messageType | channel, note, velocity}
}

func ControlChangeEvent(channel, function, value uint8) Event {
	return Event{ControlChange | channel, function, value}
}

// Note is a decoded note start or end, channel is zero-based
type Note struct {
	Channel  uint8
	Key      uint8
	Velocity uint8 // always 0 for note end
	On       bool
}

// Note decodes note start or end, Note On with zero velocity is a note end
func (e Event) Note() (Note, bool) {
	var ch, key, vel uint8
	msg := gomidi.Message(e)
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Note{Channel: ch, Key: key, Velocity: vel, On: true}, true
	case msg.GetNoteEnd(&ch, &key):
		return Note{Channel: ch, Key: key}, true
	default:
		return Note{}, false
	}
}

// IsAllNotesOff reports controller messages that are meant to silence every note
func (e Event) IsAllNotesOff() bool {
	if len(e) != 3 || e[0]&0b11110000 != ControlChange {
		return false
	}
	return e[1] == AllNotesOff || e[1] == AllSoundOff
}
