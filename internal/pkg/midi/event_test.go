package midi

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteName(t *testing.T) {
	for _, tc := range []struct {
		note     byte
		expected string
	}{
		{note: 0, expected: "C -1"},
		{note: 1, expected: "C#-1"},
		{note: 11, expected: "B -1"},
		{note: 12, expected: "C  0"},
		{note: 21, expected: "A  0"},
		{note: 59, expected: "B  3"},
		{note: 60, expected: "C  4"},
		{note: 61, expected: "C# 4"},
		{note: 69, expected: "A  4"},
		{note: 108, expected: "C  8"},
		{note: 127, expected: "G  9"},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoteName(tc.note))
		})
	}
}

func TestStringToNote(t *testing.T) {
	for _, tc := range []struct {
		string   string
		expected byte
	}{
		{string: "c-1", expected: 0},
		{string: "C-1", expected: 0},
		{string: "c#-1", expected: 1},
		{string: "a0", expected: 21},
		{string: "C4", expected: 60},
		{string: "c#4", expected: 61},
		{string: "g9", expected: 127},
		{string: "G9", expected: 127},
	} {
		t.Run(tc.string, func(t *testing.T) {
			note, err := StringToNote(tc.string)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, note)
		})
	}
}

func TestStringToNoteFail(t *testing.T) {
	for _, tc := range []string{
		"b-2", // outside of bottom range
		"g#9", // outside of upper range
		"e#4",
		"",
		" c4",
		"c4 ",
		"junk text c4",
	} {
		t.Run(tc, func(t *testing.T) {
			note, err := StringToNote(tc)
			assert.Equal(t, byte(0), note)
			assert.Error(t, err)
		})
	}
}

func TestEvent_String(t *testing.T) {
	for _, tc := range []struct {
		midiEvent Event
		expected  string
	}{
		{
			midiEvent: Event{0b10000000, 60, 0},
			expected:  "Note Off: C  4 (channel:  1, velocity:   0)",
		}, {
			midiEvent: Event{0b10011111, 61, 127},
			expected:  "Note On : C# 4 (channel: 16, velocity: 127)",
		}, {
			midiEvent: Event{0b10100000, 0, 5},
			expected:  "Polyphonic Key Pressure: C -1 (channel:  1, pressure:   5)",
		}, {
			midiEvent: Event{0b10111111, AllNotesOff, 0},
			expected:  "Control Change: 123, value:   0 (channel: 16)",
		}, {
			midiEvent: Event{0b11000001, 1},
			expected:  "Program Change:   1 (channel:  2)",
		}, {
			midiEvent: Event{0b11010000, 127},
			expected:  "Channel Pressure: 127 (channel:  1)",
		}, {
			midiEvent: Event{0b11100000, 0b00000000, 0b01000000},
			expected:  "Pitch Bend:    0% (channel:  1)",
		}, {
			midiEvent: Event{0b11101111, 0b00000000, 0b00100000},
			expected:  "Pitch Bend:  -50% (channel: 16)",
		}, {
			midiEvent: Event{0xF2, 0x01, 0x02},
			expected:  "unexpected event format: 0xf2 0x01 0x02",
		},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.midiEvent.String())
		})
	}
}

func TestEvent_Note(t *testing.T) {
	for _, tc := range []struct {
		name     string
		event    Event
		note     Note
		expected bool
	}{
		{name: "note on", event: NoteEvent(NoteOn, 1, 60, 100), note: Note{Channel: 1, Key: 60, Velocity: 100, On: true}, expected: true},
		{name: "note off", event: NoteEvent(NoteOff, 0, 62, 64), note: Note{Channel: 0, Key: 62}, expected: true},
		{name: "note on zero velocity", event: NoteEvent(NoteOn, 3, 64, 0), note: Note{Channel: 3, Key: 64}, expected: true},
		{name: "control change", event: ControlChangeEvent(0, 64, 127), expected: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			note, ok := tc.event.Note()
			assert.Equal(t, tc.expected, ok)
			assert.Equal(t, tc.note, note)
		})
	}
}

func TestEvent_IsAllNotesOff(t *testing.T) {
	assert.True(t, ControlChangeEvent(2, AllNotesOff, 0).IsAllNotesOff())
	assert.True(t, ControlChangeEvent(0, AllSoundOff, 0).IsAllNotesOff())
	assert.False(t, ControlChangeEvent(0, 64, 0).IsAllNotesOff())
	assert.False(t, NoteEvent(NoteOn, 0, AllNotesOff, 1).IsAllNotesOff())
}

func TestFramer(t *testing.T) {
	for _, tc := range []struct {
		name     string
		data     []byte
		expected []Event
	}{
		{
			name:     "single note",
			data:     []byte{0x90, 60, 100},
			expected: []Event{{0x90, 60, 100}},
		}, {
			name:     "running status",
			data:     []byte{0x91, 60, 100, 62, 90, 60, 0},
			expected: []Event{{0x91, 60, 100}, {0x91, 62, 90}, {0x91, 60, 0}},
		}, {
			name:     "realtime inside message",
			data:     []byte{0x90, 0xF8, 60, 0xFE, 100},
			expected: []Event{{0x90, 60, 100}},
		}, {
			name:     "sysex skipped",
			data:     []byte{0xF0, 0x7E, 0x00, 0x09, 0xF7, 0x80, 60, 0},
			expected: []Event{{0x80, 60, 0}},
		}, {
			name:     "sysex clears running status",
			data:     []byte{0x90, 60, 100, 0xF0, 0x01, 0xF7, 62, 100},
			expected: []Event{{0x90, 60, 100}},
		}, {
			name:     "program change",
			data:     []byte{0xC0, 5, 6},
			expected: []Event{{0xC0, 5}, {0xC0, 6}},
		}, {
			name:     "system common skipped",
			data:     []byte{0xF2, 0x10, 0x20, 0x30, 0xB0, 123, 0},
			expected: []Event{{0xB0, 123, 0}},
		}, {
			name:     "stray data bytes",
			data:     []byte{60, 100, 0x90, 61},
			expected: nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var framer Framer
			var events []Event
			for _, b := range tc.data {
				ev, ok := framer.Feed(b)
				if ok {
					events = append(events, ev)
				}
			}
			assert.Equal(t, tc.expected, events)
		})
	}
}

func TestReadEvents(t *testing.T) {
	events := make(chan Event, 10)
	r := strings.NewReader(string([]byte{0x90, 60, 100, 60, 0, 0xF8}))

	err := ReadEvents(context.Background(), r, events)
	require.NoError(t, err)
	close(events)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	assert.Equal(t, []Event{{0x90, 60, 100}, {0x90, 60, 0}}, got)
}

func TestDetectDevices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"midiC1D0", "controlC0", "midiC0D0"} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "midiDir"), 0o755))

	devices, err := DetectDevices(dir)
	require.NoError(t, err)
	assert.Equal(t, []IODevice{
		{Path: filepath.Join(dir, "midiC0D0")},
		{Path: filepath.Join(dir, "midiC1D0")},
	}, devices)

	_, err = DetectDevices(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
