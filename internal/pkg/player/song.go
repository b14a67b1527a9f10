package player

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	mmidi "github.com/moutend/go-midi"
	mmidiev "github.com/moutend/go-midi/event"
)

const DefaultPPQ = 96

// Note is a single note of the song, Start and End are absolute ticks
type Note struct {
	Start, End uint32
	Pitch      int
	Velocity   int
	Channel    int
}

// Step groups everything that happens at the same tick
type Step struct {
	Tick uint32
	On   []Note
	Off  []Note
}

type Song struct {
	Notes []Note
	PPQ   int // ticks per quarter note
}

func NewSong(notes []Note, ppq int) Song {
	if ppq <= 0 {
		ppq = DefaultPPQ
	}
	sorted := make([]Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Pitch < sorted[j].Pitch
	})
	return Song{Notes: sorted, PPQ: ppq}
}

func LoadSong(path string) (Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Song{}, fmt.Errorf("reading song failed: %w", err)
	}
	return ParseSong(data)
}

// ParseSong decodes Standard MIDI File, notes of every track are merged
func ParseSong(data []byte) (Song, error) {
	if len(data) < 14 || string(data[:4]) != "MThd" {
		return Song{}, fmt.Errorf("not a standard midi file")
	}
	division := binary.BigEndian.Uint16(data[12:14])
	if division&0x8000 != 0 {
		return Song{}, fmt.Errorf("SMPTE time division is not supported")
	}

	parser := mmidi.NewParser(data)
	m, err := parser.Parse()
	if err != nil {
		return Song{}, fmt.Errorf("parsing midi file failed: %w", err)
	}

	type openKey struct {
		channel, pitch int
	}

	var notes []Note
	for _, track := range m.Tracks {
		var tick uint32
		var open = make(map[openKey]Note)

		for _, event := range track.Events {
			tick += event.DeltaTime().Quantity().Uint32()

			switch v := event.(type) {
			case *mmidiev.NoteOnEvent:
				k := openKey{channel: int(v.Channel()), pitch: int(v.Note())}
				if n, ok := open[k]; ok {
					n.End = tick
					notes = append(notes, n)
					delete(open, k)
				}
				if v.Velocity() > 0 {
					open[k] = Note{Start: tick, Pitch: k.pitch, Velocity: int(v.Velocity()), Channel: k.channel}
				}
			case *mmidiev.NoteOffEvent:
				k := openKey{channel: int(v.Channel()), pitch: int(v.Note())}
				if n, ok := open[k]; ok {
					n.End = tick
					notes = append(notes, n)
					delete(open, k)
				}
			}
		}

		for _, n := range open {
			n.End = tick
			notes = append(notes, n)
		}
	}

	return NewSong(notes, int(division)), nil
}

// Steps returns song timeline, releases go before presses at the same tick
func (s Song) Steps() []Step {
	var byTick = make(map[uint32]*Step)
	get := func(tick uint32) *Step {
		st, ok := byTick[tick]
		if !ok {
			st = &Step{Tick: tick}
			byTick[tick] = st
		}
		return st
	}

	for _, n := range s.Notes {
		get(n.Start).On = append(get(n.Start).On, n)
		end := n.End
		if end <= n.Start {
			end = n.Start + 1
		}
		get(end).Off = append(get(end).Off, n)
	}

	steps := make([]Step, 0, len(byTick))
	for _, st := range byTick {
		steps = append(steps, *st)
	}
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].Tick < steps[j].Tick
	})
	return steps
}
