package strip

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/realbucksavage/openrgb-go"
)

type CommandType byte

const (
	Set      CommandType = 'H'
	Flush    CommandType = 'F'
	ClearAll CommandType = 'c'
)

type Command struct {
	Type  CommandType
	LED   int
	Color openrgb.Color
}

func (c Command) String() string {
	switch c.Type {
	case Set:
		return fmt.Sprintf("H%02X%02X%02X%02X", c.LED, c.Color.Red, c.Color.Green, c.Color.Blue)
	case Flush, ClearAll:
		return string(c.Type)
	default:
		return fmt.Sprintf("unknown command: 0x%02x", byte(c.Type))
	}
}

// ParseLine decodes single protocol line without the trailing newline
func ParseLine(line []byte) (Command, error) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return Command{}, fmt.Errorf("empty line")
	}

	switch t := CommandType(line[0]); t {
	case Flush, ClearAll:
		if len(line) != 1 {
			return Command{}, fmt.Errorf("unexpected arguments for \"%c\": %q", t, line[1:])
		}
		return Command{Type: t}, nil
	case Set:
		if len(line) != 9 {
			return Command{}, fmt.Errorf("expected 8 hex digits, got %q", line[1:])
		}
		var values [4]byte
		for i := range values {
			v, err := strconv.ParseUint(string(line[1+i*2:3+i*2]), 16, 8)
			if err != nil {
				return Command{}, fmt.Errorf("parsing hex value failed: %w", err)
			}
			values[i] = byte(v)
		}
		return Command{
			Type:  Set,
			LED:   int(values[0]),
			Color: openrgb.Color{Red: values[1], Green: values[2], Blue: values[3]},
		}, nil
	default:
		return Command{}, fmt.Errorf("unsupported command: %q", line)
	}
}

// Decoder splits written byte stream into commands, partial lines are kept
// until the rest of them arrives.
type Decoder struct {
	pending []byte
}

func (d *Decoder) Feed(data []byte) ([]Command, error) {
	d.pending = append(d.pending, data...)

	var commands []Command
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := d.pending[:i]
		d.pending = d.pending[i+1:]

		cmd, err := ParseLine(line)
		if err != nil {
			return commands, err
		}
		commands = append(commands, cmd)
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return commands, nil
}

// Decode parses complete protocol stream
func Decode(data []byte) ([]Command, error) {
	var d Decoder
	commands, err := d.Feed(data)
	if err != nil {
		return commands, err
	}
	if len(d.pending) > 0 {
		return commands, fmt.Errorf("unterminated line: %q", d.pending)
	}
	return commands, nil
}
