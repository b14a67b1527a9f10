package strip

import (
	"testing"

	"github.com/realbucksavage/openrgb-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	for _, tc := range []struct {
		line     string
		expected Command
		fail     bool
	}{
		{line: "H47320000", expected: Command{Type: Set, LED: 71, Color: openrgb.Color{Red: 50}}},
		{line: "H00000000", expected: Command{Type: Set, LED: 0}},
		{line: "HFF0a0B0c", expected: Command{Type: Set, LED: 255, Color: openrgb.Color{Red: 10, Green: 11, Blue: 12}}},
		{line: "F", expected: Command{Type: Flush}},
		{line: "c", expected: Command{Type: ClearAll}},
		{line: "c\r", expected: Command{Type: ClearAll}},
		{line: "", fail: true},
		{line: "H4732", fail: true},
		{line: "H4732000G", fail: true},
		{line: "Fx", fail: true},
		{line: "k071r050g000b000", fail: true},
	} {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := ParseLine([]byte(tc.line))
			if tc.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cmd)
		})
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "H47320000", Command{Type: Set, LED: 71, Color: openrgb.Color{Red: 50}}.String())
	assert.Equal(t, "F", Command{Type: Flush}.String())
	assert.Equal(t, "c", Command{Type: ClearAll}.String())
}

func TestDecoderPartialLines(t *testing.T) {
	var d Decoder

	commands, err := d.Feed([]byte("H4732"))
	require.NoError(t, err)
	assert.Empty(t, commands)

	commands, err = d.Feed([]byte("0000\nF\nH0"))
	require.NoError(t, err)
	assert.Equal(t, []Command{
		{Type: Set, LED: 71, Color: openrgb.Color{Red: 50}},
		{Type: Flush},
	}, commands)

	commands, err = d.Feed([]byte("0000000\n"))
	require.NoError(t, err)
	assert.Equal(t, []Command{{Type: Set, LED: 0}}, commands)
}

func TestDecodeUnterminated(t *testing.T) {
	commands, err := Decode([]byte("c\nH47"))
	assert.Error(t, err)
	assert.Equal(t, []Command{{Type: ClearAll}}, commands)
}
