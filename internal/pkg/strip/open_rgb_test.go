package strip

import (
	"errors"
	"testing"

	"github.com/realbucksavage/openrgb-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpenRGB struct {
	updates [][]openrgb.Color
	index   int
	fail    error
	closed  bool
}

func (f *fakeOpenRGB) UpdateLEDs(index int, colors []openrgb.Color) error {
	if f.fail != nil {
		return f.fail
	}
	f.index = index
	update := make([]openrgb.Color, len(colors))
	copy(update, colors)
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeOpenRGB) Close() error {
	f.closed = true
	return nil
}

func TestParseOpenRGBPath(t *testing.T) {
	for _, tc := range []struct {
		path       string
		host       string
		port       int
		controller int
		fail       bool
	}{
		{path: "openrgb://", host: "localhost", port: 6742},
		{path: "openrgb://localhost:6743/2", host: "localhost", port: 6743, controller: 2},
		{path: "openrgb://10.0.0.5/1", host: "10.0.0.5", port: 6742, controller: 1},
		{path: "openrgb://host/abc", fail: true},
		{path: "serial://host/1", fail: true},
	} {
		t.Run(tc.path, func(t *testing.T) {
			host, port, controller, err := ParseOpenRGBPath(tc.path)
			if tc.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.host, host)
			assert.Equal(t, tc.port, port)
			assert.Equal(t, tc.controller, controller)
		})
	}
}

func TestOpenRGBStripShowsOnFlush(t *testing.T) {
	client := &fakeOpenRGB{}
	s := newOpenRGBStrip(client, 3, 4)

	n, err := s.Write([]byte("H01320000\nH09003200\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Empty(t, client.updates, "nothing is shown before flush")

	_, err = s.Write([]byte("F\n"))
	require.NoError(t, err)
	require.Len(t, client.updates, 1)
	assert.Equal(t, 3, client.index)
	assert.Equal(t, []openrgb.Color{{}, {Red: 50}, {}, {}}, client.updates[0])

	_, err = s.Write([]byte("c\n"))
	require.NoError(t, err)
	require.Len(t, client.updates, 2)
	assert.Equal(t, make([]openrgb.Color, 4), client.updates[1])

	require.NoError(t, s.Close())
	assert.True(t, client.closed)
}

func TestOpenRGBStripErrors(t *testing.T) {
	client := &fakeOpenRGB{fail: errors.New("connection reset")}
	s := newOpenRGBStrip(client, 0, 4)

	_, err := s.Write([]byte("H01320000\nF\n"))
	assert.Error(t, err)

	_, err = s.Write([]byte("bogus\n"))
	assert.Error(t, err)
}
