package midi

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DeviceDirectory = "/dev/snd"

// DetectDevices lists raw MIDI devices available in given directory
func DetectDevices(dir string) ([]IODevice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing midi devices failed: %w", err)
	}

	var devices = make([]IODevice, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "midi") {
			devices = append(devices, IODevice{Path: filepath.Join(dir, entry.Name())})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Path < devices[j].Path
	})
	return devices, nil
}

type IODevice struct {
	Path string
}

func (d IODevice) String() string {
	return d.Path
}

// Open opens device for reading, only input from the instrument is needed
func (d IODevice) Open() (*os.File, error) {
	return os.OpenFile(d.Path, os.O_RDONLY, 0)
}
