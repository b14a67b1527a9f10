package strip

import (
	"io"
	"strings"
)

const OpenRGBScheme = "openrgb://"

// Open picks device type by its path, "openrgb://host:port/controller"
// selects OpenRGB mirror, everything else is treated as a serial device.
func Open(path string, baudRate int) (io.WriteCloser, error) {
	if strings.HasPrefix(path, OpenRGBScheme) {
		s, err := OpenOpenRGB(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return OpenSerial(path, baudRate)
}
