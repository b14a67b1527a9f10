package strip

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// OpenSerial opens serial device in raw 8-N-1 mode without flow control
func OpenSerial(path string, baudRate int) (io.WriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port \"%s\" failed: %w", path, err)
	}

	// leftovers of the previous session would corrupt the first command
	err = port.ResetOutputBuffer()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("resetting output buffer of \"%s\" failed: %w", path, err)
	}

	return port, nil
}
