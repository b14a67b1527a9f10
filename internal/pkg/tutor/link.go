package tutor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrOffline    = errors.New("light strip offline")
	ErrPitchRange = errors.New("pitch outside of 0-255 range")
)

// OpenFunc opens a device under given path, configured for given baud rate
type OpenFunc func(path string, baudRate int) (io.WriteCloser, error)

type drainer interface {
	Drain() error
}

// Link is a lazily established connection to the strip controller.
// It is not safe for concurrent use, Tutor serializes every call.
type Link struct {
	paths    []string
	baudRate int
	open     OpenFunc

	port io.WriteCloser
	path string

	lastErr  error
	failures int
	reported bool // offline state already logged
}

func NewLink(paths []string, baudRate int, open OpenFunc) *Link {
	return &Link{
		paths:    paths,
		baudRate: baudRate,
		open:     open,
	}
}

func (l *Link) Connected() bool {
	return l.port != nil
}

// connect tries every candidate path in order, first one that opens wins
func (l *Link) connect() error {
	if l.port != nil {
		return nil
	}
	if l.open == nil {
		l.lastErr = fmt.Errorf("%w: no device opener", ErrOffline)
		return l.lastErr
	}

	var reasons []string
	for _, path := range l.paths {
		port, err := l.open(path, l.baudRate)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		l.port, l.path = port, path
		l.lastErr = nil
		l.reported = false
		log.Info(fmt.Sprintf("Light strip connected (%d baud)", l.baudRate), zap.String("device", path), logger.Info)
		return nil
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no device paths configured")
	}
	l.lastErr = fmt.Errorf("%w: %s", ErrOffline, strings.Join(reasons, "; "))
	if !l.reported {
		log.Info(fmt.Sprintf("Light strip unavailable: %s", l.lastErr), logger.Warning)
		l.reported = true
	}
	return l.lastErr
}

// Write sends data to the device, connecting first when necessary.
// Any failure closes the connection so the next call starts from scratch.
func (l *Link) Write(data []byte) error {
	err := l.connect()
	if err != nil {
		return err
	}

	log.Info(fmt.Sprintf("Writing to device: %q", data), zap.String("device", l.path), logger.Device)

	for len(data) > 0 {
		n, err := l.port.Write(data)
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			return l.reset(err)
		}
		data = data[n:]
	}

	if d, ok := l.port.(drainer); ok {
		err = d.Drain()
		if err != nil {
			return l.reset(err)
		}
	}
	return nil
}

func (l *Link) reset(cause error) error {
	l.failures++
	l.lastErr = fmt.Errorf("%w: write to \"%s\" failed: %v", ErrOffline, l.path, cause)
	log.Info(l.lastErr.Error(), zap.String("device", l.path), logger.Error)

	err := l.port.Close()
	if err != nil {
		log.Info(fmt.Sprintf("closing device failed: %v", err), zap.String("device", l.path), logger.Debug)
	}
	l.port, l.path = nil, ""
	return l.lastErr
}

// Close releases the device, next Write opens it again
func (l *Link) Close() error {
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port, l.path = nil, ""
	return err
}
