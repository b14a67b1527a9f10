package strip

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/realbucksavage/openrgb-go"
)

var log = logger.GetLogger()

const defaultOpenRGBPort = 6742

type openRGBClient interface {
	UpdateLEDs(index int, colors []openrgb.Color) error
	Close() error
}

// OpenRGBStrip mirrors the light strip protocol onto OpenRGB controller,
// so any addressable strip supported by OpenRGB can be used instead of the serial one.
type OpenRGBStrip struct {
	client  openRGBClient
	index   int
	staged  []openrgb.Color
	shown   []openrgb.Color
	decoder Decoder
}

// ParseOpenRGBPath splits "openrgb://host:port/controller" into its parts,
// port defaults to 6742 and controller to 0
func ParseOpenRGBPath(path string) (host string, port, controller int, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("parsing \"%s\" failed: %w", path, err)
	}
	if u.Scheme+"://" != OpenRGBScheme {
		return "", 0, 0, fmt.Errorf("unexpected scheme: \"%s\"", u.Scheme)
	}

	host = u.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = defaultOpenRGBPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, 0, fmt.Errorf("parsing port failed: %w", err)
		}
	}

	if c := strings.Trim(u.Path, "/"); c != "" {
		controller, err = strconv.Atoi(c)
		if err != nil {
			return "", 0, 0, fmt.Errorf("parsing controller index failed: %w", err)
		}
	}
	return host, port, controller, nil
}

func OpenOpenRGB(path string) (*OpenRGBStrip, error) {
	host, port, index, err := ParseOpenRGBPath(path)
	if err != nil {
		return nil, err
	}

	c, err := openrgb.Connect(host, port)
	if err != nil {
		return nil, fmt.Errorf("[OpenRGB] cannot connect to %s:%d: %w", host, port, err)
	}

	count, err := c.GetControllerCount()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("[OpenRGB] failed to get controller count: %w", err)
	}
	if index >= count {
		c.Close()
		return nil, fmt.Errorf("[OpenRGB] controller %d not available, %d in total", index, count)
	}

	dev, err := c.GetDeviceController(index)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("[OpenRGB] getting controller information failed: %w", err)
	}

	log.Info(fmt.Sprintf("[OpenRGB] Controller found: %s, index: %d, LEDs: %d", dev.Name, index, len(dev.Colors)), logger.Debug)
	return newOpenRGBStrip(c, index, len(dev.Colors)), nil
}

func newOpenRGBStrip(c openRGBClient, index, leds int) *OpenRGBStrip {
	return &OpenRGBStrip{
		client: c,
		index:  index,
		staged: make([]openrgb.Color, leds),
		shown:  make([]openrgb.Color, leds),
	}
}

// Write decodes protocol commands, LEDs outside of the controller range are ignored
func (s *OpenRGBStrip) Write(p []byte) (int, error) {
	commands, err := s.decoder.Feed(p)
	if err != nil {
		return 0, fmt.Errorf("[OpenRGB] %w", err)
	}

	for _, cmd := range commands {
		switch cmd.Type {
		case Set:
			if cmd.LED < len(s.staged) {
				s.staged[cmd.LED] = cmd.Color
			}
		case ClearAll:
			for i := range s.staged {
				s.staged[i] = openrgb.Color{}
			}
			err = s.show()
		case Flush:
			err = s.show()
		}
		if err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (s *OpenRGBStrip) show() error {
	copy(s.shown, s.staged)
	err := s.client.UpdateLEDs(s.index, s.shown)
	if err != nil {
		return fmt.Errorf("[OpenRGB] led update failed: %w", err)
	}
	return nil
}

func (s *OpenRGBStrip) Close() error {
	return s.client.Close()
}
