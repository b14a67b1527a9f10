package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/keytutor/internal/pkg/display"
	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/player"
	"github.com/gethiox/keytutor/internal/pkg/strip"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
	"github.com/go-ini/ini"
)

type UI struct {
	LogViewRate   time.Duration
	LogBufferSize int
}

type KeyTutorConfig struct {
	Tutor         tutor.Config
	IdleFlushRate time.Duration
	Player        player.Options
	Screen        display.ScreenConfig
	UI            UI
}

func (c KeyTutorConfig) String() string {
	return fmt.Sprintf(
		"devices: %s, baud rate: %d, flush interval: %s, debounce: %s, player: %+v",
		strings.Join(c.Tutor.Devices, ","), c.Tutor.BaudRate,
		c.Tutor.FlushInterval, c.Tutor.Debounce, c.Player,
	)
}

func positive(key *ini.Key) (int, error) {
	i, err := key.Int()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key.Name(), err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("%s: expected positive value, got %d", key.Name(), i)
	}
	return i, nil
}

func ParseConfig(data []byte) (KeyTutorConfig, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return KeyTutorConfig{}, err
	}

	var c KeyTutorConfig
	c.Tutor = tutor.DefaultConfig()
	c.Tutor.Open = strip.Open
	c.Player = player.DefaultOptions()

	// [tutor]
	section, err := cfg.GetSection("tutor")
	if err != nil {
		return c, err
	}
	devices := section.Key("devices")
	var paths []string
	for _, p := range devices.Strings(",") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return c, errors.New("devices: at least one device path is required")
	}
	c.Tutor.Devices = paths

	baudRate := section.Key("baud_rate")
	c.Tutor.BaudRate, err = positive(baudRate)
	if err != nil {
		return c, err
	}

	flushInterval := section.Key("flush_interval")
	i, err := flushInterval.Int()
	if err != nil {
		return c, fmt.Errorf("flush_interval: %w", err)
	}
	c.Tutor.FlushInterval = time.Millisecond * time.Duration(i)

	debounce := section.Key("debounce")
	i, err = debounce.Int()
	if err != nil {
		return c, fmt.Errorf("debounce: %w", err)
	}
	c.Tutor.Debounce = time.Millisecond * time.Duration(i)

	idleFlushRate := section.Key("idle_flush_rate")
	i, err = positive(idleFlushRate)
	if err != nil {
		return c, err
	}
	c.IdleFlushRate = time.Second / time.Duration(i)

	// [player]
	section, err = cfg.GetSection("player")
	if err != nil {
		return c, err
	}
	enabled := section.Key("enabled")
	c.Player.Enabled, err = enabled.Bool()
	if err != nil {
		return c, fmt.Errorf("enabled: %w", err)
	}
	wait := section.Key("wait")
	c.Player.Wait, err = wait.Bool()
	if err != nil {
		return c, fmt.Errorf("wait: %w", err)
	}
	lookAhead := section.Key("look_ahead")
	c.Player.LookAhead, err = lookAhead.Int()
	if err != nil {
		return c, fmt.Errorf("look_ahead: %w", err)
	}
	bpm := section.Key("bpm")
	c.Player.BPM, err = positive(bpm)
	if err != nil {
		return c, err
	}

	// [screen]
	section, err = cfg.GetSection("screen")
	if err != nil {
		return c, err
	}
	screenSupport := section.Key("enabled")
	c.Screen.Enabled, err = screenSupport.Bool()
	if err != nil {
		return c, fmt.Errorf("enabled: %w", err)
	}

	screenType := section.Key("type")
	switch t := screenType.Value(); t {
	case "16x2":
		c.Screen.LcdType = hd44780.LCD_16x2
	case "20x4":
		c.Screen.LcdType = hd44780.LCD_20x4
	default:
		return c, fmt.Errorf("type: unsupported screen type \"%s\"", t)
	}

	screenBus := section.Key("bus")
	c.Screen.Bus, err = screenBus.Int()
	if err != nil {
		return c, fmt.Errorf("bus: %w", err)
	}
	screenAddress := section.Key("address")
	i, err = screenAddress.Int()
	if err != nil {
		return c, fmt.Errorf("address: %w", err)
	}
	c.Screen.Address = uint8(i)

	updateRate := section.Key("update_rate")
	i, err = positive(updateRate)
	if err != nil {
		return c, err
	}
	c.Screen.UpdateRate = time.Second / time.Duration(i)

	for n := range c.Screen.ExitMessage {
		message := section.Key(fmt.Sprintf("exit_message%d", n+1))
		c.Screen.ExitMessage[n] = message.String()
	}

	// [ui]
	section, err = cfg.GetSection("ui")
	if err != nil {
		return c, err
	}
	logViewRate := section.Key("log_view_rate")
	i, err = positive(logViewRate)
	if err != nil {
		return c, err
	}
	c.UI.LogViewRate = time.Second / time.Duration(i)

	logBufferSize := section.Key("log_buffer_size")
	c.UI.LogBufferSize, err = positive(logBufferSize)
	if err != nil {
		return c, err
	}

	return c, nil
}

func LoadConfig(path string) KeyTutorConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		panic(fmt.Errorf("invalid config \"%s\": %w", path, err))
	}
	return c
}

//go:embed keytutor.config
var templateConfig []byte

//go:embed profile.yaml
var templateProfile []byte

// createFilesIfNeeded writes default config and profile when they do not exist yet
func createFilesIfNeeded(configPath, profilePath string) error {
	for _, f := range []struct {
		path string
		data []byte
	}{
		{path: configPath, data: templateConfig},
		{path: profilePath, data: templateProfile},
	} {
		_, err := os.Stat(f.path)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access \"%s\": %w", f.path, err)
		}

		err = os.WriteFile(f.path, f.data, 0o644)
		if err != nil {
			return fmt.Errorf("cannot create \"%s\": %w", f.path, err)
		}
		log.Info(fmt.Sprintf("Created \"%s\" file", f.path), logger.Info)
	}
	return nil
}
