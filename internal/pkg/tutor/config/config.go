package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/realbucksavage/openrgb-go"
	"gopkg.in/yaml.v3"
)

var log = logger.GetLogger()

var ErrInvalidProfile = errors.New("invalid profile")

type YamlProfile struct {
	Calibration struct {
		AnchorLED *int     `yaml:"anchor_led"`
		Slope     *float64 `yaml:"slope"`
	} `yaml:"calibration"`
	Colors struct {
		Even string `yaml:"even"`
		Odd  string `yaml:"odd"`
	} `yaml:"colors"`
}

// Profile holds user adjustable tutor settings, stand-in for configuration panel
type Profile struct {
	Calibration tutor.Calibration
	Colors      [2]openrgb.Color
}

func DefaultProfile() Profile {
	cfg := tutor.DefaultConfig()
	return Profile{
		Calibration: cfg.Calibration,
		Colors:      cfg.Colors,
	}
}

func (p Profile) String() string {
	return fmt.Sprintf(
		"anchor LED: %d, slope: %.2f, colors: %s, %s",
		p.Calibration.AnchorLED, p.Calibration.Slope,
		colorToHex(p.Colors[0]), colorToHex(p.Colors[1]),
	)
}

func colorToHex(c openrgb.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

func parseColor(s string) (openrgb.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return openrgb.Color{}, err
	}
	r, g, b := c.RGB255()
	return openrgb.Color{Red: r, Green: g, Blue: b}, nil
}

// ParseData decodes profile, settings missing in data keep their default value
func ParseData(data []byte) (Profile, error) {
	var yp YamlProfile
	profile := DefaultProfile()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&yp)
	if err != nil && err != io.EOF {
		return profile, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	calibration := profile.Calibration
	if yp.Calibration.AnchorLED != nil {
		calibration.AnchorLED = *yp.Calibration.AnchorLED
	}
	if yp.Calibration.Slope != nil {
		calibration.Slope = *yp.Calibration.Slope
	}
	err = calibration.Validate()
	if err != nil {
		return profile, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	profile.Calibration = calibration

	for i, s := range []string{yp.Colors.Even, yp.Colors.Odd} {
		if s == "" {
			continue
		}
		c, err := parseColor(s)
		if err != nil {
			return profile, fmt.Errorf("%w: color \"%s\": %v", ErrInvalidProfile, s, err)
		}
		profile.Colors[i] = c
	}

	return profile, nil
}

// LoadProfile reads profile from given path, missing file results in default profile
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info(fmt.Sprintf("profile \"%s\" not found, using defaults", path), logger.Warning)
			return DefaultProfile(), nil
		}
		return DefaultProfile(), fmt.Errorf("reading profile failed: %w", err)
	}
	return ParseData(data)
}

// Marshal encodes profile in the same format ParseData accepts
func (p Profile) Marshal() ([]byte, error) {
	var yp YamlProfile
	anchor, slope := p.Calibration.AnchorLED, p.Calibration.Slope
	yp.Calibration.AnchorLED = &anchor
	yp.Calibration.Slope = &slope
	yp.Colors.Even = colorToHex(p.Colors[0])
	yp.Colors.Odd = colorToHex(p.Colors[1])
	return yaml.Marshal(yp)
}

// SaveProfile writes profile, used to persist calibration done with the wizard.
// Calibration that ParseData would reject is not written.
func SaveProfile(path string, p Profile) error {
	err := p.Calibration.Validate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("writing profile failed: %w", err)
	}
	return nil
}

// Setter is the part of the tutor that profile changes are applied through
type Setter interface {
	SetCalibration(c tutor.Calibration) error
	SetColor(channel int, c openrgb.Color) error
}

// Apply pushes profile into running tutor
func (p Profile) Apply(s Setter) error {
	var errs []error
	err := s.SetCalibration(p.Calibration)
	if err != nil {
		errs = append(errs, err)
	}
	for channel, c := range p.Colors {
		err = s.SetColor(channel, c)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("applying profile: %w", errs[0])
	}
	return nil
}
