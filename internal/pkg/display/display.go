package display

import (
	"fmt"
	"sync"

	device "github.com/d2r2/go-hd44780"
	"github.com/d2r2/go-i2c"
	i2cLogger "github.com/d2r2/go-logger"
	"github.com/gethiox/keytutor/internal/pkg/logger"
)

var log = logger.GetLogger()

const Width = 20

func getDisplay(addr uint8, bus int, lcdType device.LcdType) (*device.Lcd, *i2c.I2C, error) {
	i2cLogger.ChangePackageLogLevel("i2c", i2cLogger.InfoLevel)

	lcdRaw, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, nil, err
	}

	lcd, err := device.NewLcd(lcdRaw, lcdType)
	if err != nil {
		return nil, lcdRaw, err
	}

	return lcd, lcdRaw, nil
}

func loadCustomCharacters(lcd *device.Lcd, characters [][]byte) error {
	for i, char := range characters {
		var location = uint8(i) & 0x7

		err := lcd.Command(device.CMD_CGRAM_Set | (location << 3))
		if err != nil {
			return err
		}
		_, err = lcd.Write(char)
		if err != nil {
			return err
		}
	}
	return nil
}

var customCharacters = [][]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F}, // "▁"
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F}, // "▃"
	{0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▅"
	{0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▇"
	{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "█"
	{0x00, 0x01, 0x03, 0x16, 0x1C, 0x08, 0x00, 0x00}, // "✓"
	{0x00, 0x11, 0x0A, 0x04, 0x0A, 0x11, 0x00, 0x00}, // "✗"
	{0x04, 0x0E, 0x1F, 0x04, 0x04, 0x04, 0x04, 0x00}, // "↑"
}

var conversionMap = map[rune]byte{
	'▁': 0,
	'▃': 1,
	'▅': 2,
	'▇': 3,
	'█': 4,
	'✓': 5,
	'✗': 6,
	'↑': 7,
}

// Bars are the graph characters available on the display, lowest first
var Bars = []rune{'▁', '▃', '▅', '▇', '█'}

// Fit converts line into display characters padded or cut to display width
func Fit(s string) []byte {
	var line = make([]byte, 0, Width)
	for _, r := range s {
		if len(line) == Width {
			break
		}
		n, ok := conversionMap[r]
		switch {
		case ok:
			line = append(line, n)
		case r < 0x80:
			line = append(line, byte(r))
		default:
			line = append(line, '?')
		}
	}
	for len(line) < Width {
		line = append(line, ' ')
	}
	return line
}

type DisplayData struct {
	Lines [4]string
}

func HandleDisplay(wg *sync.WaitGroup, cfg ScreenConfig, dd <-chan DisplayData) {
	defer wg.Done()
	lcd, bus, err := getDisplay(cfg.Address, cfg.Bus, cfg.LcdType)
	if err != nil {
		log.Info(fmt.Sprintf("status display unavailable: %v", err), logger.Warning)
		if bus != nil {
			bus.Close()
		}
		for range dd {
		}
		return
	}
	defer bus.Close()

	err = loadCustomCharacters(lcd, customCharacters)
	if err != nil {
		log.Info(fmt.Sprintf("loading display characters failed: %v", err), logger.Warning)
	}

	lcd.BacklightOn()
	lcd.Clear()

	for data := range dd {
		for i, s := range data.Lines {
			lcd.SetPosition(i, 0)
			lcd.Write(Fit(s))
		}
	}

	if cfg.HaveExitMessage() {
		for i, s := range cfg.ExitMessage {
			lcd.SetPosition(i, 0)
			lcd.Write(Fit(s))
		}
	} else {
		lcd.Clear()
		lcd.BacklightOff()
	}
	log.Info("display closed", logger.Debug)
}
