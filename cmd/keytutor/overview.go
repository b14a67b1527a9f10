package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/keytutor/internal/pkg/display"
	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
	"github.com/logrusorgru/aurora"
)

func connectionString(au aurora.Aurora, s tutor.Status) string {
	if s.Connected {
		return fmt.Sprintf("%s %s", au.Green("connected:"), colorForString(au, s.Device))
	}
	reason := "not connected yet"
	if s.LastError != nil {
		reason = s.LastError.Error()
	}
	return fmt.Sprintf("%s %s", au.Red("offline:"), reason)
}

func overviewLines(au aurora.Aurora, s tutor.Status, keys []string, total, misses uint) []string {
	return []string{
		fmt.Sprintf("strip    %s (write failures: %d)", connectionString(au, s), s.Failures),
		fmt.Sprintf(
			"mapping  middle C on LED %d, %.2f LEDs per semitone",
			s.Calibration.AnchorLED, s.Calibration.Slope,
		),
		fmt.Sprintf("keys     waiting: %d, lit: %d", s.CurrentEvents, s.LitKeys),
		fmt.Sprintf("played   %d keys, %d unmatched", total, misses),
		fmt.Sprintf("recent   %s", strings.Join(keys, " ")),
	}
}

func overviewView(g *gocui.Gui, colors bool, t *tutor.Tutor, pressed *PressedKeys) {
	view, err := g.View(ViewOverview)
	if err != nil {
		log.Info(fmt.Sprintf("overview unavailable: %v", err), logger.Error)
		return
	}

	au := aurora.NewAurora(colors)

	for {
		keys, total, misses := pressed.Snapshot()
		viewData := overviewLines(au, t.Status(), keys, total, misses)

		x, y := view.Size()
		view.Rewind()
		for i := 0; i < y; i++ {
			var line string
			if i < len(viewData) {
				line = viewData[i]
			}
			free := x - rawStringLen(line)
			if free < 0 {
				free = 0
			}
			view.Write([]byte(line + strings.Repeat(" ", free)))
			view.Write([]byte{'\n'})
		}
		time.Sleep(time.Millisecond * 250)
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		panic(err)
	}

	buf := newLogBuffer(bufSize)

	var newMessage = make(chan bool, 1)
	var done = make(chan bool)

	go func() {
		var lastX, lastY int
		ticker := time.NewTicker(time.Millisecond * 100)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			x, y := feeder.view.Size()
			if x != lastX || y != lastY {
				lastX, lastY = x, y
				select {
				case newMessage <- true:
				default:
				}
			}
		}
	}()

	go func() {
		for msg := range logger.Messages {
			buf.WriteMessage(msg)
			select {
			case newMessage <- true:
			default:
			}
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		case <-newMessage:
		}
		_, y := feeder.view.Size()
		lastMessages := buf.ReadLastMessages(y)
		g.Update(func(g *gocui.Gui) error {
			feeder.view.Clear()
			for _, msg := range lastMessages {
				feeder.Write(msg)
			}
			return nil
		})
	}
}

func lcdView(g *gocui.Gui, dd <-chan display.DisplayData) {
	view, err := g.View(ViewLCD)
	if err != nil {
		for range dd {
		}
		return
	}

	for data := range dd {
		view.Rewind()
		for _, s := range data.Lines {
			view.Write([]byte(s))
			view.Write([]byte{'\n'})
		}
	}
}
