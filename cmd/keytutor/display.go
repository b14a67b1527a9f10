package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gethiox/keytutor/internal/pkg/display"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
)

const graphSize = display.Width

// displayLines renders tutor status into 20x4 display lines,
// graph holds number of keys played per update, oldest first
func displayLines(s tutor.Status, graph []uint) [4]string {
	var lines [4]string

	if s.Connected {
		lines[0] = fmt.Sprintf("strip: ✓ %s", filepath.Base(s.Device))
	} else {
		lines[0] = "strip: ✗ offline"
	}
	lines[1] = fmt.Sprintf("C4↑LED %3d slope%5.1f", s.Calibration.AnchorLED, s.Calibration.Slope)
	lines[2] = fmt.Sprintf("wait: %3d lit: %4d", s.CurrentEvents, s.LitKeys)

	var max uint = 1
	for _, v := range graph {
		if v > max {
			max = v
		}
	}
	for _, v := range graph {
		if v == 0 {
			lines[3] += " "
			continue
		}
		level := int(v-1) * len(display.Bars) / int(max)
		lines[3] += string(display.Bars[level])
	}
	return lines
}

func GenerateDisplayData(
	ctx context.Context, wg *sync.WaitGroup, cfg display.ScreenConfig,
	t *tutor.Tutor, pressed *PressedKeys,
) <-chan display.DisplayData {
	data := make(chan display.DisplayData)

	go func() {
		defer wg.Done()
		defer close(data)

		var graph = make([]uint, graphSize)
		_, lastTotal, _ := pressed.Snapshot()

		ticker := time.NewTicker(cfg.UpdateRate)
		defer ticker.Stop()

		for {
			_, total, _ := pressed.Snapshot()
			graph = append(graph[1:], total-lastTotal)
			lastTotal = total

			select {
			case data <- display.DisplayData{Lines: displayLines(t.Status(), graph)}:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return data
}
