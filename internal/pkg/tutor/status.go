package tutor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/keytutor/internal/pkg/logger"
)

// Status is a health snapshot meant for configuration and status views
type Status struct {
	Connected     bool
	Device        string
	Failures      int   // write failures since start
	LastError     error // nil when the last connection attempt or write succeeded
	CurrentEvents int
	LitKeys       int // current and look-ahead keys
	Calibration   Calibration
}

func (t *Tutor) Status() Status {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var lit int
	for _, k := range t.keys {
		if k.used {
			lit++
		}
	}

	return Status{
		Connected:     t.link.Connected(),
		Device:        t.link.path,
		Failures:      t.link.failures,
		LastError:     t.link.lastErr,
		CurrentEvents: t.currentEvents,
		LitKeys:       lit,
		Calibration:   t.calibration,
	}
}

// RunFlusher flushes pending changes periodically for producers that never call Flush.
// Strip is turned off and the device released when context is done.
func (t *Tutor) RunFlusher(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

root:
	for {
		select {
		case <-ctx.Done():
			break root
		case <-ticker.C:
			t.Flush()
		}
	}

	err := t.Close()
	if err != nil {
		log.Info(fmt.Sprintf("closing light strip failed: %v", err), logger.Warning)
	}
	log.Info("Light strip flusher stopped", logger.Debug)
}
