package player

import (
	"context"
	"fmt"
	"time"

	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/midi"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Tutor is the lighting side used during playback
type Tutor interface {
	AddKey(pitch, velocity, channel, future int) error
	ClearKey(pitch int, mark bool) error
	ClearKeys() error
	Flush() error
	Size() int
}

type Options struct {
	Enabled   bool // lighting keys at all
	Wait      bool // hold playback until every current key is pressed
	LookAhead int  // number of upcoming steps lit dimmed, 0 disables look-ahead
	BPM       int
	Poll      time.Duration // wait mode check interval
}

func DefaultOptions() Options {
	return Options{
		Enabled:   true,
		Wait:      true,
		LookAhead: 1,
		BPM:       120,
		Poll:      time.Millisecond * 20,
	}
}

type Player struct {
	song  Song
	tutor Tutor
	opts  Options

	sleep func(ctx context.Context, d time.Duration) bool
}

func NewPlayer(song Song, tutor Tutor, opts Options) *Player {
	if opts.BPM <= 0 {
		opts.BPM = DefaultOptions().BPM
	}
	if opts.Poll <= 0 {
		opts.Poll = DefaultOptions().Poll
	}
	if opts.LookAhead < 0 {
		opts.LookAhead = 0
	}
	return &Player{
		song:  song,
		tutor: tutor,
		opts:  opts,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// duration converts ticks into time, whole beats are converted separately
// so that long gaps don't overflow
func (p *Player) duration(ticks uint32) time.Duration {
	perMinute := time.Duration(p.opts.BPM * p.song.PPQ)
	whole, rest := time.Duration(ticks)/perMinute, time.Duration(ticks)%perMinute
	return whole*time.Minute + rest*time.Minute/perMinute
}

func (p *Player) report(action string, err error) {
	if err != nil {
		log.Info(fmt.Sprintf("%s failed: %v", action, err), logger.Debug)
	}
}

// Play goes through the song lighting keys as they come.
// Returns context error when playback was interrupted, keys are cleared either way.
func (p *Player) Play(ctx context.Context) error {
	steps := p.song.Steps()

	var onsets []int // indexes of steps pressing any key
	for i, st := range steps {
		if len(st.On) > 0 {
			onsets = append(onsets, i)
		}
	}

	defer func() {
		if p.opts.Enabled {
			p.report("clearing keys", p.tutor.ClearKeys())
		}
	}()

	log.Info(fmt.Sprintf("Playback started (%d notes, %d BPM)", len(p.song.Notes), p.opts.BPM), logger.Action)

	var tick uint32
	var onset int
	for i, st := range steps {
		if !p.sleep(ctx, p.duration(st.Tick-tick)) {
			log.Info("Playback interrupted", logger.Action)
			return ctx.Err()
		}
		tick = st.Tick

		for _, n := range st.On {
			log.Info(
				midi.NoteEvent(midi.NoteOn, uint8(n.Channel&0xF), uint8(n.Pitch&0x7F), uint8(n.Velocity&0x7F)).String(),
				zap.Int("pitch", n.Pitch), logger.Debug,
			)
		}

		if !p.opts.Enabled {
			continue
		}

		for _, n := range st.Off {
			p.report("releasing key", p.tutor.ClearKey(n.Pitch, false))
		}

		if len(st.On) == 0 {
			p.report("flush", p.tutor.Flush())
			continue
		}

		for _, n := range st.On {
			p.report("lighting key", p.tutor.AddKey(n.Pitch, n.Velocity, n.Channel, 0))
		}
		for ahead := 1; ahead <= p.opts.LookAhead && onset+ahead < len(onsets); ahead++ {
			for _, n := range steps[onsets[onset+ahead]].On {
				p.report("lighting key ahead", p.tutor.AddKey(n.Pitch, n.Velocity, n.Channel, ahead))
			}
		}
		onset++
		p.report("flush", p.tutor.Flush())

		if p.opts.Wait && !p.waitForPlayer(ctx, i) {
			log.Info("Playback interrupted", logger.Action)
			return ctx.Err()
		}
	}

	log.Info("Playback finished", logger.Action)
	return nil
}

// waitForPlayer blocks until every current key got pressed
func (p *Player) waitForPlayer(ctx context.Context, step int) bool {
	waiting := false
	for {
		size := p.tutor.Size()
		if size == 0 {
			return true
		}
		if !waiting {
			log.Info(fmt.Sprintf("Waiting for %d keys at step %d", size, step), logger.Keys)
			waiting = true
		}
		if !p.sleep(ctx, p.opts.Poll) {
			return false
		}
	}
}
