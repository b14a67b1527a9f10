package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/keytutor/internal/pkg/display"
	"github.com/gethiox/keytutor/internal/pkg/logger"
	"github.com/gethiox/keytutor/internal/pkg/midi"
	"github.com/gethiox/keytutor/internal/pkg/player"
	"github.com/gethiox/keytutor/internal/pkg/tutor"
	"github.com/gethiox/keytutor/internal/pkg/tutor/config"
	"github.com/gethiox/keytutor/internal/pkg/utils"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// set by build script
var version = "dev"

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func(), g *gocui.Gui) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		if g != nil {
			g.Close()
		}
		counter++
	}
}

func runUI(cfg KeyTutorConfig, ui bool, sigs chan os.Signal, controls *Controls) *gocui.Gui {
	var g *gocui.Gui
	if ui {
		var err error
		g, err = GetCli(controls)
		if err != nil {
			panic(err)
		}

		go func() {
			if err := g.MainLoop(); err != nil {
				if err != gocui.ErrQuit {
					panic(err)
				}
				sigs <- syscall.SIGINT // leaving the gui stops the whole program
			}
		}()

		go func() {
			for {
				g.Update(Layout)
				time.Sleep(cfg.UI.LogViewRate)
			}
		}()

		time.Sleep(time.Millisecond * 500) // views are created by the first layout pass
	}
	return g
}

// openInput starts reading the selected MIDI device, returned channel is closed when
// the device is gone or context is done
func openInput(ctx context.Context, wg *sync.WaitGroup, n int) <-chan midi.Event {
	var events = make(chan midi.Event, 8)

	ioDevices, err := midi.DetectDevices(midi.DeviceDirectory)
	if err != nil {
		log.Info(fmt.Sprintf("MIDI device detection failed: %v", err), logger.Error)
	}
	if len(ioDevices) == 0 {
		log.Info("There is no MIDI input available, key presses will not be tracked", logger.Error)
		close(events)
		return events
	}
	if len(ioDevices) < n+1 {
		log.Info(fmt.Sprintf(
			"MIDI device with \"%d\" ID does not exist. There is %d MIDI devices available in total",
			n, len(ioDevices),
		), logger.Error)
		close(events)
		return events
	}

	ioDevice := ioDevices[n]
	f, err := ioDevice.Open()
	if err != nil {
		log.Info(fmt.Sprintf("Failed to open MIDI device: %v", err), zap.String("device", ioDevice.String()), logger.Error)
		close(events)
		return events
	}

	wg.Add(1)
	go readInput(ctx, wg, f, ioDevice.String(), events)
	return events
}

func playSong(ctx context.Context, wg *sync.WaitGroup, path string, t *tutor.Tutor, opts player.Options) {
	defer wg.Done()

	song, err := player.LoadSong(path)
	if err != nil {
		log.Info(fmt.Sprintf("Failed to load song: %v", err), logger.Error)
		return
	}
	log.Info(fmt.Sprintf("Playing \"%s\" (%d notes)", path, len(song.Notes)), logger.Info)

	err = player.NewPlayer(song, t, opts).Play(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("Player interrupted", logger.Debug)
		return
	}
	if err != nil {
		log.Info(fmt.Sprintf("Player stopped: %v", err), logger.Warning)
		return
	}
	log.Info("Song finished", logger.Info)
}

var (
	ui       = flag.Bool("ui", false, "engage debug ui")
	force256 = flag.Bool("256", false, "force 256 color mode")
	nocolor  = flag.Bool("nocolor", false, "disable color")
	logLevel = flag.Int("loglevel", 2,
		"logging level, each level enables additional information class (0-3, default: 2)\n"+
			"\navailable options:\n"+
			"0: general info (eg. strip connection status)\n"+
			"1: action events (calibration, profile reloads)\n"+
			"2: key events (lit, cleared and pressed keys)\n"+
			"3: raw MIDI input",
	)
	configPath  = flag.String("config", "keytutor.config", "path of configuration file, created when missing")
	profilePath = flag.String("profile", "profile.yaml", "path of calibration profile, created when missing")
	midiDevice  = flag.Int("mididevice", 0, "select N-th midi device, default: 0 (first)")
	songPath    = flag.String("play", "", "standard MIDI file to light up")
	calibrate   = flag.Bool("calibrate", false, "start with calibration, next pressed key becomes middle C")
	silent      = flag.Bool("silent", false, "no output logging")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	*logLevel += 2

	if *showVersion {
		fmt.Printf("keytutor %s\n", version)
		return
	}
	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}
	if *silent {
		logger.Discard()
	}

	var printerDone = make(chan bool)

	useUI := *ui && !*silent
	if !useUI {
		go func() {
			defer close(printerDone)
			if *silent {
				for range logger.Messages {
				}
				return
			}
			fmt.Printf("for nicer output use -ui flag\n")
			au := aurora.NewAurora(!*nocolor)
			for data := range logger.Messages {
				msg, err := unpack(data)
				if err != nil {
					fmt.Printf("%s\n", string(data))
					continue
				}
				m := prepareString(msg, au, -1, *logLevel)
				if m != "" {
					fmt.Printf("%s\n", m)
				}
			}
		}()
	}

	err := createFilesIfNeeded(*configPath, *profilePath)
	if err != nil {
		panic(err)
	}

	var cfg = LoadConfig(*configPath)
	log.Info(fmt.Sprintf("Config: %s", cfg), logger.Debug)

	t := tutor.NewTutor(cfg.Tutor)
	profile, err := config.LoadProfile(*profilePath)
	if err != nil {
		log.Info(fmt.Sprintf("invalid profile, using defaults: %v", err), logger.Error)
		profile = config.DefaultProfile()
	}
	err = profile.Apply(t)
	if err != nil {
		log.Info(fmt.Sprintf("applying profile: %v", err), logger.Debug)
	}
	log.Info(fmt.Sprintf("Profile: %s", profile), logger.Info)

	controls := NewControls(t, *profilePath)
	pressed := &PressedKeys{}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	g := runUI(cfg, useUI, sigs, controls)

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	wg.Add(1)
	go handleSigs(&wg, sigs, cancel, g)

	wg.Add(1)
	go t.RunFlusher(ctx, &wg, cfg.IdleFlushRate)

	wg.Add(1)
	go monitorProfile(ctx, &wg, t, *profilePath)

	input := openInput(ctx, &wg, *midiDevice)
	fan := utils.NewDynamicFanOut(input)
	keyEvents, err := fan.SpawnOutput()
	if err == nil {
		wg.Add(1)
		go handleInput(ctx, &wg, t, controls, keyEvents, pressed)
		wg.Add(1)
		go logInput(&wg, fan)
	}

	if *calibrate {
		controls.StartCalibration()
	}

	if *songPath != "" {
		wg.Add(1)
		go playSong(ctx, &wg, *songPath, t, cfg.Player)
	}

	wg.Add(1)
	dd := GenerateDisplayData(ctx, &wg, cfg.Screen, t, pressed)
	dd1, dd2 := utils.FanOut(dd)

	if cfg.Screen.Enabled {
		wg.Add(1)
		go display.HandleDisplay(&wg, cfg.Screen, dd1)
	} else {
		go func() {
			for range dd1 {
			}
		}()
	}

	if useUI {
		go logView(g, !*nocolor, *logLevel, cfg.UI.LogBufferSize)
		go overviewView(g, !*nocolor, t, pressed)
		go lcdView(g, dd2)
		close(printerDone)
	} else {
		go func() {
			for range dd2 {
			}
		}()
	}

	<-ctx.Done()
	log.Info("waiting...", logger.Debug)
	signal.Stop(sigs)
	close(sigs)

	// closing logger can be safely invoked only when all internally running goroutines (that may emit logs) are done
	wg.Wait()
	close(logger.Messages)
	<-printerDone
}
