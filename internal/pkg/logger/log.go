package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Messages receives every encoded log entry, consumer is responsible for draining it
var Messages = make(chan []byte, 256)

const (
	ErrorLvl   = 0
	WarningLvl = 1
	InfoLvl    = 2
	ActionLvl  = 3 // calibration, profile reloads, transport changes
	KeysLvl    = 4 // every lit/cleared key and player key press
	DeviceLvl  = 5 // raw device traffic

	DebugLvl = 378
)

var (
	Error   = zap.Int("level", ErrorLvl)
	Warning = zap.Int("level", WarningLvl)
	Info    = zap.Int("level", InfoLvl)
	Action  = zap.Int("level", ActionLvl)
	Keys    = zap.Int("level", KeysLvl)
	Device  = zap.Int("level", DeviceLvl)

	Debug = zap.Int("level", DebugLvl)
)

type chanWriter struct {
	sync.Mutex
	discard bool
}

func (w *chanWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	defer w.Unlock()
	if w.discard {
		return len(p), nil
	}
	var newSlice = make([]byte, len(p))
	copy(newSlice, p)
	Messages <- newSlice
	return len(p), nil
}

func (w *chanWriter) Sync() error {
	return nil
}

var writer = &chanWriter{}

// Discard stops pushing entries into Messages, used by -silent mode and tests
// that do not drain the channel
func Discard() {
	writer.Lock()
	writer.discard = true
	writer.Unlock()
}

func GetLogger() *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.SkipLineEnding = true
	cfg.EncodeTime = zapcore.EpochNanosTimeEncoder
	cfg.LevelKey = ""
	encoder := zapcore.NewJSONEncoder(cfg)

	logger := zap.New(
		zapcore.NewCore(encoder, zapcore.Lock(writer), zap.DebugLevel),
		zap.AddCaller(),
	)

	return logger
}
