package logger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetLogger(t *testing.T) {
	log := GetLogger()
	log.Info("hello", zap.Int("pitch", 60), Keys)

	var data []byte
	select {
	case data = <-Messages:
	case <-time.After(time.Second):
		t.Fatal("no log entry emitted")
	}

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, float64(60), entry["pitch"])
	assert.Equal(t, float64(KeysLvl), entry["level"])
	assert.NotEmpty(t, entry["caller"])
}
