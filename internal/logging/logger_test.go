package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/zzenonn/zingest/internal/config"
)

func TestInitLogger(t *testing.T) {
	defer func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	}()

	tests := []struct {
		level     string
		format    string
		wantLevel log.Level
		wantJSON  bool
	}{
		{"debug", "json", log.DebugLevel, true},
		{"WARN", "text", log.WarnLevel, false},
		{"error", "", log.ErrorLevel, false},
		{"", "", log.InfoLevel, false},
		{"bogus", "JSON", log.InfoLevel, true},
	}

	for _, tt := range tests {
		InitLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})

		assert.Equal(t, tt.wantLevel, log.GetLevel(), "level %q", tt.level)
		_, isJSON := log.StandardLogger().Formatter.(*log.JSONFormatter)
		assert.Equal(t, tt.wantJSON, isJSON, "format %q", tt.format)
	}
}
