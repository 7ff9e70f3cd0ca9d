package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewZapLoggerFallsBackToInfo(t *testing.T) {
	log := NewZapLogger(&ZapLoggerConfig{Encoding: "json", Level: "not-a-level", DisableStacktrace: true})

	impl, ok := log.(*zapLogger)
	assert.True(t, ok)
	assert.False(t, impl.base.Core().Enabled(zap.DebugLevel))
	assert.True(t, impl.base.Core().Enabled(zap.InfoLevel))
}

func TestWithKeepsInterface(t *testing.T) {
	log := NewNop().With(zap.String("component", "test"))

	assert.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("hello", zap.Int("n", 1)) })
}
