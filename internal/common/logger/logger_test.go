// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMapToZapFields_SortedAndErrorsNamed(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{
		"zeta":  1,
		"alpha": "a",
		"err":   errors.New("boom"),
	})

	assert.Len(t, fields, 3)
	assert.Equal(t, "alpha", fields[0].Key)
	assert.Equal(t, "err", fields[1].Key)
	assert.Equal(t, zapcore.ErrorType, fields[1].Type)
	assert.Equal(t, "zeta", fields[2].Key)
	assert.Nil(t, mapToZapFields(nil))
}

func TestZapWrapper_WithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "crm"})

	log.Info("customer added", map[string]interface{}{"customerId": "cust_1"})
	log.WithError(errors.New("down")).Warn("notify failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "customer added", entries[0].Message)
	assert.Equal(t, "crm", entries[0].ContextMap()["component"])
	assert.Equal(t, "cust_1", entries[0].ContextMap()["customerId"])
	assert.Equal(t, "down", entries[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"info":  zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Error("ignored", map[string]interface{}{"k": "v"})
	assert.NotNil(t, log.With(nil))
}
