package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cambiatus/eosauth/pkg/log"
)

func kvToMap(kv []any) map[string]any {
	m := make(map[string]any)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			m[key] = kv[i+1]
		}
	}
	return m
}

func TestSpanLogger(t *testing.T) {
	mockLogger := NewMockLogger()
	mockSer := NewMockSpanEventRecorder("trace-id-123", "span-id-456")
	logger := log.NewSpanLogger(mockLogger, mockSer)
	assert.Equal(t, 1, mockLogger.CallerSkip())

	component := "resolver"
	logger = logger.WithName(component)
	kv := []any{"account", "alice", "operation", "get_account"}

	assertEntry := func(t *testing.T, level log.Level, msg string, expected []any) {
		t.Helper()
		expectedMap := kvToMap(expected)

		entry := mockLogger.LastEntry()
		assert.Equal(t, level, entry.Level)
		assert.Equal(t, msg, entry.Message)
		logged := kvToMap(entry.KeysAndValues)
		for k, v := range expectedMap {
			assert.Equal(t, v, logged[k])
		}
		assert.Len(t, logged, len(expectedMap)+2)
		assert.Equal(t, "trace-id-123", logged["traceId"])
		assert.Equal(t, "span-id-456", logged["spanId"])

		isError := level == log.LevelError || level == log.LevelFatal
		assert.Equal(t, isError, mockSer.HasError())

		event := kvToMap(mockSer.LastEventMetadata())
		for k, v := range expectedMap {
			assert.Equal(t, v, event[k])
		}
		assert.Len(t, event, len(expectedMap)+3)
		assert.Equal(t, string(level), event["level"])
		assert.Equal(t, msg, event["msg"])
		assert.Equal(t, mockLogger.Name(), event["component"])
	}

	logger.Debug("lookup started", kv...)
	assertEntry(t, log.LevelDebug, "lookup started", kv)

	logger.Info("lookup done", kv...)
	assertEntry(t, log.LevelInfo, "lookup done", kv)

	logger.Warn("slow lookup", kv...)
	assertEntry(t, log.LevelWarn, "slow lookup", kv)

	logger.Error("lookup failed", kv...)
	assertEntry(t, log.LevelError, "lookup failed", kv)

	logger = logger.WithKV("requestId", "r-1")
	assert.Equal(t, []any{"requestId", "r-1"}, logger.GetAllKV())
	assert.Equal(t, component, logger.Name())

	logger.AddCallerSkip(1).Error("wrapped", kv...)
	assertEntry(t, log.LevelError, "wrapped", append([]any{"requestId", "r-1"}, kv...))
	assert.Equal(t, 2, mockLogger.CallerSkip())
}

func TestSpanLoggerRedactsEvents(t *testing.T) {
	mockSer := NewMockSpanEventRecorder("t", "s")
	logger := log.NewSpanLogger(NewMockLogger(), mockSer)

	logger.Info("signer loaded", "wif", "5Kabc", "key", log.Secret("5Kabc"))
	event := kvToMap(mockSer.LastEventMetadata())
	assert.Equal(t, "[REDACTED]", event["wif"])
	assert.Equal(t, "[REDACTED]", event["key"])
}
