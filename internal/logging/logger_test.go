package logging

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsUnknownLevelToInfo(t *testing.T) {
	l := New("test-component", "not-a-level", "json")
	assert.Equal(t, logrus.InfoLevel, l.Logger.GetLevel())
}

func TestNew_TextFormatterOnTextFormat(t *testing.T) {
	l := New("test-component", "debug", "text")
	_, ok := l.Logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, l.Logger.GetLevel())
}

func TestNew_JSONFormatterByDefault(t *testing.T) {
	l := New("test-component", "info", "json")
	_, ok := l.Logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestWithContext_CarriesCorrelationAndCaller(t *testing.T) {
	l := New("test-component", "info", "json")
	ctx := context.WithValue(context.Background(), CorrelationIDKey, "corr-1")
	ctx = context.WithValue(ctx, CallerKey, "alice")

	entry := l.WithContext(ctx)

	assert.Equal(t, "corr-1", entry.Data["correlation_id"])
	assert.Equal(t, "alice", entry.Data["caller"])
	assert.Equal(t, "test-component", entry.Data["component"])
}

func TestWith_TagsComponent(t *testing.T) {
	l := New("test-component", "info", "json")
	entry := l.With(logrus.Fields{"key": "value"})

	assert.Equal(t, "test-component", entry.Data["component"])
	assert.Equal(t, "value", entry.Data["key"])
}
