package logger

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func stripANSI(str string) string {
	return regexp.MustCompile(`\x1b\[[0-9;]*m`).ReplaceAllString(str, "")
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{"json output", true, 0},
		{"console output", false, 1},
		{"console debug", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { Logger = zap.NewNop().Sugar() })

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, tt.verbosity, Verbosity)
			assert.True(t, Logger.Desugar().Core().Enabled(VerbosityToLevel(tt.verbosity)))
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(0, OutputSummary))
	assert.True(t, ShouldOutput(0, OutputPlan))
	assert.False(t, ShouldOutput(0, OutputArtifacts))
	assert.True(t, ShouldOutput(1, OutputArtifacts))
	assert.False(t, ShouldOutput(2, OutputLocatorScores))
	assert.True(t, ShouldOutput(3, OutputLocatorScores))
	assert.False(t, ShouldOutput(2, OutputCategory(99)))
}

func TestMinimalEncoderKeepsEveryField(t *testing.T) {
	enc := newMinimalEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2024, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "shimgen.lifecycle",
		Message:    "[shimgen] Wrote",
	}
	fields := []zapcore.Field{
		zap.String("path", "out/player_shim.go"),
		zap.String("class", "Player"),
		zap.Int("count", 3),
		zap.Bool("dry_run", false),
		zap.Float64("ratio", 0.5),
	}

	buf, err := enc.EncodeEntry(entry, fields)
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "s.lifecycle")
	assert.Contains(t, out, "[shimgen] Wrote")
	for _, want := range []string{"path=out/player_shim.go", "class=Player", "count=3", "dry_run=false", "ratio=0.5"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "INFO")
}

func TestMinimalEncoderWithContext(t *testing.T) {
	enc := newMinimalEncoder()
	enc.color = false
	clone := enc.Clone().(*minimalEncoder)
	clone.AddString(FieldRunID, "abc")

	buf, err := clone.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "partial type load"}, nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "run_id=abc")
	assert.Empty(t, enc.context, "clone must not share context with the parent")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "s.lifecycle", abbreviateName("shimgen.lifecycle"))
	assert.Equal(t, "loader", abbreviateName("loader"))
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
	assert.Empty(t, RunIDFromContext(context.Background()))
	assert.NotNil(t, LoggerFromContext(ctx, Logger))
}
