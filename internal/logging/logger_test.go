package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelForVerbosity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbosity int
		want      zapcore.Level
	}{
		{name: "default is warn", verbosity: 0, want: zapcore.WarnLevel},
		{name: "negative treated as default", verbosity: -1, want: zapcore.WarnLevel},
		{name: "single v is info", verbosity: 1, want: zapcore.InfoLevel},
		{name: "double v is debug", verbosity: 2, want: zapcore.DebugLevel},
		{name: "triple v is still debug", verbosity: 3, want: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := LevelForVerbosity(tc.verbosity)
			if got != tc.want {
				t.Fatalf("LevelForVerbosity(%d) = %v, want %v", tc.verbosity, got, tc.want)
			}
		})
	}
}

func TestLAndSNeverReturnNil(t *testing.T) {
	if L() == nil {
		t.Fatal("L() returned nil")
	}
	if S() == nil {
		t.Fatal("S() returned nil")
	}
}
