package judge

import (
	"os"
	"testing"

	"judgecore/internal/sandbox/fakeisolate"
)

// TestHelperProcess re-execs as a fake isolate binary for this package's
// tests, the same trick internal/sandbox uses for its own driver tests (each
// package gets its own compiled test binary, so each needs its own re-exec
// entry point even though the emulation logic itself lives in one place).
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	// The wrapper script puts the isolate-style arguments after "--"; the
	// test binary's own flags in front of it are not isolate's.
	args := os.Args[1:]
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	os.Exit(fakeisolate.Run(args))
}
