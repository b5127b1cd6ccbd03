package sandbox

import (
	"os"
	"testing"

	"judgecore/internal/sandbox/fakeisolate"
)

// TestHelperProcess is not a real test: it's the re-exec entry point a
// fake-isolate wrapper script invokes in place of a real isolate binary.
// Mirrors the os.Args[0] re-exec trick used for cross-process testing
// elsewhere in this codebase's dependency pack (e.g. the uffd cross-process
// helper tests), adapted here for an external CLI contract instead of an IPC
// handshake.
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

// newFakeIsolateDriver returns a Driver backed by a generated wrapper script
// that re-execs this test binary's TestHelperProcess as a stand-in isolate,
// so sandbox driver tests run the same in CI as on a machine with a real
// isolate install.
func newFakeIsolateDriver(t *testing.T) *Driver {
	t.Helper()

	self, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}

	root := t.TempDir()
	t.Setenv(fakeisolate.RootEnv, root)

	wrapper := root + "-isolate.sh"
	if err := fakeisolate.WriteWrapperScript(wrapper, self, "TestHelperProcess"); err != nil {
		t.Fatalf("write wrapper script: %v", err)
	}

	return &Driver{IsolateBin: wrapper}
}
