package fakeisolate

import (
	"fmt"
	"os"
)

// WriteWrapperScript writes a POSIX shell script to path that re-execs
// testBinary as a helper process: it sets GO_WANT_HELPER_PROCESS=1 and runs
// only testName, passing every argument it received straight through after
// "--". This is the same os.Args[0] re-exec trick Go's own os/exec tests use
// (and, in this codebase's pack, e2b-dev-infra's uffd cross-process tests),
// adapted here because the sandbox driver invokes its configured binary
// directly with isolate's own flags — it has no way to prepend -test.run=...
// itself, so the wrapper script does that instead.
func WriteWrapperScript(path, testBinary, testName string) error {
	script := fmt.Sprintf("#!/bin/sh\nexport GO_WANT_HELPER_PROCESS=1\nexec %q -test.run=%s -- \"$@\"\n", testBinary, testName)
	return os.WriteFile(path, []byte(script), 0o755)
}
