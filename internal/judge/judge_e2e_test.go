package judge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"judgecore/internal/config"
	"judgecore/internal/events"
	"judgecore/internal/sandbox/fakeisolate"
	"judgecore/internal/verdict"
)

// These end-to-end tests drive the whole top-level Run against a fake
// isolate (see helper_process_test.go) and a trivial shell "language", so
// they exercise the real compile/checker/worker-pool/aggregate pipeline
// without needing a real isolate install or a C++ toolchain in the
// environment running the tests.

// compile_command copies the source into place, syntax-checks it (sh -n) so
// a genuinely malformed script fails to "compile" instead of only failing
// at run time, and marks the result executable — the shell-language
// stand-in for a real compiler's syntax check plus its executable output.
const languagesYAML = `
- code: fakesh
  source_filename: source.sh
  executable_filename: prog.sh
  compile_command: ["/bin/sh", "-c", "cp {source} {destination} && /bin/sh -n {destination} && chmod +x {destination}"]
  execute_command: ["/bin/sh", "{executable}"]
`

const acceptedSource = `#!/bin/sh
read a b
echo $((a + b))
`

const brokenSource = `#!/bin/sh
echo "unterminated string
`

// diffChecker is a shell "checker": argv is in.txt out.txt ans.txt; it
// reports ok/wrong answer on stderr per the testlib convention.
const diffChecker = `#!/bin/sh
if [ "$(cat "$2")" = "$(cat "$3")" ]; then
	echo "ok correct" >&2
else
	echo "wrong answer" >&2
fi
exit 0
`

type fixture struct {
	dir  string
	opts config.Opts
}

func newFixture(t *testing.T, source string) fixture {
	t.Helper()
	dir := t.TempDir()
	testcasesDir := filepath.Join(dir, "testcases")
	require.NoError(t, os.Mkdir(testcasesDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "languages.yaml"), []byte(languagesYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "source.sh"), []byte(source), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checker.sh"), []byte(diffChecker), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "testlib.h"), []byte("// stand-in for testlib.h\n"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(testcasesDir, "1.in"), []byte("2 3\n"), 0o644))
	require.NoError(t, os.WriteFile(testcasesDir+"/1.out", []byte("5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(testcasesDir, "2.in"), []byte("10 20\n"), 0o644))
	require.NoError(t, os.WriteFile(testcasesDir+"/2.out", []byte("30\n"), 0o644))

	metadataYAML := `
problem_name: sum-two-numbers
time_limit: 2.0
memory_limit: 262144
compile_time_limit: 10.0
compile_memory_limit: 262144
checker_time_limit: 5.0
checker_memory_limit: 262144
testcases:
  - input: 1.in
    output: 1.out
  - input: 2.in
    output: 2.out
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.yaml"), []byte(metadataYAML), 0o644))

	return fixture{
		dir: dir,
		opts: config.Opts{
			Metadata:            filepath.Join(dir, "metadata.yaml"),
			Language:            "fakesh",
			Source:              filepath.Join(dir, "source.sh"),
			Checker:             filepath.Join(dir, "checker.sh"),
			CheckerLanguage:     "fakesh",
			Testcases:           testcasesDir,
			Testlib:             filepath.Join(dir, "testlib.h"),
			Sandboxes:           1,
			VerdictFormat:       "json",
			LanguagesDefinition: filepath.Join(dir, "languages.yaml"),
		},
	}
}

// useFakeIsolate points opts at a fake isolate binary for the duration of
// the test, the same re-exec trick internal/sandbox's tests use.
func useFakeIsolate(t *testing.T) {
	t.Helper()

	self, err := os.Executable()
	require.NoError(t, err)

	root := t.TempDir()
	t.Setenv(fakeisolate.RootEnv, root)

	wrapper := root + "-isolate.sh"
	require.NoError(t, fakeisolate.WriteWrapperScript(wrapper, self, "TestHelperProcess"))
	t.Setenv("JUDGECORE_ISOLATE_BIN", wrapper)
}

func TestRunHappyPathAllAccepted(t *testing.T) {
	useFakeIsolate(t)

	fx := newFixture(t, acceptedSource)
	fx.opts.Verdict = filepath.Join(fx.dir, "verdict.json")

	err := Run(context.Background(), fx.opts, events.NopSink{})
	require.NoError(t, err)

	data, err := os.ReadFile(fx.opts.Verdict)
	require.NoError(t, err)
	require.Contains(t, string(data), `"verdict":"`+string(verdict.AC)+`"`)
}

func TestRunCompileErrorShortCircuits(t *testing.T) {
	useFakeIsolate(t)

	fx := newFixture(t, brokenSource)
	fx.opts.Verdict = filepath.Join(fx.dir, "verdict.json")

	err := Run(context.Background(), fx.opts, events.NopSink{})
	require.NoError(t, err, "a compile error is reported in the verdict, not as a Go error")

	data, err := os.ReadFile(fx.opts.Verdict)
	require.NoError(t, err)
	require.Contains(t, string(data), string(verdict.CE))
	// compile_message is omitempty, so the key is present only when non-empty.
	require.Contains(t, string(data), `"compile_message":"`)
}
