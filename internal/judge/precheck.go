package judge

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"judgecore/internal/config"
)

// OptionError reports a problem with the user-supplied options or input
// files that makes the run impossible to continue — distinct from a
// per-test-case verdict, since nothing has been judged yet.
type OptionError struct {
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option error: %s", e.Message)
}

func assertExists(path, description string) error {
	if _, err := os.Stat(path); err != nil {
		return &OptionError{Message: fmt.Sprintf("the %s specified at %s does not exist", description, path)}
	}
	return nil
}

// PrecheckOpts verifies that every file/path named in opts exists before
// any sandbox work begins.
func PrecheckOpts(opts config.Opts) error {
	if err := assertExists(opts.Metadata, "metadata file"); err != nil {
		return err
	}
	if err := assertExists(opts.Source, "source file"); err != nil {
		return err
	}
	if err := assertExists(opts.Checker, "checker file"); err != nil {
		return err
	}
	if err := assertExists(opts.Testcases, "testcases folder"); err != nil {
		return err
	}
	if err := assertExists(opts.Testlib, "testlib.h"); err != nil {
		return err
	}
	if err := assertExists(opts.LanguagesDefinition, "languages definition file"); err != nil {
		return err
	}
	if opts.Interactor != "" {
		if err := assertExists(opts.Interactor, "interactor file"); err != nil {
			return err
		}
	}
	return nil
}

// PrecheckMetadata verifies that every test case's input/output file
// referenced by metadata actually exists under opts.Testcases.
func PrecheckMetadata(opts config.Opts, metadata config.Metadata) error {
	for _, tc := range metadata.Testcases {
		inPath := filepath.Join(opts.Testcases, tc.Input)
		outPath := filepath.Join(opts.Testcases, tc.Output)
		if err := assertExists(inPath, fmt.Sprintf("input file for test %d", tc.ID+1)); err != nil {
			return err
		}
		if err := assertExists(outPath, fmt.Sprintf("output file for test %d", tc.ID+1)); err != nil {
			return err
		}
	}
	return nil
}

// PrecheckEnv verifies the isolate binary resolves on PATH (or at the
// overridden path from JUDGECORE_ISOLATE_BIN).
func PrecheckEnv() error {
	bin := config.IsolateBin()
	if filepath.IsAbs(bin) {
		if err := assertExists(bin, "isolate binary"); err != nil {
			return err
		}
		return nil
	}
	if _, err := exec.LookPath(bin); err != nil {
		return &OptionError{Message: "the isolate sandbox is not found in path"}
	}
	return nil
}
