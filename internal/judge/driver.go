package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"judgecore/internal/config"
	"judgecore/internal/events"
	"judgecore/internal/logging"
	"judgecore/internal/metrics"
	"judgecore/internal/sandbox"
	"judgecore/internal/verdict"
)

const checkerSourceName = "checker.cpp"
const checkerExecutableName = "checker"

// Run is the only exported entry point a caller (the CLI) needs: it
// precheck-validates opts, drives compilation of the submission and
// checker, dispatches test cases across a worker pool, and flushes the
// resulting verdict document. The returned error is non-nil only for
// option/precheck/sandbox-lifecycle failures and for failing to copy files
// into a sandbox or write the verdict — a compile error or a per-case
// system error is reported *inside* the verdict document, not as a Go
// error, matching the CLI's exit-code contract.
func Run(ctx context.Context, opts config.Opts, sink events.Sink) (err error) {
	started := time.Now()
	runID := uuid.New().String()
	defer func() { metrics.Get().JudgeDuration.Observe(time.Since(started).Seconds()) }()
	logging.S().Infow("judging run started", "run_id", runID, "problem", opts.Metadata)

	if err := PrecheckOpts(opts); err != nil {
		return err
	}
	if err := PrecheckEnv(); err != nil {
		return err
	}

	metadata, err := config.LoadMetadata(opts.Metadata)
	if err != nil {
		return &OptionError{Message: fmt.Sprintf("failed to read metadata: %v", err)}
	}
	if err := PrecheckMetadata(opts, metadata); err != nil {
		return err
	}

	catalogue, err := config.LoadCatalogue(opts.LanguagesDefinition)
	if err != nil {
		return &OptionError{Message: fmt.Sprintf("failed to read languages definition: %v", err)}
	}

	sourceLang, err := catalogue.Find(opts.Language)
	if err != nil {
		return &OptionError{Message: err.Error()}
	}
	checkerLang, err := catalogue.Find(opts.CheckerLanguage)
	if err != nil {
		return &OptionError{Message: err.Error()}
	}

	if opts.Sandboxes < 1 {
		return &OptionError{Message: "sandboxes must be at least 1"}
	}

	driver := sandbox.NewDriver()

	sandboxes := make([]sandbox.Sandbox, 0, opts.Sandboxes)
	for i := 0; i < opts.Sandboxes; i++ {
		sb, err := driver.Create(ctx, i)
		if err != nil {
			return fmt.Errorf("create sandbox %d: %w", i, err)
		}
		sandboxes = append(sandboxes, sb)
	}
	defer func() {
		for _, sb := range sandboxes {
			if cerr := driver.Cleanup(ctx, sb.ID); cerr != nil {
				logging.S().Errorw("sandbox cleanup failed", "box", sb.ID, "err", cerr)
				if err == nil {
					err = cerr
				}
			}
		}
	}()

	primary := sandboxes[0]
	output := NewJudgeOutput(len(metadata.Testcases))

	if err := driver.CopyInto(primary, opts.Source, sourceLang.SourceFilename); err != nil {
		return fmt.Errorf("copy source into sandbox: %w", err)
	}

	compileOut, compileErr := driver.Compile(ctx, primary, sourceLang, sandbox.ExecuteConfig{
		TimeLimit:          metadata.CompileTimeLimit,
		WallTimeLimit:      metadata.CompileTimeLimit,
		MemoryLimit:        metadata.CompileMemoryLimit,
		FullEnv:            true,
		UnlimitedProcesses: true,
	}, sourceLang.SourceFilename, sourceLang.ExecutableFilename)
	if compileErr != nil {
		metrics.Get().CompileTotal.WithLabelValues("error").Inc()
		output.SetAll(verdict.SE)
		output.CompileMessage = fmt.Sprintf("failed to invoke compiler: %v", compileErr)
		return flushAndPublish(opts, output, sink, runID)
	}
	if compileOut.ExitCode != 0 {
		metrics.Get().CompileTotal.WithLabelValues("error").Inc()
		output.SetAll(verdict.CE)
		output.CompileMessage = strings.TrimSpace(string(compileOut.Stderr))
		return flushAndPublish(opts, output, sink, runID)
	}
	metrics.Get().CompileTotal.WithLabelValues("ok").Inc()

	if err := driver.CopyInto(primary, opts.Testlib, "testlib.h"); err != nil {
		return fmt.Errorf("copy testlib into sandbox: %w", err)
	}
	if err := driver.CopyInto(primary, opts.Checker, checkerSourceName); err != nil {
		return fmt.Errorf("copy checker into sandbox: %w", err)
	}

	checkerCompileOut, checkerCompileErr := driver.Compile(ctx, primary, checkerLang, sandbox.ExecuteConfig{
		TimeLimit:          metadata.CompileTimeLimit,
		WallTimeLimit:      metadata.CompileTimeLimit,
		MemoryLimit:        metadata.CompileMemoryLimit,
		FullEnv:            true,
		UnlimitedProcesses: true,
		AdditionalFlags:    []string{"--full-env"},
	}, checkerSourceName, checkerExecutableName)
	if checkerCompileErr != nil || checkerCompileOut.ExitCode != 0 {
		metrics.Get().CompileTotal.WithLabelValues("checker_error").Inc()
		output.SetAll(verdict.SE)
		output.CompileMessage = "checker: " + strings.TrimSpace(string(checkerCompileOut.Stderr))
		return flushAndPublish(opts, output, sink, runID)
	}
	metrics.Get().CompileTotal.WithLabelValues("checker_ok").Inc()

	for _, sub := range sandboxes[1:] {
		if err := driver.CopyAcrossSandbox(primary, sub, checkerExecutableName, checkerExecutableName); err != nil {
			return fmt.Errorf("copy checker to box %d: %w", sub.ID, err)
		}
		if err := driver.CopyAcrossSandbox(primary, sub, sourceLang.ExecutableFilename, sourceLang.ExecutableFilename); err != nil {
			return fmt.Errorf("copy executable to box %d: %w", sub.ID, err)
		}
	}

	pool := NewPool(opts, metadata, sourceLang, driver, sandboxes, sink, runID)
	output = pool.Run(ctx)

	Aggregate(output)

	return flushAndPublish(opts, output, sink, runID)
}

func flushAndPublish(opts config.Opts, output *JudgeOutput, sink events.Sink, runID string) error {
	if err := flushVerdict(opts, output); err != nil {
		return err
	}
	if sink != nil {
		if err := sink.Publish(events.Event{RunID: runID, EventType: events.TypeSubmission, Event: output}); err != nil {
			logging.S().Warnw("publish submission event failed", "err", err)
		}
	}
	return nil
}

func flushVerdict(opts config.Opts, output *JudgeOutput) error {
	var serialized []byte
	var err error

	switch opts.VerdictFormat {
	case "yaml":
		serialized, err = yaml.Marshal(output)
	case "json", "":
		serialized, err = json.Marshal(output)
	default:
		logging.S().Warnw("unrecognized verdict format, defaulting to json", "format", opts.VerdictFormat)
		serialized, err = json.Marshal(output)
	}
	if err != nil {
		return fmt.Errorf("serialize verdict: %w", err)
	}

	if opts.Verdict != "" {
		if err := os.WriteFile(opts.Verdict, serialized, 0o644); err != nil {
			return fmt.Errorf("write verdict file: %w", err)
		}
		return nil
	}

	fmt.Println(string(serialized))
	return nil
}
