package judge

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"judgecore/internal/config"
	"judgecore/internal/events"
	"judgecore/internal/logging"
	"judgecore/internal/metrics"
	"judgecore/internal/sandbox"
	"judgecore/internal/verdict"
)

// testcaseStack is a mutex-guarded LIFO of pending test cases. Pushing the
// metadata's test cases in reverse order and popping from the end yields
// cases in ascending ID order across the pool as a whole, the same trick
// the original worker loop relies on.
type testcaseStack struct {
	mu    sync.Mutex
	items []config.Testcase
}

func newTestcaseStack(testcases []config.Testcase) *testcaseStack {
	items := make([]config.Testcase, len(testcases))
	for i, tc := range testcases {
		items[len(testcases)-1-i] = tc
	}
	return &testcaseStack{items: items}
}

func (s *testcaseStack) pop() (config.Testcase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return config.Testcase{}, false
	}
	last := len(s.items) - 1
	tc := s.items[last]
	s.items = s.items[:last]
	return tc, true
}

// Pool runs one goroutine per sandbox, each pulling test cases off a
// shared stack until it's empty, and writes results into a shared verdict
// document guarded by a mutex. No lock is ever held across subprocess or
// file I/O — only around the read-modify-write of the document itself.
type Pool struct {
	Opts            config.Opts
	Metadata        config.Metadata
	SourceLanguage  config.Language
	Driver          *sandbox.Driver
	Sandboxes       []sandbox.Sandbox
	Sink            events.Sink
	RunID           string

	mu     sync.Mutex
	output *JudgeOutput
	stack  *testcaseStack
}

// NewPool builds a pool ready to judge every test case in metadata against
// the given sandboxes. One sandbox must exist per goroutine the pool will
// spawn. runID correlates every event this pool publishes with the rest of
// the judging run.
func NewPool(opts config.Opts, metadata config.Metadata, lang config.Language, driver *sandbox.Driver, sandboxes []sandbox.Sandbox, sink events.Sink, runID string) *Pool {
	return &Pool{
		Opts:           opts,
		Metadata:       metadata,
		SourceLanguage: lang,
		Driver:         driver,
		Sandboxes:      sandboxes,
		Sink:           sink,
		RunID:          runID,
		output:         NewJudgeOutput(len(metadata.Testcases)),
		stack:          newTestcaseStack(metadata.Testcases),
	}
}

// Run dispatches one worker goroutine per sandbox and blocks until every
// test case has been judged.
func (p *Pool) Run(ctx context.Context) *JudgeOutput {
	var wg sync.WaitGroup
	for i, sb := range p.Sandboxes {
		wg.Add(1)
		go func(workerID int, sb sandbox.Sandbox) {
			defer wg.Done()
			p.worker(ctx, workerID, sb)
		}(i, sb)
	}
	wg.Wait()
	return p.output
}

func (p *Pool) worker(ctx context.Context, workerID int, sb sandbox.Sandbox) {
	logging.S().Debugw("worker spawned", "worker", workerID, "box", sb.ID)

	for {
		tc, ok := p.stack.pop()
		if !ok {
			logging.S().Debugw("worker found no more test cases", "worker", workerID)
			return
		}

		metrics.Get().ActiveWorkers.Inc()
		result := p.judgeTestcase(ctx, sb, tc)
		metrics.Get().ActiveWorkers.Dec()
		metrics.Get().TestcasesTotal.WithLabelValues(string(result.Verdict)).Inc()

		p.finalize(workerID, tc.ID, result)
	}
}

func (p *Pool) judgeTestcase(ctx context.Context, sb sandbox.Sandbox, tc config.Testcase) TestcaseOutput {
	out := TestcaseOutput{Verdict: verdict.WJ}

	inputHost := filepath.Join(p.Opts.Testcases, tc.Input)
	if err := p.Driver.CopyInto(sb, inputHost, "in.txt"); err != nil {
		logging.S().Errorw("copy input failed", "test", tc.ID, "err", err)
		out.Verdict = verdict.SE
		return out
	}

	_, runErr := p.Driver.Run(ctx, sb, p.SourceLanguage, sandbox.ExecuteConfig{
		TimeLimit:     p.Metadata.TimeLimit,
		WallTimeLimit: p.Metadata.TimeLimit,
		MemoryLimit:   p.Metadata.MemoryLimit,
		MetaFile:      "meta.txt",
		InputFile:     "in.txt",
		OutputFile:    "out.txt",
	}, p.SourceLanguage.ExecutableFilename)

	metaText, readErr := p.Driver.ReadFile(sb, "meta.txt")
	if runErr != nil || readErr != nil {
		logging.S().Errorw("run failed", "test", tc.ID, "run_err", runErr, "read_err", readErr)
		out.Verdict = verdict.SE
		return out
	}

	meta := sandbox.ParseMeta(metaText)
	if meta.Time != nil {
		out.Time = *meta.Time
	}
	if meta.Memory != nil {
		out.Memory = *meta.Memory
	}
	if meta.Verdict != nil {
		out.Verdict = *meta.Verdict
	}
	out.SandboxOutput = metaText

	if meta.Verdict != nil {
		// The sandbox already detected a terminal condition (RE/MLE/TLE/SE);
		// the checker has nothing useful to add.
		return out
	}

	outputHost := filepath.Join(p.Opts.Testcases, tc.Output)
	if err := p.Driver.CopyInto(sb, outputHost, "ans.txt"); err != nil {
		logging.S().Errorw("copy expected output failed", "test", tc.ID, "err", err)
		out.Verdict = verdict.SE
		return out
	}

	_, checkErr := p.Driver.Execute(ctx, sb, sandbox.ExecuteConfig{
		TimeLimit:     p.Metadata.CheckerTimeLimit,
		WallTimeLimit: p.Metadata.CheckerTimeLimit,
		MemoryLimit:   p.Metadata.CheckerMemoryLimit,
		ErrorFile:     "checker.txt",
	}, []string{"checker", "in.txt", "out.txt", "ans.txt"})
	if checkErr != nil {
		logging.S().Errorw("checker failed", "test", tc.ID, "err", checkErr)
		out.Verdict = verdict.SE
		return out
	}

	checkerText, err := p.Driver.ReadFile(sb, "checker.txt")
	if err != nil {
		logging.S().Errorw("read checker output failed", "test", tc.ID, "err", err)
		out.Verdict = verdict.SE
		return out
	}
	checkerText = strings.TrimSpace(checkerText)
	out.CheckerOutput = checkerText

	meta = sandbox.ApplyCheckerOutput(meta, checkerText)
	if meta.Verdict != nil {
		out.Verdict = *meta.Verdict
	}

	return out
}

func (p *Pool) finalize(workerID, testID int, result TestcaseOutput) {
	p.mu.Lock()
	p.output.Testcases[testID] = result
	p.mu.Unlock()

	logging.S().Debugw("test case finalized", "worker", workerID, "test", testID, "verdict", result.Verdict)

	if p.Sink != nil {
		if err := p.Sink.Publish(events.Event{RunID: p.RunID, EventType: events.TypeTestcase, Event: result}); err != nil {
			logging.S().Warnw("publish testcase event failed", "test", testID, "err", err)
		}
	}
}
