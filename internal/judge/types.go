// Package judge orchestrates a full judging run: compiling a submission and
// its checker, dispatching test cases across a pool of sandboxes, and
// aggregating the per-case results into an overall verdict.
package judge

import "judgecore/internal/verdict"

// TestcaseOutput is the verdict document for a single test case.
type TestcaseOutput struct {
	Verdict        verdict.Code `json:"verdict" yaml:"verdict"`
	Time           float64      `json:"time" yaml:"time"`
	Memory         int64        `json:"memory" yaml:"memory"`
	CheckerOutput  string       `json:"checker_output" yaml:"checker_output"`
	SandboxOutput  string       `json:"sandbox_output" yaml:"sandbox_output"`
}

// JudgeOutput is the full verdict document for a submission: the
// aggregated verdict plus every test case's individual result.
//
// CompileMessage is populated whenever a compile step (submission or
// checker) fails, so a CE/SE verdict is still debuggable; it is left empty
// on a normal run.
type JudgeOutput struct {
	Verdict        verdict.Code     `json:"verdict" yaml:"verdict"`
	Time           float64          `json:"time" yaml:"time"`
	Memory         int64            `json:"memory" yaml:"memory"`
	CompileMessage string           `json:"compile_message,omitempty" yaml:"compile_message,omitempty"`
	Testcases      []TestcaseOutput `json:"testcases" yaml:"testcases"`
}

// NewJudgeOutput builds the initial WJ (waiting-to-be-judged) document for
// n test cases.
func NewJudgeOutput(n int) *JudgeOutput {
	testcases := make([]TestcaseOutput, n)
	for i := range testcases {
		testcases[i].Verdict = verdict.WJ
	}
	return &JudgeOutput{
		Verdict:   verdict.WJ,
		Testcases: testcases,
	}
}

// SetAll forces every test case (and the overall verdict) to the same code.
// Used for whole-submission failures that precede per-case judging, namely
// compile error and system error.
func (j *JudgeOutput) SetAll(code verdict.Code) {
	j.Verdict = code
	for i := range j.Testcases {
		j.Testcases[i].Verdict = code
	}
}
