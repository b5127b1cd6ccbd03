package judge

import (
	"testing"

	"judgecore/internal/verdict"
)

func TestAggregateAllAccepted(t *testing.T) {
	t.Parallel()

	out := &JudgeOutput{
		Testcases: []TestcaseOutput{
			{Verdict: verdict.AC, Time: 0.1, Memory: 1000},
			{Verdict: verdict.AC, Time: 0.3, Memory: 5000},
			{Verdict: verdict.AC, Time: 0.2, Memory: 2000},
		},
	}

	Aggregate(out)

	if out.Verdict != verdict.AC {
		t.Fatalf("Verdict = %q, want AC", out.Verdict)
	}
	if out.Time != 0.3 {
		t.Fatalf("Time = %v, want 0.3 (max)", out.Time)
	}
	if out.Memory != 5000 {
		t.Fatalf("Memory = %v, want 5000 (max)", out.Memory)
	}
}

func TestAggregateFirstNonACWinsByAscendingID(t *testing.T) {
	t.Parallel()

	out := &JudgeOutput{
		Testcases: []TestcaseOutput{
			{Verdict: verdict.AC},
			{Verdict: verdict.WA},
			{Verdict: verdict.TLE},
		},
	}

	Aggregate(out)

	if out.Verdict != verdict.WA {
		t.Fatalf("Verdict = %q, want WA (first non-AC in id order)", out.Verdict)
	}
}

func TestAggregateEmptyTestcases(t *testing.T) {
	t.Parallel()

	out := &JudgeOutput{}
	Aggregate(out)

	if out.Verdict != verdict.AC {
		t.Fatalf("Verdict = %q, want AC for no test cases", out.Verdict)
	}
}
