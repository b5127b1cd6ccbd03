package judge

import "judgecore/internal/verdict"

// Aggregate computes the overall time, memory and verdict of a finished
// judge output from its per-case results: time and memory are the max
// across test cases, and the verdict is the first non-AC verdict in
// ascending test case ID order, or AC if every case passed.
func Aggregate(output *JudgeOutput) {
	var maxTime float64
	var maxMemory int64

	output.Verdict = verdict.AC
	foundNonAC := false

	for _, tc := range output.Testcases {
		if tc.Time > maxTime {
			maxTime = tc.Time
		}
		if tc.Memory > maxMemory {
			maxMemory = tc.Memory
		}
		if !foundNonAC && tc.Verdict != verdict.AC {
			output.Verdict = tc.Verdict
			foundNonAC = true
		}
	}

	output.Time = maxTime
	output.Memory = maxMemory
}
