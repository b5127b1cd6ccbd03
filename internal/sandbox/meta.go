package sandbox

import (
	"strconv"
	"strings"

	"judgecore/internal/verdict"
)

// Meta is the parsed contents of an isolate --meta file: timing, memory,
// exit code, and (if isolate itself detected a terminal condition) a
// verdict already derived from the "status" key.
type Meta struct {
	Time     *float64
	TimeWall *float64
	Memory   *int64
	ExitCode *int64
	Verdict  *verdict.Code
}

// ParseMeta parses an isolate meta file's "key:value" lines. Unknown keys
// and unparsable values are silently ignored, matching isolate's own
// tolerance for meta-file keys this judge doesn't care about.
func ParseMeta(source string) Meta {
	var meta Meta

	for _, line := range strings.Split(source, "\n") {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key, value := line[:idx], line[idx+1:]

		switch key {
		case "time":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				meta.Time = &v
			}
		case "time-wall":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				meta.TimeWall = &v
			}
		case "max-rss":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				meta.Memory = &v
			}
		case "exitcode":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				meta.ExitCode = &v
			}
		case "status":
			if v, ok := verdict.MapStatus(value); ok {
				meta.Verdict = &v
			}
		}
	}

	return meta
}

// ApplyCheckerOutput fills in Meta.Verdict from the checker's stderr when
// isolate itself didn't already report a terminal status (TLE/MLE/RE/SE
// always win over the checker's opinion). Per the testlib convention, a
// checker reports AC by writing stderr beginning with "ok"; anything else
// is WA.
func ApplyCheckerOutput(meta Meta, checkerOutput string) Meta {
	if meta.Verdict != nil {
		return meta
	}

	var v verdict.Code
	if strings.HasPrefix(checkerOutput, "ok") {
		v = verdict.AC
	} else {
		v = verdict.WA
	}
	meta.Verdict = &v
	return meta
}
