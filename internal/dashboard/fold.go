package dashboard

import (
	"strings"

	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/executor"
	"github.com/harshul/stackdash/internal/ringlog"
)

// foldResult appends a command's outcome to the log: a leveled header,
// then one entry per non-empty output line.
func foldResult(log *ringlog.RingLog, res executor.Result) {
	if res.Success {
		log.Success("Command succeeded: %s", res.Action)
		appendLines(log, ringlog.LevelInfo, res.Stdout)
		appendLines(log, ringlog.LevelInfo, res.Stderr)
		return
	}

	log.Error("Command failed: %s", res.Action)
	switch {
	case res.Failure != executor.ReasonNone && res.Err != nil:
		log.Error("Error: %s", errors.Summary(res.Err))
	case res.ExitCode != nil:
		log.Error("Exit code: %d", *res.ExitCode)
	case res.Err != nil:
		log.Error("Error: %s", errors.Summary(res.Err))
	}
	appendLines(log, ringlog.LevelInfo, res.Stdout)
	appendLines(log, ringlog.LevelError, res.Stderr)
}

func appendLines(log *ringlog.RingLog, level ringlog.Level, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		log.Append(level, line)
	}
}
