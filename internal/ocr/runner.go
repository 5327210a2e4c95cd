package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"bizcard/internal/logging"
)

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	logger := r.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if err != nil {
		logger.Error("exec failed",
			logging.String("cmd", name),
			logging.String("args", strings.Join(args, " ")),
			logging.Duration("duration", dur),
			logging.Error(err),
			logging.String("stderr", truncate(errb.String(), 8<<10)),
		)
	} else {
		logger.Debug("exec ok",
			logging.String("cmd", name),
			logging.Duration("duration", dur),
			logging.Int("stdout_bytes", out.Len()),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
