package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		ev := logger.Fatal().Err(err)
		if code, ok := errors.CodeOf(err); ok {
			ev = ev.Str("error_code", string(code))
		}
		if missing, ok := errors.MissingEvents(err); ok {
			ev = ev.Strs("missing_events", missing)
		}
		if errors.HasCode(err, errors.ErrUnknownAccessor) || errors.HasCode(err, errors.ErrUnknownModule) {
			ev = ev.Str("hint", "run 'powertrace list' for the available accessors")
		}
		ev.Msg("powertrace failed")
	}
}
