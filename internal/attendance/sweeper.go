package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/campushq/attendance/internal/timeutil"
)

// SweepAutoClose force-closes every session still open past the local
// 23:00 cutoff of the run instant's calendar day. The cutoff instant,
// not the run time, becomes the time_out, so a delayed sweep writes
// the same timestamps a punctual one would have. Sessions opened at or
// after the cutoff are skipped: closing them would put time_out before
// time_in. Re-running is harmless since closed rows no longer match
// the open predicate.
func (e *Engine) SweepAutoClose(ctx context.Context, runInstant time.Time) (int, error) {
	cutoff := timeutil.CutoffFor(runInstant, e.Location)

	closed, err := e.Store.CloseAllOpenBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	if closed > 0 {
		e.Logger.Info("auto-closed open sessions", "count", closed, "cutoff", cutoff)
	}

	return closed, nil
}
