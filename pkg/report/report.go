// Package report renders shmvault's two user-facing text surfaces: the
// analyze-mode namespace-unit table and verbose progress/decile lines
// printed by the I/O worker pool.
package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// UnitRow is one row of the analyze-mode summary table.
type UnitRow struct {
	Instance  uint8
	Namespace string
	Kind      string // "full" or "data-only"
	Segments  int
	Bytes     int64
	Action    string // "backup" or "restore"
}

// Progress tracks the bytes-transferred-so-far state needed to print
// decile-crossing lines. It is not safe for concurrent use; callers
// serialize access to it themselves (internal/iopool holds it behind its
// own mutex, matching spec's single-mutex progress-reporting contract).
type Progress struct {
	Total      int64
	started    time.Time
	lastDecile int
}

// NewProgress starts a Progress tracker for a transfer of the given total
// byte count.
func NewProgress(total int64) *Progress {
	return &Progress{Total: total, started: timeNow()}
}

// timeNow is indirected only so a future test could fake it; production
// always calls time.Now.
func timeNow() time.Time { return time.Now() }

// CrossedDecile reports whether bytesDone advances Progress into a new
// decile bucket (0..10) it had not already reported, updating internal
// state and returning the formatted progress line when it has. It
// returns ("", false) when no new decile was crossed.
func (p *Progress) CrossedDecile(bytesDone int64) (string, bool) {
	if p.Total <= 0 {
		return "", false
	}

	decile := int(bytesDone * 10 / p.Total)
	if decile > 10 {
		decile = 10
	}
	if decile <= p.lastDecile {
		return "", false
	}
	p.lastDecile = decile

	elapsed := timeNow().Sub(p.started)
	line := fmt.Sprintf("Transferred %d%% of data (%s of %s)%s",
		decile*10,
		humanize.IBytes(uint64(bytesDone)),
		humanize.IBytes(uint64(p.Total)),
		etaSuffix(bytesDone, p.Total, elapsed))
	return line, true
}

// etaSuffix renders a best-effort, non-authoritative ETA string. This
// extrapolation is explicitly not part of the core contract — see
// DESIGN.md's Open Question decision on the source's broken ETA
// calculation. A rate of zero (no progress yet, or instantaneous
// completion) suppresses the ETA rather than dividing by zero.
func etaSuffix(bytesDone, total int64, elapsed time.Duration) string {
	if bytesDone <= 0 || elapsed <= 0 || bytesDone >= total {
		return ""
	}

	rate := float64(bytesDone) / elapsed.Seconds()
	if rate <= 0 {
		return ""
	}

	remaining := time.Duration(float64(total-bytesDone) / rate * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf(", ETA %s", remaining)
}
