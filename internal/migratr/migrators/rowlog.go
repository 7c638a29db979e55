package migrators

import (
	"go.uber.org/zap"

	"github.com/equilibrar/migratr/internal/migratr/logger"
)

// Skip reasons, counted per phase.
const (
	SkipDuplicateRUT      = "duplicate_rut"
	SkipMissingName       = "missing_name"
	SkipBlankRow          = "blank_row"
	SkipUnresolvedPatient = "unresolved_patient"
	SkipUnresolvedStaff   = "unresolved_staff"
	SkipInvalidDate       = "invalid_date"
	SkipInsertFailed      = "insert_failed"
	SkipUnresolvedCita    = "unresolved_cita"
)

// RowLog records per-row outcomes for one phase. A skip is always row-level:
// logged with the originating row position and counted, never escalated.
type RowLog struct {
	Phase     string
	Processed int
	skips     map[string]int
	log       *zap.SugaredLogger
}

func NewRowLog(phase string) *RowLog {
	return &RowLog{
		Phase: phase,
		skips: make(map[string]int),
		log:   logger.L(),
	}
}

// Row marks one source row as processed.
func (l *RowLog) Row() {
	l.Processed++
}

// Skip records a skipped row with its position and reason.
func (l *RowLog) Skip(pos int, reason string, kv ...any) {
	l.skips[reason]++
	args := append([]any{"phase", l.Phase, "row", pos, "reason", reason}, kv...)
	l.log.Warnw("row skipped", args...)
}

// Skipped is the total number of skipped rows.
func (l *RowLog) Skipped() int {
	n := 0
	for _, c := range l.skips {
		n += c
	}
	return n
}

// SkippedFor returns the count for one skip reason.
func (l *RowLog) SkippedFor(reason string) int {
	return l.skips[reason]
}

// Reasons returns a copy of the per-reason counters.
func (l *RowLog) Reasons() map[string]int {
	out := make(map[string]int, len(l.skips))
	for k, v := range l.skips {
		out[k] = v
	}
	return out
}
