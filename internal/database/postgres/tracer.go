package postgres

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type traceKey struct{}

type traceStart struct {
	sql   string
	start time.Time
}

// slowQueryTracer is a pgx.QueryTracer that logs statements slower than
// threshold, plus every failed statement.
type slowQueryTracer struct {
	logger    *log.Logger
	threshold time.Duration
	now       func() time.Time
}

var _ pgx.QueryTracer = (*slowQueryTracer)(nil)

func newSlowQueryTracer(logger *log.Logger, threshold time.Duration) *slowQueryTracer {
	return &slowQueryTracer{logger: logger, threshold: threshold, now: time.Now}
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, start: t.now()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	dur := t.now().Sub(st.start)

	switch {
	case data.Err != nil && !isBenign(data.Err):
		t.logger.Printf("[DB] Query error duration=%s sql=%q err=%v", dur, compactSQL(st.sql), data.Err)
	case dur >= t.threshold:
		t.logger.Printf("[DB] Slow query duration=%s rows=%d sql=%q", dur, data.CommandTag.RowsAffected(), compactSQL(st.sql))
	}
}

func isBenign(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, context.Canceled)
}

// compactSQL folds whitespace so a statement fits on one log line.
func compactSQL(sql string) string {
	s := strings.Join(strings.Fields(sql), " ")
	if len(s) > 300 {
		s = s[:297] + "..."
	}
	return s
}
