package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BatmanBruc/bat-bot-sheets/internal/catalog"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

// RetentionJob deletes journal entries older than the retention window.
type RetentionJob struct {
	Journal types.JournalStore
	Days    int
	Spec    string
	Logger  *zap.Logger
	now     func() time.Time
}

func (j *RetentionJob) Name() string     { return "journal-retention" }
func (j *RetentionJob) Schedule() string { return specOr(j.Spec, "@daily") }

func (j *RetentionJob) Run(ctx context.Context) error {
	if j.Journal == nil || j.Days <= 0 {
		return nil
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	cutoff := now().Add(-time.Duration(j.Days) * 24 * time.Hour)
	n, err := j.Journal.PurgeSubmissions(ctx, cutoff)
	if err != nil {
		return err
	}
	logger(j.Logger).Info("journal purged", zap.Int64("deleted", n), zap.Time("before", cutoff))
	return nil
}

// HeaderCheckJob warns about worksheets whose header row no longer matches
// the configured columns.
type HeaderCheckJob struct {
	Catalog interface{ Catalog() *catalog.Catalog }
	Reader  types.HeaderReader
	Spec    string
	Timeout time.Duration
	Logger  *zap.Logger
}

func (j *HeaderCheckJob) Name() string     { return "header-check" }
func (j *HeaderCheckJob) Schedule() string { return specOr(j.Spec, "@hourly") }

func (j *HeaderCheckJob) Run(ctx context.Context) error {
	c := j.Catalog.Catalog()
	if c == nil {
		return errors.New("no catalog loaded")
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := logger(j.Logger)
	for _, m := range catalog.VerifyHeaders(ctx, c, j.Reader) {
		fields := []zap.Field{zap.String("table", m.Table), zap.String("worksheet", m.Worksheet)}
		switch {
		case m.Err != nil:
			log.Warn("header check: cannot read worksheet", append(fields, zap.Error(m.Err))...)
		case m.Missing():
			log.Warn("header check: worksheet has no header row", append(fields, zap.Strings("expected", m.Expected))...)
		default:
			log.Warn("header check: header differs from configured columns",
				append(fields, zap.Strings("expected", m.Expected), zap.Strings("actual", m.Actual))...)
		}
	}
	return nil
}

type Sweeper interface {
	Sweep(idle time.Duration) int
}

// LimiterSweepJob drops rate limiter state for users that went quiet.
type LimiterSweepJob struct {
	Limiter Sweeper
	Idle    time.Duration
	Logger  *zap.Logger
}

func (j *LimiterSweepJob) Name() string     { return "limiter-sweep" }
func (j *LimiterSweepJob) Schedule() string { return "@every 10m" }

func (j *LimiterSweepJob) Run(context.Context) error {
	idle := j.Idle
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	if n := j.Limiter.Sweep(idle); n > 0 {
		logger(j.Logger).Debug("rate limiter swept", zap.Int("dropped", n))
	}
	return nil
}

func specOr(spec, def string) string {
	if spec == "" {
		return def
	}
	return spec
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
