package services

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredCloser закрывает операции с истекшим дедлайном.
type ExpiredCloser interface {
	CloseExpiredOperations(ctx context.Context) (int64, error)
}

// Sweeper периодически закрывает просроченные операции.
type Sweeper struct {
	Closer   ExpiredCloser
	Interval time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewSweeper создает новый экземпляр Sweeper.
func NewSweeper(closer ExpiredCloser, interval, timeout time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{Closer: closer, Interval: interval, Timeout: timeout, Logger: logger}
}

// Run выполняет проход сразу и затем раз в Interval, пока не отменен ctx.
// При Interval <= 0 выполняется только один проход.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepOnce(ctx)
	if s.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	if _, err := s.Closer.CloseExpiredOperations(runCtx); err != nil {
		s.Logger.ErrorContext(ctx, "failed to close expired operations", slog.Any("error", err))
	}
}
