// Package jobs runs the background schedules of the server process.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

// Warmable is a cache that can be rebuilt ahead of traffic.
type Warmable interface {
	Warm(ctx context.Context) error
}

// Warmer rebuilds cached dashboards on a cron schedule. Runs never overlap.
type Warmer struct {
	target  Warmable
	cron    *cron.Cron
	logger  zerolog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewWarmer schedules target.Warm on the five-field cron spec. An empty spec
// schedules nothing and leaves RunOnce for manual runs. Each run is bounded
// by timeout.
func NewWarmer(spec string, target Warmable, timeout time.Duration, logger zerolog.Logger) (*Warmer, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	logger = logger.With().Str("component", "warmer").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	w := &Warmer{
		target:  target,
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	w.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if spec == "" {
		return w, nil
	}
	if _, err := w.cron.AddFunc(spec, w.Run); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule warmer %q: %w", spec, err)
	}
	return w, nil
}

func (w *Warmer) WithMetrics(m *metrics.Metrics) *Warmer {
	w.metrics = m
	return w
}

func (w *Warmer) Start() {
	w.cron.Start()
	w.logger.Info().Msg("warmer started")
}

// Stop cancels an in-flight run and waits for it to return.
func (w *Warmer) Stop() {
	w.cancel()
	<-w.cron.Stop().Done()
	w.logger.Info().Msg("warmer stopped")
}

// Run is the scheduled job. Failures are logged and counted.
func (w *Warmer) Run() {
	_ = w.RunOnce(w.ctx)
}

// RunOnce performs one warming pass and returns its error.
func (w *Warmer) RunOnce(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	err := w.target.Warm(ctx)
	if w.metrics != nil {
		w.metrics.RecordWarmRun(err)
	}
	if err != nil {
		w.logger.Error().Err(err).Msg("warm run failed")
		return err
	}
	w.logger.Info().Dur("duration", time.Since(start)).Msg("warm run finished")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
