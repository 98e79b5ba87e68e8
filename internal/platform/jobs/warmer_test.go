package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

type countingTarget struct {
	runs atomic.Int32
	err  error
}

func (c *countingTarget) Warm(ctx context.Context) error {
	c.runs.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("run without deadline")
	}
	return c.err
}

func TestNewWarmer_InvalidSpec(t *testing.T) {
	_, err := NewWarmer("every minute", &countingTarget{}, time.Second, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewWarmer("*/5 * * * * *", &countingTarget{}, time.Second, zerolog.Nop())
	assert.Error(t, err, "six-field specs are rejected")
}

func TestWarmer_RunRecordsOutcome(t *testing.T) {
	target := &countingTarget{}
	m := metrics.New("mch_test", prometheus.NewRegistry())
	w, err := NewWarmer("*/15 * * * *", target, time.Second, zerolog.Nop())
	require.NoError(t, err)
	w.WithMetrics(m)

	w.Run()
	target.err = errors.New("redis down")
	assert.EqualError(t, w.RunOnce(context.Background()), "redis down")

	assert.Equal(t, int32(2), target.runs.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WarmRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WarmRuns.WithLabelValues("error")))
}

func TestWarmer_StartStop(t *testing.T) {
	w, err := NewWarmer("0 3 * * *", &countingTarget{}, time.Second, zerolog.Nop())
	require.NoError(t, err)
	w.Start()
	w.Stop()
}

func TestWarmer_ManualOnly(t *testing.T) {
	target := &countingTarget{}
	w, err := NewWarmer("", target, time.Second, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, w.cron.Entries())
	require.NoError(t, w.RunOnce(context.Background()))
	assert.Equal(t, int32(1), target.runs.Load())
}
