package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltasol/osboard/jobs"
	"go.uber.org/zap"
)

type stubProber struct {
	err error
}

func (p *stubProber) Health(ctx context.Context) error { return p.err }

func TestConnectivityMonitor(t *testing.T) {
	t.Run("tracks reachability transitions", func(t *testing.T) {
		p := &stubProber{}
		m := jobs.NewConnectivityMonitor(p, zap.NewNop())

		assert.False(t, m.Reachable(), "unknown until the first probe")

		m.Probe()
		assert.True(t, m.Reachable())

		p.err = errors.New("connection refused")
		m.Probe()
		assert.False(t, m.Reachable())

		p.err = nil
		m.Probe()
		assert.True(t, m.Reachable())
	})

	t.Run("registers with the scheduler", func(t *testing.T) {
		m := jobs.NewConnectivityMonitor(&stubProber{}, zap.NewNop())
		s := jobs.NewScheduler(zap.NewNop())

		require.NoError(t, m.Register(s, "@every 1m"))
		assert.Error(t, m.Register(s, "@every 1m"), "job names are unique")
		assert.Error(t, m.Register(jobs.NewScheduler(zap.NewNop()), "not a cron expression"))
	})
}
