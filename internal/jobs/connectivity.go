package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"campusportal/portal/internal/config"
)

var backendUp = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "backend_up",
	Help: "1 when the last backend status probe succeeded.",
})

// Prober checks backend health. Any error means unreachable.
type Prober interface {
	Status(ctx context.Context) error
}

// Monitor reports the latest known backend reachability.
type Monitor struct {
	unreachable atomic.Bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Unreachable is true after the last probe failed.
func (m *Monitor) Unreachable() bool {
	return m.unreachable.Load()
}

// Stop cancels the probe loop and waits for it to exit. Safe to call twice.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

// StartConnectivityMonitor probes immediately and then every StatusInterval
// until ctx is done or Stop is called.
func StartConnectivityMonitor(ctx context.Context, cfg config.Config, prober Prober, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.StatusInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := cfg.StatusTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	m := &Monitor{cancel: cancel}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		m.probe(ctx, prober, timeout, logger)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx, prober, timeout, logger)
			}
		}
	}()
	return m
}

func (m *Monitor) probe(ctx context.Context, prober Prober, timeout time.Duration, logger *zap.Logger) {
	tickCtx, cancel := context.WithTimeout(ctx, timeout)
	err := prober.Status(tickCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}
	down := err != nil
	if down {
		backendUp.Set(0)
	} else {
		backendUp.Set(1)
	}
	if m.unreachable.Swap(down) == down {
		return
	}
	if down {
		logger.Warn("connectivity_changed", zap.Bool("reachable", false), zap.Error(err))
	} else {
		logger.Info("connectivity_changed", zap.Bool("reachable", true))
	}
}
