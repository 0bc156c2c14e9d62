package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"campusportal/portal/internal/config"
)

type fakeProber struct {
	mu    sync.Mutex
	err   error
	calls atomic.Int32
}

func (p *fakeProber) Status(ctx context.Context) error {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProber) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonitorProbesImmediately(t *testing.T) {
	p := &fakeProber{err: errors.New("connection refused")}
	m := StartConnectivityMonitor(context.Background(), config.Config{StatusInterval: time.Hour}, p, nil)
	defer m.Stop()

	waitFor(t, "first probe", func() bool { return m.Unreachable() })
	if p.calls.Load() != 1 {
		t.Fatalf("expected a single probe before the first tick, got %d", p.calls.Load())
	}
}

func TestMonitorRecovers(t *testing.T) {
	p := &fakeProber{err: errors.New("down")}
	m := StartConnectivityMonitor(context.Background(), config.Config{StatusInterval: 10 * time.Millisecond}, p, nil)
	defer m.Stop()

	waitFor(t, "unreachable", m.Unreachable)
	p.set(nil)
	waitFor(t, "reachable", func() bool { return !m.Unreachable() })
}

func TestMonitorStopWaits(t *testing.T) {
	p := &fakeProber{}
	m := StartConnectivityMonitor(context.Background(), config.Config{StatusInterval: 5 * time.Millisecond}, p, nil)
	waitFor(t, "probes", func() bool { return p.calls.Load() >= 2 })
	m.Stop()
	after := p.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if p.calls.Load() != after {
		t.Fatalf("probes continued after Stop")
	}
	m.Stop()
}

func TestMonitorLogsTransitionsOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := &fakeProber{err: errors.New("down")}
	m := StartConnectivityMonitor(context.Background(), config.Config{StatusInterval: 5 * time.Millisecond}, p, zap.New(core))
	defer m.Stop()

	waitFor(t, "unreachable", m.Unreachable)
	waitFor(t, "repeat probes", func() bool { return p.calls.Load() >= 3 })
	p.set(nil)
	waitFor(t, "reachable", func() bool { return !m.Unreachable() })
	m.Stop()

	changes := logs.FilterMessage("connectivity_changed").All()
	if len(changes) != 2 {
		t.Fatalf("expected one log per transition, got %d", len(changes))
	}
	if changes[0].ContextMap()["reachable"] != false || changes[1].ContextMap()["reachable"] != true {
		t.Fatalf("unexpected transitions %v", changes)
	}
}
