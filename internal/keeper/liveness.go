package keeper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/metrics"
	"github.com/dreamware/tribbler/internal/rpc"
)

// maxFailures is F from spec §4: the number of consecutive failed probes
// before a back-end is declared down.
const maxFailures = 3

// backendHealth tracks the liveness of a single back-end.
type backendHealth struct {
	Addr             string
	Status           string // "healthy", "unhealthy", "unknown"
	LastCheck        time.Time
	LastHealthy      time.Time
	ConsecutiveFails int
}

// LivenessMonitor periodically probes every back-end in a ring and tracks
// which ones are currently live. It generalizes an HTTP-based health
// monitor into a clock(0) RPC probe, since a back-end's liveness for
// Bin Storage purposes is defined by whether it can still serve RPCs, not by
// an HTTP-specific health surface.
type LivenessMonitor struct {
	mu          sync.RWMutex
	backs       map[string]*backendHealth
	interval    time.Duration
	probeFunc   func(ctx context.Context, addr string) error
	onUnhealthy func(addr string)
	onRecovered func(addr string)
	log         zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLivenessMonitor builds a monitor that probes every interval.
func NewLivenessMonitor(interval time.Duration, log zerolog.Logger) *LivenessMonitor {
	return &LivenessMonitor{
		backs:     make(map[string]*backendHealth),
		interval:  interval,
		probeFunc: defaultProbe,
		log:       log,
	}
}

func defaultProbe(ctx context.Context, addr string) error {
	_, err := rpc.NewClient(addr).Clock(ctx, 0)
	return err
}

// SetProbeFunc overrides the liveness probe, primarily for tests.
func (m *LivenessMonitor) SetProbeFunc(f func(ctx context.Context, addr string) error) {
	m.probeFunc = f
}

// OnUnhealthy registers a callback invoked (in its own goroutine) the first
// time a back-end crosses the failure threshold.
func (m *LivenessMonitor) OnUnhealthy(f func(addr string)) {
	m.onUnhealthy = f
}

// OnRecovered registers a callback invoked the first time a previously
// unhealthy back-end succeeds a probe again.
func (m *LivenessMonitor) OnRecovered(f func(addr string)) {
	m.onRecovered = f
}

// Start begins the probe loop against the back-ends returned by provider,
// blocking until ctx is canceled or Stop is called.
func (m *LivenessMonitor) Start(ctx context.Context, provider func() []string) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkAll(ctx, provider())

	for {
		select {
		case <-ticker.C:
			m.checkAll(ctx, provider())
		case <-ctx.Done():
			m.log.Info().Msg("liveness monitor stopping")
			return
		}
	}
}

// Stop cancels the probe loop and waits for it to exit.
func (m *LivenessMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *LivenessMonitor) checkAll(ctx context.Context, addrs []string) {
	current := make(map[string]bool, len(addrs))
	for _, addr := range addrs {
		current[addr] = true
		m.checkOne(ctx, addr)
	}

	m.mu.Lock()
	for addr := range m.backs {
		if !current[addr] {
			delete(m.backs, addr)
		}
	}
	m.mu.Unlock()

	metrics.BackendsLive.Set(float64(len(m.LiveAddrs())))
}

func (m *LivenessMonitor) checkOne(ctx context.Context, addr string) {
	m.mu.Lock()
	h, ok := m.backs[addr]
	if !ok {
		h = &backendHealth{Addr: addr, Status: "unknown"}
		m.backs[addr] = h
	}
	m.mu.Unlock()

	err := m.probeFunc(ctx, addr)

	m.mu.Lock()
	defer m.mu.Unlock()
	h.LastCheck = time.Now()

	if err != nil {
		h.ConsecutiveFails++
		if h.ConsecutiveFails >= maxFailures && h.Status != "unhealthy" {
			h.Status = "unhealthy"
			if m.onUnhealthy != nil {
				go m.onUnhealthy(addr)
			}
		}
		return
	}

	wasUnhealthy := h.Status == "unhealthy"
	h.Status = "healthy"
	h.ConsecutiveFails = 0
	h.LastHealthy = time.Now()
	if wasUnhealthy && m.onRecovered != nil {
		go m.onRecovered(addr)
	}
}

// IsHealthy reports whether addr is currently considered live. Unknown
// addresses report false.
func (m *LivenessMonitor) IsHealthy(addr string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.backs[addr]
	return ok && h.Status == "healthy"
}

// LiveAddrs returns every address currently considered healthy, in no
// particular order.
func (m *LivenessMonitor) LiveAddrs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.backs))
	for addr, h := range m.backs {
		if h.Status == "healthy" {
			out = append(out, addr)
		}
	}
	return out
}
