package keeper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/metrics"
)

// allStates lists every State value, used to zero out the ones a
// transition is leaving so KeeperState always reflects exactly one active
// state at a time.
var allStates = []State{StateStarting, StateSyncingInitial, StateSteady, StateRepairing, StateFailed}

// State is a Keeper's position in its lifecycle state machine (spec §4):
// starting -> syncing_initial -> steady -> (on back-end recovery)
// repairing -> steady, with a terminal failed state.
type State string

const (
	StateStarting       State = "starting"
	StateSyncingInitial State = "syncing_initial"
	StateSteady         State = "steady"
	StateRepairing      State = "repairing"
	StateFailed         State = "failed"
)

// Config controls a Keeper's timing and range identity.
type Config struct {
	RangeName      string
	ClockInterval  time.Duration
	LivenessPeriod time.Duration
	LeaseInterval  time.Duration
	Replicas       int
}

// DefaultConfig returns the keeper's default timings: a 1-second clock sync
// period and liveness probe period (clock synchronization doubles as the
// heartbeat), and a 10-second election lease.
func DefaultConfig(rangeName string, replicas int) Config {
	return Config{
		RangeName:      rangeName,
		ClockInterval:  time.Second,
		LivenessPeriod: time.Second,
		LeaseInterval:  10 * time.Second,
		Replicas:       replicas,
	}
}

// Keeper is a single keeper process. It drives clock-floor synchronization
// and liveness monitoring unconditionally, and performs replica migration
// only while it holds the keeper-of-keepers lock for its range.
type Keeper struct {
	cfg     Config
	client  *binstore.Client
	liven   *LivenessMonitor
	elector *Elector
	log     zerolog.Logger

	mu    sync.RWMutex
	state State
	ring  *binstore.Ring

	binsProvider func() []string

	cancel context.CancelFunc
	wg     sync.WaitGroup

	Ready chan bool
}

// New builds a Keeper over client, coordinating migration for cfg.RangeName.
// binsProvider returns the current set of known bin names; in production
// this is backed by the `users` log bin (every sign-up appends there).
func New(client *binstore.Client, cfg Config, binsProvider func() []string, log zerolog.Logger) *Keeper {
	k := &Keeper{
		cfg:          cfg,
		client:       client,
		liven:        NewLivenessMonitor(cfg.LivenessPeriod, log),
		log:          log,
		state:        StateStarting,
		binsProvider: binsProvider,
		Ready:        make(chan bool, 1),
	}
	k.elector = NewElector(client.Bin(systemBin), cfg.RangeName, cfg.LeaseInterval)
	k.liven.OnUnhealthy(k.handleUnhealthy)
	k.liven.OnRecovered(k.handleRecovered)
	return k
}

// State returns the keeper's current lifecycle state.
func (k *Keeper) State() State {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

func (k *Keeper) setState(s State) {
	k.mu.Lock()
	k.state = s
	k.mu.Unlock()

	for _, state := range allStates {
		v := 0.0
		if state == s {
			v = 1.0
		}
		metrics.KeeperState.WithLabelValues(string(state)).Set(v)
	}
}

// Start runs the keeper until ctx is canceled or Stop is called. It
// performs the initial sync synchronously, signals readiness on k.Ready,
// then runs the clock-sync and liveness loops until shutdown.
func (k *Keeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	k.cancel = cancel

	k.setState(StateSyncingInitial)
	k.ring = k.client.Ring()
	syncClockFloor(ctx, k.ring.Addrs(), k.log)

	if _, err := k.elector.TryClaim(ctx); err != nil {
		k.log.Error().Err(err).Msg("initial keeper-of-keepers claim failed")
		k.setState(StateFailed)
		k.Ready <- false
		return
	}

	k.setState(StateSteady)
	k.Ready <- true

	k.wg.Add(2)
	go func() {
		defer k.wg.Done()
		k.runClockLoop(ctx)
	}()
	go func() {
		defer k.wg.Done()
		k.liven.Start(ctx, func() []string { return k.client.Ring().Addrs() })
	}()

	<-ctx.Done()
	k.liven.Stop()
	k.wg.Wait()
}

// Stop signals shutdown and waits for all loops to exit.
func (k *Keeper) Stop() {
	if k.cancel != nil {
		k.cancel()
	}
	k.wg.Wait()
}

func (k *Keeper) runClockLoop(ctx context.Context) {
	ticker := time.NewTicker(k.cfg.ClockInterval)
	defer ticker.Stop()
	leaseTicker := time.NewTicker(k.elector.RefreshInterval())
	defer leaseTicker.Stop()

	for {
		select {
		case <-ticker.C:
			syncClockFloor(ctx, k.liven.LiveAddrs(), k.log)
		case <-leaseTicker.C:
			if _, err := k.elector.TryClaim(ctx); err != nil {
				k.log.Warn().Err(err).Msg("lease refresh failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleUnhealthy reacts to a back-end crossing the liveness failure
// threshold. Every other in-range replica already holds its own copy of
// each affected bin (writes fan out to the whole replica range), and reads
// already fail over to a live replica, so there is nothing to migrate away
// from a back-end that just went down; this only records the state
// transition for observability.
func (k *Keeper) handleUnhealthy(addr string) {
	k.log.Warn().Str("addr", addr).Msg("back-end marked unhealthy")
}

// handleRecovered reacts to a back-end passing a liveness probe again after
// having been marked down, by planning and, if this keeper holds the
// range's lock, executing the repairs needed to restore it (spec §4.2):
// since storage is in-memory only, a restarted back-end comes back empty
// and must be refilled from a live sibling replica for every bin whose
// fixed replica range includes it.
func (k *Keeper) handleRecovered(addr string) {
	ctx, cancel := context.WithTimeout(context.Background(), MigrationBound)
	defer cancel()

	held, err := k.elector.TryClaim(ctx)
	if err != nil {
		k.log.Warn().Err(err).Msg("lock claim during recovery repair failed")
		return
	}
	if !held {
		return
	}

	k.setState(StateRepairing)
	defer k.setState(StateSteady)

	bins := k.binsProvider()
	plans := PlanRepairs(k.ring, k.cfg.Replicas, bins, addr, k.liven.IsHealthy)
	if len(plans) == 0 {
		return
	}
	if err := RunMigrations(ctx, plans, k.log); err != nil {
		k.log.Warn().Err(err).Msg("repair batch did not finish within bound")
	}
}
