// Package sim runs the local prediction loop for one game session.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"
	"go.uber.org/zap"

	"github.com/automoto/battleboxes/arena"
	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/logging"
	"github.com/automoto/battleboxes/network"
	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/messages"
	"github.com/automoto/battleboxes/shared/physics"
)

var (
	ErrControlledExists = arena.ErrControlledExists
	ErrMapNotLoaded     = errors.New("collision map not loaded")
	ErrUnknownMap       = errors.New("unknown map")
	ErrClosed           = errors.New("session closed")
)

// MapProvider resolves a map id announced by the server.
type MapProvider interface {
	Map(id string) (*collisionmap.Map, error)
}

// Reporter takes the report of every completed step. It must not block.
type Reporter interface {
	Report(messages.StepReport) error
}

type inboxKind int

const (
	inboxTick inboxKind = iota
	inboxSnapshot
	inboxDespawn
	inboxMap
)

type inboxItem struct {
	kind     inboxKind
	at       time.Time
	tick     messages.GlobalTick
	snapshot messages.EntitySnapshot
	id       esync.NetworkId
	m        *collisionmap.Map
}

// Session is the context of one joined game: the controlled player, the
// world of remote entities, the collision map and the step pacing. The
// owning goroutine (Run, or a test) calls Drain and Step; every other
// method is safe from any goroutine and takes effect at the next Drain.
type Session struct {
	mu     sync.Mutex
	inbox  []inboxItem
	notify chan struct{}
	input  physics.Input
	hidden atomic.Bool
	closed atomic.Bool

	generation atomic.Uint64

	localID  esync.NetworkId
	hasLocal bool
	size     mgl64.Vec2

	tuning   physics.Tuning
	world    *arena.World
	mapID    string
	provider MapProvider
	reporter Reporter
	history  *network.StepHistory
	sync     *Synchronizer
	clock    ServerClock

	hiddenWait time.Duration
	telemetry  atomic.Pointer[Telemetry]
	now        func() time.Time
	log        *zap.SugaredLogger
}

// NewSession starts a session from the server's init message. m is the map
// announced at join; provider resolves later map switches.
func NewSession(init messages.SessionInit, m *collisionmap.Map, provider MapProvider, reporter Reporter) (*Session, error) {
	if m == nil {
		return nil, ErrMapNotLoaded
	}

	tuning := physics.Tuning{
		Resolution:    init.Resolution,
		Clearance:     init.Clearance,
		VerticalSlack: config.Sim.VerticalSlack,
	}
	if tuning.Resolution <= 0 {
		tuning.Resolution = config.Sim.Resolution
	}
	if tuning.Clearance <= 0 {
		tuning.Clearance = config.Sim.Clearance
	}

	s := &Session{
		notify:   make(chan struct{}, 1),
		size:     mgl64.Vec2{config.Player.Width, config.Player.Height},
		tuning:   tuning,
		provider: provider,
		reporter: reporter,
		history:  network.NewStepHistory(config.Sim.HistorySize),
		sync: NewSynchronizer(Gains{
			KP:      config.Sim.KP,
			KI:      config.Sim.KI,
			KD:      config.Sim.KD,
			Decay:   config.Sim.IntegralDecay,
			MinRate: config.Sim.MinRate,
		}, config.Sim.TelemetryWindow),
		world: arena.NewWorld(init.ProjectileHulls, arena.Options{
			InterpolationDelay: config.Sim.InterpolationDelay,
			CorrectionDuration: config.Sim.CorrectionDuration,
		}),
		hiddenWait: config.Sim.HiddenStepInterval,
		now:        time.Now,
		log:        logging.Named("sim"),
	}
	s.sync.SetStep(init.StartStep)
	s.clock.Observe(init.StartStep, config.Sim.DefaultTPS, config.Sim.DefaultTPS, s.now())
	s.setMap(m)
	s.telemetry.Store(&Telemetry{Step: init.StartStep})
	return s, nil
}

// SpawnControlled creates the locally controlled player. Only one may
// exist at a time.
func (s *Session) SpawnControlled(id esync.NetworkId, pos mgl64.Vec2, props physics.MovementProperties) error {
	if _, err := s.world.SpawnControlled(id, pos, s.size.X(), s.size.Y(), props); err != nil {
		return err
	}
	s.localID, s.hasLocal = id, true
	s.log.Infow("controlled player spawned", "id", id, "x", pos.X(), "y", pos.Y())
	return nil
}

// Controlled returns the controlled player, or nil.
func (s *Session) Controlled() *arena.ControlledPlayer {
	return s.world.Controlled()
}

// HandleTick queues a global tick.
func (s *Session) HandleTick(tick messages.GlobalTick) {
	s.enqueue(inboxItem{kind: inboxTick, tick: tick})
}

// HandleSnapshot queues a single entity snapshot.
func (s *Session) HandleSnapshot(snap messages.EntitySnapshot) {
	s.enqueue(inboxItem{kind: inboxSnapshot, snapshot: snap})
}

// HandleDespawn queues an entity removal.
func (s *Session) HandleDespawn(ev messages.DespawnEvent) {
	s.enqueue(inboxItem{kind: inboxDespawn, id: ev.NetworkID})
}

// ReplaceMap queues a wholesale swap of the active map, as after its level
// file changed. A map with another name is ignored.
func (s *Session) ReplaceMap(m *collisionmap.Map) {
	if m == nil {
		return
	}
	s.enqueue(inboxItem{kind: inboxMap, m: m})
}

func (s *Session) enqueue(item inboxItem) {
	item.at = s.now()
	s.mu.Lock()
	s.inbox = append(s.inbox, item)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// HandleDisconnect ends the session when the server connection is lost.
// The running loop stops at its next iteration and Run returns ErrClosed.
func (s *Session) HandleDisconnect(err error) {
	if !s.closed.Load() {
		s.log.Infow("server connection lost", "error", err)
	}
	s.Close()
}

// SetInput replaces the inputs held for the following steps.
func (s *Session) SetInput(in physics.Input) {
	s.mu.Lock()
	s.input = in
	s.mu.Unlock()
}

// SetHidden reports whether the game window is in the background.
func (s *Session) SetHidden(hidden bool) {
	s.hidden.Store(hidden)
}

// Generation changes whenever the controlled player goes away or the
// session closes; a running loop stops when it sees a new value.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// Close ends the session. A running loop stops at its next iteration.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.generation.Add(1)
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

func (s *Session) View() *arena.View {
	return s.world.View()
}

func (s *Session) Telemetry() Telemetry {
	return *s.telemetry.Load()
}

// MapID is the active map. Only the owning goroutine may call it.
func (s *Session) MapID() string {
	return s.mapID
}

// Drain applies every queued message. Call only between steps.
func (s *Session) Drain() error {
	s.mu.Lock()
	items := s.inbox
	s.inbox = nil
	s.mu.Unlock()

	for _, item := range items {
		if err := s.apply(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) apply(item inboxItem) error {
	switch item.kind {
	case inboxTick:
		t := item.tick
		tps := t.TPS
		if tps <= 0 {
			tps = s.clock.TPS()
		}
		s.clock.Observe(t.Tick, tps, t.AvgTPS, item.at)
		s.world.SetStepInterval(s.clock.StepInterval())

		if t.MapID != "" && t.MapID != s.mapID {
			if err := s.switchMap(t.MapID); err != nil {
				return err
			}
		}
		for i := range t.Entities {
			s.reconcile(t.Entities[i], item.at)
		}
		s.world.ApplyTick(t, item.at)
	case inboxSnapshot:
		s.reconcile(item.snapshot, item.at)
		s.world.Apply(arena.Update{Snapshot: item.snapshot, At: item.at})
	case inboxDespawn:
		if s.world.Despawn(item.id) && s.hasLocal && item.id == s.localID {
			s.log.Infow("controlled player despawned", "id", item.id)
			s.generation.Add(1)
		}
	case inboxMap:
		if item.m.Name() != s.mapID {
			s.log.Debugw("reloaded map not active", "map", item.m.Name())
			return nil
		}
		s.setMap(item.m)
		s.log.Infow("map replaced", "map", item.m.Name())
	}
	return nil
}

// reconcile handles what a snapshot of the local player means before it
// reaches the world: respawning it, or measuring a hard correction.
func (s *Session) reconcile(snap messages.EntitySnapshot, at time.Time) {
	if !s.hasLocal || snap.ID != s.localID || !snap.OverridePosition {
		return
	}

	if s.world.Controlled() == nil {
		if err := s.SpawnControlled(snap.ID, mgl64.Vec2{snap.X, snap.Y}, snap.Properties); err != nil {
			s.log.Warnw("respawn failed", "id", snap.ID, "error", err)
		}
		return
	}

	if d, ok := s.history.PredictionError(snap.Step, snap.X, snap.Y); ok {
		s.log.Debugw("prediction corrected", "step", snap.Step, "error", d)
	} else {
		s.log.Debugw("position overridden", "step", snap.Step)
	}
}

func (s *Session) switchMap(id string) error {
	m, err := s.provider.Map(id)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnknownMap, id, err)
	}
	s.setMap(m)
	s.log.Infow("map switched", "map", id)
	return nil
}

func (s *Session) setMap(m *collisionmap.Map) {
	s.world.SetMap(m)
	s.mapID = m.Name()
}

// Step runs one local step numbered step at now. It does nothing without a
// controlled player.
func (s *Session) Step(step uint64, now time.Time) {
	p := s.world.Controlled()
	if p == nil {
		return
	}

	s.mu.Lock()
	in := s.input
	s.mu.Unlock()

	p.Step(in, s.world.Map(), s.tuning, now)
	s.world.UpdateOverlaps(now)

	pos := p.Body().Position()
	report := messages.StepReport{
		Step:        step,
		Input:       in,
		ModifierIDs: physics.ModifierIDs(nil, p.Modifiers()),
		X:           pos.X(),
		Y:           pos.Y(),
	}
	s.history.Store(report)
	if s.reporter != nil {
		if err := s.reporter.Report(report); err != nil {
			s.log.Debugw("step report not sent", "step", step, "error", err)
		}
	}

	s.world.Publish(step, now)
}
