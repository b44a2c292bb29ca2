package sim

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/leveldata"
	"github.com/automoto/battleboxes/shared/messages"
	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
)

func floorMap(t testing.TB, name string, width int) *collisionmap.Map {
	t.Helper()
	var obs []leveldata.ObstacleData
	for x := 0; x < width; x++ {
		fx := float64(x)
		obs = append(obs, leveldata.ObstacleData{
			TileX: x,
			Points: []leveldata.Point{
				{X: fx - 0.5, Y: 0.5}, {X: fx + 0.5, Y: 0.5}, {X: fx + 0.5, Y: -0.5}, {X: fx - 0.5, Y: -0.5},
			},
			Friction: 0.5,
		})
	}
	m, err := collisionmap.New(&leveldata.CollisionData{Name: name, Width: width, Height: 6, Obstacles: obs})
	require.NoError(t, err)
	return m
}

type maps map[string]*collisionmap.Map

func (m maps) Map(id string) (*collisionmap.Map, error) {
	if got, ok := m[id]; ok {
		return got, nil
	}
	return nil, fmt.Errorf("no level %q", id)
}

type reports struct {
	mu  sync.Mutex
	got []messages.StepReport
	err error
}

func (r *reports) Report(msg messages.StepReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, msg)
	return r.err
}

func (r *reports) all() []messages.StepReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messages.StepReport(nil), r.got...)
}

func testInit() messages.SessionInit {
	return messages.SessionInit{
		StartStep:  100,
		Resolution: 20,
		Clearance:  0.001,
		Properties: config.Player.Properties,
	}
}

func newTestSession(t *testing.T) (*Session, *reports) {
	t.Helper()
	r := &reports{}
	s, err := NewSession(testInit(), floorMap(t, "arena", 8), maps{"arena": floorMap(t, "arena", 8), "wide": floorMap(t, "wide", 16)}, r)
	require.NoError(t, err)
	return s, r
}

func TestNewSessionRequiresMap(t *testing.T) {
	_, err := NewSession(testInit(), nil, maps{}, nil)
	assert.ErrorIs(t, err, ErrMapNotLoaded)
}

func TestSessionSingleControlledPlayer(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))

	err := s.SpawnControlled(2, mgl64.Vec2{3, 2}, config.Player.Properties)
	assert.ErrorIs(t, err, ErrControlledExists)
	assert.Equal(t, uint64(1), uint64(s.Controlled().ID()))
}

func TestSessionStepReports(t *testing.T) {
	s, r := newTestSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))
	s.HandleSnapshot(messages.EntitySnapshot{
		ID:         1,
		Kind:       netconfig.KindPlayer,
		Properties: config.Player.Properties,
		Modifiers:  []physics.Modifier{{ID: 8, Remaining: 10}},
	})
	require.NoError(t, s.Drain())
	s.SetInput(physics.Input{Right: true})

	now := time.Unix(0, 0)
	for step := uint64(101); step <= 103; step++ {
		s.Step(step, now)
		now = now.Add(33 * time.Millisecond)
	}

	got := r.all()
	require.Len(t, got, 3)
	assert.Equal(t, uint64(101), got[0].Step)
	assert.True(t, got[0].Input.Right)
	assert.Equal(t, []uint32{8}, got[2].ModifierIDs)

	pos := s.Controlled().Body().Position()
	assert.Equal(t, pos.X(), got[2].X)
	assert.Equal(t, pos.Y(), got[2].Y)

	stored, ok := s.history.Get(102)
	require.True(t, ok)
	assert.Equal(t, got[1], stored)

	v := s.View()
	assert.Equal(t, uint64(103), v.Step)
	assert.True(t, v.HasPlayer)
}

func TestSessionReporterErrorDoesNotStopStep(t *testing.T) {
	s, r := newTestSession(t)
	r.err = errors.New("queue full")
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))

	s.Step(101, time.Unix(0, 0))
	assert.Len(t, r.all(), 1)
	assert.Equal(t, uint64(101), s.View().Step)
}

func TestSessionAppliesSnapshotsOnlyOnDrain(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))

	s.HandleSnapshot(messages.EntitySnapshot{ID: 1, X: 5, Y: 3, OverridePosition: true, Properties: config.Player.Properties})
	assert.Equal(t, mgl64.Vec2{2, 2}, s.Controlled().Body().Position())

	require.NoError(t, s.Drain())
	assert.Equal(t, mgl64.Vec2{5, 3}, s.Controlled().Body().Position())
}

func TestSessionTickUpdatesClockAndWorld(t *testing.T) {
	s, _ := newTestSession(t)
	s.HandleTick(messages.GlobalTick{
		Tick:     500,
		TPS:      20,
		AvgTPS:   19.5,
		MapID:    "arena",
		Entities: []messages.EntitySnapshot{{ID: 4, Kind: netconfig.KindPlayer, X: 3, Y: 2}},
	})
	require.NoError(t, s.Drain())

	assert.Equal(t, 20.0, s.clock.TPS())
	assert.Equal(t, 50*time.Millisecond, s.clock.StepInterval())
	assert.Equal(t, 1, s.world.Len())
	assert.Equal(t, "arena", s.MapID())
}

func TestSessionMapSwitch(t *testing.T) {
	s, _ := newTestSession(t)

	s.HandleTick(messages.GlobalTick{Tick: 1, TPS: 30, MapID: "wide"})
	require.NoError(t, s.Drain())
	assert.Equal(t, "wide", s.MapID())
	assert.Equal(t, 16, s.world.Map().Width())

	s.HandleTick(messages.GlobalTick{Tick: 2, TPS: 30, MapID: "missing"})
	assert.ErrorIs(t, s.Drain(), ErrUnknownMap)
}

func TestSessionReplaceMap(t *testing.T) {
	s, _ := newTestSession(t)
	s.ReplaceMap(nil)
	s.ReplaceMap(floorMap(t, "wide", 20))
	require.NoError(t, s.Drain())
	assert.Equal(t, 8, s.world.Map().Width(), "not the active map")

	s.ReplaceMap(floorMap(t, "arena", 12))
	require.NoError(t, s.Drain())
	assert.Equal(t, 12, s.world.Map().Width())
}

func TestSessionDespawnAndRespawn(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))
	gen := s.Generation()

	s.HandleDespawn(messages.DespawnEvent{NetworkID: 1})
	require.NoError(t, s.Drain())
	assert.Nil(t, s.Controlled())
	assert.NotEqual(t, gen, s.Generation())

	// A plain snapshot of the local id does not bring prediction back.
	s.HandleSnapshot(messages.EntitySnapshot{ID: 1, Kind: netconfig.KindPlayer, X: 4, Y: 2})
	require.NoError(t, s.Drain())
	assert.Nil(t, s.Controlled())

	s.HandleSnapshot(messages.EntitySnapshot{ID: 1, Kind: netconfig.KindPlayer, X: 6, Y: 3, OverridePosition: true, Properties: config.Player.Properties})
	require.NoError(t, s.Drain())
	require.NotNil(t, s.Controlled())
	assert.Equal(t, mgl64.Vec2{6, 3}, s.Controlled().Body().Position())
	assert.Equal(t, 1, s.world.Len())
}

func TestSessionCloseBumpsGeneration(t *testing.T) {
	s, _ := newTestSession(t)
	gen := s.Generation()
	s.Close()
	s.Close()
	assert.Equal(t, gen+1, s.Generation())
}
