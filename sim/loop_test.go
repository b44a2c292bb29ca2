package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/shared/messages"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastSession(t *testing.T) *Session {
	t.Helper()
	config.Sim.DefaultTPS = 200
	t.Cleanup(config.Reset)
	s, _ := newTestSession(t)
	return s
}

func runAsync(ctx context.Context, s *Session) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func TestRunStepsUntilCancelled(t *testing.T) {
	s := fastSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	require.Eventually(t, func() bool { return s.Telemetry().Step >= 120 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.GreaterOrEqual(t, s.View().Step, uint64(120))
}

func TestRunStopsSteppingWhenControlledDespawns(t *testing.T) {
	s := fastSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runAsync(ctx, s)

	require.Eventually(t, func() bool { return s.Telemetry().Step >= 105 }, 5*time.Second, 5*time.Millisecond)
	s.HandleDespawn(messages.DespawnEvent{NetworkID: 1})
	require.Eventually(t, func() bool { return !s.View().HasPlayer }, 5*time.Second, 5*time.Millisecond)

	stopped := s.Telemetry().Step
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, s.Telemetry().Step)

	s.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not close")
	}
}

func TestRunEndsWhenServerConnectionLost(t *testing.T) {
	s := fastSession(t)
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))
	gen := s.Generation()

	done := runAsync(context.Background(), s)
	require.Eventually(t, func() bool { return s.Telemetry().Step >= 105 }, 5*time.Second, 5*time.Millisecond)

	s.HandleDisconnect(errors.New("connection reset"))
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("session kept running after the connection was lost")
	}
	assert.Equal(t, gen+1, s.Generation())

	stopped := s.Telemetry().Step
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, s.Telemetry().Step)
}

func TestRunSlowsWhenHiddenAndAhead(t *testing.T) {
	s := fastSession(t)
	s.hiddenWait = time.Hour
	s.SetHidden(true)
	s.clock.Observe(0, 200, 200, time.Now())
	require.NoError(t, s.SpawnControlled(1, mgl64.Vec2{2, 2}, config.Player.Properties))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	require.Eventually(t, func() bool { return s.Telemetry().Step == 101 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, uint64(101), s.Telemetry().Step)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunFailsOnUnknownMap(t *testing.T) {
	s := fastSession(t)
	s.HandleTick(messages.GlobalTick{Tick: 100, TPS: 30, MapID: "nowhere"})

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownMap)
}
