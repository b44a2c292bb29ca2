package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGains = Gains{KP: 4, KI: 0.2, KD: 8, Decay: 0.9, MinRate: 2}

// simulate runs the controller against a server ticking at tps from t=0,
// with every step taking elapsed of wall time.
func simulate(s *Synchronizer, n int, tps float64, elapsed time.Duration) ([]float64, []Telemetry) {
	base := time.Unix(0, 0)
	now := base
	errs := make([]float64, 0, n)
	tel := make([]Telemetry, 0, n)
	for i := 0; i < n; i++ {
		start := now
		s.Begin(start)
		end := start.Add(elapsed)
		delay := s.Pace(start, end, tps*end.Sub(base).Seconds(), tps)
		now = end.Add(delay)

		t := s.Telemetry()
		errs = append(errs, t.Error)
		tel = append(tel, t)
	}
	return errs, tel
}

func TestSynchronizerConverges(t *testing.T) {
	s := NewSynchronizer(testGains, time.Second)
	errs, tel := simulate(s, 400, 30, time.Millisecond)

	for i := 150; i < len(tel); i++ {
		assert.InDelta(t, 30, tel[i].AvgRate, 0.3, "iteration %d", i)
	}
	for i := 51; i < len(errs); i++ {
		require.LessOrEqual(t, math.Abs(errs[i]), math.Abs(errs[i-1])+1e-4, "error grew at iteration %d", i)
	}
	assert.InDelta(t, 0, errs[len(errs)-1], 1e-3)
}

func TestSynchronizerTracksRateChange(t *testing.T) {
	s := NewSynchronizer(testGains, time.Second)
	base := time.Unix(0, 0)
	now := base
	serverTick := 0.0
	last := base

	for i := 0; i < 600; i++ {
		tps := 30.0
		if i >= 200 {
			tps = 20
		}
		start := now
		s.Begin(start)
		end := start.Add(time.Millisecond)
		serverTick += tps * end.Sub(last).Seconds()
		last = end
		now = end.Add(s.Pace(start, end, serverTick, tps))
	}

	tel := s.Telemetry()
	assert.InDelta(t, 20, tel.AvgRate, 0.2)
	assert.InDelta(t, 0, tel.Error, 0.05)
}

func TestSynchronizerRateFloor(t *testing.T) {
	s := NewSynchronizer(testGains, time.Second)
	s.SetStep(1000)
	start := time.Unix(0, 0)
	s.Begin(start)

	delay := s.Pace(start, start.Add(10*time.Millisecond), 0, 30)
	assert.Equal(t, 500*time.Millisecond-10*time.Millisecond, delay, "far ahead runs at the minimum rate")
}

func TestSynchronizerNeverNegativeDelay(t *testing.T) {
	s := NewSynchronizer(testGains, time.Second)
	start := time.Unix(0, 0)
	s.Begin(start)

	delay := s.Pace(start, start.Add(time.Second), 50, 30)
	assert.Equal(t, time.Duration(0), delay)
}

func TestSynchronizerTelemetryWindow(t *testing.T) {
	s := NewSynchronizer(testGains, time.Second)
	start := time.Unix(0, 0)
	durations := []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 6 * time.Millisecond}

	// 10 steps/s for 3 seconds, then 20 steps/s for half a second.
	at := start
	for i := 0; i < 30; i++ {
		s.Begin(at)
		s.Pace(at, at.Add(durations[i%3]), float64(s.Step()), 10)
		at = at.Add(100 * time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		s.Begin(at)
		s.Pace(at, at.Add(durations[i%3]), float64(s.Step()), 10)
		at = at.Add(50 * time.Millisecond)
	}

	tel := s.Telemetry()
	assert.Equal(t, uint64(40), tel.Step)
	assert.InDelta(t, 20, tel.Rate, 1e-9)
	assert.InDelta(t, 10, tel.MinRate, 1e-9, "older samples still inside the window")
	assert.InDelta(t, 20, tel.MaxRate, 1e-9)
	assert.InDelta(t, 10, tel.Jitter, 1e-9)
	assert.Equal(t, 2*time.Millisecond, tel.MinDuration)
	assert.Equal(t, 6*time.Millisecond, tel.MaxDuration)
	assert.Less(t, len(s.rates), 40)

	// After a long pause only the samples of the newest step survive.
	at = at.Add(5 * time.Second)
	s.Begin(at)
	s.Pace(at, at.Add(time.Millisecond), float64(s.Step()), 10)
	tel = s.Telemetry()
	require.Len(t, s.rates, 1)
	assert.InDelta(t, 1/5.05, tel.Rate, 1e-9)
	assert.Equal(t, tel.MinRate, tel.MaxRate)
	assert.Equal(t, time.Millisecond, tel.AvgDuration)
}
