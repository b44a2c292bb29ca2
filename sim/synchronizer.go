package sim

import (
	"math"
	"time"
)

// Gains parameterise the tick-rate controller.
type Gains struct {
	KP, KI, KD float64
	Decay      float64 // integral decay per step, below 1
	MinRate    float64 // steps per second floor
}

// Telemetry describes the realized local step rate and step cost over the
// trailing window. It is diagnostic only.
type Telemetry struct {
	Step  uint64
	Error float64 // local step minus server tick at the last step

	Rate    float64 // steps/s between the last two steps
	AvgRate float64
	MinRate float64
	MaxRate float64
	Jitter  float64 // MaxRate - MinRate

	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
}

type rateSample struct {
	at   time.Time
	rate float64
}

type durationSample struct {
	at time.Time
	d  time.Duration
}

// Synchronizer paces the local step loop so that the local step count
// tracks the server tick. It is a PD controller with a decayed integral
// term on the step error, emitting the delay before the next step.
type Synchronizer struct {
	gains  Gains
	window time.Duration

	step      uint64
	integral  float64
	lastError float64

	starts    []time.Time
	rates     []rateSample
	durations []durationSample

	telemetry Telemetry
}

func NewSynchronizer(g Gains, window time.Duration) *Synchronizer {
	return &Synchronizer{gains: g, window: window}
}

// SetStep sets the local step counter, as when a session starts.
func (s *Synchronizer) SetStep(step uint64) {
	s.step = step
}

func (s *Synchronizer) Step() uint64 {
	return s.step
}

// Begin starts a step at now and returns its number.
func (s *Synchronizer) Begin(now time.Time) uint64 {
	s.step++

	if n := len(s.starts); n > 0 {
		if dt := now.Sub(s.starts[n-1]); dt > 0 {
			s.rates = append(s.rates, rateSample{at: now, rate: float64(time.Second) / float64(dt)})
		}
	}
	s.starts = append(s.starts, now)

	cutoff := now.Add(-s.window)
	s.starts = evict(s.starts, func(t time.Time) bool { return t.Before(cutoff) })
	s.rates = evict(s.rates, func(r rateSample) bool { return r.at.Before(cutoff) })
	s.durations = evict(s.durations, func(d durationSample) bool { return d.at.Before(cutoff) })
	return s.step
}

// Pace finishes the step that began at start and ended at end, and returns
// how long to wait before the next one. serverTick is the server's tick at
// end and tps its reported rate.
func (s *Synchronizer) Pace(start, end time.Time, serverTick, tps float64) time.Duration {
	elapsed := end.Sub(start)
	s.durations = append(s.durations, durationSample{at: start, d: elapsed})

	g := s.gains
	err := float64(s.step) - serverTick
	s.integral = g.Decay*s.integral + err
	derivative := err - s.lastError
	s.lastError = err

	rate := math.Max(g.MinRate, tps-(g.KP*err+g.KI*s.integral+g.KD*derivative))
	delay := time.Duration(float64(time.Second)/rate) - elapsed

	s.telemetry = s.measure(err)
	return max(delay, 0)
}

func (s *Synchronizer) Telemetry() Telemetry {
	return s.telemetry
}

func (s *Synchronizer) measure(err float64) Telemetry {
	t := Telemetry{Step: s.step, Error: err}

	if n := len(s.rates); n > 0 {
		t.Rate = s.rates[n-1].rate
		t.MinRate, t.MaxRate = math.Inf(1), math.Inf(-1)
		var sum float64
		for _, r := range s.rates {
			sum += r.rate
			t.MinRate = math.Min(t.MinRate, r.rate)
			t.MaxRate = math.Max(t.MaxRate, r.rate)
		}
		t.AvgRate = sum / float64(n)
		t.Jitter = t.MaxRate - t.MinRate
	}

	if n := len(s.durations); n > 0 {
		t.MinDuration, t.MaxDuration = s.durations[0].d, s.durations[0].d
		var sum time.Duration
		for _, d := range s.durations {
			sum += d.d
			t.MinDuration = min(t.MinDuration, d.d)
			t.MaxDuration = max(t.MaxDuration, d.d)
		}
		t.AvgDuration = sum / time.Duration(n)
	}
	return t
}

// evict drops the leading samples that are too old. Samples are appended
// in time order.
func evict[T any](samples []T, old func(T) bool) []T {
	i := 0
	for i < len(samples) && old(samples[i]) {
		i++
	}
	if i == 0 {
		return samples
	}
	return append(samples[:0], samples[i:]...)
}
