package sim

import (
	"context"
	"time"
)

// Loop runs the stepping task for one generation of a session: from the
// moment a controlled player exists until it is removed or the session
// closes.
type Loop struct {
	s          *Session
	generation uint64
	hiddenWait time.Duration
}

func NewLoop(s *Session, hiddenWait time.Duration) *Loop {
	return &Loop{s: s, generation: s.Generation(), hiddenWait: hiddenWait}
}

// Run steps until ctx is done or the session generation changes. The
// generation is compared only between steps, so a step in progress always
// completes.
func (l *Loop) Run(ctx context.Context) error {
	s := l.s
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if s.Generation() != l.generation {
			return nil
		}

		start := s.now()
		if err := s.Drain(); err != nil {
			return err
		}
		if s.Generation() != l.generation || s.Controlled() == nil {
			return nil
		}

		step := s.sync.Begin(start)
		s.Step(step, start)
		end := s.now()

		serverTick := s.clock.Tick(end)
		delay := s.sync.Pace(start, end, serverTick, s.clock.TPS())
		if s.hidden.Load() && float64(step) >= serverTick {
			delay = max(delay, l.hiddenWait)
		}

		t := s.sync.Telemetry()
		s.telemetry.Store(&t)
		if step%uint64(max(s.clock.TPS(), 1)) == 0 {
			s.log.Debugw("pacing",
				"step", t.Step, "error", t.Error,
				"rate", t.Rate, "avgRate", t.AvgRate, "jitter", t.Jitter,
				"avgDuration", t.AvgDuration, "maxDuration", t.MaxDuration)
		}

		timer.Reset(delay)
	}
}

// Run drives the session until ctx is done or the session closes. While no
// controlled player exists it only applies inbound messages; once one
// does, it hands over to a Loop.
func (s *Session) Run(ctx context.Context) error {
	for {
		if s.closed.Load() {
			return ErrClosed
		}
		if err := s.Drain(); err != nil {
			return err
		}

		if s.Controlled() != nil {
			if err := NewLoop(s, s.hiddenWait).Run(ctx); err != nil {
				return err
			}
			continue
		}

		s.world.Publish(s.sync.Step(), s.now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.notify:
		}
	}
}
