package sim

import "time"

// ServerClock extrapolates the server tick from the last report using the
// reported rate.
type ServerClock struct {
	tick   uint64
	tps    float64
	avgTPS float64
	at     time.Time
}

// Observe records a tick report received at the given time.
func (c *ServerClock) Observe(tick uint64, tps, avgTPS float64, at time.Time) {
	c.tick, c.tps, c.avgTPS, c.at = tick, tps, avgTPS, at
}

// Tick returns the estimated server tick at now.
func (c *ServerClock) Tick(now time.Time) float64 {
	return float64(c.tick) + c.tps*now.Sub(c.at).Seconds()
}

func (c *ServerClock) TPS() float64    { return c.tps }
func (c *ServerClock) AvgTPS() float64 { return c.avgTPS }

// StepInterval is the length of one server step, zero while the rate is unknown.
func (c *ServerClock) StepInterval() time.Duration {
	if c.tps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.tps)
}
