package network

import (
	"math"

	"github.com/automoto/battleboxes/shared/messages"
)

// StepHistory is a ring buffer of the step reports most recently sent, used
// to measure how far the local prediction drifted from the server.
type StepHistory struct {
	reports  []messages.StepReport
	filled   []bool
	nextStep uint64
}

func NewStepHistory(size int) *StepHistory {
	if size < 1 {
		size = 1
	}
	return &StepHistory{
		reports: make([]messages.StepReport, size),
		filled:  make([]bool, size),
	}
}

// Store saves a report in the slot for its step.
func (h *StepHistory) Store(r messages.StepReport) {
	idx := r.Step % uint64(len(h.reports))
	h.reports[idx] = r
	h.filled[idx] = true
	h.nextStep = r.Step + 1
}

// Get retrieves a stored report by step. Returns false if not found
// or if the slot has been overwritten.
func (h *StepHistory) Get(step uint64) (messages.StepReport, bool) {
	idx := step % uint64(len(h.reports))
	if !h.filled[idx] || h.reports[idx].Step != step {
		return messages.StepReport{}, false
	}
	return h.reports[idx], true
}

// NextStep returns the step following the last stored one.
func (h *StepHistory) NextStep() uint64 {
	return h.nextStep
}

// PredictionError returns the distance between the predicted and the
// authoritative position at a step, and false when the step is no longer
// held.
func (h *StepHistory) PredictionError(step uint64, serverX, serverY float64) (float64, bool) {
	r, ok := h.Get(step)
	if !ok {
		return 0, false
	}
	return math.Hypot(r.X-serverX, r.Y-serverY), true
}
