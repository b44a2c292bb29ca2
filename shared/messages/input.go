package messages

import "github.com/automoto/battleboxes/shared/physics"

// StepReport is sent from client to server after every completed local step.
// The server replays it to validate the predicted end position.
type StepReport struct {
	Step        uint64
	Input       physics.Input
	ModifierIDs []uint32 // active modifiers, for cross-checking
	X, Y        float64
}
