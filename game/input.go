package game

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
)

// Stick is an analog stick reading in [-1, 1], y down like ebiten's axes.
type Stick struct {
	X, Y float64
}

// resolveInput turns the pressed state of each action and the stick into
// the per-step input. Opposite directions cancel out.
func resolveInput(pressed func(netconfig.ActionID) bool, stick Stick, deadzone, angle float64) physics.Input {
	left := pressed(netconfig.ActionMoveLeft) || stick.X < -deadzone
	right := pressed(netconfig.ActionMoveRight) || stick.X > deadzone
	up := pressed(netconfig.ActionMoveUp) || stick.Y < -deadzone
	down := pressed(netconfig.ActionMoveDown) || stick.Y > deadzone

	return physics.Input{
		Left:       left && !right,
		Right:      right && !left,
		Up:         up && !down,
		Down:       down && !up,
		Primary:    pressed(netconfig.ActionPrimary),
		Secondary:  pressed(netconfig.ActionSecondary),
		MouseAngle: angle,
	}
}

// bindingPressed reports whether any key, mouse button or gamepad button
// bound to action is held.
func bindingPressed(action netconfig.ActionID, gamepads []ebiten.GamepadID) bool {
	binding, ok := config.Input.Bindings[action]
	if !ok {
		return false
	}
	for _, key := range binding.Keys {
		if ebiten.IsKeyPressed(key) {
			return true
		}
	}
	for _, btn := range binding.MouseButtons {
		if ebiten.IsMouseButtonPressed(btn) {
			return true
		}
	}
	for _, gpID := range gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(gpID) {
			continue
		}
		for _, btn := range binding.StandardGamepadButtons {
			if ebiten.IsStandardGamepadButtonPressed(gpID, btn) {
				return true
			}
		}
	}
	return false
}

// readStick returns the first connected left stick.
func readStick(gamepads []ebiten.GamepadID) Stick {
	for _, gpID := range gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(gpID) {
			continue
		}
		return Stick{
			X: ebiten.StandardGamepadAxisValue(gpID, ebiten.StandardGamepadAxisLeftStickHorizontal),
			Y: ebiten.StandardGamepadAxisValue(gpID, ebiten.StandardGamepadAxisLeftStickVertical),
		}
	}
	return Stick{}
}
