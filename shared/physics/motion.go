package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ApplyInput computes the body's velocity for the coming step from the held
// inputs, the contact state left by the previous step and p. The order of the
// terms below is part of the movement feel and matches the server.
func ApplyInput(b *Body, in Input, p MovementProperties) {
	if p.Fly {
		b.vel = mgl64.Vec2{axis(in.Left, in.Right), axis(in.Down, in.Up)}.Mul(p.MovePower)
		return
	}

	c := b.Contact
	vx, vy := b.vel.X(), b.vel.Y()

	// Pressing against a surface bleeds speed along it.
	vx *= math.Pow(p.Drag, c.Top+c.Bottom)
	vy *= math.Pow(p.Drag, c.Left+c.Right)

	vx *= p.AirDrag
	vy *= p.AirDrag

	move := axis(in.Left, in.Right)
	wallSide := wallAway(move, c)

	switch {
	case wallSide != 0:
		if vy > 0 {
			vy *= p.WallDrag
		}
		if in.Up || (in.Down && c.Bottom == 0) {
			push := p.JumpPower * p.Grip * (c.Left + c.Right)
			vx += wallSide * push * p.WallJumpPower
			if in.Up {
				vy += push
			}
		}
	case c.Bottom != 0:
		vx += move * p.MovePower * p.Grip
		if in.Down {
			vx *= p.SneakDrag
		}
		if in.Up {
			vy += p.JumpPower
		}
	default:
		vx += move * p.AirMovePower
	}

	vy -= p.Gravity
	b.vel = mgl64.Vec2{vx, vy}
}

// wallAway returns the direction away from a wall the body touches when the
// move input pushes off it, or 0.
func wallAway(move float64, c Contact) float64 {
	switch {
	case move > 0 && c.Left != 0:
		return 1
	case move < 0 && c.Right != 0:
		return -1
	}
	return 0
}
