package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProps() MovementProperties {
	return MovementProperties{
		Gravity:       0.02,
		MovePower:     0.05,
		JumpPower:     10,
		WallJumpPower: 2,
		AirMovePower:  0.01,
		SneakDrag:     0.5,
		Drag:          0.8,
		AirDrag:       0.98,
		WallDrag:      0.7,
		Grip:          1,
	}
}

func TestApplyInputWallJump(t *testing.T) {
	b := NewBody(mgl64.Vec2{}, 1, 1)
	b.Contact = Contact{Left: 0.5}
	p := testProps()

	ApplyInput(b, Input{Right: true, Up: true}, p)

	// Kicked away from the left wall by jumpPower*grip*0.5*wallJumpPower.
	assert.InDelta(t, 10.0, b.Velocity().X(), 1e-12)
	assert.InDelta(t, 5.0-p.Gravity, b.Velocity().Y(), 1e-12)
}

func TestApplyInputWallSlideDrag(t *testing.T) {
	b := NewBody(mgl64.Vec2{}, 1, 1)
	b.Contact = Contact{Right: 1}
	b.SetVelocity(mgl64.Vec2{0, 1})
	p := testProps()

	ApplyInput(b, Input{Left: true}, p)

	want := 1 * math.Pow(p.Drag, 1) * p.AirDrag * p.WallDrag
	assert.InDelta(t, want-p.Gravity, b.Velocity().Y(), 1e-12)
	assert.InDelta(t, 0.0, b.Velocity().X(), 1e-12, "no kick without up")
}

func TestApplyInputGrounded(t *testing.T) {
	p := testProps()

	cases := []struct {
		name   string
		in     Input
		wantVX float64
		wantVY float64
	}{
		{"idle", Input{}, 1 * 0.8 * 0.98, -0.02},
		{"run_right", Input{Right: true}, 1*0.8*0.98 + 0.05, -0.02},
		{"sneak", Input{Right: true, Down: true}, (1*0.8*0.98 + 0.05) * 0.5, -0.02},
		{"jump", Input{Up: true}, 1 * 0.8 * 0.98, 10 - 0.02},
		{"both_directions_cancel", Input{Left: true, Right: true}, 1 * 0.8 * 0.98, -0.02},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := NewBody(mgl64.Vec2{}, 1, 1)
			b.Contact = Contact{Bottom: 1}
			b.SetVelocity(mgl64.Vec2{1, 0})

			ApplyInput(b, c.in, p)

			assert.InDelta(t, c.wantVX, b.Velocity().X(), 1e-12)
			assert.InDelta(t, c.wantVY, b.Velocity().Y(), 1e-12)
		})
	}
}

func TestApplyInputAirborne(t *testing.T) {
	b := NewBody(mgl64.Vec2{}, 1, 1)
	b.SetVelocity(mgl64.Vec2{0, 0.5})
	p := testProps()

	ApplyInput(b, Input{Left: true, Up: true}, p)

	assert.InDelta(t, -p.AirMovePower, b.Velocity().X(), 1e-12)
	assert.InDelta(t, 0.5*p.AirDrag-p.Gravity, b.Velocity().Y(), 1e-12, "no jump in the air")
}

func TestApplyInputPushingIntoWallIsNotAWallJump(t *testing.T) {
	b := NewBody(mgl64.Vec2{}, 1, 1)
	b.Contact = Contact{Left: 0.5}
	p := testProps()

	ApplyInput(b, Input{Left: true, Up: true}, p)

	assert.InDelta(t, -p.AirMovePower, b.Velocity().X(), 1e-12)
	assert.InDelta(t, -p.Gravity, b.Velocity().Y(), 1e-12)
}

func TestApplyInputFly(t *testing.T) {
	b := NewBody(mgl64.Vec2{}, 1, 1)
	b.SetVelocity(mgl64.Vec2{3, 3})
	p := testProps()
	p.Fly = true

	ApplyInput(b, Input{Right: true, Down: true}, p)

	assert.Equal(t, mgl64.Vec2{p.MovePower, -p.MovePower}, b.Velocity())
}

func TestRestingBodyKeepsGroundContact(t *testing.T) {
	m := floorMap(t)
	b := NewBody(mgl64.Vec2{2, 2}, 0.75, 0.75)
	p := testProps()

	for i := 0; i < 200; i++ {
		ApplyInput(b, Input{}, p)
		NextPosition(b, m, testTuning)
	}
	require.Equal(t, Contact{Bottom: 0.5}, b.Contact)
	y := b.Position().Y()

	for i := 0; i < 50; i++ {
		ApplyInput(b, Input{}, p)
		NextPosition(b, m, testTuning)
		assert.Equal(t, Contact{Bottom: 0.5}, b.Contact, "step %d", i)
		assert.InDelta(t, y, b.Position().Y(), 1e-12, "step %d", i)
	}
}

func TestJumpUsesPreviousStepContact(t *testing.T) {
	m := floorMap(t)
	b := NewBody(mgl64.Vec2{2, 0.876}, 0.75, 0.75)
	p := testProps()
	p.JumpPower = 0.3

	// Contact is only known after the first sweep, so the first jump press
	// happens in the air.
	ApplyInput(b, Input{Up: true}, p)
	assert.InDelta(t, -p.Gravity, b.Velocity().Y(), 1e-12)
	NextPosition(b, m, testTuning)
	require.Equal(t, 0.5, b.Contact.Bottom)

	ApplyInput(b, Input{Up: true}, p)
	assert.InDelta(t, p.JumpPower-p.Gravity, b.Velocity().Y(), 1e-12)
	NextPosition(b, m, testTuning)
	assert.Greater(t, b.Position().Y(), 0.876)
	assert.Equal(t, Contact{}, b.Contact)
}

func TestTickModifiers(t *testing.T) {
	mods := []Modifier{
		{ID: 1, Kind: "speed", Remaining: 3},
		{ID: 2, Kind: "slow", Remaining: 1},
		{ID: 3, Kind: "shield", Remaining: 2},
	}

	mods = TickModifiers(mods)
	require.Len(t, mods, 2)
	assert.Equal(t, uint32(1), mods[0].ID)
	assert.Equal(t, 2.0, mods[0].Remaining)
	assert.Equal(t, uint32(3), mods[1].ID)

	mods = TickModifiers(mods)
	assert.Equal(t, []uint32{1}, ModifierIDs(nil, mods))

	assert.Empty(t, TickModifiers(TickModifiers(mods)))
	assert.Empty(t, TickModifiers(nil))
}
