package netcomponents

import (
	"math"

	"github.com/yohamta/donburi"
)

// NetKinematicsData is the last authoritative motion state of a remote entity.
// At is the local receive time in Unix nanoseconds.
type NetKinematicsData struct {
	X, Y          float64
	Angle         float64
	VX, VY        float64
	Width, Height float64
	At            int64
}

var NetKinematics = donburi.NewComponentType[NetKinematicsData]()

// LerpNetKinematics interpolates position and velocity linearly and the angle
// along the shorter arc. Size and timestamp are taken from to.
func LerpNetKinematics(from, to NetKinematicsData, t float64) *NetKinematicsData {
	da := math.Remainder(to.Angle-from.Angle, 2*math.Pi)
	return &NetKinematicsData{
		X:      from.X + (to.X-from.X)*t,
		Y:      from.Y + (to.Y-from.Y)*t,
		Angle:  from.Angle + da*t,
		VX:     from.VX + (to.VX-from.VX)*t,
		VY:     from.VY + (to.VY-from.VY)*t,
		Width:  to.Width,
		Height: to.Height,
		At:     to.At,
	}
}
