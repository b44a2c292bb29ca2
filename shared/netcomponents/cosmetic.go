package netcomponents

import "github.com/yohamta/donburi"

// NetCosmeticData holds display-only fields. They are refreshed on every
// snapshot and never affect prediction.
type NetCosmeticData struct {
	Username string
	Color    uint32 // 0xRRGGBBAA
	HP       int
	MaxHP    int
}

var NetCosmetic = donburi.NewComponentType[NetCosmeticData]()
