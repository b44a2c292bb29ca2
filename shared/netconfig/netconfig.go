// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must have zero dependencies on ebiten or any
// graphics library so the dedicated server binary stays headless.
package netconfig

// EntityKind selects how a replicated entity is predicted and drawn.
type EntityKind int

const (
	KindEntity EntityKind = iota
	KindPlayer
	KindProjectile
	KindLootBox
)

var kindNames = map[EntityKind]string{
	KindEntity:     "entity",
	KindPlayer:     "player",
	KindProjectile: "projectile",
	KindLootBox:    "lootbox",
}

func (k EntityKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ActionID represents a logical input action.
type ActionID int

const (
	ActionNone ActionID = iota
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionPrimary
	ActionSecondary
	ActionToggleDebug
	ActionCount // Must be last - used for array sizing
)
