package protocol

import (
	"github.com/automoto/battleboxes/shared/netcomponents"
	"github.com/leap-fish/necs/esync"
)

// Sync ID constants - ID 1 is reserved by necs for NetworkId
const (
	SyncIDNetKinematics uint = 10
	SyncIDNetCosmetic   uint = 11
)

// Interpolation IDs (uint8 for WithInterpFn)
const (
	InterpIDNetKinematics uint8 = 10
)

// RegisterComponents registers all network components with necs for serialization.
// This must be called by both server and client before any network operations.
func RegisterComponents() error {
	if err := esync.RegisterComponent(
		SyncIDNetKinematics,
		netcomponents.NetKinematicsData{},
		netcomponents.NetKinematics,
		esync.WithInterpFn(InterpIDNetKinematics, netcomponents.LerpNetKinematics),
	); err != nil {
		return err
	}

	// Cosmetics: no interpolation (discrete values)
	if err := esync.RegisterComponent(
		SyncIDNetCosmetic,
		netcomponents.NetCosmeticData{},
		netcomponents.NetCosmetic,
	); err != nil {
		return err
	}

	return nil
}
