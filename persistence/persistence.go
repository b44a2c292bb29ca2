// Package persistence stores client preferences between runs.
package persistence

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/quasilyte/gdata"
	"go.uber.org/zap"

	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/logging"
)

const prefsKey = "prefs"

// Prefs are the settings remembered across runs.
type Prefs struct {
	PlayerName string `json:"playerName"`
	Address    string `json:"address"`
	LastMap    string `json:"lastMap"`
	Overlay    bool   `json:"overlay"`
}

// Current captures the preferences at exit: the connection settings from
// the configuration, plus the map played and the overlay state the player
// left on screen.
func Current(lastMap string, overlay bool) Prefs {
	return Prefs{
		PlayerName: config.Net.PlayerName,
		Address:    config.Net.Address,
		LastMap:    lastMap,
		Overlay:    overlay,
	}
}

// Apply copies saved preferences over the configuration. Empty strings keep
// the configured value.
func (p Prefs) Apply() {
	if p.PlayerName != "" {
		config.Net.PlayerName = p.PlayerName
	}
	if p.Address != "" {
		config.Net.Address = p.Address
	}
	config.Debug.Overlay = p.Overlay
}

// Level picks the level to open offline: requested if set, else the last
// map played if it is still available, else fallback. p may be nil.
func (p *Prefs) Level(requested, fallback string, available []string) string {
	if requested != "" {
		return requested
	}
	if p != nil && slices.Contains(available, p.LastMap) {
		return p.LastMap
	}
	return fallback
}

type itemStore interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
}

type Store struct {
	items itemStore
	log   *zap.SugaredLogger
}

// Open opens the per-user data directory for appName.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	return newStore(m), nil
}

func newStore(items itemStore) *Store {
	return &Store{items: items, log: logging.Named("persistence")}
}

// LoadPrefs returns the saved preferences, or nil if none were saved.
func (s *Store) LoadPrefs() (*Prefs, error) {
	data, err := s.items.LoadItem(prefsKey)
	if err != nil {
		s.log.Warnw("could not load prefs", "error", err)
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	return &p, nil
}

func (s *Store) SavePrefs(p Prefs) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.items.SaveItem(prefsKey, data); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	s.log.Debugw("prefs saved", "player", p.PlayerName, "map", p.LastMap)
	return nil
}
