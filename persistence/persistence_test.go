package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automoto/battleboxes/config"
)

type memItems struct {
	data    map[string][]byte
	loadErr error
}

func (m *memItems) LoadItem(key string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data[key], nil
}

func (m *memItems) SaveItem(key string, data []byte) error {
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = data
	return nil
}

func TestPrefsRoundTrip(t *testing.T) {
	s := newStore(&memItems{})

	got, err := s.LoadPrefs()
	require.NoError(t, err)
	assert.Nil(t, got, "nothing saved yet")

	want := Prefs{PlayerName: "kim", Address: "example.org:7373", LastMap: "arena", Overlay: true}
	require.NoError(t, s.SavePrefs(want))

	got, err = s.LoadPrefs()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestLoadPrefsTolerance(t *testing.T) {
	s := newStore(&memItems{loadErr: errors.New("disk gone")})
	got, err := s.LoadPrefs()
	assert.NoError(t, err)
	assert.Nil(t, got)

	s = newStore(&memItems{data: map[string][]byte{prefsKey: []byte("{not json")}})
	_, err = s.LoadPrefs()
	assert.Error(t, err)
}

func TestPrefsApply(t *testing.T) {
	t.Cleanup(config.Reset)
	addr := config.Net.Address

	Prefs{PlayerName: "kim", Overlay: true}.Apply()
	assert.Equal(t, "kim", config.Net.PlayerName)
	assert.Equal(t, addr, config.Net.Address)
	assert.True(t, config.Debug.Overlay)

	Prefs{Overlay: false}.Apply()
	assert.False(t, config.Debug.Overlay, "a saved toggle-off sticks")
}

func TestCurrentKeepsOverlayAndMap(t *testing.T) {
	t.Cleanup(config.Reset)
	config.Net.PlayerName = "kim"

	p := Current("arena", true)
	assert.Equal(t, "kim", p.PlayerName)
	assert.Equal(t, "arena", p.LastMap)
	assert.True(t, p.Overlay)
}

func TestOverlayToggleSurvivesRestart(t *testing.T) {
	t.Cleanup(config.Reset)
	s := newStore(&memItems{})
	require.NoError(t, s.SavePrefs(Current("arena", true)))

	config.Reset()
	saved, err := s.LoadPrefs()
	require.NoError(t, err)
	require.NotNil(t, saved)
	saved.Apply()
	assert.True(t, config.Debug.Overlay)
}

func TestLevel(t *testing.T) {
	available := []string{"arena", "tower"}
	var none *Prefs
	saved := &Prefs{LastMap: "tower"}

	assert.Equal(t, "arena", none.Level("", "arena", available))
	assert.Equal(t, "tower", saved.Level("", "arena", available))
	assert.Equal(t, "arena", saved.Level("arena", "arena", available), "explicit level wins")
	assert.Equal(t, "arena", (&Prefs{LastMap: "deleted"}).Level("", "arena", available))
}
