package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, LoadDefaults())
	assert.NotNil(t, Mono.Get())
	assert.NotNil(t, MonoSmall.Get())
}

func TestBadFont(t *testing.T) {
	assert.Error(t, LoadFontWithSize("broken", []byte("not a font"), 10))
	assert.Panics(t, func() { FontName("missing").Get() })
}
