package platforms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupAliases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Sega Mega Drive", "Sega Mega Drive"},
		{"Sega MegaDrive", "Sega Mega Drive"},
		{"Sega Genesis", "Sega Mega Drive"},
		{"genesis", "Sega Mega Drive"},
		{"sega-genesis", "Sega Mega Drive"},
		{"Nintendo SNES", "Nintendo SNES"},
		{"super nintendo", "Nintendo SNES"},
		{"Sony PlayStation", "Sony PlayStation"},
		{"PSX", "Sony PlayStation"},
		{"MAME", "MAME"},
		{"arcade", "MAME"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, ok := Lookup(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, name := range []string{"mjhyewqr", "", "   "} {
		_, ok := Lookup(name)
		assert.False(t, ok, "lookup of %q", name)
	}

	_, err := Resolve("mjhyewqr")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestSameAndArcade(t *testing.T) {
	assert.True(t, Same("Sega Genesis", "Sega Mega Drive"))
	assert.False(t, Same("Sega Genesis", "Nintendo SNES"))
	assert.False(t, Same("mjhyewqr", "mjhyewqr"))

	assert.True(t, IsArcade("MAME"))
	assert.False(t, IsArcade("Nintendo SNES"))

	p, ok := Lookup("MAME")
	require.True(t, ok)
	assert.Equal(t, "arcade", p.GameFAQsSlug)
}

func TestBySlug(t *testing.T) {
	p, ok := BySlug("genesis")
	require.True(t, ok)
	assert.Equal(t, "Sega Mega Drive", p.Name)

	_, ok = BySlug("nope")
	assert.False(t, ok)
}

func TestAllSortedAndComplete(t *testing.T) {
	all := All()
	require.Len(t, all, len(registry))
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
	for _, p := range all {
		assert.NotZero(t, p.GameFAQsID, p.Name)
		assert.NotEmpty(t, p.GameFAQsSlug, p.Name)
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "Sega Mega Drive", Canonical("Sega MegaDrive"))
	assert.Equal(t, "mjhyewqr", Canonical("mjhyewqr"))
}
