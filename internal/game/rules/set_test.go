package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowvale/mud/internal/game/rules"
)

func TestSet_RoomAndReplace(t *testing.T) {
	s := rules.NewSet(map[string]*rules.RoomDefinition{
		"grove": {ID: "grove"},
	})
	require.Equal(t, 1, s.Len())

	def, ok := s.Room("grove")
	require.True(t, ok)
	assert.Equal(t, "grove", def.ID)

	// a dispatch holding the old snapshot keeps seeing it after a swap
	old := def
	s.Replace(map[string]*rules.RoomDefinition{
		"grove":  {ID: "grove", Name: "Renamed"},
		"cavern": {ID: "cavern"},
	})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "", old.Name)

	def, ok = s.Room("grove")
	require.True(t, ok)
	assert.Equal(t, "Renamed", def.Name)

	_, ok = s.Room("void")
	assert.False(t, ok)
}

func TestSet_NilMaps(t *testing.T) {
	s := rules.NewSet(nil)
	assert.Equal(t, 0, s.Len())
	s.Replace(nil)
	_, ok := s.Room("anything")
	assert.False(t, ok)
}
