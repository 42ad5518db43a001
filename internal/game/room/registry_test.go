package room_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowvale/mud/internal/game/room"
	"github.com/hollowvale/mud/internal/game/rules"
)

type stubDefaults struct {
	state   map[string]int
	objects []int
}

func (s *stubDefaults) DefaultState(string) map[string]int { return s.state }

func (s *stubDefaults) DefaultObjects(string) []int { return s.objects }

func TestRegistry_SeedsFromDefaultsAndDocument(t *testing.T) {
	set := rules.NewSet(map[string]*rules.RoomDefinition{
		"grove": {ID: "grove", State: map[string]int{"stump": 3}},
	})
	defaults := &stubDefaults{
		state:   map[string]int{"stump": 1, "moss": 7},
		objects: []int{301, 302},
	}
	reg := room.NewRegistry(set, defaults)

	st := reg.GetOrCreate("grove")
	assert.Equal(t, 3, st.Flags["stump"], "document state overrides content default")
	assert.Equal(t, 7, st.Flags["moss"])
	assert.Equal(t, []int{301, 302}, st.Objects)
}

func TestRegistry_DormantRoomAnswersFromDefaults(t *testing.T) {
	set := rules.NewSet(map[string]*rules.RoomDefinition{
		"grove": {ID: "grove", State: map[string]int{"stump": 3}},
	})
	reg := room.NewRegistry(set, nil)

	assert.Equal(t, 3, reg.StateValue("grove", "stump"))
	assert.Equal(t, 0, reg.StateValue("grove", "unset"))
	assert.Equal(t, 0, reg.StateValue("nowhere", "stump"))
	assert.Equal(t, 0, reg.ActiveCount(), "state queries do not materialize rooms")
}

func TestRegistry_AddStateSeedsFromDefaultOnFirstTouch(t *testing.T) {
	set := rules.NewSet(map[string]*rules.RoomDefinition{
		"grove": {ID: "grove", State: map[string]int{"stump": 10}},
	})
	reg := room.NewRegistry(set, nil)

	reg.AddState("grove", "stump", 1)
	assert.Equal(t, 11, reg.StateValue("grove", "stump"))
	assert.Equal(t, 1, reg.ActiveCount())
}

func TestRegistry_AddObjectCapacity(t *testing.T) {
	set := rules.NewSet(nil)
	reg := room.NewRegistry(set, nil)

	for i := 0; i < room.MaxObjects; i++ {
		require.True(t, reg.AddObject("r1", 400+i))
	}
	assert.False(t, reg.AddObject("r1", 999))
	assert.Equal(t, room.MaxObjects, reg.ObjectCount("r1"))
}

func TestRegistry_RemoveRefusesOccupiedRoom(t *testing.T) {
	set := rules.NewSet(nil)
	reg := room.NewRegistry(set, nil)

	st := reg.GetOrCreate("r1")
	st.Occupants["p1"] = struct{}{}
	assert.False(t, reg.Remove("r1"))

	delete(st.Occupants, "p1")
	assert.True(t, reg.Remove("r1"))
	assert.True(t, reg.Remove("r1"), "removing a dormant room is a no-op")
}
