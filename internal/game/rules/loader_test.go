package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowvale/mud/internal/game/rules"
)

const groveDoc = `
room:
  id: grove
  name: The Whispering Grove
  state:
    stump: 0
  triggers:
    - verbs: [put]
      arg_strip: [the, in]
      sequence: [acorn, stump]
      min_state:
        stump: 11
      actions:
        - type: remove_item
          item: acorn
        - type: increment_room_state
          key: stump
          amount: 1
    - verbs: [look]
      actions:
        - type: message
          text: An old stump squats in the clearing.
`

func TestLoadRoomFromBytes(t *testing.T) {
	def, err := rules.LoadRoomFromBytes([]byte(groveDoc))
	require.NoError(t, err)

	assert.Equal(t, "grove", def.ID)
	assert.Equal(t, "The Whispering Grove", def.Name)
	assert.Equal(t, 0, def.DefaultState("stump"))
	require.Len(t, def.Triggers, 2)
	assert.Equal(t, []string{"put"}, def.Triggers[0].Verbs)
	assert.Equal(t, 11, def.Triggers[0].MinState["stump"])
	assert.Equal(t, rules.KindRemoveItem, def.Triggers[0].Actions[0].Kind)
}

func TestLoadRoomFromBytes_Malformed(t *testing.T) {
	_, err := rules.LoadRoomFromBytes([]byte("room: [not, a, mapping"))
	assert.Error(t, err)
}

func TestLoadRoomFromBytes_EmptyID(t *testing.T) {
	_, err := rules.LoadRoomFromBytes([]byte("room:\n  name: nameless\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room id")
}

func TestLoadRoomFromBytes_UnknownActionType(t *testing.T) {
	doc := `
room:
  id: r1
  triggers:
    - verbs: [pull]
      actions:
        - type: explode_violently
`
	_, err := rules.LoadRoomFromBytes([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action type")
}

// A case payload written as a mapping with an actions key, instead of a bare
// action list, fails the unmarshal before validation.
func TestLoadRoomFromBytes_BranchByItemDictCaseRejected(t *testing.T) {
	doc := `
room:
  id: r1
  triggers:
    - verbs: [rub]
      actions:
        - type: branch_by_item
          cases:
            lamp:
              actions:
                - type: message
                  text: A genie appears.
`
	_, err := rules.LoadRoomFromBytes([]byte(doc))
	assert.Error(t, err)
}

func TestLoadRoomFromBytes_BranchByItemListCaseAccepted(t *testing.T) {
	doc := `
room:
  id: r1
  triggers:
    - verbs: [rub]
      actions:
        - type: branch_by_item
          cases:
            lamp:
              - type: message
                text: A genie appears.
          missing_actions:
            - type: message
              text: Rub what?
`
	def, err := rules.LoadRoomFromBytes([]byte(doc))
	require.NoError(t, err)
	cases := def.Triggers[0].Actions[0].Cases
	require.Contains(t, cases, "lamp")
	assert.Equal(t, "A genie appears.", cases["lamp"][0].Text)
}

func TestValidate_RejectsBadParameters(t *testing.T) {
	tests := []struct {
		name   string
		action rules.Action
		errSub string
	}{
		{"chance over 100", rules.Action{Kind: rules.KindRandomChance, Chance: 101}, "chance"},
		{"chance negative", rules.Action{Kind: rules.KindRandomChance, Chance: -1}, "chance"},
		{"range max not above min", rules.Action{Kind: rules.KindRandomRange, Min: 5, Max: 5, StoreAs: "x"}, "max"},
		{"range missing store_as", rules.Action{Kind: rules.KindRandomRange, Min: 0, Max: 5}, "store_as"},
		{"choice empty", rules.Action{Kind: rules.KindRandomChoice}, "choices"},
		{"choice negative weight", rules.Action{Kind: rules.KindRandomChoice,
			Choices: []rules.Choice{{Weight: -1}}}, "negative"},
		{"choice zero total", rules.Action{Kind: rules.KindRandomChoice,
			Choices: []rules.Choice{{Weight: 0}, {Weight: 0}}}, "total"},
		{"conditional unknown kind", rules.Action{Kind: rules.KindConditional,
			Conditions: []rules.Condition{{Kind: "weather"}}}, "condition"},
		{"conditional unknown op", rules.Action{Kind: rules.KindConditional,
			Conditions: []rules.Condition{{Kind: rules.CondGold, Op: "approx"}}}, "operator"},
		{"level gate target too low", rules.Action{Kind: rules.KindLevelGate, Target: 1}, "target"},
		{"negative inventory index", rules.Action{Kind: rules.KindRemoveInventoryIndex, Index: -1}, "index"},
		{"negative spell_arg", rules.Action{Kind: rules.KindPurchaseSpell, SpellArg: intPtr(-1)}, "spell_arg"},
		{"negative item_arg", rules.Action{Kind: rules.KindBranchByItem, ItemArg: -2}, "item_arg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := &rules.RoomDefinition{
				ID:       "r1",
				Triggers: []rules.Trigger{{Actions: []rules.Action{tc.action}}},
			}
			err := def.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSub)
		})
	}
}

func TestValidate_RejectsNegativeClauseIndexes(t *testing.T) {
	tests := []struct {
		name   string
		trg    rules.Trigger
		errSub string
	}{
		{"arg_at", rules.Trigger{ArgAt: &rules.IndexValue{Index: -1, Value: "lever"}}, "arg_at"},
		{"args_equal", rules.Trigger{ArgsEqual: []rules.IndexValue{{Index: -3, Value: "x"}}}, "args_equal"},
		{"arg_count", rules.Trigger{ArgCount: intPtr(-1)}, "arg_count"},
		{"spouse_arg", rules.Trigger{SpouseArg: intPtr(-1)}, "spouse_arg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := &rules.RoomDefinition{ID: "r1", Triggers: []rules.Trigger{tc.trg}}
			err := def.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSub)
		})
	}
}

func TestLoadRoomFromBytes_NegativeArgAtIndexRejected(t *testing.T) {
	_, err := rules.LoadRoomFromBytes([]byte(`
room:
  id: vault
  triggers:
    - verbs: [pull]
      arg_at: {index: -1, value: lever}
      actions:
        - type: message
          text: clank
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arg_at")
}

func TestValidate_NestedBranchesAreChecked(t *testing.T) {
	def := &rules.RoomDefinition{
		ID: "r1",
		Triggers: []rules.Trigger{{
			Actions: []rules.Action{{
				Kind:   rules.KindRandomChance,
				Chance: 50,
				OnSuccess: []rules.Action{{
					Kind: "bogus",
				}},
			}},
		}},
	}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action type")
}

func TestValidate_DepthLimit(t *testing.T) {
	inner := []rules.Action{msgAction("bottom")}
	for i := 0; i < rules.MaxBranchDepth+1; i++ {
		inner = []rules.Action{{
			Kind:      rules.KindRandomChance,
			Chance:    50,
			OnSuccess: inner,
		}}
	}
	def := &rules.RoomDefinition{
		ID:       "r1",
		Triggers: []rules.Trigger{{Actions: inner}},
	}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestLoadRoomsFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grove.yaml"), []byte(groveDoc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cavern.yml"), []byte("room:\n  id: cavern\n"), 0o600))

	defs, err := rules.LoadRoomsFromDir(dir)
	require.NoError(t, err)
	assert.Len(t, defs, 2)
	assert.Contains(t, defs, "grove")
	assert.Contains(t, defs, "cavern")
}

func TestLoadRoomsFromDir_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("room:\n  id: twin\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("room:\n  id: twin\n"), 0o600))

	_, err := rules.LoadRoomsFromDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate room id")
}

func TestLoadRoomsFromDir_BadDocumentFailsWhole(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(groveDoc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("room: ["), 0o600))

	_, err := rules.LoadRoomsFromDir(dir)
	assert.Error(t, err)
}
