// Package rules implements the room behavior engine: externally authored
// per-room trigger documents, the predicate matcher that selects a trigger
// for a command, and the action interpreter that executes it.
package rules

// ActionKind tags one variant of the action language. The executor dispatches
// on it with an exhaustive switch; the loader rejects unknown kinds so a new
// kind is a compile-time-checked addition in both places.
type ActionKind string

const (
	KindMessage              ActionKind = "message"
	KindRemoveItem           ActionKind = "remove_item"
	KindAddGold              ActionKind = "add_gold"
	KindGrantObject          ActionKind = "grant_object"
	KindHeal                 ActionKind = "heal"
	KindDamage               ActionKind = "damage"
	KindGrantSpell           ActionKind = "grant_spell"
	KindRandomChance         ActionKind = "random_chance"
	KindRandomRange          ActionKind = "random_range"
	KindRandomChoice         ActionKind = "random_choice"
	KindConditional          ActionKind = "conditional"
	KindPurchaseSpell        ActionKind = "purchase_spell"
	KindLevelGate            ActionKind = "level_gate"
	KindAddRoomObject        ActionKind = "add_room_object"
	KindIncrementRoomState   ActionKind = "increment_room_state"
	KindTransferPlayer       ActionKind = "transfer_player"
	KindSetPlayerFlag        ActionKind = "set_player_flag"
	KindRemoveInventoryIndex ActionKind = "remove_inventory_index"
	KindLevelUp              ActionKind = "level_up"
	KindBranchByItem         ActionKind = "branch_by_item"
)

// knownKinds is the loader's validation set. Every constant above must appear.
var knownKinds = map[ActionKind]bool{
	KindMessage: true, KindRemoveItem: true, KindAddGold: true,
	KindGrantObject: true, KindHeal: true, KindDamage: true,
	KindGrantSpell: true, KindRandomChance: true, KindRandomRange: true,
	KindRandomChoice: true, KindConditional: true, KindPurchaseSpell: true,
	KindLevelGate: true, KindAddRoomObject: true, KindIncrementRoomState: true,
	KindTransferPlayer: true, KindSetPlayerFlag: true,
	KindRemoveInventoryIndex: true, KindLevelUp: true, KindBranchByItem: true,
}

// MaxBranchDepth bounds nested branch recursion during execution. Documents
// deeper than this are rejected at load time; the executor enforces it again
// as a belt against hand-constructed action trees.
const MaxBranchDepth = 16

// IndexValue pairs an argument index with an expected value.
type IndexValue struct {
	Index int    `yaml:"index"`
	Value string `yaml:"value"`
}

// Choice is one weighted branch of a random_choice action.
type Choice struct {
	// Weight is the relative selection weight; zero-weight choices never fire.
	Weight int `yaml:"weight"`
	// Value is stored in the execution context under the action's store_as key.
	Value string `yaml:"value"`
	// Actions run when this choice is selected.
	Actions []Action `yaml:"actions"`
}

// ConditionKind names one comparison clause of a conditional action.
type ConditionKind string

const (
	CondGold            ConditionKind = "gold"
	CondContext         ConditionKind = "context"
	CondInventoryCount  ConditionKind = "inventory_count"
	CondRoomObjectCount ConditionKind = "room_object_count"
	CondRoomState       ConditionKind = "room_state"
	CondHeldItem        ConditionKind = "held_item"
	CondPlayerFlag      ConditionKind = "player_flag"
	CondActiveCharm     ConditionKind = "active_charm"
)

var knownConditions = map[ConditionKind]bool{
	CondGold: true, CondContext: true, CondInventoryCount: true,
	CondRoomObjectCount: true, CondRoomState: true, CondHeldItem: true,
	CondPlayerFlag: true, CondActiveCharm: true,
}

// Condition is one clause of a conditional action. All clauses of an action
// must hold for the then branch to run.
type Condition struct {
	Kind ConditionKind `yaml:"kind"`
	// Key names a context key (context) or room-state counter (room_state).
	Key string `yaml:"key"`
	// Item names a catalog object for inventory_count and held_item.
	Item string `yaml:"item"`
	// Flag names a player flag for player_flag.
	Flag string `yaml:"flag"`
	// Slot selects the charm slot for active_charm.
	Slot int `yaml:"slot"`
	// Op is the comparison operator: eq, ne, lt, lte, gt, gte. Default gte
	// for numeric clauses. held_item and player_flag ignore Op and compare
	// presence against Negate.
	Op string `yaml:"op"`
	// Value is the comparison operand.
	Value int `yaml:"value"`
	// Negate inverts held_item and player_flag presence checks.
	Negate bool `yaml:"negate"`
}

// Action is one step of a trigger's effect. Kind selects the variant; the
// remaining fields are kind-specific and zero-valued elsewhere. Branch fields
// embed nested action lists evaluated recursively by the executor.
type Action struct {
	Kind ActionKind `yaml:"type"`

	// message
	// Text or MessageID produce the direct event to the actor; BroadcastText
	// or BroadcastID produce a second event to the room excluding the actor.
	// Global promotes the direct event to system scope. Args lists context
	// keys whose values substitute %s tokens in the templates.
	Text          string   `yaml:"text"`
	MessageID     string   `yaml:"message_id"`
	BroadcastText string   `yaml:"broadcast_text"`
	BroadcastID   string   `yaml:"broadcast_id"`
	Global        bool     `yaml:"global"`
	Args          []string `yaml:"args"`

	// remove_item, grant_object, add_room_object, branch_by_item item lookup
	Item string `yaml:"item"`
	// ItemFrom names a context key holding the item name (remove_item).
	ItemFrom string `yaml:"item_from"`

	// add_gold, heal, damage, increment_room_state, random_range bounds
	Amount     int    `yaml:"amount"`
	AmountFrom string `yaml:"amount_from"`
	Capped     bool   `yaml:"capped"`

	// grant_spell, purchase_spell
	Spell string `yaml:"spell"`
	// BookOverride forces the spellbook bitfield: offense, defense, other.
	BookOverride string `yaml:"book_override"`
	// SpellArg selects the argument index naming the spell for purchase_spell;
	// nil means the whole argument tail.
	SpellArg *int `yaml:"spell_arg"`

	// random_chance: success probability Chance out of 100.
	Chance int `yaml:"chance"`

	// random_range: one draw in [Min, Max) stored under StoreAs.
	Min     int    `yaml:"min"`
	Max     int    `yaml:"max"`
	StoreAs string `yaml:"store_as"`

	// random_choice
	Choices []Choice `yaml:"choices"`

	// conditional
	Conditions []Condition `yaml:"conditions"`

	// level_gate
	Target      int    `yaml:"target"`
	RequireItem string `yaml:"require_item"`
	GrantLevel  bool   `yaml:"grant_level"`

	// increment_room_state, room-state counter key
	Key string `yaml:"key"`

	// transfer_player
	To         string `yaml:"to"`
	LeaveText  string `yaml:"leave_text"`
	ArriveText string `yaml:"arrive_text"`

	// set_player_flag
	Flag  string `yaml:"flag"`
	Clear bool   `yaml:"clear"`

	// remove_inventory_index
	Index int `yaml:"index"`

	// branch_by_item
	// ItemArg selects the argument index naming the item. Cases maps item
	// names to their branch; the canonical case payload is a bare action
	// list (a mapping form with an "actions" key is a load-time error).
	ItemArg        int                 `yaml:"item_arg"`
	Cases          map[string][]Action `yaml:"cases"`
	MissingActions []Action            `yaml:"missing_actions"`
	DefaultActions []Action            `yaml:"default_actions"`

	// shared branch fields
	OnSuccess []Action `yaml:"on_success"`
	OnFailure []Action `yaml:"on_failure"`
	OnFull    []Action `yaml:"on_full"`
	Then      []Action `yaml:"then"`
	Else      []Action `yaml:"else"`
	OnTooHigh []Action `yaml:"on_too_high"`
	OnTooLow  []Action `yaml:"on_too_low"`
	Missing   []Action `yaml:"missing"`
	// Insufficient runs when purchase_spell finds the player short of gold.
	Insufficient []Action `yaml:"insufficient"`
}

// Trigger is one room-scoped rule: a verb set, optional predicate clauses
// (all combined with AND), and an ordered action list. Declaration order is
// significant: the first full match within a room wins.
type Trigger struct {
	// Verbs is the case-insensitive verb set; empty matches any verb.
	Verbs []string `yaml:"verbs"`
	// ArgStrip lists filler tokens removed from the argument list before any
	// other predicate is evaluated.
	ArgStrip []string `yaml:"arg_strip"`
	// Phrase is a message-catalog id (or literal) the normalized full
	// command+args must equal.
	Phrase string `yaml:"phrase"`
	// ArgPhrase applies the same normalized comparison to the argument tail.
	ArgPhrase string `yaml:"arg_phrase"`
	// First is a membership set for the argument at index 0.
	First []string `yaml:"first"`
	// Sequence is an exact ordered argument-sequence prefix.
	Sequence []string `yaml:"sequence"`
	// ArgAt requires an exact value at a specific argument index.
	ArgAt *IndexValue `yaml:"arg_at"`
	// ArgCount requires an exact argument count.
	ArgCount *int `yaml:"arg_count"`
	// ArgsEqual is a list of index/value equality pairs.
	ArgsEqual []IndexValue `yaml:"args_equal"`
	// SpouseArg requires the argument at this index to equal the player's
	// stored spouse identifier.
	SpouseArg *int `yaml:"spouse_arg"`
	// Requires names an inventory item the player must hold.
	Requires string `yaml:"requires"`
	// MinState requires room-state counters to meet thresholds; room defaults
	// apply when the live state lacks the key.
	MinState map[string]int `yaml:"min_state"`
	// Actions is the ordered effect list executed on match.
	Actions []Action `yaml:"actions"`
}

// RoomDefinition is one immutable rule document: room id, default state map,
// and ordered trigger list. Created at content load, never mutated.
type RoomDefinition struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	State    map[string]int `yaml:"state"`
	Triggers []Trigger      `yaml:"triggers"`
}

// DefaultState returns the document's default for key, or 0.
func (d *RoomDefinition) DefaultState(key string) int {
	return d.State[key]
}
