package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlRoomFile is the top-level YAML structure for rule documents.
type yamlRoomFile struct {
	Room RoomDefinition `yaml:"room"`
}

// LoadRoomFromBytes parses and validates one rule document. Malformed
// documents are fatal here, before any room becomes active; a case payload
// given as a mapping with an "actions" key (instead of the canonical bare
// action list) fails the unmarshal for the same reason.
//
// Precondition: data must be valid YAML conforming to the room rule schema.
// Postcondition: Returns a validated RoomDefinition or a non-nil error.
func LoadRoomFromBytes(data []byte) (*RoomDefinition, error) {
	var file yamlRoomFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing room rule document: %w", err)
	}

	def := file.Room
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validating room %q: %w", def.ID, err)
	}
	return &def, nil
}

// LoadRoomFromFile reads and validates a single rule document file.
func LoadRoomFromFile(path string) (*RoomDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading room rule file %s: %w", path, err)
	}
	def, err := LoadRoomFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return def, nil
}

// LoadRoomsFromDir loads every YAML file in dir as a rule document.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated definitions keyed by room id, or the
// first error encountered.
func LoadRoomsFromDir(dir string) (map[string]*RoomDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory %s: %w", dir, err)
	}

	defs := make(map[string]*RoomDefinition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		def, err := LoadRoomFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if _, exists := defs[def.ID]; exists {
			return nil, fmt.Errorf("duplicate room id %q in %s", def.ID, name)
		}
		defs[def.ID] = def
	}

	return defs, nil
}

// Validate checks document invariants: non-empty id, known action and
// condition kinds, sane random parameters, and bounded branch depth.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (d *RoomDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("room id must not be empty")
	}
	for i := range d.Triggers {
		trg := &d.Triggers[i]
		if err := validateTrigger(trg); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		if err := validateActions(trg.Actions, 1); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	return nil
}

// validateTrigger rejects predicate clauses that could never be satisfied or
// would index outside the argument list at dispatch time.
func validateTrigger(trg *Trigger) error {
	if trg.ArgAt != nil && trg.ArgAt.Index < 0 {
		return fmt.Errorf("arg_at index must not be negative, got %d", trg.ArgAt.Index)
	}
	for j, iv := range trg.ArgsEqual {
		if iv.Index < 0 {
			return fmt.Errorf("args_equal %d: index must not be negative, got %d", j, iv.Index)
		}
	}
	if trg.ArgCount != nil && *trg.ArgCount < 0 {
		return fmt.Errorf("arg_count must not be negative, got %d", *trg.ArgCount)
	}
	if trg.SpouseArg != nil && *trg.SpouseArg < 0 {
		return fmt.Errorf("spouse_arg must not be negative, got %d", *trg.SpouseArg)
	}
	return nil
}

func validateActions(actions []Action, depth int) error {
	if depth > MaxBranchDepth {
		return fmt.Errorf("action nesting exceeds depth limit %d", MaxBranchDepth)
	}
	for i := range actions {
		a := &actions[i]
		if !knownKinds[a.Kind] {
			return fmt.Errorf("action %d: unknown action type %q", i, a.Kind)
		}
		if err := validateAction(a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Kind, err)
		}
		for _, branch := range branches(a) {
			if err := validateActions(branch, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAction(a *Action) error {
	switch a.Kind {
	case KindRandomChance:
		if a.Chance < 0 || a.Chance > 100 {
			return fmt.Errorf("chance must be 0-100, got %d", a.Chance)
		}
	case KindRandomRange:
		if a.Max <= a.Min {
			return fmt.Errorf("max must exceed min, got [%d, %d)", a.Min, a.Max)
		}
		if a.StoreAs == "" {
			return fmt.Errorf("store_as must not be empty")
		}
	case KindRandomChoice:
		if len(a.Choices) == 0 {
			return fmt.Errorf("choices must not be empty")
		}
		total := 0
		for j, c := range a.Choices {
			if c.Weight < 0 {
				return fmt.Errorf("choice %d: weight must not be negative", j)
			}
			total += c.Weight
		}
		if total == 0 {
			return fmt.Errorf("total choice weight must be positive")
		}
	case KindConditional:
		for j, c := range a.Conditions {
			if !knownConditions[c.Kind] {
				return fmt.Errorf("condition %d: unknown condition kind %q", j, c.Kind)
			}
			if c.Op != "" && !validOps[c.Op] {
				return fmt.Errorf("condition %d: unknown operator %q", j, c.Op)
			}
		}
	case KindLevelGate:
		if a.Target < 2 {
			return fmt.Errorf("target must be >= 2, got %d", a.Target)
		}
	case KindRemoveInventoryIndex:
		if a.Index < 0 {
			return fmt.Errorf("index must not be negative, got %d", a.Index)
		}
	case KindPurchaseSpell:
		if a.SpellArg != nil && *a.SpellArg < 0 {
			return fmt.Errorf("spell_arg must not be negative, got %d", *a.SpellArg)
		}
	case KindBranchByItem:
		if a.ItemArg < 0 {
			return fmt.Errorf("item_arg must not be negative, got %d", a.ItemArg)
		}
	}
	return nil
}

var validOps = map[string]bool{
	"eq": true, "ne": true, "lt": true, "lte": true, "gt": true, "gte": true,
}

// branches returns every nested action list of a, in a stable order, for
// validation and depth accounting.
func branches(a *Action) [][]Action {
	out := [][]Action{
		a.OnSuccess, a.OnFailure, a.OnFull, a.Then, a.Else,
		a.OnTooHigh, a.OnTooLow, a.Missing, a.Insufficient,
		a.MissingActions, a.DefaultActions,
	}
	for _, c := range a.Choices {
		out = append(out, c.Actions)
	}
	for _, cs := range a.Cases {
		out = append(out, cs)
	}
	return out
}
