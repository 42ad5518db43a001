package rules

import (
	"strings"

	"github.com/hollowvale/mud/internal/content"
	"github.com/hollowvale/mud/internal/game/player"
)

// Matcher evaluates trigger predicates against a command, a player snapshot,
// and the live room state. It is stateless and safe for concurrent use.
type Matcher struct {
	objects  content.ObjectCatalog
	messages content.MessageCatalog
}

// NewMatcher creates a Matcher resolving item names through objects and
// phrase ids through messages.
//
// Precondition: objects and messages must be non-nil.
func NewMatcher(objects content.ObjectCatalog, messages content.MessageCatalog) *Matcher {
	return &Matcher{objects: objects, messages: messages}
}

// Normalize lowercases s, strips non-alphanumeric characters (keeping word
// separation), and collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripArgs returns args with every token named in strip removed,
// case-insensitively. The original slice is not modified.
func StripArgs(args, strip []string) []string {
	if len(strip) == 0 {
		return args
	}
	drop := make(map[string]bool, len(strip))
	for _, s := range strip {
		drop[strings.ToLower(s)] = true
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !drop[strings.ToLower(a)] {
			out = append(out, a)
		}
	}
	return out
}

// FirstMatch iterates def's triggers in declaration order and returns the
// first whose verb set and predicate clauses all match. No match returns
// (nil, false) and the caller may fall through to a default handler.
//
// Postcondition: At most one trigger is selected for one command.
func (m *Matcher) FirstMatch(def *RoomDefinition, verb string, args []string, p *player.Player, state map[string]int) (*Trigger, bool) {
	for i := range def.Triggers {
		if m.Matches(def, &def.Triggers[i], verb, args, p, state) {
			return &def.Triggers[i], true
		}
	}
	return nil, false
}

// Matches reports whether every present predicate clause of trg holds for
// the command. The trigger's arg_strip list is applied to the argument list
// before any other predicate is evaluated.
func (m *Matcher) Matches(def *RoomDefinition, trg *Trigger, verb string, args []string, p *player.Player, state map[string]int) bool {
	if !m.verbMatches(trg, verb) {
		return false
	}

	args = StripArgs(args, trg.ArgStrip)

	if trg.Phrase != "" {
		full := verb
		if len(args) > 0 {
			full += " " + strings.Join(args, " ")
		}
		if Normalize(full) != Normalize(m.phrase(trg.Phrase)) {
			return false
		}
	}

	if trg.ArgPhrase != "" {
		if Normalize(strings.Join(args, " ")) != Normalize(m.phrase(trg.ArgPhrase)) {
			return false
		}
	}

	if len(trg.First) > 0 {
		if len(args) == 0 {
			return false
		}
		found := false
		for _, f := range trg.First {
			if strings.EqualFold(args[0], f) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(trg.Sequence) > 0 {
		if len(args) < len(trg.Sequence) {
			return false
		}
		for i, want := range trg.Sequence {
			if !strings.EqualFold(args[i], want) {
				return false
			}
		}
	}

	// The loader rejects negative indexes; the guards below keep a
	// hand-constructed trigger from indexing out of range.
	if trg.ArgAt != nil {
		idx := trg.ArgAt.Index
		if idx < 0 || idx >= len(args) || !strings.EqualFold(args[idx], trg.ArgAt.Value) {
			return false
		}
	}

	if trg.ArgCount != nil && len(args) != *trg.ArgCount {
		return false
	}

	for _, iv := range trg.ArgsEqual {
		if iv.Index < 0 || iv.Index >= len(args) || !strings.EqualFold(args[iv.Index], iv.Value) {
			return false
		}
	}

	if trg.SpouseArg != nil {
		idx := *trg.SpouseArg
		if idx < 0 || idx >= len(args) || p.Spouse == "" || !strings.EqualFold(args[idx], p.Spouse) {
			return false
		}
	}

	if trg.Requires != "" {
		obj, ok := m.objects.ObjectByName(trg.Requires)
		if !ok || !p.HasItem(obj.ID) {
			return false
		}
	}

	for key, min := range trg.MinState {
		val, ok := state[key]
		if !ok {
			val = def.DefaultState(key)
		}
		if val < min {
			return false
		}
	}

	return true
}

func (m *Matcher) verbMatches(trg *Trigger, verb string) bool {
	if len(trg.Verbs) == 0 {
		return true
	}
	for _, v := range trg.Verbs {
		if strings.EqualFold(v, verb) {
			return true
		}
	}
	return false
}

// phrase resolves id through the message catalog, falling back to the raw
// value so inline literals keep working for small documents.
func (m *Matcher) phrase(id string) string {
	if msg, ok := m.messages.Message(id); ok {
		return msg
	}
	return id
}
