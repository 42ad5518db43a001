package rules

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/content"
	"github.com/hollowvale/mud/internal/game/event"
	"github.com/hollowvale/mud/internal/game/player"
	"github.com/hollowvale/mud/internal/game/rng"
)

// RoomAccess is the slice of room state the executor needs. Implemented by
// the room registry; kept narrow so the executor stays free of room
// lifecycle concerns.
type RoomAccess interface {
	// StateValue returns the room-state counter, falling back to the room's
	// document defaults when the live state lacks the key.
	StateValue(roomID, key string) int
	// AddState adds delta to the named counter, initializing it from the
	// document default on first touch.
	AddState(roomID, key string, delta int)
	// ObjectCount returns the number of transient objects in the room.
	ObjectCount(roomID string) int
	// AddObject appends an object to the room's transient list.
	// Returns false when the room is at capacity.
	AddObject(roomID string, objectID int) bool
}

// Context is the scoped scratch map used for message template substitution
// and inter-action data passing within one trigger evaluation. It must not
// outlive the Execute call that created it.
type Context map[string]string

// Int returns the context value for key parsed as an integer; absent or
// non-numeric values read as 0.
func (c Context) Int(key string) int {
	n, _ := strconv.Atoi(c[key])
	return n
}

// Executor interprets an ordered action list, recursing into nested
// branches, producing outbound events and mutating player and room state.
// Execution is synchronous and runs to completion; a trigger's action
// sequence is atomic with respect to other commands on the same room.
//
// Failure policy: unresolvable content references (unknown item, spell,
// flag, message id) silently no-op. This is a content-authoring forgiveness
// policy, not an error path.
type Executor struct {
	objects  content.ObjectCatalog
	spells   content.SpellCatalog
	messages content.MessageCatalog
	rooms    RoomAccess
	src      rng.Source
	logger   *zap.Logger
}

// NewExecutor creates an Executor.
//
// Precondition: all dependencies must be non-nil.
func NewExecutor(objects content.ObjectCatalog, spells content.SpellCatalog, messages content.MessageCatalog, rooms RoomAccess, src rng.Source, logger *zap.Logger) *Executor {
	return &Executor{
		objects:  objects,
		spells:   spells,
		messages: messages,
		rooms:    rooms,
		src:      src,
		logger:   logger,
	}
}

// Execute runs actions in order against p, appending produced events to
// events. args is the already-parsed argument list of the matched command.
func (e *Executor) Execute(actions []Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string) {
	e.exec(actions, p, args, ctx, events, roomID, 0)
}

func (e *Executor) exec(actions []Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	if depth > MaxBranchDepth {
		e.logger.Warn("rules: branch depth limit reached, aborting subtree",
			zap.String("room", roomID),
			zap.Int("depth", depth),
		)
		return
	}

	for i := range actions {
		a := &actions[i]
		switch a.Kind {
		case KindMessage:
			e.execMessage(a, p, ctx, events, roomID)
		case KindRemoveItem:
			e.execRemoveItem(a, p, ctx)
		case KindAddGold:
			p.Gold += e.amount(a, ctx)
		case KindGrantObject:
			e.execGrantObject(a, p, args, ctx, events, roomID, depth)
		case KindHeal:
			if a.Capped {
				p.Heal(e.amount(a, ctx))
			} else {
				p.HP += e.amount(a, ctx)
			}
		case KindDamage:
			p.Damage(e.amount(a, ctx))
		case KindGrantSpell:
			e.execGrantSpell(a, p)
		case KindRandomChance:
			if rng.Chance(e.src, a.Chance, 100) {
				e.exec(a.OnSuccess, p, args, ctx, events, roomID, depth+1)
			} else {
				e.exec(a.OnFailure, p, args, ctx, events, roomID, depth+1)
			}
		case KindRandomRange:
			ctx[a.StoreAs] = strconv.Itoa(rng.Range(e.src, a.Min, a.Max))
		case KindRandomChoice:
			e.execRandomChoice(a, p, args, ctx, events, roomID, depth)
		case KindConditional:
			if e.conditionsHold(a.Conditions, p, ctx, roomID) {
				e.exec(a.Then, p, args, ctx, events, roomID, depth+1)
			} else {
				e.exec(a.Else, p, args, ctx, events, roomID, depth+1)
			}
		case KindPurchaseSpell:
			e.execPurchaseSpell(a, p, args, ctx, events, roomID, depth)
		case KindLevelGate:
			e.execLevelGate(a, p, args, ctx, events, roomID, depth)
		case KindAddRoomObject:
			e.execAddRoomObject(a, p, args, ctx, events, roomID, depth)
		case KindIncrementRoomState:
			e.rooms.AddState(roomID, a.Key, a.Amount)
		case KindTransferPlayer:
			e.execTransferPlayer(a, p, events, roomID)
		case KindSetPlayerFlag:
			if bit, ok := player.FlagByName[strings.ToLower(a.Flag)]; ok {
				p.SetFlag(bit, !a.Clear)
			}
		case KindRemoveInventoryIndex:
			p.RemoveItemAt(a.Index)
		case KindLevelUp:
			p.LevelUp()
		case KindBranchByItem:
			e.execBranchByItem(a, p, args, ctx, events, roomID, depth)
		}
	}
}

// amount resolves the action's literal amount, or the context-referenced one
// when amount_from names a key.
func (e *Executor) amount(a *Action, ctx Context) int {
	if a.AmountFrom != "" {
		return ctx.Int(a.AmountFrom)
	}
	return a.Amount
}

// substitutionArgs resolves the action's args list of context keys to values.
func substitutionArgs(a *Action, ctx Context) []string {
	if len(a.Args) == 0 {
		return nil
	}
	out := make([]string, len(a.Args))
	for i, key := range a.Args {
		out[i] = ctx[key]
	}
	return out
}

func (e *Executor) execMessage(a *Action, p *player.Player, ctx Context, events *event.List, roomID string) {
	subs := substitutionArgs(a, ctx)

	if text, msgID, ok := e.resolveText(a.Text, a.MessageID, subs); ok {
		ev := event.Event{
			Scope:     event.ScopeDirect,
			Name:      "message",
			MessageID: msgID,
			Text:      text,
			Player:    p.ID,
			RoomID:    roomID,
		}
		if a.Global {
			ev.Scope = event.ScopeSystem
		}
		events.Emit(ev)
	}

	if text, msgID, ok := e.resolveText(a.BroadcastText, a.BroadcastID, subs); ok {
		events.Emit(event.Event{
			Scope:         event.ScopeBroadcast,
			Name:          "message",
			MessageID:     msgID,
			Text:          text,
			Player:        p.ID,
			ExcludePlayer: p.ID,
			RoomID:        roomID,
		})
	}
}

// resolveText picks the message-id template over the literal, applying
// substitution to whichever is used. ok is false when neither is set or the
// message id is unknown.
func (e *Executor) resolveText(literal, msgID string, subs []string) (text, id string, ok bool) {
	if msgID != "" {
		rendered, found := e.messages.Render(msgID, subs...)
		if !found {
			return "", "", false
		}
		return rendered, msgID, true
	}
	if literal != "" {
		return content.Substitute(literal, subs...), "", true
	}
	return "", "", false
}

func (e *Executor) execRemoveItem(a *Action, p *player.Player, ctx Context) {
	name := a.Item
	if a.ItemFrom != "" {
		name = ctx[a.ItemFrom]
	}
	obj, ok := e.objects.ObjectByName(name)
	if !ok {
		return
	}
	p.RemoveItemByID(obj.ID)
}

func (e *Executor) execGrantObject(a *Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	obj, ok := e.objects.ObjectByName(a.Item)
	if !ok {
		return
	}
	if err := p.AddItem(obj.ID, 0); err != nil {
		e.exec(a.OnFull, p, args, ctx, events, roomID, depth+1)
	}
}

func (e *Executor) execGrantSpell(a *Action, p *player.Player) {
	sp, ok := e.spells.SpellByName(a.Spell)
	if !ok {
		return
	}
	book := sp.Book
	if a.BookOverride != "" {
		book = content.SpellBook(a.BookOverride)
	}
	p.GrantSpellBit(book, sp.Bit)
	if len(p.Memorized) < player.MaxMemorized {
		p.Memorized = append(p.Memorized, sp.ID)
	}
}

func (e *Executor) execRandomChoice(a *Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	weights := make([]int, len(a.Choices))
	for i, c := range a.Choices {
		weights[i] = c.Weight
	}
	idx := rng.WeightedIndex(e.src, weights)
	if idx < 0 {
		return
	}
	chosen := &a.Choices[idx]
	if a.StoreAs != "" {
		ctx[a.StoreAs] = chosen.Value
	}
	e.exec(chosen.Actions, p, args, ctx, events, roomID, depth+1)
}

func (e *Executor) execPurchaseSpell(a *Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	var name string
	if a.SpellArg != nil {
		if *a.SpellArg < 0 || *a.SpellArg >= len(args) {
			e.exec(a.Missing, p, args, ctx, events, roomID, depth+1)
			return
		}
		name = args[*a.SpellArg]
	} else {
		name = strings.Join(args, " ")
	}

	sp, ok := e.spells.SpellByName(name)
	if !ok {
		e.exec(a.Missing, p, args, ctx, events, roomID, depth+1)
		return
	}
	if p.Gold < sp.Price {
		e.exec(a.Insufficient, p, args, ctx, events, roomID, depth+1)
		return
	}

	p.Gold -= sp.Price
	p.GrantSpellBit(sp.Book, sp.Bit)
	p.Memorize(sp.ID)
	ctx["spell_name"] = sp.Name
	e.exec(a.OnSuccess, p, args, ctx, events, roomID, depth+1)
}

func (e *Executor) execLevelGate(a *Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	if a.RequireItem != "" {
		obj, ok := e.objects.ObjectByName(a.RequireItem)
		if !ok || !p.HasItem(obj.ID) {
			return
		}
	}

	switch {
	case p.Level >= a.Target:
		e.exec(a.OnTooHigh, p, args, ctx, events, roomID, depth+1)
	case p.Level == a.Target-1:
		if a.GrantLevel {
			p.LevelUp()
		}
		e.exec(a.OnSuccess, p, args, ctx, events, roomID, depth+1)
	default:
		e.exec(a.OnTooLow, p, args, ctx, events, roomID, depth+1)
	}
}

func (e *Executor) execAddRoomObject(a *Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	obj, ok := e.objects.ObjectByName(a.Item)
	if !ok {
		return
	}
	if !e.rooms.AddObject(roomID, obj.ID) {
		e.exec(a.OnFull, p, args, ctx, events, roomID, depth+1)
	}
}

func (e *Executor) execTransferPlayer(a *Action, p *player.Player, events *event.List, roomID string) {
	from := p.Location
	if from == "" {
		from = roomID
	}
	p.MoveTo(a.To)

	detail := make(map[string]string, 2)
	if a.LeaveText != "" {
		detail["leave"] = content.Substitute(a.LeaveText, p.Name)
	}
	if a.ArriveText != "" {
		detail["arrive"] = content.Substitute(a.ArriveText, p.Name)
	}
	events.Emit(event.Event{
		Scope:    event.ScopeRoom,
		Name:     "room_transfer",
		Player:   p.ID,
		RoomID:   roomID,
		FromRoom: from,
		ToRoom:   a.To,
		Detail:   detail,
	})
}

func (e *Executor) execBranchByItem(a *Action, p *player.Player, args []string, ctx Context, events *event.List, roomID string, depth int) {
	if a.ItemArg < 0 || a.ItemArg >= len(args) {
		e.exec(a.MissingActions, p, args, ctx, events, roomID, depth+1)
		return
	}
	name := args[a.ItemArg]
	obj, ok := e.objects.ObjectByName(name)
	if !ok || !p.HasItem(obj.ID) {
		e.exec(a.MissingActions, p, args, ctx, events, roomID, depth+1)
		return
	}

	if branch, ok := caseBranch(a.Cases, name); ok {
		e.exec(branch, p, args, ctx, events, roomID, depth+1)
		return
	}
	e.exec(a.DefaultActions, p, args, ctx, events, roomID, depth+1)
}

func caseBranch(cases map[string][]Action, name string) ([]Action, bool) {
	if branch, ok := cases[name]; ok {
		return branch, true
	}
	for key, branch := range cases {
		if strings.EqualFold(key, name) {
			return branch, true
		}
	}
	return nil, false
}

// conditionsHold evaluates every clause; all must hold.
func (e *Executor) conditionsHold(conds []Condition, p *player.Player, ctx Context, roomID string) bool {
	for i := range conds {
		if !e.conditionHolds(&conds[i], p, ctx, roomID) {
			return false
		}
	}
	return true
}

func (e *Executor) conditionHolds(c *Condition, p *player.Player, ctx Context, roomID string) bool {
	switch c.Kind {
	case CondGold:
		return compare(p.Gold, c.Op, c.Value)
	case CondContext:
		return compare(ctx.Int(c.Key), c.Op, c.Value)
	case CondInventoryCount:
		obj, ok := e.objects.ObjectByName(c.Item)
		if !ok {
			return compare(0, c.Op, c.Value)
		}
		return compare(p.CountItem(obj.ID), c.Op, c.Value)
	case CondRoomObjectCount:
		return compare(e.rooms.ObjectCount(roomID), c.Op, c.Value)
	case CondRoomState:
		return compare(e.rooms.StateValue(roomID, c.Key), c.Op, c.Value)
	case CondHeldItem:
		obj, ok := e.objects.ObjectByName(c.Item)
		held := ok && p.HasItem(obj.ID)
		return held != c.Negate
	case CondPlayerFlag:
		bit, ok := player.FlagByName[strings.ToLower(c.Flag)]
		set := ok && p.HasFlag(bit)
		return set != c.Negate
	case CondActiveCharm:
		return compare(p.Charm(c.Slot), c.Op, c.Value)
	}
	return false
}

// compare applies op to (have, want); the default operator is gte.
func compare(have int, op string, want int) bool {
	switch op {
	case "eq":
		return have == want
	case "ne":
		return have != want
	case "lt":
		return have < want
	case "lte":
		return have <= want
	case "gt":
		return have > want
	default: // "gte" and empty
		return have >= want
	}
}
