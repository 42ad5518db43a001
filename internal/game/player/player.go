// Package player holds the mutable player record the room engine operates on.
// The caller (persistence layer) loads and stores it; the engine mutates it
// in place during trigger execution and tick processing.
package player

import (
	"fmt"

	"github.com/hollowvale/mud/internal/content"
)

// Capacity and progression constants.
const (
	// MaxObjects is the inventory capacity (MXPOBS).
	MaxObjects = 20
	// MaxMemorized is the memorized-spell capacity (MAXSPL).
	MaxMemorized = 10
	// CharmSlots is the fixed size of the charm countdown array.
	CharmSlots = 10
	// CharmAltName is the charm slot whose expiry reverts the player's
	// assumed identity.
	CharmAltName = 7
	// HPPerLevel and SPPerLevel are the standard progression increments.
	HPPerLevel = 4
	SPPerLevel = 2
	// HPCapPerLevel bounds healing: hit points never exceed level * HPCapPerLevel.
	HPCapPerLevel = 8
	// SPCapPerLevel bounds spell point regeneration at level * SPCapPerLevel.
	SPCapPerLevel = 2
)

// Transformation flags cleared when the alternate-name charm expires.
const (
	FlagTransformed uint32 = 1 << iota
	FlagDisguised
	FlagShapechanged
	FlagMarked
)

// TransformFlagMask is the bundle of flags cleared on identity reversion.
const TransformFlagMask = FlagTransformed | FlagDisguised | FlagShapechanged

// FlagByName resolves the flag names rule documents may reference.
var FlagByName = map[string]uint32{
	"transformed":  FlagTransformed,
	"disguised":    FlagDisguised,
	"shapechanged": FlagShapechanged,
	"marked":       FlagMarked,
}

// ErrInventoryFull is returned by AddItem when the player already holds
// MaxObjects items.
var ErrInventoryFull = fmt.Errorf("inventory full: capacity %d", MaxObjects)

// Player is the mutable player record.
//
// Invariant: len(ItemIDs) == len(ItemValues) == ItemCount, maintained by
// every mutating method and checked by InventoryConsistent.
type Player struct {
	ID           string
	Name         string
	Spouse       string
	AltName      string
	Location     string
	PrevLocation string

	Gold        int
	Level       int
	Description int
	HP          int
	SpellPoints int
	ActionCount int
	Flags       uint32

	ItemIDs    []int
	ItemValues []int
	ItemCount  int

	SpellbookOffense uint32
	SpellbookDefense uint32
	SpellbookOther   uint32
	Memorized        []int

	Charms [CharmSlots]int
}

// New creates a level-1 player with an empty inventory.
//
// Precondition: id and name must be non-empty.
func New(id, name string) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		Level:       1,
		HP:          HPPerLevel,
		SpellPoints: SPPerLevel,
	}
}

// InventoryConsistent reports whether the parallel inventory arrays agree.
func (p *Player) InventoryConsistent() bool {
	return len(p.ItemIDs) == len(p.ItemValues) && len(p.ItemIDs) == p.ItemCount
}

// AddItem appends an item to the inventory.
//
// Precondition: InventoryConsistent().
// Postcondition: ErrInventoryFull when at capacity and nothing is mutated;
// otherwise the item is appended and the arrays stay synchronized.
func (p *Player) AddItem(id, value int) error {
	if p.ItemCount >= MaxObjects {
		return ErrInventoryFull
	}
	p.ItemIDs = append(p.ItemIDs, id)
	p.ItemValues = append(p.ItemValues, value)
	p.ItemCount++
	return nil
}

// RemoveItemAt removes the inventory entry at index i.
//
// Postcondition: Returns false without mutating when i is out of range.
func (p *Player) RemoveItemAt(i int) bool {
	if i < 0 || i >= p.ItemCount {
		return false
	}
	p.ItemIDs = append(p.ItemIDs[:i], p.ItemIDs[i+1:]...)
	p.ItemValues = append(p.ItemValues[:i], p.ItemValues[i+1:]...)
	p.ItemCount--
	return true
}

// RemoveItemByID removes the first inventory entry holding id.
//
// Postcondition: Returns true when an entry was removed.
func (p *Player) RemoveItemByID(id int) bool {
	for i := 0; i < p.ItemCount; i++ {
		if p.ItemIDs[i] == id {
			return p.RemoveItemAt(i)
		}
	}
	return false
}

// HasItem reports whether the inventory holds at least one of id.
func (p *Player) HasItem(id int) bool {
	for i := 0; i < p.ItemCount; i++ {
		if p.ItemIDs[i] == id {
			return true
		}
	}
	return false
}

// CountItem returns the number of inventory entries holding id.
func (p *Player) CountItem(id int) int {
	n := 0
	for i := 0; i < p.ItemCount; i++ {
		if p.ItemIDs[i] == id {
			n++
		}
	}
	return n
}

// LevelUp applies the standard progression increment: level up by one, the
// per-level description pointer initializes on first use then advances, hit
// points gain HPPerLevel, spell points gain SPPerLevel.
func (p *Player) LevelUp() {
	p.Level++
	if p.Description == 0 {
		p.Description = p.Level
	} else {
		p.Description++
	}
	p.HP += HPPerLevel
	p.SpellPoints += SPPerLevel
}

// Heal raises hit points by amount, capped at Level * HPCapPerLevel.
//
// Precondition: amount >= 0.
func (p *Player) Heal(amount int) {
	p.HP += amount
	if cap := p.Level * HPCapPerLevel; p.HP > cap {
		p.HP = cap
	}
}

// Damage lowers hit points by amount, floored at zero.
//
// Precondition: amount >= 0.
func (p *Player) Damage(amount int) {
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
}

// RegenSpellPoints raises spell points by amount, capped at Level * SPCapPerLevel.
func (p *Player) RegenSpellPoints(amount int) {
	p.SpellPoints += amount
	if cap := p.Level * SPCapPerLevel; p.SpellPoints > cap {
		p.SpellPoints = cap
	}
}

// GrantSpellBit sets the spell's ownership bit in the book it belongs to.
func (p *Player) GrantSpellBit(book content.SpellBook, bit uint) {
	switch book {
	case content.BookOffense:
		p.SpellbookOffense |= 1 << bit
	case content.BookDefense:
		p.SpellbookDefense |= 1 << bit
	case content.BookOther:
		p.SpellbookOther |= 1 << bit
	}
}

// HasSpellBit reports whether the ownership bit is set in the given book.
func (p *Player) HasSpellBit(book content.SpellBook, bit uint) bool {
	switch book {
	case content.BookOffense:
		return p.SpellbookOffense&(1<<bit) != 0
	case content.BookDefense:
		return p.SpellbookDefense&(1<<bit) != 0
	case content.BookOther:
		return p.SpellbookOther&(1<<bit) != 0
	}
	return false
}

// Memorize appends spellID to the memorized list. At capacity the oldest
// slot is evicted so the list length never exceeds MaxMemorized.
//
// Postcondition: len(Memorized) <= MaxMemorized; spellID is the last entry.
func (p *Player) Memorize(spellID int) {
	if len(p.Memorized) >= MaxMemorized {
		p.Memorized = p.Memorized[len(p.Memorized)-MaxMemorized+1:]
	}
	p.Memorized = append(p.Memorized, spellID)
}

// SetFlag sets or clears bit in the player flag word.
func (p *Player) SetFlag(bit uint32, on bool) {
	if on {
		p.Flags |= bit
	} else {
		p.Flags &^= bit
	}
}

// HasFlag reports whether bit is set in the player flag word.
func (p *Player) HasFlag(bit uint32) bool {
	return p.Flags&bit != 0
}

// Charm returns the countdown value of the given slot, or 0 when out of range.
func (p *Player) Charm(slot int) int {
	if slot < 0 || slot >= CharmSlots {
		return 0
	}
	return p.Charms[slot]
}

// SetCharm sets the countdown value of the given slot. Out-of-range slots
// are ignored.
func (p *Player) SetCharm(slot, ticks int) {
	if slot < 0 || slot >= CharmSlots {
		return
	}
	p.Charms[slot] = ticks
}

// RevertIdentity clears the assumed name and the transformation flag bundle.
// Called when the alternate-name charm expires.
func (p *Player) RevertIdentity() {
	p.AltName = ""
	p.Flags &^= TransformFlagMask
}

// MoveTo updates the location fields for a room transfer.
//
// Postcondition: PrevLocation holds the prior Location.
func (p *Player) MoveTo(roomID string) {
	p.PrevLocation = p.Location
	p.Location = roomID
}
