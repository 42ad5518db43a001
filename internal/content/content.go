// Package content provides the static content collaborator consumed by the
// room engine: object, spell, and message catalogs plus per-room defaults.
// All lookup data is immutable after load.
package content

import "strings"

// Object is one entry of the object catalog.
type Object struct {
	// ID is the world-unique object id referenced by inventories and rooms.
	ID int
	// Name is the lookup name used by rule documents.
	Name string
}

// SpellBook identifies which ownership bitfield a spell belongs to.
type SpellBook string

const (
	BookOffense SpellBook = "offense"
	BookDefense SpellBook = "defense"
	BookOther   SpellBook = "other"
)

// Spell is one entry of the spell catalog.
type Spell struct {
	// ID is the world-unique spell id.
	ID int
	// Name is the lookup name used by rule documents.
	Name string
	// Book selects the spellbook ownership bitfield.
	Book SpellBook
	// Bit is the position within the book's bit word.
	Bit uint
	// Price is the gold cost when sold through purchase_spell. 0 = not for sale.
	Price int
}

// ObjectCatalog resolves object names to catalog entries.
type ObjectCatalog interface {
	// ObjectByName returns the object with the given name, case-insensitively.
	ObjectByName(name string) (Object, bool)
	// ObjectByID returns the object with the given id.
	ObjectByID(id int) (Object, bool)
}

// SpellCatalog resolves spell names to catalog entries.
type SpellCatalog interface {
	// SpellByName returns the spell with the given name, case-insensitively.
	SpellByName(name string) (Spell, bool)
}

// MessageCatalog resolves message ids to templates.
type MessageCatalog interface {
	// Message returns the raw template for id.
	Message(id string) (string, bool)
	// Render returns the template for id with positional %s tokens replaced
	// by args in order. Returns ("", false) for an unknown id.
	Render(id string, args ...string) (string, bool)
}

// RoomDefaults supplies the per-room initial state used to seed RoomState.
type RoomDefaults interface {
	// DefaultState returns the default flag map for roomID; may be empty.
	DefaultState(roomID string) map[string]int
	// DefaultObjects returns the default transient object list for roomID.
	DefaultObjects(roomID string) []int
}

// Substitute replaces each %s token in template with the next argument in
// order. Surplus tokens are left in place; surplus arguments are ignored.
// "%%" renders a literal percent sign.
func Substitute(template string, args ...string) string {
	var b strings.Builder
	next := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' || i+1 >= len(template) {
			b.WriteByte(template[i])
			continue
		}
		switch template[i+1] {
		case 's':
			if next < len(args) {
				b.WriteString(args[next])
				next++
			} else {
				b.WriteString("%s")
			}
			i++
		case '%':
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(template[i])
		}
	}
	return b.String()
}
