package tick

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/game/event"
	"github.com/hollowvale/mud/internal/game/player"
)

// RegenPerTick is the spell-point gain applied each spell tick, before the
// per-level cap.
const RegenPerTick = 2

// PlayerSource supplies the active player set for tick processing and writes
// back the records the tick mutated. Implemented by the postgres player
// repository.
type PlayerSource interface {
	ActivePlayers(ctx context.Context) ([]*player.Player, error)
	Save(ctx context.Context, p *player.Player) error
}

// SpellSystem applies the per-player spell tick: the action counter resets,
// spell points regenerate up to the level cap, and every running charm
// counts down. A charm reaching zero notifies its owner; the alternate-name
// charm additionally reverts the player's assumed identity and announces it
// to the room.
type SpellSystem struct {
	source PlayerSource
	logger *zap.Logger
}

// NewSpellSystem creates a SpellSystem.
//
// Precondition: source and logger must be non-nil.
func NewSpellSystem(source PlayerSource, logger *zap.Logger) *SpellSystem {
	return &SpellSystem{source: source, logger: logger}
}

// Tick processes every active player. A player that cannot be loaded or
// saved is logged and skipped; one bad record never stalls the tick.
func (s *SpellSystem) Tick(ctx context.Context) *event.List {
	events := &event.List{}

	players, err := s.source.ActivePlayers(ctx)
	if err != nil {
		s.logger.Error("loading active players for spell tick", zap.Error(err))
		return events
	}

	for _, p := range players {
		s.tickPlayer(p, events)
		if err := s.source.Save(ctx, p); err != nil {
			s.logger.Error("saving player after spell tick",
				zap.String("player", p.ID),
				zap.Error(err),
			)
		}
	}
	return events
}

func (s *SpellSystem) tickPlayer(p *player.Player, events *event.List) {
	p.ActionCount = 0
	p.RegenSpellPoints(RegenPerTick)

	for slot := 0; slot < player.CharmSlots; slot++ {
		remaining := p.Charm(slot)
		if remaining == 0 {
			continue
		}
		p.SetCharm(slot, remaining-1)
		if remaining > 1 {
			continue
		}

		// the charm just ran out
		events.Emit(event.Event{
			Scope:  event.ScopeDirect,
			Name:   "charm_expired",
			Player: p.ID,
			RoomID: p.Location,
			Detail: map[string]string{"slot": strconv.Itoa(slot)},
		})

		if slot == player.CharmAltName {
			former := p.AltName
			p.RevertIdentity()
			events.Emit(event.Event{
				Scope:         event.ScopeBroadcast,
				Name:          "identity_reverted",
				Player:        p.ID,
				ExcludePlayer: p.ID,
				RoomID:        p.Location,
				Detail: map[string]string{
					"former_name": former,
					"true_name":   p.Name,
				},
			})
		}
	}
}
