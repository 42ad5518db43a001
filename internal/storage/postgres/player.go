package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hollowvale/mud/internal/game/player"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerExists is returned when creating a player whose id is taken.
var ErrPlayerExists = errors.New("player already exists")

const playerColumns = `
	id, name, spouse, alt_name, location, prev_location,
	gold, level, description, hp, spell_points, action_count, flags,
	item_ids, item_values, item_count,
	spellbook_offense, spellbook_defense, spellbook_other, memorized, charms`

// PlayerRepository persists the player records the room engine mutates.
// It implements the tick systems' PlayerSource.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player row.
//
// Precondition: p.ID and p.Name must be non-empty.
// Postcondition: Returns ErrPlayerExists on a duplicate id.
func (r *PlayerRepository) Create(ctx context.Context, p *player.Player) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO players
			(id, name, spouse, alt_name, location, prev_location,
			 gold, level, description, hp, spell_points, action_count, flags,
			 item_ids, item_values, item_count,
			 spellbook_offense, spellbook_defense, spellbook_other, memorized, charms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		p.ID, p.Name, p.Spouse, p.AltName, p.Location, p.PrevLocation,
		p.Gold, p.Level, p.Description, p.HP, p.SpellPoints, p.ActionCount, int64(p.Flags),
		p.ItemIDs, p.ItemValues, p.ItemCount,
		int64(p.SpellbookOffense), int64(p.SpellbookDefense), int64(p.SpellbookOther),
		p.Memorized, p.Charms[:],
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrPlayerExists
		}
		return fmt.Errorf("inserting player: %w", err)
	}
	return nil
}

// Get retrieves a player by id.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) Get(ctx context.Context, id string) (*player.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT`+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// ActivePlayers returns every player marked active, for tick processing.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *PlayerRepository) ActivePlayers(ctx context.Context) ([]*player.Player, error) {
	rows, err := r.db.Query(ctx, `SELECT`+playerColumns+` FROM players WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing active players: %w", err)
	}
	defer rows.Close()

	players := make([]*player.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// SetActive marks a player as participating in tick processing.
//
// Postcondition: Returns ErrPlayerNotFound if no row updated.
func (r *PlayerRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE players SET active = $2, updated_at = NOW() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("setting player active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// Save writes back every field the engine mutates.
//
// Precondition: p.InventoryConsistent().
// Postcondition: Returns ErrPlayerNotFound if no row updated.
func (r *PlayerRepository) Save(ctx context.Context, p *player.Player) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE players SET
			name = $2, spouse = $3, alt_name = $4, location = $5, prev_location = $6,
			gold = $7, level = $8, description = $9, hp = $10, spell_points = $11,
			action_count = $12, flags = $13,
			item_ids = $14, item_values = $15, item_count = $16,
			spellbook_offense = $17, spellbook_defense = $18, spellbook_other = $19,
			memorized = $20, charms = $21,
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Spouse, p.AltName, p.Location, p.PrevLocation,
		p.Gold, p.Level, p.Description, p.HP, p.SpellPoints, p.ActionCount, int64(p.Flags),
		p.ItemIDs, p.ItemValues, p.ItemCount,
		int64(p.SpellbookOffense), int64(p.SpellbookDefense), int64(p.SpellbookOther),
		p.Memorized, p.Charms[:],
	)
	if err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func scanPlayer(row pgx.Row) (*player.Player, error) {
	var p player.Player
	var flags, offense, defense, other int64
	var charms []int
	if err := row.Scan(
		&p.ID, &p.Name, &p.Spouse, &p.AltName, &p.Location, &p.PrevLocation,
		&p.Gold, &p.Level, &p.Description, &p.HP, &p.SpellPoints, &p.ActionCount, &flags,
		&p.ItemIDs, &p.ItemValues, &p.ItemCount,
		&offense, &defense, &other, &p.Memorized, &charms,
	); err != nil {
		return nil, err
	}
	p.Flags = uint32(flags)
	p.SpellbookOffense = uint32(offense)
	p.SpellbookDefense = uint32(defense)
	p.SpellbookOther = uint32(other)
	copy(p.Charms[:], charms)
	return &p, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
