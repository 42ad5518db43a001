package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hollowvale/mud/internal/game/tick"
)

// animationSystemKey is the tick_state row holding the animation rotation.
const animationSystemKey = "animation"

// TickStateRepository persists tick-system state between server runs. It is
// the StateStore injected into the animation system.
type TickStateRepository struct {
	db *pgxpool.Pool
}

// NewTickStateRepository creates a TickStateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTickStateRepository(db *pgxpool.Pool) *TickStateRepository {
	return &TickStateRepository{db: db}
}

// LoadAnimationState reads the persisted animation rotation.
//
// Postcondition: A missing row yields the zero state, not an error, so a
// fresh database starts the rotation at the top.
func (r *TickStateRepository) LoadAnimationState(ctx context.Context) (tick.AnimationState, error) {
	var st tick.AnimationState
	err := r.db.QueryRow(ctx, `
		SELECT routine_index, pending_flags FROM tick_state WHERE system = $1`,
		animationSystemKey,
	).Scan(&st.RoutineIndex, &st.PendingFlags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tick.AnimationState{}, nil
		}
		return tick.AnimationState{}, fmt.Errorf("loading animation state: %w", err)
	}
	return st, nil
}

// SaveAnimationState upserts the animation rotation.
func (r *TickStateRepository) SaveAnimationState(ctx context.Context, st tick.AnimationState) error {
	flags := st.PendingFlags
	if flags == nil {
		flags = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO tick_state (system, routine_index, pending_flags, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (system) DO UPDATE
		SET routine_index = EXCLUDED.routine_index,
		    pending_flags = EXCLUDED.pending_flags,
		    updated_at = NOW()`,
		animationSystemKey, st.RoutineIndex, flags,
	)
	if err != nil {
		return fmt.Errorf("saving animation state: %w", err)
	}
	return nil
}
