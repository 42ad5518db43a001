package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowvale/mud/internal/game/tick"
	"github.com/hollowvale/mud/internal/storage/postgres"
	"github.com/hollowvale/mud/internal/testutil"
)

func TestTickStateRepository_FreshDatabaseIsZeroState(t *testing.T) {
	repo := postgres.NewTickStateRepository(testutil.NewPool(t))

	st, err := repo.LoadAnimationState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.RoutineIndex)
	assert.Empty(t, st.PendingFlags)
}

func TestTickStateRepository_SaveAndLoad(t *testing.T) {
	repo := postgres.NewTickStateRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveAnimationState(ctx, tick.AnimationState{
		RoutineIndex: 3,
		PendingFlags: []string{"earthquake", "eclipse"},
	}))

	st, err := repo.LoadAnimationState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.RoutineIndex)
	assert.Equal(t, []string{"earthquake", "eclipse"}, st.PendingFlags)

	// upsert overwrites
	require.NoError(t, repo.SaveAnimationState(ctx, tick.AnimationState{RoutineIndex: 0}))
	st, err = repo.LoadAnimationState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.RoutineIndex)
	assert.Empty(t, st.PendingFlags)
}
