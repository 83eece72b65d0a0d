package repository

import (
	"context"
	"testing"

	"sweatstakes/domain/entities"
	"sweatstakes/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrizePoolRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewPrizePoolRepository(testDB.DB)

	pool := testutil.CreateTestPrizePool(100, 1)
	err := repo.Create(ctx, pool)
	require.NoError(t, err)
	require.NotZero(t, pool.ID)

	t.Run("get by competition round-trips the payout structure", func(t *testing.T) {
		got, err := repo.GetByCompetition(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pool.ID, got.ID)
		assert.Equal(t, int64(10000), got.TotalAmount)
		assert.Equal(t, entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}, got.PayoutStructure)
	})

	t.Run("unknown pool reads as nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("a competition can only have one pool", func(t *testing.T) {
		dup := testutil.CreateTestPrizePool(100, 2)
		err := repo.Create(ctx, dup)
		require.Error(t, err)
	})
}

func TestPrizePoolRepository_BalanceMutations(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewPrizePoolRepository(testDB.DB)

	pool := testutil.CreateTestPrizePoolWithAmount(200, 1, 10000)
	require.NoError(t, repo.Create(ctx, pool))

	t.Run("buy-in raises total and remaining together", func(t *testing.T) {
		applied, err := repo.AddBuyIn(ctx, pool.ID, 2000)
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := repo.GetByID(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), got.TotalAmount)
		assert.Equal(t, int64(12000), got.RemainingBalance)
	})

	t.Run("debit within balance succeeds", func(t *testing.T) {
		debited, err := repo.DebitRemaining(ctx, pool.ID, 7000)
		require.NoError(t, err)
		assert.True(t, debited)

		got, err := repo.GetByID(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), got.TotalAmount)
		assert.Equal(t, int64(5000), got.RemainingBalance)
	})

	t.Run("overdraw affects nothing", func(t *testing.T) {
		debited, err := repo.DebitRemaining(ctx, pool.ID, 5001)
		require.NoError(t, err)
		assert.False(t, debited)

		got, err := repo.GetByID(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), got.RemainingBalance)
	})

	t.Run("credit within total succeeds", func(t *testing.T) {
		credited, err := repo.CreditRemaining(ctx, pool.ID, 7000)
		require.NoError(t, err)
		assert.True(t, credited)

		got, err := repo.GetByID(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), got.RemainingBalance)
	})

	t.Run("credit past total affects nothing", func(t *testing.T) {
		credited, err := repo.CreditRemaining(ctx, pool.ID, 1)
		require.NoError(t, err)
		assert.False(t, credited)
	})
}

func TestPrizePoolRepository_UpdateStatus(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewPrizePoolRepository(testDB.DB)

	pool := testutil.CreateTestPrizePool(300, 1)
	require.NoError(t, repo.Create(ctx, pool))

	t.Run("guarded transition succeeds once", func(t *testing.T) {
		settled, err := repo.UpdateStatus(ctx, pool.ID, entities.PoolStatusActive, entities.PoolStatusSettled)
		require.NoError(t, err)
		assert.True(t, settled)

		again, err := repo.UpdateStatus(ctx, pool.ID, entities.PoolStatusActive, entities.PoolStatusSettled)
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("settled pool rejects buy-ins", func(t *testing.T) {
		applied, err := repo.AddBuyIn(ctx, pool.ID, 2000)
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := repo.GetByID(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), got.TotalAmount)
	})
}
