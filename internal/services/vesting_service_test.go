package services

import (
	"context"
	"testing"
	"time"

	"edenapp/internal/amount"
	"edenapp/internal/apperrors"
	"edenapp/internal/merkle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allocation struct {
	account string
	poolId  int64
	tokens  int64
}

// publishAllocations builds the commitment tree, sets the root while
// paused, unpauses, and returns a proof per allocation.
func publishAllocations(t *testing.T, e *testEngine, allocs []allocation) [][]merkle.Hash {
	t.Helper()
	ctx := context.Background()

	leaves := make([]merkle.Hash, len(allocs))
	for i, a := range allocs {
		leaves[i] = merkle.Leaf(a.account, a.poolId, amount.FromEDEN(a.tokens).ToNano())
	}
	tree := merkle.NewTree(leaves)
	require.NoError(t, e.vesting.SetMerkleRoot(ctx, testAdmin, tree.Root()))
	require.NoError(t, e.vesting.Unpause(ctx, testAdmin))

	proofs := make([][]merkle.Hash, len(allocs))
	for i := range allocs {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		proofs[i] = proof
	}
	return proofs
}

func addPool(t *testing.T, e *testEngine, cliffDays, vestingDays, tgeBps int64) int64 {
	t.Helper()
	ids, err := e.vesting.AddPools(context.Background(), testAdmin,
		[]int64{cliffDays}, []int64{vestingDays}, []int64{tgeBps})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

func TestVestingClaimAndRelease(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 500)
	allocs := []allocation{{"alice", poolId, 100_000}}
	proofs := publishAllocations(t, e, allocs)

	tge, err := e.vesting.Claim(ctx, "alice", proofs, []int64{poolId},
		[]amount.Amount{amount.FromEDEN(100_000)})
	require.NoError(t, err)
	assert.Equal(t, 5_000.0, tge.ToEDEN())
	assert.Equal(t, 5_000.0, e.balanceEDEN(t, "alice"))

	remaining, err := e.vesting.VestingAmountRemaining(ctx, "alice", poolId)
	require.NoError(t, err)
	assert.Equal(t, 95_000.0, remaining.ToEDEN())

	// nothing is queryable or releasable before the cliff epoch starts
	_, err = e.vesting.Releasable(ctx, "alice", poolId)
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffNotSetYet))
	_, err = e.vesting.Release(ctx, "alice", poolId)
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffNotSetYet))

	_, err = e.vesting.SetCliffStart(ctx, testAdmin)
	require.NoError(t, err)

	// still inside the cliff
	e.clock.advanceDays(30)
	_, err = e.vesting.Release(ctx, "alice", poolId)
	assert.True(t, apperrors.Is(err, apperrors.CodeNoRewardToRelease))

	// one quarter into the linear window
	e.clock.advanceDays(62)
	e.clock.advance(365 * 24 * time.Hour / 4)
	releasable, err := e.vesting.Releasable(ctx, "alice", poolId)
	require.NoError(t, err)
	assert.Equal(t, 23_750.0, releasable.ToEDEN())

	paid, err := e.vesting.Release(ctx, "alice", poolId)
	require.NoError(t, err)
	assert.Equal(t, 23_750.0, paid.ToEDEN())
	assert.Equal(t, 28_750.0, e.balanceEDEN(t, "alice"))

	_, err = e.vesting.Release(ctx, "alice", poolId)
	assert.True(t, apperrors.Is(err, apperrors.CodeNoRewardToRelease))

	// a wallet that has released cannot be removed any more
	err = e.vesting.RemoveVestingPoolWallet(ctx, testAdmin, poolId, "alice")
	assert.True(t, apperrors.Is(err, apperrors.CodeCannotRemoveWallet))

	// full principal once the vesting window is over
	e.clock.advanceDays(400)
	paid, err = e.vesting.Release(ctx, "alice", poolId)
	require.NoError(t, err)
	assert.Equal(t, 71_250.0, paid.ToEDEN())

	released, err := e.vesting.ReleasedAmount(ctx, "alice", poolId)
	require.NoError(t, err)
	assert.Equal(t, 95_000.0, released.ToEDEN())

	stats, err := e.vesting.GetWalletStats(ctx, "alice", poolId, e.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 95_000.0, stats.Principal.ToEDEN())
	assert.Equal(t, 95_000.0, stats.Vested.ToEDEN())
	assert.Equal(t, 95_000.0, stats.Released.ToEDEN())
	assert.Equal(t, 0.0, stats.Remaining.ToEDEN())
}

func TestVestingClaimGating(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 500)

	// deployed paused
	_, err := e.vesting.Claim(ctx, "alice", [][]merkle.Hash{nil}, []int64{poolId},
		[]amount.Amount{amount.FromEDEN(100_000)})
	assert.True(t, apperrors.Is(err, apperrors.CodeEnforcedPause))

	require.NoError(t, e.vesting.Unpause(ctx, testAdmin))
	_, err = e.vesting.Claim(ctx, "alice", [][]merkle.Hash{nil}, []int64{poolId},
		[]amount.Amount{amount.FromEDEN(100_000)})
	assert.True(t, apperrors.Is(err, apperrors.CodeMerkleTreeNotSet))

	// root rotation only in the paused state
	err = e.vesting.SetMerkleRoot(ctx, testAdmin, merkle.Leaf("x", 1, 1))
	assert.True(t, apperrors.Is(err, apperrors.CodeExpectedPause))

	require.NoError(t, e.vesting.Pause(ctx, testAdmin))
	require.NoError(t, e.vesting.SetMerkleRoot(ctx, testAdmin, merkle.Leaf("x", 1, 1)))

	err = e.vesting.Pause(ctx, "mallory")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorizedAccount))
}

func TestVestingClaimValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 500)
	allocs := []allocation{
		{"alice", poolId, 100_000},
		{"bob", poolId + 1, 50_000}, // committed, but the pool does not exist
	}
	proofs := publishAllocations(t, e, allocs)

	_, err := e.vesting.Claim(ctx, "alice", proofs[:1], []int64{poolId, poolId},
		[]amount.Amount{amount.FromEDEN(100_000)})
	assert.True(t, apperrors.Is(err, apperrors.CodeInputArrayMismatchLength))

	// inflated amount does not verify
	_, err = e.vesting.Claim(ctx, "alice", proofs[:1], []int64{poolId},
		[]amount.Amount{amount.FromEDEN(200_000)})
	assert.True(t, apperrors.Is(err, apperrors.CodeMerkleTreeValidationFailed))

	// someone else's proof does not verify
	_, err = e.vesting.Claim(ctx, "mallory", proofs[:1], []int64{poolId},
		[]amount.Amount{amount.FromEDEN(100_000)})
	assert.True(t, apperrors.Is(err, apperrors.CodeMerkleTreeValidationFailed))

	// valid proof for a pool that was never created
	_, err = e.vesting.Claim(ctx, "bob", proofs[1:], []int64{poolId + 1},
		[]amount.Amount{amount.FromEDEN(50_000)})
	assert.True(t, apperrors.Is(err, apperrors.CodePoolIndexDoesNotExist))
}

func TestVestingClaimReplay(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 500)
	allocs := []allocation{{"alice", poolId, 100_000}}
	proofs := publishAllocations(t, e, allocs)
	amounts := []amount.Amount{amount.FromEDEN(100_000)}

	_, err := e.vesting.Claim(ctx, "alice", proofs, []int64{poolId}, amounts)
	require.NoError(t, err)

	_, err = e.vesting.Claim(ctx, "alice", proofs, []int64{poolId}, amounts)
	assert.True(t, apperrors.Is(err, apperrors.CodeAlreadyClaimed))

	// a batch repeating the same tuple fails atomically
	balBefore := e.balanceEDEN(t, "bob")
	_, err = e.vesting.Claim(ctx, "alice",
		[][]merkle.Hash{proofs[0], proofs[0]}, []int64{poolId, poolId},
		[]amount.Amount{amounts[0], amounts[0]})
	assert.True(t, apperrors.Is(err, apperrors.CodeAlreadyClaimed))
	assert.Equal(t, balBefore, e.balanceEDEN(t, "bob"))
}

func TestVestingWalletRegistry(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 500)

	err := e.vesting.AddVestingPoolWallet(ctx, testAdmin, 99, "alice", amount.FromEDEN(1_000))
	assert.True(t, apperrors.Is(err, apperrors.CodePoolIndexDoesNotExist))

	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, poolId, "alice", amount.FromEDEN(1_000)))
	err = e.vesting.AddVestingPoolWallet(ctx, testAdmin, poolId, "alice", amount.FromEDEN(1_000))
	assert.True(t, apperrors.Is(err, apperrors.CodeWalletAlreadyExists))

	err = e.vesting.RemoveVestingPoolWallet(ctx, testAdmin, poolId, "bob")
	assert.True(t, apperrors.Is(err, apperrors.CodeWalletNotSet))

	require.NoError(t, e.vesting.RemoveVestingPoolWallet(ctx, testAdmin, poolId, "alice"))
	pools, err := e.vesting.GetWalletPools(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pools)
}

func TestClaimMarkerSurvivesWalletRemoval(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 500)
	allocs := []allocation{{"alice", poolId, 100_000}}
	proofs := publishAllocations(t, e, allocs)
	amounts := []amount.Amount{amount.FromEDEN(100_000)}

	_, err := e.vesting.Claim(ctx, "alice", proofs, []int64{poolId}, amounts)
	require.NoError(t, err)

	// nothing released yet, so removal is allowed
	require.NoError(t, e.vesting.RemoveVestingPoolWallet(ctx, testAdmin, poolId, "alice"))

	// but the marker persists: the allocation cannot be claimed again
	_, err = e.vesting.Claim(ctx, "alice", proofs, []int64{poolId}, amounts)
	assert.True(t, apperrors.Is(err, apperrors.CodeAlreadyClaimed))

	// a fresh manual entry for the same pair is still allowed
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, poolId, "alice", amount.FromEDEN(500)))
}

func TestSetCliffStartOnce(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.vesting.SetCliffStart(ctx, "mallory")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorizedAccount))

	// the manager role is enough to pull the trigger
	require.NoError(t, e.access.GrantRole(ctx, testAdmin, "carol", RoleManager))
	epoch, err := e.vesting.SetCliffStart(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, e.clock.Now().Unix(), epoch)

	_, err = e.vesting.SetCliffStart(ctx, testAdmin)
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffAlreadyStarted))
}

func TestPoolsAddedAfterEpochAreStamped(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	before := addPool(t, e, 92, 365, 500)
	epoch, err := e.vesting.SetCliffStart(ctx, testAdmin)
	require.NoError(t, err)

	after := addPool(t, e, 30, 180, 0)

	for _, id := range []int64{before, after} {
		pool, err := e.vesting.GetPool(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, epoch, pool.CliffStart)
		assert.Equal(t, epoch+pool.CliffDays*86400, pool.CliffEnd)
		assert.Equal(t, pool.CliffEnd+pool.VestingDays*86400, pool.VestingEnd)
	}
}

func TestReleaseAll(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first := addPool(t, e, 30, 180, 0)
	second := addPool(t, e, 92, 365, 0)
	allocs := []allocation{
		{"alice", first, 10_000},
		{"alice", second, 40_000},
	}
	proofs := publishAllocations(t, e, allocs)

	_, err := e.vesting.Claim(ctx, "alice", proofs, []int64{first, second},
		[]amount.Amount{amount.FromEDEN(10_000), amount.FromEDEN(40_000)})
	require.NoError(t, err)

	_, err = e.vesting.ReleaseAll(ctx, "alice")
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffNotSetYet))

	_, err = e.vesting.SetCliffStart(ctx, testAdmin)
	require.NoError(t, err)

	// inside both cliffs
	e.clock.advanceDays(10)
	_, err = e.vesting.ReleaseAll(ctx, "alice")
	assert.True(t, apperrors.Is(err, apperrors.CodeNoRewardToRelease))

	// past both vesting windows: everything in one aggregated transfer
	e.clock.advanceDays(500)
	total, err := e.vesting.ReleaseAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50_000.0, total.ToEDEN())
	assert.Equal(t, 50_000.0, e.balanceEDEN(t, "alice"))

	poolIds, remaining, err := e.vesting.VestingAmountRemainingAll(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{first, second}, poolIds)
	for _, r := range remaining {
		assert.Equal(t, amount.Amount(0), r)
	}
}

func TestReleasableAllAsymmetry(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 92, 365, 0)

	// single-pool form fails hard before the epoch, even for strangers
	_, err := e.vesting.Releasable(ctx, "stranger", poolId)
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffNotSetYet))

	// batch form is silent for accounts with no allocations at all
	total, err := e.vesting.ReleasableAll(ctx, "stranger")
	require.NoError(t, err)
	assert.Equal(t, amount.Amount(0), total)

	stats, err := e.vesting.GetWalletStatsAll(ctx, "stranger", e.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, stats)

	// once the account holds an allocation, the batch form fails too
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, poolId, "alice", amount.FromEDEN(1_000)))
	_, err = e.vesting.ReleasableAll(ctx, "alice")
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffNotSetYet))
	_, err = e.vesting.GetWalletStatsAll(ctx, "alice", e.clock.Now())
	assert.True(t, apperrors.Is(err, apperrors.CodeCliffNotSetYet))
}

func TestVestingReadsForAbsentAllocations(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// pool 7 was never created; both reads come back zero, not an error
	remaining, err := e.vesting.VestingAmountRemaining(ctx, "alice", 7)
	require.NoError(t, err)
	assert.Equal(t, amount.Amount(0), remaining)

	released, err := e.vesting.ReleasedAmount(ctx, "alice", 7)
	require.NoError(t, err)
	assert.Equal(t, amount.Amount(0), released)

	poolId := addPool(t, e, 92, 365, 0)
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, poolId, "alice", amount.FromEDEN(1_000)))

	// a real allocation reads zero released before the cliff epoch too
	released, err = e.vesting.ReleasedAmount(ctx, "alice", poolId)
	require.NoError(t, err)
	assert.Equal(t, amount.Amount(0), released)

	// and for a wallet other than the holder
	remaining, err = e.vesting.VestingAmountRemaining(ctx, "bob", poolId)
	require.NoError(t, err)
	assert.Equal(t, amount.Amount(0), remaining)
}

func TestVestingRemainingPerPoolBeforeEpoch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first := addPool(t, e, 30, 180, 0)
	second := addPool(t, e, 92, 365, 0)
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, first, "alice", amount.FromEDEN(10_000)))
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, second, "alice", amount.FromEDEN(40_000)))

	poolIds, remaining, err := e.vesting.VestingAmountRemainingAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, poolIds, 2)
	require.Len(t, remaining, 2)
	byPool := make(map[int64]amount.Amount, len(poolIds))
	for i, id := range poolIds {
		byPool[id] = remaining[i]
	}
	assert.Equal(t, amount.FromEDEN(10_000), byPool[first])
	assert.Equal(t, amount.FromEDEN(40_000), byPool[second])

	poolIds, remaining, err = e.vesting.VestingAmountRemainingAll(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, poolIds)
	assert.Empty(t, remaining)
}

func TestReleasableAllSkipsRetiredPools(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	live := addPool(t, e, 30, 180, 0)
	retired := addPool(t, e, 30, 180, 0)
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, live, "alice", amount.FromEDEN(10_000)))
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, retired, "alice", amount.FromEDEN(40_000)))
	_, err := e.vesting.SetCliffStart(ctx, testAdmin)
	require.NoError(t, err)

	_, err = e.db.Exec("update vesting_pools set active = false where id = $1", retired)
	require.NoError(t, err)

	// past both windows: the preview and the payout agree, counting the
	// live pool only
	e.clock.advanceDays(300)
	releasable, err := e.vesting.ReleasableAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, releasable.ToEDEN())

	total, err := e.vesting.ReleaseAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, releasable, total)
	assert.Equal(t, 10_000.0, e.balanceEDEN(t, "alice"))
}

func TestVestingScheduleMonotonic(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	poolId := addPool(t, e, 30, 120, 0)
	require.NoError(t, e.vesting.AddVestingPoolWallet(ctx, testAdmin, poolId, "alice", amount.FromEDEN(12_000)))
	epoch, err := e.vesting.SetCliffStart(ctx, testAdmin)
	require.NoError(t, err)

	prev := amount.Amount(-1)
	for day := int64(0); day <= 160; day += 10 {
		v, err := e.vesting.VestingSchedule(ctx, "alice", poolId,
			time.Unix(epoch+day*86400, 0))
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
	assert.Equal(t, amount.FromEDEN(12_000), prev)
}
