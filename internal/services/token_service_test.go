package services

import (
	"context"
	"testing"

	"edenapp/internal/amount"
	"edenapp/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.token.Transfer(ctx, e.db, testTreasury, "alice", amount.FromEDEN(1_000)))
	assert.Equal(t, 1_000.0, e.balanceEDEN(t, "alice"))

	err := e.token.Transfer(ctx, e.db, "alice", "bob", amount.FromEDEN(2_000))
	assert.True(t, apperrors.Is(err, apperrors.CodeInsufficientBalance))

	err = e.token.Transfer(ctx, e.db, "alice", "bob", 0)
	assert.True(t, apperrors.Is(err, apperrors.CodeAmountMustBeGreaterThanZero))
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.token.Transfer(ctx, e.db, testTreasury, "alice", amount.FromEDEN(1_000)))
	require.NoError(t, e.token.Approve(ctx, "alice", "spender", amount.FromEDEN(600)))

	err := e.token.TransferFrom(ctx, e.db, "alice", "spender", "bob", amount.FromEDEN(700))
	assert.True(t, apperrors.Is(err, apperrors.CodeInsufficientAllowance))

	require.NoError(t, e.token.TransferFrom(ctx, e.db, "alice", "spender", "bob", amount.FromEDEN(400)))
	assert.Equal(t, 400.0, e.balanceEDEN(t, "bob"))

	left, err := e.token.Allowance(ctx, "alice", "spender")
	require.NoError(t, err)
	assert.Equal(t, amount.FromEDEN(200), left)

	err = e.token.TransferFrom(ctx, e.db, "alice", "spender", "bob", amount.FromEDEN(300))
	assert.True(t, apperrors.Is(err, apperrors.CodeInsufficientAllowance))
}

func TestInitializeSupplyIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	before := e.balanceEDEN(t, testTreasury)
	require.NoError(t, e.token.InitializeSupply(ctx, testTreasury, amount.FromEDEN(7_200_000_000)))
	assert.Equal(t, before, e.balanceEDEN(t, testTreasury))
}

func TestRoleManagement(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	err := e.access.Require(ctx, "carol", RoleManager)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorizedAccount))

	err = e.access.GrantRole(ctx, "carol", "carol", RoleManager)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorizedAccount))

	require.NoError(t, e.access.GrantRole(ctx, testAdmin, "carol", RoleManager))
	require.NoError(t, e.access.Require(ctx, "carol", RoleManager))

	// admin implies manager
	require.NoError(t, e.access.Require(ctx, testAdmin, RoleManager))

	require.NoError(t, e.access.RevokeRole(ctx, testAdmin, "carol", RoleManager))
	err = e.access.Require(ctx, "carol", RoleManager)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorizedAccount))
}

func TestOperationHistory(t *testing.T) {
	e := newTestEngine(t)
	e.seedTierSchedule(t)
	e.fundAccount(t, "alice", 800_000)
	ctx := context.Background()

	require.NoError(t, e.staking.StartStaking(ctx, "alice", amount.FromEDEN(800_000)))
	e.clock.advanceDays(40)
	_, err := e.staking.ClaimReward(ctx, "alice")
	require.NoError(t, err)

	opService := e.staking.operations
	ops, err := opService.History(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	// newest first
	assert.Equal(t, "staking_claim", ops[0].Code)
	assert.Equal(t, "staking_start", ops[1].Code)
}
