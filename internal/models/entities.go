package models

import (
	"time"

	"edenapp/internal/amount"
)

type Balance struct {
	Account string        `db:"account" json:"account"`
	Amount  amount.Amount `db:"amount" json:"amount"`
}

type Allowance struct {
	Owner   string        `db:"owner" json:"owner"`
	Spender string        `db:"spender" json:"spender"`
	Amount  amount.Amount `db:"amount" json:"amount"`
}

type Role struct {
	Account string `db:"account" json:"account"`
	Role    string `db:"role" json:"role"`
}

// StakingSettings is the single tunables row shared by both staking
// subsystems. Feature flags default to off.
type StakingSettings struct {
	Id                  int           `db:"id" json:"id"`
	BasicMinAmount      amount.Amount `db:"basic_min_amount" json:"basic_min_amount"`
	BasicMaxAmount      amount.Amount `db:"basic_max_amount" json:"basic_max_amount"`
	UnstakeCooldownSecs int64         `db:"unstake_cooldown_secs" json:"unstake_cooldown_secs"`
	RestakeIntervalSecs int64         `db:"restake_interval_secs" json:"restake_interval_secs"`
	RestakeEnabled      bool          `db:"restake_enabled" json:"restake_enabled"`
	AddFundsEnabled     bool          `db:"add_funds_enabled" json:"add_funds_enabled"`
}

// StakingPeriod is one band of the tier schedule: DurationDays at RateBps
// annual. The last band's rate extends indefinitely past the schedule.
type StakingPeriod struct {
	Position     int   `db:"position" json:"position"`
	DurationDays int64 `db:"duration_days" json:"duration_days"`
	RateBps      int64 `db:"rate_bps" json:"rate_bps"`
}

// Stake is the single continuous flexible position of an account.
// Timestamps are unix seconds; zero means unset.
type Stake struct {
	Account            string        `db:"account" json:"account"`
	Amount             amount.Amount `db:"amount" json:"amount"`
	StartTime          int64         `db:"start_time" json:"start_time"`
	TotalClaimed       amount.Amount `db:"total_claimed" json:"total_claimed"`
	LastClaimTime      int64         `db:"last_claim_time" json:"last_claim_time"`
	LastRestakeTime    int64         `db:"last_restake_time" json:"last_restake_time"`
	UnstakeRequestedAt int64         `db:"unstake_requested_at" json:"unstake_requested_at"`
	Active             bool          `db:"active" json:"active"`
}

type BasicStakingConfig struct {
	Id           int64         `db:"id" json:"id"`
	DurationDays int64         `db:"duration_days" json:"duration_days"`
	RateBps      int64         `db:"rate_bps" json:"rate_bps"`
	MaxTotal     amount.Amount `db:"max_total" json:"max_total"`
	TotalStaked  amount.Amount `db:"total_staked" json:"total_staked"`
}

type BasicStake struct {
	ConfigId  int64         `db:"config_id" json:"config_id"`
	Account   string        `db:"account" json:"account"`
	Amount    amount.Amount `db:"amount" json:"amount"`
	StartTime int64         `db:"start_time" json:"start_time"`
	Active    bool          `db:"active" json:"active"`
}

// VestingState is the process-wide vesting row: commitment root, pause
// flag and the global cliff epoch (0 until triggered).
type VestingState struct {
	Id         int    `db:"id" json:"id"`
	MerkleRoot string `db:"merkle_root" json:"merkle_root"`
	Paused     bool   `db:"paused" json:"paused"`
	CliffStart int64  `db:"cliff_start" json:"cliff_start"`
}

type VestingPool struct {
	Id          int64 `db:"id" json:"id"`
	CliffDays   int64 `db:"cliff_days" json:"cliff_days"`
	VestingDays int64 `db:"vesting_days" json:"vesting_days"`
	TgeBps      int64 `db:"tge_bps" json:"tge_bps"`
	CliffStart  int64 `db:"cliff_start" json:"cliff_start"`
	CliffEnd    int64 `db:"cliff_end" json:"cliff_end"`
	VestingEnd  int64 `db:"vesting_end" json:"vesting_end"`
	Active      bool  `db:"active" json:"active"`
}

// VestingWallet holds the post-TGE vested principal of one wallet in one
// pool. Amount never changes after creation; Released only grows.
type VestingWallet struct {
	PoolId   int64         `db:"pool_id" json:"pool_id"`
	Account  string        `db:"account" json:"account"`
	Amount   amount.Amount `db:"amount" json:"amount"`
	Released amount.Amount `db:"released" json:"released"`
}

// VestingClaim is the one-time claim marker of a (pool, wallet) pair. Rows
// are never deleted, so removing a wallet does not reopen its allocation.
type VestingClaim struct {
	PoolId  int64  `db:"pool_id" json:"pool_id"`
	Account string `db:"account" json:"account"`
}

// WalletStats is the aggregate view of one (wallet, pool) allocation at a
// point in time.
type WalletStats struct {
	Principal amount.Amount `json:"principal"`
	Vested    amount.Amount `json:"vested"`
	Released  amount.Amount `json:"released"`
	Remaining amount.Amount `json:"remaining"`
}

type Operation struct {
	Id          string    `db:"id" json:"id"`
	Account     string    `db:"account" json:"account"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
