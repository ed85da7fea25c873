// Package apperrors defines the failure taxonomy of the distribution
// engine. Every domain failure is a *goerrors.Error whose TextCode names
// the exact cause and whose metadata carries the offending account, pool
// or index, so callers (and tests) can assert on it.
package apperrors

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes, grouped by the taxonomy category they map to.
const (
	// validation
	CodeAmountMustBeGreaterThanZero = "AmountMustBeGreaterThanZero"
	CodeBasicStakingInvalidAmount   = "BasicStakingInvalidAmount"
	CodeMerkleTreeValidationFailed  = "MerkleTreeValidationFailed"
	CodeBasicStakingStillGoingOn    = "BasicStakingStillGoingOn"

	// state
	CodeStakingAlreadyStarted          = "StakingAlreadyStarted"
	CodeStakingNotStarted              = "StakingNotStarted"
	CodeNoReward                       = "NoReward"
	CodeRestakeIsNotActive             = "RestakeIsNotActive"
	CodeRestakeIntervalNotPassed       = "RestakeIntervalNotPassed"
	CodeAddFundsIsNotActive            = "AddFundsIsNotActive"
	CodeRequestUnstakeReportedEarlier  = "RequestUnstakeReportedEarlier"
	CodeRequestUnstakeIsNotReported    = "RequestUnstakeIsNotReported"
	CodeRequestUnstakePeriodNotExpired = "RequestUnstakePeriodNotExpired"
	CodeBasicStakingAlreadySet         = "BasicStakingAlreadySet"
	CodeBasicStakingMaxAmountExceeded  = "BasicStakingMaxStakingAmountExceeded"
	CodeAlreadyClaimed                 = "AlreadyClaimed"
	CodeWalletAlreadyExists            = "WalletAlreadyExists"
	CodeWalletNotSet                   = "WalletNotSet"
	CodeCannotRemoveWallet             = "CannotRemoveWalletFromVestingPool"
	CodeCliffNotSetYet                 = "CliffNotSetYet"
	CodeCliffAlreadyStarted            = "VestingCliffAlreadyStarted"
	CodeNoRewardToRelease              = "NoRewardToRelease"
	CodeEnforcedPause                  = "EnforcedPause"
	CodeExpectedPause                  = "ExpectedPause"
	CodeMerkleTreeNotSet               = "MerkleTreeNotSet"

	// configuration
	CodeBasicStakingConfigDoesNotExist = "BasicStakingConfigDoesNotExists"
	CodeBasicStakingDoesNotExist       = "BasicStakingDoesNotExists"
	CodePeriodIndexDoesNotExist        = "PeriodIndexDoesNotExists"
	CodePoolIndexDoesNotExist          = "PoolIndexDoesNotExists"
	CodeInputArrayMismatchLength       = "InputArrayMismatchLength"

	// authorization
	CodeUnauthorizedAccount = "UnauthorizedAccount"

	// funding
	CodeInsufficientBalance   = "InsufficientBalance"
	CodeInsufficientAllowance = "InsufficientAllowance"
)

func validation(code, msg string, meta map[string]any) error {
	return goerrors.New(msg, goerrors.CategoryValidation).
		WithTextCode(code).
		WithMetadata(meta)
}

func state(code, msg string, meta map[string]any) error {
	return goerrors.New(msg, goerrors.CategoryConflict).
		WithTextCode(code).
		WithMetadata(meta)
}

func configuration(code, msg string, meta map[string]any) error {
	return goerrors.New(msg, goerrors.CategoryNotFound).
		WithTextCode(code).
		WithMetadata(meta)
}

func funding(code, msg string, meta map[string]any) error {
	return goerrors.New(msg, goerrors.CategoryOperation).
		WithTextCode(code).
		WithMetadata(meta)
}

// Code extracts the text code of a taxonomy error; empty for foreign errors.
func Code(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return ""
	}
	return rich.TextCode
}

// Is reports whether err carries the given text code.
func Is(err error, code string) bool {
	return Code(err) == code
}

func AmountMustBeGreaterThanZero(account string) error {
	return validation(CodeAmountMustBeGreaterThanZero, "amount must be greater than zero",
		map[string]any{"account": account})
}

func StakingAlreadyStarted(account string) error {
	return state(CodeStakingAlreadyStarted, fmt.Sprintf("staking already started for %s", account),
		map[string]any{"account": account})
}

func StakingNotStarted(account string) error {
	return state(CodeStakingNotStarted, fmt.Sprintf("staking not started for %s", account),
		map[string]any{"account": account})
}

func NoReward(account string) error {
	return state(CodeNoReward, fmt.Sprintf("no reward accrued for %s", account),
		map[string]any{"account": account})
}

func RestakeIsNotActive() error {
	return state(CodeRestakeIsNotActive, "restake feature is not active", nil)
}

func RestakeIntervalNotPassed(account string) error {
	return state(CodeRestakeIntervalNotPassed, fmt.Sprintf("restake interval not passed for %s", account),
		map[string]any{"account": account})
}

func AddFundsIsNotActive() error {
	return state(CodeAddFundsIsNotActive, "add funds feature is not active", nil)
}

func RequestUnstakeReportedEarlier(account string) error {
	return state(CodeRequestUnstakeReportedEarlier, fmt.Sprintf("unstake already requested by %s", account),
		map[string]any{"account": account})
}

func RequestUnstakeIsNotReported(account string) error {
	return state(CodeRequestUnstakeIsNotReported, fmt.Sprintf("unstake not requested by %s", account),
		map[string]any{"account": account})
}

func RequestUnstakePeriodNotExpired(account string) error {
	return state(CodeRequestUnstakePeriodNotExpired, fmt.Sprintf("unstake cooldown not expired for %s", account),
		map[string]any{"account": account})
}

func BasicStakingInvalidAmount(account string, configId int64, amt int64) error {
	return validation(CodeBasicStakingInvalidAmount, "stake amount out of bounds",
		map[string]any{"account": account, "config_id": configId, "amount": amt})
}

func BasicStakingConfigDoesNotExist(configId int64) error {
	return configuration(CodeBasicStakingConfigDoesNotExist, fmt.Sprintf("basic staking config %d does not exist", configId),
		map[string]any{"config_id": configId})
}

func BasicStakingDoesNotExist(configId int64, account string) error {
	return configuration(CodeBasicStakingDoesNotExist, fmt.Sprintf("no basic stake in config %d for %s", configId, account),
		map[string]any{"config_id": configId, "account": account})
}

func BasicStakingAlreadySet(configId int64, account string) error {
	return state(CodeBasicStakingAlreadySet, fmt.Sprintf("basic stake already set in config %d for %s", configId, account),
		map[string]any{"config_id": configId, "account": account})
}

func BasicStakingMaxAmountExceeded(configId int64) error {
	return state(CodeBasicStakingMaxAmountExceeded, fmt.Sprintf("basic staking capacity exceeded for config %d", configId),
		map[string]any{"config_id": configId})
}

func BasicStakingStillGoingOn(configId int64, account string) error {
	return validation(CodeBasicStakingStillGoingOn, fmt.Sprintf("basic stake in config %d for %s has not matured", configId, account),
		map[string]any{"config_id": configId, "account": account})
}

func PeriodIndexDoesNotExist(index int) error {
	return configuration(CodePeriodIndexDoesNotExist, fmt.Sprintf("staking period %d does not exist", index),
		map[string]any{"index": index})
}

func InputArrayMismatchLength() error {
	return configuration(CodeInputArrayMismatchLength, "input arrays have mismatched lengths", nil)
}

func PoolIndexDoesNotExist(poolId int64) error {
	return configuration(CodePoolIndexDoesNotExist, fmt.Sprintf("vesting pool %d does not exist", poolId),
		map[string]any{"pool_id": poolId})
}

func MerkleTreeNotSet() error {
	return state(CodeMerkleTreeNotSet, "commitment root is not configured", nil)
}

func MerkleTreeValidationFailed(account string, poolId int64) error {
	return validation(CodeMerkleTreeValidationFailed, fmt.Sprintf("admission proof invalid for %s in pool %d", account, poolId),
		map[string]any{"account": account, "pool_id": poolId})
}

func AlreadyClaimed(account string, poolId int64) error {
	return state(CodeAlreadyClaimed, fmt.Sprintf("allocation already claimed by %s in pool %d", account, poolId),
		map[string]any{"account": account, "pool_id": poolId})
}

func WalletAlreadyExists(account string, poolId int64) error {
	return state(CodeWalletAlreadyExists, fmt.Sprintf("wallet %s already exists in pool %d", account, poolId),
		map[string]any{"account": account, "pool_id": poolId})
}

func WalletNotSet(account string, poolId int64) error {
	return state(CodeWalletNotSet, fmt.Sprintf("wallet %s is not set in pool %d", account, poolId),
		map[string]any{"account": account, "pool_id": poolId})
}

func CannotRemoveWallet(account string, poolId int64) error {
	return state(CodeCannotRemoveWallet, fmt.Sprintf("wallet %s in pool %d already released tokens", account, poolId),
		map[string]any{"account": account, "pool_id": poolId})
}

func CliffNotSetYet() error {
	return state(CodeCliffNotSetYet, "vesting cliff epoch is not set yet", nil)
}

func CliffAlreadyStarted() error {
	return state(CodeCliffAlreadyStarted, "vesting cliff epoch was already started", nil)
}

func NoRewardToRelease(account string) error {
	return state(CodeNoRewardToRelease, fmt.Sprintf("nothing to release for %s", account),
		map[string]any{"account": account})
}

func EnforcedPause() error {
	return state(CodeEnforcedPause, "operation unavailable while paused", nil)
}

func ExpectedPause() error {
	return state(CodeExpectedPause, "operation requires the paused state", nil)
}

func UnauthorizedAccount(account, role string) error {
	return goerrors.New(fmt.Sprintf("account %s is missing role %s", account, role), goerrors.CategoryAuthz).
		WithTextCode(CodeUnauthorizedAccount).
		WithMetadata(map[string]any{"account": account, "role": role})
}

func InsufficientBalance(account string) error {
	return funding(CodeInsufficientBalance, fmt.Sprintf("insufficient balance for %s", account),
		map[string]any{"account": account})
}

func InsufficientAllowance(owner, spender string) error {
	return funding(CodeInsufficientAllowance, fmt.Sprintf("insufficient allowance from %s to %s", owner, spender),
		map[string]any{"owner": owner, "spender": spender})
}
