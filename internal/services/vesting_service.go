package services

import (
	"context"
	"fmt"
	"time"

	"edenapp/internal/amount"
	"edenapp/internal/apperrors"
	"edenapp/internal/merkle"
	"edenapp/internal/models"
	"edenapp/internal/repositories"
	"edenapp/internal/util"

	"github.com/jmoiron/sqlx"
)

// VestingService holds the merkle-gated allocation registry and the
// cliff-then-linear release scheduler. It is deployed paused with no
// commitment root; the cliff epoch is a one-shot global switch.
type VestingService struct {
	db            *sqlx.DB
	vestingRepo   *repositories.VestingRepository
	tokenService  *TokenService
	accessService *AccessService
	operations    *OperationService
	vault         string
	now           func() time.Time
}

func NewVestingService(
	db *sqlx.DB,
	vestingRepo *repositories.VestingRepository,
	tokenService *TokenService,
	accessService *AccessService,
	operations *OperationService,
	vault string) *VestingService {
	return &VestingService{
		db:            db,
		vestingRepo:   vestingRepo,
		tokenService:  tokenService,
		accessService: accessService,
		operations:    operations,
		vault:         vault,
		now:           time.Now,
	}
}

func (s *VestingService) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

func (s *VestingService) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *VestingService) setPaused(ctx context.Context, caller string, paused bool) error {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return err
	}
	state.Paused = paused
	if err := s.vestingRepo.UpdateState(ctx, tx, state); err != nil {
		return err
	}
	return tx.Commit()
}

// SetMerkleRoot rotates the commitment root. Rotation is only allowed in
// the paused state so claims never race a root swap.
func (s *VestingService) SetMerkleRoot(ctx context.Context, caller string, root merkle.Hash) error {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return err
	}
	if !state.Paused {
		return apperrors.ExpectedPause()
	}
	state.MerkleRoot = root.String()
	if err := s.vestingRepo.UpdateState(ctx, tx, state); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_MERKLE_ROOT,
		fmt.Sprintf("Root set to %s", root.String())); err != nil {
		return err
	}
	return tx.Commit()
}

// Claim admits a batch of (pool, amount) allocations for one account. Each
// tuple is proven against the commitment root, split into the immediate TGE
// share and the vested remainder, and marked claimed. The whole batch is
// one transaction with a single aggregated payout.
func (s *VestingService) Claim(ctx context.Context, account string, proofs [][]merkle.Hash, poolIds []int64, amounts []amount.Amount) (amount.Amount, error) {
	if len(proofs) != len(poolIds) || len(poolIds) != len(amounts) {
		return 0, apperrors.InputArrayMismatchLength()
	}
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return 0, err
	}
	if state.Paused {
		return 0, apperrors.EnforcedPause()
	}
	if state.MerkleRoot == "" {
		return 0, apperrors.MerkleTreeNotSet()
	}
	root, err := merkle.HashFromString(state.MerkleRoot)
	if err != nil {
		return 0, err
	}

	var tgeTotal amount.Amount
	for i, poolId := range poolIds {
		amt := amounts[i]
		leaf := merkle.Leaf(account, poolId, amt.ToNano())
		if !merkle.VerifyProof(root, leaf, proofs[i]) {
			return 0, apperrors.MerkleTreeValidationFailed(account, poolId)
		}
		pool, err := s.vestingRepo.GetPool(ctx, tx, poolId)
		if err != nil {
			return 0, err
		}
		if pool == nil {
			return 0, apperrors.PoolIndexDoesNotExist(poolId)
		}
		claimed, err := s.vestingRepo.HasClaim(ctx, tx, poolId, account)
		if err != nil {
			return 0, err
		}
		if claimed {
			return 0, apperrors.AlreadyClaimed(account, poolId)
		}

		tge := util.MulBps(amt, pool.TgeBps)
		remainder := amt - tge
		tgeTotal += tge

		if err := s.vestingRepo.InsertClaim(ctx, tx, &models.VestingClaim{
			PoolId:  poolId,
			Account: account,
		}); err != nil {
			return 0, err
		}
		wallet, err := s.vestingRepo.GetWallet(ctx, tx, poolId, account)
		if err != nil {
			return 0, err
		}
		if wallet == nil {
			if err := s.vestingRepo.InsertWallet(ctx, tx, &models.VestingWallet{
				PoolId:  poolId,
				Account: account,
				Amount:  remainder,
			}); err != nil {
				return 0, err
			}
		} else {
			wallet.Amount += remainder
			if err := s.vestingRepo.UpdateWallet(ctx, tx, wallet); err != nil {
				return 0, err
			}
		}
	}

	if tgeTotal > 0 {
		if err := s.tokenService.Transfer(ctx, tx, s.vault, account, tgeTotal); err != nil {
			return 0, err
		}
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_VESTING_CLAIM,
		fmt.Sprintf("Claimed %d pools at %d, immediate %s", len(poolIds), nowUnix, tgeTotal.String())); err != nil {
		return 0, err
	}
	return tgeTotal, tx.Commit()
}

func stampPool(p *models.VestingPool, epoch int64) {
	p.CliffStart = epoch
	p.CliffEnd = epoch + p.CliffDays*util.SecsPerDay
	p.VestingEnd = p.CliffEnd + p.VestingDays*util.SecsPerDay
}

// AddPools creates vesting pools; ids are assigned sequentially from 1.
// Pools created after the cliff epoch was started are stamped from the
// same epoch on insert.
func (s *VestingService) AddPools(ctx context.Context, caller string, cliffDays, vestingDays, tgeBps []int64) ([]int64, error) {
	if len(cliffDays) != len(vestingDays) || len(vestingDays) != len(tgeBps) {
		return nil, apperrors.InputArrayMismatchLength()
	}
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(cliffDays))
	for i := range cliffDays {
		pool := &models.VestingPool{
			CliffDays:   cliffDays[i],
			VestingDays: vestingDays[i],
			TgeBps:      tgeBps[i],
			Active:      true,
		}
		if state.CliffStart != 0 {
			stampPool(pool, state.CliffStart)
		}
		id, err := s.vestingRepo.InsertPool(ctx, tx, pool)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_VESTING_POOL,
		fmt.Sprintf("Added %d pools", len(ids))); err != nil {
		return nil, err
	}
	return ids, tx.Commit()
}

func (s *VestingService) UpdatePools(ctx context.Context, caller string, ids []int64, cliffDays, vestingDays, tgeBps []int64) error {
	if len(ids) != len(cliffDays) || len(cliffDays) != len(vestingDays) || len(vestingDays) != len(tgeBps) {
		return apperrors.InputArrayMismatchLength()
	}
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return err
	}
	for i, id := range ids {
		pool, err := s.vestingRepo.GetPool(ctx, tx, id)
		if err != nil {
			return err
		}
		if pool == nil {
			return apperrors.PoolIndexDoesNotExist(id)
		}
		pool.CliffDays = cliffDays[i]
		pool.VestingDays = vestingDays[i]
		pool.TgeBps = tgeBps[i]
		if state.CliffStart != 0 {
			stampPool(pool, state.CliffStart)
		}
		if err := s.vestingRepo.UpdatePool(ctx, tx, pool); err != nil {
			return err
		}
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_VESTING_POOL,
		fmt.Sprintf("Updated %d pools", len(ids))); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *VestingService) AddVestingPoolWallet(ctx context.Context, caller string, poolId int64, account string, amt amount.Amount) error {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pool, err := s.vestingRepo.GetPool(ctx, tx, poolId)
	if err != nil {
		return err
	}
	if pool == nil {
		return apperrors.PoolIndexDoesNotExist(poolId)
	}
	existing, err := s.vestingRepo.GetWallet(ctx, tx, poolId, account)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.WalletAlreadyExists(account, poolId)
	}
	if err := s.vestingRepo.InsertWallet(ctx, tx, &models.VestingWallet{
		PoolId:  poolId,
		Account: account,
		Amount:  amt,
	}); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_VESTING_WALLET,
		fmt.Sprintf("Added wallet %s to pool %d with %s", account, poolId, amt.String())); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveVestingPoolWallet drops an allocation that has not released
// anything yet. The claim marker survives, so the removal cannot be used
// to reopen a claimed allocation.
func (s *VestingService) RemoveVestingPoolWallet(ctx context.Context, caller string, poolId int64, account string) error {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wallet, err := s.vestingRepo.GetWallet(ctx, tx, poolId, account)
	if err != nil {
		return err
	}
	if wallet == nil {
		return apperrors.WalletNotSet(account, poolId)
	}
	if wallet.Released > 0 {
		return apperrors.CannotRemoveWallet(account, poolId)
	}
	if err := s.vestingRepo.DeleteWallet(ctx, tx, poolId, account); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_VESTING_WALLET,
		fmt.Sprintf("Removed wallet %s from pool %d", account, poolId)); err != nil {
		return err
	}
	return tx.Commit()
}

// SetCliffStart starts the global release clock exactly once, stamping the
// state row and every existing pool from the same epoch.
func (s *VestingService) SetCliffStart(ctx context.Context, caller string) (int64, error) {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return 0, err
	}
	epoch := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return 0, err
	}
	if state.CliffStart != 0 {
		return 0, apperrors.CliffAlreadyStarted()
	}
	state.CliffStart = epoch
	if err := s.vestingRepo.UpdateState(ctx, tx, state); err != nil {
		return 0, err
	}
	pools, err := s.vestingRepo.GetPools(ctx, tx)
	if err != nil {
		return 0, err
	}
	for i := range pools {
		stampPool(&pools[i], epoch)
		if err := s.vestingRepo.UpdatePool(ctx, tx, &pools[i]); err != nil {
			return 0, err
		}
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_CLIFF_START,
		fmt.Sprintf("Cliff epoch %d", epoch)); err != nil {
		return 0, err
	}
	return epoch, tx.Commit()
}

// VestingSchedule returns the cumulative vested amount of the wallet's
// allocation at the given time. Non-decreasing in time.
func (s *VestingService) VestingSchedule(ctx context.Context, account string, poolId int64, at time.Time) (amount.Amount, error) {
	state, err := s.vestingRepo.GetState(ctx, s.db)
	if err != nil {
		return 0, err
	}
	if state.CliffStart == 0 {
		return 0, apperrors.CliffNotSetYet()
	}
	pool, err := s.vestingRepo.GetPool(ctx, s.db, poolId)
	if err != nil {
		return 0, err
	}
	if pool == nil {
		return 0, apperrors.PoolIndexDoesNotExist(poolId)
	}
	wallet, err := s.vestingRepo.GetWallet(ctx, s.db, poolId, account)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, apperrors.WalletNotSet(account, poolId)
	}
	return util.VestedAt(wallet.Amount, pool.CliffEnd, pool.VestingEnd, at.Unix()), nil
}

// Releasable previews what Release would pay right now. It fails before
// the cliff epoch even for accounts with no allocation in the pool. A
// Release that follows re-reads the clock, so it can pay slightly more.
func (s *VestingService) Releasable(ctx context.Context, account string, poolId int64) (amount.Amount, error) {
	state, err := s.vestingRepo.GetState(ctx, s.db)
	if err != nil {
		return 0, err
	}
	if state.CliffStart == 0 {
		return 0, apperrors.CliffNotSetYet()
	}
	return s.releasable(ctx, s.db, account, poolId, s.now().Unix())
}

func (s *VestingService) releasable(ctx context.Context, q sqlx.ExtContext, account string, poolId int64, at int64) (amount.Amount, error) {
	pool, err := s.vestingRepo.GetPool(ctx, q, poolId)
	if err != nil {
		return 0, err
	}
	if pool == nil {
		return 0, apperrors.PoolIndexDoesNotExist(poolId)
	}
	wallet, err := s.vestingRepo.GetWallet(ctx, q, poolId, account)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, apperrors.WalletNotSet(account, poolId)
	}
	vested := util.VestedAt(wallet.Amount, pool.CliffEnd, pool.VestingEnd, at)
	return vested - wallet.Released, nil
}

// ReleasableAll previews ReleaseAll. Accounts with no allocations at all
// get an empty result even before the cliff epoch. Allocations pointing at
// retired pools are skipped, same as in ReleaseAll.
func (s *VestingService) ReleasableAll(ctx context.Context, account string) (amount.Amount, error) {
	wallets, err := s.vestingRepo.GetWallets(ctx, s.db, account)
	if err != nil {
		return 0, err
	}
	if len(wallets) == 0 {
		return 0, nil
	}
	state, err := s.vestingRepo.GetState(ctx, s.db)
	if err != nil {
		return 0, err
	}
	if state.CliffStart == 0 {
		return 0, apperrors.CliffNotSetYet()
	}
	at := s.now().Unix()
	var total amount.Amount
	for _, w := range wallets {
		pool, err := s.vestingRepo.GetPool(ctx, s.db, w.PoolId)
		if err != nil {
			return 0, err
		}
		if pool == nil {
			continue
		}
		vested := util.VestedAt(w.Amount, pool.CliffEnd, pool.VestingEnd, at)
		if payout := vested - w.Released; payout > 0 {
			total += payout
		}
	}
	return total, nil
}

// Release pays the vested-but-unreleased part of one allocation.
func (s *VestingService) Release(ctx context.Context, account string, poolId int64) (amount.Amount, error) {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return 0, err
	}
	if state.CliffStart == 0 {
		return 0, apperrors.CliffNotSetYet()
	}
	pool, err := s.vestingRepo.GetPool(ctx, tx, poolId)
	if err != nil {
		return 0, err
	}
	if pool == nil {
		return 0, apperrors.PoolIndexDoesNotExist(poolId)
	}
	wallet, err := s.vestingRepo.GetWallet(ctx, tx, poolId, account)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, apperrors.WalletNotSet(account, poolId)
	}
	vested := util.VestedAt(wallet.Amount, pool.CliffEnd, pool.VestingEnd, nowUnix)
	payout := vested - wallet.Released
	if payout <= 0 {
		return 0, apperrors.NoRewardToRelease(account)
	}

	wallet.Released += payout
	if err := s.vestingRepo.UpdateWallet(ctx, tx, wallet); err != nil {
		return 0, err
	}
	if err := s.tokenService.Transfer(ctx, tx, s.vault, account, payout); err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_VESTING_RELEASE,
		fmt.Sprintf("Released %s from pool %d", payout.String(), poolId)); err != nil {
		return 0, err
	}
	return payout, tx.Commit()
}

// ReleaseAll releases across every allocation of the account in one
// aggregated transfer.
func (s *VestingService) ReleaseAll(ctx context.Context, account string) (amount.Amount, error) {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	state, err := s.vestingRepo.GetState(ctx, tx)
	if err != nil {
		return 0, err
	}
	if state.CliffStart == 0 {
		return 0, apperrors.CliffNotSetYet()
	}
	wallets, err := s.vestingRepo.GetWallets(ctx, tx, account)
	if err != nil {
		return 0, err
	}

	var total amount.Amount
	for i := range wallets {
		wallet := &wallets[i]
		pool, err := s.vestingRepo.GetPool(ctx, tx, wallet.PoolId)
		if err != nil {
			return 0, err
		}
		if pool == nil {
			continue
		}
		vested := util.VestedAt(wallet.Amount, pool.CliffEnd, pool.VestingEnd, nowUnix)
		payout := vested - wallet.Released
		if payout <= 0 {
			continue
		}
		wallet.Released += payout
		if err := s.vestingRepo.UpdateWallet(ctx, tx, wallet); err != nil {
			return 0, err
		}
		total += payout
	}
	if total == 0 {
		return 0, apperrors.NoRewardToRelease(account)
	}
	if err := s.tokenService.Transfer(ctx, tx, s.vault, account, total); err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_VESTING_RELEASE_ALL,
		fmt.Sprintf("Released %s across %d pools", total.String(), len(wallets))); err != nil {
		return 0, err
	}
	return total, tx.Commit()
}

func (s *VestingService) GetPool(ctx context.Context, poolId int64) (*models.VestingPool, error) {
	pool, err := s.vestingRepo.GetPool(ctx, s.db, poolId)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, apperrors.PoolIndexDoesNotExist(poolId)
	}
	return pool, nil
}

func (s *VestingService) GetState(ctx context.Context) (*models.VestingState, error) {
	return s.vestingRepo.GetState(ctx, s.db)
}

// GetWalletPools lists the pool ids the account holds allocations in.
func (s *VestingService) GetWalletPools(ctx context.Context, account string) ([]int64, error) {
	wallets, err := s.vestingRepo.GetWallets(ctx, s.db, account)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.PoolId)
	}
	return ids, nil
}

// VestingAmountRemaining reports principal minus released for one
// allocation. Absent allocations read as zero.
func (s *VestingService) VestingAmountRemaining(ctx context.Context, account string, poolId int64) (amount.Amount, error) {
	wallet, err := s.vestingRepo.GetWallet(ctx, s.db, poolId, account)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Amount - wallet.Released, nil
}

// VestingAmountRemainingAll reports principal minus released per pool the
// account holds allocations in. Usable before the cliff epoch.
func (s *VestingService) VestingAmountRemainingAll(ctx context.Context, account string) ([]int64, []amount.Amount, error) {
	wallets, err := s.vestingRepo.GetWallets(ctx, s.db, account)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, 0, len(wallets))
	remaining := make([]amount.Amount, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.PoolId)
		remaining = append(remaining, w.Amount-w.Released)
	}
	return ids, remaining, nil
}

// ReleasedAmount reports how much of one allocation has been paid out so
// far. Absent pools and allocations read as zero, before and after the
// cliff epoch alike.
func (s *VestingService) ReleasedAmount(ctx context.Context, account string, poolId int64) (amount.Amount, error) {
	wallet, err := s.vestingRepo.GetWallet(ctx, s.db, poolId, account)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Released, nil
}

func (s *VestingService) GetWalletStats(ctx context.Context, account string, poolId int64, at time.Time) (*models.WalletStats, error) {
	state, err := s.vestingRepo.GetState(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if state.CliffStart == 0 {
		return nil, apperrors.CliffNotSetYet()
	}
	return s.walletStats(ctx, account, poolId, at.Unix())
}

func (s *VestingService) walletStats(ctx context.Context, account string, poolId int64, at int64) (*models.WalletStats, error) {
	pool, err := s.vestingRepo.GetPool(ctx, s.db, poolId)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, apperrors.PoolIndexDoesNotExist(poolId)
	}
	wallet, err := s.vestingRepo.GetWallet(ctx, s.db, poolId, account)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperrors.WalletNotSet(account, poolId)
	}
	return &models.WalletStats{
		Principal: wallet.Amount,
		Vested:    util.VestedAt(wallet.Amount, pool.CliffEnd, pool.VestingEnd, at),
		Released:  wallet.Released,
		Remaining: wallet.Amount - wallet.Released,
	}, nil
}

// GetWalletStatsAll returns stats per pool; accounts with no allocations
// get an empty map even before the cliff epoch.
func (s *VestingService) GetWalletStatsAll(ctx context.Context, account string, at time.Time) (map[int64]*models.WalletStats, error) {
	wallets, err := s.vestingRepo.GetWallets(ctx, s.db, account)
	if err != nil {
		return nil, err
	}
	stats := make(map[int64]*models.WalletStats, len(wallets))
	if len(wallets) == 0 {
		return stats, nil
	}
	state, err := s.vestingRepo.GetState(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if state.CliffStart == 0 {
		return nil, apperrors.CliffNotSetYet()
	}
	for _, w := range wallets {
		st, err := s.walletStats(ctx, account, w.PoolId, at.Unix())
		if err != nil {
			return nil, err
		}
		stats[w.PoolId] = st
	}
	return stats, nil
}
