package services

import (
	"context"
	"fmt"
	"time"

	"edenapp/internal/amount"
	"edenapp/internal/apperrors"
	"edenapp/internal/cache"
	"edenapp/internal/models"
	"edenapp/internal/repositories"
	"edenapp/internal/util"

	"github.com/jmoiron/sqlx"
)

const periodsCacheKey = "staking:periods"

// StakingService runs the flexible positions: one continuous stake per
// account earning tiered time-based interest. Claiming restarts the tier
// timer from the first band.
type StakingService struct {
	db            *sqlx.DB
	stakeRepo     *repositories.StakeRepository
	settingsRepo  *repositories.SettingsRepository
	periodRepo    *repositories.PeriodRepository
	tokenService  *TokenService
	accessService *AccessService
	operations    *OperationService
	cache         *cache.Cache
	vault         string
	now           func() time.Time
}

func NewStakingService(
	db *sqlx.DB,
	stakeRepo *repositories.StakeRepository,
	settingsRepo *repositories.SettingsRepository,
	periodRepo *repositories.PeriodRepository,
	tokenService *TokenService,
	accessService *AccessService,
	operations *OperationService,
	c *cache.Cache,
	vault string) *StakingService {
	return &StakingService{
		db:            db,
		stakeRepo:     stakeRepo,
		settingsRepo:  settingsRepo,
		periodRepo:    periodRepo,
		tokenService:  tokenService,
		accessService: accessService,
		operations:    operations,
		cache:         c,
		vault:         vault,
		now:           time.Now,
	}
}

// periods returns the tier schedule, read through the cache.
func (s *StakingService) periods(ctx context.Context) ([]models.StakingPeriod, error) {
	var cached []models.StakingPeriod
	if s.cache.Get(ctx, periodsCacheKey, &cached) {
		return cached, nil
	}
	periods, err := s.periodRepo.GetAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, periodsCacheKey, periods)
	return periods, nil
}

func (s *StakingService) pendingReward(ctx context.Context, stake *models.Stake, at int64) (amount.Amount, error) {
	periods, err := s.periods(ctx)
	if err != nil {
		return 0, err
	}
	days := util.ElapsedDays(stake.LastClaimTime, at)
	return util.CalculateReward(stake.Amount, days, periods), nil
}

func (s *StakingService) activeStake(ctx context.Context, q sqlx.ExtContext, account string) (*models.Stake, error) {
	stake, err := s.stakeRepo.Get(ctx, q, account)
	if err != nil {
		return nil, err
	}
	if stake == nil || !stake.Active {
		return nil, apperrors.StakingNotStarted(account)
	}
	return stake, nil
}

func (s *StakingService) StartStaking(ctx context.Context, account string, amt amount.Amount) error {
	if amt <= 0 {
		return apperrors.AmountMustBeGreaterThanZero(account)
	}
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := s.stakeRepo.Get(ctx, tx, account)
	if err != nil {
		return err
	}
	if existing != nil && existing.Active {
		return apperrors.StakingAlreadyStarted(account)
	}

	stake := &models.Stake{
		Account:         account,
		Amount:          amt,
		StartTime:       nowUnix,
		LastClaimTime:   nowUnix,
		LastRestakeTime: nowUnix,
		Active:          true,
	}
	if err := s.stakeRepo.Insert(ctx, tx, stake); err != nil {
		return err
	}
	if err := s.tokenService.TransferFrom(ctx, tx, account, s.vault, s.vault, amt); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_STAKING_START,
		fmt.Sprintf("Staked %s", amt.String())); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *StakingService) ClaimReward(ctx context.Context, account string) (amount.Amount, error) {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stake, err := s.activeStake(ctx, tx, account)
	if err != nil {
		return 0, err
	}
	reward, err := s.pendingReward(ctx, stake, nowUnix)
	if err != nil {
		return 0, err
	}
	if reward == 0 {
		return 0, apperrors.NoReward(account)
	}

	stake.TotalClaimed += reward
	stake.LastClaimTime = nowUnix
	if err := s.stakeRepo.Update(ctx, tx, stake); err != nil {
		return 0, err
	}
	if err := s.tokenService.Transfer(ctx, tx, s.vault, account, reward); err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_STAKING_CLAIM,
		fmt.Sprintf("Claimed %s", reward.String())); err != nil {
		return 0, err
	}
	return reward, tx.Commit()
}

func (s *StakingService) RestakeReward(ctx context.Context, account string) (amount.Amount, error) {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.Get(ctx, tx)
	if err != nil {
		return 0, err
	}
	if !settings.RestakeEnabled {
		return 0, apperrors.RestakeIsNotActive()
	}
	stake, err := s.activeStake(ctx, tx, account)
	if err != nil {
		return 0, err
	}
	if nowUnix-stake.LastRestakeTime < settings.RestakeIntervalSecs {
		return 0, apperrors.RestakeIntervalNotPassed(account)
	}
	reward, err := s.pendingReward(ctx, stake, nowUnix)
	if err != nil {
		return 0, err
	}
	if reward == 0 {
		return 0, apperrors.NoReward(account)
	}

	stake.Amount += reward
	stake.LastClaimTime = nowUnix
	stake.LastRestakeTime = nowUnix
	if err := s.stakeRepo.Update(ctx, tx, stake); err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_STAKING_RESTAKE,
		fmt.Sprintf("Restaked %s", reward.String())); err != nil {
		return 0, err
	}
	return reward, tx.Commit()
}

// AddFunds folds the pending reward together with the new amount into the
// principal and restarts both timers. A pending unstake request is cleared.
func (s *StakingService) AddFunds(ctx context.Context, account string, amt amount.Amount) error {
	if amt <= 0 {
		return apperrors.AmountMustBeGreaterThanZero(account)
	}
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.Get(ctx, tx)
	if err != nil {
		return err
	}
	if !settings.AddFundsEnabled {
		return apperrors.AddFundsIsNotActive()
	}
	stake, err := s.activeStake(ctx, tx, account)
	if err != nil {
		return err
	}
	reward, err := s.pendingReward(ctx, stake, nowUnix)
	if err != nil {
		return err
	}

	stake.Amount += reward + amt
	stake.LastClaimTime = nowUnix
	stake.LastRestakeTime = nowUnix
	stake.UnstakeRequestedAt = 0
	if err := s.stakeRepo.Update(ctx, tx, stake); err != nil {
		return err
	}
	if err := s.tokenService.TransferFrom(ctx, tx, account, s.vault, s.vault, amt); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_STAKING_ADD_FUNDS,
		fmt.Sprintf("Added %s, compounded %s", amt.String(), reward.String())); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *StakingService) RequestUnstake(ctx context.Context, account string) error {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stake, err := s.activeStake(ctx, tx, account)
	if err != nil {
		return err
	}
	if stake.UnstakeRequestedAt != 0 {
		return apperrors.RequestUnstakeReportedEarlier(account)
	}

	stake.UnstakeRequestedAt = nowUnix
	if err := s.stakeRepo.Update(ctx, tx, stake); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_STAKING_REQ_UNSTAKE,
		"Requested unstake"); err != nil {
		return err
	}
	return tx.Commit()
}

// Unstake pays principal plus any pending reward in a single transfer and
// zeroes the position. It requires a cooled-down unstake request.
func (s *StakingService) Unstake(ctx context.Context, account string) (amount.Amount, error) {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.Get(ctx, tx)
	if err != nil {
		return 0, err
	}
	stake, err := s.activeStake(ctx, tx, account)
	if err != nil {
		return 0, err
	}
	if stake.UnstakeRequestedAt == 0 {
		return 0, apperrors.RequestUnstakeIsNotReported(account)
	}
	if nowUnix-stake.UnstakeRequestedAt < settings.UnstakeCooldownSecs {
		return 0, apperrors.RequestUnstakePeriodNotExpired(account)
	}
	reward, err := s.pendingReward(ctx, stake, nowUnix)
	if err != nil {
		return 0, err
	}
	payout := stake.Amount + reward

	stake.Amount = 0
	stake.TotalClaimed += reward
	stake.LastClaimTime = nowUnix
	stake.UnstakeRequestedAt = 0
	stake.Active = false
	if err := s.stakeRepo.Update(ctx, tx, stake); err != nil {
		return 0, err
	}
	if err := s.tokenService.Transfer(ctx, tx, s.vault, account, payout); err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_STAKING_UNSTAKE,
		fmt.Sprintf("Unstaked %s", payout.String())); err != nil {
		return 0, err
	}
	return payout, tx.Commit()
}

// CalculateStakerReward previews the reward accrued since the last claim.
// A mutating call that follows re-reads the clock, so its amount can exceed
// the preview.
func (s *StakingService) CalculateStakerReward(ctx context.Context, account string) (amount.Amount, error) {
	stake, err := s.activeStake(ctx, s.db, account)
	if err != nil {
		return 0, err
	}
	return s.pendingReward(ctx, stake, s.now().Unix())
}

func (s *StakingService) GetStake(ctx context.Context, account string) (*models.Stake, error) {
	return s.stakeRepo.Get(ctx, s.db, account)
}

func (s *StakingService) GetPeriods(ctx context.Context) ([]models.StakingPeriod, error) {
	return s.periods(ctx)
}

func (s *StakingService) SetRestakeStatus(ctx context.Context, caller string, enabled bool) error {
	return s.updateSettings(ctx, caller, fmt.Sprintf("Restake enabled: %t", enabled),
		func(settings *models.StakingSettings) {
			settings.RestakeEnabled = enabled
		})
}

func (s *StakingService) SetRestakeInterval(ctx context.Context, caller string, interval time.Duration) error {
	return s.updateSettings(ctx, caller, fmt.Sprintf("Restake interval: %s", interval),
		func(settings *models.StakingSettings) {
			settings.RestakeIntervalSecs = int64(interval.Seconds())
		})
}

func (s *StakingService) SetAddFundsStatus(ctx context.Context, caller string, enabled bool) error {
	return s.updateSettings(ctx, caller, fmt.Sprintf("Add funds enabled: %t", enabled),
		func(settings *models.StakingSettings) {
			settings.AddFundsEnabled = enabled
		})
}

func (s *StakingService) updateSettings(ctx context.Context, caller, description string, apply func(*models.StakingSettings)) error {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.Get(ctx, tx)
	if err != nil {
		return err
	}
	apply(settings)
	if err := s.settingsRepo.Update(ctx, tx, settings); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_SETTINGS, description); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *StakingService) UpdatePeriod(ctx context.Context, caller string, index int, days, rateBps int64) error {
	if err := s.accessService.Require(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := s.periodRepo.Get(ctx, tx, index)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.PeriodIndexDoesNotExist(index)
	}
	existing.DurationDays = days
	existing.RateBps = rateBps
	if err := s.periodRepo.Update(ctx, tx, existing); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_PERIOD_CONFIG,
		fmt.Sprintf("Period %d: %d days at %d bps", index, days, rateBps)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.cache.Del(ctx, periodsCacheKey)
	return nil
}

func (s *StakingService) AddPeriod(ctx context.Context, caller string, days, rateBps int64) error {
	if err := s.accessService.Require(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	position, err := s.periodRepo.Count(ctx, tx)
	if err != nil {
		return err
	}
	period := &models.StakingPeriod{Position: position, DurationDays: days, RateBps: rateBps}
	if err := s.periodRepo.Insert(ctx, tx, period); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_PERIOD_CONFIG,
		fmt.Sprintf("Added period %d: %d days at %d bps", position, days, rateBps)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.cache.Del(ctx, periodsCacheKey)
	return nil
}
