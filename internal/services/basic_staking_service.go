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

const basicConfigsCacheKey = "staking:basic_configs"

// BasicStakingService runs the fixed-term pools: lock a bounded amount for
// a fixed duration, collect a flat percentage on maturity.
type BasicStakingService struct {
	db            *sqlx.DB
	basicRepo     *repositories.BasicStakingRepository
	settingsRepo  *repositories.SettingsRepository
	tokenService  *TokenService
	accessService *AccessService
	operations    *OperationService
	cache         *cache.Cache
	vault         string
	now           func() time.Time
}

func NewBasicStakingService(
	db *sqlx.DB,
	basicRepo *repositories.BasicStakingRepository,
	settingsRepo *repositories.SettingsRepository,
	tokenService *TokenService,
	accessService *AccessService,
	operations *OperationService,
	c *cache.Cache,
	vault string) *BasicStakingService {
	return &BasicStakingService{
		db:            db,
		basicRepo:     basicRepo,
		settingsRepo:  settingsRepo,
		tokenService:  tokenService,
		accessService: accessService,
		operations:    operations,
		cache:         c,
		vault:         vault,
		now:           time.Now,
	}
}

func (s *BasicStakingService) Stake(ctx context.Context, account string, configId int64, amt amount.Amount) error {
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
	if amt < settings.BasicMinAmount || amt > settings.BasicMaxAmount {
		return apperrors.BasicStakingInvalidAmount(account, configId, amt.ToNano())
	}
	cfg, err := s.basicRepo.GetConfig(ctx, tx, configId)
	if err != nil {
		return err
	}
	if cfg == nil {
		return apperrors.BasicStakingConfigDoesNotExist(configId)
	}
	existing, err := s.basicRepo.GetStake(ctx, tx, configId, account)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.BasicStakingAlreadySet(configId, account)
	}
	if cfg.TotalStaked+amt > cfg.MaxTotal {
		return apperrors.BasicStakingMaxAmountExceeded(configId)
	}

	cfg.TotalStaked += amt
	if err := s.basicRepo.UpdateConfig(ctx, tx, cfg); err != nil {
		return err
	}
	if err := s.basicRepo.InsertStake(ctx, tx, &models.BasicStake{
		ConfigId:  configId,
		Account:   account,
		Amount:    amt,
		StartTime: nowUnix,
		Active:    true,
	}); err != nil {
		return err
	}
	if err := s.tokenService.TransferFrom(ctx, tx, account, s.vault, s.vault, amt); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_BASIC_STAKE,
		fmt.Sprintf("Staked %s in pool %d", amt.String(), configId)); err != nil {
		return err
	}
	return tx.Commit()
}

// ClaimAndUnstake pays principal plus the flat reward in a single transfer
// once the pool duration has fully elapsed.
func (s *BasicStakingService) ClaimAndUnstake(ctx context.Context, account string, configId int64) (amount.Amount, error) {
	nowUnix := s.now().Unix()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cfg, err := s.basicRepo.GetConfig(ctx, tx, configId)
	if err != nil {
		return 0, err
	}
	if cfg == nil {
		return 0, apperrors.BasicStakingConfigDoesNotExist(configId)
	}
	stake, err := s.basicRepo.GetStake(ctx, tx, configId, account)
	if err != nil {
		return 0, err
	}
	if stake == nil {
		return 0, apperrors.BasicStakingDoesNotExist(configId, account)
	}
	if util.ElapsedDays(stake.StartTime, nowUnix) < cfg.DurationDays {
		return 0, apperrors.BasicStakingStillGoingOn(configId, account)
	}

	payout := stake.Amount + util.BasicReward(stake.Amount, cfg.RateBps)

	cfg.TotalStaked -= stake.Amount
	if err := s.basicRepo.UpdateConfig(ctx, tx, cfg); err != nil {
		return 0, err
	}
	if err := s.basicRepo.DeactivateStake(ctx, tx, configId, account); err != nil {
		return 0, err
	}
	if err := s.tokenService.Transfer(ctx, tx, s.vault, account, payout); err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, account, models.OP_BASIC_UNSTAKE,
		fmt.Sprintf("Unstaked %s from pool %d", payout.String(), configId)); err != nil {
		return 0, err
	}
	return payout, tx.Commit()
}

func (s *BasicStakingService) AddConfig(ctx context.Context, caller string, days, rateBps int64, maxTotal amount.Amount) (int64, error) {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := s.basicRepo.InsertConfig(ctx, tx, &models.BasicStakingConfig{
		DurationDays: days,
		RateBps:      rateBps,
		MaxTotal:     maxTotal,
	})
	if err != nil {
		return 0, err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_POOL_CONFIG,
		fmt.Sprintf("Added pool %d: %d days at %d bps, cap %s", id, days, rateBps, maxTotal.String())); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.cache.Del(ctx, basicConfigsCacheKey)
	return id, nil
}

func (s *BasicStakingService) UpdateConfig(ctx context.Context, caller string, configId, days, rateBps int64, maxTotal amount.Amount) error {
	if err := s.accessService.Require(ctx, caller, RoleManager); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cfg, err := s.basicRepo.GetConfig(ctx, tx, configId)
	if err != nil {
		return err
	}
	if cfg == nil {
		return apperrors.BasicStakingConfigDoesNotExist(configId)
	}
	cfg.DurationDays = days
	cfg.RateBps = rateBps
	cfg.MaxTotal = maxTotal
	if err := s.basicRepo.UpdateConfig(ctx, tx, cfg); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_POOL_CONFIG,
		fmt.Sprintf("Updated pool %d: %d days at %d bps, cap %s", configId, days, rateBps, maxTotal.String())); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.cache.Del(ctx, basicConfigsCacheKey)
	return nil
}

func (s *BasicStakingService) SetMinAmount(ctx context.Context, caller string, min amount.Amount) error {
	return s.updateBounds(ctx, caller, fmt.Sprintf("Min stake: %s", min.String()),
		func(settings *models.StakingSettings) {
			settings.BasicMinAmount = min
		})
}

func (s *BasicStakingService) SetMaxAmount(ctx context.Context, caller string, max amount.Amount) error {
	return s.updateBounds(ctx, caller, fmt.Sprintf("Max stake: %s", max.String()),
		func(settings *models.StakingSettings) {
			settings.BasicMaxAmount = max
		})
}

func (s *BasicStakingService) updateBounds(ctx context.Context, caller, description string, apply func(*models.StakingSettings)) error {
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

func (s *BasicStakingService) GetConfig(ctx context.Context, configId int64) (*models.BasicStakingConfig, error) {
	cfg, err := s.basicRepo.GetConfig(ctx, s.db, configId)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, apperrors.BasicStakingConfigDoesNotExist(configId)
	}
	return cfg, nil
}

func (s *BasicStakingService) GetConfigs(ctx context.Context) ([]models.BasicStakingConfig, error) {
	var cached []models.BasicStakingConfig
	if s.cache.Get(ctx, basicConfigsCacheKey, &cached) {
		return cached, nil
	}
	configs, err := s.basicRepo.GetConfigs(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, basicConfigsCacheKey, configs)
	return configs, nil
}

func (s *BasicStakingService) TotalStaked(ctx context.Context, configId int64) (amount.Amount, error) {
	cfg, err := s.GetConfig(ctx, configId)
	if err != nil {
		return 0, err
	}
	return cfg.TotalStaked, nil
}

func (s *BasicStakingService) GetStake(ctx context.Context, account string, configId int64) (*models.BasicStake, error) {
	return s.basicRepo.GetStake(ctx, s.db, configId, account)
}

func (s *BasicStakingService) GetStakes(ctx context.Context, account string) ([]models.BasicStake, error) {
	return s.basicRepo.GetStakes(ctx, account)
}
