package repositories

import (
	"context"
	"database/sql"
	"errors"

	"edenapp/internal/amount"
	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

type BasicStakingRepository struct {
	db *sqlx.DB
}

func NewBasicStakingRepository(db *sqlx.DB) *BasicStakingRepository {
	return &BasicStakingRepository{db: db}
}

func (r *BasicStakingRepository) GetConfig(ctx context.Context, q sqlx.ExtContext, id int64) (*models.BasicStakingConfig, error) {
	var c models.BasicStakingConfig
	err := sqlx.GetContext(ctx, q, &c, "select * from basic_staking_configs where id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get basic staking config: ", err)
		return nil, err
	}
	return &c, nil
}

func (r *BasicStakingRepository) GetConfigs(ctx context.Context, q sqlx.ExtContext) ([]models.BasicStakingConfig, error) {
	var configs []models.BasicStakingConfig
	err := sqlx.SelectContext(ctx, q, &configs, "select * from basic_staking_configs order by id")
	if err != nil {
		log.Error("Failed to get basic staking configs: ", err)
		return nil, err
	}
	return configs, nil
}

func (r *BasicStakingRepository) InsertConfig(ctx context.Context, q sqlx.ExtContext, c *models.BasicStakingConfig) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, q, &id,
		`insert into basic_staking_configs (duration_days, rate_bps, max_total, total_staked)
		 values ($1, $2, $3, $4) returning id`,
		c.DurationDays, c.RateBps, c.MaxTotal, c.TotalStaked)
	if err != nil {
		log.Error("Failed to insert basic staking config: ", err)
		return 0, err
	}
	return id, nil
}

func (r *BasicStakingRepository) UpdateConfig(ctx context.Context, q sqlx.ExtContext, c *models.BasicStakingConfig) error {
	_, err := q.ExecContext(ctx,
		`update basic_staking_configs set
			duration_days = $1, rate_bps = $2, max_total = $3, total_staked = $4
		 where id = $5`,
		c.DurationDays, c.RateBps, c.MaxTotal, c.TotalStaked, c.Id)
	if err != nil {
		log.Error("Failed to update basic staking config: ", err)
	}
	return err
}

func (r *BasicStakingRepository) GetStake(ctx context.Context, q sqlx.ExtContext, configId int64, account string) (*models.BasicStake, error) {
	var s models.BasicStake
	err := sqlx.GetContext(ctx, q, &s,
		"select * from basic_stakes where config_id = $1 and account = $2 and active = true",
		configId, account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get basic stake: ", err)
		return nil, err
	}
	return &s, nil
}

func (r *BasicStakingRepository) GetStakes(ctx context.Context, account string) ([]models.BasicStake, error) {
	var stakes []models.BasicStake
	err := sqlx.SelectContext(ctx, r.db, &stakes,
		"select * from basic_stakes where account = $1 and active = true order by config_id", account)
	if err != nil {
		log.Error("Failed to get basic stakes: ", err)
		return nil, err
	}
	return stakes, nil
}

func (r *BasicStakingRepository) InsertStake(ctx context.Context, q sqlx.ExtContext, s *models.BasicStake) error {
	_, err := q.ExecContext(ctx,
		`insert into basic_stakes (config_id, account, amount, start_time, active)
		 values ($1, $2, $3, $4, $5)
		 on conflict (config_id, account) do update set
			amount = excluded.amount,
			start_time = excluded.start_time,
			active = excluded.active`,
		s.ConfigId, s.Account, s.Amount, s.StartTime, s.Active)
	if err != nil {
		log.Error("Failed to save basic stake: ", err)
	}
	return err
}

func (r *BasicStakingRepository) DeactivateStake(ctx context.Context, q sqlx.ExtContext, configId int64, account string) error {
	_, err := q.ExecContext(ctx,
		"update basic_stakes set active = false where config_id = $1 and account = $2",
		configId, account)
	if err != nil {
		log.Error("Failed to deactivate basic stake: ", err)
	}
	return err
}

func (r *BasicStakingRepository) TotalStaked(ctx context.Context) (amount.Amount, error) {
	var total amount.Amount
	err := sqlx.GetContext(ctx, r.db, &total,
		"select coalesce(sum(total_staked), 0) from basic_staking_configs")
	if err != nil {
		log.Error("Failed to sum basic stakes: ", err)
		return 0, err
	}
	return total, nil
}
