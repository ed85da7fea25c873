package repositories

import (
	"context"
	"database/sql"
	"errors"

	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, q sqlx.ExtContext) (*models.StakingSettings, error) {
	var s models.StakingSettings
	err := sqlx.GetContext(ctx, q, &s, "select * from staking_settings where id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get staking settings: ", err)
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Update(ctx context.Context, q sqlx.ExtContext, s *models.StakingSettings) error {
	_, err := q.ExecContext(ctx,
		`update staking_settings set
			basic_min_amount = $1,
			basic_max_amount = $2,
			unstake_cooldown_secs = $3,
			restake_interval_secs = $4,
			restake_enabled = $5,
			add_funds_enabled = $6
		 where id = 1`,
		s.BasicMinAmount, s.BasicMaxAmount, s.UnstakeCooldownSecs,
		s.RestakeIntervalSecs, s.RestakeEnabled, s.AddFundsEnabled)
	if err != nil {
		log.Error("Failed to update staking settings: ", err)
	}
	return err
}
