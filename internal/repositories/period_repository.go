package repositories

import (
	"context"
	"database/sql"
	"errors"

	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

type PeriodRepository struct {
	db *sqlx.DB
}

func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) GetAll(ctx context.Context, q sqlx.ExtContext) ([]models.StakingPeriod, error) {
	var periods []models.StakingPeriod
	err := sqlx.SelectContext(ctx, q, &periods,
		"select * from staking_periods order by position")
	if err != nil {
		log.Error("Failed to get staking periods: ", err)
		return nil, err
	}
	return periods, nil
}

func (r *PeriodRepository) Get(ctx context.Context, q sqlx.ExtContext, position int) (*models.StakingPeriod, error) {
	var p models.StakingPeriod
	err := sqlx.GetContext(ctx, q, &p,
		"select * from staking_periods where position = $1", position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get staking period: ", err)
		return nil, err
	}
	return &p, nil
}

func (r *PeriodRepository) Insert(ctx context.Context, q sqlx.ExtContext, p *models.StakingPeriod) error {
	_, err := q.ExecContext(ctx,
		"insert into staking_periods (position, duration_days, rate_bps) values ($1, $2, $3)",
		p.Position, p.DurationDays, p.RateBps)
	if err != nil {
		log.Error("Failed to insert staking period: ", err)
	}
	return err
}

func (r *PeriodRepository) Update(ctx context.Context, q sqlx.ExtContext, p *models.StakingPeriod) error {
	_, err := q.ExecContext(ctx,
		"update staking_periods set duration_days = $1, rate_bps = $2 where position = $3",
		p.DurationDays, p.RateBps, p.Position)
	if err != nil {
		log.Error("Failed to update staking period: ", err)
	}
	return err
}

func (r *PeriodRepository) Count(ctx context.Context, q sqlx.ExtContext) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, "select count(*) from staking_periods"); err != nil {
		log.Error("Failed to count staking periods: ", err)
		return 0, err
	}
	return n, nil
}
