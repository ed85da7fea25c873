package repositories

import (
	"context"
	"database/sql"
	"errors"

	"edenapp/internal/amount"
	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

type StakeRepository struct {
	db *sqlx.DB
}

func NewStakeRepository(db *sqlx.DB) *StakeRepository {
	return &StakeRepository{db: db}
}

func (r *StakeRepository) Get(ctx context.Context, q sqlx.ExtContext, account string) (*models.Stake, error) {
	var s models.Stake
	err := sqlx.GetContext(ctx, q, &s,
		"select * from stakes where account = $1 and active = true", account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get stake: ", err)
		return nil, err
	}
	return &s, nil
}

func (r *StakeRepository) Insert(ctx context.Context, q sqlx.ExtContext, s *models.Stake) error {
	_, err := q.ExecContext(ctx,
		`insert into stakes (account, amount, start_time, total_claimed, last_claim_time, last_restake_time, unstake_requested_at, active)
		 values ($1, $2, $3, $4, $5, $6, $7, $8)
		 on conflict (account) do update set
			amount = excluded.amount,
			start_time = excluded.start_time,
			total_claimed = excluded.total_claimed,
			last_claim_time = excluded.last_claim_time,
			last_restake_time = excluded.last_restake_time,
			unstake_requested_at = excluded.unstake_requested_at,
			active = excluded.active`,
		s.Account, s.Amount, s.StartTime, s.TotalClaimed,
		s.LastClaimTime, s.LastRestakeTime, s.UnstakeRequestedAt, s.Active)
	if err != nil {
		log.Error("Failed to save stake: ", err)
	}
	return err
}

func (r *StakeRepository) Update(ctx context.Context, q sqlx.ExtContext, s *models.Stake) error {
	_, err := q.ExecContext(ctx,
		`update stakes set
			amount = $1,
			total_claimed = $2,
			last_claim_time = $3,
			last_restake_time = $4,
			unstake_requested_at = $5,
			active = $6
		 where account = $7`,
		s.Amount, s.TotalClaimed, s.LastClaimTime, s.LastRestakeTime,
		s.UnstakeRequestedAt, s.Active, s.Account)
	if err != nil {
		log.Error("Failed to update stake: ", err)
	}
	return err
}

func (r *StakeRepository) TotalStaked(ctx context.Context) (amount.Amount, error) {
	var total amount.Amount
	err := sqlx.GetContext(ctx, r.db, &total,
		"select coalesce(sum(amount), 0) from stakes where active = true")
	if err != nil {
		log.Error("Failed to sum stakes: ", err)
		return 0, err
	}
	return total, nil
}

func (r *StakeRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		"select count(*) from stakes where active = true")
	if err != nil {
		log.Error("Failed to count stakes: ", err)
		return 0, err
	}
	return n, nil
}
