package repositories

import (
	"context"
	"database/sql"
	"errors"

	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

type VestingRepository struct {
	db *sqlx.DB
}

func NewVestingRepository(db *sqlx.DB) *VestingRepository {
	return &VestingRepository{db: db}
}

func (r *VestingRepository) GetState(ctx context.Context, q sqlx.ExtContext) (*models.VestingState, error) {
	var s models.VestingState
	err := sqlx.GetContext(ctx, q, &s, "select * from vesting_state where id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get vesting state: ", err)
		return nil, err
	}
	return &s, nil
}

func (r *VestingRepository) UpdateState(ctx context.Context, q sqlx.ExtContext, s *models.VestingState) error {
	_, err := q.ExecContext(ctx,
		"update vesting_state set merkle_root = $1, paused = $2, cliff_start = $3 where id = 1",
		s.MerkleRoot, s.Paused, s.CliffStart)
	if err != nil {
		log.Error("Failed to update vesting state: ", err)
	}
	return err
}

func (r *VestingRepository) GetPool(ctx context.Context, q sqlx.ExtContext, id int64) (*models.VestingPool, error) {
	var p models.VestingPool
	err := sqlx.GetContext(ctx, q, &p, "select * from vesting_pools where id = $1 and active = true", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get vesting pool: ", err)
		return nil, err
	}
	return &p, nil
}

func (r *VestingRepository) GetPools(ctx context.Context, q sqlx.ExtContext) ([]models.VestingPool, error) {
	var pools []models.VestingPool
	err := sqlx.SelectContext(ctx, q, &pools, "select * from vesting_pools where active = true order by id")
	if err != nil {
		log.Error("Failed to get vesting pools: ", err)
		return nil, err
	}
	return pools, nil
}

func (r *VestingRepository) InsertPool(ctx context.Context, q sqlx.ExtContext, p *models.VestingPool) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, q, &id,
		`insert into vesting_pools (cliff_days, vesting_days, tge_bps, cliff_start, cliff_end, vesting_end, active)
		 values ($1, $2, $3, $4, $5, $6, $7) returning id`,
		p.CliffDays, p.VestingDays, p.TgeBps, p.CliffStart, p.CliffEnd, p.VestingEnd, p.Active)
	if err != nil {
		log.Error("Failed to insert vesting pool: ", err)
		return 0, err
	}
	return id, nil
}

func (r *VestingRepository) UpdatePool(ctx context.Context, q sqlx.ExtContext, p *models.VestingPool) error {
	_, err := q.ExecContext(ctx,
		`update vesting_pools set
			cliff_days = $1, vesting_days = $2, tge_bps = $3,
			cliff_start = $4, cliff_end = $5, vesting_end = $6, active = $7
		 where id = $8`,
		p.CliffDays, p.VestingDays, p.TgeBps,
		p.CliffStart, p.CliffEnd, p.VestingEnd, p.Active, p.Id)
	if err != nil {
		log.Error("Failed to update vesting pool: ", err)
	}
	return err
}

func (r *VestingRepository) GetWallet(ctx context.Context, q sqlx.ExtContext, poolId int64, account string) (*models.VestingWallet, error) {
	var w models.VestingWallet
	err := sqlx.GetContext(ctx, q, &w,
		"select * from vesting_wallets where pool_id = $1 and account = $2", poolId, account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("Failed to get vesting wallet: ", err)
		return nil, err
	}
	return &w, nil
}

func (r *VestingRepository) GetWallets(ctx context.Context, q sqlx.ExtContext, account string) ([]models.VestingWallet, error) {
	var wallets []models.VestingWallet
	err := sqlx.SelectContext(ctx, q, &wallets,
		"select * from vesting_wallets where account = $1 order by pool_id", account)
	if err != nil {
		log.Error("Failed to get vesting wallets: ", err)
		return nil, err
	}
	return wallets, nil
}

func (r *VestingRepository) InsertWallet(ctx context.Context, q sqlx.ExtContext, w *models.VestingWallet) error {
	_, err := q.ExecContext(ctx,
		"insert into vesting_wallets (pool_id, account, amount, released) values ($1, $2, $3, $4)",
		w.PoolId, w.Account, w.Amount, w.Released)
	if err != nil {
		log.Error("Failed to insert vesting wallet: ", err)
	}
	return err
}

func (r *VestingRepository) UpdateWallet(ctx context.Context, q sqlx.ExtContext, w *models.VestingWallet) error {
	_, err := q.ExecContext(ctx,
		"update vesting_wallets set amount = $1, released = $2 where pool_id = $3 and account = $4",
		w.Amount, w.Released, w.PoolId, w.Account)
	if err != nil {
		log.Error("Failed to update vesting wallet: ", err)
	}
	return err
}

func (r *VestingRepository) DeleteWallet(ctx context.Context, q sqlx.ExtContext, poolId int64, account string) error {
	_, err := q.ExecContext(ctx,
		"delete from vesting_wallets where pool_id = $1 and account = $2", poolId, account)
	if err != nil {
		log.Error("Failed to delete vesting wallet: ", err)
	}
	return err
}

func (r *VestingRepository) HasClaim(ctx context.Context, q sqlx.ExtContext, poolId int64, account string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		"select count(*) from vesting_claims where pool_id = $1 and account = $2", poolId, account)
	if err != nil {
		log.Error("Failed to check vesting claim: ", err)
		return false, err
	}
	return n > 0, nil
}

func (r *VestingRepository) InsertClaim(ctx context.Context, q sqlx.ExtContext, c *models.VestingClaim) error {
	_, err := q.ExecContext(ctx,
		"insert into vesting_claims (pool_id, account) values ($1, $2)",
		c.PoolId, c.Account)
	if err != nil {
		log.Error("Failed to insert vesting claim: ", err)
	}
	return err
}
