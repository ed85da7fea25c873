// Package repositories holds one keyed store per record family. Methods
// that participate in an engine operation take an sqlx.ExtContext so the
// owning service can run the whole operation inside a single transaction;
// plain reads go through the repository's own connection.
package repositories

import (
	"context"
	"database/sql"
	"errors"

	"edenapp/internal/amount"
	"edenapp/internal/config"
	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

var log = config.InitLogger()

type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetBalance(ctx context.Context, q sqlx.ExtContext, account string) (amount.Amount, error) {
	var bal amount.Amount
	err := sqlx.GetContext(ctx, q, &bal, "select amount from balances where account = $1", account)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		log.Error("Failed to get balance: ", err)
		return 0, err
	}
	return bal, nil
}

func (r *LedgerRepository) AddBalance(ctx context.Context, q sqlx.ExtContext, account string, delta amount.Amount) error {
	_, err := q.ExecContext(ctx,
		`insert into balances (account, amount) values ($1, $2)
		 on conflict (account) do update set amount = balances.amount + excluded.amount`,
		account, delta)
	if err != nil {
		log.Error("Failed to update balance: ", err)
	}
	return err
}

func (r *LedgerRepository) CountBalances(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, "select count(*) from balances"); err != nil {
		log.Error("Failed to count balances: ", err)
		return 0, err
	}
	return n, nil
}

func (r *LedgerRepository) GetAllowance(ctx context.Context, q sqlx.ExtContext, owner, spender string) (amount.Amount, error) {
	var allowed amount.Amount
	err := sqlx.GetContext(ctx, q, &allowed,
		"select amount from allowances where owner = $1 and spender = $2", owner, spender)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		log.Error("Failed to get allowance: ", err)
		return 0, err
	}
	return allowed, nil
}

func (r *LedgerRepository) SetAllowance(ctx context.Context, q sqlx.ExtContext, a *models.Allowance) error {
	_, err := q.ExecContext(ctx,
		`insert into allowances (owner, spender, amount) values ($1, $2, $3)
		 on conflict (owner, spender) do update set amount = excluded.amount`,
		a.Owner, a.Spender, a.Amount)
	if err != nil {
		log.Error("Failed to set allowance: ", err)
	}
	return err
}
