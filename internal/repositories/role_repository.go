package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Has(ctx context.Context, account, role string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		"select count(*) from roles where account = $1 and role = $2", account, role)
	if err != nil {
		log.Error("Failed to check role: ", err)
		return false, err
	}
	return n > 0, nil
}

func (r *RoleRepository) Grant(ctx context.Context, q sqlx.ExtContext, account, role string) error {
	_, err := q.ExecContext(ctx,
		"insert into roles (account, role) values ($1, $2) on conflict do nothing",
		account, role)
	if err != nil {
		log.Error("Failed to grant role: ", err)
	}
	return err
}

func (r *RoleRepository) Revoke(ctx context.Context, q sqlx.ExtContext, account, role string) error {
	_, err := q.ExecContext(ctx,
		"delete from roles where account = $1 and role = $2", account, role)
	if err != nil {
		log.Error("Failed to revoke role: ", err)
	}
	return err
}
