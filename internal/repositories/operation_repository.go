package repositories

import (
	"context"

	"edenapp/internal/models"

	"github.com/jmoiron/sqlx"
)

type OperationRepository struct {
	db *sqlx.DB
}

func NewOperationRepository(db *sqlx.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

func (r *OperationRepository) Insert(ctx context.Context, q sqlx.ExtContext, op *models.Operation) error {
	_, err := q.ExecContext(ctx,
		`insert into operations (id, account, code, name, description, created_at)
		 values ($1, $2, $3, $4, $5, $6)`,
		op.Id, op.Account, op.Code, op.Name, op.Description, op.CreatedAt)
	if err != nil {
		log.Error("Failed to insert operation: ", err)
	}
	return err
}

func (r *OperationRepository) GetByAccount(ctx context.Context, account string, limit int) ([]models.Operation, error) {
	var ops []models.Operation
	err := sqlx.SelectContext(ctx, r.db, &ops,
		"select * from operations where account = $1 order by created_at desc limit $2",
		account, limit)
	if err != nil {
		log.Error("Failed to get operations: ", err)
		return nil, err
	}
	return ops, nil
}
