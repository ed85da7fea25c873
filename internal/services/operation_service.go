package services

import (
	"context"
	"time"

	"edenapp/internal/models"
	"edenapp/internal/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// OperationService writes the audit trail. Records join the transaction of
// the mutation they describe, so a rolled-back operation leaves no trace.
type OperationService struct {
	operationRepo *repositories.OperationRepository
}

func NewOperationService(operationRepo *repositories.OperationRepository) *OperationService {
	return &OperationService{operationRepo: operationRepo}
}

var operationNames = map[string]string{
	models.OP_STAKING_START:        "Start staking",
	models.OP_STAKING_ADD_FUNDS:    "Add funds to stake",
	models.OP_STAKING_CLAIM:        "Claim staking reward",
	models.OP_STAKING_RESTAKE:      "Restake reward",
	models.OP_STAKING_REQ_UNSTAKE:  "Request unstake",
	models.OP_STAKING_UNSTAKE:      "Unstake",
	models.OP_BASIC_STAKE:          "Stake in fixed-term pool",
	models.OP_BASIC_UNSTAKE:        "Claim and unstake fixed-term pool",
	models.OP_VESTING_CLAIM:        "Claim vesting allocation",
	models.OP_VESTING_RELEASE:      "Release vested tokens",
	models.OP_VESTING_RELEASE_ALL:  "Release all vested tokens",
	models.OP_ADMIN_SETTINGS:       "Update staking settings",
	models.OP_ADMIN_POOL_CONFIG:    "Update fixed-term pool config",
	models.OP_ADMIN_PERIOD_CONFIG:  "Update tier schedule",
	models.OP_ADMIN_VESTING_POOL:   "Update vesting pools",
	models.OP_ADMIN_VESTING_WALLET: "Update vesting wallet",
	models.OP_ADMIN_MERKLE_ROOT:    "Set commitment root",
	models.OP_ADMIN_CLIFF_START:    "Start vesting cliff",
	models.OP_ADMIN_ROLE:           "Change role",
}

func (s *OperationService) Record(ctx context.Context, q sqlx.ExtContext, account, code, description string) error {
	name, ok := operationNames[code]
	if !ok {
		name = code
	}
	return s.operationRepo.Insert(ctx, q, &models.Operation{
		Id:          uuid.NewString(),
		Account:     account,
		Code:        code,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
}

func (s *OperationService) History(ctx context.Context, account string, limit int) ([]models.Operation, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.operationRepo.GetByAccount(ctx, account, limit)
}
