package services

import (
	"context"
	"fmt"

	"edenapp/internal/apperrors"
	"edenapp/internal/models"
	"edenapp/internal/repositories"

	"github.com/jmoiron/sqlx"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// AccessService guards privileged operations. Admin covers everything a
// manager may do.
type AccessService struct {
	db         *sqlx.DB
	roleRepo   *repositories.RoleRepository
	operations *OperationService
}

func NewAccessService(db *sqlx.DB, roleRepo *repositories.RoleRepository, operations *OperationService) *AccessService {
	return &AccessService{db: db, roleRepo: roleRepo, operations: operations}
}

func (s *AccessService) Require(ctx context.Context, account, role string) error {
	ok, err := s.roleRepo.Has(ctx, account, role)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if role != RoleAdmin {
		ok, err = s.roleRepo.Has(ctx, account, RoleAdmin)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return apperrors.UnauthorizedAccount(account, role)
}

func (s *AccessService) GrantRole(ctx context.Context, caller, account, role string) error {
	if err := s.Require(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.roleRepo.Grant(ctx, tx, account, role); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_ROLE,
		fmt.Sprintf("granted %v to %v", role, account)); err != nil {
		return err
	}
	log.Info("Granting role ", role, " to ", account)
	return tx.Commit()
}

func (s *AccessService) RevokeRole(ctx context.Context, caller, account, role string) error {
	if err := s.Require(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.roleRepo.Revoke(ctx, tx, account, role); err != nil {
		return err
	}
	if err := s.operations.Record(ctx, tx, caller, models.OP_ADMIN_ROLE,
		fmt.Sprintf("revoked %v from %v", role, account)); err != nil {
		return err
	}
	log.Info("Revoking role ", role, " from ", account)
	return tx.Commit()
}

// Bootstrap grants the admin role to the configured account. Safe to call
// on every start.
func (s *AccessService) Bootstrap(ctx context.Context, admin string) error {
	if admin == "" {
		return nil
	}
	return s.roleRepo.Grant(ctx, s.db, admin, RoleAdmin)
}
