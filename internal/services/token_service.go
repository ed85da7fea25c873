// Package services implements the engine operations on top of the
// repositories. Each state-changing operation reads the clock once, opens
// one transaction, applies every mutation with the funds transfer last and
// commits; any failure rolls the whole transaction back.
package services

import (
	"context"

	"edenapp/internal/amount"
	"edenapp/internal/apperrors"
	"edenapp/internal/config"
	"edenapp/internal/models"
	"edenapp/internal/repositories"

	"github.com/jmoiron/sqlx"
)

var log = config.InitLogger()

// TokenService is the ledger the engine moves funds through. Supply is
// fixed: minted once to the treasury, then only moved between accounts.
type TokenService struct {
	db         *sqlx.DB
	ledgerRepo *repositories.LedgerRepository
}

func NewTokenService(db *sqlx.DB, ledgerRepo *repositories.LedgerRepository) *TokenService {
	return &TokenService{db: db, ledgerRepo: ledgerRepo}
}

func (s *TokenService) BalanceOf(ctx context.Context, account string) (amount.Amount, error) {
	return s.ledgerRepo.GetBalance(ctx, s.db, account)
}

func (s *TokenService) Allowance(ctx context.Context, owner, spender string) (amount.Amount, error) {
	return s.ledgerRepo.GetAllowance(ctx, s.db, owner, spender)
}

func (s *TokenService) Approve(ctx context.Context, owner, spender string, amt amount.Amount) error {
	if amt < 0 {
		return apperrors.AmountMustBeGreaterThanZero(owner)
	}
	return s.ledgerRepo.SetAllowance(ctx, s.db, &models.Allowance{
		Owner:   owner,
		Spender: spender,
		Amount:  amt,
	})
}

// InitializeSupply mints the fixed supply to the treasury account. It is a
// no-op when any balance row already exists, so restarts are safe.
func (s *TokenService) InitializeSupply(ctx context.Context, treasury string, supply amount.Amount) error {
	n, err := s.ledgerRepo.CountBalances(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := s.ledgerRepo.AddBalance(ctx, s.db, treasury, supply); err != nil {
		return err
	}
	log.Info("Initialized token supply: ", supply.String(), " -> ", treasury)
	return nil
}

// Transfer moves funds between two accounts inside the caller's transaction.
func (s *TokenService) Transfer(ctx context.Context, q sqlx.ExtContext, from, to string, amt amount.Amount) error {
	if amt <= 0 {
		return apperrors.AmountMustBeGreaterThanZero(from)
	}
	bal, err := s.ledgerRepo.GetBalance(ctx, q, from)
	if err != nil {
		return err
	}
	if bal < amt {
		return apperrors.InsufficientBalance(from)
	}
	if err := s.ledgerRepo.AddBalance(ctx, q, from, -amt); err != nil {
		return err
	}
	return s.ledgerRepo.AddBalance(ctx, q, to, amt)
}

// TransferFrom moves funds out of owner on behalf of spender, consuming the
// spender's allowance.
func (s *TokenService) TransferFrom(ctx context.Context, q sqlx.ExtContext, owner, spender, to string, amt amount.Amount) error {
	if amt <= 0 {
		return apperrors.AmountMustBeGreaterThanZero(owner)
	}
	allowed, err := s.ledgerRepo.GetAllowance(ctx, q, owner, spender)
	if err != nil {
		return err
	}
	if allowed < amt {
		return apperrors.InsufficientAllowance(owner, spender)
	}
	if err := s.ledgerRepo.SetAllowance(ctx, q, &models.Allowance{
		Owner:   owner,
		Spender: spender,
		Amount:  allowed - amt,
	}); err != nil {
		return err
	}
	return s.Transfer(ctx, q, owner, to, amt)
}
