package cash

import (
	"context"
	"fmt"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/tx"
	"tillbook/internal/core/types"
	"tillbook/pkg/logger"
)

// Service manages the cash ledger.
type Service struct {
	repo      Repository
	seq       sequence.Generator
	txManager tx.Manager
}

// NewService creates a new cash ledger service.
func NewService(repo Repository, seq sequence.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		seq:       seq,
		txManager: txManager,
	}
}

// CreateInput describes a manual cash entry.
type CreateInput struct {
	TenantID        id.ID
	Type            TransactionType
	Amount          types.Money
	PaymentMethod   string
	CategoryID      *id.ID
	Description     string
	TransactionDate time.Time
	CreatedBy       id.ID
}

// Create books a manual income or expense entry with a generated number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CashTransaction, error) {
	if in.TransactionDate.IsZero() {
		in.TransactionDate = time.Now().UTC()
	}

	t := &CashTransaction{
		BaseEntity:      entity.NewBaseEntity(in.TenantID),
		Type:            in.Type,
		Amount:          in.Amount,
		PaymentMethod:   in.PaymentMethod,
		CategoryID:      in.CategoryID,
		Description:     in.Description,
		TransactionDate: in.TransactionDate,
		CreatedBy:       in.CreatedBy,
	}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.seq.Next(ctx, in.TenantID, sequence.KindCash, in.TransactionDate)
		if err != nil {
			return fmt.Errorf("next cash number: %w", err)
		}
		t.Number = number
		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "cash entry created", "number", t.Number, "type", t.Type, "amount", t.Amount)
	return t, nil
}

// UpdateInput carries the mutable fields of an unverified entry.
type UpdateInput struct {
	Amount          types.Money
	PaymentMethod   string
	CategoryID      *id.ID
	Description     string
	TransactionDate time.Time
}

// Update modifies an entry. Verified entries are immutable.
func (s *Service) Update(ctx context.Context, tenantID, txID id.ID, in UpdateInput) (*CashTransaction, error) {
	var t *CashTransaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByID(ctx, tenantID, txID)
		if err != nil {
			return err
		}
		if t.IsVerified {
			return apperror.NewAlreadyVerified(txID)
		}

		t.Amount = in.Amount
		t.PaymentMethod = in.PaymentMethod
		t.CategoryID = in.CategoryID
		t.Description = in.Description
		if !in.TransactionDate.IsZero() {
			t.TransactionDate = in.TransactionDate
		}
		t.Touch()

		if err := t.Validate(ctx); err != nil {
			return err
		}
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Delete soft-deletes an entry. Verified entries are immutable.
func (s *Service) Delete(ctx context.Context, tenantID, txID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, tenantID, txID)
		if err != nil {
			return err
		}
		if t.IsVerified {
			return apperror.NewAlreadyVerified(txID)
		}
		return s.repo.SoftDelete(ctx, tenantID, txID)
	})
}

// Verify marks an entry as verified. Verification is one-way; verifying an
// already verified entry fails.
func (s *Service) Verify(ctx context.Context, tenantID, txID, verifierID id.ID) (*CashTransaction, error) {
	var t *CashTransaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByID(ctx, tenantID, txID)
		if err != nil {
			return err
		}
		if t.IsVerified {
			return apperror.NewAlreadyVerified(txID)
		}

		now := time.Now().UTC()
		t.IsVerified = true
		t.VerifiedBy = &verifierID
		t.VerifiedAt = &now
		t.Touch()
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "cash entry verified", "number", t.Number, "verifiedBy", verifierID)
	return t, nil
}

// SyncFromSale books the income entry for a completed sale. Syncing the same
// sale twice fails with an already-synced error; the check and the insert run
// in one transaction.
func (s *Service) SyncFromSale(ctx context.Context, tenantID, saleID id.ID) (*CashTransaction, error) {
	var t *CashTransaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.FindIncomeBySale(ctx, tenantID, saleID); err == nil {
			return apperror.NewAlreadySynced(saleID).WithDetail("cashNumber", existing.Number)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		sale, err := s.repo.GetSaleForSync(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		date := time.Now().UTC()
		if sale.CompletedAt != nil {
			date = *sale.CompletedAt
		}

		number, err := s.seq.Next(ctx, tenantID, sequence.KindCash, date)
		if err != nil {
			return fmt.Errorf("next cash number: %w", err)
		}

		t = &CashTransaction{
			BaseEntity:      entity.NewBaseEntity(tenantID),
			Number:          number,
			Type:            TypeIncome,
			Amount:          sale.Total,
			PaymentMethod:   sale.PaymentMethod,
			SaleID:          &saleID,
			Description:     fmt.Sprintf("Sales income %s", sale.Number),
			TransactionDate: date,
			CreatedBy:       sale.CashierID,
		}
		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale synced to cash ledger", "saleId", saleID, "number", t.Number)
	return t, nil
}

// BookSystemExpense books an expense into a system category, creating the
// category on first use. Used for purchase payments and return refunds.
func (s *Service) BookSystemExpense(ctx context.Context, tenantID id.ID, categoryCode, categoryName string, amount types.Money, paymentMethod, description string, saleID *id.ID, actorID id.ID) (*CashTransaction, error) {
	var t *CashTransaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		categoryID, err := s.repo.EnsureCategory(ctx, tenantID, categoryCode, categoryName, true)
		if err != nil {
			return fmt.Errorf("ensure category %s: %w", categoryCode, err)
		}

		now := time.Now().UTC()
		number, err := s.seq.Next(ctx, tenantID, sequence.KindCash, now)
		if err != nil {
			return fmt.Errorf("next cash number: %w", err)
		}

		t = &CashTransaction{
			BaseEntity:      entity.NewBaseEntity(tenantID),
			Number:          number,
			Type:            TypeExpense,
			Amount:          amount,
			PaymentMethod:   paymentMethod,
			CategoryID:      &categoryID,
			SaleID:          saleID,
			Description:     description,
			TransactionDate: now,
			CreatedBy:       actorID,
		}
		if err := t.Validate(ctx); err != nil {
			return err
		}
		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID fetches a single entry.
func (s *Service) GetByID(ctx context.Context, tenantID, txID id.ID) (*CashTransaction, error) {
	return s.repo.GetByID(ctx, tenantID, txID)
}

// List fetches entries with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*CashTransaction, error) {
	return s.repo.List(ctx, tenantID, f)
}

// GetBalance returns the running balance of the ledger, total and broken
// down per payment method.
func (s *Service) GetBalance(ctx context.Context, tenantID id.ID) (*Balance, error) {
	return s.repo.GetBalance(ctx, tenantID)
}

// GetCashFlowSummary aggregates income and expense over a period.
func (s *Service) GetCashFlowSummary(ctx context.Context, tenantID id.ID, from, to time.Time) (*CashFlowSummary, error) {
	summary, err := s.repo.GetCashFlowSummary(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	summary.NetFlow = summary.TotalIncome.Sub(summary.TotalExpense)
	return summary, nil
}

// GetExpenseByCategory breaks expenses down per category over a period.
func (s *Service) GetExpenseByCategory(ctx context.Context, tenantID id.ID, from, to time.Time) ([]*ExpenseByCategory, error) {
	return s.repo.GetExpenseByCategory(ctx, tenantID, from, to)
}

// ListCategories returns all categories for a tenant.
func (s *Service) ListCategories(ctx context.Context, tenantID id.ID) ([]*Category, error) {
	return s.repo.ListCategories(ctx, tenantID)
}
