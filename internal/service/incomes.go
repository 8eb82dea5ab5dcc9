package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

// IncomeInput carries the fields for creating or updating an income record.
type IncomeInput struct {
	Source      string           `json:"source" validate:"required"`
	GrossAmount decimal.Decimal  `json:"gross_amount" validate:"required"`
	NetAmount   *decimal.Decimal `json:"net_amount,omitempty"`
	Frequency   string           `json:"frequency" validate:"required,oneof=weekly bi-weekly semi-monthly monthly"`
	Date        time.Time        `json:"date" validate:"required"`
	Notes       *string          `json:"notes,omitempty"`
}

// CreateIncome records a manually entered income source or paycheck.
func (s *Service) CreateIncome(ctx context.Context, userID int64, input IncomeInput) (*models.Income, error) {
	income := &models.Income{
		UserID:      userID,
		Source:      input.Source,
		GrossAmount: input.GrossAmount,
		NetAmount:   input.NetAmount,
		Frequency:   input.Frequency,
		Date:        input.Date,
		Notes:       input.Notes,
	}
	if err := s.store.CreateIncome(ctx, income); err != nil {
		return nil, err
	}
	return income, nil
}

// ListIncomes returns all of the user's income records, newest first.
func (s *Service) ListIncomes(ctx context.Context, userID int64) ([]models.Income, error) {
	return s.store.ListIncomesByUser(ctx, userID)
}

// Income returns one income record owned by the user.
func (s *Service) Income(ctx context.Context, userID, incomeID int64) (*models.Income, error) {
	return s.store.FindIncomeByID(ctx, userID, incomeID)
}

// UpdateIncome replaces the editable fields of an income record.
func (s *Service) UpdateIncome(ctx context.Context, userID, incomeID int64, input IncomeInput) (*models.Income, error) {
	income, err := s.store.FindIncomeByID(ctx, userID, incomeID)
	if err != nil {
		return nil, err
	}
	income.Source = input.Source
	income.GrossAmount = input.GrossAmount
	income.NetAmount = input.NetAmount
	income.Frequency = input.Frequency
	income.Date = input.Date
	income.Notes = input.Notes
	if err := s.store.UpdateIncome(ctx, income); err != nil {
		return nil, err
	}
	return income, nil
}

// DeleteIncome removes a manually created income record. Detected incomes
// are refused since the next detection run would recreate them.
func (s *Service) DeleteIncome(ctx context.Context, userID, incomeID int64) error {
	income, err := s.store.FindIncomeByID(ctx, userID, incomeID)
	if err != nil {
		return err
	}
	if income.Derived() {
		return ErrDerivedRecord
	}
	return s.store.DeleteIncome(ctx, userID, income.ID)
}
