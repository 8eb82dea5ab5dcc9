package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

// BillInput carries the fields for creating or updating a bill.
type BillInput struct {
	Name      string          `json:"name" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	DueDate   time.Time       `json:"due_date" validate:"required"`
	Frequency string          `json:"frequency" validate:"required,oneof=weekly bi-weekly monthly quarterly yearly one-time"`
	Category  *string         `json:"category,omitempty"`
	Status    string          `json:"status,omitempty" validate:"omitempty,oneof=unpaid paid pending"`
	Autopay   bool            `json:"autopay"`
	Notes     *string         `json:"notes,omitempty"`
}

// CreateBill records a manually entered bill.
func (s *Service) CreateBill(ctx context.Context, userID int64, input BillInput) (*models.Bill, error) {
	status := input.Status
	if status == "" {
		status = models.BillStatusUnpaid
	}
	bill := &models.Bill{
		UserID:    userID,
		Name:      input.Name,
		Amount:    input.Amount,
		DueDate:   input.DueDate,
		Frequency: input.Frequency,
		Category:  input.Category,
		Status:    status,
		Autopay:   input.Autopay,
		Notes:     input.Notes,
	}
	if err := s.store.CreateBill(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ListBills returns all of the user's bills, soonest due first.
func (s *Service) ListBills(ctx context.Context, userID int64) ([]models.Bill, error) {
	return s.store.ListBillsByUser(ctx, userID)
}

// Bill returns one bill owned by the user.
func (s *Service) Bill(ctx context.Context, userID, billID int64) (*models.Bill, error) {
	return s.store.FindBillByID(ctx, userID, billID)
}

// UpdateBill replaces the editable fields of a bill. Derived bills stay
// editable; only deletion is restricted, as a sync run would recreate them.
func (s *Service) UpdateBill(ctx context.Context, userID, billID int64, input BillInput) (*models.Bill, error) {
	bill, err := s.store.FindBillByID(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	bill.Name = input.Name
	bill.Amount = input.Amount
	bill.DueDate = input.DueDate
	bill.Frequency = input.Frequency
	bill.Category = input.Category
	if input.Status != "" {
		bill.Status = input.Status
	}
	bill.Autopay = input.Autopay
	bill.Notes = input.Notes
	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ToggleBillPaid flips a bill between paid and unpaid.
func (s *Service) ToggleBillPaid(ctx context.Context, userID, billID int64) (*models.Bill, error) {
	bill, err := s.store.FindBillByID(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == models.BillStatusPaid {
		bill.Status = models.BillStatusUnpaid
	} else {
		bill.Status = models.BillStatusPaid
	}
	if err := s.store.UpdateBillStatus(ctx, userID, bill.ID, bill.Status); err != nil {
		return nil, err
	}
	return bill, nil
}

// DeleteBill removes a manually created bill. Bills produced by detection or
// liability sync are refused since the next sync run would recreate them.
func (s *Service) DeleteBill(ctx context.Context, userID, billID int64) error {
	bill, err := s.store.FindBillByID(ctx, userID, billID)
	if err != nil {
		return err
	}
	if bill.Derived() {
		return ErrDerivedRecord
	}
	return s.store.DeleteBill(ctx, userID, bill.ID)
}

// UpcomingBills lists unpaid bills due within the window, soonest first.
func (s *Service) UpcomingBills(ctx context.Context, userID int64, days int) ([]models.Bill, error) {
	from := s.now()
	return s.store.ListUpcomingUnpaidBills(ctx, userID, from, from.AddDate(0, 0, days))
}
