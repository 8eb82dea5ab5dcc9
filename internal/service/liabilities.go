package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/integrations/plaid"
	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
)

// Amount changes below a cent are treated as noise and not written back.
var amountChangeEpsilon = decimal.RequireFromString("0.009")

// SyncLiabilities maps a liability snapshot onto bills, one per liability
// account. Existing synced bills are updated in place when the payment
// amount or due date moved; everything else about them (status, notes,
// autopay) is user-owned and untouched.
func (s *Service) SyncLiabilities(ctx context.Context, userID int64, snapshot plaid.LiabilitySnapshot) (int, int, error) {
	created, updated := 0, 0

	err := s.store.WithinTx(ctx, func(store repository.Store) error {
		upsert := func(accountID string, fallbackName, category string, amount *decimal.Decimal, due *time.Time) error {
			if accountID == "" || due == nil {
				return nil
			}

			value := decimal.Zero
			if amount != nil {
				value = *amount
			}

			name := fallbackName
			if display, ok := snapshot.AccountNames[accountID]; ok && display != "" {
				name = display
			}

			existing, err := store.FindBillByPlaidBillID(ctx, userID, accountID)
			if errors.Is(err, repository.ErrNotFound) {
				bill := &models.Bill{
					UserID:      userID,
					PlaidBillID: strPtr(accountID),
					Name:        name + " Payment",
					Amount:      value,
					DueDate:     *due,
					Frequency:   "monthly",
					Category:    strPtr(category),
					Status:      models.BillStatusUnpaid,
				}
				if err := store.CreateBill(ctx, bill); err != nil {
					return err
				}
				created++
				return nil
			}
			if err != nil {
				return err
			}

			sameAmount := existing.Amount.Sub(value).Abs().LessThanOrEqual(amountChangeEpsilon)
			sameDue := existing.DueDate.Equal(*due)
			if sameAmount && sameDue {
				return nil
			}
			if err := store.UpdateBillPayment(ctx, existing.ID, value, *due); err != nil {
				return err
			}
			updated++
			return nil
		}

		for _, credit := range snapshot.Credit {
			amount := credit.MinimumPaymentAmount
			if amount == nil {
				amount = credit.LastStatementBalance
			}
			if err := upsert(credit.AccountID, "Credit Card", "Credit Card",
				amount, credit.NextPaymentDueDate); err != nil {
				return err
			}
		}

		for _, loan := range snapshot.Student {
			name := "Student Loan"
			if loan.LoanName != nil && *loan.LoanName != "" {
				name = *loan.LoanName
			}
			if err := upsert(loan.AccountID, name, "Student Loan",
				loan.MinimumPaymentAmount, loan.NextPaymentDueDate); err != nil {
				return err
			}
		}

		for _, mortgage := range snapshot.Mortgage {
			if err := upsert(mortgage.AccountID, "Mortgage", "Mortgage",
				mortgage.NextMonthlyPayment, mortgage.NextPaymentDueDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Error syncing liabilities: %v", err)
		return 0, 0, fmt.Errorf("failed to sync liabilities: %w", err)
	}

	s.log.Infof("Liability sync for user %d: %d created, %d updated", userID, created, updated)
	return created, updated, nil
}
