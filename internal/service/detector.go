package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
)

// DetectRecurring scans the user's outgoing transactions for merchants that
// show up at least twice, flags those transactions as recurring, and creates
// a monthly bill per newly detected merchant. Bills that already exist for a
// merchant are left untouched so user edits survive re-runs.
func (s *Service) DetectRecurring(ctx context.Context, userID int64) (string, error) {
	today := s.now()

	err := s.store.WithinTx(ctx, func(store repository.Store) error {
		txns, err := store.ListTransactionsByUser(ctx, userID)
		if err != nil {
			return err
		}

		groups := make(map[string][]models.Transaction)
		for _, txn := range txns {
			if !txn.Amount.IsNegative() {
				continue
			}
			key := normalizeName(txn.Name)
			if key == "" {
				continue
			}
			groups[key] = append(groups[key], txn)
		}

		for _, key := range sortedKeys(groups) {
			members := groups[key]
			if len(members) < 2 {
				continue
			}

			for _, member := range members {
				if member.IsRecurring {
					continue
				}
				if err := store.MarkTransactionRecurring(ctx, member.ID); err != nil {
					return err
				}
			}

			_, err := store.FindBillByNormalizedName(ctx, userID, key)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			amount := meanAbs(members)
			latest := members[0].Date
			for _, member := range members[1:] {
				if member.Date.After(latest) {
					latest = member.Date
				}
			}

			status := models.BillStatusUnpaid
			if !latest.After(today) {
				status = models.BillStatusPaid
			}

			bill := &models.Bill{
				UserID:      userID,
				PlaidBillID: strPtr("recurring:" + key),
				Name:        titleCase(key),
				Amount:      amount,
				DueDate:     latest,
				Frequency:   "monthly",
				Category:    members[0].Category,
				Status:      status,
				Notes:       strPtr("Automatically detected from recurring transactions"),
			}
			if err := store.CreateBill(ctx, bill); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Error detecting recurring transactions: %v", err)
		return "", fmt.Errorf("failed to detect recurring transactions: %w", err)
	}
	return "Recurring transactions detected", nil
}
