package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
)

// incomeKeywords mark deposit descriptions that look like pay.
var incomeKeywords = []string{"salary", "payroll", "deposit", "direct dep"}

const recentDepositScan = 100

// DetectIncome scans recent incoming transactions for deposits that look
// like pay and maintains one derived income source per payer. Detected
// sources get their amounts and last pay date refreshed on every run.
func (s *Service) DetectIncome(ctx context.Context, userID int64) (string, error) {
	threshold := s.config.DepositMinAmount.Neg()

	err := s.store.WithinTx(ctx, func(store repository.Store) error {
		txns, err := store.ListRecentNegativeTransactions(ctx, userID, recentDepositScan)
		if err != nil {
			return err
		}

		groups := make(map[string][]models.Transaction)
		for _, txn := range txns {
			if !txn.Amount.LessThan(threshold) {
				continue
			}
			if !matchesIncomeKeyword(txn.Name) {
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
			source := titleCase(key)
			amount := meanAbs(members)
			latest := members[0].Date
			for _, member := range members[1:] {
				if member.Date.After(latest) {
					latest = member.Date
				}
			}

			existing, err := store.FindIncomeBySource(ctx, userID, source)
			if errors.Is(err, repository.ErrNotFound) {
				income := &models.Income{
					UserID:        userID,
					PlaidIncomeID: strPtr("deposit:" + key),
					Source:        source,
					GrossAmount:   amount,
					NetAmount:     &amount,
					Frequency:     models.FrequencyBiWeekly,
					Date:          latest,
					Notes:         strPtr("Automatically detected from deposits"),
				}
				if err := store.CreateIncome(ctx, income); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			if err := store.UpdateIncomeDetected(ctx, existing.ID, amount, amount, latest); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Error detecting income sources: %v", err)
		return "", fmt.Errorf("failed to detect income sources: %w", err)
	}
	return "Income sources detected successfully", nil
}

func matchesIncomeKeyword(name string) bool {
	lowered := strings.ToLower(name)
	for _, keyword := range incomeKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
