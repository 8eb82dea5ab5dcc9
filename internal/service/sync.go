package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billpayhq/billpay-service/internal/integrations/ofx"
	"github.com/billpayhq/billpay-service/internal/integrations/plaid"
	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
)

// CreateLinkToken creates a link token for the user to initialize the link
// flow with the configured product list.
func (s *Service) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	return s.client.CreateLinkToken(ctx, userID, s.config.PlaidProducts)
}

// ExchangePublicToken exchanges the public token for an access token, stores
// it encrypted, and runs the initial data fetch cascade.
func (s *Service) ExchangePublicToken(ctx context.Context, userID int64, publicToken string) (string, error) {
	result, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		s.log.Errorf("Error exchanging public token: %v", err)
		return "", fmt.Errorf("error connecting your account: %w", err)
	}

	encrypted, err := s.vault.Encrypt(result.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	if err := s.store.SetPlaidCredentials(ctx, userID, &encrypted, &result.ItemID); err != nil {
		return "", err
	}

	// Initial fetch; transient upstream failures here are logged, not fatal,
	// since the user can refresh once the products are ready.
	if _, err := s.FetchAccounts(ctx, userID); err != nil {
		s.log.Warnf("Initial account fetch failed for user %d: %v", userID, err)
	}
	if _, err := s.FetchTransactions(ctx, userID, time.Time{}, time.Time{}); err != nil {
		s.log.Warnf("Initial transaction fetch failed for user %d: %v", userID, err)
	}
	if s.productEnabled("liabilities") {
		if _, err := s.FetchLiabilities(ctx, userID); err != nil {
			s.log.Warnf("Initial liability fetch failed for user %d: %v", userID, err)
		}
	}
	if s.productEnabled("income") {
		if _, err := s.DetectIncome(ctx, userID); err != nil {
			s.log.Warnf("Initial income detection failed for user %d: %v", userID, err)
		}
	}

	return "Successfully connected your account!", nil
}

func (s *Service) productEnabled(product string) bool {
	for _, p := range s.config.PlaidProducts {
		if p == product {
			return true
		}
	}
	return false
}

// Unlink removes the stored aggregation credentials. With resetData the
// synced transactions and accounts plus all derived bills/incomes are purged
// in the same unit.
func (s *Service) Unlink(ctx context.Context, userID int64, resetData bool) (string, error) {
	err := s.store.WithinTx(ctx, func(store repository.Store) error {
		if err := store.SetPlaidCredentials(ctx, userID, nil, nil); err != nil {
			return err
		}
		if !resetData {
			return nil
		}
		if err := store.DeleteTransactionsByUser(ctx, userID); err != nil {
			return err
		}
		if err := store.DeleteAccountsByUser(ctx, userID); err != nil {
			return err
		}
		if err := store.DeleteDerivedBillsByUser(ctx, userID); err != nil {
			return err
		}
		return store.DeleteDerivedIncomesByUser(ctx, userID)
	})
	if err != nil {
		s.log.Errorf("Failed to unlink aggregation item: %v", err)
		return "", fmt.Errorf("failed to unlink: %w", err)
	}
	return "Bank connection removed.", nil
}

// FetchAccounts pulls account data from the aggregation API and stores it
func (s *Service) FetchAccounts(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := s.accessToken(user)
	if err != nil {
		return "", err
	}

	accounts, err := s.client.GetAccounts(ctx, token)
	if err != nil {
		s.log.Errorf("Error fetching accounts: %v", err)
		return "", fmt.Errorf("error fetching accounts: %w", err)
	}

	syncedAt := s.now()
	err = s.store.WithinTx(ctx, func(store repository.Store) error {
		for _, data := range accounts {
			existing, err := store.FindAccountByPlaidID(ctx, userID, data.AccountID)
			if errors.Is(err, repository.ErrNotFound) {
				account := &models.Account{
					UserID:          userID,
					PlaidAccountID:  data.AccountID,
					Name:            data.Name,
					OfficialName:    data.OfficialName,
					Type:            data.Type,
					Subtype:         data.Subtype,
					Mask:            data.Mask,
					ISOCurrencyCode: data.ISOCurrencyCode,
					LastSynced:      syncedAt,
				}
				if data.CurrentBalance != nil {
					account.CurrentBalance = *data.CurrentBalance
				}
				account.AvailableBalance = data.AvailableBalance
				if err := store.CreateAccount(ctx, account); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			current := existing.CurrentBalance
			if data.CurrentBalance != nil {
				current = *data.CurrentBalance
			}
			if err := store.UpdateAccountBalances(ctx, existing.ID, current,
				data.AvailableBalance, data.ISOCurrencyCode, syncedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Error storing accounts: %v", err)
		return "", fmt.Errorf("error fetching accounts: %w", err)
	}
	return "Accounts updated successfully", nil
}

// FetchTransactions pulls transaction data for the date range (defaulting to
// the last 30 days) and runs recurring-bill detection over the result.
func (s *Service) FetchTransactions(ctx context.Context, userID int64, start, end time.Time) (string, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := s.accessToken(user)
	if err != nil {
		return "", err
	}

	if end.IsZero() {
		end = s.now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}

	txns, err := s.client.GetTransactions(ctx, token, start, end)
	if err != nil {
		if errors.Is(err, plaid.ErrProductNotReady) {
			s.log.Warn("Transactions product not ready yet; advising retry")
			return "", ErrTransactionsNotReady
		}
		s.log.Errorf("Error fetching transactions: %v", err)
		return "", fmt.Errorf("error fetching transactions: %w", err)
	}

	err = s.store.WithinTx(ctx, func(store repository.Store) error {
		accounts, err := store.ListAccountsByUser(ctx, userID)
		if err != nil {
			return err
		}
		accountIDs := make(map[string]int64, len(accounts))
		for _, account := range accounts {
			accountIDs[account.PlaidAccountID] = account.ID
		}

		for _, data := range txns {
			accountID, ok := accountIDs[data.AccountID]
			if !ok {
				// Transactions for accounts we have not stored are skipped.
				continue
			}

			existing, err := store.FindTransactionByPlaidID(ctx, data.TransactionID)
			if errors.Is(err, repository.ErrNotFound) {
				txn := &models.Transaction{
					UserID:             userID,
					AccountID:          accountID,
					PlaidTransactionID: data.TransactionID,
					Name:               data.Name,
					Amount:             data.Amount,
					Date:               data.Date,
					Pending:            data.Pending,
					Category:           data.Category,
					CategoryID:         data.CategoryID,
					PaymentChannel:     data.PaymentChannel,
					MerchantName:       data.MerchantName,
					Location:           data.Location,
				}
				if err := store.CreateTransaction(ctx, txn); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			existing.Name = data.Name
			existing.Amount = data.Amount
			existing.Date = data.Date
			existing.Pending = data.Pending
			existing.Category = data.Category
			existing.CategoryID = data.CategoryID
			existing.PaymentChannel = data.PaymentChannel
			existing.MerchantName = data.MerchantName
			existing.Location = data.Location
			if err := store.UpdateTransactionDetails(ctx, existing); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Error storing transactions: %v", err)
		return "", fmt.Errorf("error fetching transactions: %w", err)
	}

	if _, err := s.DetectRecurring(ctx, userID); err != nil {
		return "", err
	}
	return "Transactions updated successfully", nil
}

// FetchLiabilities pulls the liability snapshot and syncs it into bills
func (s *Service) FetchLiabilities(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := s.accessToken(user)
	if err != nil {
		return "", err
	}

	snapshot, err := s.client.GetLiabilities(ctx, token)
	if err != nil {
		s.log.Errorf("Error fetching liabilities: %v", err)
		return "", fmt.Errorf("error fetching liabilities: %w", err)
	}

	created, updated, err := s.SyncLiabilities(ctx, userID, snapshot)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Liabilities updated (created %d, updated %d)", created, updated), nil
}

// HandleTransactionsWebhook reacts to an upstream transactions webhook by
// refreshing the owning user's transactions.
func (s *Service) HandleTransactionsWebhook(ctx context.Context, itemID string) error {
	user, err := s.store.FindUserByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	s.log.Infof("Webhook transaction refresh for user %d", user.ID)
	_, err = s.FetchTransactions(ctx, user.ID, time.Time{}, time.Time{})
	return err
}

// HandlePermissionRevoked clears stored credentials after the user revoked
// access upstream.
func (s *Service) HandlePermissionRevoked(ctx context.Context, itemID string) error {
	user, err := s.store.FindUserByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	s.log.Infof("Permissions revoked for user %d", user.ID)
	return s.store.SetPlaidCredentials(ctx, user.ID, nil, nil)
}

// ImportStatement imports an OFX statement into an account the user owns,
// then runs recurring detection over the updated history. Returns the number
// of imported transactions.
func (s *Service) ImportStatement(ctx context.Context, userID, accountID int64, data []byte) (int, error) {
	account, err := s.store.FindAccountByID(ctx, userID, accountID)
	if err != nil {
		return 0, err
	}

	entries, err := ofx.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("failed to import statement: %w", err)
	}

	imported := 0
	err = s.store.WithinTx(ctx, func(store repository.Store) error {
		for _, entry := range entries {
			upstreamID := "OFX-" + entry.FitID
			existing, err := store.FindTransactionByPlaidID(ctx, upstreamID)
			if errors.Is(err, repository.ErrNotFound) {
				txn := &models.Transaction{
					UserID:             userID,
					AccountID:          account.ID,
					PlaidTransactionID: upstreamID,
					Name:               entry.Name,
					Amount:             entry.Amount,
					Date:               entry.Posted,
				}
				if entry.Memo != "" && entry.Memo != entry.Name {
					txn.Notes = strPtr(entry.Memo)
				}
				if err := store.CreateTransaction(ctx, txn); err != nil {
					return err
				}
				imported++
				continue
			}
			if err != nil {
				return err
			}

			existing.Name = entry.Name
			existing.Amount = entry.Amount
			existing.Date = entry.Posted
			if err := store.UpdateTransactionDetails(ctx, existing); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Error importing statement: %v", err)
		return 0, fmt.Errorf("failed to import statement: %w", err)
	}

	if _, err := s.DetectRecurring(ctx, userID); err != nil {
		return imported, err
	}
	return imported, nil
}

// ManualUpstreamID tags manually entered accounts and transactions so they
// are distinguishable from synced ones.
func ManualUpstreamID() string {
	return "MANUAL-" + uuid.NewString()
}
