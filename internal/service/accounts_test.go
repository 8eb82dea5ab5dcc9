package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

func addAccount(store *fakeStore, userID int64, name, accountType, upstreamID string, balance string) *models.Account {
	account := &models.Account{
		UserID:          userID,
		PlaidAccountID:  upstreamID,
		Name:            name,
		Type:            accountType,
		CurrentBalance:  decimal.RequireFromString(balance),
		ISOCurrencyCode: "USD",
	}
	_ = store.CreateAccount(context.Background(), account)
	return account
}

func TestListAccountsGroupsByType(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	addAccount(store, 1, "Checking", "depository", "acc-1", "1200.00")
	addAccount(store, 1, "Platinum Card", "credit", "acc-2", "-430.00")
	addAccount(store, 1, "Savings", "depository", "acc-3", "5000.00")
	addAccount(store, 2, "Other User", "depository", "acc-4", "99.00")

	groups, err := svc.ListAccounts(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Type != "depository" || len(groups[0].Accounts) != 2 {
		t.Errorf("first group = %q with %d accounts, want depository with 2", groups[0].Type, len(groups[0].Accounts))
	}
	if groups[1].Type != "credit" || len(groups[1].Accounts) != 1 {
		t.Errorf("second group = %q with %d accounts, want credit with 1", groups[1].Type, len(groups[1].Accounts))
	}
	for _, group := range groups {
		for _, acct := range group.Accounts {
			if acct.UserID != 1 {
				t.Errorf("account %q belongs to user %d", acct.Name, acct.UserID)
			}
		}
	}
}

func TestAccountDetailIncludesRecentTransactions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	checking := addAccount(store, 1, "Checking", "depository", "acc-1", "1200.00")
	other := addAccount(store, 1, "Savings", "depository", "acc-2", "5000.00")

	onChecking := addTransaction(store, 1, "Coffee", "-4.50", time.Date(2026, time.August, 18, 0, 0, 0, 0, time.UTC), nil)
	onChecking.AccountID = checking.ID
	onOther := addTransaction(store, 1, "Transfer", "-100.00", time.Date(2026, time.August, 19, 0, 0, 0, 0, time.UTC), nil)
	onOther.AccountID = other.ID

	detail, err := svc.Account(context.Background(), 1, checking.ID)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if detail.Account.Name != "Checking" {
		t.Errorf("account name = %q, want Checking", detail.Account.Name)
	}
	if len(detail.RecentTransactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(detail.RecentTransactions))
	}
	if detail.RecentTransactions[0].Name != "Coffee" {
		t.Errorf("transaction = %q, want Coffee", detail.RecentTransactions[0].Name)
	}
}

func TestCreateManualAccountDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	account, err := svc.CreateManualAccount(context.Background(), 1, ManualAccountInput{
		Name:           "Cash",
		Type:           "other",
		CurrentBalance: decimal.RequireFromString("75.00"),
	})
	if err != nil {
		t.Fatalf("CreateManualAccount: %v", err)
	}
	if account.ISOCurrencyCode != "USD" {
		t.Errorf("currency = %q, want USD", account.ISOCurrencyCode)
	}
	if !strings.HasPrefix(account.PlaidAccountID, "MANUAL-") {
		t.Errorf("upstream id = %q, want MANUAL- prefix", account.PlaidAccountID)
	}
}
