package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/config"
	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
	"github.com/billpayhq/billpay-service/internal/vault"
)

// fakeStore is an in-memory Store for service tests. Only the behavior the
// detectors and synchronizers depend on is modeled; listing order matches
// the SQL the real repository runs.
type fakeStore struct {
	nextID       int64
	users        map[int64]*models.User
	accounts     []*models.Account
	transactions []*models.Transaction
	bills        []*models.Bill
	incomes      []*models.Income
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID: 1,
		users:  make(map[int64]*models.User),
	}
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	user.ID = f.id()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindUserByItemID(_ context.Context, itemID string) (*models.User, error) {
	for _, user := range f.users {
		if user.ItemID != nil && *user.ItemID == itemID {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeStore) SetPlaidCredentials(_ context.Context, userID int64, encryptedToken, itemID *string) error {
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.AccessToken = encryptedToken
	user.ItemID = itemID
	return nil
}

func (f *fakeStore) CreateAccount(_ context.Context, account *models.Account) error {
	account.ID = f.id()
	f.accounts = append(f.accounts, account)
	return nil
}

func (f *fakeStore) FindAccountByID(_ context.Context, userID, id int64) (*models.Account, error) {
	for _, account := range f.accounts {
		if account.ID == id && account.UserID == userID {
			return account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindAccountByPlaidID(_ context.Context, userID int64, plaidAccountID string) (*models.Account, error) {
	for _, account := range f.accounts {
		if account.UserID == userID && account.PlaidAccountID == plaidAccountID {
			return account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListAccountsByUser(_ context.Context, userID int64) ([]models.Account, error) {
	var out []models.Account
	for _, account := range f.accounts {
		if account.UserID == userID {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAccountBalances(_ context.Context, id int64, current decimal.Decimal, available *decimal.Decimal, currency string, syncedAt time.Time) error {
	for _, account := range f.accounts {
		if account.ID == id {
			account.CurrentBalance = current
			account.AvailableBalance = available
			account.ISOCurrencyCode = currency
			account.LastSynced = syncedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) SumAccountBalances(_ context.Context, userID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, account := range f.accounts {
		if account.UserID == userID {
			total = total.Add(account.CurrentBalance)
		}
	}
	return total, nil
}

func (f *fakeStore) DeleteAccountsByUser(_ context.Context, userID int64) error {
	kept := f.accounts[:0]
	for _, account := range f.accounts {
		if account.UserID != userID {
			kept = append(kept, account)
		}
	}
	f.accounts = kept
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	txn.ID = f.id()
	f.transactions = append(f.transactions, txn)
	return nil
}

func (f *fakeStore) FindTransactionByPlaidID(_ context.Context, plaidTransactionID string) (*models.Transaction, error) {
	for _, txn := range f.transactions {
		if txn.PlaidTransactionID == plaidTransactionID {
			return txn, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindTransactionByID(_ context.Context, userID, id int64) (*models.Transaction, error) {
	for _, txn := range f.transactions {
		if txn.ID == id && txn.UserID == userID {
			return txn, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpdateTransactionDetails(_ context.Context, txn *models.Transaction) error {
	for i, stored := range f.transactions {
		if stored.ID == txn.ID {
			f.transactions[i] = txn
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) UpdateTransactionNotes(_ context.Context, userID, id int64, notes string) error {
	for _, txn := range f.transactions {
		if txn.ID == id && txn.UserID == userID {
			txn.Notes = &notes
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) ListTransactionsByUser(_ context.Context, userID int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.transactions {
		if txn.UserID == userID {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRecentNegativeTransactions(_ context.Context, userID int64, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.transactions {
		if txn.UserID == userID && txn.Amount.IsNegative() {
			out = append(out, *txn)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.transactions {
		if txn.UserID != filter.UserID {
			continue
		}
		if !filter.Start.IsZero() && txn.Date.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && txn.Date.After(filter.End) {
			continue
		}
		if filter.Category != "" && (txn.Category == nil || *txn.Category != filter.Category) {
			continue
		}
		if filter.AccountID != 0 && txn.AccountID != filter.AccountID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(txn.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *txn)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) MarkTransactionRecurring(_ context.Context, id int64) error {
	for _, txn := range f.transactions {
		if txn.ID == id {
			txn.IsRecurring = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) DeleteTransactionsByUser(_ context.Context, userID int64) error {
	kept := f.transactions[:0]
	for _, txn := range f.transactions {
		if txn.UserID != userID {
			kept = append(kept, txn)
		}
	}
	f.transactions = kept
	return nil
}

func (f *fakeStore) CreateBill(_ context.Context, bill *models.Bill) error {
	bill.ID = f.id()
	f.bills = append(f.bills, bill)
	return nil
}

func (f *fakeStore) FindBillByID(_ context.Context, userID, id int64) (*models.Bill, error) {
	for _, bill := range f.bills {
		if bill.ID == id && bill.UserID == userID {
			return bill, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindBillByNormalizedName(_ context.Context, userID int64, name string) (*models.Bill, error) {
	for _, bill := range f.bills {
		if bill.UserID == userID && strings.EqualFold(bill.Name, name) {
			return bill, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindBillByPlaidBillID(_ context.Context, userID int64, plaidBillID string) (*models.Bill, error) {
	for _, bill := range f.bills {
		if bill.UserID == userID && bill.PlaidBillID != nil && *bill.PlaidBillID == plaidBillID {
			return bill, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListBillsByUser(_ context.Context, userID int64) ([]models.Bill, error) {
	var out []models.Bill
	for _, bill := range f.bills {
		if bill.UserID == userID {
			out = append(out, *bill)
		}
	}
	return out, nil
}

func (f *fakeStore) ListUpcomingUnpaidBills(_ context.Context, userID int64, from, to time.Time) ([]models.Bill, error) {
	var out []models.Bill
	for _, bill := range f.bills {
		if bill.UserID == userID && bill.Status != models.BillStatusPaid &&
			!bill.DueDate.Before(from) && !bill.DueDate.After(to) {
			out = append(out, *bill)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDueBillReminders(_ context.Context, from, to time.Time) ([]repository.BillReminder, error) {
	var out []repository.BillReminder
	for _, bill := range f.bills {
		if bill.Status == models.BillStatusPaid || bill.DueDate.Before(from) || bill.DueDate.After(to) {
			continue
		}
		user, ok := f.users[bill.UserID]
		if !ok {
			continue
		}
		out = append(out, repository.BillReminder{Email: user.Email, Bill: *bill})
	}
	return out, nil
}

func (f *fakeStore) UpdateBill(_ context.Context, bill *models.Bill) error {
	for i, stored := range f.bills {
		if stored.ID == bill.ID {
			f.bills[i] = bill
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) UpdateBillStatus(_ context.Context, userID, id int64, status string) error {
	for _, bill := range f.bills {
		if bill.ID == id && bill.UserID == userID {
			bill.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) UpdateBillPayment(_ context.Context, id int64, amount decimal.Decimal, dueDate time.Time) error {
	for _, bill := range f.bills {
		if bill.ID == id {
			bill.Amount = amount
			bill.DueDate = dueDate
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) SumBillAmounts(_ context.Context, userID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, bill := range f.bills {
		if bill.UserID == userID {
			total = total.Add(bill.Amount)
		}
	}
	return total, nil
}

func (f *fakeStore) DeleteBill(_ context.Context, userID, id int64) error {
	for i, bill := range f.bills {
		if bill.ID == id && bill.UserID == userID {
			f.bills = append(f.bills[:i], f.bills[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) DeleteDerivedBillsByUser(_ context.Context, userID int64) error {
	kept := f.bills[:0]
	for _, bill := range f.bills {
		if bill.UserID == userID && bill.Derived() {
			continue
		}
		kept = append(kept, bill)
	}
	f.bills = kept
	return nil
}

func (f *fakeStore) CreateIncome(_ context.Context, income *models.Income) error {
	income.ID = f.id()
	f.incomes = append(f.incomes, income)
	return nil
}

func (f *fakeStore) FindIncomeByID(_ context.Context, userID, id int64) (*models.Income, error) {
	for _, income := range f.incomes {
		if income.ID == id && income.UserID == userID {
			return income, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindIncomeBySource(_ context.Context, userID int64, source string) (*models.Income, error) {
	for _, income := range f.incomes {
		if income.UserID == userID && income.Source == source {
			return income, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListIncomesByUser(_ context.Context, userID int64) ([]models.Income, error) {
	var out []models.Income
	for _, income := range f.incomes {
		if income.UserID == userID {
			out = append(out, *income)
		}
	}
	return out, nil
}

func (f *fakeStore) ListIncomesInRange(_ context.Context, userID int64, start, end time.Time) ([]models.Income, error) {
	var out []models.Income
	for _, income := range f.incomes {
		if income.UserID == userID && !income.Date.Before(start) && income.Date.Before(end) {
			out = append(out, *income)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateIncome(_ context.Context, income *models.Income) error {
	for i, stored := range f.incomes {
		if stored.ID == income.ID {
			f.incomes[i] = income
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) UpdateIncomeDetected(_ context.Context, id int64, gross, net decimal.Decimal, date time.Time) error {
	for _, income := range f.incomes {
		if income.ID == id {
			income.GrossAmount = gross
			income.NetAmount = &net
			income.Date = date
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) DeleteIncome(_ context.Context, userID, id int64) error {
	for i, income := range f.incomes {
		if income.ID == id && income.UserID == userID {
			f.incomes = append(f.incomes[:i], f.incomes[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) DeleteDerivedIncomesByUser(_ context.Context, userID int64) error {
	kept := f.incomes[:0]
	for _, income := range f.incomes {
		if income.UserID == userID && income.Derived() {
			continue
		}
		kept = append(kept, income)
	}
	f.incomes = kept
	return nil
}

var _ repository.Store = (*fakeStore)(nil)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		DepositMinAmount: decimal.NewFromInt(200),
		PlaidProducts:    []string{"transactions", "auth", "liabilities"},
	}
}

// newTestService wires a service against the fake store with a fixed clock.
func newTestService(store *fakeStore, now time.Time) *Service {
	log := testLogger()
	svc := NewService(store, nil, vault.New("", log), nil, testConfig(), log)
	svc.now = func() time.Time { return now }
	return svc
}
