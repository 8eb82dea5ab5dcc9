package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	UserID    int64
	Start     time.Time
	End       time.Time
	Category  string
	AccountID int64
	Search    string
	Limit     int
}

// BillReminder pairs a due bill with the owning user's email for the
// reminder job.
type BillReminder struct {
	Email string
	Bill  models.Bill
}

// Store is the persistence contract the services depend on. Detector and
// synchronizer operations run inside WithinTx so each logical operation
// commits atomically or rolls back as a whole.
type Store interface {
	WithinTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByItemID(ctx context.Context, itemID string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	SetPlaidCredentials(ctx context.Context, userID int64, encryptedToken, itemID *string) error

	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccountByID(ctx context.Context, userID, id int64) (*models.Account, error)
	FindAccountByPlaidID(ctx context.Context, userID int64, plaidAccountID string) (*models.Account, error)
	ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error)
	UpdateAccountBalances(ctx context.Context, id int64, current decimal.Decimal, available *decimal.Decimal, currency string, syncedAt time.Time) error
	SumAccountBalances(ctx context.Context, userID int64) (decimal.Decimal, error)
	DeleteAccountsByUser(ctx context.Context, userID int64) error

	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransactionByPlaidID(ctx context.Context, plaidTransactionID string) (*models.Transaction, error)
	FindTransactionByID(ctx context.Context, userID, id int64) (*models.Transaction, error)
	UpdateTransactionDetails(ctx context.Context, txn *models.Transaction) error
	UpdateTransactionNotes(ctx context.Context, userID, id int64, notes string) error
	ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error)
	ListRecentNegativeTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	MarkTransactionRecurring(ctx context.Context, id int64) error
	DeleteTransactionsByUser(ctx context.Context, userID int64) error

	CreateBill(ctx context.Context, bill *models.Bill) error
	FindBillByID(ctx context.Context, userID, id int64) (*models.Bill, error)
	FindBillByNormalizedName(ctx context.Context, userID int64, name string) (*models.Bill, error)
	FindBillByPlaidBillID(ctx context.Context, userID int64, plaidBillID string) (*models.Bill, error)
	ListBillsByUser(ctx context.Context, userID int64) ([]models.Bill, error)
	ListUpcomingUnpaidBills(ctx context.Context, userID int64, from, to time.Time) ([]models.Bill, error)
	ListDueBillReminders(ctx context.Context, from, to time.Time) ([]BillReminder, error)
	UpdateBill(ctx context.Context, bill *models.Bill) error
	UpdateBillStatus(ctx context.Context, userID, id int64, status string) error
	UpdateBillPayment(ctx context.Context, id int64, amount decimal.Decimal, dueDate time.Time) error
	SumBillAmounts(ctx context.Context, userID int64) (decimal.Decimal, error)
	DeleteBill(ctx context.Context, userID, id int64) error
	DeleteDerivedBillsByUser(ctx context.Context, userID int64) error

	CreateIncome(ctx context.Context, income *models.Income) error
	FindIncomeByID(ctx context.Context, userID, id int64) (*models.Income, error)
	FindIncomeBySource(ctx context.Context, userID int64, source string) (*models.Income, error)
	ListIncomesByUser(ctx context.Context, userID int64) ([]models.Income, error)
	ListIncomesInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Income, error)
	UpdateIncome(ctx context.Context, income *models.Income) error
	UpdateIncomeDetected(ctx context.Context, id int64, gross, net decimal.Decimal, date time.Time) error
	DeleteIncome(ctx context.Context, userID, id int64) error
	DeleteDerivedIncomesByUser(ctx context.Context, userID int64) error
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations
type Repository struct {
	db *sql.DB // nil when the repository is bound to a transaction
	q  DBTX
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// WithinTx runs fn against a repository bound to a single database
// transaction, committing on success and rolling back on any error. Nested
// calls reuse the enclosing transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(Store) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Repository{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
