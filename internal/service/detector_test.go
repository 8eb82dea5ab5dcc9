package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

func addTransaction(store *fakeStore, userID int64, name string, amount string, date time.Time, category *string) *models.Transaction {
	txn := &models.Transaction{
		UserID:             userID,
		AccountID:          1,
		PlaidTransactionID: "txn-" + name + date.Format("20060102"),
		Name:               name,
		Amount:             decimal.RequireFromString(amount),
		Date:               date,
		Category:           category,
	}
	_ = store.CreateTransaction(context.Background(), txn)
	return txn
}

func TestDetectRecurringCreatesBill(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	category := "Entertainment"
	addTransaction(store, 1, "Netflix", "-15.99", time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC), &category)
	addTransaction(store, 1, "NETFLIX", "-16.49", time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC), nil)
	addTransaction(store, 1, "One-off store", "-50.00", time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC), nil)

	message, err := svc.DetectRecurring(context.Background(), 1)
	if err != nil {
		t.Fatalf("DetectRecurring: %v", err)
	}
	if message != "Recurring transactions detected" {
		t.Errorf("unexpected message %q", message)
	}

	if len(store.bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(store.bills))
	}
	bill := store.bills[0]
	if bill.Name != "Netflix" {
		t.Errorf("bill name = %q, want Netflix", bill.Name)
	}
	if want := decimal.RequireFromString("16.24"); !bill.Amount.Equal(want) {
		t.Errorf("bill amount = %s, want %s", bill.Amount, want)
	}
	if got := bill.DueDate; !got.Equal(time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bill due date = %s", got)
	}
	if bill.Status != models.BillStatusPaid {
		t.Errorf("bill status = %q, want paid (latest occurrence already passed)", bill.Status)
	}
	if bill.Category == nil || *bill.Category != "Entertainment" {
		t.Errorf("bill category = %v, want Entertainment", bill.Category)
	}
	if !bill.Derived() {
		t.Error("detected bill should be marked derived")
	}

	for _, txn := range store.transactions {
		isNetflix := normalizeName(txn.Name) == "netflix"
		if txn.IsRecurring != isNetflix {
			t.Errorf("transaction %q recurring = %v", txn.Name, txn.IsRecurring)
		}
	}
}

func TestDetectRecurringFutureDueStaysUnpaid(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	addTransaction(store, 1, "Gym", "-40.00", time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC), nil)
	addTransaction(store, 1, "Gym", "-40.00", time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC), nil)

	if _, err := svc.DetectRecurring(context.Background(), 1); err != nil {
		t.Fatalf("DetectRecurring: %v", err)
	}
	if len(store.bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(store.bills))
	}
	if got := store.bills[0].Status; got != models.BillStatusUnpaid {
		t.Errorf("bill status = %q, want unpaid", got)
	}
}

func TestDetectRecurringLeavesExistingBillAlone(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	addTransaction(store, 1, "Netflix", "-15.99", time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC), nil)
	addTransaction(store, 1, "Netflix", "-16.49", time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC), nil)

	edited := decimal.RequireFromString("20.00")
	_ = store.CreateBill(context.Background(), &models.Bill{
		UserID:      1,
		PlaidBillID: strPtr("recurring:netflix"),
		Name:        "Netflix",
		Amount:      edited,
		DueDate:     time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		Frequency:   "monthly",
		Status:      models.BillStatusUnpaid,
	})

	if _, err := svc.DetectRecurring(context.Background(), 1); err != nil {
		t.Fatalf("DetectRecurring: %v", err)
	}
	if len(store.bills) != 1 {
		t.Fatalf("expected existing bill to be reused, got %d bills", len(store.bills))
	}
	if !store.bills[0].Amount.Equal(edited) {
		t.Errorf("existing bill amount changed to %s", store.bills[0].Amount)
	}
}

func TestDetectRecurringIgnoresDepositsAndSingles(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	// positive amounts and single occurrences never become bills
	addTransaction(store, 1, "Refund", "25.00", time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), nil)
	addTransaction(store, 1, "Refund", "25.00", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), nil)
	addTransaction(store, 1, "Dentist", "-120.00", time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC), nil)

	if _, err := svc.DetectRecurring(context.Background(), 1); err != nil {
		t.Fatalf("DetectRecurring: %v", err)
	}
	if len(store.bills) != 0 {
		t.Fatalf("expected no bills, got %d", len(store.bills))
	}
}
