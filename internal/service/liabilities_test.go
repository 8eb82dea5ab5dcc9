package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/integrations/plaid"
	"github.com/billpayhq/billpay-service/internal/models"
)

func TestSyncLiabilitiesCreatesBills(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	due := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	snapshot := plaid.LiabilitySnapshot{
		AccountNames: map[string]string{
			"cc-1":   "Platinum Card",
			"mort-1": "Home Loan",
		},
		Credit: []plaid.CreditLiability{
			{AccountID: "cc-1", MinimumPaymentAmount: decimalPtr("35.00"), NextPaymentDueDate: &due},
			// falls back to the statement balance
			{AccountID: "cc-2", LastStatementBalance: decimalPtr("410.25"), NextPaymentDueDate: &due},
			// no due date: skipped
			{AccountID: "cc-3", MinimumPaymentAmount: decimalPtr("25.00")},
		},
		Student: []plaid.StudentLiability{
			{AccountID: "sl-1", LoanName: strPtr("Federal Loan"), MinimumPaymentAmount: decimalPtr("150.00"), NextPaymentDueDate: &due},
		},
		Mortgage: []plaid.MortgageLiability{
			{AccountID: "mort-1", NextMonthlyPayment: decimalPtr("1900.00"), NextPaymentDueDate: &due},
		},
	}

	created, updated, err := svc.SyncLiabilities(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("SyncLiabilities: %v", err)
	}
	if created != 4 || updated != 0 {
		t.Fatalf("created=%d updated=%d, want 4/0", created, updated)
	}

	byUpstream := make(map[string]*models.Bill)
	for _, bill := range store.bills {
		byUpstream[*bill.PlaidBillID] = bill
	}

	cc := byUpstream["cc-1"]
	if cc == nil || cc.Name != "Platinum Card Payment" {
		t.Fatalf("cc-1 bill = %+v", cc)
	}
	if !cc.Amount.Equal(decimal.RequireFromString("35.00")) {
		t.Errorf("cc-1 amount = %s", cc.Amount)
	}
	if cc.Category == nil || *cc.Category != "Credit Card" {
		t.Errorf("cc-1 category = %v", cc.Category)
	}

	if fallback := byUpstream["cc-2"]; fallback == nil ||
		!fallback.Amount.Equal(decimal.RequireFromString("410.25")) {
		t.Errorf("cc-2 should use statement balance, got %+v", fallback)
	}
	if _, exists := byUpstream["cc-3"]; exists {
		t.Error("cc-3 without a due date should be skipped")
	}
	if student := byUpstream["sl-1"]; student == nil || student.Name != "Federal Loan Payment" {
		t.Errorf("sl-1 bill = %+v", student)
	}
	if mortgage := byUpstream["mort-1"]; mortgage == nil || mortgage.Name != "Home Loan Payment" {
		t.Errorf("mort-1 bill = %+v", mortgage)
	}
}

func TestSyncLiabilitiesUpdatesOnRealChange(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	due := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	snapshot := plaid.LiabilitySnapshot{
		Credit: []plaid.CreditLiability{
			{AccountID: "cc-1", MinimumPaymentAmount: decimalPtr("35.00"), NextPaymentDueDate: &due},
		},
	}
	if _, _, err := svc.SyncLiabilities(context.Background(), 1, snapshot); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	// sub-cent drift: no write
	snapshot.Credit[0].MinimumPaymentAmount = decimalPtr("35.005")
	created, updated, err := svc.SyncLiabilities(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("noise sync: %v", err)
	}
	if created != 0 || updated != 0 {
		t.Fatalf("noise sync created=%d updated=%d, want 0/0", created, updated)
	}

	// real amount change
	snapshot.Credit[0].MinimumPaymentAmount = decimalPtr("42.00")
	_, updated, err = svc.SyncLiabilities(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("amount sync: %v", err)
	}
	if updated != 1 {
		t.Fatalf("amount change updated=%d, want 1", updated)
	}
	if !store.bills[0].Amount.Equal(decimal.RequireFromString("42.00")) {
		t.Errorf("bill amount = %s", store.bills[0].Amount)
	}

	// due date change alone also updates
	newDue := due.AddDate(0, 1, 0)
	snapshot.Credit[0].NextPaymentDueDate = &newDue
	_, updated, err = svc.SyncLiabilities(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("due-date sync: %v", err)
	}
	if updated != 1 {
		t.Fatalf("due-date change updated=%d, want 1", updated)
	}
	if !store.bills[0].DueDate.Equal(newDue) {
		t.Errorf("bill due date = %s", store.bills[0].DueDate)
	}

	if len(store.bills) != 1 {
		t.Fatalf("re-syncs must not duplicate bills, got %d", len(store.bills))
	}
}

func TestSyncLiabilitiesPreservesUserStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	due := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	snapshot := plaid.LiabilitySnapshot{
		Credit: []plaid.CreditLiability{
			{AccountID: "cc-1", MinimumPaymentAmount: decimalPtr("35.00"), NextPaymentDueDate: &due},
		},
	}
	if _, _, err := svc.SyncLiabilities(context.Background(), 1, snapshot); err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	store.bills[0].Status = models.BillStatusPaid

	snapshot.Credit[0].MinimumPaymentAmount = decimalPtr("50.00")
	if _, _, err := svc.SyncLiabilities(context.Background(), 1, snapshot); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if store.bills[0].Status != models.BillStatusPaid {
		t.Errorf("sync overwrote user-set status: %q", store.bills[0].Status)
	}
}
