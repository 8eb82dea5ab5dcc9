package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
	"github.com/billpayhq/billpay-service/internal/utils"
)

// CategoryTotal is one slice of the monthly spending breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// DashboardOverview aggregates the numbers the landing page shows.
type DashboardOverview struct {
	NetWorth           decimal.Decimal      `json:"net_worth"`
	MonthlyIncome      IncomeProjection     `json:"monthly_income"`
	MonthlyBillTotal   decimal.Decimal      `json:"monthly_bill_total"`
	UpcomingBills      []models.Bill        `json:"upcoming_bills"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	MonthIncomeTotal   decimal.Decimal      `json:"month_income_total"`
	MonthExpenseTotal  decimal.Decimal      `json:"month_expense_total"`
	TopCategories      []CategoryTotal      `json:"top_categories"`
}

const (
	upcomingBillWindowDays = 30
	recentTransactionCount = 5
	topCategoryCount       = 5
)

// DashboardData assembles the overview for the current calendar month.
// Month totals follow the ledger convention: incoming amounts are positive,
// outgoing amounts negative.
func (s *Service) DashboardData(ctx context.Context, userID int64) (*DashboardOverview, error) {
	today := s.now()
	monthStart, nextMonth := utils.MonthBounds(today.Year(), today.Month())

	netWorth, err := s.NetWorth(ctx, userID)
	if err != nil {
		return nil, err
	}
	projection, err := s.MonthlyIncomeSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	billTotal, err := s.store.SumBillAmounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.UpcomingBills(ctx, userID, upcomingBillWindowDays)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.ListTransactions(ctx, repository.TransactionFilter{
		UserID: userID,
		Limit:  recentTransactionCount,
	})
	if err != nil {
		return nil, err
	}
	monthTxns, err := s.store.ListTransactions(ctx, repository.TransactionFilter{
		UserID: userID,
		Start:  monthStart,
		End:    nextMonth.AddDate(0, 0, -1),
	})
	if err != nil {
		return nil, err
	}

	var incomeTotal, expenseTotal decimal.Decimal
	spending := make(map[string]decimal.Decimal)
	for _, txn := range monthTxns {
		if txn.Amount.IsPositive() {
			incomeTotal = incomeTotal.Add(txn.Amount)
			continue
		}
		expense := txn.Amount.Abs()
		expenseTotal = expenseTotal.Add(expense)
		category := "Uncategorized"
		if txn.Category != nil && *txn.Category != "" {
			category = *txn.Category
		}
		spending[category] = spending[category].Add(expense)
	}

	categories := make([]CategoryTotal, 0, len(spending))
	for _, name := range sortedKeys(spending) {
		categories = append(categories, CategoryTotal{Category: name, Total: spending[name]})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Total.GreaterThan(categories[j].Total)
	})
	if len(categories) > topCategoryCount {
		categories = categories[:topCategoryCount]
	}

	return &DashboardOverview{
		NetWorth:           netWorth,
		MonthlyIncome:      projection,
		MonthlyBillTotal:   billTotal,
		UpcomingBills:      upcoming,
		RecentTransactions: recent,
		MonthIncomeTotal:   incomeTotal,
		MonthExpenseTotal:  expenseTotal,
		TopCategories:      categories,
	}, nil
}
