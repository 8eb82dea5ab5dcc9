package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/utils"
)

// Average paychecks per month for the naive all-sources estimate.
var (
	weeklyPerMonth   = decimal.RequireFromString("4.33")
	biweeklyPerMonth = decimal.RequireFromString("2.17")
)

// IncomeProjection summarizes expected pay for one calendar month.
type IncomeProjection struct {
	Total      decimal.Decimal `json:"total"`
	Actual     bool            `json:"actual"`
	PayAnchors int             `json:"pay_anchors"`
	Recorded   int             `json:"recorded_paychecks"`
}

// MonthlyIncomeEstimate projects take-home income for a month with
// payAnchorCount paydays. Paychecks on a weekly or bi-weekly cadence count
// toward the anchors; once a paycheck has been recorded for every anchor the
// recorded sum is final and no projection is applied. Until then the
// projected total is the average recorded paycheck times the anchor count.
// Monthly incomes are added at face value either way.
func MonthlyIncomeEstimate(incomes []models.Income, payAnchorCount int) (decimal.Decimal, bool) {
	var (
		periodicSum   decimal.Decimal
		periodicCount int
		monthlyTotal  decimal.Decimal
	)
	for _, income := range incomes {
		switch income.Frequency {
		case models.FrequencyWeekly, models.FrequencyBiWeekly:
			periodicSum = periodicSum.Add(income.TakeHome())
			periodicCount++
		case models.FrequencyMonthly:
			monthlyTotal = monthlyTotal.Add(income.TakeHome())
		}
	}

	if periodicCount >= payAnchorCount && periodicCount > 0 {
		return periodicSum.Add(monthlyTotal), true
	}
	if periodicCount == 0 {
		return monthlyTotal, false
	}

	average := periodicSum.Div(decimal.NewFromInt(int64(periodicCount)))
	return average.Mul(decimal.NewFromInt(int64(payAnchorCount))).Add(monthlyTotal), false
}

// MonthlyIncomeSummary projects the user's take-home income for the month
// containing the service clock's current time.
func (s *Service) MonthlyIncomeSummary(ctx context.Context, userID int64) (IncomeProjection, error) {
	today := s.now()
	start, next := utils.MonthBounds(today.Year(), today.Month())
	anchors := utils.FridaysInMonth(today.Year(), today.Month())

	incomes, err := s.store.ListIncomesInRange(ctx, userID, start, next)
	if err != nil {
		return IncomeProjection{}, err
	}

	recorded := 0
	for _, income := range incomes {
		switch income.Frequency {
		case models.FrequencyWeekly, models.FrequencyBiWeekly:
			recorded++
		}
	}

	total, actual := MonthlyIncomeEstimate(incomes, anchors)
	return IncomeProjection{
		Total:      total,
		Actual:     actual,
		PayAnchors: anchors,
		Recorded:   recorded,
	}, nil
}

// EstimatedMonthlyIncome is the coarse all-sources estimate shown alongside
// the projection: each source's gross scaled by its cadence.
func EstimatedMonthlyIncome(incomes []models.Income) decimal.Decimal {
	var total decimal.Decimal
	for _, income := range incomes {
		switch income.Frequency {
		case models.FrequencyWeekly:
			total = total.Add(income.GrossAmount.Mul(weeklyPerMonth))
		case models.FrequencyBiWeekly:
			total = total.Add(income.GrossAmount.Mul(biweeklyPerMonth))
		case models.FrequencySemiMonthly:
			total = total.Add(income.GrossAmount.Mul(decimal.NewFromInt(2)))
		default:
			total = total.Add(income.GrossAmount)
		}
	}
	return total.Round(2)
}
