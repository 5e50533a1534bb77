package projection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcaldwell/ledgerline/pkg/finance"
)

var hundred = decimal.NewFromInt(100)

func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Mul(hundred).Div(whole).Round(1).InexactFloat64()
}

type BudgetStatus struct {
	Budget    finance.Budget  `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   float64         `json:"percent"`
	Over      bool            `json:"over"`
}

// BudgetProgress compares budgets covering month against spend per category.
// A budget for that specific month replaces the every-month budget of the
// same category.
func BudgetProgress(budgets []finance.Budget, spent map[string]decimal.Decimal, month time.Time) []BudgetStatus {
	chosen := map[string]finance.Budget{}
	order := []string{}

	for _, b := range budgets {
		if !b.AppliesTo(month) {
			continue
		}

		key := strings.ToLower(b.Category)
		existing, ok := chosen[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || (existing.Month == nil && b.Month != nil) {
			chosen[key] = b
		}
	}

	byCategory := map[string]decimal.Decimal{}
	for category, amount := range spent {
		key := strings.ToLower(category)
		if existing, ok := byCategory[key]; ok {
			amount = existing.Add(amount)
		}
		byCategory[key] = amount
	}

	statuses := make([]BudgetStatus, 0, len(order))
	for _, key := range order {
		b := chosen[key]
		s, ok := byCategory[key]
		if !ok {
			s = decimal.Zero
		}

		statuses = append(statuses, BudgetStatus{
			Budget:    b,
			Spent:     s,
			Remaining: b.Amount.Sub(s),
			Percent:   percent(s, b.Amount),
			Over:      s.GreaterThan(b.Amount),
		})
	}

	return statuses
}

type GoalStatus struct {
	Goal          finance.SavingsGoal `json:"goal"`
	Percent       float64             `json:"percent"`
	Remaining     decimal.Decimal     `json:"remaining"`
	Complete      bool                `json:"complete"`
	MonthsLeft    int                 `json:"months_left"`
	MonthlyNeeded decimal.Decimal     `json:"monthly_needed"`
}

// GoalProgress reports how far a goal is and what monthly contribution reaches
// it by its target date. Goals without a target date need nothing monthly.
func GoalProgress(goal finance.SavingsGoal, today time.Time) GoalStatus {
	remaining := goal.TargetAmount.Sub(goal.CurrentAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	status := GoalStatus{
		Goal:          goal,
		Percent:       percent(goal.CurrentAmount, goal.TargetAmount),
		Remaining:     remaining,
		Complete:      remaining.IsZero(),
		MonthlyNeeded: decimal.Zero,
	}

	if status.Complete || goal.TargetDate == nil {
		return status
	}

	status.MonthsLeft = monthsUntil(today, *goal.TargetDate)
	if status.MonthsLeft == 0 {
		status.MonthlyNeeded = remaining
		return status
	}

	status.MonthlyNeeded = finance.Round(remaining.Div(decimal.NewFromInt(int64(status.MonthsLeft))), 2)
	return status
}

// monthsUntil counts started months between today and target, 0 once target
// has passed.
func monthsUntil(today, target time.Time) int {
	if !target.After(today) {
		return 0
	}

	months := (target.Year()-today.Year())*12 + int(target.Month()) - int(today.Month())
	if target.Day() > today.Day() {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

type HoldingStatus struct {
	Investment  finance.Investment `json:"investment"`
	Value       decimal.Decimal    `json:"value"`
	Cost        decimal.Decimal    `json:"cost"`
	Gain        decimal.Decimal    `json:"gain"`
	GainPercent float64            `json:"gain_percent"`
}

type PortfolioTotals struct {
	Value       decimal.Decimal `json:"value"`
	Cost        decimal.Decimal `json:"cost"`
	Gain        decimal.Decimal `json:"gain"`
	GainPercent float64         `json:"gain_percent"`
}

type Portfolio struct {
	Holdings []HoldingStatus `json:"holdings"`
	// Totals are kept per currency, holdings are never converted here.
	Totals map[string]PortfolioTotals `json:"totals"`
}

func PortfolioSummary(investments []finance.Investment) Portfolio {
	p := Portfolio{
		Holdings: make([]HoldingStatus, 0, len(investments)),
		Totals:   map[string]PortfolioTotals{},
	}

	for _, inv := range investments {
		value := inv.MarketValue()
		cost := inv.CostBasis()
		gain := value.Sub(cost)

		p.Holdings = append(p.Holdings, HoldingStatus{
			Investment:  inv,
			Value:       value,
			Cost:        cost,
			Gain:        gain,
			GainPercent: percent(gain, cost),
		})

		totals, ok := p.Totals[inv.Currency]
		if !ok {
			totals = PortfolioTotals{Value: decimal.Zero, Cost: decimal.Zero, Gain: decimal.Zero}
		}
		totals.Value = totals.Value.Add(value)
		totals.Cost = totals.Cost.Add(cost)
		totals.Gain = totals.Gain.Add(gain)
		p.Totals[inv.Currency] = totals
	}

	for currency, totals := range p.Totals {
		totals.GainPercent = percent(totals.Gain, totals.Cost)
		p.Totals[currency] = totals
	}

	return p
}
