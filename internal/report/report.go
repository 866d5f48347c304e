// Package report computes summaries and budget reconciliation from already
// persisted rows. Every function here is a pure computation over its inputs:
// no state is held between calls, so reports are safe to recompute on every
// request.
package report

import (
	"math"
	"sort"

	"famledger/internal/core"
)

// Summary holds the income/expense rollup for a filtered record set.
type Summary struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Balance core.Money `json:"balance"`
}

// DirectionTotal is one row of a per-direction sum query.
type DirectionTotal struct {
	Direction core.Direction
	Cents     int64
}

// CategoryTotal is one row of a per-category grouped sum query.
type CategoryTotal struct {
	Category string
	Cents    int64
	Count    int64
}

// CategorySummaryItem is a category group enriched with its share of the
// grand total.
type CategorySummaryItem struct {
	Category   string     `json:"category"`
	Total      core.Money `json:"total"`
	Count      int64      `json:"count"`
	Percentage float64    `json:"percentage"`
}

// ActualKey matches recorded activity to budgets. Member is deliberately not
// part of the key: member-level budgets reconcile against the ledger-wide
// category total for that direction.
type ActualKey struct {
	Direction core.Direction
	Category  string
}

// BudgetExecutionRow is a budget enriched with actual spend for the
// reporting window.
type BudgetExecutionRow struct {
	core.Budget
	Actual       core.Money `json:"actual"`
	Remaining    core.Money `json:"remaining"`
	IsOverBudget bool       `json:"isOverBudget"`
	Percentage   float64    `json:"percentage"`
}

// MonthFigure is the budget figure for a single month, either set explicitly
// or derived from a yearly budget.
type MonthFigure struct {
	Amount   core.Money `json:"amount"`
	Explicit bool       `json:"explicit"`
}

// MonthlyBudgetRow is the twelve-month budget view for one category and
// direction within a year.
type MonthlyBudgetRow struct {
	Direction core.Direction  `json:"direction"`
	Category  string          `json:"category"`
	Months    [12]MonthFigure `json:"months"`
}

// Summarize folds per-direction totals into a Summary. An empty input yields
// the all-zero summary, never an error.
func Summarize(totals []DirectionTotal) Summary {
	var s Summary
	for _, t := range totals {
		switch t.Direction {
		case core.Income:
			s.Income.Cents += t.Cents
		case core.Expense:
			s.Expense.Cents += t.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - s.Expense.Cents
	return s
}

// CategoryBreakdown enriches category groups with counts and percentages of
// the grand total. The groups partition one filtered record set, so the grand
// total is exactly the sum of the group totals. Groups are ordered by total
// descending, ties broken by category ascending. When the grand total is zero
// every percentage is zero; no group is dropped.
func CategoryBreakdown(groups []CategoryTotal) []CategorySummaryItem {
	var grandTotal int64
	for _, g := range groups {
		grandTotal += g.Cents
	}

	items := make([]CategorySummaryItem, 0, len(groups))
	for _, g := range groups {
		item := CategorySummaryItem{
			Category: g.Category,
			Total:    core.Money{Cents: g.Cents},
			Count:    g.Count,
		}
		if grandTotal != 0 {
			item.Percentage = round2(float64(g.Cents) / float64(grandTotal) * 100)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Total.Cents != items[j].Total.Cents {
			return items[i].Total.Cents > items[j].Total.Cents
		}
		return items[i].Category < items[j].Category
	})
	return items
}

// BudgetExecution enriches every budget with the actual activity recorded in
// the reporting window. Budgets with no matching activity still appear with a
// zero actual. Matching is by (direction, category) only; see ActualKey.
func BudgetExecution(budgets []core.Budget, actual map[ActualKey]int64) []BudgetExecutionRow {
	rows := make([]BudgetExecutionRow, 0, len(budgets))
	for _, b := range budgets {
		act := actual[ActualKey{Direction: b.Direction, Category: b.Category}]
		row := BudgetExecutionRow{
			Budget:       b,
			Actual:       core.Money{Cents: act},
			Remaining:    core.Money{Cents: b.Amount.Cents - act},
			IsOverBudget: b.Amount.Cents-act < 0,
		}
		if b.Amount.Cents > 0 {
			row.Percentage = round2(float64(act) / float64(b.Amount.Cents) * 100)
		}
		rows = append(rows, row)
	}
	return rows
}

// MonthlyBudgets derives the per-month budget figure for every category and
// direction budgeted in the given year.
//
// Months with an explicit monthly budget keep it. For the remaining months the
// yearly budget, minus what the explicit months already claim, is distributed
// evenly: derived = (totalYearly - totalMonthlySet) / monthsWithoutBudget.
// With no unbudgeted months the derived figure is zero. This is a view-time
// derivation recomputed on every call, never persisted.
//
// Quarterly budgets do not participate in the distribution.
func MonthlyBudgets(budgets []core.Budget, year int) []MonthlyBudgetRow {
	type group struct {
		monthly [12]int64
		hasSet  [12]bool
		yearly  int64
	}
	groups := make(map[ActualKey]*group)

	get := func(b core.Budget) *group {
		k := ActualKey{Direction: b.Direction, Category: b.Category}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}
		return g
	}

	for _, b := range budgets {
		if b.Date.Year() != year {
			continue
		}
		switch b.Period {
		case core.Monthly:
			g := get(b)
			m := b.Date.Month() - 1
			g.monthly[m] += b.Amount.Cents
			g.hasSet[m] = true
		case core.Yearly:
			get(b).yearly += b.Amount.Cents
		}
	}

	rows := make([]MonthlyBudgetRow, 0, len(groups))
	for k, g := range groups {
		var totalMonthlySet int64
		monthsWithoutBudget := 0
		for m := 0; m < 12; m++ {
			if g.hasSet[m] {
				totalMonthlySet += g.monthly[m]
			} else {
				monthsWithoutBudget++
			}
		}

		var derived int64
		if monthsWithoutBudget > 0 {
			derived = (g.yearly - totalMonthlySet) / int64(monthsWithoutBudget)
		}

		row := MonthlyBudgetRow{Direction: k.Direction, Category: k.Category}
		for m := 0; m < 12; m++ {
			if g.hasSet[m] {
				row.Months[m] = MonthFigure{Amount: core.Money{Cents: g.monthly[m]}, Explicit: true}
			} else {
				row.Months[m] = MonthFigure{Amount: core.Money{Cents: derived}}
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Direction != rows[j].Direction {
			return rows[i].Direction < rows[j].Direction
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
