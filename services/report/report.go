package report

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/services/ledger"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

const places = 2

// FormatDecimal renders a sum with exactly two decimals, rounding half up.
// An absent sum renders as "0.00".
func FormatDecimal(value decimal.NullDecimal) string {
	if !value.Valid {
		return "0.00"
	}
	// Round is half away from zero, which is half up for non-negative sums.
	return value.Decimal.Round(places).StringFixed(places)
}

// FormatFloat is FormatDecimal for callers holding a float.
func FormatFloat(value *float64) string {
	if value == nil {
		return FormatDecimal(decimal.NullDecimal{})
	}
	return FormatDecimal(decimal.NullDecimal{Decimal: decimal.NewFromFloat(*value), Valid: true})
}

func formatSums(sums ledger.Sums) structs.NutrientTotals {
	return structs.NutrientTotals{
		TotalCalories: FormatDecimal(sums.TotalCalories),
		TotalCarbs:    FormatDecimal(sums.TotalCarbs),
		TotalProtein:  FormatDecimal(sums.TotalProtein),
		TotalFat:      FormatDecimal(sums.TotalFat),
	}
}

// Reporter reduces the entries of one (owner, date) into the response payload.
type Reporter struct {
	store ledger.Store
}

func NewReporter(store ledger.Store) *Reporter {
	return &Reporter{store: store}
}

// CalculateTotals groups the day's entries by meal slot and sums each group,
// then sums the whole day separately. Slots without entries are left out.
func (r *Reporter) CalculateTotals(ctx context.Context, owner, date string) (structs.DailyTotals, error) {
	date, err := ledger.ParseDate(date)
	if err != nil {
		return structs.DailyTotals{}, err
	}

	groups, err := r.store.SumByGroup(ctx, owner, date)
	if err != nil {
		return structs.DailyTotals{}, apperr.Internal("sum intake by meal slot", err)
	}
	daily, err := r.store.SumAll(ctx, owner, date)
	if err != nil {
		return structs.DailyTotals{}, apperr.Internal("sum intake for day", err)
	}

	totals := structs.DailyTotals{
		Slots: make(map[string]structs.NutrientTotals, len(groups)),
		Daily: formatSums(daily),
		Date:  date,
	}
	for _, group := range groups {
		totals.Slots[group.MealSlot.String()] = formatSums(group.Sums)
	}
	return totals, nil
}
