package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/models"
)

// Sums holds the four nutrient sums of a set of entries.
// A field is invalid (NULL) when no entry contributed.
type Sums struct {
	TotalCalories decimal.NullDecimal
	TotalCarbs    decimal.NullDecimal
	TotalProtein  decimal.NullDecimal
	TotalFat      decimal.NullDecimal
}

type SlotSums struct {
	MealSlot enums.MealSlot
	Sums     Sums
}

// Store is the persistence contract of the ledger. Filters are exact-match
// on (owner, date) and DeleteByOwner is atomic per call.
type Store interface {
	Create(ctx context.Context, entry *models.FoodIntakeEntry) error
	CreateBatch(ctx context.Context, entries []models.FoodIntakeEntry) error
	Filter(ctx context.Context, owner, date string) ([]models.FoodIntakeEntry, error)
	SumByGroup(ctx context.Context, owner, date string) ([]SlotSums, error)
	SumAll(ctx context.Context, owner, date string) (Sums, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
	OwnersOn(ctx context.Context, date string) ([]string, error)
}
