package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zennieheo/hackathon2024-BE/enums"
)

// FoodIntakeEntry is one logged meal item. Rows are append-only.
type FoodIntakeEntry struct {
	ID            uint64          `gorm:"column:id;primary_key" json:"id"`
	OwnerID       string          `gorm:"column:owner_id;type:varchar(64);not null;index:idx_intake_owner_date" json:"owner_id"`
	Date          string          `gorm:"column:date;type:varchar(10);not null;index:idx_intake_owner_date" json:"date"`
	MealSlot      enums.MealSlot  `gorm:"column:meal_slot;type:varchar(16);not null" json:"meal_slot"`
	Calories      decimal.Decimal `gorm:"column:calories;type:decimal(14,4);not null" json:"calories"`
	Carbohydrates decimal.Decimal `gorm:"column:carbohydrates;type:decimal(14,4);not null" json:"carbohydrates"`
	Protein       decimal.Decimal `gorm:"column:protein;type:decimal(14,4);not null" json:"protein"`
	Fat           decimal.Decimal `gorm:"column:fat;type:decimal(14,4);not null" json:"fat"`
	CreatedAt     *time.Time      `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the insert table name for this struct type
func (f *FoodIntakeEntry) TableName() string {
	return "food_intake_entries"
}
