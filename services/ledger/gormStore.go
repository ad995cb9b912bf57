package ledger

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/models"
	gormbulk "github.com/t-tiger/gorm-bulk-insert/v2"
)

const (
	bulkChunkSize = 3000
	sumColumns    = "SUM(calories) AS total_calories, SUM(carbohydrates) AS total_carbs, SUM(protein) AS total_protein, SUM(fat) AS total_fat"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// TotalsRow is the scan target of the SUM columns. It is exported so gorm
// maps it when embedded.
type TotalsRow struct {
	TotalCalories decimal.NullDecimal
	TotalCarbs    decimal.NullDecimal
	TotalProtein  decimal.NullDecimal
	TotalFat      decimal.NullDecimal
}

func (r TotalsRow) sums() Sums {
	return Sums{
		TotalCalories: r.TotalCalories,
		TotalCarbs:    r.TotalCarbs,
		TotalProtein:  r.TotalProtein,
		TotalFat:      r.TotalFat,
	}
}

type slotSumRow struct {
	MealSlot string
	TotalsRow
}

func (s *GormStore) Create(ctx context.Context, entry *models.FoodIntakeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create intake entry: %w", err)
	}
	return nil
}

// CreateBatch writes every entry in one transaction. IDs are not read back.
func (s *GormStore) CreateBatch(ctx context.Context, entries []models.FoodIntakeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	records := make([]interface{}, 0, len(entries))
	for i := range entries {
		records = append(records, &entries[i])
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin bulk insert: %w", tx.Error)
	}
	if err := gormbulk.BulkInsert(tx, records, bulkChunkSize); err != nil {
		tx.Rollback()
		return fmt.Errorf("bulk insert intake entries: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

func (s *GormStore) Filter(ctx context.Context, owner, date string) ([]models.FoodIntakeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entries []models.FoodIntakeEntry
	if err := s.db.Where("owner_id = ? AND date = ?", owner, date).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("filter intake entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) SumByGroup(ctx context.Context, owner, date string) ([]SlotSums, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []slotSumRow
	if err := s.db.Table((&models.FoodIntakeEntry{}).TableName()).
		Select("meal_slot, "+sumColumns).
		Where("owner_id = ? AND date = ?", owner, date).
		Group("meal_slot").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum intake by meal slot: %w", err)
	}

	groups := make([]SlotSums, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, SlotSums{MealSlot: enums.MealSlot(row.MealSlot), Sums: row.sums()})
	}
	return groups, nil
}

func (s *GormStore) SumAll(ctx context.Context, owner, date string) (Sums, error) {
	if err := ctx.Err(); err != nil {
		return Sums{}, err
	}
	var row TotalsRow
	err := s.db.Table((&models.FoodIntakeEntry{}).TableName()).
		Select(sumColumns).
		Where("owner_id = ? AND date = ?", owner, date).
		Scan(&row).Error
	if err != nil && !gorm.IsRecordNotFoundError(err) {
		return Sums{}, fmt.Errorf("sum intake for day: %w", err)
	}
	return row.sums(), nil
}

func (s *GormStore) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	result := s.db.Where("owner_id = ?", owner).Delete(&models.FoodIntakeEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete intake entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) OwnersOn(ctx context.Context, date string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var owners []string
	if err := s.db.Model(&models.FoodIntakeEntry{}).
		Where("date = ?", date).
		Order("owner_id").
		Pluck("DISTINCT owner_id", &owners).Error; err != nil {
		return nil, fmt.Errorf("list owners for %s: %w", date, err)
	}
	return owners, nil
}
