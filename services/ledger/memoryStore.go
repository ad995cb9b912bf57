package ledger

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/zennieheo/hackathon2024-BE/models"
)

// MemoryStore keeps entries in process memory with one lock per owner.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]*ownerEntries
	nextID uint64
}

type ownerEntries struct {
	mu      sync.Mutex
	entries []models.FoodIntakeEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{owners: make(map[string]*ownerEntries)}
}

func (m *MemoryStore) owner(owner string, create bool) *ownerEntries {
	m.mu.RLock()
	o, ok := m.owners[owner]
	m.mu.RUnlock()
	if ok || !create {
		return o
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok = m.owners[owner]; !ok {
		o = &ownerEntries{}
		m.owners[owner] = o
	}
	return o
}

func (m *MemoryStore) Create(ctx context.Context, entry *models.FoodIntakeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := m.owner(entry.OwnerID, true)
	o.mu.Lock()
	defer o.mu.Unlock()

	entry.ID = atomic.AddUint64(&m.nextID, 1)
	o.entries = append(o.entries, *entry)
	return nil
}

func (m *MemoryStore) CreateBatch(ctx context.Context, entries []models.FoodIntakeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	byOwner := make(map[string][]int)
	var owners []string
	for i := range entries {
		if _, seen := byOwner[entries[i].OwnerID]; !seen {
			owners = append(owners, entries[i].OwnerID)
		}
		byOwner[entries[i].OwnerID] = append(byOwner[entries[i].OwnerID], i)
	}
	// lock in a fixed order so concurrent batches cannot deadlock
	sort.Strings(owners)
	locked := make([]*ownerEntries, 0, len(owners))
	for _, owner := range owners {
		o := m.owner(owner, true)
		o.mu.Lock()
		locked = append(locked, o)
	}
	defer func() {
		for _, o := range locked {
			o.mu.Unlock()
		}
	}()

	for n, owner := range owners {
		for _, i := range byOwner[owner] {
			entries[i].ID = atomic.AddUint64(&m.nextID, 1)
			locked[n].entries = append(locked[n].entries, entries[i])
		}
	}
	return nil
}

func (m *MemoryStore) Filter(ctx context.Context, owner, date string) ([]models.FoodIntakeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := m.owner(owner, false)
	if o == nil {
		return []models.FoodIntakeEntry{}, nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	matched := make([]models.FoodIntakeEntry, 0)
	for _, entry := range o.entries {
		if entry.Date == date {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (m *MemoryStore) SumByGroup(ctx context.Context, owner, date string) ([]SlotSums, error) {
	entries, err := m.Filter(ctx, owner, date)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var groups []SlotSums
	for _, entry := range entries {
		i, ok := index[string(entry.MealSlot)]
		if !ok {
			i = len(groups)
			index[string(entry.MealSlot)] = i
			groups = append(groups, SlotSums{MealSlot: entry.MealSlot})
		}
		groups[i].Sums.add(entry)
	}
	return groups, nil
}

func (m *MemoryStore) SumAll(ctx context.Context, owner, date string) (Sums, error) {
	entries, err := m.Filter(ctx, owner, date)
	if err != nil {
		return Sums{}, err
	}
	var sums Sums
	for _, entry := range entries {
		sums.add(entry)
	}
	return sums, nil
}

func (m *MemoryStore) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	o := m.owner(owner, false)
	if o == nil {
		return 0, nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	deleted := int64(len(o.entries))
	o.entries = nil
	return deleted, nil
}

func (m *MemoryStore) OwnersOn(ctx context.Context, date string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	candidates := make(map[string]*ownerEntries, len(m.owners))
	for owner, o := range m.owners {
		candidates[owner] = o
	}
	m.mu.RUnlock()

	var owners []string
	for owner, o := range candidates {
		o.mu.Lock()
		for _, entry := range o.entries {
			if entry.Date == date {
				owners = append(owners, owner)
				break
			}
		}
		o.mu.Unlock()
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *Sums) add(entry models.FoodIntakeEntry) {
	s.TotalCalories = addNull(s.TotalCalories, entry.Calories)
	s.TotalCarbs = addNull(s.TotalCarbs, entry.Carbohydrates)
	s.TotalProtein = addNull(s.TotalProtein, entry.Protein)
	s.TotalFat = addNull(s.TotalFat, entry.Fat)
}

func addNull(sum decimal.NullDecimal, value decimal.Decimal) decimal.NullDecimal {
	if !sum.Valid {
		return decimal.NullDecimal{Decimal: value, Valid: true}
	}
	return decimal.NullDecimal{Decimal: sum.Decimal.Add(value), Valid: true}
}
