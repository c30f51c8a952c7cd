package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/coffeeshop/coffeeshop-go/internal/model"
)

// MemoryDrinkRepository keeps drinks in process memory. It enforces the same
// title uniqueness as the drinks table and is used when no database is
// configured.
type MemoryDrinkRepository struct {
	mu     sync.RWMutex
	nextID int64
	drinks map[int64]model.Drink
}

// NewMemoryDrinkRepository creates an empty MemoryDrinkRepository.
func NewMemoryDrinkRepository() *MemoryDrinkRepository {
	return &MemoryDrinkRepository{drinks: make(map[int64]model.Drink)}
}

// List retrieves all drinks ordered by ID.
func (r *MemoryDrinkRepository) List(_ context.Context) ([]model.Drink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	drinks := make([]model.Drink, 0, len(r.drinks))
	for _, d := range r.drinks {
		drinks = append(drinks, cloneDrink(d))
	}
	slices.SortFunc(drinks, func(a, b model.Drink) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return drinks, nil
}

// GetByID retrieves a drink by its ID.
func (r *MemoryDrinkRepository) GetByID(_ context.Context, id int64) (*model.Drink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drinks[id]
	if !ok {
		return nil, ErrDrinkNotFound
	}
	d = cloneDrink(d)
	return &d, nil
}

// ExistsByTitle reports whether a drink other than exceptID holds title.
func (r *MemoryDrinkRepository) ExistsByTitle(_ context.Context, title string, exceptID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.titleTaken(title, exceptID), nil
}

// Create inserts a new drink and sets the generated ID on the drink struct.
func (r *MemoryDrinkRepository) Create(_ context.Context, drink *model.Drink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.titleTaken(drink.Title, 0) {
		return ErrDuplicateTitle
	}

	r.nextID++
	drink.ID = r.nextID
	r.drinks[drink.ID] = cloneDrink(*drink)
	return nil
}

// Update overwrites the title and recipe of an existing drink.
func (r *MemoryDrinkRepository) Update(_ context.Context, drink *model.Drink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drinks[drink.ID]; !ok {
		return ErrDrinkNotFound
	}
	if r.titleTaken(drink.Title, drink.ID) {
		return ErrDuplicateTitle
	}

	r.drinks[drink.ID] = cloneDrink(*drink)
	return nil
}

// Delete removes a drink by ID.
func (r *MemoryDrinkRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drinks[id]; !ok {
		return ErrDrinkNotFound
	}
	delete(r.drinks, id)
	return nil
}

// titleTaken must be called with r.mu held. Titles compare case-insensitively
// like the drinks table's default collation.
func (r *MemoryDrinkRepository) titleTaken(title string, exceptID int64) bool {
	for id, d := range r.drinks {
		if id != exceptID && strings.EqualFold(d.Title, title) {
			return true
		}
	}
	return false
}

func cloneDrink(d model.Drink) model.Drink {
	d.Recipe = slices.Clone(d.Recipe)
	return d
}
