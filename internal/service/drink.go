package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/coffeeshop/coffeeshop-go/internal/model"
	"github.com/coffeeshop/coffeeshop-go/internal/repository"
)

// MaxTitleLength is the longest title the drinks table accepts.
const MaxTitleLength = 80

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	ErrRecipeRequired  = errors.New("recipe is required")
	ErrIngredientName  = errors.New("every recipe ingredient needs a name")
	ErrNothingToUpdate = errors.New("title or recipe is required")
	ErrTitleTaken      = errors.New("a drink with this title already exists")
	ErrDrinkNotFound   = errors.New("drink not found")
)

// DrinkStore is the persistence backend for drinks.
type DrinkStore interface {
	List(ctx context.Context) ([]model.Drink, error)
	GetByID(ctx context.Context, id int64) (*model.Drink, error)
	ExistsByTitle(ctx context.Context, title string, exceptID int64) (bool, error)
	Create(ctx context.Context, drink *model.Drink) error
	Update(ctx context.Context, drink *model.Drink) error
	Delete(ctx context.Context, id int64) error
}

// DrinkService handles drink business logic.
type DrinkService struct {
	store DrinkStore
}

// NewDrinkService creates a new DrinkService.
func NewDrinkService(store DrinkStore) *DrinkService {
	return &DrinkService{store: store}
}

// ListDrinks returns the full view of every drink.
func (s *DrinkService) ListDrinks(ctx context.Context) ([]model.DrinkLong, error) {
	drinks, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}

	return drinksToLong(drinks), nil
}

// CreateDrink validates and inserts a new drink.
func (s *DrinkService) CreateDrink(ctx context.Context, req model.CreateDrinkRequest) (model.DrinkLong, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.DrinkLong{}, err
	}
	if err := validateRecipe(req.Recipe); err != nil {
		return model.DrinkLong{}, err
	}

	exists, err := s.store.ExistsByTitle(ctx, req.Title, 0)
	if err != nil {
		return model.DrinkLong{}, fmt.Errorf("check title: %w", err)
	}
	if exists {
		return model.DrinkLong{}, ErrTitleTaken
	}

	drink := &model.Drink{
		Title:  req.Title,
		Recipe: req.Recipe,
	}

	if err := s.store.Create(ctx, drink); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return model.DrinkLong{}, ErrTitleTaken
		}
		return model.DrinkLong{}, fmt.Errorf("create drink: %w", err)
	}

	return drink.Long(), nil
}

// UpdateDrink applies a partial update to an existing drink.
func (s *DrinkService) UpdateDrink(ctx context.Context, id int64, req model.UpdateDrinkRequest) (model.DrinkLong, error) {
	drink, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDrinkNotFound) {
			return model.DrinkLong{}, ErrDrinkNotFound
		}
		return model.DrinkLong{}, fmt.Errorf("get drink: %w", err)
	}

	if req.Title == nil && req.Recipe == nil {
		return model.DrinkLong{}, ErrNothingToUpdate
	}

	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return model.DrinkLong{}, err
		}
		exists, err := s.store.ExistsByTitle(ctx, *req.Title, drink.ID)
		if err != nil {
			return model.DrinkLong{}, fmt.Errorf("check title: %w", err)
		}
		if exists {
			return model.DrinkLong{}, ErrTitleTaken
		}
		drink.Title = *req.Title
	}

	if req.Recipe != nil {
		if err := validateRecipe(*req.Recipe); err != nil {
			return model.DrinkLong{}, err
		}
		drink.Recipe = *req.Recipe
	}

	if err := s.store.Update(ctx, drink); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return model.DrinkLong{}, ErrTitleTaken
		}
		return model.DrinkLong{}, fmt.Errorf("update drink: %w", err)
	}

	return drink.Long(), nil
}

// DeleteDrink removes an existing drink.
func (s *DrinkService) DeleteDrink(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrDrinkNotFound) {
		return ErrDrinkNotFound
	}
	if err != nil {
		return fmt.Errorf("delete drink: %w", err)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateRecipe(recipe model.Recipe) error {
	if len(recipe) == 0 {
		return ErrRecipeRequired
	}
	for _, item := range recipe {
		if strings.TrimSpace(item.Name) == "" {
			return ErrIngredientName
		}
	}
	return nil
}

// drinksToLong converts a slice of Drink to their full views.
func drinksToLong(drinks []model.Drink) []model.DrinkLong {
	result := make([]model.DrinkLong, len(drinks))
	for i, d := range drinks {
		result[i] = d.Long()
	}
	return result
}
