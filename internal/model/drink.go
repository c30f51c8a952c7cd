package model

import (
	"bytes"
	"encoding/json"
)

// Drink represents a drink row in the database.
// Recipe is persisted as serialized JSON text.
type Drink struct {
	ID     int64
	Title  string
	Recipe Recipe
}

// RecipeItem is a single ingredient of a drink recipe.
type RecipeItem struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Recipe is an ordered list of ingredients.
// It decodes from either a JSON array or a single ingredient object.
type Recipe []RecipeItem

// UnmarshalJSON accepts `[{...}, ...]`, a single `{...}` or null.
// An object with no ingredient fields set decodes as an empty recipe.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item RecipeItem
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		if item == (RecipeItem{}) {
			*r = Recipe{}
			return nil
		}
		*r = Recipe{item}
		return nil
	}

	var items []RecipeItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*r = items
	return nil
}

// DrinkLong is the full representation of a drink.
type DrinkLong struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Recipe []RecipeItem `json:"recipe"`
}

// ShortRecipeItem is an ingredient without its quantity.
type ShortRecipeItem struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DrinkShort is the public-safe summary of a drink (no ingredient parts).
type DrinkShort struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortRecipeItem `json:"recipe"`
}

// Long returns the full view of the drink.
func (d Drink) Long() DrinkLong {
	recipe := make([]RecipeItem, len(d.Recipe))
	copy(recipe, d.Recipe)
	return DrinkLong{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Short returns the summary view of the drink.
func (d Drink) Short() DrinkShort {
	recipe := make([]ShortRecipeItem, len(d.Recipe))
	for i, item := range d.Recipe {
		recipe[i] = ShortRecipeItem{Name: item.Name, Color: item.Color}
	}
	return DrinkShort{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// CreateDrinkRequest represents a drink creation request.
type CreateDrinkRequest struct {
	Title  string `json:"title"`
	Recipe Recipe `json:"recipe"`
}

// UpdateDrinkRequest represents a partial drink update.
// Nil fields are left unchanged.
type UpdateDrinkRequest struct {
	Title  *string `json:"title"`
	Recipe *Recipe `json:"recipe"`
}

// DrinksResponse is the success envelope for endpoints returning drinks.
type DrinksResponse struct {
	Success bool        `json:"success"`
	Drinks  []DrinkLong `json:"drinks"`
}

// DeleteResponse is the success envelope for drink deletion.
type DeleteResponse struct {
	Success bool  `json:"success"`
	Delete  int64 `json:"delete"`
}

// ErrorResponse is the failure envelope shared by every endpoint.
// Code is set for authentication and authorization failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
