package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coffeeshop/coffeeshop-go/internal/model"
	"github.com/coffeeshop/coffeeshop-go/internal/service"
)

// DrinkHandler handles HTTP requests for the drinks resource.
type DrinkHandler struct {
	service *service.DrinkService
}

// NewDrinkHandler creates a new DrinkHandler.
func NewDrinkHandler(svc *service.DrinkService) *DrinkHandler {
	return &DrinkHandler{service: svc}
}

// HandleListDrinks handles GET /drinks and GET /drinks-detail requests.
func (h *DrinkHandler) HandleListDrinks(w http.ResponseWriter, r *http.Request) error {
	drinks, err := h.service.ListDrinks(r.Context())
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, model.DrinksResponse{Success: true, Drinks: drinks})
	return nil
}

// HandleCreateDrink handles POST /drinks requests.
func (h *DrinkHandler) HandleCreateDrink(w http.ResponseWriter, r *http.Request) error {
	var req model.CreateDrinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	drink, err := h.service.CreateDrink(r.Context(), req)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, model.DrinksResponse{Success: true, Drinks: []model.DrinkLong{drink}})
	return nil
}

// HandleUpdateDrink handles PATCH /drinks/{id} requests.
func (h *DrinkHandler) HandleUpdateDrink(w http.ResponseWriter, r *http.Request) error {
	id, err := drinkID(r)
	if err != nil {
		return err
	}

	var req model.UpdateDrinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	drink, err := h.service.UpdateDrink(r.Context(), id, req)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, model.DrinksResponse{Success: true, Drinks: []model.DrinkLong{drink}})
	return nil
}

// HandleDeleteDrink handles DELETE /drinks/{id} requests.
func (h *DrinkHandler) HandleDeleteDrink(w http.ResponseWriter, r *http.Request) error {
	id, err := drinkID(r)
	if err != nil {
		return err
	}

	if err := h.service.DeleteDrink(r.Context(), id); err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, model.DeleteResponse{Success: true, Delete: id})
	return nil
}

// drinkID parses the {id} URL parameter. Anything but a positive integer
// names no drink.
func drinkID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, newError(http.StatusNotFound, "")
	}
	return id, nil
}
