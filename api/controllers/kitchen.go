package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/barstockwise/backend/api/responses"
	"github.com/barstockwise/backend/api/validators"
	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/internal/kitchen"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
	"github.com/barstockwise/backend/pkg/logger"
)

type checkAvailabilityRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CheckAvailability reports whether current stock covers the product's recipe.
func CheckAvailability(svc kitchen.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kitchen service unavailable"))
			return
		}

		var payload checkAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availability, err := svc.CheckAvailability(r.Context(), payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}

type prepareRecipeRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// PrepareRecipe consumes a recipe's ingredients for kitchen batch preparation.
func PrepareRecipe(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload prepareRecipeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		consumed, err := svc.PrepareRecipe(r.Context(), productID, payload.Quantity, actorID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"consumed_ingredients": consumed})
	}
}

func ListIngredients(svc kitchen.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kitchen service unavailable"))
			return
		}

		activeOnly := false
		if raw := strings.TrimSpace(r.URL.Query().Get("activeOnly")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid activeOnly value"))
				return
			}
			activeOnly = value
		}

		ingredients, err := svc.ListIngredients(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ingredients)
	}
}
