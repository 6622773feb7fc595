package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/api/middleware"
	"github.com/mayaruiz/secondstory-backend/api/responses"
	"github.com/mayaruiz/secondstory-backend/api/validators"
	itemsvc "github.com/mayaruiz/secondstory-backend/internal/items"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
)

// SubmitItem accepts a seller's consignment submission.
func SubmitItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		sellerID := middleware.UserIDFromContext(r.Context())
		if sellerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload submitItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Submit(r.Context(), itemsvc.SubmitInput{
			SellerID:      sellerID,
			Title:         payload.Title,
			Description:   payload.Description,
			Category:      enums.ItemCategory(payload.Category),
			Condition:     enums.ItemCondition(payload.Condition),
			Price:         payload.Price,
			OriginalPrice: payload.OriginalPrice,
			Images:        payload.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newItemResponse(item))
	}
}

// UpdateItem applies a seller edit while the item is still editable.
func UpdateItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		sellerID := middleware.UserIDFromContext(r.Context())
		itemID := chi.URLParam(r, "itemID")

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := itemsvc.UpdateInput{
			Title:         payload.Title,
			Description:   payload.Description,
			Price:         payload.Price,
			OriginalPrice: payload.OriginalPrice,
			Images:        payload.Images,
		}
		if payload.Category != nil {
			category := enums.ItemCategory(*payload.Category)
			input.Category = &category
		}
		if payload.Condition != nil {
			condition := enums.ItemCondition(*payload.Condition)
			input.Condition = &condition
		}

		item, err := svc.Update(r.Context(), itemID, sellerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ResubmitItem puts a rejected item back into the review queue.
func ResubmitItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		sellerID := middleware.UserIDFromContext(r.Context())
		itemID := chi.URLParam(r, "itemID")

		item, err := svc.Resubmit(r.Context(), itemID, sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// GetItem returns a single item.
func GetItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		item, err := svc.Get(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ListMyItems returns the calling seller's items.
func ListMyItems(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		sellerID := middleware.UserIDFromContext(r.Context())
		filter := itemsvc.ListFilter{SellerID: &sellerID}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseItemStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemListResponse(items))
	}
}

type submitItemRequest struct {
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description" validate:"max=2000"`
	Category      string           `json:"category" validate:"required"`
	Condition     string           `json:"condition" validate:"required"`
	Price         decimal.Decimal  `json:"price" validate:"required"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Images        []string         `json:"images,omitempty" validate:"max=10"`
}

type updateItemRequest struct {
	Title         *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category      *string          `json:"category,omitempty"`
	Condition     *string          `json:"condition,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Images        []string         `json:"images,omitempty" validate:"max=10"`
}

type itemResponse struct {
	ID              string           `json:"id"`
	SellerID        string           `json:"seller_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Category        string           `json:"category"`
	Condition       string           `json:"condition"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	Images          []string         `json:"images,omitempty"`
	Barcode         *string          `json:"barcode,omitempty"`
	Status          string           `json:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	LiveAt          *time.Time       `json:"live_at,omitempty"`
	SoldAt          *time.Time       `json:"sold_at,omitempty"`
	SoldPrice       *decimal.Decimal `json:"sold_price,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func newItemResponse(item *models.Item) itemResponse {
	if item == nil {
		return itemResponse{}
	}
	return itemResponse{
		ID:              item.ID,
		SellerID:        item.SellerID,
		Title:           item.Title,
		Description:     item.Description,
		Category:        string(item.Category),
		Condition:       string(item.Condition),
		Price:           item.Price,
		OriginalPrice:   item.OriginalPrice,
		Images:          item.Images,
		Barcode:         item.Barcode,
		Status:          string(item.Status),
		RejectionReason: item.RejectionReason,
		ApprovedAt:      item.ApprovedAt,
		LiveAt:          item.LiveAt,
		SoldAt:          item.SoldAt,
		SoldPrice:       item.SoldPrice,
		CreatedAt:       item.CreatedAt,
	}
}

func newItemListResponse(items []models.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	return out
}
