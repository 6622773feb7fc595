package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayaruiz/secondstory-backend/api/middleware"
	"github.com/mayaruiz/secondstory-backend/api/responses"
	"github.com/mayaruiz/secondstory-backend/api/validators"
	itemsvc "github.com/mayaruiz/secondstory-backend/internal/items"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
)

// AdminListItems returns the review queue, optionally narrowed by status.
func AdminListItems(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		var filter itemsvc.ListFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseItemStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := r.URL.Query().Get("seller_id"); raw != "" {
			filter.SellerID = &raw
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemListResponse(items))
	}
}

// ApproveItem moves a pending item to approved and assigns a barcode.
func ApproveItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		var payload approveItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Approve(r.Context(), itemsvc.ApproveInput{
			ItemID:  chi.URLParam(r, "itemID"),
			Actor:   adminActor(r),
			Barcode: payload.Barcode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// RejectItem moves a pending item to rejected with a reason.
func RejectItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		var payload rejectItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Reject(r.Context(), itemsvc.RejectInput{
			ItemID: chi.URLParam(r, "itemID"),
			Actor:  adminActor(r),
			Reason: payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// MakeItemLive publishes an approved item to the shop floor.
func MakeItemLive(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		item, err := svc.MakeLive(r.Context(), chi.URLParam(r, "itemID"), adminActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// SendItemBack returns an approved or live item to the review queue.
func SendItemBack(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		item, err := svc.SendBack(r.Context(), chi.URLParam(r, "itemID"), adminActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ArchiveItem retires an item from circulation.
func ArchiveItem(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		item, err := svc.Archive(r.Context(), chi.URLParam(r, "itemID"), adminActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

type approveItemRequest struct {
	Barcode *string `json:"barcode,omitempty" validate:"omitempty,max=32"`
}

type rejectItemRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func adminActor(r *http.Request) itemsvc.Actor {
	return itemsvc.Actor{
		ID:   middleware.UserIDFromContext(r.Context()),
		Kind: itemsvc.ActorAdmin,
	}
}
