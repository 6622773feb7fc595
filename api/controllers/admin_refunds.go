package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/api/middleware"
	"github.com/mayaruiz/secondstory-backend/api/responses"
	"github.com/mayaruiz/secondstory-backend/api/validators"
	refundsvc "github.com/mayaruiz/secondstory-backend/internal/refunds"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
)

// IssueRefund reverses a settled order and restocks its items.
func IssueRefund(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		actorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload issueRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Issue(r.Context(), refundsvc.IssueInput{
			OrderID: orderID,
			Amount:  payload.Amount,
			Reason:  payload.Reason,
			ActorID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type issueRefundRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Reason string          `json:"reason" validate:"required,max=500"`
}
