package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mayaruiz/secondstory-backend/api/responses"
	"github.com/mayaruiz/secondstory-backend/api/validators"
	settlementsvc "github.com/mayaruiz/secondstory-backend/internal/settlement"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

// InHouseSale settles a walk-in sale. Payment happens at the counter,
// out of band, so the gateway is never involved.
func InHouseSale(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var payload inHouseSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := settlementsvc.SettleInput{
			Channel:           settlementsvc.ChannelInHouse,
			Items:             toCartItems(payload.Items),
			FulfillmentMethod: enums.FulfillmentMethodPickup,
			PaymentMethod:     paymentMethod,
		}
		if payload.BuyerID != nil {
			input.BuyerID = payload.BuyerID
		}
		if payload.Buyer != nil {
			input.Buyer = payload.Buyer
		}

		result, err := svc.Settle(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(result))
	}
}

type inHouseSaleRequest struct {
	Items         []cartItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required"`

	// Walk-in buyers are optional; a sale can be fully anonymous.
	BuyerID *uuid.UUID       `json:"buyer_id,omitempty"`
	Buyer   *types.BuyerInfo `json:"buyer,omitempty"`
}
