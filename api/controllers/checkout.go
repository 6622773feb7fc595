package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/api/middleware"
	"github.com/mayaruiz/secondstory-backend/api/responses"
	"github.com/mayaruiz/secondstory-backend/api/validators"
	settlementsvc "github.com/mayaruiz/secondstory-backend/internal/settlement"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

// Checkout settles the buyer's cart as a card purchase.
func Checkout(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		buyerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fulfillment, err := enums.ParseFulfillmentMethod(payload.FulfillmentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment method"))
			return
		}
		if fulfillment == enums.FulfillmentMethodShipping && payload.ShippingAddress == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required"))
			return
		}

		result, err := svc.Settle(r.Context(), settlementsvc.SettleInput{
			Channel:           settlementsvc.ChannelCheckout,
			BuyerID:           &buyerID,
			Items:             toCartItems(payload.Items),
			FulfillmentMethod: fulfillment,
			ShippingAddress:   payload.ShippingAddress,
			PaymentMethod:     enums.PaymentMethodCard,
			PaymentMethodRef:  payload.PaymentMethodRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(result))
	}
}

type checkoutRequest struct {
	Items             []cartItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	FulfillmentMethod string            `json:"fulfillment_method" validate:"required"`
	ShippingAddress   *string           `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	PaymentMethodRef  string            `json:"payment_method_ref" validate:"required"`
}

type cartItemRequest struct {
	ItemID string          `json:"item_id" validate:"required,uuid4"`
	Price  decimal.Decimal `json:"price" validate:"required"`
}

type orderResponse struct {
	OrderID         uuid.UUID                 `json:"order_id"`
	OrderNumber     string                    `json:"order_number"`
	TransactionID   string                    `json:"transaction_id"`
	Items           []types.OrderItemSnapshot `json:"items"`
	Subtotal        decimal.Decimal           `json:"subtotal"`
	ShippingFee     decimal.Decimal           `json:"shipping_fee"`
	Total           decimal.Decimal           `json:"total"`
	Status          string                    `json:"status"`
	PaymentMethod   string                    `json:"payment_method"`
	CreatedAt       time.Time                 `json:"created_at"`
	SellerBreakdown types.SellerBreakdown     `json:"seller_breakdown,omitempty"`
}

func toCartItems(items []cartItemRequest) []settlementsvc.CartItem {
	out := make([]settlementsvc.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, settlementsvc.CartItem{ItemID: item.ItemID, Price: item.Price})
	}
	return out
}

func newOrderResponse(result *settlementsvc.SettleResult) orderResponse {
	if result == nil || result.Order == nil {
		return orderResponse{}
	}
	return orderResponseFromOrder(result.Order, result.TransactionID)
}

func orderResponseFromOrder(order *models.Order, transactionID string) orderResponse {
	return orderResponse{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		TransactionID:   transactionID,
		Items:           order.Items,
		Subtotal:        order.Subtotal,
		ShippingFee:     order.ShippingFee,
		Total:           order.Total,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		CreatedAt:       order.CreatedAt,
		SellerBreakdown: order.SellerBreakdown,
	}
}
