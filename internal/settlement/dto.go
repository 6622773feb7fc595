package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

// Channel distinguishes web checkout from in-store walk-in sales.
type Channel string

const (
	ChannelCheckout Channel = "checkout"
	ChannelInHouse  Channel = "in_house"
)

// CartItem is one item reference with the price the client saw.
type CartItem struct {
	ItemID string
	Price  decimal.Decimal
}

// SettleInput carries everything a settlement attempt needs.
type SettleInput struct {
	Channel Channel

	// BuyerID is nil for anonymous walk-in sales.
	BuyerID *uuid.UUID
	Buyer   *types.BuyerInfo

	Items             []CartItem
	FulfillmentMethod enums.FulfillmentMethod
	ShippingAddress   *string
	PaymentMethod     enums.PaymentMethod

	// PaymentMethodRef is the gateway token for card checkouts; unused
	// for in-house sales.
	PaymentMethodRef string
}

// SettleResult returns the committed order.
type SettleResult struct {
	Order         *models.Order
	TransactionID string
}
