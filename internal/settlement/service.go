package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/mayaruiz/secondstory-backend/pkg/db"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/ids"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/metrics"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

// pseudoSellerPrefix marks walk-in consignors registered by phone
// number only. They have no user row and earn no ledger credit here.
const pseudoSellerPrefix = "phone_"

var priceTolerance = decimal.RequireFromString("0.01")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentGateway interface {
	AuthorizeAndCapture(ctx context.Context, amountCents int64, paymentMethodRef string) (string, error)
}

// PointsAwarder grants purchase points after settlement commits. It is
// best-effort and must swallow its own failures.
type PointsAwarder interface {
	AwardPurchasePoints(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID)
}

// Service settles carts into committed orders.
type Service interface {
	Settle(ctx context.Context, input SettleInput) (*SettleResult, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	gateway     paymentGateway
	rewards     PointsAwarder
	logg        *logger.Logger
	commerce    *metrics.CommerceMetrics
	shippingFee decimal.Decimal
}

// NewService builds the settlement service. The gateway may be nil only
// when every caller settles in-house sales.
func NewService(repo Repository, tx txRunner, gateway paymentGateway, rewards PointsAwarder, logg *logger.Logger, commerce *metrics.CommerceMetrics, shippingFee decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if shippingFee.IsNegative() {
		return nil, fmt.Errorf("shipping fee must not be negative")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		gateway:     gateway,
		rewards:     rewards,
		logg:        logg,
		commerce:    commerce,
		shippingFee: shippingFee,
	}, nil
}

func (s *service) Settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	started := time.Now()

	result, err := s.settle(ctx, input)

	channel := string(input.Channel)
	s.commerce.ObserveSettlement(channel, time.Since(started))
	if err != nil {
		s.commerce.IncSettlementFailure(failureReason(err))
		return nil, err
	}
	s.commerce.IncOrderSettled(channel)

	// Purchase points are a fire-and-forget side channel; the order is
	// already committed and must not fail here.
	if s.rewards != nil && input.BuyerID != nil {
		s.rewards.AwardPurchasePoints(ctx, *input.BuyerID, result.Order.Total, result.Order.ID)
	}

	return result, nil
}

func (s *service) settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	itemIDs := make([]string, 0, len(input.Items))
	cartPrices := make(map[string]decimal.Decimal, len(input.Items))
	for _, ci := range input.Items {
		itemIDs = append(itemIDs, ci.ItemID)
		cartPrices[ci.ItemID] = ci.Price
	}

	stored, err := s.repo.FindItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	if len(stored) != len(itemIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "one or more items are no longer available")
	}

	allowedFrom := []enums.ItemStatus{enums.ItemStatusLive}
	if input.Channel == ChannelInHouse {
		allowedFrom = append(allowedFrom, enums.ItemStatusApproved)
	}

	subtotal := decimal.Zero
	for _, item := range stored {
		if !statusAllowed(item.Status, allowedFrom) {
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable,
				fmt.Sprintf("item %s is not available for sale", item.ID))
		}
		if item.Price.Sub(cartPrices[item.ID]).Abs().GreaterThan(priceTolerance) {
			return nil, pkgerrors.New(pkgerrors.CodePriceMismatch,
				fmt.Sprintf("price changed for item %s", item.ID))
		}
		subtotal = subtotal.Add(item.Price.Round(2))
	}

	shippingFee := decimal.Zero
	if input.FulfillmentMethod == enums.FulfillmentMethodShipping {
		shippingFee = s.shippingFee
	}
	total := subtotal.Add(shippingFee)

	// Capture before any write. A declined or timed-out charge leaves
	// the store untouched.
	var paymentRef *string
	if input.Channel == ChannelCheckout {
		if s.gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway unavailable")
		}
		ref, err := s.gateway.AuthorizeAndCapture(ctx, amountCents(total), input.PaymentMethodRef)
		if err != nil {
			return nil, err
		}
		paymentRef = &ref
	}

	now := time.Now().UTC()
	orderID := uuid.New()
	orderNumber := ids.OrderNumber(now)
	transactionID := ids.TransactionID(now)

	snapshots := make([]types.OrderItemSnapshot, 0, len(stored))
	breakdown := types.SellerBreakdown{}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for i := range stored {
			item := &stored[i]
			sellerShare, commission := Split(item.Price)

			updates := map[string]any{
				"status":           enums.ItemStatusSold,
				"sold_at":          now,
				"sold_price":       item.Price.Round(2),
				"seller_earnings":  sellerShare,
				"store_commission": commission,
				"transaction_id":   transactionID,
			}
			if input.Buyer != nil {
				if encoded, err := json.Marshal(input.Buyer); err == nil {
					updates["buyer_info"] = encoded
				}
			}

			rows, err := repo.MarkItemSold(ctx, item.ID, allowedFrom, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark item sold")
			}
			if rows == 0 {
				// Lost the compare-and-set to a concurrent sale.
				return pkgerrors.New(pkgerrors.CodeItemUnavailable,
					fmt.Sprintf("item %s was sold concurrently", item.ID))
			}

			if err := repo.AppendItemEvent(ctx, &models.ItemEvent{
				ID:         uuid.NewString(),
				ItemID:     item.ID,
				FromStatus: item.Status,
				ToStatus:   enums.ItemStatusSold,
				ActorID:    transactionID,
				ActorRole:  "settlement",
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append sold event")
			}

			sale := &models.Sale{
				ID:              uuid.New(),
				TransactionID:   transactionID,
				OrderID:         orderID,
				ItemID:          item.ID,
				SellerID:        item.SellerID,
				BuyerID:         input.BuyerID,
				SalePrice:       item.Price.Round(2),
				SellerEarnings:  sellerShare,
				StoreCommission: commission,
				PaymentMethod:   input.PaymentMethod,
				InHouse:         input.Channel == ChannelInHouse,
			}
			if err := repo.CreateSale(ctx, sale); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale record")
			}

			if !strings.HasPrefix(item.SellerID, pseudoSellerPrefix) {
				if err := repo.CreateStoreCreditTransaction(ctx, &models.StoreCreditTransaction{
					ID:            uuid.New(),
					SellerID:      item.SellerID,
					Type:          enums.CreditTransactionTypeEarned,
					Amount:        sellerShare,
					ItemID:        &item.ID,
					TransactionID: &transactionID,
					Description:   fmt.Sprintf("earnings for %q", item.Title),
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit seller ledger")
				}
				if _, err := repo.IncrementSellerCredit(ctx, item.SellerID, sellerShare); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment seller balance")
				}
			}

			snapshots = append(snapshots, types.OrderItemSnapshot{
				ItemID:   item.ID,
				Title:    item.Title,
				SellerID: item.SellerID,
				Price:    item.Price.Round(2),
			})
			share := breakdown[item.SellerID]
			share.Earnings = share.Earnings.Add(sellerShare)
			share.ItemIDs = append(share.ItemIDs, item.ID)
			breakdown[item.SellerID] = share
		}

		order = &models.Order{
			ID:                orderID,
			OrderNumber:       orderNumber,
			BuyerID:           input.BuyerID,
			Items:             snapshots,
			SellerBreakdown:   breakdown,
			Subtotal:          subtotal,
			ShippingFee:       shippingFee,
			Total:             total,
			FulfillmentMethod: input.FulfillmentMethod,
			ShippingAddress:   input.ShippingAddress,
			PaymentMethod:     input.PaymentMethod,
			PaymentRef:        paymentRef,
			Status:            initialOrderStatus(input),
			RefundStatus:      enums.RefundStatusNone,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			if pkgdb.IsUniqueViolation(err, "orders_order_number_key") {
				// Same-second collision on the generated order number.
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, retry checkout")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})

	if txErr != nil {
		return nil, s.settlementFailure(ctx, txErr, paymentRef, transactionID)
	}

	return &SettleResult{Order: order, TransactionID: transactionID}, nil
}

// settlementFailure maps a post-capture commit failure to the loud
// inconsistency path: money has moved but the store shows no sale.
func (s *service) settlementFailure(ctx context.Context, err error, paymentRef *string, transactionID string) error {
	if paymentRef == nil {
		return err
	}

	lctx := s.logg.WithFields(ctx, map[string]any{
		"payment_ref":    *paymentRef,
		"transaction_id": transactionID,
	})
	s.logg.Error(lctx, "settlement.inconsistency: payment captured but order not committed", err)

	if pkgerrors.HasCode(err, pkgerrors.CodeItemUnavailable) {
		// The caller lost a double-sell race; surface that, the payment
		// still needs manual reversal via the logged reference.
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeSettlementInconsistency, err, "settlement failed after payment capture")
}

func validateInput(input SettleInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	seen := make(map[string]bool, len(input.Items))
	for _, ci := range input.Items {
		if strings.TrimSpace(ci.ItemID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
		}
		if seen[ci.ItemID] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate item %s in cart", ci.ItemID))
		}
		seen[ci.ItemID] = true
	}
	if !input.FulfillmentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment method")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	switch input.Channel {
	case ChannelCheckout:
		if input.BuyerID == nil {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
		}
		if strings.TrimSpace(input.PaymentMethodRef) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment method reference is required")
		}
	case ChannelInHouse:
		// Anonymous buyers are fine; payment is out of band.
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid settlement channel")
	}
	return nil
}

func statusAllowed(status enums.ItemStatus, allowed []enums.ItemStatus) bool {
	for _, s := range allowed {
		if status == s {
			return true
		}
	}
	return false
}

func initialOrderStatus(input SettleInput) enums.OrderStatus {
	if input.Channel == ChannelInHouse {
		return enums.OrderStatusCompleted
	}
	if input.FulfillmentMethod == enums.FulfillmentMethodShipping {
		return enums.OrderStatusProcessing
	}
	return enums.OrderStatusPendingFulfillment
}

func amountCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

func failureReason(err error) string {
	for _, code := range []pkgerrors.Code{
		pkgerrors.CodeValidation,
		pkgerrors.CodeItemUnavailable,
		pkgerrors.CodePriceMismatch,
		pkgerrors.CodePaymentFailed,
		pkgerrors.CodeSettlementInconsistency,
	} {
		if pkgerrors.HasCode(err, code) {
			return strings.ToLower(string(code))
		}
	}
	return "internal"
}
