package refunds

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/metrics"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

type paymentGateway interface {
	Refund(ctx context.Context, paymentRef string, amountCents int64) (string, error)
}

// IssueInput is an admin request to reverse a settled order.
type IssueInput struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Reason  string
	ActorID uuid.UUID
}

// ItemRefund is one item's share of an issued refund.
type ItemRefund struct {
	ItemID string          `json:"item_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Result reports an issued refund. FailedItems lists items that could
// not be returned to the shop and need manual reconciliation.
type Result struct {
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	Items           []ItemRefund    `json:"items"`
	FailedItems     []string        `json:"failed_items,omitempty"`
	PaymentRefundID *string         `json:"payment_refund_id,omitempty"`
}

// Service reverses settled orders.
type Service interface {
	Issue(ctx context.Context, input IssueInput) (*Result, error)
}

type service struct {
	repo     Repository
	gateway  paymentGateway
	logg     *logger.Logger
	commerce *metrics.CommerceMetrics
}

// NewService builds the refund service. The gateway may be nil when no
// card charges are ever reversed.
func NewService(repo Repository, gateway paymentGateway, logg *logger.Logger, commerce *metrics.CommerceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, gateway: gateway, logg: logg, commerce: commerce}, nil
}

// Issue flips the order's refund status, optionally reverses the card
// charge, and returns each item to the shop. The status flip is the
// idempotency guard; the per-item work after it is best-effort and
// partial failures are logged for manual reconciliation, not rolled
// back.
func (s *service) Issue(ctx context.Context, input IssueInput) (*Result, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	order, err := s.repo.FindOrderByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items to refund")
	}

	rows, err := s.repo.MarkOrderRefunded(ctx, input.OrderID, input.Amount, input.Reason, input.ActorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyRefunded, "order was already refunded")
	}

	lctx := s.logg.WithOrderID(ctx, input.OrderID.String())

	var paymentRefundID *string
	if order.PaymentRef != nil && s.gateway != nil {
		refundID, err := s.gateway.Refund(ctx, *order.PaymentRef, amountCents(input.Amount))
		if err != nil {
			// The order is already flagged refunded; the charge reversal
			// has to be finished by hand.
			s.logg.Error(lctx, "refund.gateway: charge not reversed", err)
		} else {
			paymentRefundID = &refundID
		}
	}

	// Even split across items, with the last item absorbing rounding
	// remainder so the shares sum to the requested amount.
	count := int64(len(order.Items))
	share := input.Amount.Div(decimal.NewFromInt(count)).Round(2)
	lastShare := input.Amount.Sub(share.Mul(decimal.NewFromInt(count - 1)))

	result := &Result{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		RefundAmount:    input.Amount,
		PaymentRefundID: paymentRefundID,
	}

	var itemErrs error
	for i, snapshot := range order.Items {
		itemShare := share
		if int64(i) == count-1 {
			itemShare = lastShare
		}

		if err := s.refundItem(ctx, order, snapshot, itemShare, input, paymentRefundID); err != nil {
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("item %s: %w", snapshot.ItemID, err))
			result.FailedItems = append(result.FailedItems, snapshot.ItemID)
			continue
		}
		result.Items = append(result.Items, ItemRefund{ItemID: snapshot.ItemID, Amount: itemShare})
	}

	if itemErrs != nil {
		s.logg.Error(lctx, "refund.restock: some items were not returned to the shop", itemErrs)
	}

	s.commerce.IncRefundIssued()
	return result, nil
}

func (s *service) refundItem(ctx context.Context, order *models.Order, snapshot types.OrderItemSnapshot, amount decimal.Decimal, input IssueInput, paymentRefundID *string) error {
	rows, err := s.repo.ReturnItemToLive(ctx, snapshot.ItemID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("item is not in sold status")
	}

	if err := s.repo.AppendItemEvent(ctx, &models.ItemEvent{
		ID:         uuid.NewString(),
		ItemID:     snapshot.ItemID,
		FromStatus: enums.ItemStatusSold,
		ToStatus:   enums.ItemStatusLive,
		ActorID:    input.ActorID.String(),
		ActorRole:  "refund",
	}); err != nil {
		return err
	}

	return s.repo.CreateRefund(ctx, &models.Refund{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ItemID:         snapshot.ItemID,
		OriginalPrice:  snapshot.Price,
		RefundAmount:   amount,
		Reason:         input.Reason,
		RefundedBy:     input.ActorID,
		StripeRefundID: paymentRefundID,
	})
}

func amountCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
