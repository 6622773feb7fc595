package refunds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	baserepo "github.com/mayaruiz/secondstory-backend/internal/repo"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// Repository defines persistence operations used by the refund engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// MarkOrderRefunded stamps the refund fields only while
	// refund_status is still 'none'. The row count is the idempotency
	// guard.
	MarkOrderRefunded(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, reason string, actorID uuid.UUID) (int64, error)
	// ReturnItemToLive moves a sold item back to live and clears its
	// sale metadata so it can be earned on again.
	ReturnItemToLive(ctx context.Context, itemID string) (int64, error)
	CreateRefund(ctx context.Context, refund *models.Refund) error
	AppendItemEvent(ctx context.Context, event *models.ItemEvent) error
}

type repository struct {
	baserepo.Base
}

// NewRepository builds a refunds repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: baserepo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) FindOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) MarkOrderRefunded(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, reason string, actorID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND refund_status = ?", orderID, enums.RefundStatusNone).
		Updates(map[string]any{
			"refund_status": enums.RefundStatusRefunded,
			"refund_amount": amount,
			"refund_reason": reason,
			"refunded_by":   actorID,
			"refunded_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) ReturnItemToLive(ctx context.Context, itemID string) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status = ?", itemID, enums.ItemStatusSold).
		Updates(map[string]any{
			"status":           enums.ItemStatusLive,
			"sold_at":          nil,
			"sold_price":       nil,
			"seller_earnings":  nil,
			"store_commission": nil,
			"transaction_id":   nil,
			"buyer_info":       nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.DB(ctx).Create(refund).Error
}

func (r *repository) AppendItemEvent(ctx context.Context, event *models.ItemEvent) error {
	return r.DB(ctx).Create(event).Error
}
