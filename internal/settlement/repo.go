package settlement

import (
	"context"

	"gorm.io/gorm"

	baserepo "github.com/mayaruiz/secondstory-backend/internal/repo"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Repository defines persistence operations used by settlement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItemsByIDs(ctx context.Context, ids []string) ([]models.Item, error)
	// MarkItemSold flips the item to sold only while its status is one of
	// allowedFrom. The row count tells the caller whether the compare and
	// set won.
	MarkItemSold(ctx context.Context, itemID string, allowedFrom []enums.ItemStatus, updates map[string]any) (int64, error)
	CreateSale(ctx context.Context, sale *models.Sale) error
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateStoreCreditTransaction(ctx context.Context, txn *models.StoreCreditTransaction) error
	// IncrementSellerCredit adds to the denormalized balance with an
	// in-database increment, never a client-computed value.
	IncrementSellerCredit(ctx context.Context, sellerID string, amount decimal.Decimal) (int64, error)
	AppendItemEvent(ctx context.Context, event *models.ItemEvent) error
}

type repository struct {
	baserepo.Base
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: baserepo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) FindItemsByIDs(ctx context.Context, ids []string) ([]models.Item, error) {
	var items []models.Item
	err := r.DB(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) MarkItemSold(ctx context.Context, itemID string, allowedFrom []enums.ItemStatus, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status IN ?", itemID, allowedFrom).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.DB(ctx).Create(sale).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateStoreCreditTransaction(ctx context.Context, txn *models.StoreCreditTransaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) IncrementSellerCredit(ctx context.Context, sellerID string, amount decimal.Decimal) (int64, error) {
	res := r.DB(ctx).Exec(`
		UPDATE users
		SET store_credit = store_credit + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, sellerID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) AppendItemEvent(ctx context.Context, event *models.ItemEvent) error {
	return r.DB(ctx).Create(event).Error
}
