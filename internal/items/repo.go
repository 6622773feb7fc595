package items

import (
	"context"

	"gorm.io/gorm"

	baserepo "github.com/mayaruiz/secondstory-backend/internal/repo"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// Repository defines persistence operations for items and their audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	FindItemByID(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context, filter ListFilter) ([]models.Item, error)
	UpdateItemFields(ctx context.Context, id string, updates map[string]any) error
	// TransitionItem applies updates only while the item still holds the
	// expected status. Returns the number of rows changed so callers can
	// detect a lost race.
	TransitionItem(ctx context.Context, id string, from enums.ItemStatus, updates map[string]any) (int64, error)
	AppendEvent(ctx context.Context, event *models.ItemEvent) error
}

type repository struct {
	baserepo.Base
}

// NewRepository builds an items repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: baserepo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := r.DB(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	q := r.DB(ctx).Model(&models.Item{}).Order("created_at DESC")
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var items []models.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateItemFields(ctx context.Context, id string, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) TransitionItem(ctx context.Context, id string, from enums.ItemStatus, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) AppendEvent(ctx context.Context, event *models.ItemEvent) error {
	return r.DB(ctx).Create(event).Error
}
