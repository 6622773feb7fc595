package rewards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	baserepo "github.com/mayaruiz/secondstory-backend/internal/repo"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
)

// Repository defines persistence operations used by the rewards ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetConfig(ctx context.Context) (*models.RewardsConfig, error)
	SaveConfig(ctx context.Context, cfg *models.RewardsConfig) error

	FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// IncrementPoints applies an in-database increment so concurrent
	// mutations never lose an update.
	IncrementPoints(ctx context.Context, userID uuid.UUID, points int) (int64, error)
	// DecrementPointsIfEnough subtracts only while the stored balance
	// covers the amount. A zero row count means the guard failed.
	DecrementPointsIfEnough(ctx context.Context, userID uuid.UUID, points int) (int64, error)
	// SwapPointsBalance writes a new balance only if the stored balance
	// still matches what the caller read.
	SwapPointsBalance(ctx context.Context, userID uuid.UUID, from, to int) (int64, error)
	IncrementStoreCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (int64, error)

	CreateStoreCreditTransaction(ctx context.Context, txn *models.StoreCreditTransaction) error
	CreatePointsAudit(ctx context.Context, audit *models.PointsAudit) error

	SumStoreCredit(ctx context.Context, sellerID string) (decimal.Decimal, error)
	SumPointsByType(ctx context.Context, auditType string) (int, error)
	TopCreditEarners(ctx context.Context, limit int) ([]CreditEarner, error)
}

type repository struct {
	baserepo.Base
}

// NewRepository builds a rewards repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: baserepo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Rebind(tx)}
}

func (r *repository) GetConfig(ctx context.Context) (*models.RewardsConfig, error) {
	var cfg models.RewardsConfig
	err := r.DB(ctx).First(&cfg, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fallback := models.DefaultRewardsConfig()
		return &fallback, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) SaveConfig(ctx context.Context, cfg *models.RewardsConfig) error {
	cfg.ID = 1
	return r.DB(ctx).Save(cfg).Error
}

func (r *repository) FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) IncrementPoints(ctx context.Context, userID uuid.UUID, points int) (int64, error) {
	res := r.DB(ctx).Exec(`
		UPDATE users
		SET points_balance = points_balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, points, userID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) DecrementPointsIfEnough(ctx context.Context, userID uuid.UUID, points int) (int64, error) {
	res := r.DB(ctx).Exec(`
		UPDATE users
		SET points_balance = points_balance - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND points_balance >= ?
	`, points, userID, points)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) SwapPointsBalance(ctx context.Context, userID uuid.UUID, from, to int) (int64, error) {
	res := r.DB(ctx).Exec(`
		UPDATE users
		SET points_balance = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND points_balance = ?
	`, to, userID, from)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) IncrementStoreCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (int64, error) {
	res := r.DB(ctx).Exec(`
		UPDATE users
		SET store_credit = store_credit + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, userID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateStoreCreditTransaction(ctx context.Context, txn *models.StoreCreditTransaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) CreatePointsAudit(ctx context.Context, audit *models.PointsAudit) error {
	return r.DB(ctx).Create(audit).Error
}

func (r *repository) SumStoreCredit(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB(ctx).Raw(`
		SELECT COALESCE(SUM(CASE WHEN type = 'earned' THEN amount ELSE -amount END), 0)
		FROM store_credit_transactions
		WHERE seller_id = ?
	`, sellerID).Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) SumPointsByType(ctx context.Context, auditType string) (int, error) {
	var total int
	err := r.DB(ctx).Raw(`
		SELECT COALESCE(SUM(adjustment), 0)
		FROM points_audits
		WHERE type = ?
	`, auditType).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) TopCreditEarners(ctx context.Context, limit int) ([]CreditEarner, error) {
	var earners []CreditEarner
	err := r.DB(ctx).Raw(`
		SELECT seller_id,
			COALESCE(SUM(CASE WHEN type = 'earned' THEN amount ELSE -amount END), 0) AS total
		FROM store_credit_transactions
		GROUP BY seller_id
		ORDER BY total DESC
		LIMIT ?
	`, limit).Scan(&earners).Error
	if err != nil {
		return nil, err
	}
	return earners, nil
}
