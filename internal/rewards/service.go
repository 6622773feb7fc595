package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the rewards ledger: purchase points, redemption into store
// credit, and manual adjustments, each leaving an audit entry.
type Service interface {
	// AwardPurchasePoints is best-effort. It logs failures and never
	// returns them; a missed award must not unwind a committed order.
	AwardPurchasePoints(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID)
	RedeemPoints(ctx context.Context, userID uuid.UUID, points int) (*RedeemResult, error)
	AdjustPoints(ctx context.Context, userID uuid.UUID, delta int, reason string, actorID uuid.UUID) (*AdjustResult, error)
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceResult, error)
	Analytics(ctx context.Context) (*AnalyticsResult, error)
	GetConfig(ctx context.Context) (*models.RewardsConfig, error)
	UpdateConfig(ctx context.Context, input UpdateConfigInput) (*models.RewardsConfig, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	logg     *logger.Logger
	commerce *metrics.CommerceMetrics
}

// NewService builds the rewards service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, commerce *metrics.CommerceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, commerce: commerce}, nil
}

func (s *service) AwardPurchasePoints(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID) {
	lctx := s.logg.WithFields(ctx, map[string]any{
		"user_id":  userID.String(),
		"order_id": orderID.String(),
	})

	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		s.logg.Error(lctx, "rewards.award: read config", err)
		return
	}
	if !cfg.Enabled {
		return
	}

	// Floor to whole points. Sub-point purchases earn nothing.
	points := int(amount.Mul(decimal.NewFromInt(int64(cfg.PointsPerDollar))).IntPart())
	if points < 1 {
		return
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := repo.IncrementPoints(ctx, userID, points); err != nil {
			return err
		}
		return repo.CreatePointsAudit(ctx, &models.PointsAudit{
			ID:             uuid.New(),
			UserID:         userID,
			Type:           enums.PointsAuditTypePurchaseReward,
			Adjustment:     points,
			PreviousPoints: user.PointsBalance,
			NewPoints:      user.PointsBalance + points,
			OrderID:        &orderID,
		})
	})
	if err != nil {
		s.logg.Error(lctx, "rewards.award: points not credited", err)
		return
	}

	s.commerce.AddPointsAwarded(points)
}

func (s *service) RedeemPoints(ctx context.Context, userID uuid.UUID, points int) (*RedeemResult, error) {
	// One config snapshot governs the whole redemption; a concurrent
	// policy change never applies mid-operation.
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read rewards config")
	}
	if !cfg.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rewards program is disabled")
	}
	if points < cfg.MinRedeemPoints {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimum,
			fmt.Sprintf("minimum redemption is %d points", cfg.MinRedeemPoints))
	}
	if points > cfg.MaxRedeemPoints {
		return nil, pkgerrors.New(pkgerrors.CodeAboveMaximum,
			fmt.Sprintf("maximum redemption is %d points", cfg.MaxRedeemPoints))
	}

	credit := decimal.NewFromInt(int64(points)).Mul(cfg.RedemptionRate).Round(2)

	var result *RedeemResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.FindUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		rows, err := repo.DecrementPointsIfEnough(ctx, userID, points)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement points")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "not enough points to redeem")
		}

		if _, err := repo.IncrementStoreCredit(ctx, userID, credit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
		}
		if err := repo.CreateStoreCreditTransaction(ctx, &models.StoreCreditTransaction{
			ID:          uuid.New(),
			SellerID:    userID.String(),
			Type:        enums.CreditTransactionTypeEarned,
			Amount:      credit,
			Description: fmt.Sprintf("redeemed %d points", points),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write credit ledger")
		}
		if err := repo.CreatePointsAudit(ctx, &models.PointsAudit{
			ID:             uuid.New(),
			UserID:         userID,
			Type:           enums.PointsAuditTypePointsRedemption,
			Adjustment:     -points,
			PreviousPoints: user.PointsBalance,
			NewPoints:      user.PointsBalance - points,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write points audit")
		}

		result = &RedeemResult{
			PointsRedeemed: points,
			CreditIssued:   credit,
			PointsBalance:  user.PointsBalance - points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commerce.AddPointsRedeemed(points)
	return result, nil
}

func (s *service) AdjustPoints(ctx context.Context, userID uuid.UUID, delta int, reason string, actorID uuid.UUID) (*AdjustResult, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment must not be zero")
	}

	var result *AdjustResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.FindUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		// Balances never go negative; a large downward correction lands
		// on zero.
		newBalance := user.PointsBalance + delta
		if newBalance < 0 {
			newBalance = 0
		}

		rows, err := repo.SwapPointsBalance(ctx, userID, user.PointsBalance, newBalance)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update balance")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "points balance changed concurrently, retry")
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		if err := repo.CreatePointsAudit(ctx, &models.PointsAudit{
			ID:             uuid.New(),
			UserID:         userID,
			Type:           enums.PointsAuditTypeManualAdjustment,
			Adjustment:     newBalance - user.PointsBalance,
			PreviousPoints: user.PointsBalance,
			NewPoints:      newBalance,
			ActorID:        &actorID,
			Reason:         reasonPtr,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write points audit")
		}

		result = &AdjustResult{PreviousPoints: user.PointsBalance, NewPoints: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceResult, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	// The ledger sum is authoritative; the user column is a cached
	// accelerator.
	credit, err := s.repo.SumStoreCredit(ctx, userID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum credit ledger")
	}

	return &BalanceResult{
		UserID:        userID,
		PointsBalance: user.PointsBalance,
		StoreCredit:   credit,
	}, nil
}

func (s *service) Analytics(ctx context.Context) (*AnalyticsResult, error) {
	awarded, err := s.repo.SumPointsByType(ctx, string(enums.PointsAuditTypePurchaseReward))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum awarded points")
	}
	redeemed, err := s.repo.SumPointsByType(ctx, string(enums.PointsAuditTypePointsRedemption))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum redeemed points")
	}

	earners, err := s.repo.TopCreditEarners(ctx, 10)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load top earners")
	}

	totalCredit := decimal.Zero
	for _, e := range earners {
		if e.Total.IsPositive() {
			totalCredit = totalCredit.Add(e.Total)
		}
	}

	return &AnalyticsResult{
		TotalPointsAwarded:  awarded,
		TotalPointsRedeemed: -redeemed,
		TotalCreditIssued:   totalCredit,
		TopEarners:          earners,
	}, nil
}

func (s *service) GetConfig(ctx context.Context) (*models.RewardsConfig, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read rewards config")
	}
	return cfg, nil
}

func (s *service) UpdateConfig(ctx context.Context, input UpdateConfigInput) (*models.RewardsConfig, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read rewards config")
	}

	if input.PointsPerDollar != nil {
		cfg.PointsPerDollar = *input.PointsPerDollar
	}
	if input.RedemptionRate != nil {
		cfg.RedemptionRate = *input.RedemptionRate
	}
	if input.MinRedeemPoints != nil {
		cfg.MinRedeemPoints = *input.MinRedeemPoints
	}
	if input.MaxRedeemPoints != nil {
		cfg.MaxRedeemPoints = *input.MaxRedeemPoints
	}
	if input.Enabled != nil {
		cfg.Enabled = *input.Enabled
	}

	if cfg.PointsPerDollar < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points per dollar must not be negative")
	}
	if !cfg.RedemptionRate.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption rate must be positive")
	}
	if cfg.MinRedeemPoints < 1 || cfg.MaxRedeemPoints < cfg.MinRedeemPoints {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption bounds are inconsistent")
	}

	if err := s.repo.SaveConfig(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save rewards config")
	}
	return cfg, nil
}
