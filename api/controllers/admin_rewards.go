package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/api/middleware"
	"github.com/mayaruiz/secondstory-backend/api/responses"
	"github.com/mayaruiz/secondstory-backend/api/validators"
	rewardsvc "github.com/mayaruiz/secondstory-backend/internal/rewards"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
)

// AdjustPoints applies a manual admin correction to a user's balance.
func AdjustPoints(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		actorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload adjustPointsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdjustPoints(r.Context(), payload.UserID, payload.Delta, payload.Reason, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RewardsAnalytics returns program-wide rewards totals.
func RewardsAnalytics(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		result, err := svc.Analytics(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetRewardsConfig returns the active rewards policy.
func GetRewardsConfig(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		cfg, err := svc.GetConfig(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRewardsConfigResponse(cfg.PointsPerDollar, cfg.RedemptionRate, cfg.MinRedeemPoints, cfg.MaxRedeemPoints, cfg.Enabled))
	}
}

// UpdateRewardsConfig applies admin changes to the rewards policy.
func UpdateRewardsConfig(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		var payload rewardsvc.UpdateConfigInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.UpdateConfig(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRewardsConfigResponse(cfg.PointsPerDollar, cfg.RedemptionRate, cfg.MinRedeemPoints, cfg.MaxRedeemPoints, cfg.Enabled))
	}
}

type adjustPointsRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Delta  int       `json:"delta" validate:"required"`
	Reason string    `json:"reason" validate:"required,max=500"`
}

type rewardsConfigResponse struct {
	PointsPerDollar int             `json:"points_per_dollar"`
	RedemptionRate  decimal.Decimal `json:"redemption_rate"`
	MinRedeemPoints int             `json:"min_redeem_points"`
	MaxRedeemPoints int             `json:"max_redeem_points"`
	Enabled         bool            `json:"enabled"`
}

func newRewardsConfigResponse(pointsPerDollar int, rate decimal.Decimal, minPoints, maxPoints int, enabled bool) rewardsConfigResponse {
	return rewardsConfigResponse{
		PointsPerDollar: pointsPerDollar,
		RedemptionRate:  rate,
		MinRedeemPoints: minPoints,
		MaxRedeemPoints: maxPoints,
		Enabled:         enabled,
	}
}
