package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	itemsvc "github.com/mayaruiz/secondstory-backend/internal/items"
	refundsvc "github.com/mayaruiz/secondstory-backend/internal/refunds"
	rewardsvc "github.com/mayaruiz/secondstory-backend/internal/rewards"
	settlementsvc "github.com/mayaruiz/secondstory-backend/internal/settlement"
	pkgauth "github.com/mayaruiz/secondstory-backend/pkg/auth"
	"github.com/mayaruiz/secondstory-backend/pkg/config"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/redis"
)

type stubItemsService struct{}

func (stubItemsService) Submit(ctx context.Context, input itemsvc.SubmitInput) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) Update(ctx context.Context, itemID, sellerID string, input itemsvc.UpdateInput) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) Resubmit(ctx context.Context, itemID, sellerID string) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) Approve(ctx context.Context, input itemsvc.ApproveInput) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) Reject(ctx context.Context, input itemsvc.RejectInput) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) MakeLive(ctx context.Context, itemID string, actor itemsvc.Actor) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) SendBack(ctx context.Context, itemID string, actor itemsvc.Actor) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) Archive(ctx context.Context, itemID string, actor itemsvc.Actor) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) Get(ctx context.Context, itemID string) (*models.Item, error) {
	panic("unimplemented")
}

func (stubItemsService) List(ctx context.Context, filter itemsvc.ListFilter) ([]models.Item, error) {
	return []models.Item{}, nil
}

type stubSettlementService struct{}

func (stubSettlementService) Settle(ctx context.Context, input settlementsvc.SettleInput) (*settlementsvc.SettleResult, error) {
	panic("unimplemented")
}

type stubRewardsService struct{}

func (stubRewardsService) AwardPurchasePoints(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID) {
}

func (stubRewardsService) RedeemPoints(ctx context.Context, userID uuid.UUID, points int) (*rewardsvc.RedeemResult, error) {
	panic("unimplemented")
}

func (stubRewardsService) AdjustPoints(ctx context.Context, userID uuid.UUID, delta int, reason string, actorID uuid.UUID) (*rewardsvc.AdjustResult, error) {
	panic("unimplemented")
}

func (stubRewardsService) Balance(ctx context.Context, userID uuid.UUID) (*rewardsvc.BalanceResult, error) {
	return &rewardsvc.BalanceResult{UserID: userID}, nil
}

func (stubRewardsService) Analytics(ctx context.Context) (*rewardsvc.AnalyticsResult, error) {
	panic("unimplemented")
}

func (stubRewardsService) GetConfig(ctx context.Context) (*models.RewardsConfig, error) {
	panic("unimplemented")
}

func (stubRewardsService) UpdateConfig(ctx context.Context, input rewardsvc.UpdateConfigInput) (*models.RewardsConfig, error) {
	panic("unimplemented")
}

type stubRefundsService struct{}

func (stubRefundsService) Issue(ctx context.Context, input refundsvc.IssueInput) (*refundsvc.Result, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, registry *prometheus.Registry) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		(*redis.Client)(nil),
		registry,
		stubItemsService{},
		stubSettlementService{},
		stubRewardsService{},
		stubRefundsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rewards/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestBuyerReadsRewardsBalance(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rewards/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for rewards balance got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/items", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/items", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin item list got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestMetricsExposedWhenRegistryWired(t *testing.T) {
	router := newTestRouter(testConfig(), prometheus.NewRegistry())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
