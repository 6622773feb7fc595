package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/api/middleware"
	settlementsvc "github.com/mayaruiz/secondstory-backend/internal/settlement"
	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

type stubSettlementService struct {
	result *settlementsvc.SettleResult
	err    error
	gotIn  *settlementsvc.SettleInput
}

func (s *stubSettlementService) Settle(ctx context.Context, input settlementsvc.SettleInput) (*settlementsvc.SettleResult, error) {
	s.gotIn = &input
	return s.result, s.err
}

func checkoutBody(itemID string) string {
	return `{"items":[{"item_id":"` + itemID + `","price":"40.00"}],"fulfillment_method":"pickup","payment_method_ref":"pm_123"}`
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	itemID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "SS-20260824-A1B2C3",
		Subtotal:      decimal.RequireFromString("40.00"),
		ShippingFee:   decimal.Zero,
		Total:         decimal.RequireFromString("40.00"),
		Status:        enums.OrderStatusPendingFulfillment,
		PaymentMethod: enums.PaymentMethodCard,
		CreatedAt:     time.Now(),
		Items: []types.OrderItemSnapshot{
			{ItemID: itemID.String(), Price: decimal.RequireFromString("40.00")},
		},
	}
	svc := &stubSettlementService{result: &settlementsvc.SettleResult{Order: order, TransactionID: "txn_1"}}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(itemID.String())))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), buyerID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderID != order.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.OrderID)
	}
	if envelope.Data.TransactionID != "txn_1" {
		t.Fatalf("unexpected transaction id: %s", envelope.Data.TransactionID)
	}

	if svc.gotIn == nil {
		t.Fatal("settle not invoked")
	}
	if svc.gotIn.Channel != settlementsvc.ChannelCheckout {
		t.Fatalf("unexpected channel: %s", svc.gotIn.Channel)
	}
	if svc.gotIn.BuyerID == nil || *svc.gotIn.BuyerID != buyerID {
		t.Fatal("buyer id not forwarded from token context")
	}
	if svc.gotIn.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("unexpected payment method: %s", svc.gotIn.PaymentMethod)
	}
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	handler := Checkout(&stubSettlementService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(uuid.NewString())))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutValidationError(t *testing.T) {
	handler := Checkout(&stubSettlementService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutShippingNeedsAddress(t *testing.T) {
	handler := Checkout(&stubSettlementService{}, nil)

	body := `{"items":[{"item_id":"` + uuid.NewString() + `","price":"10.00"}],"fulfillment_method":"shipping","payment_method_ref":"pm_123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSurfacesItemConflict(t *testing.T) {
	svc := &stubSettlementService{err: pkgerrors.New(pkgerrors.CodeItemUnavailable, "item is no longer available")}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(uuid.NewString())))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "no longer available") {
		t.Fatalf("expected conflict message in body: %s", resp.Body.String())
	}
}
