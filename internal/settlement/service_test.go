package settlement

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeGateway struct {
	calls int
	ref   string
	err   error
}

func (g *fakeGateway) AuthorizeAndCapture(ctx context.Context, amountCents int64, paymentMethodRef string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if g.ref == "" {
		g.ref = "pi_test_1"
	}
	return g.ref, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.ItemEvent{},
		&models.Order{},
		&models.Sale{},
		&models.StoreCreditTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "settlement-test", Output: io.Discard})
}

func newTestService(t *testing.T, conn *gorm.DB, gateway paymentGateway) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), testTxRunner{db: conn}, gateway, nil, testLogger(), nil, decimal.RequireFromString("5.99"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedSeller(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@secondstory.test",
		DisplayName: "Seller",
		Role:        enums.UserRoleBuyer,
		StoreCredit: decimal.Zero,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed seller: %v", err)
	}
	return user
}

func seedItem(t *testing.T, conn *gorm.DB, sellerID string, price string, status enums.ItemStatus) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		Title:     "Leather satchel",
		Category:  enums.ItemCategoryAccessories,
		Condition: enums.ItemConditionGood,
		Price:     decimal.RequireFromString(price),
		Status:    status,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestSettleHappyPathSplitsEarnings(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "100", enums.ItemStatusLive)
	buyerID := uuid.New()

	result, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("100")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if !result.Order.Total.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected total 100.00, got %s", result.Order.Total)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected one gateway capture, got %d", gateway.calls)
	}

	var soldItem models.Item
	if err := conn.First(&soldItem, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if soldItem.Status != enums.ItemStatusSold {
		t.Fatalf("expected sold, got %s", soldItem.Status)
	}
	if soldItem.SellerEarnings == nil || !soldItem.SellerEarnings.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("expected seller earnings 75.00, got %v", soldItem.SellerEarnings)
	}

	var sale models.Sale
	if err := conn.First(&sale, "item_id = ?", item.ID).Error; err != nil {
		t.Fatalf("load sale: %v", err)
	}
	if !sale.StoreCommission.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("expected commission 25.00, got %s", sale.StoreCommission)
	}

	var credit models.StoreCreditTransaction
	if err := conn.First(&credit, "seller_id = ?", seller.ID.String()).Error; err != nil {
		t.Fatalf("load credit: %v", err)
	}
	if !credit.Amount.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("expected credit 75.00, got %s", credit.Amount)
	}
	if credit.Type != enums.CreditTransactionTypeEarned {
		t.Fatalf("expected earned entry, got %s", credit.Type)
	}

	var updatedSeller models.User
	if err := conn.First(&updatedSeller, "id = ?", seller.ID).Error; err != nil {
		t.Fatalf("reload seller: %v", err)
	}
	if !updatedSeller.StoreCredit.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("expected seller balance 75.00, got %s", updatedSeller.StoreCredit)
	}
}

func TestSettleShippingAddsFee(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "50", enums.ItemStatusLive)
	buyerID := uuid.New()
	address := "12 Main St"

	result, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("50")}},
		FulfillmentMethod: enums.FulfillmentMethodShipping,
		ShippingAddress:   &address,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if !result.Order.Total.Equal(decimal.RequireFromString("55.99")) {
		t.Fatalf("expected total 55.99, got %s", result.Order.Total)
	}
	if result.Order.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", result.Order.Status)
	}
}

func TestSettleRejectsUnavailableItemWithoutCapture(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "40", enums.ItemStatusPending)
	buyerID := uuid.New()

	_, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("40")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeItemUnavailable) {
		t.Fatalf("expected item unavailable, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatalf("gateway must not be called on failed preconditions")
	}

	var reloaded models.Item
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if reloaded.Status != enums.ItemStatusPending {
		t.Fatalf("expected item untouched, got %s", reloaded.Status)
	}
}

func TestSettlePriceMismatch(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "40", enums.ItemStatusLive)
	buyerID := uuid.New()

	_, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("39.50")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodePriceMismatch) {
		t.Fatalf("expected price mismatch, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatalf("gateway must not be called on stale prices")
	}
}

func TestSettleWithinPriceTolerance(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "40.00", enums.ItemStatusLive)
	buyerID := uuid.New()

	_, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("39.99")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if err != nil {
		t.Fatalf("expected one-cent drift to settle, got %v", err)
	}
}

func TestSettleEmptyCart(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakeGateway{})

	_, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSettlePaymentDeclineLeavesStoreUntouched(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{err: pkgerrors.New(pkgerrors.CodePaymentFailed, "card declined")}
	svc := newTestService(t, conn, gateway)

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "60", enums.ItemStatusLive)
	buyerID := uuid.New()

	_, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("60")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodePaymentFailed) {
		t.Fatalf("expected payment failure, got %v", err)
	}

	var reloaded models.Item
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if reloaded.Status != enums.ItemStatusLive {
		t.Fatalf("expected item still live, got %s", reloaded.Status)
	}
}

// failingRepo forces a failure at order creation, after the item rows
// were already staged inside the transaction.
type failingRepo struct {
	Repository
}

func (f failingRepo) WithTx(tx *gorm.DB) Repository {
	return failingRepo{Repository: f.Repository.WithTx(tx)}
}

func (f failingRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return nil, errors.New("forced order write failure")
}

func TestSettleAtomicRollbackOnCommitFailure(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}

	svc, err := NewService(failingRepo{Repository: NewRepository(conn)}, testTxRunner{db: conn}, gateway, nil, testLogger(), nil, decimal.RequireFromString("5.99"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "80", enums.ItemStatusLive)
	buyerID := uuid.New()

	_, err = svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("80")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeSettlementInconsistency) {
		t.Fatalf("expected settlement inconsistency after capture, got %v", err)
	}

	// Nothing may be partially visible.
	var reloaded models.Item
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if reloaded.Status != enums.ItemStatusLive {
		t.Fatalf("expected rollback to live, got %s", reloaded.Status)
	}

	var saleCount int64
	if err := conn.Model(&models.Sale{}).Count(&saleCount).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if saleCount != 0 {
		t.Fatalf("expected no sale rows after rollback, got %d", saleCount)
	}
}

// casLosingRepo simulates losing the sold compare-and-set to a
// concurrent settlement.
type casLosingRepo struct {
	Repository
}

func (f casLosingRepo) WithTx(tx *gorm.DB) Repository {
	return casLosingRepo{Repository: f.Repository.WithTx(tx)}
}

func (f casLosingRepo) MarkItemSold(ctx context.Context, itemID string, allowedFrom []enums.ItemStatus, updates map[string]any) (int64, error) {
	return 0, nil
}

func TestSettleCASLoserGetsItemUnavailable(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}

	svc, err := NewService(casLosingRepo{Repository: NewRepository(conn)}, testTxRunner{db: conn}, gateway, nil, testLogger(), nil, decimal.RequireFromString("5.99"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "70", enums.ItemStatusLive)
	buyerID := uuid.New()

	_, err = svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelCheckout,
		BuyerID:           &buyerID,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("70")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeItemUnavailable) {
		t.Fatalf("expected item unavailable for CAS loser, got %v", err)
	}
}

func TestInHouseSaleAllowsApprovedAndSkipsGateway(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)

	item := seedItem(t, conn, "phone_5551234", "30", enums.ItemStatusApproved)

	result, err := svc.Settle(context.Background(), SettleInput{
		Channel:           ChannelInHouse,
		Items:             []CartItem{{ItemID: item.ID, Price: decimal.RequireFromString("30")}},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("in-house settle: %v", err)
	}

	if gateway.calls != 0 {
		t.Fatalf("in-house sales must not touch the gateway")
	}
	if result.Order.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", result.Order.Status)
	}
	if result.Order.BuyerID != nil {
		t.Fatalf("expected anonymous buyer")
	}

	// Pseudo sellers earn no ledger credit.
	var creditCount int64
	if err := conn.Model(&models.StoreCreditTransaction{}).Count(&creditCount).Error; err != nil {
		t.Fatalf("count credits: %v", err)
	}
	if creditCount != 0 {
		t.Fatalf("expected no credit for pseudo seller, got %d rows", creditCount)
	}
}

func TestSettleDuplicateItemRejected(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakeGateway{})

	seller := seedSeller(t, conn)
	item := seedItem(t, conn, seller.ID.String(), "20", enums.ItemStatusLive)
	buyerID := uuid.New()

	_, err := svc.Settle(context.Background(), SettleInput{
		Channel: ChannelCheckout,
		BuyerID: &buyerID,
		Items: []CartItem{
			{ItemID: item.ID, Price: decimal.RequireFromString("20")},
			{ItemID: item.ID, Price: decimal.RequireFromString("20")},
		},
		FulfillmentMethod: enums.FulfillmentMethodPickup,
		PaymentMethod:     enums.PaymentMethodCard,
		PaymentMethodRef:  "pm_card",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for duplicate items, got %v", err)
	}
}
