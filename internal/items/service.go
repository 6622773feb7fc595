package items

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
	"github.com/mayaruiz/secondstory-backend/pkg/ids"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines item lifecycle operations.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Item, error)
	Update(ctx context.Context, itemID, sellerID string, input UpdateInput) (*models.Item, error)
	Resubmit(ctx context.Context, itemID, sellerID string) (*models.Item, error)
	Approve(ctx context.Context, input ApproveInput) (*models.Item, error)
	Reject(ctx context.Context, input RejectInput) (*models.Item, error)
	MakeLive(ctx context.Context, itemID string, actor Actor) (*models.Item, error)
	SendBack(ctx context.Context, itemID string, actor Actor) (*models.Item, error)
	Archive(ctx context.Context, itemID string, actor Actor) (*models.Item, error)
	Get(ctx context.Context, itemID string) (*models.Item, error)
	List(ctx context.Context, filter ListFilter) ([]models.Item, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	priceCeiling decimal.Decimal
}

var minPrice = decimal.RequireFromString("0.01")

// NewService builds the item service with the configured price ceiling.
func NewService(repo Repository, tx txRunner, priceCeiling decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if priceCeiling.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("price ceiling must be positive")
	}
	return &service{repo: repo, tx: tx, priceCeiling: priceCeiling}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Item, error) {
	if strings.TrimSpace(input.SellerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
	}
	if err := s.validatePrice(input.Price); err != nil {
		return nil, err
	}

	item := &models.Item{
		ID:            uuid.NewString(),
		SellerID:      input.SellerID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Category:      input.Category,
		Condition:     input.Condition,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Images:        input.Images,
		Status:        enums.ItemStatusPending,
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, itemID, sellerID string, input UpdateInput) (*models.Item, error) {
	if input.Price != nil {
		if err := s.validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}

	var updated *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := loadItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		if item.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to seller")
		}
		if !Editable(item.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item cannot be edited in current status")
		}

		updates := buildFieldUpdates(input)

		// Editing a rejected item resubmits it.
		wasRejected := item.Status == enums.ItemStatusRejected
		if wasRejected {
			for k, v := range TransitionUpdates(enums.ItemStatusRejected, enums.ItemStatusPending, time.Now().UTC()) {
				updates[k] = v
			}
		}

		if err := repo.UpdateItemFields(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
		}

		if wasRejected {
			if err := appendEvent(ctx, repo, item.ID, enums.ItemStatusRejected, enums.ItemStatusPending, Actor{ID: sellerID, Kind: ActorSeller}, strPtr("edited and resubmitted")); err != nil {
				return err
			}
		}

		updated, err = repo.FindItemByID(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Resubmit(ctx context.Context, itemID, sellerID string) (*models.Item, error) {
	return s.performTransition(ctx, itemID, enums.ItemStatusPending, Actor{ID: sellerID, Kind: ActorSeller}, strPtr("resubmitted"), nil)
}

func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.Item, error) {
	barcode := input.Barcode
	if barcode == nil || strings.TrimSpace(*barcode) == "" {
		generated := ids.Barcode()
		barcode = &generated
	}
	extra := map[string]any{"barcode": *barcode}
	return s.performTransition(ctx, input.ItemID, enums.ItemStatusApproved, input.Actor, nil, extra)
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.Item, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	extra := map[string]any{"rejection_reason": reason}
	return s.performTransition(ctx, input.ItemID, enums.ItemStatusRejected, input.Actor, &reason, extra)
}

func (s *service) MakeLive(ctx context.Context, itemID string, actor Actor) (*models.Item, error) {
	return s.performTransition(ctx, itemID, enums.ItemStatusLive, actor, nil, nil)
}

func (s *service) SendBack(ctx context.Context, itemID string, actor Actor) (*models.Item, error) {
	return s.performTransition(ctx, itemID, enums.ItemStatusPending, actor, strPtr("sent back for review"), nil)
}

func (s *service) Archive(ctx context.Context, itemID string, actor Actor) (*models.Item, error) {
	return s.performTransition(ctx, itemID, enums.ItemStatusArchived, actor, nil, nil)
}

func (s *service) Get(ctx context.Context, itemID string) (*models.Item, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	items, err := s.repo.ListItems(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return items, nil
}

func (s *service) performTransition(ctx context.Context, itemID string, target enums.ItemStatus, actor Actor, note *string, extra map[string]any) (*models.Item, error) {
	var result *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := loadItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		if err := CanTransition(item.Status, target, actor.Kind); err != nil {
			return err
		}
		if actor.Kind == ActorSeller && item.SellerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to seller")
		}

		from := item.Status
		now := time.Now().UTC()
		updates := TransitionUpdates(from, target, now)
		for k, v := range extra {
			updates[k] = v
		}

		rows, err := repo.TransitionItem(ctx, item.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition item")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item status changed concurrently")
		}

		if err := appendEvent(ctx, repo, item.ID, from, target, actor, note); err != nil {
			return err
		}

		result, err = repo.FindItemByID(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) validatePrice(price decimal.Decimal) error {
	if price.LessThan(minPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 0.01")
	}
	if price.GreaterThan(s.priceCeiling) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("price exceeds ceiling of %s", s.priceCeiling.StringFixed(2)))
	}
	return nil
}

func loadItem(ctx context.Context, repo Repository, itemID string) (*models.Item, error) {
	item, err := repo.FindItemByID(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func appendEvent(ctx context.Context, repo Repository, itemID string, from, to enums.ItemStatus, actor Actor, note *string) error {
	event := &models.ItemEvent{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  string(actor.Kind),
		Note:       note,
	}
	if err := repo.AppendEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append item event")
	}
	return nil
}

func buildFieldUpdates(input UpdateInput) map[string]any {
	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Condition != nil {
		updates["condition"] = *input.Condition
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.OriginalPrice != nil {
		updates["original_price"] = *input.OriginalPrice
	}
	if input.Images != nil {
		// Map-based updates bypass the model serializer, so encode here.
		if encoded, err := json.Marshal(input.Images); err == nil {
			updates["images"] = encoded
		}
	}
	return updates
}

func strPtr(s string) *string {
	return &s
}
