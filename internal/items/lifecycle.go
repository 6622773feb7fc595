package items

import (
	"time"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
)

// ActorKind identifies who is driving a lifecycle transition. Sellers
// and admins come from the request identity; settlement and refund are
// the internal engines, never reachable from the HTTP surface.
type ActorKind string

const (
	ActorSeller     ActorKind = "seller"
	ActorAdmin      ActorKind = "admin"
	ActorSettlement ActorKind = "settlement"
	ActorRefund     ActorKind = "refund"
)

// Actor carries the identity behind a transition for audit entries and
// ownership checks.
type Actor struct {
	ID   string
	Kind ActorKind
}

// transitions lists every legal (from, to) pair and the single actor
// kind allowed to drive it. approved->sold covers in-house sales that
// consummate before web publication.
var transitions = map[enums.ItemStatus]map[enums.ItemStatus]ActorKind{
	enums.ItemStatusPending: {
		enums.ItemStatusApproved: ActorAdmin,
		enums.ItemStatusRejected: ActorAdmin,
		enums.ItemStatusArchived: ActorAdmin,
	},
	enums.ItemStatusApproved: {
		enums.ItemStatusLive:     ActorAdmin,
		enums.ItemStatusPending:  ActorAdmin,
		enums.ItemStatusSold:     ActorSettlement,
		enums.ItemStatusArchived: ActorAdmin,
	},
	enums.ItemStatusLive: {
		enums.ItemStatusSold:     ActorSettlement,
		enums.ItemStatusPending:  ActorAdmin,
		enums.ItemStatusArchived: ActorAdmin,
	},
	enums.ItemStatusSold: {
		enums.ItemStatusLive: ActorRefund,
	},
	enums.ItemStatusRejected: {
		enums.ItemStatusPending:  ActorSeller,
		enums.ItemStatusArchived: ActorAdmin,
	},
}

// CanTransition reports whether actor kind may move an item from one
// status to another. Unknown pairs fail as invalid transitions; known
// pairs driven by the wrong actor fail as forbidden. Self-transitions
// are always invalid.
func CanTransition(from, to enums.ItemStatus, kind ActorKind) error {
	if from == to {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "item is already in the requested status")
	}
	allowed, ok := transitions[from][to]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status")
	}
	if allowed != kind {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor may not perform this transition")
	}
	return nil
}

// TransitionUpdates returns the column updates a transition writes:
// the new status, the stamp named for the transition, and nulls for
// any superseded stamp or rejection metadata.
func TransitionUpdates(from, to enums.ItemStatus, now time.Time) map[string]any {
	updates := map[string]any{"status": to}

	switch to {
	case enums.ItemStatusApproved:
		updates["approved_at"] = now
	case enums.ItemStatusLive:
		updates["live_at"] = now
	case enums.ItemStatusSold:
		updates["sold_at"] = now
	case enums.ItemStatusRejected:
		updates["rejected_at"] = now
	case enums.ItemStatusArchived:
		updates["archived_at"] = now
	case enums.ItemStatusPending:
		// Send-back and resubmission null the superseded stamp.
		switch from {
		case enums.ItemStatusApproved:
			updates["approved_at"] = nil
		case enums.ItemStatusLive:
			updates["live_at"] = nil
		case enums.ItemStatusRejected:
			updates["rejected_at"] = nil
			updates["rejection_reason"] = nil
		}
	}

	return updates
}

// ApplyTransition mutates the in-memory item to mirror TransitionUpdates.
func ApplyTransition(item *models.Item, to enums.ItemStatus, now time.Time) {
	from := item.Status
	item.Status = to

	switch to {
	case enums.ItemStatusApproved:
		item.ApprovedAt = &now
	case enums.ItemStatusLive:
		item.LiveAt = &now
	case enums.ItemStatusSold:
		item.SoldAt = &now
	case enums.ItemStatusRejected:
		item.RejectedAt = &now
	case enums.ItemStatusArchived:
		item.ArchivedAt = &now
	case enums.ItemStatusPending:
		switch from {
		case enums.ItemStatusApproved:
			item.ApprovedAt = nil
		case enums.ItemStatusLive:
			item.LiveAt = nil
		case enums.ItemStatusRejected:
			item.RejectedAt = nil
			item.RejectionReason = nil
		}
	}
}

// Editable reports whether a seller may still edit item fields.
func Editable(status enums.ItemStatus) bool {
	return status == enums.ItemStatusPending || status == enums.ItemStatusRejected
}
