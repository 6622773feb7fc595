package items

import (
	"testing"
	"time"

	"github.com/mayaruiz/secondstory-backend/pkg/db/models"
	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
)

var allStatuses = []enums.ItemStatus{
	enums.ItemStatusPending,
	enums.ItemStatusApproved,
	enums.ItemStatusLive,
	enums.ItemStatusSold,
	enums.ItemStatusRejected,
	enums.ItemStatusArchived,
}

var allActorKinds = []ActorKind{ActorSeller, ActorAdmin, ActorSettlement, ActorRefund}

// legal enumerates every permitted (from, to, actor) triple. Anything
// outside this set must be refused.
var legal = map[[2]enums.ItemStatus]ActorKind{
	{enums.ItemStatusPending, enums.ItemStatusApproved}:  ActorAdmin,
	{enums.ItemStatusPending, enums.ItemStatusRejected}:  ActorAdmin,
	{enums.ItemStatusPending, enums.ItemStatusArchived}:  ActorAdmin,
	{enums.ItemStatusApproved, enums.ItemStatusLive}:     ActorAdmin,
	{enums.ItemStatusApproved, enums.ItemStatusPending}:  ActorAdmin,
	{enums.ItemStatusApproved, enums.ItemStatusSold}:     ActorSettlement,
	{enums.ItemStatusApproved, enums.ItemStatusArchived}: ActorAdmin,
	{enums.ItemStatusLive, enums.ItemStatusSold}:         ActorSettlement,
	{enums.ItemStatusLive, enums.ItemStatusPending}:      ActorAdmin,
	{enums.ItemStatusLive, enums.ItemStatusArchived}:     ActorAdmin,
	{enums.ItemStatusSold, enums.ItemStatusLive}:         ActorRefund,
	{enums.ItemStatusRejected, enums.ItemStatusPending}:  ActorSeller,
	{enums.ItemStatusRejected, enums.ItemStatusArchived}: ActorAdmin,
}

func TestCanTransitionExhaustive(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, kind := range allActorKinds {
				err := CanTransition(from, to, kind)
				allowedKind, pairLegal := legal[[2]enums.ItemStatus{from, to}]

				switch {
				case from == to:
					if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
						t.Errorf("%s->%s by %s: expected state conflict for self-transition, got %v", from, to, kind, err)
					}
				case pairLegal && kind == allowedKind:
					if err != nil {
						t.Errorf("%s->%s by %s: expected success, got %v", from, to, kind, err)
					}
				case pairLegal:
					if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
						t.Errorf("%s->%s by %s: expected forbidden, got %v", from, to, kind, err)
					}
				default:
					if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
						t.Errorf("%s->%s by %s: expected invalid transition, got %v", from, to, kind, err)
					}
				}
			}
		}
	}
}

func TestTransitionUpdatesStampsTimestamp(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		from, to enums.ItemStatus
		stamped  string
	}{
		{enums.ItemStatusPending, enums.ItemStatusApproved, "approved_at"},
		{enums.ItemStatusApproved, enums.ItemStatusLive, "live_at"},
		{enums.ItemStatusLive, enums.ItemStatusSold, "sold_at"},
		{enums.ItemStatusPending, enums.ItemStatusRejected, "rejected_at"},
		{enums.ItemStatusLive, enums.ItemStatusArchived, "archived_at"},
	}

	for _, tc := range cases {
		updates := TransitionUpdates(tc.from, tc.to, now)
		if updates["status"] != tc.to {
			t.Errorf("%s->%s: status not set", tc.from, tc.to)
		}
		got, ok := updates[tc.stamped]
		if !ok {
			t.Errorf("%s->%s: expected %s stamp", tc.from, tc.to, tc.stamped)
			continue
		}
		if got != now {
			t.Errorf("%s->%s: stamp %s = %v, want %v", tc.from, tc.to, tc.stamped, got, now)
		}
	}
}

func TestTransitionUpdatesSendBackClearsSupersededStamp(t *testing.T) {
	now := time.Now().UTC()

	fromApproved := TransitionUpdates(enums.ItemStatusApproved, enums.ItemStatusPending, now)
	if v, ok := fromApproved["approved_at"]; !ok || v != nil {
		t.Fatalf("approved->pending should null approved_at, got %v", v)
	}

	fromLive := TransitionUpdates(enums.ItemStatusLive, enums.ItemStatusPending, now)
	if v, ok := fromLive["live_at"]; !ok || v != nil {
		t.Fatalf("live->pending should null live_at, got %v", v)
	}

	fromRejected := TransitionUpdates(enums.ItemStatusRejected, enums.ItemStatusPending, now)
	if v, ok := fromRejected["rejected_at"]; !ok || v != nil {
		t.Fatalf("rejected->pending should null rejected_at, got %v", v)
	}
	if v, ok := fromRejected["rejection_reason"]; !ok || v != nil {
		t.Fatalf("rejected->pending should null rejection_reason, got %v", v)
	}
}

func TestApplyTransitionMirrorsUpdates(t *testing.T) {
	now := time.Now().UTC()
	reason := "stained"
	item := &models.Item{
		Status:          enums.ItemStatusRejected,
		RejectedAt:      &now,
		RejectionReason: &reason,
	}

	ApplyTransition(item, enums.ItemStatusPending, now)

	if item.Status != enums.ItemStatusPending {
		t.Fatalf("expected pending, got %s", item.Status)
	}
	if item.RejectedAt != nil || item.RejectionReason != nil {
		t.Fatalf("rejection metadata should be cleared")
	}
}

func TestEditable(t *testing.T) {
	for _, status := range allStatuses {
		want := status == enums.ItemStatusPending || status == enums.ItemStatusRejected
		if got := Editable(status); got != want {
			t.Errorf("Editable(%s) = %v, want %v", status, got, want)
		}
	}
}
