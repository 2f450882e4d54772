package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

type lotFixture struct {
	lots   *stubLotRepo
	bids   *stubBidRepo
	locker *stubLocker
	audit  *stubAudit
	svc    *LotService
}

func newLotFixture() *lotFixture {
	f := &lotFixture{
		lots:   newStubLotRepo(),
		bids:   newStubBidRepo(),
		locker: newStubLocker(),
		audit:  &stubAudit{},
	}
	f.svc = NewLotService(f.lots, f.bids, f.locker, f.audit, "GBP", discardLogger)
	f.svc.now = fixedClock(testNow)
	return f
}

func createInput(owner string) ports.CreateLotInput {
	return ports.CreateLotInput{
		OwnerID:   owner,
		Name:      "Gramophone",
		Condition: "USED",
		BasePrice: "10.00",
		ExpiresAt: testNow.Add(300 * time.Second),
	}
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// CreateLot
// ---------------------------------------------------------------------------

func TestLotService_Create_Success(t *testing.T) {
	f := newLotFixture()

	got, err := f.svc.CreateLot(context.Background(), createInput("owner-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lot.PublicID == "" {
		t.Fatal("public id must be assigned")
	}
	if !got.IsActive {
		t.Error("lot expiring in the future must be active")
	}
	if got.Lot.BasePrice.Currency() != "GBP" {
		t.Errorf("expected default currency GBP, got %s", got.Lot.BasePrice.Currency())
	}
	if got.Lot.ModifiedAt != nil {
		t.Error("modified_at must be empty on creation")
	}
	if _, ok := f.lots.lots[got.Lot.PublicID]; !ok {
		t.Error("lot was not stored")
	}
	if len(f.audit.events) != 1 || f.audit.events[0].Kind != domain.AuditLotCreated {
		t.Errorf("expected one lot_created audit event, got %+v", f.audit.events)
	}
}

func TestLotService_Create_AlreadyExpiredIsAccepted(t *testing.T) {
	f := newLotFixture()
	in := createInput("owner-1")
	in.ExpiresAt = testNow.Add(-time.Minute)

	got, err := f.svc.CreateLot(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsActive {
		t.Error("lot created in the past must be expired")
	}
}

func TestLotService_Create_Validation(t *testing.T) {
	f := newLotFixture()

	badCondition := createInput("owner-1")
	badCondition.Condition = "MINT"
	if _, err := f.svc.CreateLot(context.Background(), badCondition); !errors.Is(err, domain.ErrInvalidCondition) {
		t.Errorf("expected ErrInvalidCondition, got %v", err)
	}

	negative := createInput("owner-1")
	negative.BasePrice = "-1"
	if _, err := f.svc.CreateLot(context.Background(), negative); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	noOwner := createInput("")
	if _, err := f.svc.CreateLot(context.Background(), noOwner); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	if len(f.lots.lots) != 0 {
		t.Errorf("invalid input must not be stored, got %d lots", len(f.lots.lots))
	}
}

func TestLotService_Create_RepoError(t *testing.T) {
	f := newLotFixture()
	f.lots.createErr = errors.New("db unavailable")

	if _, err := f.svc.CreateLot(context.Background(), createInput("owner-1")); err == nil {
		t.Fatal("expected error when repo fails, got nil")
	}
}

func TestLotService_Create_AuditFailureIsNonFatal(t *testing.T) {
	f := newLotFixture()
	f.audit.err = errors.New("mongo down")

	if _, err := f.svc.CreateLot(context.Background(), createInput("owner-1")); err != nil {
		t.Fatalf("audit failure must not fail the operation: %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetLot / ListLots
// ---------------------------------------------------------------------------

func TestLotService_Get_IncludesHighestBid(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))
	f.bids.byLot["lot-1"] = []*domain.Bid{
		{PublicID: "b1", LotID: "lot-1", BidderID: "u1", Price: domain.MustMoney("11.00", "GBP"), SubmittedAt: testNow},
		{PublicID: "b2", LotID: "lot-1", BidderID: "u2", Price: domain.MustMoney("12.00", "GBP"), SubmittedAt: testNow.Add(time.Second)},
	}

	got, err := f.svc.GetLot(context.Background(), "lot-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HighestBid == nil || got.HighestBid.PublicID != "b2" {
		t.Fatalf("expected highest bid b2, got %+v", got.HighestBid)
	}
}

func TestLotService_Get_DeletedIsNotFound(t *testing.T) {
	f := newLotFixture()
	lot := seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(-time.Hour))
	lot.Deleted = true

	if _, err := f.svc.GetLot(context.Background(), "lot-1"); !errors.Is(err, domain.ErrLotNotFound) {
		t.Fatalf("expected ErrLotNotFound, got %v", err)
	}
}

func TestLotService_List_LimitCappedAt100(t *testing.T) {
	f := newLotFixture()

	page, err := f.svc.ListLots(context.Background(), ports.ListLotsInput{Limit: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Limit != 100 || f.lots.lastFilter.Limit != 100 {
		t.Errorf("expected limit capped at 100, got %d", page.Limit)
	}
}

func TestLotService_List_Ordering(t *testing.T) {
	f := newLotFixture()

	if _, err := f.svc.ListLots(context.Background(), ports.ListLotsInput{Ordering: "-expires_at"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.lots.lastFilter.OrderBy != "expires_at" || !f.lots.lastFilter.Desc {
		t.Errorf("unexpected ordering passed to repo: %+v", f.lots.lastFilter)
	}

	if _, err := f.svc.ListLots(context.Background(), ports.ListLotsInput{Ordering: "password"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown ordering, got %v", err)
	}
}

func TestLotService_List_ActiveFilter(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "a", "owner-1", "1.00", testNow.Add(time.Hour))
	seedLot(f.lots, "b", "owner-1", "1.00", testNow.Add(-time.Hour))

	active := true
	page, err := f.svc.ListLots(context.Background(), ports.ListLotsInput{Active: &active})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || page.Items[0].Lot.PublicID != "a" || !page.Items[0].IsActive {
		t.Fatalf("expected only the active lot, got %+v", page.Items)
	}
}

// ---------------------------------------------------------------------------
// UpdateLot
// ---------------------------------------------------------------------------

func TestLotService_Update_StampsModifiedAt(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))

	got, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{
		LotID: "lot-1", ActorID: "owner-1", Name: strPtr("Gramophone (restored)"), Condition: strPtr("new_unused"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lot.Name != "Gramophone (restored)" || got.Lot.Condition != domain.ConditionNewUnused {
		t.Errorf("changes not applied: %+v", got.Lot)
	}
	if got.Lot.ModifiedAt == nil || !got.Lot.ModifiedAt.Equal(testNow) {
		t.Errorf("modified_at not stamped: %v", got.Lot.ModifiedAt)
	}
	if len(f.locker.locked) != 1 || f.locker.locked[0] != "lot-1" {
		t.Errorf("update must take the lot lock, got %v", f.locker.locked)
	}
	if len(f.locker.held) != 0 {
		t.Error("lock must be released")
	}
}

func TestLotService_Update_EmptyDeltaLeavesLotUntouched(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))

	got, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{LotID: "lot-1", ActorID: "owner-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lot.ModifiedAt != nil {
		t.Error("empty update must not stamp modified_at")
	}
	if len(f.audit.events) != 0 {
		t.Error("empty update must not be audited")
	}
}

func TestLotService_Update_ExpiredIsNotModifiable(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow)

	_, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{LotID: "lot-1", ActorID: "owner-1", Name: strPtr("x")})
	if !errors.Is(err, domain.ErrLotNotModifiable) {
		t.Fatalf("expected ErrLotNotModifiable, got %v", err)
	}
}

func TestLotService_Update_NotOwner(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))

	_, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{LotID: "lot-1", ActorID: "intruder", Name: strPtr("x")})
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("expected permission category, got %v", err)
	}
}

func TestLotService_Update_BasePriceFixedOnceBidsExist(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))

	if _, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{LotID: "lot-1", ActorID: "owner-1", BasePrice: strPtr("12.00")}); err != nil {
		t.Fatalf("base price change before bids must succeed: %v", err)
	}

	f.bids.byLot["lot-1"] = []*domain.Bid{{PublicID: "b1", LotID: "lot-1", Price: domain.MustMoney("13.00", "GBP"), SubmittedAt: testNow}}
	_, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{LotID: "lot-1", ActorID: "owner-1", BasePrice: strPtr("5.00")})
	if !errors.Is(err, domain.ErrLotNotModifiable) {
		t.Fatalf("expected ErrLotNotModifiable, got %v", err)
	}
	if got := f.lots.lots["lot-1"].BasePrice; !got.Equal(domain.MustMoney("12.00", "GBP")) {
		t.Errorf("base price must be unchanged, got %s", got)
	}
}

func TestLotService_Update_LockFailure(t *testing.T) {
	f := newLotFixture()
	f.locker.err = ports.ErrLockTimeout
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))

	_, err := f.svc.UpdateLot(context.Background(), ports.UpdateLotInput{LotID: "lot-1", ActorID: "owner-1", Name: strPtr("x")})
	if !errors.Is(err, ports.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// DeleteLot
// ---------------------------------------------------------------------------

func TestLotService_Delete_ActiveFails(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(time.Hour))

	if err := f.svc.DeleteLot(context.Background(), "lot-1", "owner-1"); !errors.Is(err, domain.ErrLotStillActive) {
		t.Fatalf("expected ErrLotStillActive, got %v", err)
	}
	if f.lots.lots["lot-1"].Deleted {
		t.Error("active lot must not be deleted")
	}
}

func TestLotService_Delete_ExpiredSucceeds(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(-time.Minute))

	if err := f.svc.DeleteLot(context.Background(), "lot-1", "owner-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := f.lots.lots["lot-1"]
	if !stored.Deleted || stored.DeletedAt == nil {
		t.Fatal("lot must be soft-deleted with a timestamp")
	}
	if _, err := f.svc.GetLot(context.Background(), "lot-1"); !errors.Is(err, domain.ErrLotNotFound) {
		t.Fatalf("deleted lot must be invisible, got %v", err)
	}
	if err := f.svc.DeleteLot(context.Background(), "lot-1", "owner-1"); !errors.Is(err, domain.ErrLotNotFound) {
		t.Fatalf("second delete must report not found, got %v", err)
	}
}

func TestLotService_Delete_NotOwner(t *testing.T) {
	f := newLotFixture()
	seedLot(f.lots, "lot-1", "owner-1", "10.00", testNow.Add(-time.Minute))

	if err := f.svc.DeleteLot(context.Background(), "lot-1", "someone"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}
