package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Shared fixtures
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	testNow       = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func seedLot(repo *stubLotRepo, id, owner, basePrice string, expiresAt time.Time) *domain.Lot {
	lot := &domain.Lot{
		PublicID:  id,
		OwnerID:   owner,
		Name:      "lot " + id,
		Condition: domain.ConditionUsed,
		BasePrice: domain.MustMoney(basePrice, "GBP"),
		CreatedAt: testNow.Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
	repo.lots[id] = lot
	return lot
}

// ---------------------------------------------------------------------------
// Lot repository stub
// ---------------------------------------------------------------------------

type stubLotRepo struct {
	lots       map[string]*domain.Lot
	createErr  error
	lastFilter ports.ListLotsFilter
}

func newStubLotRepo() *stubLotRepo {
	return &stubLotRepo{lots: make(map[string]*domain.Lot)}
}

func (r *stubLotRepo) Create(_ context.Context, lot *domain.Lot) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *lot
	r.lots[lot.PublicID] = &clone
	return nil
}

func (r *stubLotRepo) FindByPublicID(_ context.Context, id string) (*domain.Lot, error) {
	lot, ok := r.lots[id]
	if !ok || lot.Deleted {
		return nil, domain.ErrLotNotFound
	}
	clone := *lot
	return &clone, nil
}

func (r *stubLotRepo) Update(_ context.Context, lot *domain.Lot) error {
	if _, ok := r.lots[lot.PublicID]; !ok {
		return domain.ErrLotNotFound
	}
	clone := *lot
	r.lots[lot.PublicID] = &clone
	return nil
}

func (r *stubLotRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	lot, ok := r.lots[id]
	if !ok || lot.Deleted {
		return domain.ErrLotNotFound
	}
	lot.Deleted = true
	lot.DeletedAt = &at
	return nil
}

func (r *stubLotRepo) List(_ context.Context, f ports.ListLotsFilter) ([]*domain.Lot, int64, error) {
	r.lastFilter = f
	var matched []*domain.Lot
	for _, lot := range r.lots {
		if lot.Deleted {
			continue
		}
		if f.OwnerID != "" && lot.OwnerID != f.OwnerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(lot.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.Active != nil && lot.IsActive(f.Now) != *f.Active {
			continue
		}
		clone := *lot
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PublicID < matched[j].PublicID })
	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []*domain.Lot{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], total, nil
}

func (r *stubLotRepo) ListExpiredUnsold(_ context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	for id, lot := range r.lots {
		if !lot.Deleted && !lot.IsActive(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Bid ledger stub (enforces the same conditional append as the real stores)
// ---------------------------------------------------------------------------

type stubBidRepo struct {
	byLot     map[string][]*domain.Bid
	appendErr error
	listCalls int
}

func newStubBidRepo() *stubBidRepo {
	return &stubBidRepo{byLot: make(map[string][]*domain.Bid)}
}

func (r *stubBidRepo) Append(_ context.Context, bid *domain.Bid) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	if top := domain.HighestBid(r.byLot[bid.LotID]); top != nil && bid.Price.Amount().Cmp(top.Price.Amount()) <= 0 {
		return domain.ErrBidTooLow
	}
	clone := *bid
	r.byLot[bid.LotID] = append(r.byLot[bid.LotID], &clone)
	return nil
}

func (r *stubBidRepo) Highest(_ context.Context, lotID string) (*domain.Bid, error) {
	top := domain.HighestBid(r.byLot[lotID])
	if top == nil {
		return nil, nil
	}
	clone := *top
	return &clone, nil
}

func (r *stubBidRepo) List(_ context.Context, lotID string, q ports.BidQuery) ([]*domain.Bid, int64, error) {
	r.listCalls++
	var matched []*domain.Bid
	for _, b := range r.byLot[lotID] {
		if b.Deleted || (q.BidderID != "" && b.BidderID != q.BidderID) {
			continue
		}
		clone := *b
		matched = append(matched, &clone)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if q.Desc {
			a, b = b, a
		}
		if q.OrderBy == ports.BidOrderPrice {
			return a.Price.Amount().LessThan(b.Price.Amount())
		}
		return a.SubmittedAt.Before(b.SubmittedAt)
	})
	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []*domain.Bid{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], total, nil
}

func (r *stubBidRepo) FindByPublicID(_ context.Context, id string) (*domain.Bid, error) {
	for _, bids := range r.byLot {
		for _, b := range bids {
			if b.PublicID == id && !b.Deleted {
				clone := *b
				return &clone, nil
			}
		}
	}
	return nil, domain.ErrBidNotFound
}

// ---------------------------------------------------------------------------
// Sale repository stub
// ---------------------------------------------------------------------------

type stubSaleRepo struct {
	byLot   map[string]*domain.Sale
	creates int
	// racer, when set, is stored just before Create runs to simulate a
	// concurrent finalizer winning the unique constraint.
	racer *domain.Sale
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{byLot: make(map[string]*domain.Sale)}
}

func (r *stubSaleRepo) FindByLot(_ context.Context, lotID string) (*domain.Sale, error) {
	s, ok := r.byLot[lotID]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) Create(_ context.Context, sale *domain.Sale) error {
	if r.racer != nil {
		r.byLot[r.racer.LotID] = r.racer
		r.racer = nil
	}
	if _, exists := r.byLot[sale.LotID]; exists {
		return domain.ErrSaleExists
	}
	r.creates++
	r.byLot[sale.LotID] = sale
	return nil
}

// ---------------------------------------------------------------------------
// Locker and audit stubs
// ---------------------------------------------------------------------------

type stubLocker struct {
	mu     sync.Mutex
	err    error
	locked []string
	held   map[string]bool
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (l *stubLocker) Lock(_ context.Context, lotID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, lotID)
	l.held[lotID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, lotID)
	}, nil
}

type stubAudit struct {
	err    error
	events []domain.AuditEvent
}

func (a *stubAudit) Record(_ context.Context, e domain.AuditEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

// ---------------------------------------------------------------------------
// Profile and identity stubs
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	byAuth  map[string]*domain.Profile
	ensured int
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byAuth: make(map[string]*domain.Profile)}
}

func (r *stubProfileRepo) EnsureForAuthID(_ context.Context, candidate *domain.Profile) (*domain.Profile, bool, error) {
	r.ensured++
	if p, ok := r.byAuth[candidate.AuthID]; ok {
		return p, false, nil
	}
	clone := *candidate
	r.byAuth[candidate.AuthID] = &clone
	return &clone, true, nil
}

func (r *stubProfileRepo) FindByPublicID(_ context.Context, id string) (*domain.Profile, error) {
	for _, p := range r.byAuth {
		if p.PublicID == id && !p.Deleted {
			return p, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (r *stubProfileRepo) List(_ context.Context, limit, offset int) ([]*domain.Profile, int64, error) {
	var all []*domain.Profile
	for _, p := range r.byAuth {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := int64(len(all))
	if offset >= len(all) {
		return []*domain.Profile{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type stubIdentityRepo struct {
	users map[string]*domain.Identity
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{users: make(map[string]*domain.Identity)}
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	if _, exists := r.users[identity.Username]; exists {
		return nil, domain.ErrIdentityExists
	}
	clone := *identity
	r.users[identity.Username] = &clone
	out := clone
	return &out, nil
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	clone := *u
	return &clone, nil
}
