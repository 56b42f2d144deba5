// Package memory is an in-process store implementing the booking and item
// repositories. It is used for local runs without Postgres and in tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	itemDomain "github.com/rentify/service-booking/internal/domain/item"
	"github.com/rentify/service-booking/internal/platform/apperror"
)

type historyRow struct {
	seq   int64
	entry *bookingDomain.HistoryEntry
}

// Store keeps committed state behind mu. Units of work on one item
// serialize on that item's lock channel and commit atomically under mu.
type Store struct {
	mu       sync.RWMutex
	items    map[uuid.UUID]*itemDomain.Item
	bookings map[uuid.UUID]*bookingDomain.Booking
	history  map[uuid.UUID][]historyRow
	seq      int64

	locksMu sync.Mutex
	locks   map[uuid.UUID]chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:    make(map[uuid.UUID]*itemDomain.Item),
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		history:  make(map[uuid.UUID][]historyRow),
		locks:    make(map[uuid.UUID]chan struct{}),
	}
}

func cloneItem(it *itemDomain.Item) *itemDomain.Item {
	return itemDomain.ReconstructItem(
		it.ID(), it.OwnerID(), it.Title(), it.PricePerDay(), it.Status(),
		it.MinRentalDays(), it.MaxRentalDays(), it.Version(), it.CreatedAt(), it.UpdatedAt(),
	)
}

func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(bookingDomain.ReconstructBookingParams{
		ID:                bk.ID(),
		ItemID:            bk.ItemID(),
		RenterID:          bk.RenterID(),
		OwnerID:           bk.OwnerID(),
		Status:            bk.Status(),
		Dates:             bk.Dates(),
		TotalPrice:        bk.TotalPrice(),
		RequiresLogistics: bk.RequiresLogistics(),
		RenterNote:        bk.RenterNote(),
		OwnerNote:         bk.OwnerNote(),
		CancelReason:      bk.CancelReason(),
		CancelledAt:       bk.CancelledAt(),
		CompletedAt:       bk.CompletedAt(),
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	})
}

// --- ItemRepository ---

// FindItem retrieves an item.
func (s *Store) FindItem(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, apperror.NewNotFound("item", id.String())
	}
	return cloneItem(it), nil
}

// ListIDs returns every item identifier.
func (s *Store) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}

// UpsertCatalog inserts the item or refreshes its catalog attributes, keeping the flag.
func (s *Store) UpsertCatalog(ctx context.Context, it *itemDomain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[it.ID()]; ok {
		existing.ApplyCatalog(it.OwnerID(), it.Title(), it.PricePerDay(), it.MinRentalDays(), it.MaxRentalDays())
		return nil
	}
	s.items[it.ID()] = cloneItem(it)
	return nil
}

// PutItem stores an item as is, flag included. Useful for seeding.
func (s *Store) PutItem(it *itemDomain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID()] = cloneItem(it)
}

// Items adapts the store to the item repository interface.
func (s *Store) Items() itemDomain.ItemRepository { return itemView{s} }

type itemView struct{ s *Store }

func (v itemView) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	return v.s.FindItem(ctx, id)
}

func (v itemView) ListIDs(ctx context.Context) ([]uuid.UUID, error) { return v.s.ListIDs(ctx) }

func (v itemView) UpsertCatalog(ctx context.Context, it *itemDomain.Item) error {
	return v.s.UpsertCatalog(ctx, it)
}

// --- BookingRepository ---

// FindByID retrieves a booking.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	bk, ok := s.bookings[id]
	if !ok {
		return nil, apperror.NewNotFound("booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (s *Store) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, bk := range s.bookings {
		if keep(bk) {
			out = append(out, cloneBooking(bk))
		}
	}
	return out
}

func newestFirst(bookings []*bookingDomain.Booking) {
	slices.SortFunc(bookings, func(a, b *bookingDomain.Booking) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		ai, bi := a.ID(), b.ID()
		return slices.Compare(ai[:], bi[:])
	})
}

func paginate(bookings []*bookingDomain.Booking, page, limit int) []*bookingDomain.Booking {
	offset := (page - 1) * limit
	if offset >= len(bookings) || offset < 0 {
		return []*bookingDomain.Booking{}
	}
	end := min(offset+limit, len(bookings))
	return bookings[offset:end]
}

// FindByParticipant retrieves bookings where the user is renter or owner.
func (s *Store) FindByParticipant(ctx context.Context, userID uuid.UUID, f bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	matched := s.filter(func(bk *bookingDomain.Booking) bool {
		if !bk.IsParticipant(userID) {
			return false
		}
		if f.ItemID != nil && bk.ItemID() != *f.ItemID {
			return false
		}
		return f.Status == nil || bk.Status() == *f.Status
	})
	newestFirst(matched)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

// ListAll retrieves all bookings with pagination.
func (s *Store) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	all := s.filter(func(*bookingDomain.Booking) bool { return true })
	newestFirst(all)
	return paginate(all, page, limit), int64(len(all)), nil
}

// CountByStatus returns booking counts grouped by status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, bk := range s.bookings {
		counts[bk.Status().String()]++
	}
	return counts, nil
}

// FindExpired returns CONFIRMED bookings whose end date is before today.
func (s *Store) FindExpired(ctx context.Context, today time.Time) ([]*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.filter(func(bk *bookingDomain.Booking) bool { return bk.IsExpired(today) }), nil
}

// FindConfirmedEndingOn returns CONFIRMED bookings whose end date is day.
func (s *Store) FindConfirmedEndingOn(ctx context.Context, day time.Time) ([]*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day = bookingDomain.DateOf(day)
	return s.filter(func(bk *bookingDomain.Booking) bool {
		return bk.Status() == bookingDomain.StatusConfirmed && bk.Dates().End().Equal(day)
	}), nil
}

// ActiveBookingsForItem returns the active bookings of an item.
func (s *Store) ActiveBookingsForItem(ctx context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.filter(func(bk *bookingDomain.Booking) bool {
		return bk.ItemID() == itemID && bk.IsActive()
	}), nil
}

// History returns the ledger of one booking.
func (s *Store) History(ctx context.Context, bookingID uuid.UUID, order bookingDomain.HistoryOrder) ([]*bookingDomain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rows := slices.Clone(s.history[bookingID])
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b historyRow) int {
		if c := a.entry.CreatedAt().Compare(b.entry.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	if order != bookingDomain.OrderChronological {
		slices.Reverse(rows)
	}

	entries := make([]*bookingDomain.HistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry
	}
	return entries, nil
}

// --- UnitOfWork ---

func (s *Store) itemLock(id uuid.UUID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// WithItemLock runs fn holding the item's exclusive lock. Writes are staged
// and applied only if fn returns nil and ctx is still live.
func (s *Store) WithItemLock(ctx context.Context, itemID uuid.UUID, fn bookingDomain.TxFunc) error {
	lock := s.itemLock(itemID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lock }()

	it, err := s.FindItem(ctx, itemID)
	if err != nil {
		return err
	}

	tx := &memTx{
		store:    s,
		itemID:   itemID,
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		deleted:  make(map[uuid.UUID]bool),
	}
	if err := fn(ctx, tx, it); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

// memTx stages writes of one unit of work.
type memTx struct {
	store    *Store
	itemID   uuid.UUID
	bookings map[uuid.UUID]*bookingDomain.Booking
	created  []uuid.UUID
	deleted  map[uuid.UUID]bool
	item     *itemDomain.Item
	history  []*bookingDomain.HistoryEntry
}

func (t *memTx) lookup(id uuid.UUID) (*bookingDomain.Booking, bool) {
	if t.deleted[id] {
		return nil, false
	}
	if bk, ok := t.bookings[id]; ok {
		return bk, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	bk, ok := t.store.bookings[id]
	return bk, ok
}

func (t *memTx) ActiveBookingsForItem(ctx context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	var ids []uuid.UUID
	for id, bk := range t.store.bookings {
		if bk.ItemID() == itemID {
			ids = append(ids, id)
		}
	}
	t.store.mu.RUnlock()
	ids = append(ids, t.created...)

	var out []*bookingDomain.Booking
	for _, id := range ids {
		if bk, ok := t.lookup(id); ok && bk.ItemID() == itemID && bk.IsActive() {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (t *memTx) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bk, ok := t.lookup(id)
	if !ok {
		return nil, apperror.NewNotFound("booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (t *memTx) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.bookings[bk.ID()] = cloneBooking(bk)
	t.created = append(t.created, bk.ID())
	return nil
}

func (t *memTx) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, ok := t.lookup(bk.ID())
	if !ok {
		return apperror.NewNotFound("booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return apperror.NewConflict("booking was modified by another transaction")
	}
	t.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (t *memTx) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.lookup(id); !ok {
		return apperror.NewNotFound("booking", id.String())
	}
	delete(t.bookings, id)
	t.deleted[id] = true
	return nil
}

func (t *memTx) UpdateItemStatus(ctx context.Context, it *itemDomain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	it.IncrementVersion()
	t.item = cloneItem(it)
	return nil
}

func (t *memTx) AppendHistory(ctx context.Context, entry *bookingDomain.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.history = append(t.history, entry)
	return nil
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.deleted {
		delete(s.bookings, id)
		delete(s.history, id)
	}
	for id, bk := range t.bookings {
		s.bookings[id] = bk
	}
	if t.item != nil {
		if existing, ok := s.items[t.itemID]; ok {
			t.item.ApplyCatalog(existing.OwnerID(), existing.Title(), existing.PricePerDay(), existing.MinRentalDays(), existing.MaxRentalDays())
		}
		s.items[t.itemID] = t.item
	}
	for _, h := range t.history {
		s.seq++
		s.history[h.BookingID()] = append(s.history[h.BookingID()], historyRow{seq: s.seq, entry: h})
	}
	return nil
}
