package lending

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"library/internal/borrow"
	"library/internal/catalog"
	"library/internal/user"

	"github.com/google/uuid"
)

// memState is a complete copy of the lending tables.
type memState struct {
	books   map[string]catalog.Book
	borrows map[string]borrow.Borrow
	users   map[string]user.User
}

func (s *memState) clone() *memState {
	c := &memState{
		books:   make(map[string]catalog.Book, len(s.books)),
		borrows: make(map[string]borrow.Borrow, len(s.borrows)),
		users:   make(map[string]user.User, len(s.users)),
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.borrows {
		c.borrows[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// memDB serialises transactions behind one mutex and applies a transaction's
// writes only when fn succeeds, which is the strongest isolation a real
// database can offer.
type memDB struct {
	mu    sync.Mutex
	state *memState
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		books:   map[string]catalog.Book{},
		borrows: map[string]borrow.Borrow{},
		users:   map[string]user.User{},
	}}
}

func (db *memDB) InTx(_ context.Context, fn func(Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	work := db.state.clone()
	if err := fn(memStores(work)); err != nil {
		return err
	}
	db.state = work
	return nil
}

func (db *memDB) Read() Stores {
	return memStores(db.snapshot())
}

func (db *memDB) snapshot() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

func (db *memDB) addUser(name string) string {
	id := uuid.NewString()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.users[id] = user.User{ID: id, Username: name, IsActive: true}
	return id
}

func (db *memDB) addBook(title string, copies uint) string {
	b, err := catalog.NewBook(title, "", "author", "category", copies)
	if err != nil {
		panic(err)
	}
	b.ID = uuid.NewString()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.books[b.ID] = b
	return b.ID
}

func (db *memDB) book(id string) catalog.Book {
	return db.snapshot().books[id]
}

func (db *memDB) member(id string) user.User {
	return db.snapshot().users[id]
}

func (db *memDB) openBorrows(userID string) int {
	n := 0
	for _, b := range db.snapshot().borrows {
		if b.UserID == userID && b.Open() {
			n++
		}
	}
	return n
}

func memStores(s *memState) Stores {
	return Stores{Books: memBooks{s}, Borrows: memBorrows{s}, Members: memMembers{s}}
}

type memBooks struct{ s *memState }

func (m memBooks) GetBookForUpdate(_ context.Context, id string) (catalog.Book, error) {
	b, ok := m.s.books[id]
	if !ok {
		return catalog.Book{}, catalog.ErrNotFound
	}
	return b, nil
}

func (m memBooks) DecrementAvailable(_ context.Context, id string) error {
	b, ok := m.s.books[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if b.AvailableCopies == 0 {
		return catalog.ErrNoCopiesLeft
	}
	b.AvailableCopies--
	m.s.books[id] = b
	return nil
}

func (m memBooks) IncrementAvailable(_ context.Context, id string) error {
	b, ok := m.s.books[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	m.s.books[id] = b
	return nil
}

type memBorrows struct{ s *memState }

func (m memBorrows) OpenCount(_ context.Context, userID string) (int, error) {
	n := 0
	for _, b := range m.s.borrows {
		if b.UserID == userID && b.Open() {
			n++
		}
	}
	return n, nil
}

func (m memBorrows) Create(_ context.Context, userID, bookID string, borrowDate, dueDate time.Time) (borrow.Borrow, error) {
	b := borrow.Borrow{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrow.Date(borrowDate),
		DueDate:    borrow.Date(dueDate),
	}
	m.s.borrows[b.ID] = b
	return b, nil
}

func (m memBorrows) FindForUpdate(_ context.Context, id string) (borrow.Borrow, error) {
	b, ok := m.s.borrows[id]
	if !ok {
		return borrow.Borrow{}, borrow.ErrNotFound
	}
	return b, nil
}

func (m memBorrows) Close(_ context.Context, id string, returnDate time.Time) error {
	b, ok := m.s.borrows[id]
	if !ok {
		return borrow.ErrNotFound
	}
	if !b.Open() {
		return borrow.ErrAlreadyReturned
	}
	d := borrow.Date(returnDate)
	b.ReturnDate = &d
	m.s.borrows[id] = b
	return nil
}

func (m memBorrows) ListByUser(_ context.Context, userID string, openOnly bool) ([]borrow.Borrow, error) {
	out := []borrow.Borrow{}
	for _, b := range m.s.borrows {
		if b.UserID != userID || (openOnly && !b.Open()) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowDate.After(out[j].BorrowDate) })
	return out, nil
}

type memMembers struct{ s *memState }

func (m memMembers) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (m memMembers) GetForUpdate(ctx context.Context, id string) (user.User, error) {
	return m.GetByID(ctx, id)
}

func (m memMembers) IncrementPenalty(_ context.Context, id string) error {
	u, ok := m.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PenaltyPoint++
	m.s.users[id] = u
	return nil
}

// flakyRunner fails the first n transactions with ErrConflict before
// delegating, as a database would under lock contention.
type flakyRunner struct {
	*memDB
	failures atomic.Int32
}

func (f *flakyRunner) InTx(ctx context.Context, fn func(Stores) error) error {
	if f.failures.Add(-1) >= 0 {
		return ErrConflict
	}
	return f.memDB.InTx(ctx, fn)
}

// clock is a settable time source shared by the service under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

func memberName(i int) string {
	return "member" + strconv.Itoa(i)
}
