// Package memory is an in-process store with the same atomicity contract as the
// MongoDB repositories. It backs local development (Storage.Driver=memory) and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultMaxAttempts = 1000

// errWriteConflict means another unit of work holds a write lock on the document.
// WithTransaction rolls back and retries on it, like the driver does for TransientTransactionError.
var errWriteConflict = errors.New("write conflict")

// Compile-time check to ensure Store implements the interface
var _ repositories.Transactor = (*Store)(nil)

// Store holds committed state. Writers stage their changes in a unit and take a
// write lock per touched document; locks are never waited on, a conflict aborts
// the whole unit instead.
type Store struct {
	mu          sync.Mutex
	accounts    map[primitive.ObjectID]*models.Account
	ledger      []*models.Transaction
	ledgerIDs   map[string]int
	recharges   map[string]*models.RechargeRequest
	owners      map[string]uint64
	nextUnit    uint64
	maxAttempts int
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		accounts:    make(map[primitive.ObjectID]*models.Account),
		ledgerIDs:   make(map[string]int),
		recharges:   make(map[string]*models.RechargeRequest),
		owners:      make(map[string]uint64),
		maxAttempts: defaultMaxAttempts,
	}
}

type unitKey struct{}

type balanceDelta struct {
	balance int64
	income  int64
}

// unit is one in-flight unit of work. Balance changes are kept as deltas so
// that lock-free credits from concurrent units commute at commit time.
type unit struct {
	id      uint64
	store   *Store
	done    bool
	locks   []string
	created map[primitive.ObjectID]*models.Account
	deleted map[primitive.ObjectID]bool
	patches map[primitive.ObjectID][]func(*models.Account)
	deltas  map[primitive.ObjectID]*balanceDelta
	entries []*models.Transaction
	staged  map[string]*models.RechargeRequest
}

// WithTransaction runs fn as one unit of work. Nested calls join the outer unit.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.unitFrom(ctx) != nil {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		u := s.begin()
		err := fn(context.WithValue(ctx, unitKey{}, u))
		if err == nil {
			err = s.commit(u)
		} else {
			s.rollback(u)
		}

		if !errors.Is(err, errWriteConflict) {
			return err
		}
		if attempt >= s.maxAttempts {
			return fmt.Errorf("transaction aborted after %d attempts: %w", attempt, err)
		}
		time.Sleep(backoff(attempt))
	}
}

func backoff(attempt int) time.Duration {
	step := time.Duration(min(attempt, 20)) * 50 * time.Microsecond
	return step/2 + time.Duration(rand.Int63n(int64(step)))
}

func (s *Store) unitFrom(ctx context.Context) *unit {
	u, ok := ctx.Value(unitKey{}).(*unit)
	if !ok || u.store != s {
		return nil
	}
	return u
}

func (s *Store) begin() *unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUnit++
	return &unit{
		id:      s.nextUnit,
		store:   s,
		created: make(map[primitive.ObjectID]*models.Account),
		deleted: make(map[primitive.ObjectID]bool),
		patches: make(map[primitive.ObjectID][]func(*models.Account)),
		deltas:  make(map[primitive.ObjectID]*balanceDelta),
		staged:  make(map[string]*models.RechargeRequest),
	}
}

// write runs fn against the unit in ctx, or as its own auto-committed unit
func (s *Store) write(ctx context.Context, fn func(u *unit) error) error {
	if u := s.unitFrom(ctx); u != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if u.done {
			return errors.New("transaction already finished")
		}
		return fn(u)
	}
	return s.WithTransaction(ctx, func(ctx context.Context) error {
		return s.write(ctx, fn)
	})
}

// read runs fn against the unit in ctx, or against committed state
func (s *Store) read(ctx context.Context, fn func(u *unit)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFrom(ctx)
	if u == nil {
		u = &unit{store: s}
	}
	fn(u)
}

func (s *Store) rollback(u *unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(u)
}

func (s *Store) release(u *unit) {
	for _, key := range u.locks {
		if s.owners[key] == u.id {
			delete(s.owners, key)
		}
	}
	u.locks = nil
	u.done = true
}

func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.release(u)

	// Lock-free credits may target an account another unit deleted meanwhile
	for id := range u.deltas {
		if _, ok := u.created[id]; ok {
			continue
		}
		if _, ok := s.accounts[id]; !ok || u.deleted[id] {
			return fmt.Errorf("account %s removed before commit", id.Hex())
		}
	}

	for id, account := range u.created {
		s.accounts[id] = account
	}
	for id, patches := range u.patches {
		for _, patch := range patches {
			patch(s.accounts[id])
		}
	}
	for id, d := range u.deltas {
		s.accounts[id].Balance += d.balance
		s.accounts[id].IncomeAccrued += d.income
	}
	for id := range u.deleted {
		delete(s.accounts, id)
	}
	for _, entry := range u.entries {
		s.ledgerIDs[entry.TransactionID] = len(s.ledger)
		s.ledger = append(s.ledger, entry)
	}
	for requestID, request := range u.staged {
		s.recharges[requestID] = request
	}
	return nil
}

// lock takes the write lock on key for this unit
func (u *unit) lock(key string) error {
	owner, held := u.store.owners[key]
	if held && owner != u.id {
		return fmt.Errorf("%w on %s", errWriteConflict, key)
	}
	if !held {
		u.store.owners[key] = u.id
		u.locks = append(u.locks, key)
	}
	return nil
}

// account returns the unit's view of an account
func (u *unit) account(id primitive.ObjectID) (*models.Account, bool) {
	if u.deleted[id] {
		return nil, false
	}
	var account *models.Account
	if created, ok := u.created[id]; ok {
		account = created.Clone()
	} else if committed, ok := u.store.accounts[id]; ok {
		account = committed.Clone()
	} else {
		return nil, false
	}
	for _, patch := range u.patches[id] {
		patch(account)
	}
	if d, ok := u.deltas[id]; ok {
		account.Balance += d.balance
		account.IncomeAccrued += d.income
	}
	return account, true
}

func (u *unit) allAccounts() []*models.Account {
	accounts := make([]*models.Account, 0, len(u.store.accounts)+len(u.created))
	for id := range u.store.accounts {
		if account, ok := u.account(id); ok {
			accounts = append(accounts, account)
		}
	}
	for id := range u.created {
		if account, ok := u.account(id); ok {
			accounts = append(accounts, account)
		}
	}
	return accounts
}

func (u *unit) findAccount(match func(*models.Account) bool) (*models.Account, bool) {
	for _, account := range u.allAccounts() {
		if match(account) {
			return account, true
		}
	}
	return nil, false
}

func (u *unit) addDelta(id primitive.ObjectID, balance, income int64) {
	d, ok := u.deltas[id]
	if !ok {
		d = &balanceDelta{}
		u.deltas[id] = d
	}
	d.balance += balance
	d.income += income
}

func (u *unit) patch(id primitive.ObjectID, fn func(*models.Account)) {
	if created, ok := u.created[id]; ok {
		fn(created)
		return
	}
	u.patches[id] = append(u.patches[id], fn)
}

func (u *unit) recharge(requestID string) (*models.RechargeRequest, bool) {
	if staged, ok := u.staged[requestID]; ok {
		return staged.Clone(), true
	}
	if committed, ok := u.store.recharges[requestID]; ok {
		return committed.Clone(), true
	}
	return nil, false
}

func (u *unit) allRecharges() []*models.RechargeRequest {
	requests := make([]*models.RechargeRequest, 0, len(u.store.recharges)+len(u.staged))
	for requestID := range u.store.recharges {
		if _, ok := u.staged[requestID]; ok {
			continue
		}
		request, _ := u.recharge(requestID)
		requests = append(requests, request)
	}
	for requestID := range u.staged {
		request, _ := u.recharge(requestID)
		requests = append(requests, request)
	}
	return requests
}

func (u *unit) hasEntry(transactionID string) bool {
	if _, ok := u.store.ledgerIDs[transactionID]; ok {
		return true
	}
	for _, entry := range u.entries {
		if entry.TransactionID == transactionID {
			return true
		}
	}
	return false
}

func (u *unit) allEntries() []*models.Transaction {
	entries := make([]*models.Transaction, 0, len(u.store.ledger)+len(u.entries))
	for _, entry := range u.store.ledger {
		c := *entry
		entries = append(entries, &c)
	}
	for _, entry := range u.entries {
		c := *entry
		entries = append(entries, &c)
	}
	return entries
}

func accountKey(id primitive.ObjectID) string { return "acct:" + id.Hex() }
