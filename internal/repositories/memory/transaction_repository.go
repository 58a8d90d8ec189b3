package memory

import (
	"context"
	"sort"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure TransactionRepository implements the interface
var _ repositories.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository is the in-memory ledger
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Append stages a ledger entry; a repeated transactionId is rejected
func (r *TransactionRepository) Append(ctx context.Context, transaction *models.Transaction) error {
	return r.store.write(ctx, func(u *unit) error {
		if err := u.lock("txn:" + transaction.TransactionID); err != nil {
			return err
		}
		if u.hasEntry(transaction.TransactionID) {
			return repositories.ErrDuplicateKey
		}
		transaction.ID = primitive.NewObjectID()
		entry := *transaction
		u.entries = append(u.entries, &entry)
		return nil
	})
}

// FindByTransactionID finds a ledger entry by its transaction id
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var found *models.Transaction
	r.store.read(ctx, func(u *unit) {
		for _, entry := range u.allEntries() {
			if entry.TransactionID == transactionID {
				found = entry
				return
			}
		}
	})
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	return found, nil
}

// FindByAccount finds the newest entries where the account is sender, receiver or agent
func (r *TransactionRepository) FindByAccount(ctx context.Context, accountID primitive.ObjectID, limit int) ([]*models.Transaction, error) {
	var entries []*models.Transaction
	r.store.read(ctx, func(u *unit) {
		for _, entry := range u.allEntries() {
			if entry.Involves(accountID) {
				entries = append(entries, entry)
			}
		}
	})
	return page(newestFirst(entries), 0, limit), nil
}

// FindAll finds all entries with pagination, newest first
func (r *TransactionRepository) FindAll(ctx context.Context, pageNum, limit int) ([]*models.Transaction, error) {
	var entries []*models.Transaction
	r.store.read(ctx, func(u *unit) {
		entries = u.allEntries()
	})
	return page(newestFirst(entries), (pageNum-1)*limit, limit), nil
}

// newestFirst orders by timestamp descending, later appends first on ties
func newestFirst(entries []*models.Transaction) []*models.Transaction {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

func page(entries []*models.Transaction, skip, limit int) []*models.Transaction {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(entries) {
		return []*models.Transaction{}
	}
	entries = entries[skip:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
