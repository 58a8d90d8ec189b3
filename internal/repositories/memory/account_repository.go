package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure AccountRepository implements the interface
var _ repositories.AccountRepository = (*AccountRepository)(nil)

// AccountRepository is the in-memory AccountRepository
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create inserts a new account; email, mobile and national ID must be unused
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.store.write(ctx, func(u *unit) error {
		for _, key := range []string{"email:" + account.Email, "mobile:" + account.MobileNumber, "nid:" + account.NationalID} {
			if err := u.lock(key); err != nil {
				return err
			}
		}
		_, taken := u.findAccount(func(a *models.Account) bool {
			return a.Email == account.Email || a.MobileNumber == account.MobileNumber || a.NationalID == account.NationalID
		})
		if taken {
			return repositories.ErrDuplicateKey
		}

		if account.ID.IsZero() {
			account.ID = primitive.NewObjectID()
		} else if _, exists := u.account(account.ID); exists {
			return repositories.ErrDuplicateKey
		}
		if account.CreatedAt.IsZero() {
			account.CreatedAt = time.Now().UTC()
		}
		u.created[account.ID] = account.Clone()
		return nil
	})
}

func (r *AccountRepository) findOne(ctx context.Context, match func(*models.Account) bool) (*models.Account, error) {
	var (
		account *models.Account
		found   bool
	)
	r.store.read(ctx, func(u *unit) {
		account, found = u.findAccount(match)
	})
	if !found {
		return nil, repositories.ErrNotFound
	}
	return account, nil
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var (
		account *models.Account
		found   bool
	)
	r.store.read(ctx, func(u *unit) {
		account, found = u.account(id)
	})
	if !found {
		return nil, repositories.ErrNotFound
	}
	return account, nil
}

// FindByEmail finds an account by email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, func(a *models.Account) bool { return a.Email == email })
}

// FindByMobile finds an account by mobile number and role
func (r *AccountRepository) FindByMobile(ctx context.Context, mobile string, role models.Role) (*models.Account, error) {
	return r.findOne(ctx, func(a *models.Account) bool { return a.MobileNumber == mobile && a.Role == role })
}

// ExistsByIdentity reports whether any account already uses the email, mobile or national ID
func (r *AccountRepository) ExistsByIdentity(ctx context.Context, email, mobile, nationalID string) (bool, error) {
	_, err := r.findOne(ctx, func(a *models.Account) bool {
		return a.Email == email || a.MobileNumber == mobile || a.NationalID == nationalID
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List retrieves accounts matching the filter, newest first
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error) {
	accounts := []*models.Account{}
	r.store.read(ctx, func(u *unit) {
		for _, account := range u.allAccounts() {
			if len(filter.Roles) > 0 && !hasRole(filter.Roles, account.Role) {
				continue
			}
			if filter.Approved != nil && account.Approved != *filter.Approved {
				continue
			}
			accounts = append(accounts, account)
		}
	})
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Debit subtracts amount only when the balance covers it. The account stays
// locked until the unit ends, so the check holds at commit.
func (r *AccountRepository) Debit(ctx context.Context, id primitive.ObjectID, amount int64) error {
	if amount <= 0 {
		return repositories.ErrInvalidAmount
	}
	return r.store.write(ctx, func(u *unit) error {
		if err := u.lock(accountKey(id)); err != nil {
			return err
		}
		account, ok := u.account(id)
		if !ok {
			return repositories.ErrNotFound
		}
		if account.Balance < amount {
			return repositories.ErrInsufficientBalance
		}
		u.addDelta(id, -amount, 0)
		return nil
	})
}

// Credit increments balance and income without taking the account lock
func (r *AccountRepository) Credit(ctx context.Context, id primitive.ObjectID, amount, income int64) error {
	if amount < 0 || income < 0 {
		return repositories.ErrInvalidAmount
	}
	return r.store.write(ctx, func(u *unit) error {
		if _, ok := u.account(id); !ok {
			return repositories.ErrNotFound
		}
		u.addDelta(id, amount, income)
		return nil
	})
}

// CreditFee is Credit without income; memory credits never take a lock
func (r *AccountRepository) CreditFee(ctx context.Context, id primitive.ObjectID, amount int64) error {
	if amount <= 0 {
		return repositories.ErrInvalidAmount
	}
	return r.Credit(ctx, id, amount, 0)
}

// SetApproved marks an agent as approved and returns the updated account
func (r *AccountRepository) SetApproved(ctx context.Context, email string) (*models.Account, error) {
	var updated *models.Account
	err := r.store.write(ctx, func(u *unit) error {
		account, ok := u.findAccount(func(a *models.Account) bool { return a.Email == email && a.Role == models.RoleAgent })
		if !ok {
			return repositories.ErrNotFound
		}
		if err := u.lock(accountKey(account.ID)); err != nil {
			return err
		}
		u.patch(account.ID, func(a *models.Account) { a.Approved = true })
		updated, _ = u.account(account.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePendingAgent removes an agent that has not been approved yet
func (r *AccountRepository) DeletePendingAgent(ctx context.Context, email string) error {
	return r.store.write(ctx, func(u *unit) error {
		account, ok := u.findAccount(func(a *models.Account) bool { return a.Email == email && a.Role == models.RoleAgent })
		if !ok {
			return repositories.ErrNotFound
		}
		if err := u.lock(accountKey(account.ID)); err != nil {
			return err
		}
		if account.Approved {
			return repositories.ErrConflict
		}
		if _, ok := u.created[account.ID]; ok {
			delete(u.created, account.ID)
			delete(u.deltas, account.ID)
			return nil
		}
		u.deleted[account.ID] = true
		return nil
	})
}

// SetBlocked sets the blocked flag
func (r *AccountRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error {
	return r.setFields(ctx, id, func(a *models.Account) { a.Blocked = blocked })
}

// RecordLogin stores the device used for the latest login
func (r *AccountRepository) RecordLogin(ctx context.Context, id primitive.ObjectID, device string) error {
	return r.setFields(ctx, id, func(a *models.Account) { a.LastLoggedInDevice = device })
}

func (r *AccountRepository) setFields(ctx context.Context, id primitive.ObjectID, fn func(*models.Account)) error {
	return r.store.write(ctx, func(u *unit) error {
		if err := u.lock(accountKey(id)); err != nil {
			return err
		}
		if _, ok := u.account(id); !ok {
			return repositories.ErrNotFound
		}
		u.patch(id, fn)
		return nil
	})
}
