package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
)

func seedAccount(t *testing.T, repo *AccountRepository, suffix string, role models.Role, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{
		Name:         "acct " + suffix,
		Role:         role,
		MobileNumber: "0170000" + suffix,
		NationalID:   "nid-" + suffix,
		Email:        suffix + "@mcash.test",
		Balance:      balance,
		Approved:     role != models.RoleAgent,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("seed %s: %v", suffix, err)
	}
	return account
}

func TestCreateRejectsDuplicateIdentity(t *testing.T) {
	store := NewStore()
	repo := NewAccountRepository(store)
	seedAccount(t, repo, "0001", models.RoleUser, 40)

	tests := []struct {
		name    string
		account *models.Account
	}{
		{"same email", &models.Account{Email: "0001@mcash.test", MobileNumber: "x1", NationalID: "y1"}},
		{"same mobile", &models.Account{Email: "a@b.c", MobileNumber: "01700000001", NationalID: "y2"}},
		{"same nid", &models.Account{Email: "d@e.f", MobileNumber: "x3", NationalID: "nid-0001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(context.Background(), tt.account)
			if !errors.Is(err, repositories.ErrDuplicateKey) {
				t.Fatalf("expected ErrDuplicateKey, got %v", err)
			}
		})
	}
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	ledger := NewTransactionRepository(store)
	sender := seedAccount(t, accounts, "0001", models.RoleUser, 1000)
	receiver := seedAccount(t, accounts, "0002", models.RoleUser, 0)

	boom := errors.New("boom")
	err := store.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := accounts.Debit(ctx, sender.ID, 300); err != nil {
			return err
		}
		if err := accounts.Credit(ctx, receiver.ID, 300, 0); err != nil {
			return err
		}
		if err := ledger.Append(ctx, &models.Transaction{TransactionID: "t-1", Amount: 300}); err != nil {
			return err
		}
		// staged writes are visible inside the unit
		got, err := accounts.FindByID(ctx, sender.ID)
		if err != nil || got.Balance != 700 {
			t.Errorf("in-unit balance = %v, %v; want 700", got, err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := accounts.FindByID(context.Background(), sender.ID)
	if got.Balance != 1000 {
		t.Errorf("sender balance = %d, want 1000", got.Balance)
	}
	got, _ = accounts.FindByID(context.Background(), receiver.ID)
	if got.Balance != 0 {
		t.Errorf("receiver balance = %d, want 0", got.Balance)
	}
	if _, err := ledger.FindByTransactionID(context.Background(), "t-1"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("ledger entry survived rollback: %v", err)
	}
}

func TestDebitRefusesOverdraft(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	account := seedAccount(t, accounts, "0001", models.RoleUser, 100)

	if err := accounts.Debit(context.Background(), account.ID, 101); !errors.Is(err, repositories.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := accounts.Debit(context.Background(), account.ID, 100); err != nil {
		t.Fatalf("debit of full balance: %v", err)
	}
	got, _ := accounts.FindByID(context.Background(), account.ID)
	if got.Balance != 0 {
		t.Errorf("balance = %d, want 0", got.Balance)
	}
}

func TestDebitAndCreditRefuseInvalidAmounts(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	account := seedAccount(t, accounts, "0001", models.RoleUser, 1000)
	ctx := context.Background()

	for _, amount := range []int64{0, -1, math.MinInt64 + 1} {
		if err := accounts.Debit(ctx, account.ID, amount); !errors.Is(err, repositories.ErrInvalidAmount) {
			t.Errorf("Debit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if err := accounts.Credit(ctx, account.ID, -5, 0); !errors.Is(err, repositories.ErrInvalidAmount) {
		t.Errorf("negative credit: expected ErrInvalidAmount, got %v", err)
	}
	if err := accounts.Credit(ctx, account.ID, 5, -1); !errors.Is(err, repositories.ErrInvalidAmount) {
		t.Errorf("negative income: expected ErrInvalidAmount, got %v", err)
	}
	if err := accounts.CreditFee(ctx, account.ID, 0); !errors.Is(err, repositories.ErrInvalidAmount) {
		t.Errorf("zero fee: expected ErrInvalidAmount, got %v", err)
	}

	got, _ := accounts.FindByID(ctx, account.ID)
	if got.Balance != 1000 || got.IncomeAccrued != 0 {
		t.Errorf("balance = %d income = %d, want 1000 and 0", got.Balance, got.IncomeAccrued)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	ledger := NewTransactionRepository(store)
	payer := seedAccount(t, accounts, "0001", models.RoleUser, 1000)
	payee := seedAccount(t, accounts, "0002", models.RoleUser, 0)

	const workers = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.WithTransaction(context.Background(), func(ctx context.Context) error {
				if err := accounts.Debit(ctx, payer.ID, 70); err != nil {
					return err
				}
				if err := accounts.Credit(ctx, payee.ID, 70, 0); err != nil {
					return err
				}
				return ledger.Append(ctx, &models.Transaction{
					TransactionID:     fmt.Sprintf("t-%d", i),
					Amount:            70,
					SenderAccountID:   payer.ID,
					ReceiverAccountID: payee.ID,
					Timestamp:         time.Now(),
				})
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, repositories.ErrInsufficientBalance) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 14 {
		t.Errorf("succeeded = %d, want 14", succeeded)
	}
	gotPayer, _ := accounts.FindByID(context.Background(), payer.ID)
	gotPayee, _ := accounts.FindByID(context.Background(), payee.ID)
	if gotPayer.Balance != 1000-70*int64(succeeded) || gotPayee.Balance != 70*int64(succeeded) {
		t.Errorf("balances payer=%d payee=%d after %d transfers", gotPayer.Balance, gotPayee.Balance, succeeded)
	}
	entries, _ := ledger.FindByAccount(context.Background(), payer.ID, 100)
	if len(entries) != succeeded {
		t.Errorf("ledger entries = %d, want %d", len(entries), succeeded)
	}
}

func TestConcurrentCreditsCommute(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	admin := seedAccount(t, accounts, "0001", models.RoleAdmin, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := accounts.Credit(context.Background(), admin.ID, 5, 1); err != nil {
				t.Errorf("credit: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := accounts.FindByID(context.Background(), admin.ID)
	if got.Balance != 500 || got.IncomeAccrued != 100 {
		t.Errorf("balance=%d income=%d, want 500/100", got.Balance, got.IncomeAccrued)
	}
}

func TestTransitionIsExactlyOnce(t *testing.T) {
	store := NewStore()
	requests := NewRechargeRequestRepository(store)
	req := &models.RechargeRequest{RequestID: "r-1", Amount: 5000, Status: models.RechargePending, CreatedAt: time.Now()}
	if err := requests.Create(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won       int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := requests.Transition(context.Background(), "r-1", models.RechargeApproved, req.AgentAccountID, time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, repositories.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || conflicts != 19 {
		t.Errorf("won=%d conflicts=%d, want 1/19", won, conflicts)
	}
	if _, err := requests.Transition(context.Background(), "missing", models.RechargeApproved, req.AgentAccountID, time.Now()); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePendingAgent(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	pending := seedAccount(t, accounts, "0001", models.RoleAgent, 100000)
	approved := seedAccount(t, accounts, "0002", models.RoleAgent, 100000)
	if _, err := accounts.SetApproved(context.Background(), approved.Email); err != nil {
		t.Fatal(err)
	}

	if err := accounts.DeletePendingAgent(context.Background(), approved.Email); !errors.Is(err, repositories.ErrConflict) {
		t.Errorf("approved agent: expected ErrConflict, got %v", err)
	}
	if err := accounts.DeletePendingAgent(context.Background(), pending.Email); err != nil {
		t.Fatalf("pending agent: %v", err)
	}
	if _, err := accounts.FindByID(context.Background(), pending.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("deleted agent still present: %v", err)
	}
	if err := accounts.DeletePendingAgent(context.Background(), pending.Email); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	ledger := NewTransactionRepository(store)
	a := seedAccount(t, accounts, "0001", models.RoleUser, 0)
	b := seedAccount(t, accounts, "0002", models.RoleUser, 0)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &models.Transaction{
			TransactionID:     fmt.Sprintf("t-%d", i),
			SenderAccountID:   a.ID,
			ReceiverAccountID: b.ID,
			Timestamp:         base.Add(time.Duration(i) * time.Minute),
		}
		if err := ledger.Append(context.Background(), entry); err != nil {
			t.Fatal(err)
		}
	}

	entries, _ := ledger.FindByAccount(context.Background(), b.ID, 3)
	if len(entries) != 3 || entries[0].TransactionID != "t-4" || entries[2].TransactionID != "t-2" {
		t.Errorf("unexpected history order: %+v", entries)
	}
	all, _ := ledger.FindAll(context.Background(), 2, 2)
	if len(all) != 2 || all[0].TransactionID != "t-2" {
		t.Errorf("unexpected page 2: %+v", all)
	}
	if err := ledger.Append(context.Background(), &models.Transaction{TransactionID: "t-0"}); !errors.Is(err, repositories.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
