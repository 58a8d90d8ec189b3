package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories/memory"
	"github.com/ArowuTest/mcash-backend/internal/utils"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testPIN = "12345"

// recordingNotifier keeps every notification for assertions
type recordingNotifier struct {
	mu           sync.Mutex
	transactions []*models.Transaction
	requested    []*models.RechargeRequest
	decided      []*models.RechargeRequest
	agents       map[string]bool
	registered   []*models.Account
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{agents: make(map[string]bool)}
}

func (n *recordingNotifier) TransactionCompleted(_ context.Context, txn *models.Transaction, _ ...*models.Account) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transactions = append(n.transactions, txn)
}

func (n *recordingNotifier) RechargeRequested(_ context.Context, request *models.RechargeRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, request)
}

func (n *recordingNotifier) RechargeDecided(_ context.Context, request *models.RechargeRequest, _ *models.Account) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decided = append(n.decided, request)
}

func (n *recordingNotifier) AgentDecided(_ context.Context, email string, _ *models.Account, approved bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.agents[email] = approved
}

func (n *recordingNotifier) AccountRegistered(_ context.Context, account *models.Account) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registered = append(n.registered, account)
}

// ledgerFixture wires every service against one in-memory store
type ledgerFixture struct {
	t         *testing.T
	store     *memory.Store
	accounts  *memory.AccountRepository
	ledger    *memory.TransactionRepository
	requests  *memory.RechargeRequestRepository
	pins      *utils.PINHasher
	notifier  *recordingNotifier
	admin     *models.Account
	transfers *TransferServiceImpl
	recharges *RechargeServiceImpl
	approvals *AgentApprovalServiceImpl
	views     *AccountServiceImpl
	seq       int
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	f := &ledgerFixture{
		t:        t,
		store:    store,
		accounts: memory.NewAccountRepository(store),
		ledger:   memory.NewTransactionRepository(store),
		requests: memory.NewRechargeRequestRepository(store),
		pins:     utils.NewPINHasher(bcrypt.MinCost),
		notifier: newRecordingNotifier(),
	}
	f.admin = f.account(models.RoleAdmin, 0, true)

	fees, err := NewFeePolicy(defaultLedgerConfig())
	require.NoError(t, err)
	f.transfers = NewTransferService(f.accounts, f.ledger, store, f.pins, fees, f.admin.ID, f.notifier)
	f.recharges = NewRechargeService(f.accounts, f.requests, store, fees, f.notifier)
	f.approvals = NewAgentApprovalService(f.accounts, f.notifier)
	f.views = NewAccountService(f.accounts, f.ledger, f.admin.ID)
	return f
}

// account creates an account with testPIN
func (f *ledgerFixture) account(role models.Role, balance int64, approved bool) *models.Account {
	f.t.Helper()
	f.seq++
	hash, err := f.pins.Hash(testPIN)
	require.NoError(f.t, err)
	account := &models.Account{
		Name:         string(role),
		Role:         role,
		MobileNumber: mobile(f.seq),
		NationalID:   primitive.NewObjectID().Hex(),
		Email:        primitive.NewObjectID().Hex() + "@mcash.test",
		PINHash:      hash,
		Balance:      balance,
		Approved:     approved,
	}
	require.NoError(f.t, f.accounts.Create(context.Background(), account))
	return account
}

func (f *ledgerFixture) balance(id primitive.ObjectID) int64 {
	f.t.Helper()
	account, err := f.accounts.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return account.Balance
}

func (f *ledgerFixture) income(id primitive.ObjectID) int64 {
	f.t.Helper()
	account, err := f.accounts.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return account.IncomeAccrued
}

func (f *ledgerFixture) entries(id primitive.ObjectID) []*models.Transaction {
	f.t.Helper()
	entries, err := f.ledger.FindByAccount(context.Background(), id, 1000)
	require.NoError(f.t, err)
	return entries
}

func (f *ledgerFixture) allEntries() []*models.Transaction {
	f.t.Helper()
	entries, err := f.ledger.FindAll(context.Background(), 1, 100000)
	require.NoError(f.t, err)
	return entries
}

func identity(account *models.Account) models.Identity {
	return models.Identity{AccountID: account.ID, Role: account.Role}
}

func mobile(n int) string {
	const digits = "0123456789"
	b := []byte("01700000000")
	for i := len(b) - 1; n > 0 && i >= 3; i-- {
		b[i] = digits[n%10]
		n /= 10
	}
	return string(b)
}

// replay recomputes balances and income from opening balances, the ledger and approved recharges
func replay(opening map[primitive.ObjectID]int64, adminID primitive.ObjectID, entries []*models.Transaction, recharges []*models.RechargeRequest) (map[primitive.ObjectID]int64, map[primitive.ObjectID]int64) {
	balances := make(map[primitive.ObjectID]int64, len(opening))
	income := make(map[primitive.ObjectID]int64)
	for id, b := range opening {
		balances[id] = b
	}
	for _, e := range entries {
		switch e.Type {
		case models.TransactionSendMoney:
			balances[e.SenderAccountID] -= e.Amount + e.Fee
			balances[e.ReceiverAccountID] += e.Amount
			balances[adminID] += e.Fee
		case models.TransactionCashIn:
			balances[e.AgentAccountID] -= e.Amount
			balances[e.ReceiverAccountID] += e.Amount
		case models.TransactionCashOut:
			balances[e.SenderAccountID] -= e.Amount + e.Fee
			balances[e.AgentAccountID] += e.Amount
			income[e.AgentAccountID] += e.AgentCommission
			balances[adminID] += e.PlatformFee
		}
	}
	for _, r := range recharges {
		if r.Status == models.RechargeApproved {
			balances[r.AgentAccountID] += r.Amount
		}
	}
	return balances, income
}
