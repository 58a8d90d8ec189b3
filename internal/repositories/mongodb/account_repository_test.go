package mongodb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"github.com/ArowuTest/mcash-backend/pkg/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// testDatabase connects to the replica set named by MONGODB_TEST_URI and
// returns a fresh database that is dropped after the test.
func testDatabase(t *testing.T) (*mongodb.Client, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, uri)
	require.NoError(t, err)
	db := client.Database("mcash_test_" + primitive.NewObjectID().Hex())
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return client, db
}

func TestConcurrentFeeCreditsDoNotConflict(t *testing.T) {
	client, db := testDatabase(t)
	accounts := NewAccountRepository(db)
	transactor := NewTransactor(client)
	ctx := context.Background()

	admin := &models.Account{Name: "admin", Role: models.RoleAdmin, Email: "admin@mcash.test", MobileNumber: "01000000000", NationalID: "admin", Balance: 100, Approved: true}
	require.NoError(t, accounts.Create(ctx, admin))

	const credits = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < credits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := transactor.WithTransaction(ctx, func(ctx context.Context) error {
				return accounts.CreditFee(ctx, admin.ID, 5)
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Empty(t, errs)

	stored, err := accounts.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100+credits*5), stored.Balance)

	listed, err := accounts.List(ctx, models.AccountFilter{Roles: []models.Role{models.RoleAdmin}})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, stored.Balance, listed[0].Balance)
}

func TestDebitRefusesNonPositiveAmounts(t *testing.T) {
	_, db := testDatabase(t)
	accounts := NewAccountRepository(db)
	ctx := context.Background()

	user := &models.Account{Name: "user", Role: models.RoleUser, Email: "user@mcash.test", MobileNumber: "01700000001", NationalID: "nid-1", Balance: 1000, Approved: true}
	require.NoError(t, accounts.Create(ctx, user))

	assert.ErrorIs(t, accounts.Debit(ctx, user.ID, 0), repositories.ErrInvalidAmount)
	assert.ErrorIs(t, accounts.Debit(ctx, user.ID, -9223372036854775807), repositories.ErrInvalidAmount)
	assert.ErrorIs(t, accounts.Credit(ctx, user.ID, -1, 0), repositories.ErrInvalidAmount)
	assert.ErrorIs(t, accounts.CreditFee(ctx, primitive.NewObjectID(), 5), repositories.ErrNotFound)

	stored, err := accounts.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Balance)
}
