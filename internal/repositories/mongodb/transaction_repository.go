package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure TransactionRepository implements the interface
var _ repositories.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository stores ledger entries. It only ever inserts.
type TransactionRepository struct {
	collection *mongo.Collection
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{
		collection: db.Collection(transactionsCollection),
	}
}

// Append inserts a ledger entry; a repeated transactionId is rejected by the unique index
func (r *TransactionRepository) Append(ctx context.Context, transaction *models.Transaction) error {
	transaction.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, transaction)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: transaction %s", repositories.ErrDuplicateKey, transaction.TransactionID)
	}
	return err
}

// FindByTransactionID finds a ledger entry by its transaction id
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&transaction)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindByAccount finds the newest entries where the account is sender, receiver or agent
func (r *TransactionRepository) FindByAccount(ctx context.Context, accountID primitive.ObjectID, limit int) ([]*models.Transaction, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderAccountId": accountID},
		bson.M{"receiverAccountId": accountID},
		bson.M{"agentAccountId": accountID},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// FindAll finds all entries with pagination, newest first
func (r *TransactionRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Transaction, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *TransactionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Transaction, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var transactions []*models.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	return transactions, nil
}
