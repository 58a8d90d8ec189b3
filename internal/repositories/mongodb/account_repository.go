package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure AccountRepository implements the interface
var _ repositories.AccountRepository = (*AccountRepository)(nil)

// AccountRepository handles MongoDB operations for Account
type AccountRepository struct {
	collection *mongo.Collection
	feeCredits *mongo.Collection
}

// feeCredit is one fee credited to the sink. Each is its own document, so
// transactions crediting fees concurrently insert rather than update.
type feeCredit struct {
	ID        primitive.ObjectID `bson:"_id"`
	AccountID primitive.ObjectID `bson:"accountId"`
	Amount    int64              `bson:"amount"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection(accountsCollection),
		feeCredits: db.Collection(feeCreditsCollection),
	}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", repositories.ErrDuplicateKey, err)
	}
	return err
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.addFeeCredits(ctx, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByID finds an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail finds an account by email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByMobile finds an account by mobile number and role
func (r *AccountRepository) FindByMobile(ctx context.Context, mobile string, role models.Role) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"mobile": mobile, "role": role})
}

// ExistsByIdentity reports whether any account already uses the email, mobile or national ID
func (r *AccountRepository) ExistsByIdentity(ctx context.Context, email, mobile, nationalID string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"mobile": mobile},
		bson.M{"nid": nationalID},
	}}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves accounts matching the filter, newest first
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error) {
	query := bson.M{}
	if len(filter.Roles) > 0 {
		query["role"] = bson.M{"$in": filter.Roles}
	}
	if filter.Approved != nil {
		query["approved"] = *filter.Approved
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*models.Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	for _, account := range accounts {
		if err := r.addFeeCredits(ctx, account); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// Debit atomically decrements the balance, guarded by balance >= amount
func (r *AccountRepository) Debit(ctx context.Context, id primitive.ObjectID, amount int64) error {
	if amount <= 0 {
		return repositories.ErrInvalidAmount
	}
	filter := bson.M{"_id": id, "balance": bson.M{"$gte": amount}}
	update := bson.M{"$inc": bson.M{"balance": -amount}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missingOr(ctx, id, repositories.ErrInsufficientBalance)
	}
	return nil
}

// Credit atomically increments balance and accrued income
func (r *AccountRepository) Credit(ctx context.Context, id primitive.ObjectID, amount, income int64) error {
	if amount < 0 || income < 0 {
		return repositories.ErrInvalidAmount
	}
	inc := bson.M{"balance": amount}
	if income != 0 {
		inc["income"] = income
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": inc})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// CreditFee inserts a fee credit for the account. Reads of an Admin account
// add these credits to its stored balance.
func (r *AccountRepository) CreditFee(ctx context.Context, id primitive.ObjectID, amount int64) error {
	if amount <= 0 {
		return repositories.ErrInvalidAmount
	}
	if err := r.missingOr(ctx, id, nil); err != nil {
		return err
	}
	_, err := r.feeCredits.InsertOne(ctx, feeCredit{
		ID:        primitive.NewObjectID(),
		AccountID: id,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// addFeeCredits folds the fee credits of an Admin account into its balance
func (r *AccountRepository) addFeeCredits(ctx context.Context, account *models.Account) error {
	if account.Role != models.RoleAdmin {
		return nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"accountId": account.ID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cursor, err := r.feeCredits.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var totals []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return err
	}
	if len(totals) > 0 {
		account.Balance += totals[0].Total
	}
	return nil
}

// SetApproved marks an agent as approved and returns the updated account
func (r *AccountRepository) SetApproved(ctx context.Context, email string) (*models.Account, error) {
	filter := bson.M{"email": email, "role": models.RoleAgent}
	update := bson.M{"$set": bson.M{"approved": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account models.Account
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.addFeeCredits(ctx, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeletePendingAgent removes an agent that has not been approved yet
func (r *AccountRepository) DeletePendingAgent(ctx context.Context, email string) error {
	filter := bson.M{"email": email, "role": models.RoleAgent, "approved": false}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"email": email, "role": models.RoleAgent})
		if err != nil {
			return err
		}
		if count == 0 {
			return repositories.ErrNotFound
		}
		return repositories.ErrConflict
	}
	return nil
}

// SetBlocked sets the blocked flag
func (r *AccountRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error {
	return r.setFields(ctx, id, bson.M{"isBlocked": blocked})
}

// RecordLogin stores the device used for the latest login
func (r *AccountRepository) RecordLogin(ctx context.Context, id primitive.ObjectID, device string) error {
	return r.setFields(ctx, id, bson.M{"lastLoggedInDevice": device})
}

func (r *AccountRepository) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// missingOr returns ErrNotFound when the account does not exist, otherwise cause (which may be nil)
func (r *AccountRepository) missingOr(ctx context.Context, id primitive.ObjectID, cause error) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return cause
}
