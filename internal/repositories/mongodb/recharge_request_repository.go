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

// Compile-time check to ensure RechargeRequestRepository implements the interface
var _ repositories.RechargeRequestRepository = (*RechargeRequestRepository)(nil)

// RechargeRequestRepository handles MongoDB operations for RechargeRequest
type RechargeRequestRepository struct {
	collection *mongo.Collection
}

// NewRechargeRequestRepository creates a new RechargeRequestRepository
func NewRechargeRequestRepository(db *mongo.Database) *RechargeRequestRepository {
	return &RechargeRequestRepository{
		collection: db.Collection(rechargeRequestsCollection),
	}
}

// Create inserts a new recharge request
func (r *RechargeRequestRepository) Create(ctx context.Context, request *models.RechargeRequest) error {
	request.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, request)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: recharge request %s", repositories.ErrDuplicateKey, request.RequestID)
	}
	return err
}

// FindByRequestID finds a recharge request by its request id
func (r *RechargeRequestRepository) FindByRequestID(ctx context.Context, requestID string) (*models.RechargeRequest, error) {
	var request models.RechargeRequest
	err := r.collection.FindOne(ctx, bson.M{"requestId": requestID}).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByStatus finds recharge requests in a status, oldest first
func (r *RechargeRequestRepository) FindByStatus(ctx context.Context, status models.RechargeStatus) ([]*models.RechargeRequest, error) {
	return r.find(ctx, bson.M{"status": status}, 1)
}

// FindByAgent finds an agent's recharge requests, newest first
func (r *RechargeRequestRepository) FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]*models.RechargeRequest, error) {
	return r.find(ctx, bson.M{"agentId": agentID}, -1)
}

// Transition moves a pending request to a terminal status. The status guard in
// the filter makes a second decision on the same request match nothing.
func (r *RechargeRequestRepository) Transition(ctx context.Context, requestID string, to models.RechargeStatus, processedBy primitive.ObjectID, at time.Time) (*models.RechargeRequest, error) {
	filter := bson.M{"requestId": requestID, "status": models.RechargePending}
	update := bson.M{"$set": bson.M{
		"status":      to,
		"processedAt": at,
		"processedBy": processedBy,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var request models.RechargeRequest
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"requestId": requestID})
		if countErr != nil {
			return nil, countErr
		}
		if count == 0 {
			return nil, repositories.ErrNotFound
		}
		return nil, repositories.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RechargeRequestRepository) find(ctx context.Context, filter bson.M, order int) ([]*models.RechargeRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*models.RechargeRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*models.RechargeRequest{}
	}
	return requests, nil
}
