package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	accountsCollection         = "users"
	transactionsCollection     = "transactions"
	rechargeRequestsCollection = "rechargeRequests"
	feeCreditsCollection       = "feeCredits"
)

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
// Collections are created up front because they cannot be created inside a transaction
// on servers older than 4.4.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		accountsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "nid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "approved", Value: 1}}},
		},
		transactionsCollection: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "senderAccountId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "receiverAccountId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "agentAccountId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
		rechargeRequestsCollection: {
			{Keys: bson.D{{Key: "requestId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		feeCreditsCollection: {
			{Keys: bson.D{{Key: "accountId", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
