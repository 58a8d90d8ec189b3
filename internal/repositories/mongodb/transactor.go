package mongodb

import (
	"context"
	"fmt"

	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// SessionStarter is satisfied by *mongo.Client and pkg/mongodb.Client
type SessionStarter interface {
	StartSession(opts ...*options.SessionOptions) (mongo.Session, error)
}

// Compile-time check to ensure Transactor implements the interface
var _ repositories.Transactor = (*Transactor)(nil)

// Transactor runs units of work as MongoDB multi-document transactions
type Transactor struct {
	starter SessionStarter
}

// NewTransactor creates a new Transactor
func NewTransactor(starter SessionStarter) *Transactor {
	return &Transactor{starter: starter}
}

// WithTransaction commits fn's writes atomically with snapshot reads and majority writes.
// The driver retries fn on TransientTransactionError (write conflicts) and the commit on
// UnknownTransactionCommitResult; any error returned by fn aborts the transaction.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a transaction: join it
	if sess := mongo.SessionFromContext(ctx); sess != nil {
		return fn(ctx)
	}

	session, err := t.starter.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	txnOptions := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOptions)
	return err
}
