// Package txn runs groups of writes inside a MongoDB multi-document
// transaction, and falls back to direct execution on deployments that do not
// support transactions (standalone servers used in development).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes functions transactionally against one client.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// New returns a Runner bound to client.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run executes fn inside a transaction and reports whether it ran atomically.
//
// If the server rejects transactions, fn is run once without a transaction
// and atomic is false. Any other error from fn aborts the transaction and is
// returned unchanged.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return false, fn(ctx)
		}
		return false, err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.log.Debug("transactions unavailable; running without transaction", zap.Error(err))
		return false, fn(ctx)
	}
	return true, err
}

// standaloneMessage is the server's reply to a transaction on a standalone.
const standaloneMessage = "replica set member or mongos"

// IsNotSupported reports whether err indicates that the deployment cannot run
// sessions or multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers on a standalone
			51,  // legacy IllegalOperation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	// Proxies that strip the code still carry the server's wording.
	return strings.Contains(strings.ToLower(err.Error()), standaloneMessage)
}
