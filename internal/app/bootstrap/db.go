// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/app/system/indexes"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, db, err := ConnectMongo(ctx, appCfg.MongoURI, appCfg.MongoDatabase, appCfg.MongoMaxPoolSize)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, err
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{MongoClient: client, MongoDatabase: db}, nil
}

// ConnectMongo connects to uri and returns the client and the named
// database. maxPool of zero keeps the driver default.
func ConnectMongo(ctx context.Context, uri, database string, maxPool uint64) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().ApplyURI(uri)
	if maxPool > 0 {
		opts.SetMaxPoolSize(maxPool)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureSchema creates collections with their validators and reconciles the
// indexes every store relies on, including the queue index of each
// registered content type.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	reg := registry.Default()
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, reg, logger); err != nil {
		logger.Error("collection validators failed", zap.Error(err))
		return err
	}
	return indexes.EnsureAll(ctx, deps.MongoDatabase, reg, logger)
}
