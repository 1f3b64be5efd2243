package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/dalemusser/memberhub/internal/app/bootstrap"
	"github.com/dalemusser/memberhub/internal/app/moderation"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type cliConfig struct {
	MongoURI      string `env:"MEMBERHUB_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MEMBERHUB_MONGO_DATABASE" envDefault:"memberhub"`
	AdminID       string `env:"MEMBERHUB_ADMIN_ID"`
	AuditLogAdmin string `env:"MEMBERHUB_AUDIT_LOG_ADMIN" envDefault:"db"`
}

func loadConfig() (cliConfig, error) {
	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// session is an open connection to the moderation service.
type session struct {
	svc   *moderation.Service
	users moderation.UserStore
	close func(context.Context) error
}

type sessionOpener func(ctx context.Context, cfg cliConfig, logger *zap.Logger) (*session, error)

func openMongoSession(ctx context.Context, cfg cliConfig, logger *zap.Logger) (*session, error) {
	client, db, err := bootstrap.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, 0)
	if err != nil {
		return nil, err
	}
	deps := bootstrap.DBDeps{MongoClient: client, MongoDatabase: db}
	return &session{
		svc:   bootstrap.NewService(deps, auditlog.Config{Admin: cfg.AuditLogAdmin}, logger),
		users: userstore.New(db),
		close: client.Disconnect,
	}, nil
}

type commandContext struct {
	adminFlag   *string
	verboseFlag *bool
	open        sessionOpener
}

func (c *commandContext) logger() *zap.Logger {
	if c.verboseFlag != nil && *c.verboseFlag {
		if l, err := zap.NewDevelopment(); err == nil {
			return l
		}
	}
	return zap.NewNop()
}

// withService opens a session, resolves the acting admin and runs fn.
func (c *commandContext) withService(ctx context.Context, fn func(ctx context.Context, svc *moderation.Service, caller moderation.Caller) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.adminFlag != nil && strings.TrimSpace(*c.adminFlag) != "" {
		cfg.AdminID = strings.TrimSpace(*c.adminFlag)
	}

	logger := c.logger()
	defer func() { _ = logger.Sync() }()

	sess, err := c.open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.close(context.Background()) }()

	caller, err := resolveCaller(ctx, sess.users, cfg.AdminID)
	if err != nil {
		return err
	}
	return fn(ctx, sess.svc, caller)
}

// resolveCaller turns the configured admin id into a Caller. The role comes
// from the stored account, and only an ACTIVE account keeps it.
func resolveCaller(ctx context.Context, users moderation.UserStore, adminID string) (moderation.Caller, error) {
	if adminID == "" {
		return moderation.Caller{}, fmt.Errorf("no admin identity: pass --admin or set MEMBERHUB_ADMIN_ID")
	}
	oid, err := primitive.ObjectIDFromHex(adminID)
	if err != nil {
		return moderation.Caller{}, fmt.Errorf("invalid admin id %q", adminID)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := users.GetByID(ctx, oid)
	if err != nil {
		return moderation.Caller{}, err
	}
	c := moderation.Caller{ID: u.ID}
	if u.Status == models.UserActive {
		c.Role = u.Role
	}
	return c, nil
}
