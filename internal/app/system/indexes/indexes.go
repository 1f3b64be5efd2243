// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/app/registry"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
Content collections come from the registry, so a newly registered type gets
its queue index without changes here.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, reg *registry.Registry, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := reconciler{log: logger}
	var problems []string

	if err := r.ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := r.ensureProfiles(ctx, db); err != nil {
		problems = append(problems, "profiles: "+err.Error())
	}
	if err := r.ensureNotifications(ctx, db); err != nil {
		problems = append(problems, "notifications: "+err.Error())
	}
	if err := r.ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}
	for _, e := range reg.Entries() {
		if err := r.ensureContent(ctx, db, e); err != nil {
			problems = append(problems, e.Collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// QueueIndexName is the name of the status/submitted_at index on a content
// collection.
func QueueIndexName(e registry.Entry) string {
	return "idx_" + e.Collection + "_queue"
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type reconciler struct {
	log *zap.Logger
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool { return p != nil && *p }

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func (r reconciler) ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		existing, err := listExisting(ctx, coll)
		if err != nil {
			// A collection that does not exist yet lists no indexes.
			existing = map[string]existingIndex{}
		}

		if ex, ok := existing[desiredSig]; ok {
			if boolVal(desiredUnique) == boolVal(ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				r.log.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}

			// Name or options differ: drop and recreate with the desired definition.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if err := r.create(ctx, coll, m, desiredName, desiredSig); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		r.log.Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", boolVal(desiredUnique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r reconciler) create(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, name, sig string) error {
	_, err := coll.Indexes().CreateOne(ctx, m)
	if err == nil {
		return nil
	}
	if wafflemongo.IsDup(err) {
		return fmt.Errorf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), name, sig)
	}
	if isOptionsConflictErr(err) {
		r.log.Warn("index options conflict; existing index kept",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig))
		return nil
	}
	return fmt.Errorf("%s(%s): %v", coll.Name(), name, err)
}

/* -------------------------------------------------------------------------- */
/* Collections                                                                */
/* -------------------------------------------------------------------------- */

func (r reconciler) ensureUsers(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "mobile_number", Value: 1}},
			Options: options.Index().SetName("uniq_users_mobile").SetUnique(true),
		},
		{
			// pending-members queue and its count
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_status_created__id"),
		},
		{
			// full roster, newest first
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_users_created__id"),
		},
	})
}

func (r reconciler) ensureProfiles(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection("profiles"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_profiles_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_profiles_fullnameci__id"),
		},
	})
}

func (r reconciler) ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_created"),
		},
		{
			Keys:    bson.D{{Key: "source_type", Value: 1}, {Key: "source_id", Value: 1}},
			Options: options.Index().SetName("idx_notifications_source"),
		},
	})
}

func (r reconciler) ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_subject_ts"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_type_ts"),
		},
	})
}

func (r reconciler) ensureContent(ctx context.Context, db *mongo.Database, e registry.Entry) error {
	return r.ensureIndexSet(ctx, db.Collection(e.Collection), []mongo.IndexModel{
		{
			// pending queue order and its count
			Keys: bson.D{
				{Key: e.StatusField, Value: 1},
				{Key: e.SubmittedField, Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName(QueueIndexName(e)),
		},
		{
			Keys:    bson.D{{Key: e.OwnerField, Value: 1}},
			Options: options.Index().SetName("idx_" + e.Collection + "_owner"),
		},
	})
}
