// Package mongodb implements core.Store on top of the official MongoDB driver.
package mongodb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/crreddy/polysis/core"
)

type DB struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

var _ core.Store = (*DB)(nil)

// Open connects to the configured database and waits until it answers.
func Open(ctx context.Context, conf core.DatabaseConfig, log core.Logger) (*DB, error) {
	opts := options.Client().
		ApplyURI(conf.URI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}).
		SetServerSelectionTimeout(conf.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, client, log); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DB{client: client, db: client.Database(conf.Name), timeout: timeout}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client, log core.Logger) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		log.Warn("database not ready", "attempt", attempts, "error", err)

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func (db *DB) Collection(name string) core.Collection {
	return &collection{coll: db.db.Collection(name), timeout: db.timeout}
}

func (db *DB) EnsureIndexes(ctx context.Context, name string, indexes ...core.Index) error {
	if len(indexes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()
	if _, err := db.db.Collection(name).Indexes().CreateMany(ctx, indexModels(indexes)); err != nil {
		return errors.Wrapf(err, "creating %s indexes", name)
	}
	return nil
}

// indexModels translates index keys, "-" prefixed ones being descending.
func indexModels(indexes []core.Index) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		keys := make(bson.D, 0, len(idx.Keys))
		for _, k := range idx.Keys {
			if strings.HasPrefix(k, "-") {
				keys = append(keys, bson.E{Key: k[1:], Value: -1})
			} else {
				keys = append(keys, bson.E{Key: k, Value: 1})
			}
		}
		models = append(models, mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(idx.Unique)})
	}
	return models
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
