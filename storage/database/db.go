// Package database opens the core.Store selected by the configuration.
package database

import (
	"context"
	"strings"

	"github.com/crreddy/polysis/core"
	inmemdb "github.com/crreddy/polysis/storage/database/inmem"
	"github.com/crreddy/polysis/storage/database/mongodb"
)

// MemoryURI selects the in-memory store.
const MemoryURI = "memory://"

// Open returns the store for conf.Database.URI and makes sure the given collection indexes exist.
func Open(ctx context.Context, conf *core.Config, log core.Logger, indexes map[string][]core.Index) (core.Store, error) {
	var (
		store core.Store
		err   error
	)
	if strings.HasPrefix(conf.Database.URI, MemoryURI) {
		store = inmemdb.Open()
	} else if store, err = mongodb.Open(ctx, conf.Database, log); err != nil {
		return nil, err
	}

	if err = EnsureIndexes(ctx, store, indexes); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return store, nil
}

func EnsureIndexes(ctx context.Context, store core.Store, indexes map[string][]core.Index) error {
	for coll, idxs := range indexes {
		if err := store.EnsureIndexes(ctx, coll, idxs...); err != nil {
			return err
		}
	}
	return nil
}
