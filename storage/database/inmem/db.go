// Package inmemdb is an in-memory core.Store, used in tests and for local runs without MongoDB.
package inmemdb

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
)

type (
	DB struct {
		mutex  sync.Mutex
		tables map[string]*table
	}

	table struct {
		mutex   sync.RWMutex
		name    string
		seq     int64
		rows    map[primitive.ObjectID]*row
		uniques [][]string
	}

	row struct {
		seq int64 // insertion order
		doc core.Document
	}
)

var _ core.Store = (*DB)(nil)

func Open() *DB {
	return &DB{tables: make(map[string]*table)}
}

func (db *DB) table(name string) *table {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	tbl, ok := db.tables[name]
	if !ok {
		tbl = &table{name: name, rows: make(map[primitive.ObjectID]*row)}
		db.tables[name] = tbl
	}
	return tbl
}

func (db *DB) Collection(name string) core.Collection {
	return &collection{tbl: db.table(name)}
}

// EnsureIndexes only records unique indexes; they are enforced on writes.
func (db *DB) EnsureIndexes(_ context.Context, name string, indexes ...core.Index) error {
	tbl := db.table(name)
	tbl.mutex.Lock()
	defer tbl.mutex.Unlock()

outer:
	for _, idx := range indexes {
		if !idx.Unique {
			continue
		}
		keys := make([]string, 0, len(idx.Keys))
		for _, k := range idx.Keys {
			keys = append(keys, strings.TrimPrefix(k, "-"))
		}
		for _, u := range tbl.uniques {
			if strings.Join(u, ",") == strings.Join(keys, ",") {
				continue outer
			}
		}
		tbl.uniques = append(tbl.uniques, keys)
	}
	return nil
}

func (db *DB) Close(context.Context) error { return nil }

// clone deep copies v into a Document with the value types MongoDB would return.
func clone(v interface{}) (core.Document, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc core.Document
	if err = bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func mustClone(doc core.Document) core.Document {
	c, err := clone(doc)
	if err != nil {
		panic(err) // stored documents always encode
	}
	return c
}
