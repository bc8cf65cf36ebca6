package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
)

type collection struct {
	tbl *table
}

var _ core.Collection = (*collection)(nil)

func (coll *collection) Name() string { return coll.tbl.name }

// query returns the matching rows in natural order. The caller must hold the lock.
func (coll *collection) query(conds []core.Condition) ([]*row, error) {
	matchers, err := compileConditions(conds)
	if err != nil {
		return nil, errors.Wrap(err, "compiling conditions")
	}

	rows := make([]*row, 0, len(coll.tbl.rows))
	for _, r := range coll.tbl.rows {
		if matchAll(r.doc, matchers) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	return rows, nil
}

func (coll *collection) Find(_ context.Context, q core.Query) ([]core.Document, error) {
	coll.tbl.mutex.RLock()
	defer coll.tbl.mutex.RUnlock()

	rows, err := coll.query(q.Conditions)
	if err != nil {
		return nil, err
	}
	if len(q.Sort) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, ord := range q.Sort {
				res, _ := compare(sortValue(rows[i].doc, ord.Field), sortValue(rows[j].doc, ord.Field))
				if res == 0 {
					continue
				}
				if ord.Ascending {
					return res < 0
				}
				return res > 0
			}
			return false
		})
	}

	if q.Skip > 0 {
		if q.Skip >= int64(len(rows)) {
			rows = nil
		} else {
			rows = rows[q.Skip:]
		}
	}
	if q.Limit > 0 && int64(len(rows)) > q.Limit {
		rows = rows[:q.Limit]
	}

	docs := make([]core.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, mustClone(r.doc))
	}
	return docs, nil
}

func (coll *collection) Count(_ context.Context, conds []core.Condition) (int64, error) {
	coll.tbl.mutex.RLock()
	defer coll.tbl.mutex.RUnlock()

	rows, err := coll.query(conds)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (coll *collection) Get(_ context.Context, id primitive.ObjectID) (core.Document, error) {
	coll.tbl.mutex.RLock()
	defer coll.tbl.mutex.RUnlock()

	if r, ok := coll.tbl.rows[id]; ok {
		return mustClone(r.doc), nil
	}
	return nil, core.ErrNotFound
}

func (coll *collection) FindOne(ctx context.Context, conds []core.Condition) (core.Document, error) {
	docs, err := coll.Find(ctx, core.Query{Conditions: conds, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, core.ErrNotFound
	}
	return docs[0], nil
}

// checkUnique returns a *core.DuplicateError if doc conflicts with another row on a unique index.
// The caller must hold the lock.
func (coll *collection) checkUnique(doc core.Document, exclude primitive.ObjectID) error {
	for _, keys := range coll.tbl.uniques {
	rows:
		for id, r := range coll.tbl.rows {
			if id == exclude {
				continue
			}
			for _, k := range keys {
				if !equal(sortValue(doc, k), sortValue(r.doc, k)) {
					continue rows
				}
			}
			return &core.DuplicateError{Field: strings.Join(keys, ", ")}
		}
	}
	return nil
}

func (coll *collection) Insert(_ context.Context, val interface{}) (core.Document, error) {
	doc, err := clone(val)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	id, ok := core.DocumentID(doc)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		doc["_id"] = id
	}

	coll.tbl.mutex.Lock()
	defer coll.tbl.mutex.Unlock()

	if _, exists := coll.tbl.rows[id]; exists {
		return nil, &core.DuplicateError{Field: "_id"}
	}
	if err = coll.checkUnique(doc, primitive.NilObjectID); err != nil {
		return nil, err
	}
	coll.tbl.seq++
	coll.tbl.rows[id] = &row{seq: coll.tbl.seq, doc: doc}
	return mustClone(doc), nil
}

func (coll *collection) Replace(_ context.Context, id primitive.ObjectID, val interface{}) (core.Document, error) {
	doc, err := clone(val)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	doc["_id"] = id

	coll.tbl.mutex.Lock()
	defer coll.tbl.mutex.Unlock()

	r, ok := coll.tbl.rows[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if err = coll.checkUnique(doc, id); err != nil {
		return nil, err
	}
	r.doc = doc
	return mustClone(doc), nil
}

func (coll *collection) Delete(_ context.Context, id primitive.ObjectID) (core.Document, error) {
	coll.tbl.mutex.Lock()
	defer coll.tbl.mutex.Unlock()

	r, ok := coll.tbl.rows[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	delete(coll.tbl.rows, id)
	return r.doc, nil
}

func (coll *collection) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	coll.tbl.mutex.Lock()
	defer coll.tbl.mutex.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := coll.tbl.rows[id]; ok {
			delete(coll.tbl.rows, id)
			n++
		}
	}
	return n, nil
}

func (coll *collection) Increment(_ context.Context, id primitive.ObjectID, field string, by int) error {
	coll.tbl.mutex.Lock()
	defer coll.tbl.mutex.Unlock()

	r, ok := coll.tbl.rows[id]
	if !ok {
		return core.ErrNotFound
	}
	switch cur := r.doc[field].(type) {
	case nil:
		r.doc[field] = int32(by)
	case int32:
		r.doc[field] = cur + int32(by)
	case int64:
		r.doc[field] = cur + int64(by)
	case float64:
		r.doc[field] = cur + float64(by)
	default:
		return errors.Errorf("cannot increment non-numeric field %s", field)
	}
	return nil
}

func (coll *collection) UpdateMany(_ context.Context, conds []core.Condition, set core.Document) (int64, error) {
	fields, err := clone(set)
	if err != nil {
		return 0, errors.Wrap(err, "encoding fields")
	}

	coll.tbl.mutex.Lock()
	defer coll.tbl.mutex.Unlock()

	rows, err := coll.query(conds)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		for k, v := range fields {
			r.doc[k] = v
		}
	}
	return int64(len(rows)), nil
}
