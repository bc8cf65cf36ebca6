package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crreddy/polysis/core"
)

type collection struct {
	coll    *mongo.Collection
	timeout time.Duration
}

var _ core.Collection = (*collection)(nil)

var dupKeyRe = regexp.MustCompile(`dup key: \{ ?"?([\w.]+)"?:`)

func (c *collection) Name() string { return c.coll.Name() }

func (c *collection) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func condFilter(cond core.Condition) bson.M {
	switch cond.Op {
	case core.OpMatch:
		pattern, _ := cond.Value.(string)
		return bson.M{cond.Field: primitive.Regex{Pattern: pattern, Options: "i"}}
	case core.OpIn:
		return bson.M{cond.Field: bson.M{"$in": cond.Value}}
	case core.OpRange:
		bounds, _ := cond.Value.(map[string]interface{})
		return bson.M{cond.Field: bson.M(bounds)}
	}
	return bson.M{cond.Field: cond.Value}
}

func filter(conds []core.Condition) bson.M {
	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return condFilter(conds[0])
	}
	and := make(bson.A, 0, len(conds))
	for _, cond := range conds {
		and = append(and, condFilter(cond))
	}
	return bson.M{"$and": and}
}

func sortDoc(orderings []core.DBOrdering) bson.D {
	sort := make(bson.D, 0, len(orderings)+1)
	for _, ord := range orderings {
		dir := -1
		if ord.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: ord.Field, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1}) // stable paging
}

// handleError translates driver errors into core errors.
func handleError(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return core.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		field := "value"
		if m := dupKeyRe.FindStringSubmatch(err.Error()); m != nil {
			field = m[1]
		}
		return &core.DuplicateError{Field: field}
	}
	return errors.Wrap(err, msg)
}

func (c *collection) Find(ctx context.Context, q core.Query) ([]core.Document, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(sortDoc(q.Sort))
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := c.coll.Find(ctx, filter(q.Conditions), opts)
	if err != nil {
		return nil, handleError(err, "querying "+c.Name())
	}
	defer func() { _ = cursor.Close(ctx) }()

	docs := make([]core.Document, 0)
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, handleError(err, "decoding "+c.Name())
	}
	return docs, nil
}

func (c *collection) Count(ctx context.Context, conds []core.Condition) (int64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	n, err := c.coll.CountDocuments(ctx, filter(conds))
	if err != nil {
		return 0, handleError(err, "counting "+c.Name())
	}
	return n, nil
}

func (c *collection) Get(ctx context.Context, id primitive.ObjectID) (core.Document, error) {
	return c.FindOne(ctx, []core.Condition{{Field: "_id", Op: core.OpEq, Value: id}})
}

func (c *collection) FindOne(ctx context.Context, conds []core.Condition) (core.Document, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	var doc core.Document
	if err := c.coll.FindOne(ctx, filter(conds)).Decode(&doc); err != nil {
		return nil, handleError(err, "getting "+c.Name())
	}
	return doc, nil
}

func (c *collection) Insert(ctx context.Context, val interface{}) (core.Document, error) {
	doc, err := core.ToDocument(val)
	if err != nil {
		return nil, err
	}
	if id, ok := core.DocumentID(doc); !ok || id.IsZero() {
		doc["_id"] = primitive.NewObjectID()
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()
	if _, err = c.coll.InsertOne(ctx, doc); err != nil {
		return nil, handleError(err, "inserting into "+c.Name())
	}
	return doc, nil
}

func (c *collection) Replace(ctx context.Context, id primitive.ObjectID, val interface{}) (core.Document, error) {
	doc, err := core.ToDocument(val)
	if err != nil {
		return nil, err
	}
	doc["_id"] = id

	ctx, cancel := c.ctx(ctx)
	defer cancel()
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return nil, handleError(err, "replacing in "+c.Name())
	}
	if res.MatchedCount == 0 {
		return nil, core.ErrNotFound
	}
	return doc, nil
}

func (c *collection) Delete(ctx context.Context, id primitive.ObjectID) (core.Document, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	var doc core.Document
	if err := c.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, handleError(err, "deleting from "+c.Name())
	}
	return doc, nil
}

func (c *collection) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	res, err := c.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, handleError(err, "deleting from "+c.Name())
	}
	return res.DeletedCount, nil
}

func (c *collection) Increment(ctx context.Context, id primitive.ObjectID, field string, by int) error {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: by}})
	if err != nil {
		return handleError(err, "incrementing "+field)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *collection) UpdateMany(ctx context.Context, conds []core.Condition, set core.Document) (int64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	res, err := c.coll.UpdateMany(ctx, filter(conds), bson.M{"$set": set})
	if err != nil {
		return 0, handleError(err, "updating "+c.Name())
	}
	return res.ModifiedCount, nil
}
