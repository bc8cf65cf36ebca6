package core

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a single record of a collection, keyed by its stored field names.
type Document = bson.M

// Condition operators
const (
	OpEq    = "eq"
	OpMatch = "match" // case-insensitive regex
	OpIn    = "in"
	OpRange = "range" // Value is a map of $gt, $gte, $lt, $lte bounds
)

// Range operators accepted in OpRange conditions.
var RangeOperators = []string{"$gt", "$gte", "$lt", "$lte"}

type (
	Condition struct {
		Field string
		Op    string
		Value interface{}
	}

	Query struct {
		Conditions []Condition // AND-ed
		Sort       []DBOrdering
		Skip       int64
		Limit      int64 // 0: no limit
	}

	// Collection is a named set of documents in a Store.
	Collection interface {
		Name() string
		Find(ctx context.Context, q Query) ([]Document, error)
		Count(ctx context.Context, conds []Condition) (int64, error)
		// Get returns ErrNotFound when no document has this id.
		Get(ctx context.Context, id primitive.ObjectID) (Document, error)
		// FindOne returns the first document matching conds or ErrNotFound.
		FindOne(ctx context.Context, conds []Condition) (Document, error)
		// Insert stores doc (a Document or a bson-tagged struct) and returns the stored Document.
		Insert(ctx context.Context, doc interface{}) (Document, error)
		// Replace overwrites the document with this id and returns the stored Document.
		Replace(ctx context.Context, id primitive.ObjectID, doc interface{}) (Document, error)
		// Delete removes the document and returns it.
		Delete(ctx context.Context, id primitive.ObjectID) (Document, error)
		DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
		Increment(ctx context.Context, id primitive.ObjectID, field string, by int) error
		// UpdateMany sets fields on every document matching conds and returns the number modified.
		UpdateMany(ctx context.Context, conds []Condition, set Document) (int64, error)
	}

	// Index describes a collection index. Keys prefixed with "-" are descending.
	Index struct {
		Keys   []string
		Unique bool
	}

	Store interface {
		Collection(name string) Collection
		EnsureIndexes(ctx context.Context, collection string, indexes ...Index) error
		Close(ctx context.Context) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering parses a comma separated ordering, eg. "-created_date,title".
// A leading "-" means descending.
func ParseOrdering(s string) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// ToDocument converts a bson-tagged value into a Document.
func ToDocument(v interface{}) (Document, error) {
	if doc, ok := v.(Document); ok {
		return doc, nil
	}
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling document")
	}
	var doc Document
	if err = bson.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshalling document")
	}
	return doc, nil
}

// DocumentID returns the ObjectID stored under "_id", if any.
func DocumentID(doc Document) (primitive.ObjectID, bool) {
	oid, ok := doc["_id"].(primitive.ObjectID)
	return oid, ok
}

// ParseID parses a hex ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(CleanString(id))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// Now returns the current time truncated to the store's millisecond precision.
var Now = func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// FromDocument decodes doc into the bson-tagged value pointed to by v.
func FromDocument(doc Document, v interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshalling document")
	}
	return errors.Wrap(bson.Unmarshal(data, v), "unmarshalling document")
}
