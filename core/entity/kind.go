// Package entity implements the generic CRUD service shared by every collection of the app.
package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
)

// Auto-managed fields
const (
	FieldID          = "_id"
	FieldCreatedDate = "created_date"
	FieldUpdatedDate = "updated_date"
	FieldCreatedBy   = "created_by"
	FieldUpdatedBy   = "updated_by"
)

// DefaultSort is the ordering applied when a request does not provide one.
const DefaultSort = "-" + FieldCreatedDate

type (
	// Schema turns a raw Document into the value that gets stored, validating it on the way.
	// Unknown fields are dropped.
	Schema interface {
		Normalize(doc core.Document) (interface{}, error)
	}

	// Kind describes one entity type and the collection backing it.
	Kind struct {
		Name       string // eg. "Student"; used in messages
		Collection string
		Schema     Schema
		Indexes    []core.Index
	}

	// Meta holds the fields every entity carries.
	Meta struct {
		ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
		CreatedDate time.Time          `json:"created_date" bson:"created_date"`
		UpdatedDate time.Time          `json:"updated_date" bson:"updated_date"`
		CreatedBy   string             `json:"created_by,omitempty" bson:"created_by,omitempty"`
		UpdatedBy   string             `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	}
)

type schema[T any] struct {
	validate *validator.Validate
	prepare  func(*T)
}

// SchemaOf returns a Schema decoding documents into T before validating them with validate.
// prepare, when given, runs between decoding and validation (cleaning, defaults..).
func SchemaOf[T any](validate *validator.Validate, prepare func(*T)) Schema {
	return &schema[T]{validate: validate, prepare: prepare}
}

func (s *schema[T]) Normalize(doc core.Document) (interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}

	var v T
	if err = json.Unmarshal(data, &v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, core.NewValidationError(
				errors.New("Validation failed"),
				core.FieldError{Field: typeErr.Field, Error: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)},
			)
		}
		var timeErr *time.ParseError
		if errors.As(err, &timeErr) {
			return nil, core.NewValidationError(
				errors.New("Validation failed"),
				core.FieldError{Field: "date", Error: fmt.Sprintf("invalid date %s", timeErr.Value)},
			)
		}
		return nil, errors.Wrap(err, "decoding document")
	}

	if s.prepare != nil {
		s.prepare(&v)
	}
	if err = s.validate.Struct(v); err != nil {
		return nil, err
	}
	return &v, nil
}
