package entity

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
)

// Paging defaults
const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000
)

type (
	Pagination struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Pages int   `json:"pages"`
	}

	ListResult struct {
		Success    bool            `json:"success"`
		Data       []core.Document `json:"data"`
		Pagination Pagination      `json:"pagination"`
	}

	Result struct {
		Success bool          `json:"success"`
		Message string        `json:"message,omitempty"`
		Data    core.Document `json:"data"`
	}

	DeleteBatchResult struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		DeletedCount int64  `json:"deletedCount"`
	}

	CountResult struct {
		Success bool  `json:"success"`
		Count   int64 `json:"count"`
	}

	// ListParams holds the ordering and paging of a listing.
	ListParams struct {
		Sort  string
		Page  int
		Limit int
	}
)

// NewListParams returns params with defaults applied.
func NewListParams(sort string, page, limit int) ListParams {
	p := ListParams{Sort: core.CleanString(sort), Page: page, Limit: limit}
	return p.normalize(DefaultLimit)
}

func (p ListParams) normalize(defaultLimit int) ListParams {
	if p.Sort == "" {
		p.Sort = DefaultSort
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Service implements the CRUD operations of one Kind.
type Service struct {
	kind Kind
	coll core.Collection
}

func NewService(kind Kind, store core.Store) *Service {
	return &Service{kind: kind, coll: store.Collection(kind.Collection)}
}

func (svc *Service) Kind() Kind { return svc.kind }

func (svc *Service) Collection() core.Collection { return svc.coll }

// List returns one page of the whole collection.
func (svc *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	return svc.Query(ctx, nil, params)
}

// Filter returns one page of the documents matching filters (see BuildConditions).
func (svc *Service) Filter(ctx context.Context, filters map[string]interface{}, params ListParams) (*ListResult, error) {
	return svc.Query(ctx, BuildConditions(filters), params)
}

// Query returns one page of the documents matching conds.
func (svc *Service) Query(ctx context.Context, conds []core.Condition, params ListParams) (*ListResult, error) {
	params = params.normalize(DefaultLimit)

	docs, err := svc.coll.Find(ctx, core.Query{
		Conditions: conds,
		Sort:       core.ParseOrdering(params.Sort),
		Skip:       int64((params.Page - 1) * params.Limit),
		Limit:      int64(params.Limit),
	})
	if err != nil {
		return nil, svc.handleError(err, "listing "+svc.kind.Collection)
	}
	total, err := svc.coll.Count(ctx, conds)
	if err != nil {
		return nil, svc.handleError(err, "counting "+svc.kind.Collection)
	}
	if docs == nil {
		docs = []core.Document{}
	}

	pages := int(total / int64(params.Limit))
	if total%int64(params.Limit) != 0 {
		pages++
	}
	return &ListResult{
		Success: true,
		Data:    docs,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

func (svc *Service) parseID(id string) (primitive.ObjectID, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return oid, svc.errInvalidID()
	}
	return oid, nil
}

func (svc *Service) Get(ctx context.Context, id string) (*Result, error) {
	oid, err := svc.parseID(id)
	if err != nil {
		return nil, err
	}
	doc, err := svc.coll.Get(ctx, oid)
	if err != nil {
		return nil, svc.handleError(err, "getting "+svc.kind.Name)
	}
	return &Result{Success: true, Data: doc}, nil
}

// FindOne returns the first document matching conds.
func (svc *Service) FindOne(ctx context.Context, conds ...core.Condition) (core.Document, error) {
	doc, err := svc.coll.FindOne(ctx, conds)
	if err != nil {
		return nil, svc.handleError(err, "finding "+svc.kind.Name)
	}
	return doc, nil
}

// Create validates payload and stores it. userID, if not empty, is recorded as the creator.
func (svc *Service) Create(ctx context.Context, payload core.Document, userID string) (*Result, error) {
	doc := make(core.Document, len(payload)+4)
	for k, v := range payload {
		doc[k] = v
	}
	delete(doc, FieldID)
	delete(doc, FieldUpdatedBy)

	now := core.Now()
	doc[FieldCreatedDate] = now
	doc[FieldUpdatedDate] = now
	if userID != "" {
		doc[FieldCreatedBy] = userID
	} else {
		delete(doc, FieldCreatedBy)
	}

	val, err := svc.kind.Schema.Normalize(doc)
	if err != nil {
		return nil, svc.handleError(err, "validating "+svc.kind.Name)
	}
	stored, err := svc.coll.Insert(ctx, val)
	if err != nil {
		return nil, svc.handleError(err, "creating "+svc.kind.Name)
	}
	return &Result{Success: true, Data: stored}, nil
}

// Update merges payload into the stored document (top-level fields only) and re-validates it.
func (svc *Service) Update(ctx context.Context, id string, payload core.Document, userID string) (*Result, error) {
	oid, err := svc.parseID(id)
	if err != nil {
		return nil, err
	}
	existing, err := svc.coll.Get(ctx, oid)
	if err != nil {
		return nil, svc.handleError(err, "getting "+svc.kind.Name)
	}

	for k, v := range payload {
		switch k {
		case FieldID, FieldCreatedDate, FieldCreatedBy:
			continue
		}
		existing[k] = v
	}
	existing[FieldUpdatedDate] = core.Now()
	if userID != "" {
		existing[FieldUpdatedBy] = userID
	}

	val, err := svc.kind.Schema.Normalize(existing)
	if err != nil {
		return nil, svc.handleError(err, "validating "+svc.kind.Name)
	}
	stored, err := svc.coll.Replace(ctx, oid, val)
	if err != nil {
		return nil, svc.handleError(err, "updating "+svc.kind.Name)
	}
	return &Result{Success: true, Data: stored}, nil
}

func (svc *Service) Delete(ctx context.Context, id string) (*Result, error) {
	oid, err := svc.parseID(id)
	if err != nil {
		return nil, err
	}
	doc, err := svc.coll.Delete(ctx, oid)
	if err != nil {
		return nil, svc.handleError(err, "deleting "+svc.kind.Name)
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("%s deleted successfully", svc.kind.Name),
		Data:    doc,
	}, nil
}

// DeleteBatch deletes the documents with the given ids. Invalid ids are ignored.
func (svc *Service) DeleteBatch(ctx context.Context, ids []string) (*DeleteBatchResult, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := core.ParseID(id); err == nil {
			oids = append(oids, oid)
		}
	}

	var n int64
	if len(oids) > 0 {
		var err error
		if n, err = svc.coll.DeleteMany(ctx, oids); err != nil {
			return nil, svc.handleError(err, "deleting "+svc.kind.Collection)
		}
	}
	return &DeleteBatchResult{
		Success:      true,
		Message:      fmt.Sprintf("%d records deleted", n),
		DeletedCount: n,
	}, nil
}

func (svc *Service) Count(ctx context.Context, filters map[string]interface{}) (*CountResult, error) {
	n, err := svc.coll.Count(ctx, BuildConditions(filters))
	if err != nil {
		return nil, svc.handleError(err, "counting "+svc.kind.Collection)
	}
	return &CountResult{Success: true, Count: n}, nil
}

// Increment adds one to a counter field and returns the updated document.
func (svc *Service) Increment(ctx context.Context, id, field string) (*Result, error) {
	oid, err := svc.parseID(id)
	if err != nil {
		return nil, err
	}
	if err = svc.coll.Increment(ctx, oid, field, 1); err != nil {
		return nil, svc.handleError(err, "incrementing "+field)
	}
	doc, err := svc.coll.Get(ctx, oid)
	if err != nil {
		return nil, svc.handleError(err, "getting "+svc.kind.Name)
	}
	return &Result{Success: true, Data: doc}, nil
}
