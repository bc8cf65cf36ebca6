package branch

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

type Service struct {
	*entity.Service
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(Kind(validate), store)}
}

// All returns every branch, ordered by code.
func (svc *Service) All(ctx context.Context) ([]core.Document, error) {
	res, err := svc.Query(ctx, nil, entity.NewListParams("code", 1, entity.MaxLimit))
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// FindByNameOrCode returns the branch whose name or code is exactly s.
func (svc *Service) FindByNameOrCode(ctx context.Context, s string) (core.Document, error) {
	s = core.CleanString(s)
	doc, err := svc.FindOne(ctx, entity.Eq("code", s))
	if err == nil {
		return doc, nil
	}
	if !entity.IsNotFound(err) {
		return nil, err
	}
	return svc.FindOne(ctx, entity.Eq("name", s))
}
