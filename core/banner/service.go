package banner

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

const displaySort = "displayOrder"

type Service struct {
	*entity.Service
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(Kind(validate), store)}
}

func NewCarouselService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(CarouselKind(validate), store)}
}

// Active returns the active banners in display order.
func (svc *Service) Active(ctx context.Context) ([]core.Document, error) {
	res, err := svc.Query(ctx, []core.Condition{entity.Eq("isActive", true)}, entity.NewListParams(displaySort, 1, entity.MaxLimit))
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// All returns every banner, inactive ones included, in display order.
func (svc *Service) All(ctx context.Context) ([]core.Document, error) {
	res, err := svc.Query(ctx, nil, entity.NewListParams(displaySort, 1, entity.MaxLimit))
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
