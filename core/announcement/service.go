package announcement

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

// DefaultLimit is the page size of the public listing.
const DefaultLimit = 10

type Service struct {
	*entity.Service
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(Kind(validate), store)}
}

// Active lists the active announcements, latest publish date first, optionally of one type.
func (svc *Service) Active(ctx context.Context, typ string, page, limit int) (*entity.ListResult, error) {
	conds := []core.Condition{entity.Eq("isActive", true)}
	if typ = core.CleanString(typ); typ != "" {
		conds = append(conds, entity.Eq("type", typ))
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return svc.Query(ctx, conds, entity.NewListParams("-publishDate", page, limit))
}

// View returns the announcement and counts one view.
func (svc *Service) View(ctx context.Context, id string) (core.Document, error) {
	res, err := svc.Increment(ctx, id, "viewCount")
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// DeactivateExpired turns off active announcements whose expiry date has passed.
func (svc *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	now := core.Now()
	return svc.Collection().UpdateMany(ctx,
		[]core.Condition{
			entity.Eq("isActive", true),
			{Field: "expiryDate", Op: core.OpRange, Value: map[string]interface{}{"$lte": now}},
		},
		core.Document{"isActive": false, entity.FieldUpdatedDate: now},
	)
}
