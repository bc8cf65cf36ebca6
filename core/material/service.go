package material

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

// DefaultLimit is the page size of the public listing.
const DefaultLimit = 20

type Service struct {
	*entity.Service
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(Kind(validate), store)}
}

// Search lists materials newest first. Empty arguments are ignored; subject is a partial match.
func (svc *Service) Search(ctx context.Context, branch string, semester int, subject string, page, limit int) (*entity.ListResult, error) {
	var conds []core.Condition
	if branch = core.CleanString(branch); branch != "" {
		conds = append(conds, entity.Eq("branch", branch))
	}
	if semester > 0 {
		conds = append(conds, entity.Eq("semester", semester))
	}
	if subject = core.CleanString(subject); subject != "" {
		conds = append(conds, entity.Match("subject", subject))
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return svc.Query(ctx, conds, entity.NewListParams(entity.DefaultSort, page, limit))
}

// Download returns the material and counts one download.
func (svc *Service) Download(ctx context.Context, id string) (core.Document, error) {
	res, err := svc.Increment(ctx, id, "downloadCount")
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
