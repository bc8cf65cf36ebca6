package paper

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

// SearchParams filters the public listing; zero values are ignored.
type SearchParams struct {
	Branch       string
	Semester     int
	AcademicYear string
	Regulation   string
	ExamType     string
	Page         int
	Limit        int
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(Kind(validate), store)}
}

// Search lists question papers newest first.
func (svc *Service) Search(ctx context.Context, params SearchParams) (*entity.ListResult, error) {
	var conds []core.Condition
	for field, val := range map[string]string{
		"branch":       params.Branch,
		"academicYear": params.AcademicYear,
		"regulation":   params.Regulation,
		"examType":     params.ExamType,
	} {
		if val = core.CleanString(val); val != "" {
			conds = append(conds, entity.Eq(field, val))
		}
	}
	if params.Semester > 0 {
		conds = append(conds, entity.Eq("semester", params.Semester))
	}

	limit := params.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	return svc.Query(ctx, conds, entity.NewListParams(entity.DefaultSort, params.Page, limit))
}

// Download returns the paper and counts one download.
func (svc *Service) Download(ctx context.Context, id string) (core.Document, error) {
	res, err := svc.Increment(ctx, id, "downloadCount")
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
