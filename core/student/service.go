package student

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

// DefaultLimit is the page size of the admin student listing.
const DefaultLimit = 20

type Service struct {
	*entity.Service
}

func NewService(store core.Store, validate *validator.Validate) *Service {
	return &Service{Service: entity.NewService(Kind(validate), store)}
}

func filterConditions(branch, academicYear string) []core.Condition {
	var conds []core.Condition
	if branch = core.CleanString(branch); branch != "" {
		conds = append(conds, entity.Eq("branch", branch))
	}
	if academicYear = core.CleanString(academicYear); academicYear != "" {
		conds = append(conds, entity.Eq("academicYear", academicYear))
	}
	return conds
}

// SearchByPIN returns the student with this exact pin, optionally narrowed by branch and academic year.
func (svc *Service) SearchByPIN(ctx context.Context, pin, branch, academicYear string) (core.Document, error) {
	conds := append([]core.Condition{entity.Eq("pin", core.CleanString(pin))}, filterConditions(branch, academicYear)...)
	return svc.FindOne(ctx, conds...)
}

// Search lists the students of a branch and/or academic year, in pin order.
func (svc *Service) Search(ctx context.Context, branch, academicYear string, page, limit int) (*entity.ListResult, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	return svc.Query(ctx, filterConditions(branch, academicYear), entity.NewListParams("pin", page, limit))
}

// ProfilePictureURL returns the stored profile picture of a student document, if any.
func ProfilePictureURL(doc core.Document) string {
	info, ok := doc["personalInfo"].(core.Document)
	if !ok {
		return ""
	}
	url, _ := info["profilePictureUrl"].(string)
	return url
}
