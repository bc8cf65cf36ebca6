// Package paper manages past exam question papers.
package paper

import (
	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

const Collection = "questionpapers"

type QuestionPaper struct {
	entity.Meta   `bson:",inline"`
	Title         string `json:"title" bson:"title" validate:"required"`
	Branch        string `json:"branch" bson:"branch" validate:"required"`
	Semester      int    `json:"semester" bson:"semester" validate:"required,min=1,max=8"`
	Subject       string `json:"subject" bson:"subject" validate:"required"`
	ExamType      string `json:"examType" bson:"examType" validate:"required,oneof=Mid Final Supplementary"`
	AcademicYear  string `json:"academicYear" bson:"academicYear" validate:"required"`
	Regulation    string `json:"regulation" bson:"regulation" validate:"required"`
	FileURL       string `json:"fileUrl" bson:"fileUrl" validate:"required"`
	FileSize      int64  `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	UploadedBy    string `json:"uploadedBy" bson:"uploadedBy" validate:"required"`
	DownloadCount int    `json:"downloadCount" bson:"downloadCount" validate:"gte=0"`
}

func prepare(p *QuestionPaper) {
	p.Title = core.CleanString(p.Title)
	p.Branch = core.CleanString(p.Branch)
	p.Subject = core.CleanString(p.Subject)
	p.AcademicYear = core.CleanString(p.AcademicYear)
	p.Regulation = core.CleanString(p.Regulation)
}

func Kind(validate *validator.Validate) entity.Kind {
	return entity.Kind{
		Name:       "QuestionPaper",
		Collection: Collection,
		Schema:     entity.SchemaOf[QuestionPaper](validate, prepare),
		Indexes: []core.Index{
			{Keys: []string{"branch", "semester", "academicYear"}},
			{Keys: []string{"regulation"}},
			{Keys: []string{"-" + entity.FieldCreatedDate}},
		},
	}
}
