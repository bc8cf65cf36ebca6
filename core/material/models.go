// Package material manages the study materials shared with students.
package material

import (
	"path"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

const Collection = "materials"

// File types
const (
	FileTypePDF = "PDF"
	FileTypeDOC = "DOC"
	FileTypePPT = "PPT"
)

type Material struct {
	entity.Meta   `bson:",inline"`
	Title         string   `json:"title" bson:"title" validate:"required"`
	Description   string   `json:"description" bson:"description"`
	Branch        string   `json:"branch" bson:"branch" validate:"required"`
	Semester      int      `json:"semester" bson:"semester" validate:"required,min=1,max=8"`
	Subject       string   `json:"subject" bson:"subject" validate:"required"`
	FileURL       string   `json:"fileUrl" bson:"fileUrl" validate:"required"`
	FileType      string   `json:"fileType" bson:"fileType" validate:"required,oneof=PDF DOC PPT"`
	FileSize      int64    `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	UploadedBy    string   `json:"uploadedBy" bson:"uploadedBy" validate:"required"`
	DownloadCount int      `json:"downloadCount" bson:"downloadCount" validate:"gte=0"`
	Tags          []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

func prepare(m *Material) {
	m.Title = core.CleanString(m.Title)
	m.Branch = core.CleanString(m.Branch)
	m.Subject = core.CleanString(m.Subject)
	m.FileType = strings.ToUpper(core.CleanString(m.FileType))
	if m.FileType == "" {
		m.FileType = FileTypeOf(m.FileURL)
	}
	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		if t = core.CleanString(t); t != "" {
			tags = append(tags, t)
		}
	}
	m.Tags = tags
}

// FileTypeOf guesses the file type from a file name or url; "" when unknown.
func FileTypeOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return FileTypePDF
	case ".doc", ".docx":
		return FileTypeDOC
	case ".ppt", ".pptx":
		return FileTypePPT
	}
	return ""
}

func Kind(validate *validator.Validate) entity.Kind {
	return entity.Kind{
		Name:       "Material",
		Collection: Collection,
		Schema:     entity.SchemaOf[Material](validate, prepare),
		Indexes: []core.Index{
			{Keys: []string{"branch", "semester"}},
			{Keys: []string{"subject"}},
			{Keys: []string{"tags"}},
			{Keys: []string{"-" + entity.FieldCreatedDate}},
		},
	}
}
