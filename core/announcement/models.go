// Package announcement manages the notices published on the home page.
package announcement

import (
	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

const Collection = "announcements"

// Types of announcement
var Types = []string{"General", "Academic", "Exam", "Event", "Holiday"}

type Announcement struct {
	entity.Meta `bson:",inline"`
	Title       string       `json:"title" bson:"title" validate:"required"`
	Content     string       `json:"content" bson:"content" validate:"required"`
	Type        string       `json:"type" bson:"type" validate:"required,oneof=General Academic Exam Event Holiday"`
	FileURL     string       `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	PublishedBy string       `json:"publishedBy" bson:"publishedBy" validate:"required"`
	PublishDate *entity.Date `json:"publishDate" bson:"publishDate"`
	ExpiryDate  *entity.Date `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
	IsActive    *bool        `json:"isActive" bson:"isActive"`
	ViewCount   int          `json:"viewCount" bson:"viewCount" validate:"gte=0"`
}

func prepare(a *Announcement) {
	a.Title = core.CleanString(a.Title)
	if a.PublishDate = entity.NilIfZero(a.PublishDate); a.PublishDate == nil {
		a.PublishDate = entity.NewDate(core.Now())
	}
	a.ExpiryDate = entity.NilIfZero(a.ExpiryDate)
	if a.IsActive == nil {
		active := true
		a.IsActive = &active
	}
}

func Kind(validate *validator.Validate) entity.Kind {
	return entity.Kind{
		Name:       "Announcement",
		Collection: Collection,
		Schema:     entity.SchemaOf[Announcement](validate, prepare),
		Indexes: []core.Index{
			{Keys: []string{"-publishDate"}},
			{Keys: []string{"type", "isActive"}},
		},
	}
}
