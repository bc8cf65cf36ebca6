// Package banner manages the home page banners, also served as the carousel.
package banner

import (
	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

const Collection = "banners"

type Banner struct {
	entity.Meta  `bson:",inline"`
	Title        string `json:"title" bson:"title" validate:"required"`
	ImageURL     string `json:"imageUrl" bson:"imageUrl" validate:"required"`
	DisplayOrder int    `json:"displayOrder" bson:"displayOrder"`
	IsActive     *bool  `json:"isActive" bson:"isActive"`
	Link         string `json:"link,omitempty" bson:"link,omitempty" validate:"omitempty,url"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`
}

func prepare(b *Banner) {
	b.Title = core.CleanString(b.Title)
	b.Link = core.CleanString(b.Link)
	if b.IsActive == nil {
		active := true
		b.IsActive = &active
	}
}

func kind(name string, validate *validator.Validate) entity.Kind {
	return entity.Kind{
		Name:       name,
		Collection: Collection,
		Schema:     entity.SchemaOf[Banner](validate, prepare),
		Indexes: []core.Index{
			{Keys: []string{"displayOrder"}},
		},
	}
}

func Kind(validate *validator.Validate) entity.Kind {
	return kind("Banner", validate)
}

// CarouselKind is the same collection under the name used by the carousel routes.
func CarouselKind(validate *validator.Validate) entity.Kind {
	return kind("CarouselImage", validate)
}
