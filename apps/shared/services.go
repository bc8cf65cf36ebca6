// Package shared builds the services used by both the API server and the admin CLI.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/announcement"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/core/banner"
	"github.com/crreddy/polysis/core/branch"
	"github.com/crreddy/polysis/core/entity"
	"github.com/crreddy/polysis/core/material"
	"github.com/crreddy/polysis/core/paper"
	"github.com/crreddy/polysis/core/student"
)

type Services struct {
	Auth         *auth.Service
	Student      *student.Service
	Branch       *branch.Service
	Material     *material.Service
	Paper        *paper.Service
	Announcement *announcement.Service
	Banner       *banner.Service
	Carousel     *banner.Service
}

// NewValidator returns the validator with the core & auth validations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	auth.RegisterValidators(validate, translator)
	return validate, translator
}

func NewServices(store core.Store, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) Services {
	return Services{
		Auth:         auth.NewService(store, auth.NewTokens(conf), mailSvc, validate, conf),
		Student:      student.NewService(store, validate),
		Branch:       branch.NewService(store, validate),
		Material:     material.NewService(store, validate),
		Paper:        paper.NewService(store, validate),
		Announcement: announcement.NewService(store, validate),
		Banner:       banner.NewService(store, validate),
		Carousel:     banner.NewCarouselService(store, validate),
	}
}

// Indexes returns the indexes of every collection, keyed by collection name.
func Indexes(validate *validator.Validate) map[string][]core.Index {
	kinds := []entity.Kind{
		student.Kind(validate),
		branch.Kind(validate),
		material.Kind(validate),
		paper.Kind(validate),
		announcement.Kind(validate),
		banner.Kind(validate), // carousel shares the banners collection
	}
	indexes := make(map[string][]core.Index, len(kinds)+1)
	for _, kind := range kinds {
		indexes[kind.Collection] = kind.Indexes
	}
	indexes[auth.Collection] = auth.Indexes
	return indexes
}
