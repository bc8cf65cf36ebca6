// Package branch manages the departments of the college.
package branch

import (
	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

// Codes of the branches taught at the college.
var Codes = []string{"CSE", "ECE", "Civil", "Mech", "EEE", "AIML", "CCN"}

const Collection = "branches"

type Branch struct {
	entity.Meta `bson:",inline"`
	Code        string   `json:"code" bson:"code" validate:"required,oneof=CSE ECE Civil Mech EEE AIML CCN"`
	Name        string   `json:"name" bson:"name" validate:"required"`
	HOD         string   `json:"hod" bson:"hod"`
	Regulations []string `json:"regulations" bson:"regulations"`
}

func prepare(b *Branch) {
	b.Code = core.CleanString(b.Code)
	b.Name = core.CleanString(b.Name)
	b.HOD = core.CleanString(b.HOD)
	regs := make([]string, 0, len(b.Regulations))
	for _, r := range b.Regulations {
		if r = core.CleanString(r); r != "" {
			regs = append(regs, r)
		}
	}
	b.Regulations = regs
}

func Kind(validate *validator.Validate) entity.Kind {
	return entity.Kind{
		Name:       "Branch",
		Collection: Collection,
		Schema:     entity.SchemaOf[Branch](validate, prepare),
		Indexes: []core.Index{
			{Keys: []string{"code"}, Unique: true},
		},
	}
}
