// Package student holds student records: identity, academic results and attendance.
package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

const Collection = "students"

type (
	Address struct {
		Street     string `json:"street,omitempty" bson:"street,omitempty"`
		City       string `json:"city,omitempty" bson:"city,omitempty"`
		State      string `json:"state,omitempty" bson:"state,omitempty"`
		PostalCode string `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
		Country    string `json:"country,omitempty" bson:"country,omitempty"`
	}

	PersonalInfo struct {
		FirstName         string       `json:"firstName" bson:"firstName" validate:"required"`
		LastName          string       `json:"lastName" bson:"lastName" validate:"required"`
		DateOfBirth       *entity.Date `json:"dateOfBirth" bson:"dateOfBirth" validate:"required"`
		Gender            string       `json:"gender" bson:"gender" validate:"required,oneof=Male Female Other"`
		Email             string       `json:"email" bson:"email" validate:"required,email"`
		Phone             string       `json:"phone" bson:"phone" validate:"required"`
		Address           *Address     `json:"address,omitempty" bson:"address,omitempty"`
		ProfilePictureURL string       `json:"profilePictureUrl,omitempty" bson:"profilePictureUrl,omitempty"`
	}

	SubjectMark struct {
		Subject string  `json:"subject" bson:"subject"`
		Marks   float64 `json:"marks" bson:"marks" validate:"gte=0"`
		Grade   string  `json:"grade,omitempty" bson:"grade,omitempty"`
	}

	SemesterMarks struct {
		Semester int           `json:"semester" bson:"semester" validate:"min=1,max=8"`
		GPA      float64       `json:"gpa" bson:"gpa" validate:"min=0,max=10"`
		Marks    []SubjectMark `json:"marks,omitempty" bson:"marks,omitempty" validate:"dive"`
	}

	AcademicInfo struct {
		Regulation      string          `json:"regulation,omitempty" bson:"regulation,omitempty"`
		CurrentSemester int             `json:"currentSemester,omitempty" bson:"currentSemester,omitempty" validate:"omitempty,min=1,max=8"`
		CGPA            float64         `json:"cgpa" bson:"cgpa" validate:"min=0,max=10"`
		SemesterMarks   []SemesterMarks `json:"semesterMarks,omitempty" bson:"semesterMarks,omitempty" validate:"dive"`
	}

	Classes struct {
		Attended int `json:"attended" bson:"attended" validate:"gte=0"`
		Total    int `json:"total" bson:"total" validate:"gte=0"`
	}

	SemesterAttendance struct {
		Semester   int     `json:"semester" bson:"semester" validate:"min=1,max=8"`
		Percentage float64 `json:"percentage" bson:"percentage" validate:"min=0,max=100"`
		Classes    Classes `json:"classes" bson:"classes"`
	}

	Attendance struct {
		OverallAttendance  float64              `json:"overallAttendance" bson:"overallAttendance" validate:"min=0,max=100"`
		SemesterAttendance []SemesterAttendance `json:"semesterAttendance,omitempty" bson:"semesterAttendance,omitempty" validate:"dive"`
	}

	Student struct {
		entity.Meta  `bson:",inline"`
		PIN          string        `json:"pin" bson:"pin" validate:"required"`
		Branch       string        `json:"branch" bson:"branch" validate:"required"`
		AcademicYear string        `json:"academicYear" bson:"academicYear" validate:"required"`
		PersonalInfo PersonalInfo  `json:"personalInfo" bson:"personalInfo"`
		AcademicInfo *AcademicInfo `json:"academicInfo,omitempty" bson:"academicInfo,omitempty"`
		Attendance   *Attendance   `json:"attendance,omitempty" bson:"attendance,omitempty"`
	}
)

func prepare(s *Student) {
	s.PIN = core.CleanString(s.PIN)
	s.Branch = core.CleanString(s.Branch)
	s.AcademicYear = core.CleanString(s.AcademicYear)
	s.PersonalInfo.FirstName = core.CleanString(s.PersonalInfo.FirstName)
	s.PersonalInfo.LastName = core.CleanString(s.PersonalInfo.LastName)
	s.PersonalInfo.Email = core.CleanString(s.PersonalInfo.Email, true /* lower */)
	s.PersonalInfo.DateOfBirth = entity.NilIfZero(s.PersonalInfo.DateOfBirth)
}

func Kind(validate *validator.Validate) entity.Kind {
	return entity.Kind{
		Name:       "Student",
		Collection: Collection,
		Schema:     entity.SchemaOf[Student](validate, prepare),
		Indexes: []core.Index{
			{Keys: []string{"pin"}, Unique: true},
			{Keys: []string{"branch", "academicYear"}},
			{Keys: []string{"personalInfo.email"}},
			{Keys: []string{"-" + entity.FieldCreatedDate}},
		},
	}
}
