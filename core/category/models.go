package category

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/activitypoints/core"
)

type (
	// Category is a named activity type carrying point values; points are
	// awarded out-of-band, the records here only describe the award rules.
	Category struct {
		ID                string        `json:"id" bson:"_id,omitempty"`
		Name              string        `json:"name" bson:"name"`
		Description       string        `json:"description,omitempty" bson:"description,omitempty"`
		MaxPoints         int           `json:"maxPoints" bson:"maxPoints"`
		MinDuration       string        `json:"minDuration,omitempty" bson:"minDuration,omitempty"`
		RequiredDocuments []string      `json:"requiredDocuments,omitempty" bson:"requiredDocuments,omitempty"`
		Subcategories     []Subcategory `json:"subcategories,omitempty" bson:"subcategories,omitempty"`
		CreatedAt         time.Time     `json:"createdAt" bson:"createdAt"` // UTC
		UpdatedAt         time.Time     `json:"updatedAt" bson:"updatedAt"` // UTC
	}

	Subcategory struct {
		Name   string `json:"name" bson:"name" validate:"required"`
		Points int    `json:"points" bson:"points"`
		Level  string `json:"level,omitempty" bson:"level,omitempty"`
	}
)

// NewCategory contains information needed to create a new Category.
type NewCategory struct {
	Name              string        `json:"name" validate:"required"`
	Description       string        `json:"description"`
	MaxPoints         int           `json:"maxPoints" validate:"min=0"`
	MinDuration       string        `json:"minDuration"`
	RequiredDocuments []string      `json:"requiredDocuments"`
	Subcategories     []Subcategory `json:"subcategories" validate:"omitempty,dive"`
}

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCategory defines what may be modified on an existing Category.
type UpdateCategory struct {
	Name              string        `json:"name"`
	Description       *string       `json:"description"`
	MaxPoints         *int          `json:"maxPoints" validate:"omitempty,min=0"`
	MinDuration       *string       `json:"minDuration"`
	RequiredDocuments []string      `json:"requiredDocuments"`
	Subcategories     []Subcategory `json:"subcategories" validate:"omitempty,dive"`
}

func (uc *UpdateCategory) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}
