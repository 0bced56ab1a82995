package review

import (
	"time"

	"sekolahku/core"
)

// Review is one user's assessment of a school across the four criteria.
// Scores are integers in [1, 5].
type Review struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`
	UserID   string `json:"user_id"`

	Kenyamanan   int `json:"kenyamanan"`   // comfort
	Pembelajaran int `json:"pembelajaran"` // teaching quality
	Fasilitas    int `json:"fasilitas"`    // facilities
	Kepemimpinan int `json:"kepemimpinan"` // leadership

	Komentar string `json:"komentar"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC

	// denormalized display names, populated by list queries only
	UserName   string `json:"user_name,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
}

// NewReview contains information needed to post a Review.
type NewReview struct {
	SchoolID     string `json:"school_id" validate:"required"`
	Kenyamanan   int    `json:"kenyamanan" validate:"required,min=1,max=5"`
	Pembelajaran int    `json:"pembelajaran" validate:"required,min=1,max=5"`
	Fasilitas    int    `json:"fasilitas" validate:"required,min=1,max=5"`
	Kepemimpinan int    `json:"kepemimpinan" validate:"required,min=1,max=5"`
	Komentar     string `json:"komentar"`
}

func (nr *NewReview) Validate() error {
	nr.Komentar = core.CleanString(nr.Komentar)
	return core.Validate.Struct(nr)
}

// UpdateReview defines what may be modified on an existing Review.
// The target school and author never change.
type UpdateReview struct {
	Kenyamanan   int    `json:"kenyamanan" validate:"required,min=1,max=5"`
	Pembelajaran int    `json:"pembelajaran" validate:"required,min=1,max=5"`
	Fasilitas    int    `json:"fasilitas" validate:"required,min=1,max=5"`
	Kepemimpinan int    `json:"kepemimpinan" validate:"required,min=1,max=5"`
	Komentar     string `json:"komentar"`
}

func (ur *UpdateReview) Validate() error {
	ur.Komentar = core.CleanString(ur.Komentar)
	return core.Validate.Struct(ur)
}

// Filter narrows review queries; zero-value fields are ignored.
type Filter struct {
	SchoolID string
	UserID   string
}

func (f Filter) IsEmpty() bool { return f == Filter{} }
