package school

import (
	"math"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"sekolahku/core"
)

type School struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NPSN      string `json:"npsn"`   // national school registry number
	Bentuk    string `json:"bentuk"` // school form: SD, SMP, SMA, SMK
	Status    string `json:"status"` // NEGERI or SWASTA
	Alamat    string `json:"alamat"`
	Kelurahan string `json:"kelurahan"`
	Kecamatan string `json:"kecamatan"`
	Telp      string `json:"telp"`

	// both set or both empty; absence means "not geocoded"
	Lat null.Float64 `json:"lat"`
	Lng null.Float64 `json:"lng"`

	// enrichment fields, all optional
	Description  null.String `json:"description"`
	Programs     null.String `json:"programs"`
	Achievements null.String `json:"achievements"`
	Website      null.String `json:"website"`
	Contact      null.String `json:"contact"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (s School) HasCoordinates() bool { return s.Lat.Valid && s.Lng.Valid }

// Completeness scores how much of the school's enrichment profile is filled
// in, as a percentage of the four enrichment fields. A field counts when it
// is non-null and non-empty after trimming.
func (s School) Completeness() int {
	fields := []null.String{s.Description, s.Programs, s.Achievements, s.Website}
	var filled int
	for _, fld := range fields {
		if fld.Valid && strings.TrimSpace(fld.String) != "" {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(len(fields)) * 100))
}

// Summary is a School decorated with its review aggregates for list views.
type Summary struct {
	School
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	Name      string `json:"name" validate:"required"`
	NPSN      string `json:"npsn" validate:"required"`
	Bentuk    string `json:"bentuk" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=NEGERI SWASTA"`
	Alamat    string `json:"alamat" validate:"required"`
	Kelurahan string `json:"kelurahan"`
	Kecamatan string `json:"kecamatan"`
	Telp      string `json:"telp"`

	Lat null.Float64 `json:"lat"`
	Lng null.Float64 `json:"lng"`

	Description  null.String `json:"description"`
	Programs     null.String `json:"programs"`
	Achievements null.String `json:"achievements"`
	Website      null.String `json:"website" validate:"omitempty"`
	Contact      null.String `json:"contact"`
}

func (ns *NewSchool) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.NPSN = core.CleanString(ns.NPSN)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return validateCoordinatePair(ns.Lat, ns.Lng)
}

// UpdateSchool defines what profile information may be modified on an
// existing School. Nil pointers leave the original value untouched.
type UpdateSchool struct {
	Name      *string `json:"name"`
	Alamat    *string `json:"alamat"`
	Kelurahan *string `json:"kelurahan"`
	Kecamatan *string `json:"kecamatan"`
	Telp      *string `json:"telp"`

	Lat *null.Float64 `json:"lat"`
	Lng *null.Float64 `json:"lng"`

	Description  *null.String `json:"description"`
	Programs     *null.String `json:"programs"`
	Achievements *null.String `json:"achievements"`
	Website      *null.String `json:"website"`
	Contact      *null.String `json:"contact"`
}

func (us *UpdateSchool) Validate() error {
	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if us.Lat != nil || us.Lng != nil {
		if us.Lat == nil || us.Lng == nil {
			return coordinatePairErr()
		}
		return validateCoordinatePair(*us.Lat, *us.Lng)
	}
	return nil
}

func (us UpdateSchool) apply(sch School) School {
	if us.Name != nil {
		sch.Name = core.CleanString(*us.Name)
	}
	if us.Alamat != nil {
		sch.Alamat = *us.Alamat
	}
	if us.Kelurahan != nil {
		sch.Kelurahan = *us.Kelurahan
	}
	if us.Kecamatan != nil {
		sch.Kecamatan = *us.Kecamatan
	}
	if us.Telp != nil {
		sch.Telp = *us.Telp
	}
	if us.Lat != nil {
		sch.Lat = *us.Lat
	}
	if us.Lng != nil {
		sch.Lng = *us.Lng
	}
	if us.Description != nil {
		sch.Description = *us.Description
	}
	if us.Programs != nil {
		sch.Programs = *us.Programs
	}
	if us.Achievements != nil {
		sch.Achievements = *us.Achievements
	}
	if us.Website != nil {
		sch.Website = *us.Website
	}
	if us.Contact != nil {
		sch.Contact = *us.Contact
	}
	return sch
}

func coordinatePairErr() error {
	return core.NewValidationError(
		ErrInvalidCoordinates,
		core.FieldError{Field: "lat", Error: "lat and lng must be provided together"},
		core.FieldError{Field: "lng", Error: "lat and lng must be provided together"},
	)
}

func validateCoordinatePair(lat, lng null.Float64) error {
	if lat.Valid != lng.Valid {
		return coordinatePairErr()
	}
	if !lat.Valid {
		return nil
	}
	return Coordinates{Lat: lat.Float64, Lng: lng.Float64}.Validate()
}
