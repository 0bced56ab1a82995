package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"sekolahku/core"
	"sekolahku/core/authz"
	"sekolahku/core/review"
	"sekolahku/core/school"
	"sekolahku/core/user"
)

// InitConfig loads the app configuration and forces test mode on.
func InitConfig() {
	if core.Conf == nil {
		core.LoadConfig()
	}
	core.Conf.TestMode = true
	core.Conf.Debug = false
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role authz.Role,
	schoolID string,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if schoolID != "" {
		usr.AssignedSchoolID = null.StringFrom(schoolID)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(
	t *testing.T,
	repo school.Repository,
	name, npsn, bentuk, status string,
	opts ...func(*school.School),
) school.School {
	t.Helper()

	now := time.Now().UTC()
	sch := school.School{
		Name:      name,
		NPSN:      npsn,
		Bentuk:    bentuk,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&sch)
	}
	sch, err := repo.CreateSchool(context.Background(), sch)
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

// WithCoordinates geocodes the school being created.
func WithCoordinates(lat, lng float64) func(*school.School) {
	return func(sch *school.School) {
		sch.Lat = null.Float64From(lat)
		sch.Lng = null.Float64From(lng)
	}
}

// WithProfile fills the given enrichment fields; empty strings are left null.
func WithProfile(description, programs, achievements, website string) func(*school.School) {
	return func(sch *school.School) {
		sch.Description = null.NewString(description, description != "")
		sch.Programs = null.NewString(programs, programs != "")
		sch.Achievements = null.NewString(achievements, achievements != "")
		sch.Website = null.NewString(website, website != "")
	}
}

func CreateReview(
	t *testing.T,
	repo review.Repository,
	schoolID, userID string,
	kenyamanan, pembelajaran, fasilitas, kepemimpinan int,
	komentar string,
	createdAt ...time.Time,
) review.Review {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rev := review.Review{
		SchoolID:     schoolID,
		UserID:       userID,
		Kenyamanan:   kenyamanan,
		Pembelajaran: pembelajaran,
		Fasilitas:    fasilitas,
		Kepemimpinan: kepemimpinan,
		Komentar:     komentar,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	rev, err := repo.CreateReview(context.Background(), rev)
	if err != nil {
		t.Fatalf("CreateReview() failed: %v", err)
	}
	return rev
}
