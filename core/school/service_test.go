package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"sekolahku/core/authz"
	"sekolahku/core/review"
	"sekolahku/core/school"
	inmemdb "sekolahku/storage/database/inmem"
)

type fixture struct {
	svc     *school.Service
	repo    school.Repository
	revRepo review.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.NewDB()
	repo := inmemdb.NewSchoolRepository(db)
	revRepo := inmemdb.NewReviewRepository(db)
	return fixture{svc: school.NewService(repo, revRepo), repo: repo, revRepo: revRepo}
}

func (f fixture) createSchool(t *testing.T, name, npsn string) school.School {
	t.Helper()
	sch, err := f.repo.CreateSchool(context.Background(), school.School{Name: name, NPSN: npsn})
	require.NoError(t, err)
	return sch
}

func (f fixture) postReview(t *testing.T, schoolID, userID string, score int, at time.Time) review.Review {
	t.Helper()
	rev, err := f.revRepo.CreateReview(context.Background(), review.Review{
		SchoolID:     schoolID,
		UserID:       userID,
		Kenyamanan:   score,
		Pembelajaran: score,
		Fasilitas:    score,
		Kepemimpinan: score,
		CreatedAt:    at,
		UpdatedAt:    at,
	})
	require.NoError(t, err)
	return rev
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	root := authz.Principal{ID: "root", Role: authz.RoleSuperadmin}
	ns := school.NewSchool{Name: "SMA Negeri 1", NPSN: "20100001", Bentuk: "SMA", Status: "NEGERI", Alamat: "Jl. Merdeka 1"}

	t.Run("superadmin creates", func(t *testing.T) {
		sch, err := f.svc.Create(ctx, root, ns)
		require.NoError(t, err)
		assert.NotEmpty(t, sch.ID)
		assert.Equal(t, "SMA Negeri 1", sch.Name)
	})

	t.Run("duplicate NPSN rejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, root, ns)
		assert.Error(t, err)
	})

	t.Run("school admin denied", func(t *testing.T) {
		_, err := f.svc.Create(ctx, authz.Principal{ID: "a", Role: authz.RoleSchoolAdmin, SchoolID: "s"}, ns)
		var denied *authz.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, authz.ReasonInsufficientRole, denied.Reason)
	})

	t.Run("regular user denied", func(t *testing.T) {
		_, err := f.svc.Create(ctx, authz.Principal{ID: "u", Role: authz.RoleUser}, ns)
		var denied *authz.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, authz.ReasonInsufficientRole, denied.Reason)
	})
}

func TestServiceList(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Now().UTC()

	rated := f.createSchool(t, "SMA 1", "001")
	unrated := f.createSchool(t, "SMA 2", "002")

	// (5,5,5,5) and (1,1,1,1) average out to 3.0
	f.postReview(t, rated.ID, "u1", 5, now.Add(-time.Hour))
	f.postReview(t, rated.ID, "u2", 1, now)

	got, err := f.svc.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := make(map[string]school.Summary, len(got))
	for _, s := range got {
		byID[s.ID] = s
	}
	assert.Equal(t, 3.0, byID[rated.ID].AvgRating)
	assert.Equal(t, 2, byID[rated.ID].ReviewCount)
	assert.Equal(t, float64(0), byID[unrated.ID].AvgRating)
	assert.Equal(t, 0, byID[unrated.ID].ReviewCount)
}

func TestServiceListRoundsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Now().UTC()

	sch := f.createSchool(t, "SMA 1", "001")
	// averages 4.25 and 3.0 -> aggregate 3.625 -> 3.6 on listings
	_, err := f.revRepo.CreateReview(ctx, review.Review{
		SchoolID: sch.ID, UserID: "u1",
		Kenyamanan: 4, Pembelajaran: 4, Fasilitas: 4, Kepemimpinan: 5,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	f.postReview(t, sch.ID, "u2", 3, now)

	got, err := f.svc.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.6, got[0].AvgRating)
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Now().UTC()

	sch := f.createSchool(t, "SMA 1", "001")
	older := f.postReview(t, sch.ID, "u1", 4, now.Add(-time.Hour))
	newer := f.postReview(t, sch.ID, "u2", 3, now)

	t.Run("detail with reviews newest first", func(t *testing.T) {
		got, err := f.svc.Get(ctx, sch.ID)
		require.NoError(t, err)
		assert.Equal(t, 3.5, got.AvgRating)
		assert.Equal(t, 2, got.ReviewCount)
		require.Len(t, got.Reviews, 2)
		assert.Equal(t, newer.ID, got.Reviews[0].ID)
		assert.Equal(t, older.ID, got.Reviews[1].ID)
	})

	t.Run("unknown school", func(t *testing.T) {
		_, err := f.svc.Get(ctx, "nope")
		assert.ErrorIs(t, err, school.ErrNotFound)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	own := f.createSchool(t, "SMA 1", "001")
	other := f.createSchool(t, "SMA 2", "002")
	admin := authz.Principal{ID: "a1", Role: authz.RoleSchoolAdmin, SchoolID: own.ID}

	desc := null.StringFrom("Sekolah unggulan")
	us := school.UpdateSchool{Description: &desc}

	t.Run("admin updates own school", func(t *testing.T) {
		got, err := f.svc.Update(ctx, admin, own.ID, us)
		require.NoError(t, err)
		assert.Equal(t, desc, got.Description)
		assert.Equal(t, 25, got.Completeness())
	})

	t.Run("admin denied on another school", func(t *testing.T) {
		_, err := f.svc.Update(ctx, admin, other.ID, us)
		var denied *authz.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, authz.ReasonTenantMismatch, denied.Reason)
	})

	t.Run("orphaned admin denied everywhere", func(t *testing.T) {
		orphan := authz.Principal{ID: "a2", Role: authz.RoleSchoolAdmin}
		_, err := f.svc.Update(ctx, orphan, own.ID, us)
		var denied *authz.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, authz.ReasonTenantMismatch, denied.Reason)
	})

	t.Run("superadmin updates any school", func(t *testing.T) {
		name := "SMA 2 (Renamed)"
		_, err := f.svc.Update(ctx, authz.Principal{ID: "root", Role: authz.RoleSuperadmin}, other.ID, school.UpdateSchool{Name: &name})
		require.NoError(t, err)
	})
}

func TestServiceNearby(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	near, err := f.repo.CreateSchool(ctx, school.School{
		Name: "SMA Dekat", NPSN: "001",
		Lat: null.Float64From(-6.1755), Lng: null.Float64From(106.8272),
	})
	require.NoError(t, err)
	_, err = f.repo.CreateSchool(ctx, school.School{
		Name: "SMA Jauh", NPSN: "002",
		Lat: null.Float64From(-6.9147), Lng: null.Float64From(107.6098),
	})
	require.NoError(t, err)
	f.createSchool(t, "SMA Tanpa Koordinat", "003")

	t.Run("ranks by distance", func(t *testing.T) {
		got, err := f.svc.Nearby(ctx, school.Coordinates{Lat: -6.1754, Lng: 106.8272}, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, near.ID, got[0].ID)
		assert.Less(t, got[0].DistanceKm, got[1].DistanceKm)
	})

	t.Run("invalid origin", func(t *testing.T) {
		_, err := f.svc.Nearby(ctx, school.Coordinates{Lat: 100, Lng: 0}, 0)
		assert.Error(t, err)
	})
}
