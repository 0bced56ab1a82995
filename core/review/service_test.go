package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekolahku/core/authz"
	"sekolahku/core/review"
	"sekolahku/core/school"
	inmemdb "sekolahku/storage/database/inmem"
)

func setup(t *testing.T) (*review.Service, school.Repository) {
	t.Helper()
	db := inmemdb.NewDB()
	schRepo := inmemdb.NewSchoolRepository(db)
	return review.NewService(inmemdb.NewReviewRepository(db), schRepo), schRepo
}

func createSchool(t *testing.T, repo school.Repository, name string) school.School {
	t.Helper()
	sch, err := repo.CreateSchool(context.Background(), school.School{Name: name, NPSN: "np-" + name})
	require.NoError(t, err)
	return sch
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc, schRepo := setup(t)
	sch := createSchool(t, schRepo, "SMA 1")

	author := authz.Principal{ID: "u1", Role: authz.RoleUser}
	nr := review.NewReview{SchoolID: sch.ID, Kenyamanan: 4, Pembelajaran: 5, Fasilitas: 3, Kepemimpinan: 4, Komentar: "mantap"}

	t.Run("ok", func(t *testing.T) {
		rev, err := svc.Create(ctx, author, nr)
		require.NoError(t, err)
		assert.NotEmpty(t, rev.ID)
		assert.Equal(t, "u1", rev.UserID)
		assert.Equal(t, sch.ID, rev.SchoolID)
	})

	t.Run("same user may review the same school again", func(t *testing.T) {
		first, err := svc.Create(ctx, author, nr)
		require.NoError(t, err)
		second, err := svc.Create(ctx, author, nr)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("unknown school", func(t *testing.T) {
		bad := nr
		bad.SchoolID = "nope"
		_, err := svc.Create(ctx, author, bad)
		assert.ErrorIs(t, err, review.ErrSchoolNotFound)
	})

	t.Run("unknown role denied", func(t *testing.T) {
		_, err := svc.Create(ctx, authz.Principal{ID: "x", Role: "GHOST"}, nr)
		var denied *authz.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, authz.ReasonUnknownRole, denied.Reason)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc, schRepo := setup(t)
	sch := createSchool(t, schRepo, "SMA 1")

	author := authz.Principal{ID: "u1", Role: authz.RoleUser}
	rev, err := svc.Create(ctx, author, review.NewReview{
		SchoolID: sch.ID, Kenyamanan: 3, Pembelajaran: 3, Fasilitas: 3, Kepemimpinan: 3,
	})
	require.NoError(t, err)

	ur := review.UpdateReview{Kenyamanan: 5, Pembelajaran: 4, Fasilitas: 4, Kepemimpinan: 5, Komentar: "makin bagus"}

	t.Run("author may update", func(t *testing.T) {
		got, err := svc.Update(ctx, author, rev.ID, ur)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Kenyamanan)
		assert.Equal(t, "makin bagus", got.Komentar)
	})

	t.Run("other user may not", func(t *testing.T) {
		_, err := svc.Update(ctx, authz.Principal{ID: "u2", Role: authz.RoleUser}, rev.ID, ur)
		assert.ErrorIs(t, err, review.ErrNotAuthor)
	})

	t.Run("not even a superadmin", func(t *testing.T) {
		_, err := svc.Update(ctx, authz.Principal{ID: "root", Role: authz.RoleSuperadmin}, rev.ID, ur)
		assert.ErrorIs(t, err, review.ErrNotAuthor)
	})

	t.Run("unknown review", func(t *testing.T) {
		_, err := svc.Update(ctx, author, "nope", ur)
		assert.ErrorIs(t, err, review.ErrNotFound)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, schRepo := setup(t)
	sch := createSchool(t, schRepo, "SMA 1")

	author := authz.Principal{ID: "u1", Role: authz.RoleUser}
	post := func(t *testing.T) review.Review {
		rev, err := svc.Create(ctx, author, review.NewReview{
			SchoolID: sch.ID, Kenyamanan: 2, Pembelajaran: 2, Fasilitas: 2, Kepemimpinan: 2,
		})
		require.NoError(t, err)
		return rev
	}

	t.Run("author may delete own", func(t *testing.T) {
		rev := post(t)
		require.NoError(t, svc.Delete(ctx, author, rev.ID))
		_, err := svc.GetByID(ctx, rev.ID)
		assert.ErrorIs(t, err, review.ErrNotFound)
	})

	t.Run("superadmin moderates any review", func(t *testing.T) {
		rev := post(t)
		require.NoError(t, svc.Delete(ctx, authz.Principal{ID: "root", Role: authz.RoleSuperadmin}, rev.ID))
		_, err := svc.GetByID(ctx, rev.ID)
		assert.ErrorIs(t, err, review.ErrNotFound)
	})

	t.Run("other user may not", func(t *testing.T) {
		rev := post(t)
		err := svc.Delete(ctx, authz.Principal{ID: "u2", Role: authz.RoleUser}, rev.ID)
		assert.ErrorIs(t, err, review.ErrNotAuthor)
	})
}
