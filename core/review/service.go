package review

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"sekolahku/core/authz"
)

var (
	// errors
	ErrNotFound       = errors.New("review not found")
	ErrSchoolNotFound = errors.New("school not found")
	ErrNotAuthor      = errors.New("only the author may modify this review")
)

type Repository interface {
	CreateReview(ctx context.Context, rev Review) (Review, error)
	GetReviewByID(ctx context.Context, id string) (Review, error)
	// QueryReviews applies AND operation on available Filter fields and orders
	// by creation time descending, review ID descending on ties.
	QueryReviews(ctx context.Context, filter Filter) ([]Review, error)
	// RecentReviews is QueryReviews capped at `limit` (uncapped when <= 0),
	// with the denormalized display names populated.
	RecentReviews(ctx context.Context, filter Filter, limit int) ([]Review, error)
	CountReviews(ctx context.Context, filter Filter) (int, error)
	UpdateReview(ctx context.Context, rev Review) (Review, error)
	DeleteReviewsByID(ctx context.Context, ids ...string) error
}

// SchoolChecker is the slice of the school repository the review service
// needs; declared here to keep the dependency one-way.
type SchoolChecker interface {
	SchoolExists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo    Repository
	schools SchoolChecker
}

func NewService(repo Repository, schools SchoolChecker) *Service {
	return &Service{repo: repo, schools: schools}
}

// Create posts a review on behalf of principal. A user may review the same
// school more than once; each submission stands on its own.
func (svc *Service) Create(ctx context.Context, principal authz.Principal, nr NewReview) (Review, error) {
	if err := authz.Evaluate(principal, authz.ActionReviewCreate, authz.ReviewRef("")).Err(); err != nil {
		return Review{}, err
	}

	exists, err := svc.schools.SchoolExists(ctx, nr.SchoolID)
	if err != nil {
		return Review{}, errors.Wrap(err, "checking school")
	}
	if !exists {
		return Review{}, ErrSchoolNotFound
	}

	now := time.Now().UTC()
	rev := Review{
		SchoolID:     nr.SchoolID,
		UserID:       principal.ID,
		Kenyamanan:   nr.Kenyamanan,
		Pembelajaran: nr.Pembelajaran,
		Fasilitas:    nr.Fasilitas,
		Kepemimpinan: nr.Kepemimpinan,
		Komentar:     nr.Komentar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateReview(ctx, rev)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Review, error) {
	return svc.repo.GetReviewByID(ctx, id)
}

func (svc *Service) ListBySchool(ctx context.Context, schoolID string) ([]Review, error) {
	return svc.repo.QueryReviews(ctx, Filter{SchoolID: schoolID})
}

func (svc *Service) ListByAuthor(ctx context.Context, userID string) ([]Review, error) {
	return svc.repo.QueryReviews(ctx, Filter{UserID: userID})
}

// Update modifies a review's scores and comment. Only the author may update,
// regardless of role.
func (svc *Service) Update(ctx context.Context, principal authz.Principal, id string, ur UpdateReview) (Review, error) {
	if err := authz.Evaluate(principal, authz.ActionReviewUpdate, authz.ReviewRef(id)).Err(); err != nil {
		return Review{}, err
	}

	rev, err := svc.repo.GetReviewByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if rev.UserID != principal.ID {
		return Review{}, ErrNotAuthor
	}

	rev.Kenyamanan = ur.Kenyamanan
	rev.Pembelajaran = ur.Pembelajaran
	rev.Fasilitas = ur.Fasilitas
	rev.Kepemimpinan = ur.Kepemimpinan
	rev.Komentar = ur.Komentar
	rev.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateReview(ctx, rev)
}

// Delete removes a review. The author may delete their own; a superadmin may
// delete any review as a moderation action.
func (svc *Service) Delete(ctx context.Context, principal authz.Principal, id string) error {
	if err := authz.Evaluate(principal, authz.ActionReviewDelete, authz.ReviewRef(id)).Err(); err != nil {
		return err
	}

	rev, err := svc.repo.GetReviewByID(ctx, id)
	if err != nil {
		return err
	}
	if principal.Role != authz.RoleSuperadmin && rev.UserID != principal.ID {
		return ErrNotAuthor
	}
	return svc.repo.DeleteReviewsByID(ctx, id)
}
