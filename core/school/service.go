package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"sekolahku/core"
	"sekolahku/core/authz"
	"sekolahku/core/review"
)

var (
	// errors
	ErrNotFound   = errors.New("school not found")
	ErrNPSNExists = errors.New("a school with this NPSN already exists")
)

type Repository interface {
	CreateSchool(ctx context.Context, sch School) (School, error)
	GetSchoolByID(ctx context.Context, id string) (School, error)
	SchoolExists(ctx context.Context, id string) (bool, error)
	CheckNPSNUniqueness(ctx context.Context, npsn string) error
	// QuerySchools does a case-insensitive Search match on one of School.Name,
	// School.Kelurahan or School.Kecamatan; empty filter fields are ignored.
	QuerySchools(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]School, error)
	// SchoolsWithCoordinates returns only geocoded schools, for proximity queries.
	SchoolsWithCoordinates(ctx context.Context) ([]School, error)
	UpdateSchool(ctx context.Context, sch School) (School, error)
	DeleteSchoolsByID(ctx context.Context, ids ...string) error
	CountSchools(ctx context.Context) (int, error)
}

// QueryFilter narrows school list queries; zero-value fields are ignored.
type QueryFilter struct {
	Search string `json:"search" query:"search"`
	Bentuk string `json:"bentuk" query:"bentuk"`
	Status string `json:"status" query:"status"`
}

func (f *QueryFilter) IsEmpty() bool {
	return f == nil || *f == QueryFilter{}
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Bentuk = core.CleanString(f.Bentuk)
	f.Status = core.CleanString(f.Status)
}

// Detail is a School with its full review thread for the detail page.
type Detail struct {
	School
	AvgRating    float64         `json:"avg_rating"`
	ReviewCount  int             `json:"review_count"`
	Completeness int             `json:"completeness"`
	Reviews      []review.Review `json:"reviews"`
}

type Service struct {
	repo    Repository
	revRepo review.Repository
}

func NewService(repo Repository, revRepo review.Repository) *Service {
	return &Service{repo: repo, revRepo: revRepo}
}

// Create registers a new school; superadmin only.
func (svc *Service) Create(ctx context.Context, principal authz.Principal, ns NewSchool) (School, error) {
	if err := authz.Evaluate(principal, authz.ActionSchoolCreate, authz.SchoolRef("")).Err(); err != nil {
		return School{}, err
	}
	if err := svc.repo.CheckNPSNUniqueness(ctx, ns.NPSN); err != nil {
		if errors.Cause(err) == ErrNPSNExists {
			return School{}, core.NewValidationError(err, core.FieldError{Field: "npsn", Error: err.Error()})
		}
		return School{}, err
	}

	now := time.Now().UTC()
	sch := School{
		Name:         ns.Name,
		NPSN:         ns.NPSN,
		Bentuk:       ns.Bentuk,
		Status:       ns.Status,
		Alamat:       ns.Alamat,
		Kelurahan:    ns.Kelurahan,
		Kecamatan:    ns.Kecamatan,
		Telp:         ns.Telp,
		Lat:          ns.Lat,
		Lng:          ns.Lng,
		Description:  ns.Description,
		Programs:     ns.Programs,
		Achievements: ns.Achievements,
		Website:      ns.Website,
		Contact:      ns.Contact,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateSchool(ctx, sch)
}

// List returns schools matching the filter, each with its review aggregates.
// The listing average is displayed at 1 decimal place.
func (svc *Service) List(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Summary, error) {
	if filter != nil {
		filter.Clean()
	}
	schools, err := svc.repo.QuerySchools(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}

	reviews, err := svc.revRepo.QueryReviews(ctx, review.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "loading reviews")
	}
	bySchool := make(map[string][]review.Review, len(schools))
	for _, rev := range reviews {
		bySchool[rev.SchoolID] = append(bySchool[rev.SchoolID], rev)
	}

	summaries := make([]Summary, len(schools))
	for i, sch := range schools {
		revs := bySchool[sch.ID]
		summaries[i] = Summary{
			School:      sch,
			AvgRating:   core.Round(review.AggregateAverage(revs), 1),
			ReviewCount: len(revs),
		}
	}
	return summaries, nil
}

// Get returns a school's detail view: profile, completeness, aggregates and
// the full review thread, newest first.
func (svc *Service) Get(ctx context.Context, id string) (Detail, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	revs, err := svc.revRepo.RecentReviews(ctx, review.Filter{SchoolID: id}, 0 /* no limit */)
	if err != nil {
		return Detail{}, errors.Wrap(err, "loading reviews")
	}
	return Detail{
		School:       sch,
		AvgRating:    core.Round(review.AggregateAverage(revs), 2),
		ReviewCount:  len(revs),
		Completeness: sch.Completeness(),
		Reviews:      revs,
	}, nil
}

// Nearby ranks geocoded schools by distance from origin.
func (svc *Service) Nearby(ctx context.Context, origin Coordinates, limit int) ([]Ranked, error) {
	candidates, err := svc.repo.SchoolsWithCoordinates(ctx)
	if err != nil {
		return nil, err
	}
	return Nearest(origin, candidates, limit)
}

// Update applies profile changes; the policy layer scopes school admins to
// their own school.
func (svc *Service) Update(ctx context.Context, principal authz.Principal, id string, us UpdateSchool) (School, error) {
	if err := authz.Evaluate(principal, authz.ActionSchoolUpdate, authz.SchoolRef(id)).Err(); err != nil {
		return School{}, err
	}
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	sch = us.apply(sch)
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}

// Delete removes schools; superadmin only.
func (svc *Service) Delete(ctx context.Context, principal authz.Principal, ids ...string) error {
	for _, id := range ids {
		if err := authz.Evaluate(principal, authz.ActionSchoolDelete, authz.SchoolRef(id)).Err(); err != nil {
			return err
		}
	}
	return svc.repo.DeleteSchoolsByID(ctx, ids...)
}
