// Package stats assembles the role-shaped dashboard aggregates.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"sekolahku/core"
	"sekolahku/core/authz"
	"sekolahku/core/review"
	"sekolahku/core/school"
	"sekolahku/core/user"
)

// ErrOrphanedAdmin marks a school admin whose assigned school is missing or
// was deleted; their dashboard cannot be computed.
var ErrOrphanedAdmin = errors.New("school admin has no existing assigned school")

// DataUnavailableError wraps a data-layer failure during aggregation. A failed
// dashboard is reported as a whole rather than padded with zeroes, so a zero
// count always means "zero", never "unknown".
type DataUnavailableError struct {
	Err error
}

func (e *DataUnavailableError) Error() string { return "dashboard data unavailable: " + e.Err.Error() }

// Cause implements the causer interface.
func (e *DataUnavailableError) Cause() error { return e.Err }

func dataUnavailable(err error) error { return &DataUnavailableError{Err: err} }

const (
	signupHistogramMonths = 6
	recentReviewsLimit    = 5
)

// Dashboard is a tagged union: exactly one of the role payloads is set,
// matching Role.
type Dashboard struct {
	Role        authz.Role        `json:"role"`
	Superadmin  *SuperadminStats  `json:"superadmin,omitempty"`
	SchoolAdmin *SchoolAdminStats `json:"school_admin,omitempty"`
	User        *UserStats        `json:"user,omitempty"`
}

// SuperadminStats is the platform-wide view.
type SuperadminStats struct {
	UserCount     int               `json:"user_count"`
	SchoolCount   int               `json:"school_count"`
	ReviewCount   int               `json:"review_count"`
	RecentReviews []review.Review   `json:"recent_reviews"`
	UserSignups   []user.MonthCount `json:"user_signups"`
}

// SchoolAdminStats covers only the admin's assigned school.
type SchoolAdminStats struct {
	SchoolID      string          `json:"school_id"`
	SchoolName    string          `json:"school_name"`
	ReviewCount   int             `json:"review_count"`
	AverageRating float64         `json:"average_rating"`
	Completeness  int             `json:"completeness"`
	RecentReviews []review.Review `json:"recent_reviews"`
}

// UserStats covers the user's own activity.
type UserStats struct {
	ReviewCount   int             `json:"review_count"`
	AverageRating float64         `json:"average_rating"`
	RecentReviews []review.Review `json:"recent_reviews"`
}

type Service struct {
	usrRepo user.Repository
	schRepo school.Repository
	revRepo review.Repository
	nowFunc func() time.Time // for tests
}

func NewService(usrRepo user.Repository, schRepo school.Repository, revRepo review.Repository) *Service {
	return &Service{usrRepo: usrRepo, schRepo: schRepo, revRepo: revRepo, nowFunc: time.Now}
}

// BuildDashboard computes the dashboard scoped to the principal's role.
func (svc *Service) BuildDashboard(ctx context.Context, principal authz.Principal) (*Dashboard, error) {
	if err := authz.Evaluate(principal, authz.ActionStatsRead, authz.PlatformRef()).Err(); err != nil {
		return nil, err
	}

	switch principal.Role {
	case authz.RoleSuperadmin:
		return svc.superadminDashboard(ctx)
	case authz.RoleSchoolAdmin:
		return svc.schoolAdminDashboard(ctx, principal)
	default:
		return svc.userDashboard(ctx, principal)
	}
}

func (svc *Service) superadminDashboard(ctx context.Context) (*Dashboard, error) {
	st := &SuperadminStats{}
	since := svc.histogramStart()

	var (
		signups map[string]int
		wg      sync.WaitGroup
		errs    = make([]error, 5)
	)
	// independent queries, fetched concurrently
	wg.Add(5)
	go func() { defer wg.Done(); st.UserCount, errs[0] = svc.usrRepo.CountUsers(ctx) }()
	go func() { defer wg.Done(); st.SchoolCount, errs[1] = svc.schRepo.CountSchools(ctx) }()
	go func() { defer wg.Done(); st.ReviewCount, errs[2] = svc.revRepo.CountReviews(ctx, review.Filter{}) }()
	go func() {
		defer wg.Done()
		st.RecentReviews, errs[3] = svc.revRepo.RecentReviews(ctx, review.Filter{}, recentReviewsLimit)
	}()
	go func() { defer wg.Done(); signups, errs[4] = svc.usrRepo.MonthlySignupCounts(ctx, since) }()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, dataUnavailable(err)
		}
	}

	st.UserSignups = svc.fillHistogram(signups)
	return &Dashboard{Role: authz.RoleSuperadmin, Superadmin: st}, nil
}

func (svc *Service) schoolAdminDashboard(ctx context.Context, principal authz.Principal) (*Dashboard, error) {
	if principal.SchoolID == "" {
		return nil, ErrOrphanedAdmin
	}
	sch, err := svc.schRepo.GetSchoolByID(ctx, principal.SchoolID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return nil, ErrOrphanedAdmin
		}
		return nil, dataUnavailable(err)
	}

	filter := review.Filter{SchoolID: sch.ID}
	revs, err := svc.revRepo.QueryReviews(ctx, filter)
	if err != nil {
		return nil, dataUnavailable(err)
	}
	recent, err := svc.revRepo.RecentReviews(ctx, filter, recentReviewsLimit)
	if err != nil {
		return nil, dataUnavailable(err)
	}

	return &Dashboard{
		Role: authz.RoleSchoolAdmin,
		SchoolAdmin: &SchoolAdminStats{
			SchoolID:      sch.ID,
			SchoolName:    sch.Name,
			ReviewCount:   len(revs),
			AverageRating: core.Round(review.AggregateAverage(revs), 2),
			Completeness:  sch.Completeness(),
			RecentReviews: recent,
		},
	}, nil
}

func (svc *Service) userDashboard(ctx context.Context, principal authz.Principal) (*Dashboard, error) {
	filter := review.Filter{UserID: principal.ID}
	revs, err := svc.revRepo.QueryReviews(ctx, filter)
	if err != nil {
		return nil, dataUnavailable(err)
	}
	recent, err := svc.revRepo.RecentReviews(ctx, filter, recentReviewsLimit)
	if err != nil {
		return nil, dataUnavailable(err)
	}

	return &Dashboard{
		Role: authz.RoleUser,
		User: &UserStats{
			ReviewCount:   len(revs),
			AverageRating: core.Round(review.AggregateAverage(revs), 2),
			RecentReviews: recent,
		},
	}, nil
}

// histogramStart is the first day of the month 5 months back; together with
// the current month that makes a trailing window of signupHistogramMonths.
func (svc *Service) histogramStart() time.Time {
	now := svc.nowFunc().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(signupHistogramMonths - 1), 0)
}

// fillHistogram expands the sparse month counts into exactly
// signupHistogramMonths chronological entries, zero-filling quiet months.
func (svc *Service) fillHistogram(counts map[string]int) []user.MonthCount {
	start := svc.histogramStart()
	hist := make([]user.MonthCount, 0, signupHistogramMonths)
	for i := 0; i < signupHistogramMonths; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		hist = append(hist, user.MonthCount{Month: month, Count: counts[month]})
	}
	return hist
}
