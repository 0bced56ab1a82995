package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"sekolahku/core/review"
)

type reviewRow struct {
	ID           string    `db:"id"`
	SchoolID     string    `db:"school_id"`
	UserID       string    `db:"user_id"`
	Kenyamanan   int       `db:"kenyamanan"`
	Pembelajaran int       `db:"pembelajaran"`
	Fasilitas    int       `db:"fasilitas"`
	Kepemimpinan int       `db:"kepemimpinan"`
	Komentar     string    `db:"komentar"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	// joined display names; only selected by RecentReviews
	UserName   null.String `db:"user_name"`
	SchoolName null.String `db:"school_name"`
}

func (r reviewRow) review() review.Review {
	return review.Review{
		ID:           r.ID,
		SchoolID:     r.SchoolID,
		UserID:       r.UserID,
		Kenyamanan:   r.Kenyamanan,
		Pembelajaran: r.Pembelajaran,
		Fasilitas:    r.Fasilitas,
		Kepemimpinan: r.Kepemimpinan,
		Komentar:     r.Komentar,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		UserName:     r.UserName.String,
		SchoolName:   r.SchoolName.String,
	}
}

func newReviewRow(rev review.Review) reviewRow {
	return reviewRow{
		ID:           rev.ID,
		SchoolID:     rev.SchoolID,
		UserID:       rev.UserID,
		Kenyamanan:   rev.Kenyamanan,
		Pembelajaran: rev.Pembelajaran,
		Fasilitas:    rev.Fasilitas,
		Kepemimpinan: rev.Kepemimpinan,
		Komentar:     rev.Komentar,
		CreatedAt:    rev.CreatedAt.UTC(),
		UpdatedAt:    rev.UpdatedAt.UTC(),
	}
}

type reviewRepository struct {
	db *sqlx.DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *sqlx.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to review.ErrNotFound
func (repo reviewRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return review.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// filterClause renders the WHERE conditions shared by the review queries.
func (repo reviewRepository) filterClause(filter review.Filter, prefix string) (string, []interface{}) {
	var clause string
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		clause += " AND " + prefix + "school_id = $" + itoa(len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clause += " AND " + prefix + "user_id = $" + itoa(len(args))
	}
	return clause, args
}

func (repo reviewRepository) CreateReview(ctx context.Context, rev review.Review) (review.Review, error) {
	rev.ID = uuid.New().String()
	row := newReviewRow(rev)
	const q = `
		INSERT INTO review (id, school_id, user_id, kenyamanan, pembelajaran, fasilitas, kepemimpinan,
		                    komentar, created_at, updated_at)
		VALUES (:id, :school_id, :user_id, :kenyamanan, :pembelajaran, :fasilitas, :kepemimpinan,
		        :komentar, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return review.Review{}, errors.Wrap(err, "inserting review")
	}
	return row.review(), nil
}

func (repo reviewRepository) GetReviewByID(ctx context.Context, id string) (review.Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return review.Review{}, review.ErrNotFound
	}
	var row reviewRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM review WHERE id = $1`, id); err != nil {
		return review.Review{}, repo.trapNoRowsErr(err, "finding review by ID")
	}
	return row.review(), nil
}

func (repo reviewRepository) QueryReviews(ctx context.Context, filter review.Filter) ([]review.Review, error) {
	clause, args := repo.filterClause(filter, "")
	q := `SELECT * FROM review WHERE true` + clause + ` ORDER BY created_at DESC, id DESC`

	var rows []reviewRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}
	reviews := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.review())
	}
	return reviews, nil
}

func (repo reviewRepository) RecentReviews(ctx context.Context, filter review.Filter, limit int) ([]review.Review, error) {
	clause, args := repo.filterClause(filter, "r.")
	q := `
		SELECT r.*, u.name AS user_name, s.name AS school_name
		FROM review r
		JOIN "user" u ON u.id = r.user_id
		JOIN school s ON s.id = r.school_id
		WHERE true` + clause + `
		ORDER BY r.created_at DESC, r.id DESC`
	if limit > 0 {
		args = append(args, limit)
		q += " LIMIT $" + itoa(len(args))
	}

	var rows []reviewRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying recent reviews")
	}
	reviews := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.review())
	}
	return reviews, nil
}

func (repo reviewRepository) CountReviews(ctx context.Context, filter review.Filter) (int, error) {
	clause, args := repo.filterClause(filter, "")
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM review WHERE true`+clause, args...); err != nil {
		return 0, errors.Wrap(err, "counting reviews")
	}
	return cnt, nil
}

func (repo reviewRepository) UpdateReview(ctx context.Context, rev review.Review) (review.Review, error) {
	row := newReviewRow(rev)
	const q = `
		UPDATE review
		SET kenyamanan = :kenyamanan, pembelajaran = :pembelajaran, fasilitas = :fasilitas,
		    kepemimpinan = :kepemimpinan, komentar = :komentar, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return review.Review{}, errors.Wrap(err, "updating review")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return review.Review{}, review.ErrNotFound
	}
	return row.review(), nil
}

func (repo reviewRepository) DeleteReviewsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM review WHERE id = ANY($1)`, pqStringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting reviews")
	}
	return nil
}
