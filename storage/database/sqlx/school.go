package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"sekolahku/core"
	"sekolahku/core/school"
)

type schoolRow struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	NPSN         string       `db:"npsn"`
	Bentuk       string       `db:"bentuk"`
	Status       string       `db:"status"`
	Alamat       string       `db:"alamat"`
	Kelurahan    string       `db:"kelurahan"`
	Kecamatan    string       `db:"kecamatan"`
	Telp         string       `db:"telp"`
	Lat          null.Float64 `db:"lat"`
	Lng          null.Float64 `db:"lng"`
	Description  null.String  `db:"description"`
	Programs     null.String  `db:"programs"`
	Achievements null.String  `db:"achievements"`
	Website      null.String  `db:"website"`
	Contact      null.String  `db:"contact"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r schoolRow) school() school.School {
	return school.School{
		ID:           r.ID,
		Name:         r.Name,
		NPSN:         r.NPSN,
		Bentuk:       r.Bentuk,
		Status:       r.Status,
		Alamat:       r.Alamat,
		Kelurahan:    r.Kelurahan,
		Kecamatan:    r.Kecamatan,
		Telp:         r.Telp,
		Lat:          r.Lat,
		Lng:          r.Lng,
		Description:  r.Description,
		Programs:     r.Programs,
		Achievements: r.Achievements,
		Website:      r.Website,
		Contact:      r.Contact,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newSchoolRow(sch school.School) schoolRow {
	return schoolRow{
		ID:           sch.ID,
		Name:         sch.Name,
		NPSN:         sch.NPSN,
		Bentuk:       sch.Bentuk,
		Status:       sch.Status,
		Alamat:       sch.Alamat,
		Kelurahan:    sch.Kelurahan,
		Kecamatan:    sch.Kecamatan,
		Telp:         sch.Telp,
		Lat:          sch.Lat,
		Lng:          sch.Lng,
		Description:  sch.Description,
		Programs:     sch.Programs,
		Achievements: sch.Achievements,
		Website:      sch.Website,
		Contact:      sch.Contact,
		CreatedAt:    sch.CreatedAt.UTC(),
		UpdatedAt:    sch.UpdatedAt.UTC(),
	}
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to school.ErrNotFound
func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	row := newSchoolRow(sch)
	const q = `
		INSERT INTO school (id, name, npsn, bentuk, status, alamat, kelurahan, kecamatan, telp,
		                    lat, lng, description, programs, achievements, website, contact,
		                    created_at, updated_at)
		VALUES (:id, :name, :npsn, :bentuk, :status, :alamat, :kelurahan, :kecamatan, :telp,
		        :lat, :lng, :description, :programs, :achievements, :website, :contact,
		        :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return row.school(), nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.School{}, school.ErrNotFound
	}
	var row schoolRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM school WHERE id = $1`, id); err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "finding school by ID")
	}
	return row.school(), nil
}

func (repo schoolRepository) SchoolExists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM school WHERE id = $1)`, id); err != nil {
		return false, errors.Wrap(err, "checking school")
	}
	return exists, nil
}

func (repo schoolRepository) CheckNPSNUniqueness(ctx context.Context, npsn string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM school WHERE npsn = $1)`, npsn); err != nil {
		return errors.Wrap(err, "checking NPSN uniqueness")
	}
	if exists {
		return school.ErrNPSNExists
	}
	return nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]school.School, error) {
	q := `SELECT * FROM school`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if !filter.IsEmpty() {
		if filter.Search != "" {
			ph := arg("%" + filter.Search + "%")
			conds = append(conds, "(name ILIKE "+ph+" OR kelurahan ILIKE "+ph+" OR kecamatan ILIKE "+ph+")")
		}
		if filter.Bentuk != "" {
			conds = append(conds, "UPPER(bentuk) = UPPER("+arg(filter.Bentuk)+")")
		}
		if filter.Status != "" {
			conds = append(conds, "UPPER(status) = UPPER("+arg(filter.Status)+")")
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderClause(ordering, "name ASC")

	var rows []schoolRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.school())
	}
	return schools, nil
}

func (repo schoolRepository) SchoolsWithCoordinates(ctx context.Context) ([]school.School, error) {
	var rows []schoolRow
	const q = `SELECT * FROM school WHERE lat IS NOT NULL AND lng IS NOT NULL`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying geocoded schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.school())
	}
	return schools, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	row := newSchoolRow(sch)
	const q = `
		UPDATE school
		SET name = :name, alamat = :alamat, kelurahan = :kelurahan, kecamatan = :kecamatan, telp = :telp,
		    lat = :lat, lng = :lng, description = :description, programs = :programs,
		    achievements = :achievements, website = :website, contact = :contact, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return row.school(), nil
}

func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM school WHERE id = ANY($1)`, pqStringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting schools")
	}
	return nil
}

func (repo schoolRepository) CountSchools(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM school`); err != nil {
		return 0, errors.Wrap(err, "counting schools")
	}
	return cnt, nil
}
