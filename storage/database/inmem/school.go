package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"sekolahku/core"
	"sekolahku/core/school"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) query() []school.School {
	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, *sch)
	}
	return schools
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sch.ID = uuid.New().String()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) SchoolExists(_ context.Context, id string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	_, ok := repo.db.schools[id]
	return ok, nil
}

func (repo *schoolRepository) CheckNPSNUniqueness(_ context.Context, npsn string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sch := range repo.query() {
		if sch.NPSN == npsn {
			return school.ErrNPSNExists
		}
	}
	return nil
}

func (repo *schoolRepository) QuerySchools(_ context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := repo.query()
	if !filter.IsEmpty() {
		matched := schools[:0]
		for _, sch := range schools {
			if matchSchool(sch, filter) {
				matched = append(matched, sch)
			}
		}
		schools = matched
	}
	sortSchools(schools, ordering)
	return schools, nil
}

func matchSchool(sch school.School, filter *school.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(sch.Name), search) &&
			!strings.Contains(strings.ToLower(sch.Kelurahan), search) &&
			!strings.Contains(strings.ToLower(sch.Kecamatan), search) {
			return false
		}
	}
	if filter.Bentuk != "" && !strings.EqualFold(sch.Bentuk, filter.Bentuk) {
		return false
	}
	if filter.Status != "" && !strings.EqualFold(sch.Status, filter.Status) {
		return false
	}
	return true
}

func sortSchools(schools []school.School, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	ord := ordering[0]
	sort.Slice(schools, func(i, j int) bool {
		a, b := schools[i], schools[j]
		if !ord.Ascending {
			a, b = b, a
		}
		switch ord.Field {
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Name < b.Name
		}
	})
}

func (repo *schoolRepository) SchoolsWithCoordinates(_ context.Context) ([]school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		if sch.HasCoordinates() {
			schools = append(schools, *sch)
		}
	}
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) DeleteSchoolsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.schools, id)
	}
	return nil
}

func (repo *schoolRepository) CountSchools(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.schools), nil
}
