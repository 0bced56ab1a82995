package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"sekolahku/core/review"
)

type reviewRepository struct {
	db *DB
}

func NewReviewRepository(db *DB) review.Repository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) query(filter review.Filter) []review.Review {
	reviews := make([]review.Review, 0, len(repo.db.reviews))
	for _, rev := range repo.db.reviews {
		if filter.SchoolID != "" && rev.SchoolID != filter.SchoolID {
			continue
		}
		if filter.UserID != "" && rev.UserID != filter.UserID {
			continue
		}
		reviews = append(reviews, *rev)
	}
	// newest first, ID breaks creation-time ties
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
	return reviews
}

func (repo *reviewRepository) CreateReview(_ context.Context, rev review.Review) (review.Review, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rev.ID = uuid.New().String()
	repo.db.reviews[rev.ID] = &rev
	return rev, nil
}

func (repo *reviewRepository) GetReviewByID(_ context.Context, id string) (review.Review, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rev, ok := repo.db.reviews[id]; ok {
		return *rev, nil
	}
	return review.Review{}, review.ErrNotFound
}

func (repo *reviewRepository) QueryReviews(_ context.Context, filter review.Filter) ([]review.Review, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(filter), nil
}

func (repo *reviewRepository) RecentReviews(_ context.Context, filter review.Filter, limit int) ([]review.Review, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reviews := repo.query(filter)
	if limit > 0 && len(reviews) > limit {
		reviews = reviews[:limit]
	}
	for i := range reviews {
		if usr, ok := repo.db.users[reviews[i].UserID]; ok {
			reviews[i].UserName = usr.Name
		}
		if sch, ok := repo.db.schools[reviews[i].SchoolID]; ok {
			reviews[i].SchoolName = sch.Name
		}
	}
	return reviews, nil
}

func (repo *reviewRepository) CountReviews(_ context.Context, filter review.Filter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *reviewRepository) UpdateReview(_ context.Context, rev review.Review) (review.Review, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.reviews[rev.ID]; !ok {
		return review.Review{}, review.ErrNotFound
	}
	repo.db.reviews[rev.ID] = &rev
	return rev, nil
}

func (repo *reviewRepository) DeleteReviewsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.reviews, id)
	}
	return nil
}
