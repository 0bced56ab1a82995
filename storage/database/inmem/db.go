// Package inmemdb provides map-backed repository implementations used by
// tests and local development without a database server.
package inmemdb

import (
	"sync"

	"sekolahku/core/review"
	"sekolahku/core/school"
	"sekolahku/core/user"
)

type DB struct {
	mutex   sync.RWMutex
	users   map[string]*user.User
	schools map[string]*school.School
	reviews map[string]*review.Review
}

func NewDB() *DB {
	return &DB{
		users:   make(map[string]*user.User),
		schools: make(map[string]*school.School),
		reviews: make(map[string]*review.Review),
	}
}
