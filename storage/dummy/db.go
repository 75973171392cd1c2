package dummydb

import (
	"sync"

	"github.com/trezcool/activitypoints/core/category"
	"github.com/trezcool/activitypoints/core/user"
)

type (
	// DB is an in-memory stand-in for the document store; tests and local
	// hacking only.
	DB struct {
		students   *userTable
		tutors     *userTable
		categories *categoryTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	categoryTable struct {
		sync.RWMutex
		table map[string]*category.Category
	}
)

func Open() (*DB, error) {
	db := &DB{
		students:   &userTable{table: make(map[string]*user.User)},
		tutors:     &userTable{table: make(map[string]*user.User)},
		categories: &categoryTable{table: make(map[string]*category.Category)},
	}
	return db, nil
}
