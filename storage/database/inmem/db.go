// Package inmemdb is a process-local store mirroring the relational layout.
// It backs the HTTP test suites and local experimentation; production runs on
// the sqlx repositories.
package inmemdb

import (
	"sync"

	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
)

type DB struct {
	mutex sync.RWMutex

	superAdmins    map[string]*principal.SuperAdmin
	administrators map[string]*principal.Administrator
	schools        map[string]*school.School
	teachers       map[string]*school.Teacher
	classes        map[string]*school.Class
	students       map[string]*school.Student
	attendance     map[string]*attendance.Attendance
}

func NewDB() *DB {
	return &DB{
		superAdmins:    make(map[string]*principal.SuperAdmin),
		administrators: make(map[string]*principal.Administrator),
		schools:        make(map[string]*school.School),
		teachers:       make(map[string]*school.Teacher),
		classes:        make(map[string]*school.Class),
		students:       make(map[string]*school.Student),
		attendance:     make(map[string]*attendance.Attendance),
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
