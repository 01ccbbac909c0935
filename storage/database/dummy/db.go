package dummydb

import (
	"sync"

	"github.com/trezcool/studentrecords/core/student"
)

type (
	DB struct {
		student *studentTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
		order []string // insertion order
	}
)

func Open() (*DB, error) {
	db := &DB{
		student: &studentTable{table: make(map[string]*student.Student)},
	}
	return db, nil
}

// Reset drops every record.
func (db *DB) Reset() {
	db.student.Lock()
	defer db.student.Unlock()
	db.student.table = make(map[string]*student.Student)
	db.student.order = nil
}

func (db *DB) Close() error {
	return nil
}
