package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/studentrecords/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

// query must be called with the table lock held.
func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		students = append(students, *repo.db.table[id])
	}
	return students
}

// checkUniqueness must be called with the table lock held.
func (repo *studentRepository) checkUniqueness(studentID, email string, excludedIDs ...string) error {
	for _, s := range repo.db.table {
		if isExcluded(s.ID, excludedIDs) {
			continue
		}
		if studentID != "" && s.StudentID == studentID {
			return student.ErrStudentIDExists
		}
		if email != "" && s.Email == email {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, studentID, email string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkUniqueness(studentID, email, excludedIDs...)
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// unique constraint, checked under the write lock
	if err := repo.checkUniqueness(s.StudentID, s.Email); err != nil {
		return student.Student{}, err
	}

	s.ID = uuid.NewString()
	repo.db.table[s.ID] = &s
	repo.db.order = append(repo.db.order, s.ID)
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := repo.checkUniqueness(s.StudentID, s.Email, s.ID); err != nil {
		return student.Student{}, err
	}

	s.CreatedAt = orig.CreatedAt // immutable
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	for i, oid := range repo.db.order {
		if oid == id {
			repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
			break
		}
	}
	return nil
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, excl := range excludedIDs {
		if excl == id {
			return true
		}
	}
	return false
}
