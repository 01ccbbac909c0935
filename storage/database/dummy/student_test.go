package dummydb

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studentrecords/core/student"
)

func newStudent(studentID, email string) student.Student {
	return student.Student{StudentID: studentID, FirstName: "Jo", LastName: "Doe", Email: email, Department: "CS", EnrollmentYear: 2020}
}

func TestStudentRepository(t *testing.T) {
	db, _ := Open()
	repo := NewStudentRepository(db)
	ctx := context.Background()

	jo, err := repo.CreateStudent(ctx, newStudent("A100", "jo@x.com"))
	require.NoError(t, err)
	ann, err := repo.CreateStudent(ctx, newStudent("B200", "ann@x.com"))
	require.NoError(t, err)
	assert.NotEqual(t, jo.ID, ann.ID)

	t.Run("insertion order", func(t *testing.T) {
		students, err := repo.QueryAllStudents(ctx)
		require.NoError(t, err)
		assert.Equal(t, []student.Student{jo, ann}, students)
	})

	t.Run("unique constraint", func(t *testing.T) {
		_, err := repo.CreateStudent(ctx, newStudent("A100", "other@x.com"))
		assert.Equal(t, student.ErrStudentIDExists, err)
		_, err = repo.CreateStudent(ctx, newStudent("C300", "ann@x.com"))
		assert.Equal(t, student.ErrEmailExists, err)

		ann.Email = jo.Email
		_, err = repo.UpdateStudent(ctx, ann)
		assert.Equal(t, student.ErrEmailExists, err)
		ann.Email = "ann@x.com"
	})

	t.Run("CheckUniqueness excludes ids", func(t *testing.T) {
		assert.Equal(t, student.ErrStudentIDExists, repo.CheckUniqueness(ctx, "A100", "new@x.com"))
		assert.NoError(t, repo.CheckUniqueness(ctx, "A100", "jo@x.com", jo.ID))
		assert.NoError(t, repo.CheckUniqueness(ctx, "Z999", "z@x.com"))
	})

	t.Run("update keeps createdAt", func(t *testing.T) {
		upd := jo
		upd.Department = "Math"
		upd.CreatedAt = upd.CreatedAt.AddDate(1, 0, 0)
		got, err := repo.UpdateStudent(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "Math", got.Department)
		assert.Equal(t, jo.CreatedAt, got.CreatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetStudentByID(ctx, "missing")
		assert.Equal(t, student.ErrNotFound, err)
		_, err = repo.UpdateStudent(ctx, newStudent("Q1", "q@x.com"))
		assert.Equal(t, student.ErrNotFound, err)
		assert.Equal(t, student.ErrNotFound, repo.DeleteStudent(ctx, "missing"))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteStudent(ctx, jo.ID))
		_, err := repo.GetStudentByID(ctx, jo.ID)
		assert.Equal(t, student.ErrNotFound, err)

		students, _ := repo.QueryAllStudents(ctx)
		assert.Equal(t, []student.Student{ann}, students)
	})

	t.Run("reset", func(t *testing.T) {
		db.Reset()
		students, _ := repo.QueryAllStudents(ctx)
		assert.Empty(t, students)
	})
}

func TestStudentRepository_concurrentCreates(t *testing.T) {
	db, _ := Open()
	repo := NewStudentRepository(db)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.CreateStudent(context.Background(), newStudent("A100", "jo@x.com")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}
