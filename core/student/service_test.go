package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
	dummydb "github.com/trezcool/studentrecords/storage/database/dummy"
	"github.com/trezcool/studentrecords/tests"
)

func setup(t *testing.T) (*student.Service, student.Repository) {
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewStudentRepository(db)
	validate, _ := student.NewValidator()
	return student.NewService(repo, validate), repo
}

func count(t *testing.T, svc *student.Service) int {
	students, err := svc.QueryAll(context.Background())
	require.NoError(t, err)
	return len(students)
}

func duplicateField(err error) string {
	field, _ := core.DuplicateField(err)
	return field
}

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	jo := testutil.NewStudentData("A100", "Jo", "Doe")
	jo.Email = "jo@x.com"

	s, err := svc.Create(ctx, jo)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.IsActive)
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
	assert.Equal(t, time.UTC, s.CreatedAt.Location())

	got, err := svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	tests := []struct {
		name      string
		ns        student.NewStudent
		wantField string
	}{
		{
			name: "same studentId",
			ns: func() student.NewStudent {
				ns := testutil.NewStudentData("A100", "Al", "Doe")
				ns.Email = "al@x.com"
				return ns
			}(),
			wantField: "studentId",
		},
		{
			name: "same email, different case",
			ns: func() student.NewStudent {
				ns := testutil.NewStudentData("C300", "Al", "Doe")
				ns.Email = "JO@X.COM"
				return ns
			}(),
			wantField: "email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.ns)
			if got := duplicateField(err); got != tt.wantField {
				t.Errorf("Create() error = %v, want duplicate on %q", err, tt.wantField)
			}
			assert.Equal(t, 1, count(t, svc), "store unchanged")
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.Create(ctx, student.NewStudent{})
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs), "got %v", err)
		assert.Len(t, vErrs, 7)
		assert.Equal(t, 1, count(t, svc))
	})
}

// racingRepository lets every pre-check pass, as if another writer got in between check and write.
type racingRepository struct {
	student.Repository
}

func (racingRepository) CheckUniqueness(context.Context, string, string, ...string) error {
	return nil
}

func TestService_storageConstraintIsAuthoritative(t *testing.T) {
	db, _ := dummydb.Open()
	repo := racingRepository{dummydb.NewStudentRepository(db)}
	validate, _ := student.NewValidator()
	svc := student.NewService(repo, validate)
	ctx := context.Background()

	_, err := svc.Create(ctx, testutil.NewStudentData("A100", "Jo", "Doe"))
	require.NoError(t, err)

	dup := testutil.NewStudentData("A100", "Al", "Doe")
	dup.Email = "al@x.com"
	_, err = svc.Create(ctx, dup)
	assert.Equal(t, "studentId", duplicateField(err))

	ann, err := svc.Create(ctx, testutil.NewStudentData("B200", "Ann", "Lee"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, ann.ID, student.UpdateStudent{Email: strPtr("A100@test.cd")})
	assert.Equal(t, "email", duplicateField(err))
}

func TestService_Update(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	jo, err := svc.Create(ctx, testutil.NewStudentData("A100", "Jo", "Doe"))
	require.NoError(t, err)
	ann, err := svc.Create(ctx, testutil.NewStudentData("B200", "Ann", "Lee"))
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", student.UpdateStudent{FirstName: strPtr("Joe")})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("email of another student", func(t *testing.T) {
		_, err := svc.Update(ctx, jo.ID, student.UpdateStudent{Email: strPtr(ann.Email)})
		assert.Equal(t, "email", duplicateField(err))
	})

	t.Run("studentId of another student", func(t *testing.T) {
		_, err := svc.Update(ctx, jo.ID, student.UpdateStudent{StudentID: strPtr(ann.StudentID)})
		assert.Equal(t, "studentId", duplicateField(err))
	})

	t.Run("own unchanged email", func(t *testing.T) {
		s, err := svc.Update(ctx, jo.ID, student.UpdateStudent{Email: strPtr(jo.Email), LastName: strPtr("Dough")})
		require.NoError(t, err)
		assert.Equal(t, jo.Email, s.Email)
		assert.Equal(t, "Dough", s.LastName)
	})

	t.Run("invalid merge", func(t *testing.T) {
		_, err := svc.Update(ctx, jo.ID, student.UpdateStudent{FirstName: strPtr("")})
		var vErrs validator.ValidationErrors
		assert.True(t, errors.As(err, &vErrs), "got %v", err)
	})

	t.Run("timestamps", func(t *testing.T) {
		student.NowFunc = func() time.Time { return time.Now().Add(time.Minute) }
		defer func() { student.NowFunc = time.Now }()

		s, err := svc.Update(ctx, ann.ID, student.UpdateStudent{Department: strPtr("Math")})
		require.NoError(t, err)
		assert.Equal(t, ann.CreatedAt, s.CreatedAt)
		assert.True(t, s.UpdatedAt.After(ann.UpdatedAt))
		assert.Equal(t, ann.ID, s.ID)
	})
}

func TestService_Delete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	jo, err := svc.Create(ctx, testutil.NewStudentData("A100", "Jo", "Doe"))
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "missing")
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))

	msg, err := svc.Delete(ctx, jo.ID)
	require.NoError(t, err)
	assert.Equal(t, student.RemovedMessage, msg)

	_, err = svc.GetByID(ctx, jo.ID)
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	assert.Zero(t, count(t, svc))
}

func TestService_QueryAll_empty(t *testing.T) {
	svc, _ := setup(t)

	students, err := svc.QueryAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

// countingRepository records how many times the store was listed.
type countingRepository struct {
	student.Repository
	queries int
}

func (repo *countingRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	repo.queries++
	return repo.Repository.QueryAllStudents(ctx)
}

func TestService_QueryAll_ordering(t *testing.T) {
	_, base := setup(t)
	repo := &countingRepository{Repository: base}
	validate, _ := student.NewValidator()
	svc := student.NewService(repo, validate)

	jo := testutil.CreateStudent(t, repo, "A100", "Jo", "Doe", "jo@x.com", true)
	ann := testutil.CreateStudent(t, repo, "B200", "Ann", "Lee", "ann@x.com", true)

	students, err := svc.QueryAll(context.Background(), student.Ordering{Field: "firstName", Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []student.Student{ann, jo}, students)
	assert.Equal(t, 1, repo.queries)

	_, err = svc.QueryAll(context.Background(), student.Ordering{Field: "password"})
	assert.Equal(t, student.ErrInvalidOrdering, errors.Cause(err).(*core.ValidationError).Err)
	assert.Equal(t, 1, repo.queries, "invalid orderings never reach the store")
}
