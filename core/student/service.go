package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrStudentIDExists = errors.New("student ID already in use")
	ErrEmailExists     = errors.New("email already in use")
)

// RemovedMessage confirms a deletion.
const RemovedMessage = "Student removed"

type (
	// Repository is implemented by the storage backends.
	// Missing and malformed ids both yield ErrNotFound.
	// Writes rejected by a unique constraint yield ErrStudentIDExists or ErrEmailExists.
	Repository interface {
		CheckUniqueness(ctx context.Context, studentID, email string, excludedIDs ...string) error
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	if repo == nil || validate == nil {
		panic("student.NewService: nil dependency")
	}
	return &Service{repo: repo, validate: validate}
}

// checkUniqueness is the fast path; the storage constraint stays authoritative.
func (svc *Service) checkUniqueness(ctx context.Context, studentID, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, studentID, email, excludedIDs...); err != nil {
		if dErr := duplicateError(err); dErr != nil {
			return dErr
		}
		return errors.Wrap(err, "checking uniqueness")
	}
	return nil
}

// duplicateError maps the repository uniqueness errors to a *core.DuplicateError, or returns nil.
func duplicateError(err error) error {
	switch errors.Cause(err) {
	case ErrStudentIDExists:
		return core.NewDuplicateError("studentId", ErrStudentIDExists)
	case ErrEmailExists:
		return core.NewDuplicateError("email", ErrEmailExists)
	}
	return nil
}

func now() time.Time {
	return NowFunc().UTC().Truncate(time.Millisecond)
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if err := svc.checkUniqueness(ctx, ns.StudentID, ns.Email); err != nil {
		return Student{}, err
	}

	dob, _ := ParseDate(ns.DOB) // validated
	tstamp := now()
	s := Student{
		StudentID:      ns.StudentID,
		FirstName:      ns.FirstName,
		LastName:       ns.LastName,
		Email:          ns.Email,
		DOB:            dob,
		Department:     ns.Department,
		EnrollmentYear: ns.EnrollmentYear,
		IsActive:       ns.Active(),
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	s, err := svc.repo.CreateStudent(ctx, s)
	if err != nil {
		if dErr := duplicateError(err); dErr != nil {
			return Student{}, dErr
		}
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (svc *Service) QueryAll(ctx context.Context, orderings ...Ordering) ([]Student, error) {
	if err := checkOrderings(orderings); err != nil {
		return nil, err
	}

	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []Student{}
	}
	if err = SortStudents(students, orderings...); err != nil {
		return nil, err
	}
	return students, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	merged := us.Merge(orig)
	if err = svc.validate.Struct(merged); err != nil {
		return Student{}, err
	}
	if merged.StudentID != orig.StudentID || merged.Email != orig.Email {
		if err = svc.checkUniqueness(ctx, merged.StudentID, merged.Email, orig.ID); err != nil {
			return Student{}, err
		}
	}

	dob, _ := ParseDate(merged.DOB) // validated
	s := Student{
		ID:             orig.ID,
		StudentID:      merged.StudentID,
		FirstName:      merged.FirstName,
		LastName:       merged.LastName,
		Email:          merged.Email,
		DOB:            dob,
		Department:     merged.Department,
		EnrollmentYear: merged.EnrollmentYear,
		IsActive:       merged.Active(),
		CreatedAt:      orig.CreatedAt,
		UpdatedAt:      now(),
	}
	s, err = svc.repo.UpdateStudent(ctx, s)
	if err != nil {
		if dErr := duplicateError(err); dErr != nil {
			return Student{}, dErr
		}
		if errors.Cause(err) == ErrNotFound {
			return Student{}, err
		}
		return Student{}, errors.Wrap(err, "updating student")
	}
	return s, nil
}

// Delete removes the student permanently and returns a confirmation message.
func (svc *Service) Delete(ctx context.Context, id string) (string, error) {
	if err := svc.repo.DeleteStudent(ctx, id); err != nil {
		return "", err
	}
	return RemovedMessage, nil
}
