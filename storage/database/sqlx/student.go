package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core/student"
)

const (
	uniqueViolationCode = "23505"

	// constraint names, see migrations
	studentIDConstraint = "students_student_id_key"
	emailConstraint     = "students_email_key"

	studentColumns = "id, student_id, first_name, last_name, email, dob, department, enrollment_year, is_active, created_at, updated_at"
)

type studentRow struct {
	ID             string    `db:"id"`
	StudentID      string    `db:"student_id"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Email          string    `db:"email"`
	DOB            time.Time `db:"dob"`
	Department     string    `db:"department"`
	EnrollmentYear int       `db:"enrollment_year"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func newStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:             s.ID,
		StudentID:      s.StudentID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		DOB:            s.DOB.Time,
		Department:     s.Department,
		EnrollmentYear: s.EnrollmentYear,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (row studentRow) toStudent() student.Student {
	return student.Student{
		ID:             row.ID,
		StudentID:      row.StudentID,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Email:          row.Email,
		DOB:            student.NewDate(row.DOB),
		Department:     row.Department,
		EnrollmentYear: row.EnrollmentYear,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

// parseID rejects malformed ids before they reach postgres.
func parseID(id string) (string, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return "", student.ErrNotFound
	}
	return uid.String(), nil
}

// uniqueViolation translates a unique constraint violation into the matching student error.
func uniqueViolation(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		switch pqErr.Constraint {
		case studentIDConstraint:
			return student.ErrStudentIDExists
		case emailConstraint:
			return student.ErrEmailExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, studentID, email string, excludedIDs ...string) error {
	excluded := make([]string, 0, len(excludedIDs))
	for _, id := range excludedIDs {
		if uid, err := parseID(id); err == nil {
			excluded = append(excluded, uid)
		}
	}

	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM students
		WHERE (student_id = $1 OR email = $2) AND NOT (id = ANY($3::uuid[]))
		LIMIT 1`
	err := repo.db.GetContext(ctx, &row, q, studentID, email, pq.Array(excluded))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return errors.Wrap(err, "finding conflicting student")
	case studentID != "" && row.StudentID == studentID:
		return student.ErrStudentIDExists
	default:
		return student.ErrEmailExists
	}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.NewString()
	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :student_id, :first_name, :last_name, :email, :dob, :department, :enrollment_year, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newStudentRow(s)); err != nil {
		return student.Student{}, uniqueViolation(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+studentColumns+` FROM students ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	uid, err := parseID(id)
	if err != nil {
		return student.Student{}, err
	}

	var row studentRow
	if err = repo.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM students WHERE id = $1`, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	uid, err := parseID(s.ID)
	if err != nil {
		return student.Student{}, err
	}

	q := `UPDATE students SET
			student_id = $2, first_name = $3, last_name = $4, email = $5, dob = $6,
			department = $7, enrollment_year = $8, is_active = $9, updated_at = $10
		WHERE id = $1
		RETURNING ` + studentColumns
	var row studentRow
	err = repo.db.QueryRowxContext(ctx, q,
		uid, s.StudentID, s.FirstName, s.LastName, s.Email, s.DOB.Time,
		s.Department, s.EnrollmentYear, s.IsActive, s.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, uniqueViolation(err, "updating student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, uid)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n == 0 {
		return student.ErrNotFound
	}
	return nil
}
