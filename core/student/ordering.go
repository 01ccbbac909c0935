package student

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core"
)

var ErrInvalidOrdering = errors.New("invalid ordering")

// Ordering sorts listings by Field (a JSON field name).
type Ordering struct {
	Field     string
	Ascending bool
}

var orderingFields = map[string]func(a, b Student) int{
	"studentId":      func(a, b Student) int { return strings.Compare(a.StudentID, b.StudentID) },
	"firstName":      func(a, b Student) int { return strings.Compare(a.FirstName, b.FirstName) },
	"lastName":       func(a, b Student) int { return strings.Compare(a.LastName, b.LastName) },
	"email":          func(a, b Student) int { return strings.Compare(a.Email, b.Email) },
	"dob":            func(a, b Student) int { return a.DOB.Compare(b.DOB.Time) },
	"department":     func(a, b Student) int { return strings.Compare(a.Department, b.Department) },
	"enrollmentYear": func(a, b Student) int { return cmp.Compare(a.EnrollmentYear, b.EnrollmentYear) },
	"isActive":       func(a, b Student) int { return cmp.Compare(boolInt(a.IsActive), boolInt(b.IsActive)) },
	"createdAt":      func(a, b Student) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":      func(a, b Student) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkOrderings(orderings []Ordering) error {
	for _, ord := range orderings {
		if _, ok := orderingFields[ord.Field]; !ok {
			return core.NewFieldValidationError(ErrInvalidOrdering, "ordering", fmt.Sprintf("cannot order by %q", ord.Field))
		}
	}
	return nil
}

// SortStudents sorts students in place, earlier orderings taking precedence.
// Ties keep their storage order.
func SortStudents(students []Student, orderings ...Ordering) error {
	if err := checkOrderings(orderings); err != nil {
		return err
	}
	if len(orderings) == 0 {
		return nil
	}

	slices.SortStableFunc(students, func(a, b Student) int {
		for _, ord := range orderings {
			if c := orderingFields[ord.Field](a, b); c != 0 {
				if !ord.Ascending {
					return -c
				}
				return c
			}
		}
		return 0
	})
	return nil
}
