package student

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studentrecords/core"
)

func TestSortStudents(t *testing.T) {
	day := func(s string) Date {
		d, err := ParseDate(s)
		require.NoError(t, err)
		return d
	}
	now := time.Now().UTC()

	a := Student{ID: "a", StudentID: "A1", LastName: "Doe", DOB: day("2001-01-01"), EnrollmentYear: 2021, IsActive: true, CreatedAt: now}
	b := Student{ID: "b", StudentID: "B1", LastName: "Lee", DOB: day("1999-12-31"), EnrollmentYear: 2020, IsActive: false, CreatedAt: now.Add(time.Second)}
	c := Student{ID: "c", StudentID: "C1", LastName: "Doe", DOB: day("2003-03-03"), EnrollmentYear: 2020, IsActive: true, CreatedAt: now.Add(2 * time.Second)}

	tests := []struct {
		name      string
		orderings []Ordering
		want      []string
	}{
		{name: "none keeps order", want: []string{"a", "b", "c"}},
		{name: "dob", orderings: []Ordering{{Field: "dob", Ascending: true}}, want: []string{"b", "a", "c"}},
		{name: "-createdAt", orderings: []Ordering{{Field: "createdAt"}}, want: []string{"c", "b", "a"}},
		{
			name:      "enrollmentYear then -studentId",
			orderings: []Ordering{{Field: "enrollmentYear", Ascending: true}, {Field: "studentId"}},
			want:      []string{"c", "b", "a"},
		},
		{name: "stable on ties", orderings: []Ordering{{Field: "lastName", Ascending: true}}, want: []string{"a", "c", "b"}},
		{name: "-isActive", orderings: []Ordering{{Field: "isActive"}}, want: []string{"a", "c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students := []Student{a, b, c}
			require.NoError(t, SortStudents(students, tt.orderings...))

			got := make([]string, 0, len(students))
			for _, s := range students {
				got = append(got, s.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		students := []Student{a, b, c}
		err := SortStudents(students, Ordering{Field: "lastName"}, Ordering{Field: "password"})

		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, ErrInvalidOrdering, vErr.Err)
		assert.Equal(t, map[string]string{"ordering": `cannot order by "password"`}, vErr.FieldMap())
		assert.Equal(t, []Student{a, b, c}, students, "left untouched")
	})
}
