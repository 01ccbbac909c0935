package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/studentrecords/core/student"
)

const orderingParam = "ordering"

// ordering binds "?ordering=lastName,-enrollmentYear". A leading "-" sorts descending.
type ordering struct {
	orderings []student.Ordering
}

func (ord *ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.orderings = append(ord.orderings, student.Ordering{Field: field, Ascending: !descending})
	}
}
