package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

// APIError is a non-2xx answer from the API.
// Fields is set on 400 responses carrying field errors (validation or duplicates).
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (err *APIError) Error() string {
	if len(err.Fields) == 0 {
		return fmt.Sprintf("%d: %s", err.StatusCode, err.Message)
	}

	names := make([]string, 0, len(err.Fields))
	for name := range err.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+err.Fields[name])
	}
	return fmt.Sprintf("%d: %s", err.StatusCode, strings.Join(parts, "; "))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var aErr *APIError
	return errors.As(err, &aErr) && aErr.StatusCode == http.StatusNotFound
}

// newAPIError decodes the error body; `{"error": msg}` gives the message, any other string map the field errors.
func newAPIError(resp *rest.Response) *APIError {
	aErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		return aErr
	}
	if msg, ok := body["error"]; ok && len(body) == 1 {
		aErr.Message = msg
		return aErr
	}
	if len(body) > 0 {
		aErr.Fields = body
	}
	return aErr
}
