// Package client keeps a session's view of the student records in sync with the API.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/studentrecords/core/student"
)

const studentsPath = "/students"

// Store is the single in-memory copy of the student list for a session.
// Every operation issues exactly one request; the cache is only touched on success.
// Overlapping mutations are not coordinated: the last response to arrive wins.
type Store struct {
	baseURL string
	client  *rest.Client

	mu       sync.RWMutex
	students []student.Student
	inFlight int
	lastErr  error
}

// NewStore returns a Store talking to the API at baseURL (e.g. http://localhost:5000/api).
// A nil httpClient falls back to rest.DefaultClient.
func NewStore(baseURL string, httpClient *http.Client) *Store {
	c := rest.DefaultClient
	if httpClient != nil {
		c = &rest.Client{HTTPClient: httpClient}
	}
	return &Store{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   c,
		students: []student.Student{},
	}
}

// Students returns a copy of the cached list.
func (s *Store) Students() []student.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	students := make([]student.Student, len(s.students))
	copy(students, s.students)
	return students
}

// Loading reports whether a request is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Err returns the error of the last failed operation, cleared by the next successful one.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Refresh reloads the whole list, sorted server-side when ordering fields
// ("lastName", "-enrollmentYear", ...) are given.
func (s *Store) Refresh(ctx context.Context, ordering ...string) ([]student.Student, error) {
	path := studentsPath
	if len(ordering) > 0 {
		path += "?" + url.Values{"ordering": {strings.Join(ordering, ",")}}.Encode()
	}

	var students []student.Student
	if err := s.do(ctx, rest.Get, path, nil, &students); err != nil {
		return nil, s.fail(errors.Wrap(err, "fetching students"))
	}
	if students == nil {
		students = []student.Student{}
	}

	s.mu.Lock()
	s.students = students
	s.lastErr = nil
	s.mu.Unlock()
	return s.Students(), nil
}

// Get fetches a single student. A cached copy with the same id is refreshed.
func (s *Store) Get(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	if err := s.do(ctx, rest.Get, studentPath(id), nil, &st); err != nil {
		return student.Student{}, s.fail(errors.Wrap(err, "fetching student"))
	}

	s.mu.Lock()
	s.replace(st)
	s.lastErr = nil
	s.mu.Unlock()
	return st, nil
}

// Create posts a new student and appends it to the list.
func (s *Store) Create(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var st student.Student
	if err := s.do(ctx, rest.Post, studentsPath, ns, &st); err != nil {
		return student.Student{}, s.fail(errors.Wrap(err, "adding student"))
	}

	s.mu.Lock()
	s.students = append(s.students, st)
	s.lastErr = nil
	s.mu.Unlock()
	return st, nil
}

// Update sends the provided fields and replaces the cached student by id.
func (s *Store) Update(ctx context.Context, id string, us student.UpdateStudent) (student.Student, error) {
	var st student.Student
	if err := s.do(ctx, rest.Put, studentPath(id), us, &st); err != nil {
		return student.Student{}, s.fail(errors.Wrap(err, "updating student"))
	}

	s.mu.Lock()
	s.replace(st)
	s.lastErr = nil
	s.mu.Unlock()
	return st, nil
}

// Delete removes the student and drops it from the list. It returns the API confirmation.
func (s *Store) Delete(ctx context.Context, id string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := s.do(ctx, rest.Delete, studentPath(id), nil, &resp); err != nil {
		return "", s.fail(errors.Wrap(err, "deleting student"))
	}

	s.mu.Lock()
	for i, st := range s.students {
		if st.ID == id {
			s.students = append(s.students[:i:i], s.students[i+1:]...)
			break
		}
	}
	s.lastErr = nil
	s.mu.Unlock()
	return resp.Message, nil
}

// replace must be called with the lock held.
func (s *Store) replace(st student.Student) {
	for i := range s.students {
		if s.students[i].ID == st.ID {
			s.students[i] = st
			return
		}
	}
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading {
		s.inFlight++
	} else {
		s.inFlight--
	}
}

// do sends one JSON request and decodes a 2xx answer into out.
func (s *Store) do(ctx context.Context, method rest.Method, path string, in, out interface{}) error {
	s.setLoading(true)
	defer s.setLoading(false)

	req := rest.Request{
		Method:  method,
		BaseURL: s.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = body
	}

	resp, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal([]byte(resp.Body), out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

func studentPath(id string) string {
	return studentsPath + "/" + url.PathEscape(id)
}
