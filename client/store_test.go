package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/studentrecords/apps/api/echo"
	"github.com/trezcool/studentrecords/client"
	"github.com/trezcool/studentrecords/core/student"
	dummydb "github.com/trezcool/studentrecords/storage/database/dummy"
	"github.com/trezcool/studentrecords/tests"
)

// newAPI serves the real API over an in-memory store.
func newAPI(t *testing.T) *httptest.Server {
	db, _ := dummydb.Open()
	validate, translator := student.NewValidator()
	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       testutil.NewConfig(),
		Logger:     testutil.NopLogger{},
		StudentSvc: student.NewService(dummydb.NewStudentRepository(db), validate),
		Validate:   validate,
		Translator: translator,
	})
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return srv
}

func strPtr(s string) *string { return &s }

func TestStore(t *testing.T) {
	srv := newAPI(t)
	store := client.NewStore(srv.URL+"/api/", srv.Client())
	ctx := context.Background()

	students, err := store.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.False(t, store.Loading())

	jo, err := store.Create(ctx, testutil.NewStudentData("A100", "Jo", "Doe"))
	require.NoError(t, err)
	ann, err := store.Create(ctx, testutil.NewStudentData("B200", "Ann", "Lee"))
	require.NoError(t, err)
	assert.Equal(t, []student.Student{jo, ann}, store.Students(), "append on create")

	t.Run("create duplicate leaves cache unchanged", func(t *testing.T) {
		dup := testutil.NewStudentData("A100", "Al", "Doe")
		dup.Email = "al@x.com"
		_, err := store.Create(ctx, dup)

		var aErr *client.APIError
		require.True(t, errors.As(err, &aErr), "got %v", err)
		assert.Equal(t, http.StatusBadRequest, aErr.StatusCode)
		assert.Equal(t, map[string]string{"studentId": "student ID already in use"}, aErr.Fields)
		assert.Equal(t, err, store.Err())
		assert.Len(t, store.Students(), 2)
	})

	t.Run("update replaces by id", func(t *testing.T) {
		upd, err := store.Update(ctx, jo.ID, student.UpdateStudent{Department: strPtr("Math")})
		require.NoError(t, err)
		assert.Equal(t, "Math", upd.Department)
		assert.NoError(t, store.Err())

		cached := store.Students()
		require.Len(t, cached, 2)
		assert.Equal(t, upd, cached[0])
		assert.Equal(t, ann, cached[1])
		jo = upd
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, err := store.Update(ctx, "missing", student.UpdateStudent{Department: strPtr("Math")})
		assert.True(t, client.IsNotFound(err), "got %v", err)
		assert.Equal(t, []student.Student{jo, ann}, store.Students())
	})

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, ann, got)

		_, err = store.Get(ctx, "missing")
		assert.True(t, client.IsNotFound(err))
		assert.Contains(t, err.Error(), "student not found")
	})

	t.Run("delete removes by id", func(t *testing.T) {
		msg, err := store.Delete(ctx, jo.ID)
		require.NoError(t, err)
		assert.Equal(t, student.RemovedMessage, msg)
		assert.Equal(t, []student.Student{ann}, store.Students())

		_, err = store.Delete(ctx, jo.ID)
		assert.True(t, client.IsNotFound(err))
		assert.Equal(t, []student.Student{ann}, store.Students())
	})

	t.Run("refresh matches server", func(t *testing.T) {
		students, err := store.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, []student.Student{ann}, students)
	})
}

func TestStore_transportFailure(t *testing.T) {
	srv := newAPI(t)
	store := client.NewStore(srv.URL+"/api", srv.Client())
	ctx := context.Background()

	_, err := store.Create(ctx, testutil.NewStudentData("A100", "Jo", "Doe"))
	require.NoError(t, err)
	srv.Close()

	_, err = store.Refresh(ctx)
	assert.Error(t, err)
	var aErr *client.APIError
	assert.False(t, errors.As(err, &aErr), "not an API answer")
	assert.Len(t, store.Students(), 1, "cache unchanged")
	assert.False(t, store.Loading())
}

func TestStore_Loading(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	store := client.NewStore(srv.URL, srv.Client())
	done := make(chan error, 1)
	go func() {
		_, err := store.Refresh(context.Background())
		done <- err
	}()

	assert.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, store.Loading())
}

func TestAPIError(t *testing.T) {
	err := &client.APIError{
		StatusCode: http.StatusBadRequest,
		Fields:     map[string]string{"email": "email already in use", "dob": "this field is required"},
	}
	assert.Equal(t, "400: dob: this field is required; email: email already in use", err.Error())

	err = &client.APIError{StatusCode: http.StatusNotFound, Message: "student not found"}
	assert.Equal(t, "404: student not found", err.Error())
	assert.True(t, client.IsNotFound(errors.Wrap(err, "fetching student")))
}
