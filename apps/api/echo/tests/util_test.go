package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studentrecords/core/student"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte // nil: body not checked
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshalObj()")
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	require.NoError(t, err, "marshalList()")
	return data
}

func decodeStudent(t *testing.T, data []byte) student.Student {
	var s student.Student
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func countStudents(t *testing.T) int {
	students, err := studentRepo.QueryAllStudents(context.Background())
	require.NoError(t, err)
	return len(students)
}

// checkCodeAndData compares JSON bodies semantically; lists are compared regardless of order.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "status code")
	if tt.wantData == nil {
		return
	}

	var got, want interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got), "response body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(tt.wantData, &want))

	if wantList, ok := want.([]interface{}); ok {
		gotList, ok := got.([]interface{})
		require.True(t, ok, "got %s, want a list", rec.Body.String())
		assert.ElementsMatch(t, wantList, gotList)
		return
	}
	assert.Equal(t, want, got)
}
