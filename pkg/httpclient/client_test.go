package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestNewDefaults(t *testing.T) {
	c := New("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)

	c = New("http://localhost", WithTimeout(5*time.Second))
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestPostJSON(t *testing.T) {
	var (
		method  string
		path    string
		body    []byte
		headers http.Header
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		headers = r.Header
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testPayload{Name: "response", Value: 200})
	}))
	defer ts.Close()

	c := New(ts.URL, WithHeader("Authorization", "Bearer abc"), WithHeader("Version", "2021-07-28"))

	var out testPayload
	err := c.PostJSON(context.Background(), "/contacts/", testPayload{Name: "req", Value: 1}, &out)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/contacts/", path)
	assert.JSONEq(t, `{"name":"req","value":1}`, string(body))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "Bearer abc", headers.Get("Authorization"))
	assert.Equal(t, "2021-07-28", headers.Get("Version"))
	assert.Equal(t, testPayload{Name: "response", Value: 200}, out)
}

func TestGetJSONEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	var out testPayload
	require.NoError(t, New(ts.URL).GetJSON(context.Background(), "/ping", &out))
	assert.Equal(t, testPayload{}, out)
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad key"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	err := New(ts.URL).PutJSON(context.Background(), "/x", testPayload{}, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "bad key")
}

func TestContextCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(ts.URL).GetJSON(ctx, "/slow", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
