// internal/common/http/client_test.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := NewClient(time.Second).PostJSON(context.Background(), srv.URL,
		map[string]string{"Authorization": "Bearer k"}, map[string]string{"msg": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Echo)
}

func TestPostJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	err := NewClient(time.Second).PostJSON(context.Background(), srv.URL, nil, struct{}{}, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestGetBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("citystate") != "NC" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	body, err := NewWithHTTPClient(srv.Client()).GetBody(context.Background(), srv.URL+"?citystate=NC", nil)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))

	_, err = NewWithHTTPClient(srv.Client()).GetBody(context.Background(), srv.URL+"?citystate=ZZ", nil)
	assert.Error(t, err)
}
