package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a SessionSource recording invalidations.
type fakeSession struct {
	mu            sync.Mutex
	token         string
	invalidations int
}

func (f *fakeSession) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeSession) Invalidate(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
	f.token = ""
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidations
}

func TestGateway_Send_AttachesBearer(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	}))
	defer srv.Close()

	sess := &fakeSession{token: "tok-123"}
	gw := New(Config{BaseURL: srv.URL, Session: sess})

	resp, err := gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/jobs"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestGateway_Send_NoBearerWhenAnonymous(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gw := New(Config{BaseURL: srv.URL, Session: &fakeSession{}})

	_, err := gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/jobs"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestGateway_Send_QueryAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewDecoder(r.Body).Decode(&gotBody)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gw := New(Config{BaseURL: srv.URL, Session: &fakeSession{token: "t"}})

	q := url.Values{}
	q.Set("status", "assigned")
	_, err := gw.Send(context.Background(), Request{
		Method: http.MethodPut,
		Path:   "/jobs/j1",
		Query:  q,
		Body:   map[string]string{"status": "in_progress"},
	})
	require.NoError(t, err)

	assert.Equal(t, "assigned", gotQuery.Get("status"))
	assert.Equal(t, "in_progress", gotBody["status"])
}

func TestGateway_Send_UnauthorizedInvalidatesOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid or expired token"})
	}))
	defer srv.Close()

	sess := &fakeSession{token: "stale"}
	gw := New(Config{BaseURL: srv.URL, Session: sess})

	_, err := gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/jobs"})
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.True(t, reqErr.Unauthorized())
	assert.Equal(t, "Invalid or expired token", reqErr.Message)
	assert.Equal(t, 1, sess.count())
}

func TestGateway_Send_RetriedRequestDoesNotInvalidateAgain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := &fakeSession{token: "stale"}
	gw := New(Config{BaseURL: srv.URL, Session: sess})

	req := Request{Method: http.MethodGet, Path: "/jobs"}
	_, err := gw.Send(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 1, sess.count())

	_, err = gw.Send(context.Background(), req.Retry())
	require.Error(t, err)
	assert.Equal(t, 1, sess.count(), "a re-dispatched request must not invalidate again")
}

func TestGateway_Send_ServerErrorPassesThrough(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	sess := &fakeSession{token: "tok"}
	gw := New(Config{BaseURL: srv.URL, Session: sess})

	_, err := gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/jobs"})
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, "boom", reqErr.Message)
	assert.False(t, reqErr.Unauthorized())
	assert.Zero(t, sess.count(), "non-401 failures must not touch the session")
	assert.Equal(t, int32(1), hits.Load())
}

func TestGateway_Send_TransportErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	sess := &fakeSession{token: "tok"}
	gw := New(Config{BaseURL: srv.URL, Session: sess})

	_, err := gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/jobs"})
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Zero(t, reqErr.StatusCode)
	assert.Error(t, reqErr.Unwrap())
	assert.Zero(t, sess.count())
}

func TestResponse_Decode(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"id":"j1"}`)}

	var payload struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.Decode(&payload))
	assert.Equal(t, "j1", payload.ID)

	bad := &Response{Body: []byte(`{`)}
	assert.Error(t, bad.Decode(&payload))
}
